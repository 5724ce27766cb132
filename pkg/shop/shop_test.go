package shop

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/events"
	"github.com/example/storefront/pkg/metrics"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"github.com/example/storefront/pkg/session"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.Event
}

func (p *recordingPublisher) Publish(ev *events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type fixture struct {
	repo    *repository.MemoryRepository
	auth    *AuthService
	catalog *CatalogService
	orders  *OrderService
	events  *recordingPublisher
	metrics *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithLogger(t, zaptest.NewLogger(t))
}

func newFixtureWithLogger(t *testing.T, logger *zap.Logger) *fixture {
	t.Helper()
	repo := repository.NewMemoryRepository()
	pub := &recordingPublisher{}
	m := metrics.New()
	return &fixture{
		repo:    repo,
		auth:    NewAuthService(repo, session.NewMemoryStore(time.Hour), m, logger),
		catalog: NewCatalogService(repo, pub, logger),
		orders:  NewOrderService(repo, repo, pub, m, logger),
		events:  pub,
		metrics: m,
	}
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }
func strPtr(s string) *string     { return &s }

func (f *fixture) product(t *testing.T, name string, price float64, stock int) *models.Product {
	t.Helper()
	p, err := f.catalog.Create(context.Background(), ProductInput{Name: name, Price: floatPtr(price), Stock: intPtr(stock)})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}
	return p
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.repo.GetProduct(context.Background(), id)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	return p.Stock
}

func (f *fixture) orderCount(t *testing.T) int {
	t.Helper()
	orders, err := f.repo.ListOrders(context.Background())
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	return len(orders)
}

var annInput = RegisterInput{
	Firstname:  "Ann",
	Middlename: "Marie",
	Lastname:   "Lee",
	Email:      "Ann@Example.com ",
	Password:   "secret123",
	Address:    "1 Main St",
	Contact:    "555-0100",
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	user, err := f.auth.Register(ctx, annInput)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "ann@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.Role != models.RoleUser {
		t.Fatalf("role = %q, want user", user.Role)
	}
	if user.PasswordHash == "" || user.PasswordHash == annInput.Password {
		t.Fatal("password must be stored hashed")
	}

	again := annInput
	again.Email = "ann@example.com"
	if _, err := f.auth.Register(ctx, again); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("second register: got %v, want ErrDuplicateEmail", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *RegisterInput)
	}{
		{name: "missing firstname", mutate: func(in *RegisterInput) { in.Firstname = "" }},
		{name: "missing lastname", mutate: func(in *RegisterInput) { in.Lastname = "" }},
		{name: "bad email", mutate: func(in *RegisterInput) { in.Email = "not-an-email" }},
		{name: "short password", mutate: func(in *RegisterInput) { in.Password = "abc" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := annInput
			tt.mutate(&in)
			if _, err := f.auth.Register(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("got %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.auth.Register(ctx, annInput); err != nil {
		t.Fatalf("Register: %v", err)
	}

	sess, err := f.auth.Login(ctx, "ANN@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.User.Role != models.RoleUser || sess.User.Email != "ann@example.com" {
		t.Fatalf("unexpected identity %+v", sess.User)
	}
	if sess.User.Address != "1 Main St" || sess.User.Contact != "555-0100" {
		t.Fatalf("identity snapshot incomplete: %+v", sess.User)
	}

	resolved, err := f.auth.Resolve(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.User != sess.User {
		t.Fatalf("resolved identity differs")
	}

	_, wrongPassword := f.auth.Login(ctx, "ann@example.com", "nope-nope")
	_, unknownEmail := f.auth.Login(ctx, "who@example.com", "secret123")
	if !errors.Is(wrongPassword, ErrInvalidCredentials) || !errors.Is(unknownEmail, ErrInvalidCredentials) {
		t.Fatalf("got %v and %v, want ErrInvalidCredentials", wrongPassword, unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("credential errors must be identical: %q vs %q", wrongPassword, unknownEmail)
	}

	if got := testutil.ToFloat64(f.metrics.Logins.WithLabelValues("rejected")); got != 2 {
		t.Fatalf("rejected logins = %v, want 2", got)
	}
}

func TestLoginReturnsStoredAdminRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cfg := config.AdminConfig{Email: "Boss@Example.com", Password: "supersecret", Firstname: "Store", Lastname: "Admin"}
	if err := f.auth.EnsureAdmin(ctx, cfg); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	// second run is a no-op
	if err := f.auth.EnsureAdmin(ctx, cfg); err != nil {
		t.Fatalf("EnsureAdmin again: %v", err)
	}

	sess, err := f.auth.Login(ctx, "boss@example.com", "supersecret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !sess.IsAdmin() {
		t.Fatalf("role = %q, want admin", sess.User.Role)
	}
	if err := f.auth.RequireAdmin(sess); err != nil {
		t.Fatalf("RequireAdmin: %v", err)
	}
}

func TestRequireAdmin(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		sess *models.Session
		want error
	}{
		{name: "guest", sess: nil, want: ErrForbidden},
		{name: "user", sess: &models.Session{User: models.Identity{Role: models.RoleUser}}, want: ErrForbidden},
		{name: "empty role", sess: &models.Session{}, want: ErrForbidden},
		{name: "admin", sess: &models.Session{User: models.Identity{Role: models.RoleAdmin}}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := f.auth.RequireAdmin(tt.sess); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStatusAndLogout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.auth.Register(ctx, annInput); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if st := f.auth.Status(nil); st.LoggedIn || st.User != nil {
		t.Fatalf("guest status = %+v", st)
	}

	sess, err := f.auth.Login(ctx, "ann@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	st := f.auth.Status(sess)
	if !st.LoggedIn || st.User == nil || st.User.Email != "ann@example.com" {
		t.Fatalf("status = %+v", st)
	}

	if err := f.auth.Logout(ctx, sess.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := f.auth.Logout(ctx, sess.ID); err != nil {
		t.Fatalf("repeat Logout: %v", err)
	}
	if err := f.auth.Logout(ctx, ""); err != nil {
		t.Fatalf("Logout without session: %v", err)
	}
	if _, err := f.auth.Resolve(ctx, sess.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Resolve after logout: got %v", err)
	}
}

func TestCatalogCreateGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	in := ProductInput{
		Name:        "Strawberry",
		Price:       floatPtr(3.75),
		Category:    "ice cream",
		Image:       "strawberry.png",
		Description: "fresh",
	}
	created, err := f.catalog.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := f.catalog.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != in.Name || got.Price != *in.Price || got.Category != in.Category ||
		got.Image != in.Image || got.Description != in.Description {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Stock != 0 {
		t.Fatalf("stock = %d, want default 0", got.Stock)
	}

	if _, err := f.catalog.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing: got %v", err)
	}
	if types := f.events.types(); len(types) != 1 || types[0] != events.ProductCreated {
		t.Fatalf("events = %v", types)
	}
}

func TestCatalogValidation(t *testing.T) {
	tests := []struct {
		name string
		in   ProductInput
	}{
		{name: "missing name", in: ProductInput{Price: floatPtr(1)}},
		{name: "blank name", in: ProductInput{Name: "   ", Price: floatPtr(1)}},
		{name: "missing price", in: ProductInput{Name: "Mint"}},
		{name: "negative price", in: ProductInput{Name: "Mint", Price: floatPtr(-1)}},
		{name: "negative stock", in: ProductInput{Name: "Mint", Price: floatPtr(1), Stock: intPtr(-3)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if _, err := f.catalog.Create(context.Background(), tt.in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("got %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestCatalogUpdateMerges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, "Mint", 2, 7)

	updated, err := f.catalog.Update(ctx, p.ID, models.ProductPatch{Price: floatPtr(2.5), Description: strPtr("cool")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Price != 2.5 || updated.Description != "cool" {
		t.Fatalf("patch not applied: %+v", updated)
	}
	if updated.Name != "Mint" || updated.Stock != 7 {
		t.Fatalf("omitted fields changed: %+v", updated)
	}

	if _, err := f.catalog.Update(ctx, p.ID, models.ProductPatch{Stock: intPtr(-1)}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative stock: got %v", err)
	}
	if _, err := f.catalog.Update(ctx, p.ID, models.ProductPatch{Name: strPtr("")}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty name: got %v", err)
	}
	if _, err := f.catalog.Update(ctx, "missing", models.ProductPatch{Price: floatPtr(1)}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing product: got %v", err)
	}
}

func TestPlaceOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, "Vanilla", 2.5, 10)

	order, err := f.orders.PlaceOrder(ctx, nil, PlaceOrderInput{ProductID: p.ID, Price: floatPtr(2.5), Quantity: 4})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if got := f.stock(t, p.ID); got != 6 {
		t.Fatalf("stock = %d, want 6", got)
	}
	if f.orderCount(t) != 1 {
		t.Fatalf("expected exactly one order")
	}
	if order.ProductID != p.ID || order.Product != "Vanilla" || order.Total != 10 || order.Timestamp.IsZero() {
		t.Fatalf("unexpected order %+v", order)
	}
	if order.Buyer != models.GuestBuyer {
		t.Fatalf("buyer = %q, want guest", order.Buyer)
	}

	if got := testutil.ToFloat64(f.metrics.OrdersPlaced); got != 1 {
		t.Fatalf("orders_placed = %v", got)
	}
	if types := f.events.types(); types[len(types)-1] != events.OrderPlaced {
		t.Fatalf("last event = %v, want order.placed", types)
	}
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, "Vanilla", 2.5, 3)

	_, err := f.orders.PlaceOrder(ctx, nil, PlaceOrderInput{ProductID: p.ID, Price: floatPtr(2.5), Quantity: 4})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("got %v, want ErrInsufficientStock", err)
	}
	if got := f.stock(t, p.ID); got != 3 {
		t.Fatalf("stock changed to %d", got)
	}
	if f.orderCount(t) != 0 {
		t.Fatal("no order may be created")
	}
	if got := testutil.ToFloat64(f.metrics.OrdersRejected.WithLabelValues("insufficient_stock")); got != 1 {
		t.Fatalf("rejected = %v", got)
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	tests := []struct {
		name string
		in   PlaceOrderInput
		want error
	}{
		{name: "no product", in: PlaceOrderInput{Price: floatPtr(1), Quantity: 1}, want: ErrInvalidInput},
		{name: "blank product name", in: PlaceOrderInput{Product: "  ", Price: floatPtr(1), Quantity: 1}, want: ErrInvalidInput},
		{name: "no price", in: PlaceOrderInput{Product: "Vanilla", Quantity: 1}, want: ErrInvalidInput},
		{name: "negative price", in: PlaceOrderInput{Product: "Vanilla", Price: floatPtr(-1), Quantity: 1}, want: ErrInvalidInput},
		{name: "zero quantity", in: PlaceOrderInput{Product: "Vanilla", Price: floatPtr(1)}, want: ErrInvalidInput},
		{name: "negative quantity", in: PlaceOrderInput{Product: "Vanilla", Price: floatPtr(1), Quantity: -2}, want: ErrInvalidInput},
		{name: "unknown id", in: PlaceOrderInput{ProductID: "nope", Price: floatPtr(1), Quantity: 1}, want: ErrNotFound},
		{name: "unknown name", in: PlaceOrderInput{Product: "Durian", Price: floatPtr(1), Quantity: 1}, want: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			p := f.product(t, "Vanilla", 1, 5)

			if _, err := f.orders.PlaceOrder(context.Background(), nil, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if got := f.stock(t, p.ID); got != 5 {
				t.Fatalf("stock changed to %d", got)
			}
			if f.orderCount(t) != 0 {
				t.Fatal("no order may be created")
			}
		})
	}
}

func TestPlaceOrderByName(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Ube", 4, 2)

	order, err := f.orders.PlaceOrder(context.Background(), nil, PlaceOrderInput{Product: "Ube", Price: floatPtr(4), Quantity: 2})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if order.ProductID != p.ID {
		t.Fatalf("order keyed to %q, want %q", order.ProductID, p.ID)
	}
	if got := f.stock(t, p.ID); got != 0 {
		t.Fatalf("stock = %d, want 0", got)
	}
}

func TestBuyerResolution(t *testing.T) {
	annSession := &models.Session{User: models.Identity{Firstname: "Ann", Middlename: "", Lastname: "Lee", Email: "ann@example.com"}}

	tests := []struct {
		name      string
		sess      *models.Session
		in        PlaceOrderInput
		wantBuyer string
		wantEmail string
	}{
		{name: "session wins", sess: annSession, in: PlaceOrderInput{Buyer: "Bob", BuyerEmail: "bob@example.com"}, wantBuyer: "Ann Lee", wantEmail: "ann@example.com"},
		{name: "client supplied", in: PlaceOrderInput{Buyer: " Bob ", BuyerEmail: "Bob@Example.com"}, wantBuyer: "Bob", wantEmail: "bob@example.com"},
		{name: "guest", in: PlaceOrderInput{}, wantBuyer: "guest", wantEmail: ""},
		{name: "full name", sess: &models.Session{User: models.Identity{Firstname: "Juan", Middlename: "Dela", Lastname: "Cruz"}}, wantBuyer: "Juan Dela Cruz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buyer, email := resolveBuyer(tt.sess, tt.in)
			if buyer != tt.wantBuyer || email != tt.wantEmail {
				t.Fatalf("got (%q, %q), want (%q, %q)", buyer, email, tt.wantBuyer, tt.wantEmail)
			}
		})
	}
}

func TestPlaceOrderPriceMismatchIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := newFixtureWithLogger(t, zap.New(core))
	p := f.product(t, "Vanilla", 2.5, 5)

	order, err := f.orders.PlaceOrder(context.Background(), nil, PlaceOrderInput{ProductID: p.ID, Price: floatPtr(1), Quantity: 1})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if order.Price != 1 {
		t.Fatalf("price = %v, want submitted price", order.Price)
	}
	if logs.FilterMessage("Order price differs from catalog price").Len() != 1 {
		t.Fatal("expected a price mismatch warning")
	}
}

func TestConcurrentOrdersOneWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, "Vanilla", 1, 5)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.orders.PlaceOrder(ctx, nil, PlaceOrderInput{ProductID: p.ID, Price: floatPtr(1), Quantity: 3})
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientStock):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != 1 {
		t.Fatalf("ok=%d conflicts=%d, want 1 and 1", ok, conflicts)
	}
	if got := f.stock(t, p.ID); got != 2 {
		t.Fatalf("stock = %d, want 2", got)
	}
	if f.orderCount(t) != 1 {
		t.Fatalf("orders = %d, want 1", f.orderCount(t))
	}
}

func TestStockNeverNegative(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, "Vanilla", 1, 17)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(qty int) {
			defer wg.Done()
			_, _ = f.orders.PlaceOrder(ctx, nil, PlaceOrderInput{ProductID: p.ID, Price: floatPtr(1), Quantity: qty})
		}(i%4 + 1)
	}
	wg.Wait()

	stock := f.stock(t, p.ID)
	if stock < 0 {
		t.Fatalf("stock went negative: %d", stock)
	}

	orders, err := f.repo.ListOrders(ctx)
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	sold := 0
	for _, o := range orders {
		sold += o.Quantity
	}
	if sold+stock != 17 {
		t.Fatalf("sold %d + stock %d != 17", sold, stock)
	}
}

type failingOrders struct {
	repository.OrderRepository
}

func (failingOrders) CreateOrder(context.Context, *models.Order) error {
	return errors.New("disk full")
}

func TestPlaceOrderRestocksWhenOrderWriteFails(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Vanilla", 1, 5)
	svc := NewOrderService(f.repo, failingOrders{f.repo}, nil, f.metrics, zaptest.NewLogger(t))

	if _, err := svc.PlaceOrder(context.Background(), nil, PlaceOrderInput{ProductID: p.ID, Price: floatPtr(1), Quantity: 3}); err == nil {
		t.Fatal("expected order write failure")
	}
	if got := f.stock(t, p.ID); got != 5 {
		t.Fatalf("stock = %d, want 5 after compensation", got)
	}
}

func TestDeleteProductKeepsOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, "Vanilla", 2, 5)

	order, err := f.orders.PlaceOrder(ctx, nil, PlaceOrderInput{Product: "Vanilla", Price: floatPtr(2), Quantity: 1})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if err := f.catalog.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := f.catalog.Delete(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete: got %v", err)
	}

	orders, err := f.orders.ListOrders(ctx)
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != order.ID || orders[0].Product != "Vanilla" || orders[0].Quantity != 1 {
		t.Fatalf("historical order changed: %+v", orders)
	}
}

func TestDeleteOrderDoesNotRestock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, "Vanilla", 2, 5)

	order, err := f.orders.PlaceOrder(ctx, nil, PlaceOrderInput{ProductID: p.ID, Price: floatPtr(2), Quantity: 2})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if err := f.orders.DeleteOrder(ctx, order.ID); err != nil {
		t.Fatalf("DeleteOrder: %v", err)
	}
	if got := f.stock(t, p.ID); got != 3 {
		t.Fatalf("stock = %d, want 3", got)
	}
	if err := f.orders.DeleteOrder(ctx, order.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second DeleteOrder: got %v", err)
	}
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, "Vanilla", 1, 10)

	ann := &models.Session{User: models.Identity{Firstname: "Ann", Email: "ann@example.com"}}
	bob := &models.Session{User: models.Identity{Firstname: "Bob", Email: "bob@example.com"}}

	for _, sess := range []*models.Session{ann, bob, ann} {
		if _, err := f.orders.PlaceOrder(ctx, sess, PlaceOrderInput{ProductID: p.ID, Price: floatPtr(1), Quantity: 1}); err != nil {
			t.Fatalf("PlaceOrder: %v", err)
		}
	}

	mine, err := f.orders.History(ctx, ann)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("history has %d orders, want 2", len(mine))
	}
	for _, o := range mine {
		if o.BuyerEmail != "ann@example.com" {
			t.Fatalf("foreign order in history: %+v", o)
		}
	}

	if _, err := f.orders.History(ctx, nil); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("guest history: got %v", err)
	}
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.product(t, "Vanilla", 2.5, 4)
	f.product(t, "Mango", 3, 0)

	var buf bytes.Buffer
	if err := f.catalog.Export(ctx, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	book, err := xlsx.OpenBinary(buf.Bytes())
	if err != nil {
		t.Fatalf("OpenBinary: %v", err)
	}
	sheet, ok := book.Sheet["Products"]
	if !ok {
		t.Fatal("Products sheet missing")
	}
	if len(sheet.Rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(sheet.Rows))
	}
	if got := sheet.Rows[0].Cells[1].String(); got != "Name" {
		t.Fatalf("header cell = %q", got)
	}
}
