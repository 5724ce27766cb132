package shop

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/example/storefront/pkg/events"
	"github.com/example/storefront/pkg/metrics"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PlaceOrderInput identifies the product by id, or by name for older
// clients that only send the product name.
type PlaceOrderInput struct {
	ProductID  string   `json:"productId"`
	Product    string   `json:"product"`
	Price      *float64 `json:"price" validate:"required,gte=0"`
	Quantity   int      `json:"quantity" validate:"gt=0"`
	Buyer      string   `json:"buyer"`
	BuyerEmail string   `json:"buyerEmail"`
}

type OrderService struct {
	products repository.ProductRepository
	orders   repository.OrderRepository
	events   Publisher
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewOrderService(products repository.ProductRepository, orders repository.OrderRepository, pub Publisher, m *metrics.Metrics, logger *zap.Logger) *OrderService {
	if pub == nil {
		pub = nopPublisher{}
	}
	return &OrderService{
		products: products,
		orders:   orders,
		events:   pub,
		metrics:  m,
		logger:   logger,
	}
}

// PlaceOrder takes quantity units out of stock and records the order. The
// stock check and decrement are one conditional write in the store, so
// concurrent orders can never overdraw a product.
func (s *OrderService) PlaceOrder(ctx context.Context, sess *models.Session, in PlaceOrderInput) (*models.Order, error) {
	order, err := s.placeOrder(ctx, sess, in)
	if err != nil {
		s.metrics.OrdersRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}
	s.metrics.OrdersPlaced.Inc()
	s.metrics.UnitsSold.Add(float64(order.Quantity))
	return order, nil
}

func (s *OrderService) placeOrder(ctx context.Context, sess *models.Session, in PlaceOrderInput) (*models.Order, error) {
	in.ProductID = strings.TrimSpace(in.ProductID)
	in.Product = strings.TrimSpace(in.Product)
	if in.ProductID == "" && in.Product == "" {
		return nil, invalidInput("product is required")
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	product, err := s.resolveProduct(ctx, in)
	if err != nil {
		return nil, err
	}

	price := *in.Price
	if price != product.Price {
		s.logger.Warn("Order price differs from catalog price",
			zap.String("product_id", product.ID),
			zap.Float64("order_price", price),
			zap.Float64("catalog_price", product.Price))
	}

	if _, err := s.products.DecrementStock(ctx, product.ID, in.Quantity); err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientStock):
			s.logger.Info("Order rejected, insufficient stock",
				zap.String("product_id", product.ID),
				zap.Int("quantity", in.Quantity))
			return nil, fmt.Errorf("%w for %s", ErrInsufficientStock, product.Name)
		case errors.Is(err, repository.ErrNotFound):
			// deleted between lookup and decrement
			return nil, notFound("product")
		default:
			return nil, err
		}
	}

	buyer, buyerEmail := resolveBuyer(sess, in)
	order := &models.Order{
		ID:         uuid.NewString(),
		ProductID:  product.ID,
		Product:    product.Name,
		Price:      price,
		Quantity:   in.Quantity,
		Total:      math.Round(price*float64(in.Quantity)*100) / 100,
		Buyer:      buyer,
		BuyerEmail: buyerEmail,
		Timestamp:  time.Now(),
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		s.restock(ctx, product.ID, in.Quantity)
		return nil, err
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("product_id", order.ProductID),
		zap.Int("quantity", order.Quantity),
		zap.String("buyer", order.Buyer))

	snapshot := *order
	s.events.Publish(&events.Event{Type: events.OrderPlaced, EntityID: order.ID, Actor: buyerEmail, Order: &snapshot})
	return order, nil
}

func (s *OrderService) resolveProduct(ctx context.Context, in PlaceOrderInput) (*models.Product, error) {
	var (
		p   *models.Product
		err error
	)
	if in.ProductID != "" {
		p, err = s.products.GetProduct(ctx, in.ProductID)
	} else {
		p, err = s.products.FindProductByName(ctx, in.Product)
	}
	if err != nil {
		return nil, productErr(err)
	}
	return p, nil
}

// restock gives back stock taken for an order that could not be saved.
// It runs even if the request context is already cancelled.
func (s *OrderService) restock(ctx context.Context, productID string, qty int) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.products.IncrementStock(ctx, productID, qty); err != nil {
		s.logger.Error("Failed to restore stock after order write failure",
			zap.String("product_id", productID),
			zap.Int("quantity", qty),
			zap.Error(err))
		return
	}
	s.logger.Warn("Order write failed, stock restored",
		zap.String("product_id", productID),
		zap.Int("quantity", qty))
}

// resolveBuyer prefers the session identity, then what the client sent,
// then "guest".
func resolveBuyer(sess *models.Session, in PlaceOrderInput) (string, string) {
	buyer := strings.TrimSpace(in.Buyer)
	email := models.NormalizeEmail(in.BuyerEmail)

	if sess != nil {
		if name := sess.User.DisplayName(); name != "" {
			buyer = name
		}
		if sess.User.Email != "" {
			email = sess.User.Email
		}
	}
	if buyer == "" {
		buyer = models.GuestBuyer
	}
	return buyer, email
}

func (s *OrderService) ListOrders(ctx context.Context) ([]*models.Order, error) {
	return s.orders.ListOrders(ctx)
}

// History lists the caller's own orders, newest first.
func (s *OrderService) History(ctx context.Context, sess *models.Session) ([]*models.Order, error) {
	if sess == nil || sess.User.Email == "" {
		return nil, ErrUnauthorized
	}
	return s.orders.ListOrdersByEmail(ctx, sess.User.Email)
}

// DeleteOrder removes the order record. Stock is not re-credited.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	if err := s.orders.DeleteOrder(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("order")
		}
		return err
	}

	s.logger.Info("Order deleted", zap.String("order_id", id))
	s.events.Publish(&events.Event{Type: events.OrderDeleted, EntityID: id, Actor: actorEmail(ctx)})
	return nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	default:
		return "error"
	}
}
