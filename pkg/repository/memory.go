package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/storefront/pkg/models"
)

// MemoryRepository keeps everything in maps behind one lock. It backs the
// "memory" storage driver for local runs and the service tests.
type MemoryRepository struct {
	mu sync.RWMutex

	users    map[string]models.User // keyed by email
	products map[string]models.Product
	orders   map[string]models.Order
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:    make(map[string]models.User),
		products: make(map[string]models.Product),
		orders:   make(map[string]models.Order),
	}
}

func (m *MemoryRepository) Ping(context.Context) error  { return nil }
func (m *MemoryRepository) Close(context.Context) error { return nil }

func (m *MemoryRepository) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.Email]; ok {
		return ErrDuplicate
	}
	m.users[user.Email] = *user
	return nil
}

func (m *MemoryRepository) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryRepository) ListUsers(context.Context) ([]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := make([]*models.User, 0, len(m.users))
	for _, u := range m.users {
		u := u
		res = append(res, &u)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

func (m *MemoryRepository) CreateProduct(_ context.Context, product *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.products[product.ID] = *product
	return nil
}

func (m *MemoryRepository) GetProduct(_ context.Context, id string) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryRepository) FindProductByName(_ context.Context, name string) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found *models.Product
	for _, p := range m.products {
		if p.Name != name {
			continue
		}
		if found == nil || p.CreatedAt.Before(found.CreatedAt) {
			p := p
			found = &p
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (m *MemoryRepository) ListProducts(context.Context) ([]*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := make([]*models.Product, 0, len(m.products))
	for _, p := range m.products {
		p := p
		res = append(res, &p)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

func (m *MemoryRepository) UpdateProduct(_ context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !patch.Empty() {
		patch.Apply(&p)
		p.UpdatedAt = time.Now()
		m.products[id] = p
	}
	return &p, nil
}

func (m *MemoryRepository) DeleteProduct(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *MemoryRepository) DecrementStock(_ context.Context, id string, qty int) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	if p.Stock < qty {
		return nil, ErrInsufficientStock
	}
	p.Stock -= qty
	p.UpdatedAt = time.Now()
	m.products[id] = p
	return &p, nil
}

func (m *MemoryRepository) IncrementStock(_ context.Context, id string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return ErrNotFound
	}
	p.Stock += qty
	p.UpdatedAt = time.Now()
	m.products[id] = p
	return nil
}

func (m *MemoryRepository) CreateOrder(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.orders[order.ID] = *order
	return nil
}

func (m *MemoryRepository) ListOrders(context.Context) ([]*models.Order, error) {
	return m.filterOrders(func(models.Order) bool { return true }), nil
}

func (m *MemoryRepository) ListOrdersByEmail(_ context.Context, email string) ([]*models.Order, error) {
	return m.filterOrders(func(o models.Order) bool { return o.BuyerEmail == email }), nil
}

func (m *MemoryRepository) filterOrders(keep func(models.Order) bool) []*models.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := []*models.Order{}
	for _, o := range m.orders {
		if keep(o) {
			o := o
			res = append(res, &o)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Timestamp.After(res[j].Timestamp) })
	return res
}

func (m *MemoryRepository) DeleteOrder(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[id]; !ok {
		return ErrNotFound
	}
	delete(m.orders, id)
	return nil
}
