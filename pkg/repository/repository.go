// Package repository holds the storage backends for users, products and
// orders. Every backend implements the stock decrement as a single
// conditional write so concurrent orders can never overdraw a product.
package repository

import (
	"context"
	"errors"

	"github.com/example/storefront/pkg/models"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("duplicate record")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type UserRepository interface {
	// CreateUser returns ErrDuplicate when the email is already taken.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
}

type ProductRepository interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	FindProductByName(ctx context.Context, name string) (*models.Product, error)
	ListProducts(ctx context.Context) ([]*models.Product, error)
	UpdateProduct(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	// DecrementStock subtracts qty from the product's stock only if the
	// current stock is at least qty, in one write. It returns ErrNotFound
	// for an unknown product and ErrInsufficientStock when the condition
	// fails, leaving stock untouched in both cases.
	DecrementStock(ctx context.Context, id string, qty int) (*models.Product, error)
	// IncrementStock re-credits stock taken by DecrementStock.
	IncrementStock(ctx context.Context, id string, qty int) error
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	ListOrders(ctx context.Context) ([]*models.Order, error)
	ListOrdersByEmail(ctx context.Context, email string) ([]*models.Order, error)
	DeleteOrder(ctx context.Context, id string) error
}

// Store is a complete backend.
type Store interface {
	UserRepository
	ProductRepository
	OrderRepository

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
