package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/storefront/pkg/events"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher receives domain events after a change has been committed.
type Publisher interface {
	Publish(ev *events.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(*events.Event) {}

type ProductInput struct {
	Name        string   `json:"name" validate:"required"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Stock       *int     `json:"stock" validate:"omitempty,gte=0"`
	Category    string   `json:"category"`
	Image       string   `json:"image"`
	Description string   `json:"description"`
}

type CatalogService struct {
	products repository.ProductRepository
	events   Publisher
	logger   *zap.Logger
}

func NewCatalogService(products repository.ProductRepository, pub Publisher, logger *zap.Logger) *CatalogService {
	if pub == nil {
		pub = nopPublisher{}
	}
	return &CatalogService{products: products, events: pub, logger: logger}
}

func (s *CatalogService) List(ctx context.Context) ([]*models.Product, error) {
	return s.products.ListProducts(ctx)
}

func (s *CatalogService) Get(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return nil, productErr(err)
	}
	return p, nil
}

func (s *CatalogService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	stock := 0
	if in.Stock != nil {
		stock = *in.Stock
	}

	now := time.Now()
	p := &models.Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Price:       *in.Price,
		Stock:       stock,
		Category:    in.Category,
		Image:       in.Image,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("Product created", zap.String("product_id", p.ID), zap.String("name", p.Name), zap.Int("stock", p.Stock))
	s.publish(ctx, events.ProductCreated, p)
	return p, nil
}

// Update merges the supplied fields into the product.
func (s *CatalogService) Update(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if err := validateStruct(patch); err != nil {
		return nil, err
	}

	p, err := s.products.UpdateProduct(ctx, id, patch)
	if err != nil {
		return nil, productErr(err)
	}

	s.logger.Info("Product updated", zap.String("product_id", id), zap.Any("fields", patch.Fields()))
	s.publish(ctx, events.ProductUpdated, p)
	return p, nil
}

// Delete removes the product. Orders that reference it keep their snapshot.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.products.DeleteProduct(ctx, id); err != nil {
		return productErr(err)
	}

	s.logger.Info("Product deleted", zap.String("product_id", id))
	s.events.Publish(&events.Event{Type: events.ProductDeleted, EntityID: id, Actor: actorEmail(ctx)})
	return nil
}

func (s *CatalogService) SetImage(ctx context.Context, id, url string) (*models.Product, error) {
	return s.Update(ctx, id, models.ProductPatch{Image: &url})
}

func (s *CatalogService) publish(ctx context.Context, typ string, p *models.Product) {
	snapshot := *p
	s.events.Publish(&events.Event{Type: typ, EntityID: p.ID, Actor: actorEmail(ctx), Product: &snapshot})
}

func productErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("product")
	}
	return fmt.Errorf("product store: %w", err)
}
