package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// GormRepository is the relational backend. MySQL in production; tests
// open it over sqlite.
type GormRepository struct {
	db *gorm.DB
}

func NewMySQLRepository(cfg *config.MySQLConfig) (*GormRepository, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)

	return NewGormRepository(db)
}

// NewGormRepository migrates the schema on db and wraps it.
func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &models.Order{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return &GormRepository{db: db}, nil
}

func (r *GormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *GormRepository) Close(_ context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *GormRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *GormRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, recordNotFound(err)
	}
	return &user, nil
}

func (r *GormRepository) ListUsers(ctx context.Context) ([]*models.User, error) {
	users := []*models.User{}
	if err := r.db.WithContext(ctx).Order("created_at").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *GormRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *GormRepository) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, recordNotFound(err)
	}
	return &product, nil
}

func (r *GormRepository) FindProductByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("name = ?", name).Order("created_at").First(&product).Error; err != nil {
		return nil, recordNotFound(err)
	}
	return &product, nil
}

func (r *GormRepository) ListProducts(ctx context.Context) ([]*models.Product, error) {
	products := []*models.Product{}
	if err := r.db.WithContext(ctx).Order("created_at").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (r *GormRepository) UpdateProduct(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	product, err := r.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return product, nil
	}

	updates := patch.Fields()
	updates["updated_at"] = time.Now()

	if err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return r.GetProduct(ctx, id)
}

func (r *GormRepository) DeleteProduct(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) DecrementStock(ctx context.Context, id string, qty int) (*models.Product, error) {
	result := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", qty),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to decrement stock: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check product: %w", err)
		}
		if count == 0 {
			return nil, ErrNotFound
		}
		return nil, ErrInsufficientStock
	}

	return r.GetProduct(ctx, id)
}

func (r *GormRepository) IncrementStock(ctx context.Context, id string, qty int) error {
	result := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", qty),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to increment stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *GormRepository) ListOrders(ctx context.Context) ([]*models.Order, error) {
	orders := []*models.Order{}
	if err := r.db.WithContext(ctx).Order("timestamp DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (r *GormRepository) ListOrdersByEmail(ctx context.Context, email string) ([]*models.Order, error) {
	orders := []*models.Order{}
	if err := r.db.WithContext(ctx).Where("buyer_email = ?", email).Order("timestamp DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (r *GormRepository) DeleteOrder(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func recordNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
