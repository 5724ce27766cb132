package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection    = "users"
	productsCollection = "products"
	ordersCollection   = "orders"
)

type MongoRepository struct {
	client   *mongo.Client
	database *mongo.Database
	config   *config.MongoDBConfig
}

func NewMongoRepository(cfg *config.MongoDBConfig) (*MongoRepository, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	repo := NewMongoRepositoryFromClient(client, cfg)
	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return repo, nil
}

// NewMongoRepositoryFromClient wraps an already connected client.
func NewMongoRepositoryFromClient(client *mongo.Client, cfg *config.MongoDBConfig) *MongoRepository {
	return &MongoRepository{
		client:   client,
		database: client.Database(cfg.Database),
		config:   cfg,
	}
}

func (m *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := m.users().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create users.email index: %w", err)
	}

	if _, err := m.products().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to create products.name index: %w", err)
	}

	if _, err := m.orders().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "buyer_email", Value: 1}, {Key: "timestamp", Value: -1}},
	}); err != nil {
		return fmt.Errorf("failed to create orders.buyer_email index: %w", err)
	}
	return nil
}

func (m *MongoRepository) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoRepository) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *MongoRepository) users() *mongo.Collection {
	return m.database.Collection(usersCollection)
}

func (m *MongoRepository) products() *mongo.Collection {
	return m.database.Collection(productsCollection)
}

func (m *MongoRepository) orders() *mongo.Collection {
	return m.database.Collection(ordersCollection)
}

// AuditLog represents an audit log entry
type AuditLog struct {
	ID        string    `bson:"_id" json:"id"`
	Service   string    `bson:"service" json:"service"`
	Action    string    `bson:"action" json:"action"`
	EntityID  string    `bson:"entity_id" json:"entity_id"`
	Data      bson.M    `bson:"data" json:"data"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func (m *MongoRepository) CreateAuditLog(ctx context.Context, log *AuditLog) error {
	collection := m.database.Collection(m.config.AuditCollection)
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	log.CreatedAt = time.Now()
	_, err := collection.InsertOne(ctx, log)
	return err
}

func (m *MongoRepository) GetAuditLogs(ctx context.Context, entityID string, limit int64) ([]*AuditLog, error) {
	collection := m.database.Collection(m.config.AuditCollection)

	filter := bson.M{"entity_id": entityID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	logs := []*AuditLog{}
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}

	return logs, nil
}

func (m *MongoRepository) CreateUser(ctx context.Context, user *models.User) error {
	if _, err := m.users().InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (m *MongoRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := m.users().FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (m *MongoRepository) ListUsers(ctx context.Context) ([]*models.User, error) {
	users := []*models.User{}
	if err := m.findAll(ctx, m.users(), bson.M{}, &users); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (m *MongoRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	if _, err := m.products().InsertOne(ctx, product); err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (m *MongoRepository) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := m.products().FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

func (m *MongoRepository) FindProductByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if err := m.products().FindOne(ctx, bson.M{"name": name}, opts).Decode(&product); err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

func (m *MongoRepository) ListProducts(ctx context.Context) ([]*models.Product, error) {
	products := []*models.Product{}
	if err := m.findAll(ctx, m.products(), bson.M{}, &products); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (m *MongoRepository) UpdateProduct(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	if patch.Empty() {
		return m.GetProduct(ctx, id)
	}

	set := bson.M{"updated_at": time.Now()}
	for field, value := range patch.Fields() {
		set[field] = value
	}

	var product models.Product
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := m.products().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&product)
	if err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

func (m *MongoRepository) DeleteProduct(ctx context.Context, id string) error {
	result, err := m.products().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepository) DecrementStock(ctx context.Context, id string, qty int) (*models.Product, error) {
	filter := bson.M{"_id": id, "stock": bson.M{"$gte": qty}}
	update := bson.M{
		"$inc": bson.M{"stock": -qty},
		"$set": bson.M{"updated_at": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var product models.Product
	err := m.products().FindOneAndUpdate(ctx, filter, update, opts).Decode(&product)
	if err == nil {
		return &product, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to decrement stock: %w", err)
	}

	// The filter missed: either the product is gone or it has too little stock.
	count, err := m.products().CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to check product: %w", err)
	}
	if count == 0 {
		return nil, ErrNotFound
	}
	return nil, ErrInsufficientStock
}

func (m *MongoRepository) IncrementStock(ctx context.Context, id string, qty int) error {
	update := bson.M{
		"$inc": bson.M{"stock": qty},
		"$set": bson.M{"updated_at": time.Now()},
	}
	result, err := m.products().UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to increment stock: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	if _, err := m.orders().InsertOne(ctx, order); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (m *MongoRepository) ListOrders(ctx context.Context) ([]*models.Order, error) {
	return m.listOrders(ctx, bson.M{})
}

func (m *MongoRepository) ListOrdersByEmail(ctx context.Context, email string) ([]*models.Order, error) {
	return m.listOrders(ctx, bson.M{"buyer_email": email})
}

func (m *MongoRepository) listOrders(ctx context.Context, filter bson.M) ([]*models.Order, error) {
	orders := []*models.Order{}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cursor, err := m.orders().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

func (m *MongoRepository) DeleteOrder(ctx context.Context, id string) error {
	result, err := m.orders().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepository) findAll(ctx context.Context, coll *mongo.Collection, filter bson.M, out interface{}) error {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
