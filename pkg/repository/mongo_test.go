package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

var mongoTestConfig = &config.MongoDBConfig{Database: "frozen", AuditCollection: "audit_logs"}

func productDoc(id string, stock int) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: "Vanilla"},
		{Key: "price", Value: 2.5},
		{Key: "stock", Value: stock},
		{Key: "created_at", Value: time.Now()},
	}
}

func TestMongoRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("duplicate user", func(mt *mtest.T) {
		repo := NewMongoRepositoryFromClient(mt.Client, mongoTestConfig)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := repo.CreateUser(context.Background(), &models.User{ID: "u1", Email: "ann@example.com"})
		if !errors.Is(err, ErrDuplicate) {
			mt.Fatalf("got %v, want ErrDuplicate", err)
		}
	})

	mt.Run("get product", func(mt *mtest.T) {
		repo := NewMongoRepositoryFromClient(mt.Client, mongoTestConfig)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "frozen.products", mtest.FirstBatch, productDoc("p1", 4)))

		p, err := repo.GetProduct(context.Background(), "p1")
		if err != nil {
			mt.Fatalf("GetProduct: %v", err)
		}
		if p.ID != "p1" || p.Stock != 4 {
			mt.Fatalf("unexpected product %+v", p)
		}
	})

	mt.Run("get missing product", func(mt *mtest.T) {
		repo := NewMongoRepositoryFromClient(mt.Client, mongoTestConfig)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "frozen.products", mtest.FirstBatch))

		if _, err := repo.GetProduct(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
			mt.Fatalf("got %v, want ErrNotFound", err)
		}
	})

	mt.Run("decrement stock", func(mt *mtest.T) {
		repo := NewMongoRepositoryFromClient(mt.Client, mongoTestConfig)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: productDoc("p1", 2)}))

		p, err := repo.DecrementStock(context.Background(), "p1", 3)
		if err != nil {
			mt.Fatalf("DecrementStock: %v", err)
		}
		if p.Stock != 2 {
			mt.Fatalf("stock = %d, want 2", p.Stock)
		}
	})

	mt.Run("decrement insufficient", func(mt *mtest.T) {
		repo := NewMongoRepositoryFromClient(mt.Client, mongoTestConfig)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, "frozen.products", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}),
		)

		if _, err := repo.DecrementStock(context.Background(), "p1", 99); !errors.Is(err, ErrInsufficientStock) {
			mt.Fatalf("got %v, want ErrInsufficientStock", err)
		}
	})

	mt.Run("decrement missing product", func(mt *mtest.T) {
		repo := NewMongoRepositoryFromClient(mt.Client, mongoTestConfig)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, "frozen.products", mtest.FirstBatch),
		)

		if _, err := repo.DecrementStock(context.Background(), "gone", 1); !errors.Is(err, ErrNotFound) {
			mt.Fatalf("got %v, want ErrNotFound", err)
		}
	})

	mt.Run("delete missing order", func(mt *mtest.T) {
		repo := NewMongoRepositoryFromClient(mt.Client, mongoTestConfig)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(0)}))

		if err := repo.DeleteOrder(context.Background(), "o1"); !errors.Is(err, ErrNotFound) {
			mt.Fatalf("got %v, want ErrNotFound", err)
		}
	})

	mt.Run("audit log", func(mt *mtest.T) {
		repo := NewMongoRepositoryFromClient(mt.Client, mongoTestConfig)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		entry := &AuditLog{Service: "storefront", Action: "order.placed", EntityID: "o1"}
		if err := repo.CreateAuditLog(context.Background(), entry); err != nil {
			mt.Fatalf("CreateAuditLog: %v", err)
		}
		if entry.ID == "" || entry.CreatedAt.IsZero() {
			mt.Fatalf("audit entry not stamped: %+v", entry)
		}
	})
}
