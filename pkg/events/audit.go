package events

import (
	"context"

	"github.com/example/storefront/pkg/repository"
	"go.mongodb.org/mongo-driver/bson"
)

// AuditWriter is satisfied by *repository.MongoRepository.
type AuditWriter interface {
	CreateAuditLog(ctx context.Context, log *repository.AuditLog) error
}

// AuditSink records every event in the audit collection.
type AuditSink struct {
	writer  AuditWriter
	service string
}

func NewAuditSink(writer AuditWriter, service string) *AuditSink {
	return &AuditSink{writer: writer, service: service}
}

func (s *AuditSink) Name() string { return "audit" }

func (s *AuditSink) Handle(ctx context.Context, ev *Event) error {
	data := bson.M{"actor": ev.Actor}
	if ev.Order != nil {
		data["product_id"] = ev.Order.ProductID
		data["product"] = ev.Order.Product
		data["quantity"] = ev.Order.Quantity
		data["total"] = ev.Order.Total
		data["buyer"] = ev.Order.Buyer
	}
	if ev.Product != nil {
		data["name"] = ev.Product.Name
		data["price"] = ev.Product.Price
		data["stock"] = ev.Product.Stock
	}

	return s.writer.CreateAuditLog(ctx, &repository.AuditLog{
		Service:  s.service,
		Action:   ev.Type,
		EntityID: ev.EntityID,
		Data:     data,
	})
}
