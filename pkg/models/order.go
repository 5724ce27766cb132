package models

import (
	"time"
)

const GuestBuyer = "guest"

type Order struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	ProductID  string    `gorm:"type:varchar(36);not null;index" bson:"product_id" json:"productId"`
	Product    string    `gorm:"type:varchar(200);not null" bson:"product" json:"product"` // name at order time
	Price      float64   `gorm:"type:decimal(10,2)" bson:"price" json:"price"`
	Quantity   int       `gorm:"not null" bson:"quantity" json:"quantity"`
	Total      float64   `gorm:"type:decimal(12,2)" bson:"total" json:"total"`
	Buyer      string    `gorm:"type:varchar(255);not null" bson:"buyer" json:"buyer"`
	BuyerEmail string    `gorm:"type:varchar(255);index" bson:"buyer_email,omitempty" json:"buyerEmail,omitempty"`
	Timestamp  time.Time `gorm:"index" bson:"timestamp" json:"timestamp"`
}

func (Order) TableName() string {
	return "orders"
}
