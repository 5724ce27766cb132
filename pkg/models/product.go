package models

import (
	"time"
)

type Product struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Name        string    `gorm:"type:varchar(200);not null;index" bson:"name" json:"name"`
	Price       float64   `gorm:"type:decimal(10,2)" bson:"price" json:"price"`
	Stock       int       `gorm:"not null;default:0" bson:"stock" json:"stock"`
	Category    string    `gorm:"type:varchar(100)" bson:"category" json:"category"`
	Image       string    `gorm:"type:varchar(500)" bson:"image" json:"image"`
	Description string    `gorm:"type:text" bson:"description" json:"description"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// ProductPatch carries the fields of a partial update. Nil fields are left untouched.
type ProductPatch struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Stock       *int     `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Category    *string  `json:"category,omitempty"`
	Image       *string  `json:"image,omitempty"`
	Description *string  `json:"description,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Price == nil && p.Stock == nil &&
		p.Category == nil && p.Image == nil && p.Description == nil
}

// Apply merges the patch into the product in place.
func (p ProductPatch) Apply(product *Product) {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.Stock != nil {
		product.Stock = *p.Stock
	}
	if p.Category != nil {
		product.Category = *p.Category
	}
	if p.Image != nil {
		product.Image = *p.Image
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
}

// Fields returns the patch as column/field name to value pairs, shared by the
// mongo $set document and the gorm Updates map.
func (p ProductPatch) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.Price != nil {
		fields["price"] = *p.Price
	}
	if p.Stock != nil {
		fields["stock"] = *p.Stock
	}
	if p.Category != nil {
		fields["category"] = *p.Category
	}
	if p.Image != nil {
		fields["image"] = *p.Image
	}
	if p.Description != nil {
		fields["description"] = *p.Description
	}
	return fields
}
