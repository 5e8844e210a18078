package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is an inventory item: a filter unit, spare part or consumable.
// Stock carries the live counter; every mutation made by the lifecycle
// engine is paired with a StockHistory row so the balance can be
// reconstructed from history alone.
type Product struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	SKU       string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"sku"`
	Category  string    `gorm:"type:varchar(50)" json:"category,omitempty"`
	UnitPrice float64   `gorm:"type:decimal(12,2);not null;default:0" json:"unitPrice"`
	Stock     int       `gorm:"not null;default:0" json:"stock"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName returns the table name for Product
func (Product) TableName() string {
	return "products"
}

// StockHistory is an immutable record of one signed stock movement.
type StockHistory struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProductID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"productId"`
	QuantityChange int        `gorm:"not null" json:"quantityChange"` // negative for consumption
	Reason         string     `gorm:"type:text;not null" json:"reason"`
	ReferenceID    *uuid.UUID `gorm:"type:uuid;index" json:"referenceId,omitempty"` // originating service request
	CreatedByID    *uuid.UUID `gorm:"type:uuid" json:"createdById,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"createdAt"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName returns the table name for StockHistory
func (StockHistory) TableName() string {
	return "stock_history"
}
