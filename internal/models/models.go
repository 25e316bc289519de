package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the seeded catalog. Rows are created once at bootstrap and read
// thereafter; Name is the natural key the importer uses to cross-reference
// historical records.
type Product struct {
	ID        uint            `gorm:"column:product_id;primaryKey" json:"product_id"`
	Name      string          `gorm:"column:product_name;size:255;not null;unique" json:"product_name"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null" json:"unit_price"`
}

func (Product) TableName() string { return "products" }

// Purchase is one checkout event: append-only, never updated or deleted.
// UserID is the resolved customer identifier, either supplied by a returning
// customer or generated at write time.
type Purchase struct {
	ID            uint      `gorm:"column:purchase_id;primaryKey" json:"purchase_id"`
	SupermarketID string    `gorm:"column:supermarket_id;size:255;not null" json:"supermarket_id"`
	Timestamp     time.Time `gorm:"column:timestamp;not null" json:"timestamp"`
	UserID        string    `gorm:"column:user_id;size:255;not null" json:"user_id"`
}

func (Purchase) TableName() string { return "purchases" }

// PurchaseItem links a purchase to one product. The composite primary key
// means a product can appear at most once per purchase; there is no quantity
// column.
type PurchaseItem struct {
	PurchaseID uint `gorm:"column:purchase_id;primaryKey;autoIncrement:false" json:"purchase_id"`
	ProductID  uint `gorm:"column:product_id;primaryKey;autoIncrement:false" json:"product_id"`

	Purchase Purchase `gorm:"foreignKey:PurchaseID;references:ID" json:"-"`
	Product  Product  `gorm:"foreignKey:ProductID;references:ID" json:"-"`
}

func (PurchaseItem) TableName() string { return "purchase_items" }
