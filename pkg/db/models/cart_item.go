package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartItem is one book line in a cart. PriceAtAdd is captured once when the line is created.
type CartItem struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CartID     uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_book"`
	BookID     uuid.UUID       `gorm:"column:book_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_book"`
	Book       Book            `gorm:"foreignKey:BookID;constraint:OnDelete:RESTRICT"`
	Quantity   int             `gorm:"column:quantity;not null;check:quantity >= 1"`
	PriceAtAdd decimal.Decimal `gorm:"column:price_at_add;type:numeric(8,2);not null"`
	AddedAt    time.Time       `gorm:"column:added_at;autoCreateTime"`
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// LineTotal is quantity times the snapshot price.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.PriceAtAdd.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
