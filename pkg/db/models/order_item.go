package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderItem is immutable once written.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	BookID    uuid.UUID       `gorm:"column:book_id;type:uuid;not null"`
	Book      Book            `gorm:"foreignKey:BookID;constraint:OnDelete:RESTRICT"`
	Quantity  int             `gorm:"column:quantity;not null;check:quantity >= 1"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(8,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// LineTotal is quantity times the price captured at checkout.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// All lists every model in dependency order, for AutoMigrate in tests and dev.
func All() []any {
	return []any{&User{}, &Account{}, &Book{}, &Cart{}, &CartItem{}, &Order{}, &OrderItem{}}
}
