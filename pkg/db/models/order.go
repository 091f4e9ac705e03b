package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sakthi-t/bookscart/pkg/enums"
)

// Order is created atomically with its items during checkout.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	User        User              `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Status      enums.OrderStatus `gorm:"column:status;type:text;not null;check:status IN ('AWAITING_VERIFICATION', 'IN_PROGRESS', 'DELIVERED', 'CANCELLED', 'REFUNDED', 'RETURNED')"`
	IsVerified  bool              `gorm:"column:is_verified;not null"`
	TotalAmount decimal.Decimal   `gorm:"column:total_amount;type:numeric(10,2);not null"`
	Items       []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
	VerifiedAt  *time.Time        `gorm:"column:verified_at"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	if o.Status == "" {
		o.Status = enums.OrderStatusAwaitingVerification
	}
	return nil
}
