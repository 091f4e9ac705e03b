package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Book is a catalog entry. Stock is only decremented by checkout.
type Book struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Title       string          `gorm:"column:title;type:varchar(255);not null"`
	Slug        string          `gorm:"column:slug;type:varchar(255);not null;uniqueIndex"`
	Author      string          `gorm:"column:author;type:varchar(255);not null"`
	Genre       string          `gorm:"column:genre;type:varchar(100);not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(8,2);not null;check:price >= 0"`
	Description string          `gorm:"column:description;type:text;not null"`
	Stock       int             `gorm:"column:stock;not null;check:stock >= 0"`
	ImageURL    *string         `gorm:"column:image_url"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *Book) BeforeCreate(*gorm.DB) error {
	ensureID(&b.ID)
	return nil
}
