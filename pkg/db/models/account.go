package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sakthi-t/bookscart/pkg/enums"
)

// Account holds the per-user profile created alongside the user at signup.
type Account struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID          `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	User        User               `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	DisplayName string             `gorm:"column:display_name;type:varchar(150);not null"`
	AvatarURL   *string            `gorm:"column:avatar_url"`
	Phone       *string            `gorm:"column:phone;type:varchar(32)"`
	Provider    enums.AuthProvider `gorm:"column:provider;type:text;not null;check:provider IN ('email', 'google', 'github')"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Account) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	if a.Provider == "" {
		a.Provider = enums.AuthProviderEmail
	}
	return nil
}
