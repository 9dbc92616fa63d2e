package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Account represents a connected Instagram Business account. It is created on
// the first successful authorization and updated (username, linked page) on
// every re-authorization. Rows are never hard-deleted by the collection core;
// removal is a data-retention concern handled elsewhere.
type Account struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	InstagramID    string    `gorm:"uniqueIndex;type:varchar(64)" json:"instagram_id" validate:"required"`
	Username       string    `gorm:"type:varchar(150)" json:"username" validate:"required,max=150"`
	FacebookPageID string    `gorm:"type:varchar(64)" json:"facebook_page_id" validate:"required"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Account) Validate() error {
	v := validator.New()

	return v.Struct(a)
}
