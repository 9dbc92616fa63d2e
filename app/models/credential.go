package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	CREDENTIAL_KIND_USER = "user"
	CREDENTIAL_KIND_PAGE = "page"
)

// Credential stores an access token of a given kind for one account. There is
// at most one live credential per (AccountID, Kind); saving a new one replaces
// the previous row. Page credentials may carry no expiry at all - they stay
// valid only as long as the parent user credential does.
type Credential struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	AccountID   uint       `gorm:"index:account_kind" json:"account_id" validate:"required"`
	Kind        string     `gorm:"index:account_kind;type:varchar(10)" json:"kind" validate:"oneof=user page"`
	AccessToken string     `gorm:"type:text" json:"-" validate:"required"`
	ExpiresAt   *time.Time `gorm:"type:timestamp;default:null" json:"expires_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (c *Credential) Validate() error {
	v := validator.New()

	return v.Struct(c)
}

// ExpiresWithin reports whether the credential has an expiry inside the given
// horizon. Expiry-less credentials never report true.
func (c *Credential) ExpiresWithin(horizon time.Duration) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return c.ExpiresAt.Before(time.Now().Add(horizon))
}
