package models

import "time"

const (
	COLLECTION_KIND_INSIGHTS = "insights"
	COLLECTION_KIND_AUDIENCE = "audience"

	COLLECTION_STATUS_SUCCESS      = "success"
	COLLECTION_STATUS_RATE_LIMITED = "rate_limited"
	COLLECTION_STATUS_ERROR        = "error"
)

// CollectionOutcome is an append-only audit entry for one fetch attempt of one
// category (insights or audience) for one account.
type CollectionOutcome struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AccountID   uint      `gorm:"index" json:"account_id"`
	Kind        string    `gorm:"type:varchar(20)" json:"kind"`
	Status      string    `gorm:"type:varchar(20)" json:"status"`
	Detail      string    `gorm:"type:text" json:"detail,omitempty"`
	CollectedAt time.Time `gorm:"autoCreateTime;index" json:"collected_at"`
}
