package models

import (
	"encoding/json"
	"time"
)

// AudienceSnapshot stores one demographic breakdown (for example
// "follower_demographics_city") as collected at a point in time. Snapshots are
// append-only; the latest one per (account, breakdown type) wins for display.
type AudienceSnapshot struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	AccountID     uint      `gorm:"index" json:"account_id"`
	BreakdownType string    `gorm:"type:varchar(100);index" json:"breakdown_type"`
	BreakdownJSON string    `gorm:"type:text" json:"-"`
	CollectedAt   time.Time `gorm:"autoCreateTime;index" json:"collected_at"`
}

// SetBreakdown serializes the category->count map into the stored JSON column.
func (s *AudienceSnapshot) SetBreakdown(data map[string]int64) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	s.BreakdownJSON = string(raw)
	return nil
}

// Breakdown deserializes the stored JSON column. Corrupt rows yield an empty
// map rather than an error so one bad snapshot cannot break a listing.
func (s *AudienceSnapshot) Breakdown() map[string]int64 {
	data := map[string]int64{}
	if s.BreakdownJSON == "" {
		return data
	}
	if err := json.Unmarshal([]byte(s.BreakdownJSON), &data); err != nil {
		return map[string]int64{}
	}
	return data
}
