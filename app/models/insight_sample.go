package models

import "time"

const (
	PERIOD_DAY      = "day"
	PERIOD_WEEK     = "week"
	PERIOD_DAYS_28  = "days_28"
	PERIOD_LIFETIME = "lifetime"
)

// InsightSample is one collected metric value. Samples form an append-only
// time series and are never updated in place.
type InsightSample struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AccountID   uint      `gorm:"index" json:"account_id"`
	MetricName  string    `gorm:"type:varchar(100);index" json:"metric_name"`
	MetricValue float64   `json:"metric_value"`
	Period      string    `gorm:"type:varchar(20)" json:"period"`
	CollectedAt time.Time `gorm:"autoCreateTime;index" json:"collected_at"`
}
