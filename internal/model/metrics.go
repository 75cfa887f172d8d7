// internal/model/metrics.go
package model

import "time"

// CampaignMetrics are engagement counters reported for a posted campaign.
type CampaignMetrics struct {
	CampaignID  string    `db:"campaign_id" json:"campaign_id"`
	Likes       int64     `db:"likes" json:"likes"`
	Comments    int64     `db:"comments" json:"comments"`
	Views       int64     `db:"views" json:"views"`
	Shares      int64     `db:"shares" json:"shares"`
	Impressions int64     `db:"impressions" json:"impressions"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Reported is false for a campaign nothing was reported for yet.
func (m CampaignMetrics) Reported() bool {
	return !m.UpdatedAt.IsZero()
}

// DispatchStats counts a campaign's dispatches by status.
type DispatchStats struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
}
