// internal/model/campaign.go
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusDraft     = "draft"
	StatusScheduled = "scheduled"
	StatusSending   = "sending"
	StatusPosted    = "posted"
	StatusFailed    = "failed"
)

const (
	CadenceOnce    = "once"
	CadenceDaily   = "daily"
	CadenceWeekly  = "weekly"
	CadenceMonthly = "monthly"
)

// Platforms a campaign can target.
var Platforms = []string{"Instagram", "Facebook", "LinkedIn", "Twitter", "Email"}

type Campaign struct {
	ID             string              `db:"id" json:"id"`
	UserID         string              `db:"user_id" json:"user_id"`
	RestaurantName string              `db:"restaurant_name" json:"restaurant_name"`
	Title          string              `db:"title" json:"title"`
	Description    string              `db:"description" json:"description"`
	MediaURL       string              `db:"media_url" json:"media_url"`
	Caption        *string             `db:"caption" json:"caption"`
	Hashtags       []string            `db:"hashtags" json:"hashtags"`
	Cadence        string              `db:"cadence" json:"cadence"`
	TargetAudience string              `db:"target_audience" json:"target_audience"`
	Platforms      []string            `db:"platforms" json:"platforms"`
	StartDate      *time.Time          `db:"start_date" json:"start_date"`
	EndDate        *time.Time          `db:"end_date" json:"end_date"`
	Budget         decimal.NullDecimal `db:"budget" json:"budget"`
	Selected       bool                `db:"selected" json:"selected"`
	Status         string              `db:"status" json:"status"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `db:"updated_at" json:"updated_at"`
}

// PrimaryPlatform is the first targeted platform, or "" when none is set.
func (c *Campaign) PrimaryPlatform() string {
	if len(c.Platforms) == 0 {
		return ""
	}
	return c.Platforms[0]
}

// CaptionText returns the caption or "" when unset.
func (c *Campaign) CaptionText() string {
	if c.Caption == nil {
		return ""
	}
	return *c.Caption
}

// ActiveAt reports whether t falls inside the campaign's date range. Open
// ends are unbounded.
func (c *Campaign) ActiveAt(t time.Time) bool {
	if c.StartDate != nil && t.Before(*c.StartDate) {
		return false
	}
	if c.EndDate != nil && t.After(*c.EndDate) {
		return false
	}
	return true
}
