// internal/model/dispatch.go
package model

import "time"

const (
	DispatchPending = "pending"
	DispatchSending = "sending"
	DispatchSent    = "sent"
	DispatchFailed  = "failed"
)

const ChannelEmail = "email"

// Dispatch is one attempt to deliver a campaign through the send channel.
type Dispatch struct {
	ID         string    `db:"id" json:"id"`
	CampaignID string    `db:"campaign_id" json:"campaign_id"`
	Channel    string    `db:"channel" json:"channel"`
	Recipient  string    `db:"recipient" json:"recipient"`
	Status     string    `db:"status" json:"status"` // pending, sending, sent, failed
	Subject    string    `db:"subject" json:"subject"`
	Body       string    `db:"body" json:"body"`
	Result     string    `db:"result" json:"result,omitempty"`
	LastError  string    `db:"last_error" json:"last_error,omitempty"`
	RetryCount int       `db:"retry_count" json:"retry_count"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
