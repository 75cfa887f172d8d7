// internal/model/variant.go
package model

import "time"

// Variant is one generated caption/image option for a campaign.
type Variant struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Style    string   `json:"style"`
	MediaURL string   `json:"media_url"`
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
	Flagged  bool     `json:"flagged"`
}

// GenerationResult is the set of variants produced by one generation run.
type GenerationResult struct {
	ID                 string    `json:"id"`
	CampaignID         string    `json:"campaign_id"`
	Prompt             string    `json:"prompt"`
	StyleUsed          string    `json:"style_used"`
	ReferenceImageUsed bool      `json:"reference_image_used"`
	Variants           []Variant `json:"variants"`
	CreatedAt          time.Time `json:"created_at"`
}

// Variant returns the variant with the given ID.
func (g *GenerationResult) Variant(id string) (Variant, bool) {
	for _, v := range g.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}
