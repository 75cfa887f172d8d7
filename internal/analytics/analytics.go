// Package analytics scores reported campaign engagement.
package analytics

import "github.com/ThisIsJeron/fluffyduck-sub000/internal/model"

const (
	ResponsePositive         = "positive"
	ResponseNeutral          = "neutral"
	ResponseNeedsImprovement = "needs_improvement"
)

type Report struct {
	CampaignID       string                `json:"campaign_id"`
	EngagementRate   float64               `json:"engagement_rate"`
	AudienceResponse string                `json:"audience_response"`
	Recommendations  []string              `json:"recommendations"`
	Metrics          model.CampaignMetrics `json:"metrics"`
}

// EngagementRate is interactions per impression, as a percentage.
// Campaigns without impressions are scored against one impression.
func EngagementRate(m model.CampaignMetrics) float64 {
	interactions := m.Likes + m.Comments + m.Shares
	impressions := m.Impressions
	if impressions < 1 {
		impressions = 1
	}
	return float64(interactions) / float64(impressions) * 100
}

// Analyze scores m. Unreported metrics are neutral with nothing to recommend.
func Analyze(m model.CampaignMetrics) Report {
	r := Report{
		CampaignID:       m.CampaignID,
		AudienceResponse: ResponseNeutral,
		Recommendations:  []string{},
		Metrics:          m,
	}
	if !m.Reported() {
		return r
	}
	r.EngagementRate = EngagementRate(m)

	switch {
	case r.EngagementRate > 5:
		r.AudienceResponse = ResponsePositive
		r.Recommendations = append(r.Recommendations,
			"Content is performing well. Consider boosting post reach.")
	case r.EngagementRate < 2:
		r.AudienceResponse = ResponseNeedsImprovement
		r.Recommendations = append(r.Recommendations,
			"Consider adjusting content strategy to improve engagement.",
			"Try posting at different times",
			"Experiment with different content formats",
			"Engage more with audience comments",
		)
	}
	return r
}
