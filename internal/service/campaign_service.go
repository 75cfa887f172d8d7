// internal/service/campaign_service.go
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ThisIsJeron/fluffyduck-sub000/internal/analytics"
	appErrors "github.com/ThisIsJeron/fluffyduck-sub000/internal/errors"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/model"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/queue"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/repository"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/scheduler"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	DispatchRepo repository.DispatchRepositoryInterface
	MetricsRepo  repository.MetricsRepositoryInterface
	Queue        queue.Queue
	Clock        clockwork.Clock
	// Recipient receives email dispatches.
	Recipient string
}

// CampaignInput carries the fields of a create or patch request. Nil
// fields are left unchanged.
type CampaignInput struct {
	RestaurantName *string          `json:"restaurant_name"`
	Title          *string          `json:"title"`
	Description    *string          `json:"description"`
	MediaURL       *string          `json:"media_url"`
	Caption        *string          `json:"caption"`
	Hashtags       []string         `json:"hashtags"`
	Cadence        *string          `json:"cadence"`
	TargetAudience *string          `json:"target_audience"`
	Platforms      []string         `json:"platforms"`
	StartDate      *time.Time       `json:"start_date"`
	EndDate        *time.Time       `json:"end_date"`
	Budget         *decimal.Decimal `json:"budget"`
}

func (in CampaignInput) apply(c *model.Campaign) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&c.RestaurantName, in.RestaurantName)
	set(&c.Title, in.Title)
	set(&c.Description, in.Description)
	set(&c.MediaURL, in.MediaURL)
	set(&c.Cadence, in.Cadence)
	set(&c.TargetAudience, in.TargetAudience)

	if in.Caption != nil {
		caption := strings.TrimSpace(*in.Caption)
		c.Caption = &caption
	}
	if in.Hashtags != nil {
		c.Hashtags = cleanTags(in.Hashtags)
	}
	if in.Platforms != nil {
		c.Platforms = in.Platforms
	}
	if in.StartDate != nil {
		start := in.StartDate.UTC()
		c.StartDate = &start
	}
	if in.EndDate != nil {
		end := in.EndDate.UTC()
		c.EndDate = &end
	}
	if in.Budget != nil {
		c.Budget = decimal.NewNullDecimal(*in.Budget)
	}
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimLeft(strings.TrimSpace(t), "#")
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// CampaignDetails is a campaign with its dispatch stats and metrics.
type CampaignDetails struct {
	*model.Campaign
	Stats   model.DispatchStats   `json:"stats"`
	Metrics model.CampaignMetrics `json:"metrics"`
}

func (s *CampaignService) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

// owned loads a campaign and hides campaigns that belong to someone else.
func (s *CampaignService) owned(ctx context.Context, userID, campaignID string) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, appErrors.NewCampaignNotFound(campaignID)
	}
	return c, nil
}

func (s *CampaignService) CreateCampaign(ctx context.Context, userID string, in CampaignInput) (*model.Campaign, error) {
	c := &model.Campaign{
		ID:        uuid.NewString(),
		UserID:    userID,
		Hashtags:  []string{},
		Platforms: []string{},
		Status:    model.StatusDraft,
	}
	in.apply(c)
	if err := validateCampaign(c); err != nil {
		return nil, err
	}

	if err := s.CampaignRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("campaign_id", c.ID).Msg("campaign created")
	return c, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(ctx context.Context, userID string, page, pageSize int, status, platform string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(ctx, userID, offset, pageSize, status, platform)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

// GetCampaignDetails fetches a campaign with dispatch stats and metrics
func (s *CampaignService) GetCampaignDetails(ctx context.Context, userID, campaignID string) (*CampaignDetails, error) {
	c, err := s.owned(ctx, userID, campaignID)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, c)
}

func (s *CampaignService) details(ctx context.Context, c *model.Campaign) (*CampaignDetails, error) {
	stats, err := s.DispatchRepo.Stats(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	metrics, err := s.MetricsRepo.Get(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &CampaignDetails{Campaign: c, Stats: stats, Metrics: *metrics}, nil
}

func (s *CampaignService) UpdateCampaign(ctx context.Context, userID, campaignID string, in CampaignInput) (*model.Campaign, error) {
	c, err := s.owned(ctx, userID, campaignID)
	if err != nil {
		return nil, err
	}
	if c.Status == model.StatusSending {
		return nil, appErrors.Conflict("campaign %s is being sent and cannot be edited", c.ID)
	}

	in.apply(c)
	if err := validateCampaign(c); err != nil {
		return nil, err
	}
	if err := s.CampaignRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CampaignService) DeleteCampaign(ctx context.Context, userID, campaignID string) error {
	if err := s.CampaignRepo.Delete(ctx, userID, campaignID); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("campaign_id", campaignID).Msg("campaign deleted")
	return nil
}

// ExecuteResult describes a queued dispatch.
type ExecuteResult struct {
	CampaignID string `json:"campaign_id"`
	DispatchID string `json:"dispatch_id"`
	Status     string `json:"status"`
	Reused     bool   `json:"reused"`
}

// ExecuteCampaign queues the campaign for sending.
func (s *CampaignService) ExecuteCampaign(ctx context.Context, userID, campaignID string) (*ExecuteResult, error) {
	c, err := s.owned(ctx, userID, campaignID)
	if err != nil {
		return nil, err
	}
	return s.enqueue(ctx, c)
}

// ExecuteScheduled queues a campaign whose start date has arrived.
func (s *CampaignService) ExecuteScheduled(ctx context.Context, c *model.Campaign) error {
	_, err := s.enqueue(ctx, c)
	return err
}

func (s *CampaignService) enqueue(ctx context.Context, c *model.Campaign) (*ExecuteResult, error) {
	if c.CaptionText() == "" {
		return nil, appErrors.Validation("campaign has no caption; select a variant or set a caption first")
	}
	if strings.TrimSpace(c.Title) == "" {
		return nil, appErrors.Validation("campaign has no title")
	}
	if s.Recipient == "" {
		return nil, appErrors.Internal("no dispatch recipient configured", nil)
	}

	subject, body := RenderDispatch(c)
	d, created, err := s.DispatchRepo.CreatePending(ctx, &model.Dispatch{
		ID:         uuid.NewString(),
		CampaignID: c.ID,
		Channel:    model.ChannelEmail,
		Recipient:  s.Recipient,
		Subject:    subject,
		Body:       body,
	})
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx).With().Str("campaign_id", c.ID).Str("dispatch_id", d.ID).Logger()
	result := &ExecuteResult{CampaignID: c.ID, DispatchID: d.ID, Status: c.Status, Reused: !created}

	if d.Status == model.DispatchSending {
		logger.Info().Msg("dispatch already being sent")
		return result, nil
	}

	// Written before publishing; the worker's posted update must land last.
	previous := c.Status
	if previous != model.StatusSending {
		if err := s.CampaignRepo.UpdateStatus(ctx, c.ID, model.StatusSending); err != nil {
			return nil, err
		}
		c.Status = model.StatusSending
	}

	// A pending dispatch is published again on reuse; workers claim it once.
	if err := s.Queue.Publish(ctx, queue.TopicCampaignDispatch, queue.DispatchJob{DispatchID: d.ID}); err != nil {
		if previous != model.StatusSending {
			if rerr := s.CampaignRepo.UpdateStatus(ctx, c.ID, previous); rerr != nil {
				logger.Error().Err(rerr).Str("status", previous).Msg("failed to restore campaign status")
			}
			c.Status = previous
		}
		return nil, appErrors.Internal("failed to queue dispatch", err)
	}

	result.Status = c.Status
	logger.Info().Bool("reused", !created).Msg("campaign dispatch queued")
	return result, nil
}

func (s *CampaignService) ListDispatches(ctx context.Context, userID, campaignID string) ([]*model.Dispatch, error) {
	if _, err := s.owned(ctx, userID, campaignID); err != nil {
		return nil, err
	}
	return s.DispatchRepo.ListByCampaign(ctx, campaignID)
}

// MetricsInput are engagement counts reported for a campaign.
type MetricsInput struct {
	Likes       int64 `json:"likes"`
	Comments    int64 `json:"comments"`
	Views       int64 `json:"views"`
	Shares      int64 `json:"shares"`
	Impressions int64 `json:"impressions"`
}

func (s *CampaignService) RecordMetrics(ctx context.Context, userID, campaignID string, in MetricsInput) (*model.CampaignMetrics, error) {
	if in.Likes < 0 || in.Comments < 0 || in.Views < 0 || in.Shares < 0 || in.Impressions < 0 {
		return nil, appErrors.Validation("metrics must not be negative")
	}
	if _, err := s.owned(ctx, userID, campaignID); err != nil {
		return nil, err
	}
	m := &model.CampaignMetrics{
		CampaignID:  campaignID,
		Likes:       in.Likes,
		Comments:    in.Comments,
		Views:       in.Views,
		Shares:      in.Shares,
		Impressions: in.Impressions,
	}
	if err := s.MetricsRepo.Upsert(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *CampaignService) Analytics(ctx context.Context, userID, campaignID string) (*analytics.Report, error) {
	if _, err := s.owned(ctx, userID, campaignID); err != nil {
		return nil, err
	}
	m, err := s.MetricsRepo.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	report := analytics.Analyze(*m)
	return &report, nil
}

// SuggestedTime is the next good posting slot for a campaign's audience.
type SuggestedTime struct {
	CampaignID string    `json:"campaign_id"`
	PostAt     time.Time `json:"post_at"`
	Timezone   string    `json:"timezone"`
	BestHours  []int     `json:"best_hours"`
}

func (s *CampaignService) SuggestPostingTime(ctx context.Context, userID, campaignID, timezone string) (*SuggestedTime, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, appErrors.Validation("unknown timezone %q", timezone)
	}
	c, err := s.owned(ctx, userID, campaignID)
	if err != nil {
		return nil, err
	}
	return &SuggestedTime{
		CampaignID: c.ID,
		PostAt:     scheduler.SuggestPostingTime(c.TargetAudience, s.now().In(loc)),
		Timezone:   timezone,
		BestHours:  scheduler.BestHours(c.TargetAudience),
	}, nil
}

// Dashboard summarises a user's campaigns.
type Dashboard struct {
	Counts     map[string]int     `json:"counts"`
	TotalCount int                `json:"total_count"`
	Campaigns  []*CampaignDetails `json:"campaigns"`
}

const dashboardLimit = 100

func (s *CampaignService) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	counts, err := s.CampaignRepo.CountByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	campaigns, total, err := s.CampaignRepo.ListCampaigns(ctx, userID, 0, dashboardLimit, "", "")
	if err != nil {
		return nil, err
	}

	d := &Dashboard{Counts: counts, TotalCount: total, Campaigns: make([]*CampaignDetails, 0, len(campaigns))}
	for _, c := range campaigns {
		details, err := s.details(ctx, c)
		if err != nil {
			return nil, err
		}
		d.Campaigns = append(d.Campaigns, details)
	}
	return d, nil
}

const maxCalendarRange = 366 * 24 * time.Hour

// Calendar returns campaigns running on any day in [from, to].
func (s *CampaignService) Calendar(ctx context.Context, userID string, from, to time.Time) ([]*model.Campaign, error) {
	if to.Before(from) {
		return nil, appErrors.Validation("to must not be before from")
	}
	if to.Sub(from) > maxCalendarRange {
		return nil, appErrors.Validation("calendar range must not exceed 366 days")
	}
	// to is inclusive of its whole day.
	end := to.Add(24*time.Hour - time.Nanosecond)
	return s.CampaignRepo.ListInRange(ctx, userID, from, end)
}
