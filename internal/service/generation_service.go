package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/ThisIsJeron/fluffyduck-sub000/internal/ai"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/cache"
	appErrors "github.com/ThisIsJeron/fluffyduck-sub000/internal/errors"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/model"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/repository"
)

const (
	defaultVariantCount = 3
	maxVariantCount     = 4
)

// GenerationService produces, stores and selects AI variants.
type GenerationService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	MediaRepo    repository.MediaRepositoryInterface
	Variants     cache.VariantStore
	Images       ai.ImageGenerator
	Captions     ai.CaptionGenerator
	Moderator    ai.Moderator
	Clock        clockwork.Clock
}

type GenerateRequest struct {
	ReferenceMediaID string `json:"reference_media_id"`
	Count            int    `json:"count"`
}

func (s *GenerationService) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s *GenerationService) owned(ctx context.Context, userID, campaignID string) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, appErrors.NewCampaignNotFound(campaignID)
	}
	return c, nil
}

// Generate builds a fresh set of variants for a campaign and stores it as
// the campaign's latest generation.
func (s *GenerationService) Generate(ctx context.Context, userID, campaignID string, req GenerateRequest) (*model.GenerationResult, error) {
	count := req.Count
	if count == 0 {
		count = defaultVariantCount
	}
	if count < 1 || count > maxVariantCount {
		return nil, appErrors.Validation("count must be between 1 and %d", maxVariantCount)
	}

	c, err := s.owned(ctx, userID, campaignID)
	if err != nil {
		return nil, err
	}

	reference := c.MediaURL
	if req.ReferenceMediaID != "" {
		m, err := s.MediaRepo.GetByID(ctx, userID, req.ReferenceMediaID)
		if err != nil {
			return nil, err
		}
		reference = m.PublicURL
	}

	platform := c.PrimaryPlatform()
	prompt := ai.ImagePrompt(c.Title, c.Description, c.TargetAudience, platform)
	logger := zerolog.Ctx(ctx).With().Str("campaign_id", c.ID).Int("count", count).Logger()

	images, err := s.Images.GenerateImages(ctx, ai.ImageRequest{Prompt: prompt, Count: count})
	if err != nil {
		logger.Error().Err(err).Msg("image generation failed")
		return nil, appErrors.External("image generation failed", err)
	}

	captions, err := s.Captions.GenerateCaptions(ctx, ai.CaptionRequest{
		RestaurantName: c.RestaurantName,
		Title:          c.Title,
		Description:    c.Description,
		TargetAudience: c.TargetAudience,
		Platform:       platform,
		Count:          count,
	})
	if err != nil {
		logger.Error().Err(err).Msg("caption generation failed")
		return nil, appErrors.External("caption generation failed", err)
	}

	texts := make([]string, len(captions))
	for i, cp := range captions {
		texts[i] = cp.Text
	}
	flagged, err := s.Moderator.Moderate(ctx, texts)
	if err != nil {
		logger.Error().Err(err).Msg("moderation failed")
		return nil, appErrors.External("moderation failed", err)
	}

	result := &model.GenerationResult{
		ID:                 uuid.NewString(),
		CampaignID:         c.ID,
		Prompt:             prompt,
		StyleUsed:          ai.PlatformStyle(platform),
		ReferenceImageUsed: reference != "" && len(images) < count,
		Variants:           make([]model.Variant, 0, len(captions)),
		CreatedAt:          s.now(),
	}
	for i, cp := range captions {
		if i == count {
			break
		}
		mediaURL := reference
		if i < len(images) {
			mediaURL = images[i]
		}
		result.Variants = append(result.Variants, model.Variant{
			ID:       uuid.NewString(),
			Title:    fmt.Sprintf("Option %d", i+1),
			Style:    cp.Style,
			MediaURL: mediaURL,
			Caption:  cp.Text,
			Hashtags: cp.Hashtags,
			Flagged:  i < len(flagged) && flagged[i],
		})
	}

	if err := s.Variants.Save(ctx, result); err != nil {
		return nil, err
	}
	logger.Info().Int("variants", len(result.Variants)).Msg("variants generated")
	return result, nil
}

func (s *GenerationService) GetVariants(ctx context.Context, userID, campaignID string) (*model.GenerationResult, error) {
	if _, err := s.owned(ctx, userID, campaignID); err != nil {
		return nil, err
	}
	return s.Variants.Latest(ctx, campaignID)
}

// SelectVariant copies a generated variant into the campaign.
func (s *GenerationService) SelectVariant(ctx context.Context, userID, campaignID, variantID string) (*model.Campaign, error) {
	c, err := s.owned(ctx, userID, campaignID)
	if err != nil {
		return nil, err
	}
	if c.Status == model.StatusSending {
		return nil, appErrors.Conflict("campaign %s is being sent and cannot be edited", c.ID)
	}

	result, err := s.Variants.Latest(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	v, ok := result.Variant(variantID)
	if !ok {
		return nil, appErrors.NotFound("variant %s not found", variantID)
	}
	if v.Flagged {
		return nil, appErrors.Validation("variant %s was flagged by moderation and cannot be selected", variantID)
	}

	caption := v.Caption
	c.Caption = &caption
	c.Hashtags = cleanTags(v.Hashtags)
	if v.MediaURL != "" {
		c.MediaURL = v.MediaURL
	}
	c.Selected = true
	if c.StartDate != nil && c.StartDate.After(s.now()) {
		c.Status = model.StatusScheduled
	} else {
		c.Status = model.StatusDraft
	}

	if err := s.CampaignRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	if err := s.Variants.Delete(ctx, campaignID); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("campaign_id", campaignID).Msg("failed to clear variants")
	}
	return c, nil
}
