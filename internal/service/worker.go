package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ThisIsJeron/fluffyduck-sub000/internal/dispatch"
	appErrors "github.com/ThisIsJeron/fluffyduck-sub000/internal/errors"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/model"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/observability"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/repository"
)

// DefaultMaxRetries is the number of failed attempts after which a dispatch
// is given up.
const DefaultMaxRetries = 3

// Worker processes dispatch jobs
type Worker struct {
	DispatchRepo repository.DispatchRepositoryInterface
	CampaignRepo repository.CampaignRepositoryInterface
	Sender       dispatch.Sender
	MaxRetries   int
}

// Constructor
func NewWorker(dispatchRepo repository.DispatchRepositoryInterface, campaignRepo repository.CampaignRepositoryInterface, sender dispatch.Sender) *Worker {
	return &Worker{
		DispatchRepo: dispatchRepo,
		CampaignRepo: campaignRepo,
		Sender:       sender,
		MaxRetries:   DefaultMaxRetries,
	}
}

// ProcessDispatch claims and sends one pending dispatch. It returns an error
// only when the attempt failed and should be retried. The caller's logger is
// expected to carry the dispatch ID.
func (w *Worker) ProcessDispatch(ctx context.Context, dispatchID string) error {
	logger := zerolog.Ctx(ctx)

	d, claimed, err := w.DispatchRepo.Claim(ctx, dispatchID)
	if err != nil {
		return err
	}
	if !claimed {
		logger.Debug().Msg("dispatch is not pending, skipping")
		return nil
	}

	c, err := w.CampaignRepo.GetByID(ctx, d.CampaignID)
	if err != nil {
		if appErrors.IsNotFound(err) {
			logger.Warn().Str("campaign_id", d.CampaignID).Msg("campaign gone, abandoning dispatch")
			return w.DispatchRepo.MarkExhausted(ctx, d.ID)
		}
		return w.attemptFailed(ctx, d, err)
	}

	result, sendErr := w.Sender.Send(ctx, dispatch.Message{Recipient: d.Recipient, Subject: d.Subject, Body: d.Body})
	if sendErr != nil {
		observability.RecordDispatch(w.Sender.Name(), model.DispatchFailed)
		return w.attemptFailed(ctx, d, sendErr)
	}

	observability.RecordDispatch(w.Sender.Name(), model.DispatchSent)
	if err := w.DispatchRepo.MarkSent(ctx, d.ID, result); err != nil {
		return err
	}
	if err := w.CampaignRepo.UpdateStatus(ctx, c.ID, model.StatusPosted); err != nil {
		return err
	}
	logger.Info().Str("campaign_id", c.ID).Str("driver", w.Sender.Name()).Msg("campaign dispatched")
	return nil
}

// attemptFailed releases a claimed dispatch after a failed attempt. Once
// MaxRetries attempts have failed the dispatch and its campaign are failed
// and nil is returned so the job is not redelivered.
func (w *Worker) attemptFailed(ctx context.Context, d *model.Dispatch, cause error) error {
	retries, err := w.DispatchRepo.MarkFailed(ctx, d.ID, cause.Error(), w.MaxRetries)
	if err != nil {
		return err
	}
	if retries < w.MaxRetries {
		return fmt.Errorf("send dispatch %s (attempt %d/%d): %w", d.ID, retries, w.MaxRetries, cause)
	}

	zerolog.Ctx(ctx).Error().Err(cause).Str("campaign_id", d.CampaignID).Int("attempts", retries).
		Msg("dispatch permanently failed")
	return w.CampaignRepo.UpdateStatus(ctx, d.CampaignID, model.StatusFailed)
}
