// Package ai wraps the hosted generative services used to produce campaign
// variants: image generation, caption writing and moderation.
package ai

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/ThisIsJeron/fluffyduck-sub000/internal/observability"
)

// Caption styles, in the order variants receive them.
var CaptionStyles = []string{"Modern & Bold", "Classic & Elegant", "Creative & Playful", "Warm & Local"}

// CaptionRequest describes the campaign a set of captions is written for.
type CaptionRequest struct {
	RestaurantName string
	Title          string
	Description    string
	TargetAudience string
	Platform       string
	Count          int
}

// Caption is one generated caption in a given style.
type Caption struct {
	Style    string   `json:"style"`
	Text     string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
}

// ImageRequest describes the images to generate for a campaign.
type ImageRequest struct {
	Prompt string
	Count  int
}

type CaptionGenerator interface {
	GenerateCaptions(ctx context.Context, req CaptionRequest) ([]Caption, error)
}

type ImageGenerator interface {
	GenerateImages(ctx context.Context, req ImageRequest) ([]string, error)
}

// Moderator reports, per input text, whether the text was flagged.
type Moderator interface {
	Moderate(ctx context.Context, texts []string) ([]bool, error)
}

// ErrEmptyResponse is returned when a provider answers without usable output.
var ErrEmptyResponse = errors.New("provider returned no results")

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
}

// call runs fn through the breaker and records the outcome.
func call[T any](cb *gobreaker.CircuitBreaker, provider, operation string, fn func() (T, error)) (T, error) {
	start := time.Now()
	out, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	observability.RecordAICall(provider, operation, time.Since(start), err == nil)

	var zero T
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}
