package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

const defaultFalEndpoint = "https://fal.run/fal-ai/stable-diffusion-v15"

// FalImageGenerator generates images with a fal.ai text-to-image model.
type FalImageGenerator struct {
	key      string
	endpoint string
	client   *http.Client
	cb       *gobreaker.CircuitBreaker
}

func NewFalImageGenerator(key, endpoint string, client *http.Client) *FalImageGenerator {
	if endpoint == "" {
		endpoint = defaultFalEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: 90 * time.Second}
	}
	return &FalImageGenerator{key: key, endpoint: endpoint, client: client, cb: newBreaker("fal")}
}

type falRequest struct {
	Prompt            string  `json:"prompt"`
	NegativePrompt    string  `json:"negative_prompt"`
	ImageSize         string  `json:"image_size"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
	NumImages         int     `json:"num_images"`
}

type falResponse struct {
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
}

func (g *FalImageGenerator) GenerateImages(ctx context.Context, req ImageRequest) ([]string, error) {
	body, err := json.Marshal(falRequest{
		Prompt:            req.Prompt,
		NegativePrompt:    NegativePrompt,
		ImageSize:         "square_hd",
		NumInferenceSteps: 50,
		GuidanceScale:     7.5,
		NumImages:         req.Count,
	})
	if err != nil {
		return nil, err
	}

	return call(g.cb, "fal", "images", func() ([]string, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Authorization", "Key "+g.key)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := g.client.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("fal request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode/100 != 2 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, fmt.Errorf("fal returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
		}

		var out falResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("decode fal response: %w", err)
		}
		urls := make([]string, 0, len(out.Images))
		for _, img := range out.Images {
			if img.URL != "" {
				urls = append(urls, img.URL)
			}
		}
		if len(urls) == 0 {
			return nil, ErrEmptyResponse
		}
		return urls, nil
	})
}

// StaticImageGenerator returns no images; callers reuse the reference media.
type StaticImageGenerator struct{}

func (StaticImageGenerator) GenerateImages(context.Context, ImageRequest) ([]string, error) {
	return []string{}, nil
}
