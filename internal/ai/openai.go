package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sony/gobreaker"
)

// OpenAIConfig configures the OpenAI-backed captioner and moderator.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxRetries int
	HTTPClient *http.Client
}

func newOpenAIClient(cfg OpenAIConfig) openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return openai.NewClient(opts...)
}

const captionSystemPrompt = `You write short social media captions for restaurants.
Reply with a JSON object only: {"captions":[{"style":"...","caption":"...","hashtags":["..."]}]}.
Hashtags have no leading #. Captions are under 220 characters and may use emoji.`

// OpenAICaptioner writes captions with the chat completions API.
type OpenAICaptioner struct {
	client openai.Client
	model  string
	cb     *gobreaker.CircuitBreaker
}

func NewOpenAICaptioner(cfg OpenAIConfig) *OpenAICaptioner {
	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAICaptioner{
		client: newOpenAIClient(cfg),
		model:  model,
		cb:     newBreaker("openai-captions"),
	}
}

func (c *OpenAICaptioner) GenerateCaptions(ctx context.Context, req CaptionRequest) ([]Caption, error) {
	styles := stylesFor(req.Count)
	prompt := captionUserPrompt(req, styles)

	return call(c.cb, "openai", "captions", func() ([]Caption, error) {
		resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(captionSystemPrompt),
				openai.UserMessage(prompt),
			},
			Model:       openai.ChatModel(c.model),
			Temperature: openai.Float(0.8),
		})
		if err != nil {
			return nil, fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, ErrEmptyResponse
		}
		return parseCaptions(resp.Choices[0].Message.Content, styles)
	})
}

func stylesFor(count int) []string {
	if count <= 0 || count > len(CaptionStyles) {
		count = len(CaptionStyles)
	}
	return CaptionStyles[:count]
}

func captionUserPrompt(req CaptionRequest, styles []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write %d captions for the campaign %q", len(styles), req.Title)
	if req.RestaurantName != "" {
		fmt.Fprintf(&b, " by %s", req.RestaurantName)
	}
	b.WriteString(".\n")
	if req.Description != "" {
		fmt.Fprintf(&b, "Details: %s\n", req.Description)
	}
	if req.TargetAudience != "" {
		fmt.Fprintf(&b, "Audience: %s\n", req.TargetAudience)
	}
	if req.Platform != "" {
		fmt.Fprintf(&b, "Platform: %s\n", req.Platform)
	}
	fmt.Fprintf(&b, "Use these styles, one caption each, in order: %s.", strings.Join(styles, "; "))
	return b.String()
}

// parseCaptions decodes the model's JSON reply. Code fences around the
// object are tolerated. Missing styles are filled from the requested list.
func parseCaptions(content string, styles []string) ([]Caption, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var reply struct {
		Captions []Caption `json:"captions"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &reply); err != nil {
		return nil, fmt.Errorf("decode captions: %w", err)
	}

	captions := make([]Caption, 0, len(styles))
	for i, c := range reply.Captions {
		if i == len(styles) {
			break
		}
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		if c.Style == "" {
			c.Style = styles[i]
		}
		c.Hashtags = cleanHashtags(c.Hashtags)
		captions = append(captions, c)
	}
	if len(captions) == 0 {
		return nil, ErrEmptyResponse
	}
	return captions, nil
}

func cleanHashtags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(strings.TrimLeft(t, "#"))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// OpenAIModerator flags unsafe text with the moderations API.
type OpenAIModerator struct {
	client openai.Client
	cb     *gobreaker.CircuitBreaker
}

func NewOpenAIModerator(cfg OpenAIConfig) *OpenAIModerator {
	return &OpenAIModerator{
		client: newOpenAIClient(cfg),
		cb:     newBreaker("openai-moderation"),
	}
}

func (m *OpenAIModerator) Moderate(ctx context.Context, texts []string) ([]bool, error) {
	if len(texts) == 0 {
		return []bool{}, nil
	}
	return call(m.cb, "openai", "moderation", func() ([]bool, error) {
		resp, err := m.client.Moderations.New(ctx, openai.ModerationNewParams{
			Input: openai.ModerationNewParamsInputUnion{OfStringArray: texts},
			Model: openai.ModerationModelOmniModerationLatest,
		})
		if err != nil {
			return nil, fmt.Errorf("moderation: %w", err)
		}
		if len(resp.Results) != len(texts) {
			return nil, fmt.Errorf("moderation returned %d results for %d inputs", len(resp.Results), len(texts))
		}
		flagged := make([]bool, len(texts))
		for i, r := range resp.Results {
			flagged[i] = r.Flagged
		}
		return flagged, nil
	})
}
