package copywriter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/wb-go/wbf/zlog"
	"google.golang.org/api/option"

	"github.com/prodpix/prodpix/internal/config"
	"github.com/prodpix/prodpix/internal/domain"
)

// Client generates listing copy with the Gemini API.
type Client struct {
	client *genai.Client
	model  string
	temp   float32
}

func New(ctx context.Context, cfg *config.CopywritingConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("copywriting api key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	temp := cfg.Temperature
	if temp <= 0 {
		temp = 0.7
	}

	zlog.Logger.Info().
		Str("model", cfg.Model).
		Float32("temperature", temp).
		Msg("Copywriter client initialized")

	return &Client{
		client: client,
		model:  cfg.Model,
		temp:   temp,
	}, nil
}

type copyPayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Bullets     []string `json:"bullets"`
	Hashtags    []string `json:"hashtags"`
}

func (c *Client) GenerateCopy(ctx context.Context, req domain.CopyRequest) (*domain.CopyResult, error) {
	if !req.Platform.Valid() {
		return nil, fmt.Errorf("%w: unknown platform %q", domain.ErrInvalidOperation, req.Platform)
	}
	if strings.TrimSpace(req.ProductName) == "" {
		return nil, fmt.Errorf("%w: product name is required", domain.ErrInvalidOperation)
	}

	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(c.temp)

	resp, err := model.GenerateContent(ctx, genai.Text(buildPrompt(req)))
	if err != nil {
		zlog.Logger.Error().Err(err).Str("platform", string(req.Platform)).Msg("copy generation failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrModelTransient, err)
	}

	text := extractText(resp)
	if text == "" {
		return nil, fmt.Errorf("%w: empty model response", domain.ErrModelTransient)
	}

	var payload copyPayload
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &payload); err != nil {
		zlog.Logger.Warn().Err(err).Msg("model response is not valid JSON")
		return nil, fmt.Errorf("%w: malformed model response", domain.ErrModelTransient)
	}
	if payload.Title == "" && payload.Description == "" {
		return nil, fmt.Errorf("%w: model response carries no copy", domain.ErrModelTransient)
	}

	return &domain.CopyResult{
		Platform:    req.Platform,
		Title:       payload.Title,
		Description: payload.Description,
		Bullets:     payload.Bullets,
		Hashtags:    payload.Hashtags,
	}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String())
}

// stripCodeFence unwraps ```json ... ``` blocks the model sometimes emits
// despite the instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
