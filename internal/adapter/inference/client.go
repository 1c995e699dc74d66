package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/prodpix/prodpix/internal/config"
	"github.com/prodpix/prodpix/internal/domain"
)

// Client talks to the hosted vision models over their REST gateway.
// Images travel base64-encoded in JSON both ways.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func New(cfg *config.InferenceConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second

	zlog.Logger.Info().
		Str("base_url", cfg.BaseURL).
		Dur("timeout", timeout).
		Msg("Inference client initialized")

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type detectTextRequest struct {
	Image string `json:"image"`
}

type detectTextResponse struct {
	Regions []domain.Region `json:"regions"`
}

func (c *Client) DetectText(ctx context.Context, image []byte) ([]domain.Region, error) {
	req := detectTextRequest{Image: base64.StdEncoding.EncodeToString(image)}

	var resp detectTextResponse
	if err := c.post(ctx, "/v1/detect_text", req, &resp); err != nil {
		return nil, err
	}
	return resp.Regions, nil
}

type inpaintRequest struct {
	Image string `json:"image"`
	Mask  string `json:"mask"`
}

type imageResponse struct {
	Image string `json:"image"`

	// QualityScore is the model's self-assessment of the generated image.
	// Not every endpoint reports one.
	QualityScore float64 `json:"quality_score"`
}

func (c *Client) Inpaint(ctx context.Context, image []byte, mask []byte) ([]byte, float64, error) {
	req := inpaintRequest{
		Image: base64.StdEncoding.EncodeToString(image),
		Mask:  base64.StdEncoding.EncodeToString(mask),
	}

	var resp imageResponse
	if err := c.post(ctx, "/v1/inpaint", req, &resp); err != nil {
		return nil, 0, err
	}
	out, err := decodeImageField(resp.Image)
	if err != nil {
		return nil, 0, err
	}
	return out, qualityOrDefault(resp.QualityScore), nil
}

func (c *Client) SegmentSubject(ctx context.Context, image []byte) ([]byte, error) {
	req := detectTextRequest{Image: base64.StdEncoding.EncodeToString(image)}

	var resp imageResponse
	if err := c.post(ctx, "/v1/segment_subject", req, &resp); err != nil {
		return nil, err
	}
	return decodeImageField(resp.Image)
}

type generateBackgroundRequest struct {
	Prompt string `json:"prompt"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (c *Client) GenerateBackground(ctx context.Context, prompt string, width, height int) ([]byte, float64, error) {
	req := generateBackgroundRequest{Prompt: prompt, Width: width, Height: height}

	var resp imageResponse
	if err := c.post(ctx, "/v1/generate_background", req, &resp); err != nil {
		return nil, 0, err
	}
	out, err := decodeImageField(resp.Image)
	if err != nil {
		return nil, 0, err
	}
	return out, qualityOrDefault(resp.QualityScore), nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: marshal request: %v", domain.ErrModelPermanent, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrModelPermanent, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Network failures and timeouts are worth another attempt.
		return fmt.Errorf("%w: %s: %v", domain.ErrModelTransient, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		zlog.Logger.Warn().
			Int("status", resp.StatusCode).
			Str("path", path).
			Bytes("body", snippet).
			Msg("model call failed")

		if transientStatus(resp.StatusCode) {
			return fmt.Errorf("%w: %s returned %d", domain.ErrModelTransient, path, resp.StatusCode)
		}
		return fmt.Errorf("%w: %s returned %d", domain.ErrModelPermanent, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", domain.ErrModelTransient, path, err)
	}
	return nil
}

func transientStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return code >= 500
}

func qualityOrDefault(score float64) float64 {
	if score <= 0 {
		return domain.DefaultQualityScore
	}
	return score
}

func decodeImageField(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: decode image payload: %v", domain.ErrModelPermanent, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image payload", domain.ErrModelPermanent)
	}
	return data, nil
}
