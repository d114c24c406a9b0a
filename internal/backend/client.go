package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrBackend wraps non-2xx responses
var ErrBackend = errors.New("backend error")

type frameRequest struct {
	ImageData string `json:"image_data"`
	Fast      *bool  `json:"fast,omitempty"`
}

type frameResponse struct {
	Description string `json:"description"`
	Status      string `json:"status"`
	Error       string `json:"error"`
}

type summaryRequest struct {
	Captions []string `json:"captions"`
}

type summaryResponse struct {
	Summary      string `json:"summary"`
	CaptionCount int    `json:"caption_count"`
	Status       string `json:"status"`
	Error        string `json:"error"`
}

// Caption posts one JPEG frame to /analyze-video-frame
func (c *implClient) Caption(ctx context.Context, image []byte) (string, error) {
	req := frameRequest{ImageData: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)}
	if c.fast {
		fast := true
		req.Fast = &fast
	}

	var resp frameResponse
	if err := c.post(ctx, "/analyze-video-frame", req, &resp); err != nil {
		return "", fmt.Errorf("analyze frame: %w", err)
	}

	description := strings.TrimSpace(resp.Description)
	if description == "" {
		return "", fmt.Errorf("analyze frame: %w: empty description", ErrBackend)
	}
	return description, nil
}

// Summarize posts the ordered captions to /summarize-captions
func (c *implClient) Summarize(ctx context.Context, captions []string) (string, error) {
	if len(captions) == 0 {
		return "", fmt.Errorf("summarize captions: no captions provided")
	}

	var resp summaryResponse
	if err := c.post(ctx, "/summarize-captions", summaryRequest{Captions: captions}, &resp); err != nil {
		return "", fmt.Errorf("summarize captions: %w", err)
	}

	if resp.CaptionCount != 0 && resp.CaptionCount != len(captions) {
		c.logger.Warn(ctx, "Backend summarized %d captions, sent %d", resp.CaptionCount, len(captions))
	}
	return strings.TrimSpace(resp.Summary), nil
}

// Health checks that the backend root answers
func (c *implClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend health: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("backend health: %w: status %d", ErrBackend, resp.StatusCode)
	}
	return nil
}

func (c *implClient) post(ctx context.Context, path string, body, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug(ctx, "POST %s (%d bytes)", path, len(payload))
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return fmt.Errorf("%w: status %d: %s", ErrBackend, resp.StatusCode, e.Error)
		}
		return fmt.Errorf("%w: status %d", ErrBackend, resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
