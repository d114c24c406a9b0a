package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const captionPrompt = "Describe this image in detail for a visually impaired person. " +
	"Include colors, objects, people, actions, settings, and any text visible. " +
	"Be descriptive and thorough (4-6 sentences)."

const summaryPrompt = `You narrate videos for visually impaired viewers. The following descriptions were taken from consecutive frames of the same 30 second part of a video.
Write one short spoken paragraph (2-4 sentences) describing what happens in this part. Do not mention frames or captions.

Frame descriptions:
---
%s
---`

var errNoKeys = errors.New("no Gemini API keys configured")

// Caption sends one JPEG frame with the accessibility prompt.
func (a *implAnalyzer) Caption(ctx context.Context, image []byte) (string, error) {
	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: captionPrompt},
			{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: image}},
		},
	}}
	return a.callGemini(ctx, contents, &genai.GenerateContentConfig{MaxOutputTokens: 300})
}

// Summarize condenses the captions in the order given.
func (a *implAnalyzer) Summarize(ctx context.Context, captions []string) (string, error) {
	if len(captions) == 0 {
		return "", fmt.Errorf("summarize: no captions provided")
	}

	var b strings.Builder
	for i, c := range captions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(c))
	}
	return a.callGemini(ctx, genai.Text(fmt.Sprintf(summaryPrompt, b.String())), nil)
}

// callGemini tries each key once, rotating on 429 / quota errors.
func (a *implAnalyzer) callGemini(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	if len(a.apiKeys) == 0 {
		return "", errNoKeys
	}

	attempts := len(a.apiKeys)
	var lastErr error

	for range attempts {
		idx, key := a.key()

		text, err := a.generate(ctx, key, a.model, contents, cfg)
		if err != nil {
			if isQuotaError(err) {
				a.logger.Warn(ctx, "Key %d rate limited, rotating...", idx+1)
				a.rotateKey(idx)
				lastErr = err
				continue
			}
			return "", fmt.Errorf("generate content: %w", err)
		}

		text = strings.TrimSpace(text)
		if text == "" {
			return "", fmt.Errorf("empty response from Gemini")
		}
		return text, nil
	}

	return "", fmt.Errorf("all API keys exhausted: %w", lastErr)
}

func (a *implAnalyzer) key() (int, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentKey, a.apiKeys[a.currentKey]
}

// rotateKey moves past the failed key unless another goroutine already did
func (a *implAnalyzer) rotateKey(failed int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.currentKey == failed {
		a.currentKey = (a.currentKey + 1) % len(a.apiKeys)
	}
}

func isQuotaError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

func generateContent(ctx context.Context, apiKey, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("create client: %w", err)
	}

	result, err := client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", err
	}

	if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
		var text string
		for _, part := range result.Candidates[0].Content.Parts {
			if part.Text != "" {
				text += part.Text
			}
		}
		return text, nil
	}
	return "", nil
}
