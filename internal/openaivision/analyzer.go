package openaivision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const captionPrompt = "Describe this image in detail for a visually impaired person. " +
	"Include colors, objects, people, actions, settings, and any text visible. " +
	"Be descriptive and thorough (4-6 sentences)."

const summaryPrompt = `You narrate videos for visually impaired viewers. The following descriptions were taken from consecutive frames of the same 30 second part of a video.
Write one short spoken paragraph (2-4 sentences) describing what happens in this part. Do not mention frames or captions.

Frame descriptions:
%s`

var errEmptyResponse = errors.New("empty completion")

// Caption sends the frame as a base64 data URL image part.
func (a *implAnalyzer) Caption(ctx context.Context, image []byte) (string, error) {
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)

	msg := openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: captionPrompt},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
				URL:    dataURL,
				Detail: openai.ImageURLDetailLow,
			}},
		},
	}

	text, err := a.complete(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("caption: %w", err)
	}
	return text, nil
}

func (a *implAnalyzer) Summarize(ctx context.Context, captions []string) (string, error) {
	if len(captions) == 0 {
		return "", fmt.Errorf("summarize: no captions provided")
	}

	var b strings.Builder
	for i, c := range captions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(c))
	}

	text, err := a.complete(ctx, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: fmt.Sprintf(summaryPrompt, b.String()),
	})
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return text, nil
}

func (a *implAnalyzer) complete(ctx context.Context, msg openai.ChatCompletionMessage) (string, error) {
	resp, err := a.cli.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    []openai.ChatCompletionMessage{msg},
		MaxTokens:   a.maxTokens,
		Temperature: 0.4,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyResponse
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errEmptyResponse
	}
	a.logger.Debug(ctx, "Completion used %d tokens", resp.Usage.TotalTokens)
	return text, nil
}
