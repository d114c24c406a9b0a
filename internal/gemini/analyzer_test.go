package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/nguyentantai21042004/video-narrator/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type call struct {
	key      string
	contents []*genai.Content
}

func newTestAnalyzer(keys []string, responses map[string]error, text string) (*implAnalyzer, *[]call) {
	var calls []call
	a := New(keys, "", logger.NewNop()).(*implAnalyzer)
	a.generate = func(_ context.Context, key, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (string, error) {
		calls = append(calls, call{key: key, contents: contents})
		if err := responses[key]; err != nil {
			return "", err
		}
		return text, nil
	}
	return a, &calls
}

func TestCaptionSendsInlineImage(t *testing.T) {
	a, calls := newTestAnalyzer([]string{"k1"}, nil, " A beach at sunset. ")

	text, err := a.Caption(context.Background(), []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "A beach at sunset.", text)

	require.Len(t, *calls, 1)
	parts := (*calls)[0].contents[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, captionPrompt, parts[0].Text)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "image/jpeg", parts[1].InlineData.MIMEType)
	assert.Equal(t, []byte{1, 2, 3}, parts[1].InlineData.Data)
}

func TestSummarizeNumbersCaptions(t *testing.T) {
	a, calls := newTestAnalyzer([]string{"k1"}, nil, "summary")

	_, err := a.Summarize(context.Background(), []string{"first", "second"})
	require.NoError(t, err)

	prompt := (*calls)[0].contents[0].Parts[0].Text
	assert.Contains(t, prompt, "1. first\n2. second")
}

func TestSummarizeRejectsEmpty(t *testing.T) {
	a, calls := newTestAnalyzer([]string{"k1"}, nil, "summary")
	_, err := a.Summarize(context.Background(), nil)
	assert.Error(t, err)
	assert.Empty(t, *calls)
}

func TestRotatesOnQuota(t *testing.T) {
	a, calls := newTestAnalyzer([]string{"k1", "k2"}, map[string]error{
		"k1": errors.New("Error 429, RESOURCE_EXHAUSTED"),
	}, "ok")

	text, err := a.Caption(context.Background(), []byte{1})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	require.Len(t, *calls, 2)
	assert.Equal(t, "k2", (*calls)[1].key)
	assert.Equal(t, 1, a.currentKey)
}

func TestAllKeysExhausted(t *testing.T) {
	quota := errors.New("quota exceeded")
	a, _ := newTestAnalyzer([]string{"k1", "k2"}, map[string]error{"k1": quota, "k2": quota}, "")

	_, err := a.Caption(context.Background(), []byte{1})
	require.Error(t, err)
	assert.ErrorIs(t, err, quota)
	assert.Contains(t, err.Error(), "all API keys exhausted")
}

func TestNonQuotaErrorStops(t *testing.T) {
	a, calls := newTestAnalyzer([]string{"k1", "k2"}, map[string]error{"k1": errors.New("invalid argument")}, "")

	_, err := a.Caption(context.Background(), []byte{1})
	assert.Error(t, err)
	assert.Len(t, *calls, 1)
}

func TestNoKeys(t *testing.T) {
	a, _ := newTestAnalyzer(nil, nil, "")
	_, err := a.Caption(context.Background(), []byte{1})
	assert.ErrorIs(t, err, errNoKeys)
}

func TestEmptyResponse(t *testing.T) {
	a, _ := newTestAnalyzer([]string{"k1"}, nil, "  ")
	_, err := a.Caption(context.Background(), []byte{1})
	assert.Error(t, err)
}
