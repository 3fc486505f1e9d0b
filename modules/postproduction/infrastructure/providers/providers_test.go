package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeepgramProvider_Name(t *testing.T) {
	provider := NewDeepgramProvider("test-key")
	require.NotNil(t, provider)
	assert.Equal(t, "deepgram", provider.Name())
}

func TestGeminiProvider_Name(t *testing.T) {
	provider, err := NewGeminiProvider(context.Background(), "test-key", "gemini-2.0-flash")
	require.NoError(t, err)
	assert.Equal(t, "gemini", provider.Name())
}

func TestParseSegmentsJSON(t *testing.T) {
	segments, err := parseSegmentsJSON(`[{"start": 0, "end": 1.5, "text": "Hi."}]`)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, "Hi.", segments[0].Text)
	assert.Equal(t, 1.5, segments[0].EndSec)
}

func TestParseSegmentsJSON_StripsCodeFence(t *testing.T) {
	segments, err := parseSegmentsJSON("```json\n[{\"start\": 1, \"end\": 2, \"text\": \"fenced\"}]\n```")
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, "fenced", segments[0].Text)

	_, err = parseSegmentsJSON("sorry, I cannot transcribe this")
	assert.Error(t, err)
}

func TestMockProvider(t *testing.T) {
	provider := NewMockProvider()
	assert.Equal(t, "mock", provider.Name())

	segments, err := provider.Transcribe(context.Background(), nil, "audio/mp4")
	require.NoError(t, err)
	assert.NotEmpty(t, segments)
}
