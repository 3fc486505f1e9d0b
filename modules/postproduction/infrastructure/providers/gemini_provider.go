package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"maycast/server/modules/postproduction/domain/services"

	"google.golang.org/genai"
)

const geminiPrompt = `Transcribe this audio recording. Return ONLY a JSON array of segments, ` +
	`one per spoken sentence, in this exact shape: ` +
	`[{"start": <seconds>, "end": <seconds>, "text": "<sentence>"}]`

// GeminiProvider implements TranscriptionProvider on the Gemini client SDK,
// sending the audio inline and asking the model for timed JSON segments.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: model}, nil
}

// Name identifies the provider in logs
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Transcribe sends the audio inline and parses the model's JSON reply
func (p *GeminiProvider) Transcribe(ctx context.Context, audio []byte, mimeType string) ([]services.TranscriptSegment, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(geminiPrompt),
			genai.NewPartFromBytes(audio, mimeType),
		}, genai.RoleUser),
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("gemini transcription failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini returned no candidates")
	}
	return parseSegmentsJSON(text)
}

// parseSegmentsJSON extracts the segment array from the model text, which
// may arrive fenced in a markdown code block.
func parseSegmentsJSON(text string) ([]services.TranscriptSegment, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var segments []services.TranscriptSegment
	if err := json.Unmarshal([]byte(cleaned), &segments); err != nil {
		return nil, fmt.Errorf("gemini reply is not a segment array: %w", err)
	}
	return segments, nil
}
