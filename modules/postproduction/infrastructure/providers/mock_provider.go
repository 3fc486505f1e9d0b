package providers

import (
	"context"

	"maycast/server/modules/postproduction/domain/services"
)

// MockProvider is a deterministic TranscriptionProvider for development and
// tests: no network, fixed segments.
type MockProvider struct {
	Segments []services.TranscriptSegment
	Err      error
}

// NewMockProvider creates a mock with a small canned transcript
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Segments: []services.TranscriptSegment{
			{StartSec: 0, EndSec: 2, Text: "This is a mock transcription."},
			{StartSec: 2, EndSec: 4, Text: "Replace the provider for real output."},
		},
	}
}

// Name identifies the provider in logs
func (p *MockProvider) Name() string {
	return "mock"
}

// Transcribe returns the canned segments
func (p *MockProvider) Transcribe(ctx context.Context, audio []byte, mimeType string) ([]services.TranscriptSegment, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Segments, nil
}
