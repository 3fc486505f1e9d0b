package providers

import (
	"bytes"
	"context"
	"fmt"

	"maycast/server/modules/postproduction/domain/services"

	listenapi "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	"github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listen "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
)

// DeepgramProvider implements TranscriptionProvider on the Deepgram client
// SDK. Utterance splitting gives the timed segments the subtitle formatter
// needs.
type DeepgramProvider struct {
	client *listenapi.Client
}

// NewDeepgramProvider creates a new Deepgram provider
func NewDeepgramProvider(apiKey string) *DeepgramProvider {
	rest := listen.NewREST(apiKey, &interfaces.ClientOptions{})
	return &DeepgramProvider{client: listenapi.New(rest)}
}

// Name identifies the provider in logs
func (p *DeepgramProvider) Name() string {
	return "deepgram"
}

// Transcribe uploads the audio and maps utterances to segments
func (p *DeepgramProvider) Transcribe(ctx context.Context, audio []byte, mimeType string) ([]services.TranscriptSegment, error) {
	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:       "nova-2",
		SmartFormat: true,
		Utterances:  true,
	}

	resp, err := p.client.FromStream(ctx, bytes.NewReader(audio), options)
	if err != nil {
		return nil, fmt.Errorf("deepgram transcription failed: %w", err)
	}

	utterances := resp.Results.Utterances
	segments := make([]services.TranscriptSegment, 0, len(utterances))
	for _, u := range utterances {
		if u.Transcript == "" {
			continue
		}
		segments = append(segments, services.TranscriptSegment{
			StartSec: u.Start,
			EndSec:   u.End,
			Text:     u.Transcript,
		})
	}
	return segments, nil
}
