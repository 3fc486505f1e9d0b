package services

import (
	"context"
	"strconv"
	"strings"

	domainServices "maycast/server/modules/postproduction/domain/services"
	recordingEntities "maycast/server/modules/recording/domain/entities"
	recordingRepos "maycast/server/modules/recording/domain/repositories"
	storage "maycast/server/modules/storage/domain/services"
	"maycast/server/seedwork/domain"

	"github.com/rs/zerolog/log"
)

// SubtitleService assembles a room-wide subtitle track from the per-guest
// transcription outputs, tagging each cue with its speaker.
type SubtitleService struct {
	store      storage.ChunkStore
	recordings recordingRepos.RecordingRepository
}

// NewSubtitleService creates a new subtitle service
func NewSubtitleService(store storage.ChunkStore, recordings recordingRepos.RecordingRepository) *SubtitleService {
	return &SubtitleService{store: store, recordings: recordings}
}

// MergedForRoom merges every completed transcription in the room into one
// WebVTT document with <v Speaker> voice tags.
func (s *SubtitleService) MergedForRoom(ctx context.Context, roomID string) (string, error) {
	recs, err := s.recordings.ListByRoom(ctx, roomID)
	if err != nil {
		return "", err
	}

	var tracks []SpeakerTrack
	for _, rec := range recs {
		if rec.TranscriptionState != recordingEntities.ProcessingCompleted || rec.OutputVTTKey == "" {
			continue
		}
		data, err := s.store.GetObject(ctx, rec.OutputVTTKey)
		if err != nil {
			log.Warn().Err(err).Str("recording_id", rec.GetID()).Msg("skipping unreadable subtitle track")
			continue
		}
		tracks = append(tracks, SpeakerTrack{
			Speaker:  speakerName(rec),
			Segments: ParseWebVTT(string(data)),
		})
	}

	if len(tracks) == 0 {
		return "", domain.NewDomainError(domain.KindNotFound, "NO_SUBTITLES",
			"no completed transcriptions in room", nil)
	}
	return MergeWebVTT(tracks), nil
}

// speakerName picks the best available label for a recording's speaker
func speakerName(rec *recordingEntities.Recording) string {
	if rec.Metadata != nil {
		if rec.Metadata.ParticipantName != "" {
			return rec.Metadata.ParticipantName
		}
		if rec.Metadata.DisplayName != "" {
			return rec.Metadata.DisplayName
		}
	}
	return rec.GetID()
}

// ParseWebVTT reads the cues of a WebVTT document back into segments.
// Ordinal lines and unparseable blocks are skipped; multi-line cue text is
// joined with newlines.
func ParseWebVTT(doc string) []domainServices.TranscriptSegment {
	var segments []domainServices.TranscriptSegment
	blocks := strings.Split(strings.ReplaceAll(doc, "\r\n", "\n"), "\n\n")
	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		seg, ok := parseCue(lines)
		if ok {
			segments = append(segments, seg)
		}
	}
	return segments
}

func parseCue(lines []string) (domainServices.TranscriptSegment, bool) {
	for i, line := range lines {
		start, end, ok := parseTimingLine(line)
		if !ok {
			continue
		}
		if i+1 >= len(lines) {
			return domainServices.TranscriptSegment{}, false
		}
		return domainServices.TranscriptSegment{
			StartSec: start,
			EndSec:   end,
			Text:     strings.Join(lines[i+1:], "\n"),
		}, true
	}
	return domainServices.TranscriptSegment{}, false
}

func parseTimingLine(line string) (float64, float64, bool) {
	parts := strings.Split(line, " --> ")
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, ok := parseVTTTimestamp(strings.TrimSpace(parts[0]))
	if !ok {
		return 0, 0, false
	}
	end, ok := parseVTTTimestamp(strings.TrimSpace(parts[1]))
	if !ok {
		return 0, 0, false
	}
	return start, end, true
}

// parseVTTTimestamp reads HH:MM:SS.mmm (or MM:SS.mmm) into seconds
func parseVTTTimestamp(ts string) (float64, bool) {
	fields := strings.Split(ts, ":")
	if len(fields) < 2 || len(fields) > 3 {
		return 0, false
	}
	var total float64
	for _, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil || v < 0 {
			return 0, false
		}
		total = total*60 + v
	}
	return total, true
}
