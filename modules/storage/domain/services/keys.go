package services

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// Object names within a recording prefix.
const (
	InitSegmentName = "init.fmp4"
	OutputMP4Name   = "output.mp4"
	OutputM4AName   = "audio.m4a"
	SubtitleName    = "subtitle.vtt"

	chunkSuffix = ".fmp4"
)

// RecordingPrefix returns the key prefix all of a recording's objects live
// under. Room-scoped recordings use rooms/<roomId>/<recordingId>/, standalone
// recordings use <recordingId>/.
func RecordingPrefix(recordingID, roomID string) string {
	if roomID != "" {
		return path.Join("rooms", roomID, recordingID) + "/"
	}
	return recordingID + "/"
}

// ObjectKey returns the full key of a named object within a recording prefix
func ObjectKey(recordingID, roomID, name string) string {
	return RecordingPrefix(recordingID, roomID) + name
}

// InitSegmentKey returns the key of the recording's init segment
func InitSegmentKey(recordingID, roomID string) string {
	return ObjectKey(recordingID, roomID, InitSegmentName)
}

// ChunkKey returns the key of the numbered media segment
func ChunkKey(recordingID, roomID string, chunkID int) string {
	return ObjectKey(recordingID, roomID, fmt.Sprintf("%d%s", chunkID, chunkSuffix))
}

// OutputMP4Key returns the key of the remuxed recording produced by the
// extraction worker.
func OutputMP4Key(recordingID, roomID string) string {
	return ObjectKey(recordingID, roomID, OutputMP4Name)
}

// OutputM4AKey returns the key of the extracted audio track
func OutputM4AKey(recordingID, roomID string) string {
	return ObjectKey(recordingID, roomID, OutputM4AName)
}

// SubtitleKey returns the key of the transcription output
func SubtitleKey(recordingID, roomID string) string {
	return ObjectKey(recordingID, roomID, SubtitleName)
}

// ParseChunkID extracts the numeric chunk id from an object file name.
// Returns false for the init segment, non-fmp4 objects and non-numeric names.
func ParseChunkID(name string) (int, bool) {
	if name == InitSegmentName {
		return 0, false
	}
	base, ok := strings.CutSuffix(name, chunkSuffix)
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(base)
	if err != nil || id < 0 {
		return 0, false
	}
	// Reject forms like "+3" or "007" that Atoi would not, and keep the
	// mapping to ChunkKey bijective.
	if strconv.Itoa(id) != base {
		return 0, false
	}
	return id, true
}
