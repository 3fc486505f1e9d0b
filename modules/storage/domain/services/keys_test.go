package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordingPrefix(t *testing.T) {
	assert.Equal(t, "rooms/R1/rec-a/", RecordingPrefix("rec-a", "R1"))
	assert.Equal(t, "rec-a/", RecordingPrefix("rec-a", ""))
}

func TestKeyLayout(t *testing.T) {
	assert.Equal(t, "rooms/R1/rec-a/init.fmp4", InitSegmentKey("rec-a", "R1"))
	assert.Equal(t, "rec-a/init.fmp4", InitSegmentKey("rec-a", ""))
	assert.Equal(t, "rooms/R1/rec-a/7.fmp4", ChunkKey("rec-a", "R1", 7))
	assert.Equal(t, "rec-a/0.fmp4", ChunkKey("rec-a", "", 0))
	assert.Equal(t, "rooms/R1/rec-a/output.mp4", OutputMP4Key("rec-a", "R1"))
	assert.Equal(t, "rooms/R1/rec-a/audio.m4a", OutputM4AKey("rec-a", "R1"))
	assert.Equal(t, "rooms/R1/rec-a/subtitle.vtt", SubtitleKey("rec-a", "R1"))
}

func TestParseChunkID(t *testing.T) {
	cases := []struct {
		name string
		id   int
		ok   bool
	}{
		{"0.fmp4", 0, true},
		{"42.fmp4", 42, true},
		{"1499.fmp4", 1499, true},
		{"init.fmp4", 0, false},
		{"output.mp4", 0, false},
		{"audio.m4a", 0, false},
		{"subtitle.vtt", 0, false},
		{"-1.fmp4", 0, false},
		{"+3.fmp4", 0, false},
		{"007.fmp4", 0, false},
		{"abc.fmp4", 0, false},
		{"3.fmp4.bak", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		id, ok := ParseChunkID(tc.name)
		assert.Equal(t, tc.ok, ok, "name %q", tc.name)
		if tc.ok {
			assert.Equal(t, tc.id, id, "name %q", tc.name)
		}
	}
}

func TestKeyRoundTrip(t *testing.T) {
	// The chunk-id → key → parsed-id mapping must be bijective so listings
	// reconstruct exactly the ids that were saved.
	for _, id := range []int{0, 1, 9, 10, 999, 1500} {
		key := ChunkKey("rec", "", id)
		parsed, ok := ParseChunkID(key[len(RecordingPrefix("rec", "")):])
		assert.True(t, ok)
		assert.Equal(t, id, parsed)
	}
}
