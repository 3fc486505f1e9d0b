package services

import (
	"strings"
	"testing"

	domainServices "maycast/server/modules/postproduction/domain/services"

	"github.com/stretchr/testify/assert"
)

func TestFormatVTTTimestamp(t *testing.T) {
	assert.Equal(t, "00:00:00.000", FormatVTTTimestamp(0))
	assert.Equal(t, "00:00:01.500", FormatVTTTimestamp(1.5))
	assert.Equal(t, "00:01:02.345", FormatVTTTimestamp(62.345))
	assert.Equal(t, "01:00:00.000", FormatVTTTimestamp(3600))
	assert.Equal(t, "02:15:30.050", FormatVTTTimestamp(2*3600+15*60+30.05))
	assert.Equal(t, "00:00:00.000", FormatVTTTimestamp(-3))
}

func TestFormatWebVTT(t *testing.T) {
	segments := []domainServices.TranscriptSegment{
		{StartSec: 0, EndSec: 2.5, Text: "Hello there."},
		{StartSec: 2.5, EndSec: 5, Text: "How are you?"},
	}

	got := FormatWebVTT(segments)
	want := "WEBVTT\n\n" +
		"1\n00:00:00.000 --> 00:00:02.500\nHello there.\n\n" +
		"2\n00:00:02.500 --> 00:00:05.000\nHow are you?\n\n"
	assert.Equal(t, want, got)
}

func TestFormatWebVTT_Empty(t *testing.T) {
	assert.Equal(t, "WEBVTT\n\n", FormatWebVTT(nil))
}

func TestMergeWebVTT(t *testing.T) {
	tracks := []SpeakerTrack{
		{
			Speaker: "Alice",
			Segments: []domainServices.TranscriptSegment{
				{StartSec: 0, EndSec: 2, Text: "Hi Bob."},
				{StartSec: 4, EndSec: 6, Text: "Doing well."},
			},
		},
		{
			Speaker: "Bob",
			Segments: []domainServices.TranscriptSegment{
				{StartSec: 2, EndSec: 4, Text: "Hi Alice, how are you?"},
			},
		},
	}

	got := MergeWebVTT(tracks)
	want := "WEBVTT\n\n" +
		"1\n00:00:00.000 --> 00:00:02.000\n<v Alice>Hi Bob.\n\n" +
		"2\n00:00:02.000 --> 00:00:04.000\n<v Bob>Hi Alice, how are you?\n\n" +
		"3\n00:00:04.000 --> 00:00:06.000\n<v Alice>Doing well.\n\n"
	assert.Equal(t, want, got)
}

func TestMergeWebVTT_TiesSortByEndTime(t *testing.T) {
	tracks := []SpeakerTrack{
		{Speaker: "A", Segments: []domainServices.TranscriptSegment{{StartSec: 1, EndSec: 5, Text: "long"}}},
		{Speaker: "B", Segments: []domainServices.TranscriptSegment{{StartSec: 1, EndSec: 2, Text: "short"}}},
	}

	got := MergeWebVTT(tracks)
	assert.Less(t, strings.Index(got, "<v B>short"), strings.Index(got, "<v A>long"))
}
