package services

import (
	"fmt"
	"sort"
	"strings"

	domainServices "maycast/server/modules/postproduction/domain/services"
)

// FormatWebVTT renders segments as a WebVTT document: header, then one cue
// per segment with a 1-based ordinal, a timing line and the text.
func FormatWebVTT(segments []domainServices.TranscriptSegment) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for i, seg := range segments {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", FormatVTTTimestamp(seg.StartSec), FormatVTTTimestamp(seg.EndSec))
		b.WriteString(seg.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// SpeakerTrack is one guest's transcript with its speaker label
type SpeakerTrack struct {
	Speaker  string
	Segments []domainServices.TranscriptSegment
}

// MergeWebVTT combines per-guest transcripts into one document. Each cue's
// text is wrapped in a <v Speaker> voice tag; cues sort by start time, then
// end time.
func MergeWebVTT(tracks []SpeakerTrack) string {
	type cue struct {
		start, end float64
		text       string
	}
	var cues []cue
	for _, track := range tracks {
		for _, seg := range track.Segments {
			cues = append(cues, cue{
				start: seg.StartSec,
				end:   seg.EndSec,
				text:  fmt.Sprintf("<v %s>%s", track.Speaker, seg.Text),
			})
		}
	}
	sort.SliceStable(cues, func(i, j int) bool {
		if cues[i].start != cues[j].start {
			return cues[i].start < cues[j].start
		}
		return cues[i].end < cues[j].end
	})

	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for i, c := range cues {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", FormatVTTTimestamp(c.start), FormatVTTTimestamp(c.end))
		b.WriteString(c.text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// FormatVTTTimestamp renders seconds as HH:MM:SS.mmm
func FormatVTTTimestamp(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	totalMs := int64(sec*1000 + 0.5)
	hours := totalMs / 3600000
	minutes := (totalMs % 3600000) / 60000
	seconds := (totalMs % 60000) / 1000
	millis := totalMs % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}
