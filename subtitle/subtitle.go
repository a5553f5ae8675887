// Package subtitle renders transcript segments as SubRip and WebVTT text.
// Output is deterministic for a given input.
package subtitle

import (
	"fmt"
	"math"
	"strings"

	"clipapi/model"
)

const (
	FormatSRT = "srt"
	FormatVTT = "vtt"
)

// Timestamp formats seconds as HH:MM:SS<sep>mmm, rounding to the millisecond.
// Negative input is clamped to zero.
func Timestamp(seconds float64, sep string) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	ms := int64(math.Round(seconds * 1000))
	h := ms / 3_600_000
	ms %= 3_600_000
	m := ms / 60_000
	ms %= 60_000
	s := ms / 1000
	ms %= 1000
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", h, m, s, sep, ms)
}

// cueText drops blank lines, which would end a cue early in both formats.
func cueText(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// SRT renders numbered cue blocks separated by blank lines.
func SRT(segments []model.Segment) string {
	var b strings.Builder
	for i, seg := range segments {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			i+1,
			Timestamp(seg.Start, ","),
			Timestamp(seg.End, ","),
			cueText(seg.Text),
		)
	}
	return b.String()
}

// VTT renders a WEBVTT document without cue identifiers.
func VTT(segments []model.Segment) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, seg := range segments {
		fmt.Fprintf(&b, "%s --> %s\n%s\n\n",
			Timestamp(seg.Start, "."),
			Timestamp(seg.End, "."),
			cueText(seg.Text),
		)
	}
	return b.String()
}

// Render dispatches on format name.
func Render(format string, segments []model.Segment) (string, error) {
	switch format {
	case FormatSRT:
		return SRT(segments), nil
	case FormatVTT:
		return VTT(segments), nil
	default:
		return "", fmt.Errorf("unsupported subtitle format %q", format)
	}
}
