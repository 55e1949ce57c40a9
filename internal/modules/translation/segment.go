package translation

import (
	"regexp"
	"strings"
)

var paragraphBreak = regexp.MustCompile(`\n{2,}`)

// SplitSegments cuts text into translation units. Paragraphs are separated by
// blank lines; text without any blank-line separator is split per line.
// Segments are trimmed and empty ones dropped.
func SplitSegments(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}

	segments := nonEmpty(paragraphBreak.Split(text, -1))
	if len(segments) > 1 {
		return segments
	}
	return nonEmpty(strings.Split(text, "\n"))
}

func nonEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
