package transcript

import (
	"regexp"
	"strconv"
	"strings"
)

// markerRe matches the pause marker wire form: one or more digits, a dot,
// exactly one decimal digit. `[1.4 second pause]`.
var markerRe = regexp.MustCompile(`^\[(\d+\.\d) second pause\]$`)

// inlineMarkerRe finds markers embedded anywhere in free text.
var inlineMarkerRe = regexp.MustCompile(`\[\d+\.\d second pause\]`)

// ParseMarkers re-parses a marker-annotated transcript string back into a
// token sequence. Parsed Pause tokens carry duration only; the
// intra/inter-segment source and word timestamps are not representable in
// the textual form.
func ParseMarkers(text string) []Token {
	var tokens []Token
	fields := strings.Fields(text)
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		// A marker spans three whitespace-separated fields.
		if strings.HasPrefix(f, "[") && i+2 < len(fields) {
			candidate := f + " " + fields[i+1] + " " + fields[i+2]
			if m := markerRe.FindStringSubmatch(candidate); m != nil {
				d, err := strconv.ParseFloat(m[1], 64)
				if err == nil {
					tokens = append(tokens, Token{Pause: &Pause{Duration: d}})
					i += 2
					continue
				}
			}
		}
		tokens = append(tokens, Token{Word: &Word{Text: f}})
	}
	return tokens
}

// StripMarkers removes all pause markers from text and collapses the
// surrounding whitespace. Analyzers that work on plain prose call this
// before tokenizing.
func StripMarkers(text string) string {
	out := inlineMarkerRe.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(out), " ")
}
