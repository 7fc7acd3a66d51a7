// internal/parse/parse.go
package parse

import (
	"strconv"
	"strings"
)

// Segment is one "<grams> g <food name>" unit extracted from free text.
type Segment struct {
	Grams float64
	Name  string
}

// Mass unit tokens that mark the start of a segment. Only gram forms are
// recognized; count-based quantities ("2 apples") are not supported.
var gramUnits = map[string]bool{
	"g":     true,
	"gram":  true,
	"grams": true,
}

// Segments scans free text for "<quantity> <gram unit> <food name...>"
// patterns and returns them in order of appearance. Commas are treated as
// whitespace and matching is case-insensitive. A food name runs until the
// next numeric token or end of input; segments with an empty name are
// dropped. Tokens outside any segment are skipped.
func Segments(text string) []Segment {
	words := strings.Fields(strings.ReplaceAll(strings.ToLower(text), ",", " "))

	var segments []Segment
	i := 0
	for i < len(words) {
		grams, ok := parseQuantity(words[i])
		if !ok || i+1 >= len(words) || !gramUnits[words[i+1]] {
			i++
			continue
		}

		var name []string
		j := i + 2
		for j < len(words) {
			if _, numeric := parseQuantity(words[j]); numeric {
				break
			}
			name = append(name, words[j])
			j++
		}

		product := strings.TrimSpace(strings.Join(name, " "))
		if product != "" {
			segments = append(segments, Segment{Grams: grams, Name: product})
		}
		i = j
	}
	return segments
}

// parseQuantity reports whether tok is a plain decimal number.
func parseQuantity(tok string) (float64, bool) {
	if tok == "" {
		return 0, false
	}
	for _, r := range tok {
		if (r < '0' || r > '9') && r != '.' {
			return 0, false
		}
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
