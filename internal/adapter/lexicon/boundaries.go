package lexicon

import (
	"sort"

	"morphsplit/internal/domain"
)

// commonPrefix returns the length in runes of the longest common prefix.
func commonPrefix(a, b []rune) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

// project derives the boundaries of word from a related reference word
// (its derivational parent, or its lemma) and the reference's boundaries.
// The shared prefix contributes a cut where the words diverge, plus every
// reference boundary that falls inside it.
func project(word, ref string, refBounds []int) []int {
	w := []rune(word)
	c := commonPrefix(w, []rune(ref))
	if c == 0 {
		return nil
	}

	var bounds []int
	for _, b := range refBounds {
		if b > 0 && b < c {
			bounds = append(bounds, b)
		}
	}
	if c < len(w) {
		bounds = append(bounds, c)
	}
	return normalize(bounds)
}

// normalize sorts and deduplicates boundaries.
func normalize(bounds []int) []int {
	if len(bounds) == 0 {
		return nil
	}
	sort.Ints(bounds)
	out := bounds[:1]
	for _, b := range bounds[1:] {
		if b != out[len(out)-1] {
			out = append(out, b)
		}
	}
	return out
}

// split cuts token at the given rune offsets.
func split(token string, bounds []int) ([]string, error) {
	if len(bounds) == 0 {
		return []string{token}, nil
	}
	runes := []rune(token)
	morphs := make([]string, 0, len(bounds)+1)
	prev := 0
	for _, b := range bounds {
		if b <= prev || b >= len(runes) {
			return nil, &domain.SegmentationError{
				Token:   token,
				Message: "boundaries out of range",
			}
		}
		morphs = append(morphs, string(runes[prev:b]))
		prev = b
	}
	return append(morphs, string(runes[prev:])), nil
}
