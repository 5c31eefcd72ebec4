package domain

import (
	"slices"
	"strings"
	"time"
)

// Word is one token of a sentence, split into morphs. The token text is the
// concatenation of its morphs.
type Word struct {
	Morphs []string
}

// NewWord returns an unsegmented word.
func NewWord(text string) Word {
	return Word{Morphs: []string{text}}
}

// Text returns the surface form of the word.
func (w Word) Text() string {
	return strings.Join(w.Morphs, "")
}

// Sentence is the format-independent representation passed between codecs
// and the segmentation model.
type Sentence struct {
	Words []Word
}

// NewSentence builds a sentence of unsegmented words.
func NewSentence(tokens ...string) Sentence {
	words := make([]Word, len(tokens))
	for i, t := range tokens {
		words[i] = NewWord(t)
	}
	return Sentence{Words: words}
}

// Tokens returns the surface text of every word.
func (s Sentence) Tokens() []string {
	tokens := make([]string, len(s.Words))
	for i, w := range s.Words {
		tokens[i] = w.Text()
	}
	return tokens
}

// Equal reports whether both sentences have the same words split into the
// same morphs. A nil and an empty word list are equal.
func (s Sentence) Equal(o Sentence) bool {
	if len(s.Words) != len(o.Words) {
		return false
	}
	for i := range s.Words {
		if !slices.Equal(s.Words[i].Morphs, o.Words[i].Morphs) {
			return false
		}
	}
	return true
}

// ResourceRefs locates the lexical resources a model is built from.
// Base is mandatory; Enrichment and Analyzer are optional and independent.
type ResourceRefs struct {
	Base       string
	Enrichment string
	Analyzer   string
}

// Snapshot is the serializable core of a segmentation model. Boundaries are
// rune offsets into the key, strictly increasing and inside (0, len).
type Snapshot struct {
	SchemaVersion int
	AnalyzerPath  string
	Fingerprint   string
	BuiltAt       time.Time
	Lemmas        map[string][]int
	Forms         map[string][]int
}

// SnapshotMeta is the part of a snapshot readable without loading the tables.
type SnapshotMeta struct {
	SchemaVersion int
	AnalyzerPath  string
	Fingerprint   string
	BuiltAt       time.Time
}
