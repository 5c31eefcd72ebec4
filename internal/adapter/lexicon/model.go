package lexicon

import (
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"morphsplit/internal/adapter/analyzer"
	"morphsplit/internal/adapter/fs"
	"morphsplit/internal/domain"
)

// SchemaVersion identifies the layout of the boundary tables. Increment it
// whenever the meaning of stored boundaries changes.
const SchemaVersion = 1

// Model segments words by looking up boundaries derived from the lexicon.
// The tables are immutable after construction; only the analyzer is bound
// later.
type Model struct {
	lemmas       map[string][]int
	forms        map[string][]int
	analyzerPath string
	fingerprint  string
	builtAt      time.Time

	opener   *fs.Opener
	analyzer *analyzer.Analyzer
}

// BindAnalyzer loads the analyzer resource at path. An empty path detaches
// the analyzer.
func (m *Model) BindAnalyzer(path string) error {
	if path == "" {
		m.analyzer = nil
		return nil
	}
	a, err := analyzer.Load(m.opener, path)
	if err != nil {
		return err
	}
	m.analyzer = a
	return nil
}

// AnalyzerPath returns the analyzer path recorded when the model was built.
func (m *Model) AnalyzerPath() string {
	return m.analyzerPath
}

// Snapshot returns the serializable tables. The maps are shared, not copied.
func (m *Model) Snapshot() domain.Snapshot {
	return domain.Snapshot{
		SchemaVersion: SchemaVersion,
		AnalyzerPath:  m.analyzerPath,
		Fingerprint:   m.fingerprint,
		BuiltAt:       m.builtAt,
		Lemmas:        m.lemmas,
		Forms:         m.forms,
	}
}

// Segment re-segments every word of s. Segmentation already present in the
// input is discarded.
func (m *Model) Segment(s domain.Sentence) (domain.Sentence, error) {
	out := domain.Sentence{Words: make([]domain.Word, len(s.Words))}
	for i, w := range s.Words {
		token := w.Text()
		morphs, err := split(token, m.boundaries(token))
		if err != nil {
			return domain.Sentence{}, err
		}
		out.Words[i] = domain.Word{Morphs: morphs}
	}
	return out, nil
}

// boundaries looks token up as a form, a lemma and finally through the
// analyzer, first as written and then lowercased.
func (m *Model) boundaries(token string) []int {
	key := norm.NFC.String(token)
	n := utf8.RuneCountInString(token)
	if utf8.RuneCountInString(key) != n {
		// Offsets computed on the composed form would not fit the token.
		return nil
	}

	candidates := []string{key}
	if lower := strings.ToLower(key); lower != key && utf8.RuneCountInString(lower) == n {
		candidates = append(candidates, lower)
	}

	for _, c := range candidates {
		if b, ok := m.forms[c]; ok {
			return b
		}
		if b, ok := m.lemmas[c]; ok {
			return b
		}
		if lemma, ok := m.analyzer.Lemmatize(c); ok {
			if b, ok := m.lemmas[lemma]; ok {
				return project(c, lemma, b)
			}
		}
	}
	return nil
}
