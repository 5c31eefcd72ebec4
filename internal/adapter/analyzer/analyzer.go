// Package analyzer provides the morphological analyzer used to lemmatize
// inflected forms that are missing from the lexicon.
package analyzer

import (
	"bufio"
	"fmt"
	"strings"

	"morphsplit/internal/adapter/fs"
)

// Analyzer maps inflected forms to lemmas. It is loaded from a TSV resource
// of "form<TAB>lemma[<TAB>tag]" lines and is never serialized.
type Analyzer struct {
	path   string
	lemmas map[string]string
}

// Load reads the analyzer resource at path.
func Load(opener *fs.Opener, path string) (*Analyzer, error) {
	res, err := opener.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open analyzer: %w", err)
	}
	defer res.Close()

	a := &Analyzer{path: path, lemmas: make(map[string]string)}

	scanner := bufio.NewScanner(res)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("%s:%d: expected form<TAB>lemma", path, lineNo)
		}
		// First analysis wins for ambiguous forms.
		if _, seen := a.lemmas[parts[0]]; !seen {
			a.lemmas[parts[0]] = parts[1]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read analyzer: %w", err)
	}

	return a, nil
}

// Lemmatize returns the lemma of form.
func (a *Analyzer) Lemmatize(form string) (string, bool) {
	if a == nil {
		return "", false
	}
	lemma, ok := a.lemmas[form]
	return lemma, ok
}

// Path returns the resource the analyzer was loaded from.
func (a *Analyzer) Path() string {
	return a.path
}

// Len returns the number of known forms.
func (a *Analyzer) Len() int {
	return len(a.lemmas)
}
