package lexicon

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// derivation is one DeriNet entry.
type derivation struct {
	lemma    string
	parentID int // -1 for roots
}

// readDerinet parses "id<TAB>lemma<TAB>techlemma<TAB>pos<TAB>parent_id" lines.
// Only the id, lemma and parent_id columns are used.
func readDerinet(r io.Reader, name string) (map[int]derivation, error) {
	entries := make(map[int]derivation)
	err := eachRecord(r, func(lineNo int, cols []string) error {
		if len(cols) < 2 || cols[1] == "" {
			return fmt.Errorf("%s:%d: expected at least id and lemma columns", name, lineNo)
		}
		id, err := strconv.Atoi(strings.TrimSpace(cols[0]))
		if err != nil {
			return fmt.Errorf("%s:%d: invalid id %q", name, lineNo, cols[0])
		}
		parent := -1
		if len(cols) > 4 && strings.TrimSpace(cols[4]) != "" {
			parent, err = strconv.Atoi(strings.TrimSpace(cols[4]))
			if err != nil {
				return fmt.Errorf("%s:%d: invalid parent id %q", name, lineNo, cols[4])
			}
		}
		entries[id] = derivation{lemma: cols[1], parentID: parent}
		return nil
	})
	return entries, err
}

// inflection is one MorfFlex entry.
type inflection struct {
	lemma string
	form  string
}

// readMorfflex parses "lemma<TAB>tag<TAB>form" lines and calls fn for each.
func readMorfflex(r io.Reader, name string, fn func(inflection)) error {
	return eachRecord(r, func(lineNo int, cols []string) error {
		if len(cols) < 3 || cols[0] == "" || cols[2] == "" {
			return fmt.Errorf("%s:%d: expected lemma, tag and form columns", name, lineNo)
		}
		fn(inflection{lemma: stripTechnical(cols[0]), form: cols[2]})
		return nil
	})
}

// stripTechnical removes technical suffixes from a lemma,
// e.g. "pes_^(zvíře)" -> "pes" and "být-1" -> "být".
func stripTechnical(lemma string) string {
	if i := strings.IndexByte(lemma, '_'); i > 0 {
		lemma = lemma[:i]
	}
	if i := strings.LastIndexByte(lemma, '-'); i > 0 && i < len(lemma)-1 {
		if _, err := strconv.Atoi(lemma[i+1:]); err == nil {
			lemma = lemma[:i]
		}
	}
	return lemma
}

// eachRecord calls fn with the tab-separated columns of every non-blank,
// non-comment line.
func eachRecord(r io.Reader, fn func(lineNo int, cols []string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := fn(lineNo, strings.Split(line, "\t")); err != nil {
			return err
		}
	}
	return scanner.Err()
}
