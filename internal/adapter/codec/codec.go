// Package codec implements the textual sentence formats read and written by
// morphsplit.
package codec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"morphsplit/internal/domain"
	"morphsplit/internal/port"
)

// Format names.
const (
	FormatSPL    = "spl"
	FormatVBPE   = "vbpe"
	FormatHBPE   = "hbpe"
	FormatHMorph = "hmorph"
)

// Marker joins morphs of one word in the bpe formats.
const Marker = "@@"

const maxLineBytes = 16 << 20

// registry maps format names to codec factories. Dispatch happens once per run.
var registry = map[string]func() port.Codec{
	FormatSPL:    func() port.Codec { return splCodec{} },
	FormatVBPE:   func() port.Codec { return vbpeCodec{} },
	FormatHBPE:   func() port.Codec { return hbpeCodec{} },
	FormatHMorph: func() port.Codec { return hmorphCodec{} },
}

// Names returns the supported format names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the codec registered under name.
func Lookup(name string) (port.Codec, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, &domain.ConfigError{
			Field:   "format",
			Message: fmt.Sprintf("unsupported format %q (available: %s)", name, strings.Join(Names(), ", ")),
		}
	}
	return factory(), nil
}

// lineReader reads newline-terminated records and tracks the line number.
type lineReader struct {
	scanner *bufio.Scanner
	format  string
	line    int
}

func newLineReader(r io.Reader, format string) *lineReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &lineReader{scanner: scanner, format: format}
}

// next returns the next line without its terminator, or io.EOF.
func (l *lineReader) next() (string, error) {
	if !l.scanner.Scan() {
		err := l.scanner.Err()
		if errors.Is(err, bufio.ErrTooLong) {
			return "", &domain.DecodeError{Format: l.format, Line: l.line + 1, Message: "line exceeds 16 MiB"}
		}
		if err != nil {
			return "", fmt.Errorf("read line %d: %w", l.line+1, err)
		}
		return "", io.EOF
	}
	l.line++
	return strings.TrimSuffix(l.scanner.Text(), "\r"), nil
}

// lineWriter buffers one record and flushes it as a unit.
type lineWriter struct {
	w *bufio.Writer
}

func newLineWriter(w io.Writer) *lineWriter {
	return &lineWriter{w: bufio.NewWriter(w)}
}

func (l *lineWriter) writeRecord(lines ...string) error {
	for _, line := range lines {
		if _, err := l.w.WriteString(line); err != nil {
			return err
		}
		if err := l.w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return l.w.Flush()
}
