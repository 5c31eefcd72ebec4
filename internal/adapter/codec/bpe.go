package codec

import (
	"io"
	"strings"

	"morphsplit/internal/domain"
	"morphsplit/internal/port"
)

// vbpeCodec marks boundaries inside tokens: every non-final morph of a word
// carries the marker as a suffix, e.g. "dog hous@@ e".
type vbpeCodec struct{}

func (vbpeCodec) Name() string { return FormatVBPE }

func (vbpeCodec) NewDecoder(r io.Reader) port.SentenceDecoder {
	return &vbpeDecoder{lines: newLineReader(r, FormatVBPE)}
}

func (vbpeCodec) NewEncoder(w io.Writer) port.SentenceEncoder {
	return &bpeEncoder{out: newLineWriter(w), join: Marker + " "}
}

type vbpeDecoder struct {
	lines *lineReader
}

func (d *vbpeDecoder) Decode() (domain.Sentence, error) {
	line, err := d.lines.next()
	if err != nil {
		return domain.Sentence{}, err
	}

	var s domain.Sentence
	var morphs []string
	for _, field := range strings.Fields(line) {
		if field == Marker {
			return domain.Sentence{}, d.errorf("empty morph before boundary marker")
		}
		if piece, ok := strings.CutSuffix(field, Marker); ok {
			morphs = append(morphs, piece)
			continue
		}
		morphs = append(morphs, field)
		s.Words = append(s.Words, domain.Word{Morphs: morphs})
		morphs = nil
	}
	if len(morphs) > 0 {
		return domain.Sentence{}, d.errorf("line ends inside a word")
	}
	return s, nil
}

func (d *vbpeDecoder) errorf(msg string) error {
	return &domain.DecodeError{Format: FormatVBPE, Line: d.lines.line, Message: msg}
}

// hbpeCodec marks boundaries between tokens: a standalone marker joins the
// morphs on either side into one word, e.g. "dog hous @@ e".
type hbpeCodec struct{}

func (hbpeCodec) Name() string { return FormatHBPE }

func (hbpeCodec) NewDecoder(r io.Reader) port.SentenceDecoder {
	return &hbpeDecoder{lines: newLineReader(r, FormatHBPE)}
}

func (hbpeCodec) NewEncoder(w io.Writer) port.SentenceEncoder {
	return &bpeEncoder{out: newLineWriter(w), join: " " + Marker + " "}
}

type hbpeDecoder struct {
	lines *lineReader
}

func (d *hbpeDecoder) Decode() (domain.Sentence, error) {
	line, err := d.lines.next()
	if err != nil {
		return domain.Sentence{}, err
	}

	var s domain.Sentence
	joining := false
	for _, field := range strings.Fields(line) {
		if field == Marker {
			if len(s.Words) == 0 || joining {
				return domain.Sentence{}, d.errorf("boundary marker without a preceding morph")
			}
			joining = true
			continue
		}
		if joining {
			last := &s.Words[len(s.Words)-1]
			last.Morphs = append(last.Morphs, field)
			joining = false
			continue
		}
		s.Words = append(s.Words, domain.NewWord(field))
	}
	if joining {
		return domain.Sentence{}, d.errorf("line ends with a boundary marker")
	}
	return s, nil
}

func (d *hbpeDecoder) errorf(msg string) error {
	return &domain.DecodeError{Format: FormatHBPE, Line: d.lines.line, Message: msg}
}

// bpeEncoder writes one sentence per line, joining morphs of a word with join.
type bpeEncoder struct {
	out  *lineWriter
	join string
}

func (e *bpeEncoder) Encode(s domain.Sentence) error {
	words := make([]string, len(s.Words))
	for i, w := range s.Words {
		words[i] = strings.Join(w.Morphs, e.join)
	}
	return e.out.writeRecord(strings.Join(words, " "))
}
