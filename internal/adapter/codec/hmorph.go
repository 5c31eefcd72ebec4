package codec

import (
	"fmt"
	"io"
	"strings"

	"morphsplit/internal/domain"
	"morphsplit/internal/port"
)

// Morph position tags of the hmorph format.
const (
	tagSingle = "S"
	tagBegin  = "B"
	tagInner  = "M"
	tagEnd    = "E"
)

// hmorphCodec writes one "morph<TAB>tag" line per morph; a blank line ends
// the sentence.
type hmorphCodec struct{}

func (hmorphCodec) Name() string { return FormatHMorph }

func (hmorphCodec) NewDecoder(r io.Reader) port.SentenceDecoder {
	return &hmorphDecoder{lines: newLineReader(r, FormatHMorph)}
}

func (hmorphCodec) NewEncoder(w io.Writer) port.SentenceEncoder {
	return &hmorphEncoder{out: newLineWriter(w)}
}

type hmorphDecoder struct {
	lines *lineReader
}

func (d *hmorphDecoder) Decode() (domain.Sentence, error) {
	var s domain.Sentence
	var open []string
	started := false

	for {
		line, err := d.lines.next()
		if err == io.EOF {
			if open != nil {
				return domain.Sentence{}, d.errorf("input ends inside a word")
			}
			if !started {
				return domain.Sentence{}, io.EOF
			}
			return s, nil
		}
		if err != nil {
			return domain.Sentence{}, err
		}

		if line == "" {
			if open != nil {
				return domain.Sentence{}, d.errorf("sentence ends inside a word")
			}
			return s, nil
		}
		started = true

		morph, tag, ok := strings.Cut(line, "\t")
		if !ok || morph == "" {
			return domain.Sentence{}, d.errorf(fmt.Sprintf("expected morph<TAB>tag, got %q", line))
		}

		switch strings.TrimSpace(tag) {
		case tagSingle:
			if open != nil {
				return domain.Sentence{}, d.errorf("single-morph tag inside a word")
			}
			s.Words = append(s.Words, domain.NewWord(morph))
		case tagBegin:
			if open != nil {
				return domain.Sentence{}, d.errorf("word begins inside a word")
			}
			open = []string{morph}
		case tagInner:
			if open == nil {
				return domain.Sentence{}, d.errorf("inner morph outside a word")
			}
			open = append(open, morph)
		case tagEnd:
			if open == nil {
				return domain.Sentence{}, d.errorf("final morph outside a word")
			}
			s.Words = append(s.Words, domain.Word{Morphs: append(open, morph)})
			open = nil
		default:
			return domain.Sentence{}, d.errorf(fmt.Sprintf("unknown tag %q", tag))
		}
	}
}

func (d *hmorphDecoder) errorf(msg string) error {
	return &domain.DecodeError{Format: FormatHMorph, Line: d.lines.line, Message: msg}
}

type hmorphEncoder struct {
	out *lineWriter
}

func (e *hmorphEncoder) Encode(s domain.Sentence) error {
	var lines []string
	for _, w := range s.Words {
		if len(w.Morphs) == 1 {
			lines = append(lines, w.Morphs[0]+"\t"+tagSingle)
			continue
		}
		for i, m := range w.Morphs {
			tag := tagInner
			switch i {
			case 0:
				tag = tagBegin
			case len(w.Morphs) - 1:
				tag = tagEnd
			}
			lines = append(lines, m+"\t"+tag)
		}
	}
	lines = append(lines, "")
	return e.out.writeRecord(lines...)
}
