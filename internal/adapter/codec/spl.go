package codec

import (
	"io"
	"strings"

	"morphsplit/internal/domain"
	"morphsplit/internal/port"
)

// splCodec reads and writes one plain sentence per line.
type splCodec struct{}

func (splCodec) Name() string { return FormatSPL }

func (splCodec) NewDecoder(r io.Reader) port.SentenceDecoder {
	return &splDecoder{lines: newLineReader(r, FormatSPL)}
}

func (splCodec) NewEncoder(w io.Writer) port.SentenceEncoder {
	return &splEncoder{out: newLineWriter(w)}
}

type splDecoder struct {
	lines *lineReader
}

func (d *splDecoder) Decode() (domain.Sentence, error) {
	line, err := d.lines.next()
	if err != nil {
		return domain.Sentence{}, err
	}
	return domain.NewSentence(strings.Fields(line)...), nil
}

type splEncoder struct {
	out *lineWriter
}

// Encode drops segmentation and writes the surface tokens.
func (e *splEncoder) Encode(s domain.Sentence) error {
	return e.out.writeRecord(strings.Join(s.Tokens(), " "))
}
