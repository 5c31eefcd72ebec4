package port

import (
	"io"

	"morphsplit/internal/domain"
)

// Codec is the decode/encode pair for one textual sentence format.
type Codec interface {
	// Name returns the format name used on the command line.
	Name() string

	NewDecoder(r io.Reader) SentenceDecoder

	NewEncoder(w io.Writer) SentenceEncoder
}

// SentenceDecoder yields sentences lazily from a stream.
type SentenceDecoder interface {
	// Decode returns the next sentence, or io.EOF once the stream is exhausted.
	Decode() (domain.Sentence, error)
}

// SentenceEncoder writes one sentence at a time.
type SentenceEncoder interface {
	// Encode writes and flushes the sentence.
	Encode(s domain.Sentence) error
}
