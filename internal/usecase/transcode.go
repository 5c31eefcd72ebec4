package usecase

import (
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"morphsplit/internal/port"
)

// Transcoder drives the decode, segment, encode loop one sentence at a time.
type Transcoder struct {
	log *zap.Logger
}

// NewTranscoder creates a transcoder.
func NewTranscoder(log *zap.Logger) *Transcoder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Transcoder{log: log}
}

// TranscodeResult contains the results of a transcoding run.
type TranscodeResult struct {
	Sentences int
	Words     int
	Elapsed   time.Duration
}

// ProgressFunc is called after each sentence with the running count.
type ProgressFunc func(sentences int)

// Run reads sentences from dec until io.EOF, segments each exactly once and
// writes it to enc before reading the next. The first error aborts the run;
// sentences already written stay written.
func (t *Transcoder) Run(dec port.SentenceDecoder, enc port.SentenceEncoder, model port.Segmenter, progress ProgressFunc) (*TranscodeResult, error) {
	start := time.Now()
	result := &TranscodeResult{}

	for {
		in, err := dec.Decode()
		if err == io.EOF {
			break
		}
		n := result.Sentences + 1
		if err != nil {
			return result, fmt.Errorf("sentence %d: %w", n, err)
		}

		out, err := model.Segment(in)
		if err != nil {
			return result, fmt.Errorf("sentence %d: %w", n, err)
		}

		if err := enc.Encode(out); err != nil {
			return result, fmt.Errorf("failed to write sentence %d: %w", n, err)
		}

		result.Sentences = n
		result.Words += len(out.Words)
		if progress != nil {
			progress(n)
		}
	}

	result.Elapsed = time.Since(start)
	t.log.Debug("transcoding complete",
		zap.Int("sentences", result.Sentences),
		zap.Int("words", result.Words),
		zap.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}
