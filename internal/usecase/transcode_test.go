package usecase

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"morphsplit/internal/adapter/codec"
	"morphsplit/internal/adapter/lexicon"
	"morphsplit/internal/domain"
)

// scriptedDecoder returns sentences in order, then err (io.EOF if nil).
type scriptedDecoder struct {
	sentences []domain.Sentence
	err       error
	reads     int
}

func (d *scriptedDecoder) Decode() (domain.Sentence, error) {
	if d.reads < len(d.sentences) {
		s := d.sentences[d.reads]
		d.reads++
		return s, nil
	}
	d.reads++
	if d.err != nil {
		return domain.Sentence{}, d.err
	}
	return domain.Sentence{}, io.EOF
}

type collectingEncoder struct {
	written []domain.Sentence
	err     error
}

func (e *collectingEncoder) Encode(s domain.Sentence) error {
	if e.err != nil {
		return e.err
	}
	e.written = append(e.written, s)
	return nil
}

// firstRuneSegmenter splits every token after its first rune and fails on "bad".
type firstRuneSegmenter struct {
	calls  int
	tokens []string
}

func (f *firstRuneSegmenter) Segment(s domain.Sentence) (domain.Sentence, error) {
	f.calls++
	out := domain.Sentence{}
	for _, w := range s.Words {
		text := w.Text()
		f.tokens = append(f.tokens, text)
		if text == "bad" {
			return domain.Sentence{}, &domain.SegmentationError{Token: text, Message: "rejected"}
		}
		r := []rune(text)
		if len(r) < 2 {
			out.Words = append(out.Words, domain.NewWord(text))
			continue
		}
		out.Words = append(out.Words, domain.Word{Morphs: []string{string(r[:1]), string(r[1:])}})
	}
	return out, nil
}

func TestTranscoder_PreservesOrder(t *testing.T) {
	dec := &scriptedDecoder{sentences: []domain.Sentence{
		domain.NewSentence("one", "two"),
		domain.NewSentence(),
		domain.NewSentence("three"),
	}}
	enc := &collectingEncoder{}
	seg := &firstRuneSegmenter{}

	var progress []int
	res, err := NewTranscoder(nil).Run(dec, enc, seg, func(n int) { progress = append(progress, n) })
	require.NoError(t, err)

	assert.Equal(t, 3, res.Sentences)
	assert.Equal(t, 3, res.Words)
	assert.Equal(t, 3, seg.calls, "each sentence is segmented exactly once")
	assert.Equal(t, []int{1, 2, 3}, progress)

	require.Len(t, enc.written, 3)
	assert.Equal(t, []string{"o", "ne"}, enc.written[0].Words[0].Morphs)
	assert.Empty(t, enc.written[1].Words)
	assert.Equal(t, []string{"three"}, enc.written[2].Tokens())
}

func TestTranscoder_DecodeErrorAborts(t *testing.T) {
	decodeErr := &domain.DecodeError{Format: "vbpe", Line: 3, Message: "dangling marker"}
	dec := &scriptedDecoder{
		sentences: []domain.Sentence{domain.NewSentence("a"), domain.NewSentence("b")},
		err:       decodeErr,
	}
	enc := &collectingEncoder{}
	seg := &firstRuneSegmenter{}

	res, err := NewTranscoder(nil).Run(dec, enc, seg, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDecode))
	assert.Contains(t, err.Error(), "sentence 3")
	assert.Equal(t, 2, res.Sentences)
	assert.Len(t, enc.written, 2, "sentences before the error stay written")
	assert.Equal(t, 3, dec.reads, "nothing is read after the error")
}

func TestTranscoder_SegmentationErrorAborts(t *testing.T) {
	dec := &scriptedDecoder{sentences: []domain.Sentence{
		domain.NewSentence("fine"),
		domain.NewSentence("bad"),
		domain.NewSentence("never"),
	}}
	enc := &collectingEncoder{}
	seg := &firstRuneSegmenter{}

	_, err := NewTranscoder(nil).Run(dec, enc, seg, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSegmentation))
	assert.Len(t, enc.written, 1)
	assert.Equal(t, 2, dec.reads)
	assert.NotContains(t, seg.tokens, "never")
}

func TestTranscoder_EncodeErrorAborts(t *testing.T) {
	dec := &scriptedDecoder{sentences: []domain.Sentence{domain.NewSentence("a"), domain.NewSentence("b")}}
	enc := &collectingEncoder{err: io.ErrClosedPipe}

	_, err := NewTranscoder(nil).Run(dec, enc, &firstRuneSegmenter{}, nil)
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.Equal(t, 1, dec.reads)
}

func TestTranscoder_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	derinet := filepath.Join(dir, "derinet.tsv")
	require.NoError(t, os.WriteFile(derinet, []byte("1\thousing\thousing\tN\n2\thouse\thouse\tN\t1\n3\tdog\tdog\tN\n"), 0644))

	model, err := lexicon.NewBuilder(nil, nil).Build(domain.ResourceRefs{Base: derinet})
	require.NoError(t, err)

	tests := []struct {
		from, to string
		input    string
		want     string
	}{
		{"spl", "vbpe", "dog house\n", "dog hous@@ e\n"},
		{"spl", "hbpe", "dog house\n", "dog hous @@ e\n"},
		{"spl", "hmorph", "dog house\n", "dog\tS\nhous\tB\ne\tE\n\n"},
		{"vbpe", "spl", "do@@ g house\n", "dog house\n"},
		{"spl", "vbpe", "house\n\ndog\n", "hous@@ e\n\ndog\n"},
	}
	for _, tt := range tests {
		t.Run(tt.from+"_to_"+tt.to, func(t *testing.T) {
			from, err := codec.Lookup(tt.from)
			require.NoError(t, err)
			to, err := codec.Lookup(tt.to)
			require.NoError(t, err)

			var out bytes.Buffer
			_, err = NewTranscoder(nil).Run(
				from.NewDecoder(strings.NewReader(tt.input)),
				to.NewEncoder(&out),
				model,
				nil,
			)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.String())
		})
	}
}
