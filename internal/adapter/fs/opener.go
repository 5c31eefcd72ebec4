// Package fs opens lexical resource files, transparently decompressing them.
package fs

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/schollz/progressbar/v3"
	"github.com/ulikunitz/xz"
)

type compression int

const (
	compressionNone compression = iota
	compressionXZ
	compressionGzip
)

// compressionPatterns are matched against the base name of a resource path.
var compressionPatterns = []struct {
	pattern string
	kind    compression
}{
	{"*.{xz,lzma}", compressionXZ},
	{"*.{gz,gzip}", compressionGzip},
}

func detectCompression(path string) compression {
	base := filepath.Base(path)
	for _, p := range compressionPatterns {
		matched, err := doublestar.Match(p.pattern, base)
		if err == nil && matched {
			return p.kind
		}
	}
	return compressionNone
}

// Opener opens resource files. When progress output is set, the bytes read
// from disk are reported on a progress bar.
type Opener struct {
	progress io.Writer
}

// NewOpener creates an Opener. A nil progress writer disables progress bars.
func NewOpener(progress io.Writer) *Opener {
	return &Opener{progress: progress}
}

// Resource is an open, decompressed resource stream.
type Resource struct {
	io.Reader
	Path string
	Size int64

	file         *os.File
	decompressor io.Closer
	bar          *progressbar.ProgressBar
}

// Open opens path and wraps it in the decompressor its name calls for.
func (o *Opener) Open(path string) (*Resource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%s is a directory", path)
	}

	res := &Resource{Path: path, Size: info.Size(), file: f}

	var raw io.Reader = f
	if o != nil && o.progress != nil {
		res.bar = progressbar.NewOptions64(info.Size(),
			progressbar.OptionSetWriter(o.progress),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("loading "+filepath.Base(path)),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(o.progress)
			}),
		)
		raw = io.TeeReader(f, res.bar)
	}

	switch detectCompression(path) {
	case compressionXZ:
		xzr, err := xz.NewReader(raw)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		res.Reader = xzr
	case compressionGzip:
		gzr, err := gzip.NewReader(raw)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		res.Reader = gzr
		res.decompressor = gzr
	default:
		res.Reader = raw
	}

	return res, nil
}

// Close closes the resource and any decompressor.
func (r *Resource) Close() error {
	if r.bar != nil {
		r.bar.Finish()
	}
	var first error
	if r.decompressor != nil {
		first = r.decompressor.Close()
	}
	if err := r.file.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
