// Package corpus reads line-delimited corpora as lazy, single-pass document
// streams and writes selected subsets back out.
package corpus

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
)

// Format is the per-line document encoding.
type Format string

const (
	// FormatText treats each line as one document.
	FormatText Format = "text"
	// FormatJSONL treats each line as a JSON object whose text fields are joined.
	FormatJSONL Format = "jsonl"
)

// ErrUnsupportedCodec is returned when a compressed output format cannot be written.
var ErrUnsupportedCodec = errors.New("unsupported output codec")

// Options control how lines are turned into document text.
type Options struct {
	Format     Format
	TextFields []string
}

// Source is a reopenable corpus file. Every Open starts a fresh pass from position 0.
type Source struct {
	path string
	opts Options
}

// NewSource returns a Source for path. An empty format means FormatText.
func NewSource(path string, opts Options) *Source {
	if opts.Format == "" {
		opts.Format = FormatText
	}
	if len(opts.TextFields) == 0 {
		opts.TextFields = []string{"text"}
	}
	return &Source{path: path, opts: opts}
}

// Path returns the file path.
func (s *Source) Path() string { return s.path }

// Stem returns the base name without its last extension ("law.txt.gz" -> "law.txt").
func (s *Source) Stem() string { return Stem(s.path) }

// Suffix returns the last extension including the dot.
func (s *Source) Suffix() string { return filepath.Ext(s.path) }

// Open starts a new pass over the source.
func (s *Source) Open() (*Reader, error) {
	rc, err := openDecompressed(s.path)
	if err != nil {
		return nil, err
	}
	return &Reader{rc: rc, br: bufio.NewReaderSize(rc, 1<<16), opts: s.opts}, nil
}

// Stem returns the base name of path without its last extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func openDecompressed(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("open gzip stream %s: %w", path, err)
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil
	case ".bz2":
		return &stackedCloser{Reader: bzip2.NewReader(f), closers: []io.Closer{f}}, nil
	case ".sz", ".snappy":
		return &stackedCloser{Reader: snappy.NewReader(f), closers: []io.Closer{f}}, nil
	default:
		return f, nil
	}
}

type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// nopWriteCloser adapts writers whose Close has nothing to flush.
type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// createCompressed creates path and wraps it in the codec matching its extension.
func createCompressed(path string) (io.WriteCloser, func() error, error) {
	var wrap func(io.Writer) (io.WriteCloser, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		wrap = func(w io.Writer) (io.WriteCloser, error) { return gzip.NewWriter(w), nil }
	case ".sz", ".snappy":
		wrap = func(w io.Writer) (io.WriteCloser, error) { return snappy.NewBufferedWriter(w), nil }
	case ".bz2":
		return nil, nil, fmt.Errorf("%w: bzip2 (%s)", ErrUnsupportedCodec, path)
	default:
		wrap = func(w io.Writer) (io.WriteCloser, error) { return nopWriteCloser{w}, nil }
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	bw := bufio.NewWriterSize(f, 1<<16)
	zw, err := wrap(bw)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	finish := func() error {
		if err := zw.Close(); err != nil {
			_ = f.Close()
			return err
		}
		if err := bw.Flush(); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	}
	return zw, finish, nil
}
