// Package termdist builds normalized term-frequency and TF-IDF representations
// of documents over a fixed vocabulary.
package termdist

import (
	"context"
	"errors"
	"io"

	"github.com/hyperjump/domainsel/internal/corpus"
	"github.com/hyperjump/domainsel/internal/tokenizer"
)

// DefaultTokenizeChunk is the number of raw documents tokenized per batch.
const DefaultTokenizeChunk = 8192

// TokenStream yields the token ids of each document in corpus order. It is
// single-pass; reopen the source to iterate again.
type TokenStream struct {
	r       *corpus.Reader
	tok     tokenizer.Tokenizer
	tknSize int
	buf     [][]int
	eof     bool
}

func newTokenStream(r *corpus.Reader, tok tokenizer.Tokenizer, tknSize int) *TokenStream {
	if tknSize <= 0 {
		tknSize = DefaultTokenizeChunk
	}
	return &TokenStream{r: r, tok: tok, tknSize: tknSize}
}

// NextChunk returns the token lists of up to size documents, or io.EOF when
// the stream is exhausted.
func (s *TokenStream) NextChunk(ctx context.Context, size int) ([][]int, error) {
	if size <= 0 {
		size = 1
	}
	for len(s.buf) < size && !s.eof {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.fill(); err != nil {
			return nil, err
		}
	}
	if len(s.buf) == 0 {
		return nil, io.EOF
	}
	n := size
	if n > len(s.buf) {
		n = len(s.buf)
	}
	out := s.buf[:n:n]
	s.buf = s.buf[n:]
	return out, nil
}

// fill tokenizes the next batch of raw documents.
func (s *TokenStream) fill() error {
	docs, err := s.r.NextChunk(s.tknSize)
	if errors.Is(err, io.EOF) {
		s.eof = true
		return nil
	}
	if err != nil {
		return err
	}
	for _, d := range docs {
		s.buf = append(s.buf, s.tok.Tokenize(d.Text))
	}
	return nil
}

// Close releases the underlying reader.
func (s *TokenStream) Close() error {
	return s.r.Close()
}
