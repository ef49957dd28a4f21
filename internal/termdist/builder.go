package termdist

import (
	"context"
	"errors"
	"io"

	"github.com/hyperjump/domainsel/internal/corpus"
	"github.com/hyperjump/domainsel/internal/tokenizer"
	"github.com/hyperjump/domainsel/internal/vocab"
	"github.com/hyperjump/domainsel/pkg/utils"
)

// Level selects between one aggregate representation and one per document.
type Level int

const (
	// LevelCorpus treats the whole input as a single concatenated document.
	LevelCorpus Level = iota
	// LevelDoc produces one representation per input document.
	LevelDoc
)

// Representation turns raw term counts into a vector over the vocabulary.
type Representation interface {
	// Name is "count" or "tfidf"; it participates in cache keys.
	Name() string
	// FromCounts maps a histogram of token ids to a vector. It must not retain counts.
	FromCounts(counts []float64) []float64
}

// Counts is the plain normalized term-frequency representation.
type Counts struct{}

// Name implements Representation.
func (Counts) Name() string { return "count" }

// FromCounts L1-normalizes counts. An all-zero histogram stays all-zero.
func (Counts) FromCounts(counts []float64) []float64 {
	out := make([]float64, len(counts))
	copy(out, counts)
	utils.NormalizeL1(out)
	return out
}

// Builder converts document streams into representations.
type Builder struct {
	Vocab         *vocab.Vocabulary
	Tokenizer     tokenizer.Tokenizer
	TokenizeChunk int
}

// NewBuilder returns a Builder. tokenizeChunk <= 0 selects DefaultTokenizeChunk.
func NewBuilder(v *vocab.Vocabulary, tok tokenizer.Tokenizer, tokenizeChunk int) *Builder {
	return &Builder{Vocab: v, Tokenizer: tok, TokenizeChunk: tokenizeChunk}
}

// Tokens opens src and returns its token stream.
func (b *Builder) Tokens(src *corpus.Source) (*TokenStream, error) {
	r, err := src.Open()
	if err != nil {
		return nil, err
	}
	return newTokenStream(r, b.Tokenizer, b.TokenizeChunk), nil
}

// Histogram counts ids into a vocabulary-sized vector.
func (b *Builder) Histogram(ids []int) []float64 {
	counts := make([]float64, b.Vocab.Size())
	addCounts(counts, ids)
	return counts
}

func addCounts(counts []float64, ids []int) {
	for _, id := range ids {
		if id >= 0 && id < len(counts) {
			counts[id]++
		}
	}
}

// Text returns the representation of a single text.
func (b *Builder) Text(text string, rep Representation) []float64 {
	return rep.FromCounts(b.Histogram(b.Tokenizer.Tokenize(text)))
}

// Corpus returns the aggregate representation of every document in src,
// built from pooled counts rather than by summing per-document vectors.
func (b *Builder) Corpus(ctx context.Context, src *corpus.Source, rep Representation) ([]float64, error) {
	ts, err := b.Tokens(src)
	if err != nil {
		return nil, err
	}
	defer ts.Close()

	counts := make([]float64, b.Vocab.Size())
	for {
		chunk, err := ts.NextChunk(ctx, b.chunk())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		for _, ids := range chunk {
			addCounts(counts, ids)
		}
	}
	return rep.FromCounts(counts), nil
}

// Docs returns a lazy stream of per-document representations of src.
func (b *Builder) Docs(src *corpus.Source, rep Representation) (*VectorStream, error) {
	ts, err := b.Tokens(src)
	if err != nil {
		return nil, err
	}
	return &VectorStream{tokens: ts, rep: rep, b: b}, nil
}

// Build dispatches on level: LevelCorpus yields a one-element stream holding
// the aggregate, LevelDoc the per-document stream.
func (b *Builder) Build(ctx context.Context, src *corpus.Source, rep Representation, level Level) (*VectorStream, error) {
	if level == LevelDoc {
		return b.Docs(src, rep)
	}
	agg, err := b.Corpus(ctx, src, rep)
	if err != nil {
		return nil, err
	}
	return &VectorStream{fixed: [][]float64{agg}}, nil
}

func (b *Builder) chunk() int {
	if b.TokenizeChunk <= 0 {
		return DefaultTokenizeChunk
	}
	return b.TokenizeChunk
}

// VectorStream yields one vector per document in input order.
type VectorStream struct {
	tokens *TokenStream
	rep    Representation
	b      *Builder
	fixed  [][]float64
}

// NextChunk returns up to size vectors, or io.EOF once exhausted. Peak memory
// is bounded by size vocabulary-sized vectors.
func (s *VectorStream) NextChunk(ctx context.Context, size int) ([][]float64, error) {
	if s.tokens == nil {
		if len(s.fixed) == 0 {
			return nil, io.EOF
		}
		out := s.fixed
		s.fixed = nil
		return out, nil
	}
	chunk, err := s.tokens.NextChunk(ctx, size)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(chunk))
	for i, ids := range chunk {
		out[i] = s.rep.FromCounts(s.b.Histogram(ids))
	}
	return out, nil
}

// Close releases the underlying source.
func (s *VectorStream) Close() error {
	if s.tokens == nil {
		return nil
	}
	return s.tokens.Close()
}
