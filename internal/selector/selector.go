// Package selector runs a complete selection: it scores the corpus for the
// configured mode, turns the scores into a mask, and writes the selected
// documents to the destination directory.
package selector

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/domainsel/internal/cache"
	"github.com/hyperjump/domainsel/internal/config"
	"github.com/hyperjump/domainsel/internal/corpus"
	"github.com/hyperjump/domainsel/internal/selection"
	"github.com/hyperjump/domainsel/internal/termdist"
	"github.com/hyperjump/domainsel/internal/tokenizer"
	"github.com/hyperjump/domainsel/internal/vocab"
)

// Selector executes one configured selection run.
type Selector struct {
	cfg    *config.Config
	logger *zap.Logger
	src    *corpus.Source
	store  *cache.Store

	vocab   *vocab.Vocabulary
	builder *termdist.Builder
	model   *termdist.TFIDFModel
}

// Result summarizes a finished run.
type Result struct {
	Mode     string
	Output   string
	Total    int
	Selected int
	Seed     *uint64
	RunID    string
	Elapsed  time.Duration
}

// Option configures a Selector.
type Option func(*Selector)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Selector) { s.logger = l }
}

// WithVocabulary uses v instead of loading the configured vocabulary file.
func WithVocabulary(v *vocab.Vocabulary) Option {
	return func(s *Selector) { s.vocab = v }
}

// New validates cfg and prepares a Selector. Metric modes open the cache
// store under cfg.CacheDir().
func New(cfg *config.Config, opts ...Option) (*Selector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Selector{
		cfg:    cfg,
		logger: zap.NewNop(),
		src: corpus.NewSource(cfg.Corpus.Path, corpus.Options{
			Format:     corpus.Format(cfg.Corpus.Format),
			TextFields: cfg.Corpus.TextFields,
		}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.Selection.Mode == config.ModeRandom {
		return s, nil
	}

	storeOpts := []cache.Option{cache.WithLogger(s.logger)}
	if !cfg.Cache.ManifestOrDefault() {
		storeOpts = append(storeOpts, cache.WithoutManifest())
	}
	store, err := cache.Open(cfg.CacheDir(), storeOpts...)
	if err != nil {
		return nil, err
	}
	s.store = store
	return s, nil
}

// Close releases the cache store.
func (s *Selector) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// Run computes the mask and copies the selected documents to the output file.
func (s *Selector) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	filename := s.cfg.Output.Filename
	if filename == "" {
		filename = DeriveFilename(s.cfg)
	}
	out := filepath.Join(s.cfg.Output.Dst, filename)
	s.logger.Info("selecting",
		zap.String("mode", s.cfg.Selection.Mode),
		zap.String("corpus", s.src.Path()),
		zap.String("output", out))

	res := &Result{Mode: s.cfg.Selection.Mode, Output: out}
	var mask selection.Mask
	var err error
	if s.cfg.Selection.Mode == config.ModeRandom {
		seed := s.seed()
		res.Seed = &seed
		mask, err = s.randomMask(ctx, seed)
	} else {
		mask, err = s.Mask(ctx)
		res.RunID = s.store.RunID()
	}
	if err != nil {
		return nil, err
	}

	written, err := corpus.CopySelected(ctx, s.src, mask, out)
	if err != nil {
		return nil, fmt.Errorf("failed to write selection: %w", err)
	}
	res.Total = len(mask)
	res.Selected = written
	res.Elapsed = time.Since(start)
	s.logger.Info("selection written",
		zap.String("output", out),
		zap.Int("selected", written),
		zap.Int("total", len(mask)),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

// Mask computes the selection mask for a metric mode.
func (s *Selector) Mask(ctx context.Context) (selection.Mask, error) {
	sel := &s.cfg.Selection
	policy := sel.Policy()
	switch sel.Mode {
	case config.ModeRandom:
		return s.randomMask(ctx, s.seed())
	case config.ModeSimilar:
		sims, err := s.Similarities(ctx)
		if err != nil {
			return nil, err
		}
		return selection.Select(sims, policy)
	case config.ModeDiverse:
		divs, err := s.Diversities(ctx)
		if err != nil {
			return nil, err
		}
		return selection.Select(divs, policy)
	case config.ModeSimilarDiverse:
		mode, err := selection.ParseFuseMode(sel.FuseBy)
		if err != nil {
			return nil, err
		}
		sims, err := s.Similarities(ctx)
		if err != nil {
			return nil, err
		}
		divs, err := s.Diversities(ctx)
		if err != nil {
			return nil, err
		}
		return selection.Fuse(sims, divs, policy, sel.FusionWeights(), mode)
	}
	return nil, fmt.Errorf("%w: unknown mode %q", config.ErrInvalidConfig, sel.Mode)
}

// textBuilder lazily loads the vocabulary and tokenizer.
func (s *Selector) textBuilder() (*termdist.Builder, error) {
	if s.builder != nil {
		return s.builder, nil
	}
	if s.vocab == nil {
		v, err := vocab.Load(s.cfg.Tokenizer.VocabFile)
		if err != nil {
			return nil, err
		}
		s.vocab = v
		s.logger.Info("vocabulary loaded", zap.String("vocab", v.Name()), zap.Int("size", v.Size()))
	}
	opts := tokenizer.Options{
		Lowercase:     s.cfg.Tokenizer.LowercaseOrDefault(),
		SpecialTokens: s.cfg.Tokenizer.SpecialTokens,
	}
	var tok tokenizer.Tokenizer
	if s.cfg.Tokenizer.Kind == config.TokenizerWords {
		tok = tokenizer.NewWords(s.vocab, opts)
	} else {
		tok = tokenizer.NewWordPiece(s.vocab, opts)
	}
	s.builder = termdist.NewBuilder(s.vocab, tok, s.cfg.Tokenizer.TknChunkSize)
	return s.builder, nil
}

// vocabID is the vocabulary identity used in cache keys. Tokenization
// settings that change token ids are folded in so their caches never mix.
func (s *Selector) vocabID() string {
	id := s.vocab.Name()
	if s.cfg.Tokenizer.Kind == config.TokenizerWords {
		id += "-words"
	}
	if !s.cfg.Tokenizer.LowercaseOrDefault() {
		id += "-cased"
	}
	return id
}
