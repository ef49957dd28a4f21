package config

import (
	"fmt"
	"os"
	"slices"

	"github.com/hyperjump/domainsel/internal/corpus"
	"github.com/hyperjump/domainsel/internal/metrics"
	"github.com/hyperjump/domainsel/internal/selection"
)

// Selection holds the mode and its parameters. Exactly one of Pct, NDocs and
// Threshold is set for metric modes; random mode takes Pct only.
type Selection struct {
	Mode          string    `yaml:"mode" toml:"mode"`
	Pct           *float64  `yaml:"pct,omitempty" toml:"pct,omitempty"`
	NDocs         *int      `yaml:"n_docs,omitempty" toml:"n_docs,omitempty"`
	Threshold     *float64  `yaml:"threshold,omitempty" toml:"threshold,omitempty"`
	Invert        bool      `yaml:"invert" toml:"invert"`
	Seed          *uint64   `yaml:"seed,omitempty" toml:"seed,omitempty"`
	UseTFIDF      bool      `yaml:"use_tfidf" toml:"use_tfidf"`
	FineTuneText  string    `yaml:"fine_tune_text" toml:"fine_tune_text"`
	SimFunc       string    `yaml:"sim_func" toml:"sim_func"`
	DivFunc       string    `yaml:"div_func" toml:"div_func"`
	FuseBy        string    `yaml:"fuse_by" toml:"fuse_by"`
	Weights       []float64 `yaml:"sim_div_weights" toml:"sim_div_weights"`
	IgnoreCache   bool      `yaml:"ignore_cache" toml:"ignore_cache"`
	ProgressEvery int       `yaml:"progress_every" toml:"progress_every"`
}

// NeedsFineTune reports whether the mode compares against a fine-tune text.
func (s *Selection) NeedsFineTune() bool {
	return s.Mode == ModeSimilar || s.Mode == ModeSimilarDiverse
}

// Policy converts the size parameters into a selection policy. Call Validate first.
func (s *Selection) Policy() selection.Policy {
	switch {
	case s.NDocs != nil:
		return selection.CountPolicy(*s.NDocs, s.Invert)
	case s.Threshold != nil:
		return selection.ThresholdPolicy(*s.Threshold, s.Invert)
	case s.Pct != nil:
		return selection.PercentagePolicy(*s.Pct, s.Invert)
	}
	return selection.Policy{}
}

// FusionWeights returns the fusion weights. Call Validate first.
func (s *Selection) FusionWeights() selection.Weights {
	if len(s.Weights) != 2 {
		return selection.DefaultWeights
	}
	return selection.Weights{Sim: s.Weights[0], Div: s.Weights[1]}
}

// Validate checks the selection parameters without touching the filesystem.
func (s *Selection) Validate() error {
	if !slices.Contains(Modes(), s.Mode) {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, s.Mode)
	}

	set := 0
	for _, present := range []bool{s.Pct != nil, s.NDocs != nil, s.Threshold != nil} {
		if present {
			set++
		}
	}
	if s.Mode == ModeRandom {
		if s.Pct == nil || set != 1 {
			return fmt.Errorf("%w: random mode requires pct and nothing else", ErrInvalidConfig)
		}
	} else if set != 1 {
		return fmt.Errorf("%w: exactly one of pct, n_docs or threshold is required, got %d", ErrInvalidConfig, set)
	}
	if s.Pct != nil && !(*s.Pct > 0 && *s.Pct <= 1) {
		return fmt.Errorf("%w: invalid percentage value of %v", ErrInvalidConfig, *s.Pct)
	}
	if s.NDocs != nil && *s.NDocs < 1 {
		return fmt.Errorf("%w: n_docs must be at least 1, got %d", ErrInvalidConfig, *s.NDocs)
	}
	if s.Mode == ModeRandom {
		return nil
	}

	if s.NeedsFineTune() {
		if s.FineTuneText == "" {
			return fmt.Errorf("%w: %s mode requires fine_tune_text", ErrInvalidConfig, s.Mode)
		}
		if _, err := metrics.ParseSimilarity(s.SimFunc); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	if s.Mode == ModeDiverse || s.Mode == ModeSimilarDiverse {
		if _, err := metrics.ParseDiversity(s.DivFunc); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	if s.Mode == ModeSimilarDiverse {
		if _, err := selection.ParseFuseMode(s.FuseBy); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		if len(s.Weights) != 2 {
			return fmt.Errorf("%w: sim_div_weights needs exactly 2 values, got %d", ErrInvalidConfig, len(s.Weights))
		}
	}
	return nil
}

// Validate checks the whole configuration, including that the corpus and the
// fine-tune text exist and the corpus is non-empty.
func (c *Config) Validate() error {
	if c.Corpus.Path == "" {
		return fmt.Errorf("%w: corpus path is required", ErrInvalidConfig)
	}
	info, err := os.Stat(c.Corpus.Path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrCorpusMissing, c.Corpus.Path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat corpus: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrCorpusEmpty, c.Corpus.Path)
	}
	if c.Output.Dst == "" {
		return fmt.Errorf("%w: dst is required", ErrInvalidConfig)
	}
	switch corpus.Format(c.Corpus.Format) {
	case corpus.FormatText, corpus.FormatJSONL:
	default:
		return fmt.Errorf("%w: unknown corpus format %q", ErrInvalidConfig, c.Corpus.Format)
	}
	if err := c.Selection.Validate(); err != nil {
		return err
	}
	if c.Selection.Mode == ModeRandom {
		return nil
	}
	switch c.Tokenizer.Kind {
	case TokenizerWordPiece, TokenizerWords:
	default:
		return fmt.Errorf("%w: unknown tokenizer kind %q", ErrInvalidConfig, c.Tokenizer.Kind)
	}
	if c.Tokenizer.TknChunkSize < 1 || c.Tokenizer.CompChunkSize < 1 {
		return fmt.Errorf("%w: chunk sizes must be positive", ErrInvalidConfig)
	}
	if c.Selection.NeedsFineTune() {
		if _, err := os.Stat(c.Selection.FineTuneText); err != nil {
			return fmt.Errorf("%w: fine-tune text: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}
