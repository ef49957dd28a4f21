package config

import (
	"github.com/hyperjump/domainsel/internal/corpus"
	"github.com/hyperjump/domainsel/internal/metrics"
	"github.com/hyperjump/domainsel/internal/selection"
	"github.com/hyperjump/domainsel/internal/termdist"
	"github.com/hyperjump/domainsel/internal/vocab"
)

// Default values used by ApplyDefaults.
const (
	DefaultVocabFile     = "bert-base-uncased-vocab.txt"
	DefaultCompChunkSize = 128
	DefaultProgressEvery = 10000
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Corpus.Format == "" {
		cfg.Corpus.Format = string(corpus.FormatText)
	}
	if len(cfg.Corpus.TextFields) == 0 {
		cfg.Corpus.TextFields = []string{"text"}
	}
	if cfg.Tokenizer.VocabFile == "" {
		cfg.Tokenizer.VocabFile = DefaultVocabFile
	}
	if cfg.Tokenizer.Kind == "" {
		cfg.Tokenizer.Kind = TokenizerWordPiece
	}
	if cfg.Tokenizer.Lowercase == nil {
		t := true
		cfg.Tokenizer.Lowercase = &t
	}
	if cfg.Tokenizer.SpecialTokens == nil {
		cfg.Tokenizer.SpecialTokens = append([]string(nil), vocab.DefaultSpecialTokens...)
	}
	if cfg.Tokenizer.TknChunkSize == 0 {
		cfg.Tokenizer.TknChunkSize = termdist.DefaultTokenizeChunk
	}
	if cfg.Tokenizer.CompChunkSize == 0 {
		cfg.Tokenizer.CompChunkSize = DefaultCompChunkSize
	}
	if cfg.Selection.SimFunc == "" {
		cfg.Selection.SimFunc = string(metrics.JensenShannon)
	}
	if cfg.Selection.DivFunc == "" {
		cfg.Selection.DivFunc = string(metrics.Entropy)
	}
	if cfg.Selection.FuseBy == "" {
		cfg.Selection.FuseBy = string(selection.LinearCombination)
	}
	if cfg.Selection.Weights == nil {
		cfg.Selection.Weights = []float64{selection.DefaultWeights.Sim, selection.DefaultWeights.Div}
	}
	if cfg.Selection.ProgressEvery == 0 {
		cfg.Selection.ProgressEvery = DefaultProgressEvery
	}
}
