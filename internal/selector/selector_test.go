package selector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hyperjump/domainsel/internal/cache"
	"github.com/hyperjump/domainsel/internal/config"
	"github.com/hyperjump/domainsel/internal/vocab"
)

var greek = []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta", "iota", "kappa"}

func ptr[T any](v T) *T { return &v }

func testVocab(t *testing.T) *vocab.Vocabulary {
	t.Helper()
	tokens := append(append([]string(nil), vocab.DefaultSpecialTokens...), greek...)
	v, err := vocab.New("greek-vocab", tokens)
	require.NoError(t, err)
	return v
}

func writeLines(t *testing.T, path string, lines ...string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return path
}

type fixture struct {
	dir    string
	corpus string
	ft     string
	dst    string
}

func newFixture(t *testing.T, docs ...string) fixture {
	t.Helper()
	dir := t.TempDir()
	if len(docs) == 0 {
		docs = greek
	}
	return fixture{
		dir:    dir,
		corpus: writeLines(t, filepath.Join(dir, "greek.txt"), docs...),
		ft:     writeLines(t, filepath.Join(dir, "ft.txt"), "gamma gamma gamma", "delta delta", "eta kappa"),
		dst:    filepath.Join(dir, "out"),
	}
}

func (f fixture) config(sel config.Selection) *config.Config {
	cfg := &config.Config{
		Corpus:    config.CorpusConfig{Path: f.corpus},
		Output:    config.OutputConfig{Dst: f.dst},
		Selection: sel,
	}
	if sel.NeedsFineTune() {
		cfg.Selection.FineTuneText = f.ft
	}
	config.ApplyDefaults(cfg)
	return cfg
}

func newSelector(t *testing.T, cfg *config.Config) *Selector {
	t.Helper()
	s, err := New(cfg, WithVocabulary(testVocab(t)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

// Ten single-token documents; the fine-tune text holds gamma x3, delta x2,
// eta x1 and kappa x1. Cosine against a one-hot document is proportional to
// the fine-tune frequency of its token, so the top 30% is gamma, delta and
// the earlier of the tied eta/kappa.
func TestRun_similarEndToEnd(t *testing.T) {
	f := newFixture(t)
	cfg := f.config(config.Selection{Mode: config.ModeSimilar, Pct: ptr(0.3), SimFunc: "cosine"})
	s := newSelector(t, cfg)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, res.Total)
	assert.Equal(t, 3, res.Selected)
	assert.Equal(t, filepath.Join(f.dst, "greek_similar_count_cosine_ft_30pct.txt"), res.Output)
	assert.Equal(t, []string{"gamma", "delta", "eta"}, readLines(t, res.Output))
	assert.NotEmpty(t, res.RunID)
}

func TestRun_similarInvertedThreshold(t *testing.T) {
	f := newFixture(t)
	cfg := f.config(config.Selection{Mode: config.ModeSimilar, Threshold: ptr(0.0), Invert: true, SimFunc: "cosine"})
	s := newSelector(t, cfg)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, res.Selected, "documents absent from the fine-tune text score 0")
	assert.Equal(t, []string{"alpha", "beta", "epsilon", "zeta", "theta", "iota"}, readLines(t, res.Output))
}

func TestSimilarities_cacheIdempotent(t *testing.T) {
	f := newFixture(t)
	cfg := f.config(config.Selection{Mode: config.ModeSimilar, Pct: ptr(0.5)})
	s := newSelector(t, cfg)
	ctx := context.Background()

	first, err := s.Similarities(ctx)
	require.NoError(t, err)
	require.Len(t, first, 10)
	key := cache.SimilarityKey("count", "greek", "greek-vocab", "jensen-shannon", "ft")
	require.True(t, s.store.Exists(key))
	before, err := os.ReadFile(s.store.Path(key))
	require.NoError(t, err)

	second, err := s.Similarities(ctx)
	require.NoError(t, err)
	after, err := os.ReadFile(s.store.Path(key))
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, first, second)

	cfg.Selection.IgnoreCache = true
	third, err := s.Similarities(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestRun_diverseCount(t *testing.T) {
	f := newFixture(t, "alpha", "alpha beta gamma", "beta", "gamma delta epsilon zeta")
	cfg := f.config(config.Selection{Mode: config.ModeDiverse, NDocs: ptr(2), DivFunc: "num_word_types"})
	s := newSelector(t, cfg)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "greek_most_diverse_num_word_types_2docs.txt", filepath.Base(res.Output))
	assert.Equal(t, []string{"alpha beta gamma", "gamma delta epsilon zeta"}, readLines(t, res.Output))
	assert.True(t, s.store.Exists(cache.TermDistKey("greek", "greek-vocab")))
}

func TestRun_diverseTFIDF(t *testing.T) {
	f := newFixture(t, "alpha beta", "alpha alpha", "gamma delta", "beta")
	cfg := f.config(config.Selection{Mode: config.ModeDiverse, Pct: ptr(0.5), UseTFIDF: true})
	s := newSelector(t, cfg)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Selected)
	// Pooled TF-IDF weights alpha > beta > gamma = delta; the two-type
	// documents with the largest entropy mass win.
	assert.Equal(t, []string{"alpha beta", "gamma delta"}, readLines(t, res.Output))
	assert.True(t, s.store.Exists(cache.TFIDFModelKey("greek", "greek-vocab")))
	assert.True(t, s.store.Exists(cache.CorpusTFIDFKey("greek", "greek-vocab")))
	assert.True(t, s.store.Exists(cache.DiversityKey("tfidf", "greek", "greek-vocab", "entropy")))

	entries, err := s.store.Manifest().List(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

// gamma appears in most documents and delta in one, so idf lifts delta above
// gamma in the fine-tune reference even though gamma is more frequent there.
// eta and kappa never occur in the corpus and carry no weight.
var idfDocs = []string{"gamma", "gamma alpha", "gamma beta", "gamma alpha beta", "delta", "alpha"}

func TestRun_similarTFIDF(t *testing.T) {
	f := newFixture(t, idfDocs...)
	cfg := f.config(config.Selection{Mode: config.ModeSimilar, NDocs: ptr(1), SimFunc: "cosine", UseTFIDF: true})
	s := newSelector(t, cfg)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "greek_similar_tfidf_cosine_ft_1docs.txt", filepath.Base(res.Output))
	assert.Equal(t, []string{"delta"}, readLines(t, res.Output))
	assert.True(t, s.store.Exists(cache.TFIDFModelKey("greek", "greek-vocab")))
	assert.True(t, s.store.Exists(cache.SimilarityKey("tfidf", "greek", "greek-vocab", "cosine", "ft")))
	assert.False(t, s.store.Exists(cache.SimilarityKey("count", "greek", "greek-vocab", "cosine", "ft")))

	counts := newFixture(t, idfDocs...)
	cfg = counts.config(config.Selection{Mode: config.ModeSimilar, NDocs: ptr(1), SimFunc: "cosine"})
	res, err = newSelector(t, cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gamma"}, readLines(t, res.Output), "raw counts favor the frequent token")
}

func TestRun_similarDiverseTFIDFFitsOnce(t *testing.T) {
	f := newFixture(t, idfDocs...)
	cfg := f.config(config.Selection{
		Mode:     config.ModeSimilarDiverse,
		NDocs:    ptr(2),
		SimFunc:  "cosine",
		UseTFIDF: true,
	})
	core, logs := observer.New(zapcore.InfoLevel)
	s, err := New(cfg, WithVocabulary(testVocab(t)), WithLogger(zap.New(core)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "greek_most_sim_div_1_cosine_1_entropy_ft_linear_combination_2docs.txt", filepath.Base(res.Output))
	assert.Equal(t, []string{"gamma alpha", "gamma alpha beta"}, readLines(t, res.Output))
	assert.Equal(t, 1, logs.FilterMessage("fitting TF-IDF model").Len())

	entries, err := s.store.Manifest().List(context.Background())
	require.NoError(t, err)
	kinds := make([]cache.Kind, 0, len(entries))
	for _, e := range entries {
		kinds = append(kinds, e.Key.Kind)
	}
	assert.ElementsMatch(t, []cache.Kind{cache.KindTFIDFModel, cache.KindSimilarity, cache.KindCorpusTFIDF, cache.KindDiversity}, kinds)
}

func TestRun_similarDiverseUnion(t *testing.T) {
	f := newFixture(t)
	cfg := f.config(config.Selection{
		Mode:    config.ModeSimilarDiverse,
		Pct:     ptr(0.1),
		SimFunc: "cosine",
		DivFunc: "num_word_types",
		FuseBy:  "union",
	})
	s := newSelector(t, cfg)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	// Every document has one type, so the diversity pick is the first one.
	assert.Equal(t, []string{"alpha", "gamma"}, readLines(t, res.Output))
	assert.Equal(t, "greek_most_sim_div_1_cosine_1_num_word_types_ft_union_10pct.txt", filepath.Base(res.Output))
}

func TestRun_similarDiverseLinear(t *testing.T) {
	f := newFixture(t)
	cfg := f.config(config.Selection{
		Mode:    config.ModeSimilarDiverse,
		NDocs:   ptr(1),
		SimFunc: "cosine",
		DivFunc: "num_word_types",
		Weights: []float64{2, 0.5},
	})
	s := newSelector(t, cfg)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gamma"}, readLines(t, res.Output))
	assert.Equal(t, "greek_most_sim_div_2_cosine_0,5_num_word_types_ft_linear_combination_1docs.txt", filepath.Base(res.Output))
}

func TestRun_random(t *testing.T) {
	f := newFixture(t)
	cfg := f.config(config.Selection{Mode: config.ModeRandom, Pct: ptr(0.4), Seed: ptr(uint64(7))})
	s := newSelector(t, cfg)
	assert.Nil(t, s.store, "random mode needs no cache")

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, res.Selected)
	assert.Equal(t, "greek_random_40pct_seed7.txt", filepath.Base(res.Output))
	require.NotNil(t, res.Seed)
	assert.Equal(t, uint64(7), *res.Seed)

	again, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, readLines(t, res.Output), readLines(t, again.Output))
}

func TestRandomMask(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100} {
		for _, p := range []float64{0.01, 0.3, 0.5, 1} {
			m := RandomMask(n, p, 42)
			assert.Len(t, m, n)
			assert.Equal(t, int(float64(n)*p), m.Count())
			assert.Equal(t, m, RandomMask(n, p, 42))
		}
	}
	assert.NotEqual(t, RandomMask(100, 0.5, 1), RandomMask(100, 0.5, 2))
}

func TestRun_canceled(t *testing.T) {
	f := newFixture(t)
	cfg := f.config(config.Selection{Mode: config.ModeDiverse, Pct: ptr(0.5)})
	s := newSelector(t, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestNew_invalidConfig(t *testing.T) {
	f := newFixture(t)
	cfg := f.config(config.Selection{Mode: config.ModeDiverse})
	_, err := New(cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	cfg = f.config(config.Selection{Mode: config.ModeDiverse, Pct: ptr(0.5)})
	cfg.Corpus.Path = filepath.Join(f.dir, "missing.txt")
	_, err = New(cfg)
	assert.ErrorIs(t, err, config.ErrCorpusMissing)
}

func TestVocabID(t *testing.T) {
	f := newFixture(t)
	cfg := f.config(config.Selection{Mode: config.ModeDiverse, Pct: ptr(0.5)})
	s := newSelector(t, cfg)
	_, err := s.textBuilder()
	require.NoError(t, err)
	assert.Equal(t, "greek-vocab", s.vocabID())

	cfg.Tokenizer.Lowercase = ptr(false)
	cfg.Tokenizer.Kind = config.TokenizerWords
	assert.Equal(t, "greek-vocab-words-cased", s.vocabID())
}

func TestDeriveFilename(t *testing.T) {
	tests := []struct {
		name   string
		corpus string
		sel    config.Selection
		want   string
	}{
		{"random", "/d/law.txt", config.Selection{Mode: config.ModeRandom, Pct: ptr(0.25)}, "law_random_25pct.txt"},
		{"random truncates", "/d/law.txt", config.Selection{Mode: config.ModeRandom, Pct: ptr(0.29)}, "law_random_28pct.txt"},
		{"dissimilar tfidf", "/d/law.txt.gz", config.Selection{Mode: config.ModeSimilar, Pct: ptr(0.1), Invert: true, UseTFIDF: true, SimFunc: "renyi", FineTuneText: "/d/eurlex.txt"}, "law.txt_dissimilar_tfidf_renyi_eurlex_10pct.gz"},
		{"least diverse threshold", "/d/law.jsonl", config.Selection{Mode: config.ModeDiverse, Threshold: ptr(-1.5), Invert: true, DivFunc: "entropy"}, "law_least_diverse_entropy_-1.5threshold.jsonl"},
		{"bz2 written plain", "/d/law.txt.bz2", config.Selection{Mode: config.ModeDiverse, NDocs: ptr(5), DivFunc: "entropy"}, "law.txt_most_diverse_entropy_5docs"},
		{"least sim div", "/d/law.sz", config.Selection{Mode: config.ModeSimilarDiverse, NDocs: ptr(3), Invert: true, SimFunc: "cosine", DivFunc: "entropy", FuseBy: "union", FineTuneText: "ft.txt", Weights: []float64{0.25, 1}}, "law_least_sim_div_0,25_cosine_1_entropy_ft_union_3docs.sz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Corpus: config.CorpusConfig{Path: tt.corpus}, Selection: tt.sel}
			assert.Equal(t, tt.want, DeriveFilename(cfg))
		})
	}
}
