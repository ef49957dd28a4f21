package selector

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/hyperjump/domainsel/internal/cache"
	"github.com/hyperjump/domainsel/internal/corpus"
	"github.com/hyperjump/domainsel/internal/metrics"
	"github.com/hyperjump/domainsel/internal/termdist"
)

func (s *Selector) reprName() string {
	if s.cfg.Selection.UseTFIDF {
		return "tfidf"
	}
	return "count"
}

// Similarities returns one oriented similarity per corpus document against the
// fine-tune text. The series is cached; IgnoreCache forces recomputation.
func (s *Selector) Similarities(ctx context.Context) ([]float64, error) {
	if _, err := s.textBuilder(); err != nil {
		return nil, err
	}
	sel := &s.cfg.Selection
	key := cache.SimilarityKey(s.reprName(), s.src.Stem(), s.vocabID(), sel.SimFunc, corpus.Stem(sel.FineTuneText))
	return s.store.Vector(ctx, key, sel.IgnoreCache, s.computeSimilarities)
}

// Diversities returns one oriented diversity score per corpus document.
func (s *Selector) Diversities(ctx context.Context) ([]float64, error) {
	if _, err := s.textBuilder(); err != nil {
		return nil, err
	}
	sel := &s.cfg.Selection
	key := cache.DiversityKey(s.reprName(), s.src.Stem(), s.vocabID(), sel.DivFunc)
	return s.store.Vector(ctx, key, sel.IgnoreCache, s.computeDiversities)
}

func (s *Selector) computeSimilarities(ctx context.Context) ([]float64, error) {
	sim, err := metrics.ParseSimilarity(s.cfg.Selection.SimFunc)
	if err != nil {
		return nil, err
	}
	b, err := s.textBuilder()
	if err != nil {
		return nil, err
	}
	rep, err := s.representation(ctx)
	if err != nil {
		return nil, err
	}

	ft := corpus.NewSource(s.cfg.Selection.FineTuneText, corpus.Options{})
	text, err := corpus.JoinedText(ft)
	if err != nil {
		return nil, err
	}
	ref := b.Text(text, rep)

	docs, err := b.Docs(s.src, rep)
	if err != nil {
		return nil, err
	}
	defer docs.Close()

	p := s.progress("computing " + string(sim) + " similarities")
	var scores []float64
	for {
		chunk, err := docs.NextChunk(ctx, s.cfg.Tokenizer.CompChunkSize)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		scores = append(scores, sim.Score(ref, chunk)...)
		p.add(len(chunk))
	}
	p.finish()
	return scores, nil
}

func (s *Selector) computeDiversities(ctx context.Context) ([]float64, error) {
	div, err := metrics.ParseDiversity(s.cfg.Selection.DivFunc)
	if err != nil {
		return nil, err
	}
	b, err := s.textBuilder()
	if err != nil {
		return nil, err
	}
	dist, err := s.corpusDistribution(ctx)
	if err != nil {
		return nil, err
	}

	tokens, err := b.Tokens(s.src)
	if err != nil {
		return nil, err
	}
	defer tokens.Close()

	p := s.progress("computing " + string(div))
	var scores []float64
	for {
		chunk, err := tokens.NextChunk(ctx, s.cfg.Tokenizer.CompChunkSize)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		for _, ids := range chunk {
			scores = append(scores, div.Score(ids, dist))
		}
		p.add(len(chunk))
	}
	p.finish()
	return scores, nil
}

// representation returns plain counts, or the corpus TF-IDF model loaded from
// the cache (fitted on a miss). Model entries are never bypassed.
func (s *Selector) representation(ctx context.Context) (termdist.Representation, error) {
	if !s.cfg.Selection.UseTFIDF {
		return termdist.Counts{}, nil
	}
	if s.model != nil {
		return s.model, nil
	}
	b, err := s.textBuilder()
	if err != nil {
		return nil, err
	}
	key := cache.TFIDFModelKey(s.src.Stem(), s.vocabID())
	m, err := s.store.Model(ctx, key, false, func(ctx context.Context) (*termdist.TFIDFModel, error) {
		s.logger.Info("fitting TF-IDF model", zap.String("corpus", s.src.Path()))
		ts, err := b.Tokens(s.src)
		if err != nil {
			return nil, err
		}
		defer ts.Close()
		return termdist.FitTFIDF(ctx, ts, s.vocab.Size())
	})
	if err != nil {
		return nil, err
	}
	s.model = m
	return m, nil
}

// corpusDistribution returns the corpus-level distribution diversity is
// measured against: pooled counts, or the pooled TF-IDF vector.
func (s *Selector) corpusDistribution(ctx context.Context) ([]float64, error) {
	b, err := s.textBuilder()
	if err != nil {
		return nil, err
	}
	rep, err := s.representation(ctx)
	if err != nil {
		return nil, err
	}
	key := cache.TermDistKey(s.src.Stem(), s.vocabID())
	if s.cfg.Selection.UseTFIDF {
		key = cache.CorpusTFIDFKey(s.src.Stem(), s.vocabID())
	}
	return s.store.Vector(ctx, key, false, func(ctx context.Context) ([]float64, error) {
		s.logger.Info("building corpus distribution", zap.String("repr", rep.Name()))
		return b.Corpus(ctx, s.src, rep)
	})
}

// progress logs every ProgressEvery documents.
type progress struct {
	logger *zap.Logger
	what   string
	every  int
	done   int
	next   int
}

func (s *Selector) progress(what string) *progress {
	every := s.cfg.Selection.ProgressEvery
	return &progress{logger: s.logger, what: what, every: every, next: every}
}

func (p *progress) add(n int) {
	p.done += n
	if p.every <= 0 || p.done < p.next {
		return
	}
	for p.next <= p.done {
		p.next += p.every
	}
	p.logger.Info(p.what, zap.Int("documents", p.done))
}

func (p *progress) finish() {
	p.logger.Info(p.what+" done", zap.Int("documents", p.done))
}
