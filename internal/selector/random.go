package selector

import (
	"context"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/hyperjump/domainsel/internal/corpus"
	"github.com/hyperjump/domainsel/internal/selection"
)

// seed returns the configured seed, or a fresh one that is logged so the run
// can be reproduced.
func (s *Selector) seed() uint64 {
	if s.cfg.Selection.Seed != nil {
		return *s.cfg.Selection.Seed
	}
	seed := rand.Uint64()
	s.logger.Info("no seed given, drew one", zap.Uint64("seed", seed))
	return seed
}

func (s *Selector) randomMask(ctx context.Context, seed uint64) (selection.Mask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := corpus.Count(s.src)
	if err != nil {
		return nil, err
	}
	return RandomMask(n, *s.cfg.Selection.Pct, seed), nil
}

// RandomMask marks floor(n*pct) positions chosen uniformly without
// replacement. The same seed always yields the same mask.
func RandomMask(n int, pct float64, seed uint64) selection.Mask {
	k := int(float64(n) * pct)
	if k > n {
		k = n
	}
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	mask := make(selection.Mask, n)
	for _, i := range r.Perm(n)[:k] {
		mask[i] = true
	}
	return mask
}
