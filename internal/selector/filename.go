package selector

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hyperjump/domainsel/internal/config"
	"github.com/hyperjump/domainsel/internal/corpus"
)

// DeriveFilename builds the output filename from the corpus name, the mode and
// its parameters, ending with the corpus suffix. A .bz2 suffix is dropped
// since bzip2 output is not supported; such subsets are written uncompressed.
func DeriveFilename(cfg *config.Config) string {
	sel := &cfg.Selection
	var b strings.Builder
	b.WriteString(corpus.Stem(cfg.Corpus.Path))

	switch sel.Mode {
	case config.ModeRandom:
		fmt.Fprintf(&b, "_random_%dpct", pct(sel.Pct))
		if sel.Seed != nil {
			fmt.Fprintf(&b, "_seed%d", *sel.Seed)
		}
	case config.ModeSimilar:
		b.WriteString(pick(sel.Invert, "_dissimilar", "_similar"))
		b.WriteString(pick(sel.UseTFIDF, "_tfidf", "_count"))
		fmt.Fprintf(&b, "_%s_%s", sel.SimFunc, corpus.Stem(sel.FineTuneText))
	case config.ModeDiverse:
		b.WriteString(pick(sel.Invert, "_least_diverse", "_most_diverse"))
		fmt.Fprintf(&b, "_%s", sel.DivFunc)
	case config.ModeSimilarDiverse:
		b.WriteString(pick(sel.Invert, "_least_sim_div", "_most_sim_div"))
		w := sel.FusionWeights()
		fmt.Fprintf(&b, "_%s_%s_%s_%s", weight(w.Sim), sel.SimFunc, weight(w.Div), sel.DivFunc)
		fmt.Fprintf(&b, "_%s_%s", corpus.Stem(sel.FineTuneText), sel.FuseBy)
	}

	if sel.Mode != config.ModeRandom {
		switch {
		case sel.Pct != nil:
			fmt.Fprintf(&b, "_%dpct", pct(sel.Pct))
		case sel.NDocs != nil:
			fmt.Fprintf(&b, "_%ddocs", *sel.NDocs)
		case sel.Threshold != nil:
			fmt.Fprintf(&b, "_%sthreshold", strconv.FormatFloat(*sel.Threshold, 'f', -1, 64))
		}
	}

	if suffix := filepath.Ext(cfg.Corpus.Path); !strings.EqualFold(suffix, ".bz2") {
		b.WriteString(suffix)
	}
	return b.String()
}

func pct(p *float64) int {
	if p == nil {
		return 0
	}
	return int(100 * *p)
}

func weight(w float64) string {
	return strings.ReplaceAll(strconv.FormatFloat(w, 'f', -1, 64), ".", ",")
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
