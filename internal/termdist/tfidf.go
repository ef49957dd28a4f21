package termdist

import (
	"context"
	"errors"
	"io"
	"math"

	"github.com/hyperjump/domainsel/pkg/utils"
)

// TFIDFModel holds smoothed inverse document frequencies per vocabulary id.
// A fitted model is immutable; ids never seen during fitting carry zero weight.
type TFIDFModel struct {
	NumDocs int
	DocFreq []int
	IDF     []float64
}

// FitTFIDF computes document frequencies over every document in ts.
// idf(t) = ln((1+n)/(1+df(t))) + 1 for ids with df > 0.
func FitTFIDF(ctx context.Context, ts *TokenStream, vocabSize int) (*TFIDFModel, error) {
	m := &TFIDFModel{DocFreq: make([]int, vocabSize), IDF: make([]float64, vocabSize)}
	seen := make(map[int]struct{})
	for {
		chunk, err := ts.NextChunk(ctx, ts.tknSize)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		for _, ids := range chunk {
			m.NumDocs++
			clear(seen)
			for _, id := range ids {
				if id < 0 || id >= vocabSize {
					continue
				}
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				m.DocFreq[id]++
			}
		}
	}
	n := float64(m.NumDocs)
	for id, df := range m.DocFreq {
		if df == 0 {
			continue
		}
		m.IDF[id] = math.Log((1+n)/(1+float64(df))) + 1
	}
	return m, nil
}

// Name implements Representation.
func (m *TFIDFModel) Name() string { return "tfidf" }

// FromCounts weights counts by idf and L1-normalizes the result.
func (m *TFIDFModel) FromCounts(counts []float64) []float64 {
	out := make([]float64, len(counts))
	for id, c := range counts {
		if c == 0 || id >= len(m.IDF) {
			continue
		}
		out[id] = c * m.IDF[id]
	}
	utils.NormalizeL1(out)
	return out
}

// VocabularySize returns the number of ids the model covers.
func (m *TFIDFModel) VocabularySize() int { return len(m.IDF) }

// Fitted reports whether id was observed during fitting.
func (m *TFIDFModel) Fitted(id int) bool {
	return id >= 0 && id < len(m.DocFreq) && m.DocFreq[id] > 0
}
