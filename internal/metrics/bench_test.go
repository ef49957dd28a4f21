package metrics

import "testing"

func BenchmarkJensenShannonChunk(b *testing.B) {
	const vocabSize, chunk = 30522, 128
	ref := make([]float64, vocabSize)
	for i := range ref {
		ref[i] = 1 / float64(vocabSize)
	}
	docs := make([][]float64, chunk)
	for i := range docs {
		docs[i] = make([]float64, vocabSize)
		docs[i][i] = 0.5
		docs[i][i+chunk] = 0.5
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = JensenShannon.Score(ref, docs)
	}
}

func BenchmarkEntropy(b *testing.B) {
	corpus := make([]float64, 30522)
	for i := range corpus {
		corpus[i] = 1 / float64(len(corpus))
	}
	doc := make([]int, 512)
	for i := range doc {
		doc[i] = (i * 37) % len(corpus)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Entropy.Score(doc, corpus)
	}
}
