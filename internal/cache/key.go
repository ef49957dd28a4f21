// Package cache persists expensive intermediate artifacts (fitted TF-IDF
// models, corpus distributions, score series) under explicit keys.
package cache

import "fmt"

// Kind tags the artifact variant a Key identifies.
type Kind int

const (
	KindTFIDFModel Kind = iota
	KindCorpusTFIDF
	KindTermDist
	KindSimilarity
	KindDiversity
)

// String returns the kind name stored in the manifest.
func (k Kind) String() string {
	switch k {
	case KindTFIDFModel:
		return "tfidf_model"
	case KindCorpusTFIDF:
		return "corpus_tfidf"
	case KindTermDist:
		return "term_dist"
	case KindSimilarity:
		return "similarity"
	case KindDiversity:
		return "diversity"
	default:
		return "unknown"
	}
}

// Key identifies a cache entry. Build keys with the constructors; each variant
// only populates the identity fields it depends on. Keys are comparable.
type Key struct {
	Kind     Kind
	Corpus   string
	Vocab    string
	Repr     string
	Func     string
	FineTune string
}

// TFIDFModelKey identifies the TF-IDF model fit on a corpus.
func TFIDFModelKey(corpus, vocab string) Key {
	return Key{Kind: KindTFIDFModel, Corpus: corpus, Vocab: vocab}
}

// CorpusTFIDFKey identifies the corpus-level TF-IDF vector.
func CorpusTFIDFKey(corpus, vocab string) Key {
	return Key{Kind: KindCorpusTFIDF, Corpus: corpus, Vocab: vocab}
}

// TermDistKey identifies the corpus-level count distribution.
func TermDistKey(corpus, vocab string) Key {
	return Key{Kind: KindTermDist, Corpus: corpus, Vocab: vocab}
}

// SimilarityKey identifies a similarity score series against a fine-tune text.
func SimilarityKey(repr, corpus, vocab, fn, fineTune string) Key {
	return Key{Kind: KindSimilarity, Repr: repr, Corpus: corpus, Vocab: vocab, Func: fn, FineTune: fineTune}
}

// DiversityKey identifies a diversity score series.
func DiversityKey(repr, corpus, vocab, fn string) Key {
	return Key{Kind: KindDiversity, Repr: repr, Corpus: corpus, Vocab: vocab, Func: fn}
}

// Filename renders the on-disk name of the entry inside the cache directory.
func (k Key) Filename() string {
	switch k.Kind {
	case KindTFIDFModel:
		return fmt.Sprintf("tfidf_%s_%s.gob", k.Corpus, k.Vocab)
	case KindCorpusTFIDF:
		return fmt.Sprintf("%s_%s_tfidf_repr.npy", k.Corpus, k.Vocab)
	case KindTermDist:
		return fmt.Sprintf("term_dist_%s_%s.npy", k.Corpus, k.Vocab)
	case KindSimilarity:
		return fmt.Sprintf("similar_%s_%s_%s_%s_%s.npy", k.Repr, k.Corpus, k.Vocab, k.Func, k.FineTune)
	case KindDiversity:
		return fmt.Sprintf("diverse_%s_%s_%s_%s.npy", k.Repr, k.Corpus, k.Vocab, k.Func)
	default:
		return fmt.Sprintf("unknown_%s.bin", k.Corpus)
	}
}

// String implements fmt.Stringer.
func (k Key) String() string {
	return k.Kind.String() + ":" + k.Filename()
}
