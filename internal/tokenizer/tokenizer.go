// Package tokenizer converts raw text into vocabulary ids with special tokens removed.
package tokenizer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	bleveunicode "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/hyperjump/domainsel/internal/vocab"
)

const (
	unknownToken         = "[UNK]"
	continuationPrefix   = "##"
	maxInputCharsPerWord = 100
)

// Tokenizer produces vocabulary ids for a document.
type Tokenizer interface {
	Tokenize(text string) []int
}

// Options configure a WordPiece tokenizer.
type Options struct {
	Lowercase     bool
	SpecialTokens []string
}

// WordPiece is a BERT-style tokenizer: unicode word segmentation with every
// punctuation character split into its own token, optional lowercasing with
// accent stripping, then greedy longest-match subword lookup.
type WordPiece struct {
	vocab     *vocab.Vocabulary
	lowercase bool
	words     analysis.Tokenizer
	lower     analysis.TokenFilter
	unk       int
	hasUnk    bool
	special   map[int]struct{}
}

// NewWordPiece returns a tokenizer over v.
func NewWordPiece(v *vocab.Vocabulary, opts Options) *WordPiece {
	special := opts.SpecialTokens
	if special == nil {
		special = vocab.DefaultSpecialTokens
	}
	unk, hasUnk := v.ID(unknownToken)
	return &WordPiece{
		vocab:     v,
		lowercase: opts.Lowercase,
		words:     bleveunicode.NewUnicodeTokenizer(),
		lower:     lowercase.NewLowerCaseFilter(),
		unk:       unk,
		hasUnk:    hasUnk,
		special:   v.IDSet(special),
	}
}

// Tokenize returns the ids of text in order, with special tokens filtered out.
// Text with no known subwords yields an empty (nil) slice.
func (t *WordPiece) Tokenize(text string) []int {
	raw := []byte(text)
	stream := t.words.Tokenize(raw)
	if t.lowercase {
		stream = t.lower.Filter(stream)
	}
	var ids []int
	emit := func(word string) {
		for _, id := range t.wordPiece(word) {
			if _, skip := t.special[id]; skip {
				continue
			}
			ids = append(ids, id)
		}
	}
	prev := 0
	for _, tok := range stream {
		// The segmenter drops punctuation and symbols; recover them from the gap.
		symbols(raw[prev:tok.Start], emit)
		word := string(tok.Term)
		if t.lowercase {
			word = stripAccents(word)
		}
		splitPunctuation(word, emit)
		prev = tok.End
	}
	symbols(raw[prev:], emit)
	return ids
}

// symbols emits each visible rune of a segmenter gap as its own token.
func symbols(gap []byte, emit func(string)) {
	for _, r := range string(gap) {
		if unicode.IsSpace(r) || unicode.IsControl(r) || r == utf8.RuneError {
			continue
		}
		emit(string(r))
	}
}

// splitPunctuation emits word with every punctuation rune split off on its own.
func splitPunctuation(word string, emit func(string)) {
	start := 0
	for i, r := range word {
		if !isPunctuation(r) {
			continue
		}
		if start < i {
			emit(word[start:i])
		}
		_, size := utf8.DecodeRuneInString(word[i:])
		emit(word[i : i+size])
		start = i + size
	}
	if start < len(word) {
		emit(word[start:])
	}
}

// isPunctuation follows BERT: all non-alphanumeric ASCII plus unicode P* classes.
func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

func (t *WordPiece) wordPiece(word string) []int {
	chars := []rune(word)
	if len(chars) == 0 {
		return nil
	}
	if len(chars) > maxInputCharsPerWord {
		return t.unknown()
	}
	var pieces []int
	start := 0
	for start < len(chars) {
		end := len(chars)
		found := -1
		for start < end {
			sub := string(chars[start:end])
			if start > 0 {
				sub = continuationPrefix + sub
			}
			if id, ok := t.vocab.ID(sub); ok {
				found = id
				break
			}
			end--
		}
		if found < 0 {
			return t.unknown()
		}
		pieces = append(pieces, found)
		start = end
	}
	return pieces
}

func (t *WordPiece) unknown() []int {
	if !t.hasUnk {
		return nil
	}
	return []int{t.unk}
}

// Words is a whole-word tokenizer: whitespace split, optional lowercasing, exact
// vocabulary lookup. Out-of-vocabulary words are dropped.
type Words struct {
	vocab     *vocab.Vocabulary
	lowercase bool
	special   map[int]struct{}
}

// NewWords returns a whole-word tokenizer over v.
func NewWords(v *vocab.Vocabulary, opts Options) *Words {
	special := opts.SpecialTokens
	if special == nil {
		special = vocab.DefaultSpecialTokens
	}
	return &Words{vocab: v, lowercase: opts.Lowercase, special: v.IDSet(special)}
}

// Tokenize returns the ids of the in-vocabulary words of text.
func (t *Words) Tokenize(text string) []int {
	var ids []int
	for _, w := range strings.Fields(text) {
		if t.lowercase {
			w = strings.ToLower(w)
		}
		id, ok := t.vocab.ID(w)
		if !ok {
			continue
		}
		if _, skip := t.special[id]; skip {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func stripAccents(s string) string {
	for _, r := range s {
		if r >= 0x80 {
			tr := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
			out, _, err := transform.String(tr, s)
			if err != nil {
				return s
			}
			return out
		}
	}
	return s
}
