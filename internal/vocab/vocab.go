// Package vocab loads the fixed token vocabulary shared by tokenization and
// distribution building.
package vocab

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSpecialTokens are the BERT markers dropped from every token sequence.
var DefaultSpecialTokens = []string{"[PAD]", "[UNK]", "[CLS]", "[SEP]", "[MASK]"}

// ErrEmptyVocabulary is returned when a vocabulary file holds no tokens.
var ErrEmptyVocabulary = errors.New("vocabulary is empty")

// Vocabulary maps tokens to integer ids. It is read-only after Load.
type Vocabulary struct {
	name   string
	tokens []string
	ids    map[string]int
}

// Load reads a line-delimited vocabulary file; the id of a token is its line number.
func Load(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocabulary: %w", err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	v, err := Read(name, f)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary %s: %w", path, err)
	}
	return v, nil
}

// Read builds a vocabulary named name from r. Every line consumes an id, so
// ids match line numbers even across blank or repeated lines. A blank line
// maps no token; a repeated token keeps its first id so the mapping stays
// injective.
func Read(name string, r io.Reader) (*Vocabulary, error) {
	v := &Vocabulary{name: name, ids: make(map[string]int)}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		tok := strings.TrimRight(sc.Text(), "\r\n")
		if _, dup := v.ids[tok]; tok != "" && !dup {
			v.ids[tok] = len(v.tokens)
		}
		v.tokens = append(v.tokens, tok)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(v.ids) == 0 {
		return nil, ErrEmptyVocabulary
	}
	return v, nil
}

// New builds a vocabulary from an in-memory token list.
func New(name string, tokens []string) (*Vocabulary, error) {
	return Read(name, strings.NewReader(strings.Join(tokens, "\n")))
}

// Name returns the vocabulary identity used in cache keys (the file stem).
func (v *Vocabulary) Name() string { return v.name }

// Size returns the number of ids, one per line read.
func (v *Vocabulary) Size() int { return len(v.tokens) }

// ID returns the id of tok.
func (v *Vocabulary) ID(tok string) (int, bool) {
	id, ok := v.ids[tok]
	return id, ok
}

// Token returns the token with the given id, or "" when out of range.
func (v *Vocabulary) Token(id int) string {
	if id < 0 || id >= len(v.tokens) {
		return ""
	}
	return v.tokens[id]
}

// IDSet resolves tokens to a set of ids, skipping tokens absent from the vocabulary.
func (v *Vocabulary) IDSet(tokens []string) map[int]struct{} {
	set := make(map[int]struct{}, len(tokens))
	for _, t := range tokens {
		if id, ok := v.ids[t]; ok {
			set[id] = struct{}{}
		}
	}
	return set
}
