package tokenizer

import (
	"reflect"
	"testing"

	"github.com/hyperjump/domainsel/internal/vocab"
)

func testVocab(t *testing.T) *vocab.Vocabulary {
	t.Helper()
	v, err := vocab.New("test", []string{
		"[PAD]", "[UNK]", "[CLS]", "[SEP]", "[MASK]",
		"the", "court", "rul", "##ing", "##s", "cafe", "law",
	})
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestWordPiece_Tokenize(t *testing.T) {
	v := testVocab(t)
	tok := NewWordPiece(v, Options{Lowercase: true})

	tests := []struct {
		name string
		text string
		want []int
	}{
		{"whole words", "The court", []int{5, 6}},
		{"subwords", "rulings", []int{7, 8, 9}},
		{"accent stripped", "Café law", []int{10, 11}},
		{"unknown dropped", "xyzzy law", []int{11}},
		{"empty", "", nil},
		{"only punctuation", " ... !!", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tok.Tokenize(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestWordPiece_punctuationTokens(t *testing.T) {
	v, err := vocab.New("test", []string{
		"[PAD]", "[UNK]", "[CLS]", "[SEP]", "[MASK]",
		"hello", ",", "world", ".", "$", "5", "don", "'", "t", "3", "14",
	})
	if err != nil {
		t.Fatal(err)
	}
	tok := NewWordPiece(v, Options{Lowercase: true})

	tests := []struct {
		text string
		want []string
	}{
		{"Hello, world.", []string{"hello", ",", "world", "."}},
		{"$5", []string{"$", "5"}},
		{"don't", []string{"don", "'", "t"}},
		{"3.14", []string{"3", ".", "14"}},
		{"hello...", []string{"hello", ".", ".", "."}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var got []string
			for _, id := range tok.Tokenize(tt.text) {
				got = append(got, v.Token(id))
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestWordPiece_noLowercase(t *testing.T) {
	v := testVocab(t)
	tok := NewWordPiece(v, Options{Lowercase: false})
	if got := tok.Tokenize("The court"); !reflect.DeepEqual(got, []int{6}) {
		t.Errorf("got %v, want [6]", got)
	}
}

func TestWordPiece_customSpecialTokens(t *testing.T) {
	v := testVocab(t)
	tok := NewWordPiece(v, Options{Lowercase: true, SpecialTokens: []string{"[PAD]", "the"}})
	got := tok.Tokenize("the xyzzy court")
	// [UNK] is no longer special, so it survives; "the" is filtered.
	if !reflect.DeepEqual(got, []int{1, 6}) {
		t.Errorf("got %v, want [1 6]", got)
	}
}

func TestWords_Tokenize(t *testing.T) {
	v := testVocab(t)
	tok := NewWords(v, Options{Lowercase: true})
	got := tok.Tokenize("LAW the [UNK] unknown law")
	if !reflect.DeepEqual(got, []int{11, 5, 11}) {
		t.Errorf("got %v", got)
	}
}
