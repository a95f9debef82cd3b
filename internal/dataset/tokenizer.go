package dataset

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// defaultEncoding is the BPE encoding used for captions.
const defaultEncoding = "cl100k_base"

// Tokenizer turns captions into token ID sequences.
type Tokenizer struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// NewTokenizer loads the default caption encoding.
func NewTokenizer() (*Tokenizer, error) {
	return NewTokenizerWithEncoding(defaultEncoding)
}

// NewTokenizerWithEncoding loads a named tiktoken encoding.
func NewTokenizerWithEncoding(name string) (*Tokenizer, error) {
	encoding, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("dataset: load encoding %q: %w", name, err)
	}
	return &Tokenizer{encoding: encoding, name: name}, nil
}

// Encode converts a caption to token IDs.
func (t *Tokenizer) Encode(text string) []int64 {
	tokens := t.encoding.Encode(text, nil, nil)
	out := make([]int64, len(tokens))
	for i, tok := range tokens {
		out[i] = int64(tok)
	}
	return out
}

// Decode converts token IDs back to text.
func (t *Tokenizer) Decode(tokens []int64) string {
	ints := make([]int, len(tokens))
	for i, tok := range tokens {
		ints[i] = int(tok)
	}
	return t.encoding.Decode(ints)
}

// Name returns the encoding name.
func (t *Tokenizer) Name() string {
	return t.name
}
