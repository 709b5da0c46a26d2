package rag

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer converts text to and from the token units the embedding model
// counts in, so chunk-size limits are measured in the model's own units
// rather than characters or words.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// cl100k_base is the encoding family used by the OpenAI-style embedding
// models this platform indexes with.
const encodingName = "cl100k_base"

type tiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTokenizer returns the production tokenizer backed by tiktoken.
func NewTokenizer() (Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("load %s encoding: %w", encodingName, err)
	}
	return &tiktokenTokenizer{enc: enc}, nil
}

func (t *tiktokenTokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *tiktokenTokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}
