package rag

import (
	"context"
	"errors"
	"fmt"
)

// runeTokenizer treats every rune as one token. It keeps chunker tests
// independent of the tiktoken vocabulary while exercising the exact same
// windowing arithmetic.
type runeTokenizer struct{}

func (runeTokenizer) Encode(text string) []int {
	runes := []rune(text)
	ids := make([]int, len(runes))
	for i, r := range runes {
		ids[i] = int(r)
	}
	return ids
}

func (runeTokenizer) Decode(tokens []int) string {
	runes := make([]rune, len(tokens))
	for i, id := range tokens {
		runes[i] = rune(id)
	}
	return string(runes)
}

// hashEmbedder deterministically embeds text into a small fixed dimension:
// identical texts get identical vectors, so exact-match queries come back at
// distance zero.
type hashEmbedder struct {
	dim   int
	calls int
	fail  error
}

func (e *hashEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.fail != nil {
		return nil, e.fail
	}
	dim := e.dim
	if dim == 0 {
		dim = 4
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, dim)
		for j, b := range []byte(t) {
			v[j%dim] += float32(b) * float32(j+1)
		}
		out[i] = v
	}
	return out, nil
}

// staticCitations formats every source as "[cite] <source>".
type staticCitations struct{ calls int }

func (c *staticCitations) Citation(_ context.Context, source, _ string) (string, error) {
	c.calls++
	return "[cite] " + source, nil
}

type echoGenerator struct{}

func (echoGenerator) GroundedAnswer(_ context.Context, query string, contexts []string) (string, error) {
	return fmt.Sprintf("answer(%s|%d)", query, len(contexts)), nil
}

var errEmbedDown = errors.New("embedding service unavailable")
