package rag

import "fmt"

// Default window parameters, in tokens. These match what the course indexer
// uses unless the environment overrides them.
const (
	DefaultMaxChunkTokens = 500
	DefaultChunkOverlap   = 50
)

// Chunker splits extracted text into overlapping, token-bounded windows.
// It is a pure function of its input: identical text and parameters always
// produce identical chunks.
type Chunker struct {
	tok       Tokenizer
	maxTokens int
	overlap   int
}

// NewChunker validates the window parameters up front. An overlap that
// reaches the chunk size would stop the window from ever advancing, so it is
// rejected here instead of looping forever later.
func NewChunker(tok Tokenizer, maxTokens, overlap int) (*Chunker, error) {
	if tok == nil {
		return nil, fmt.Errorf("%w: nil tokenizer", ErrConfig)
	}
	if maxTokens <= 0 {
		return nil, fmt.Errorf("%w: max chunk size %d must be positive", ErrConfig, maxTokens)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap %d must not be negative", ErrConfig, overlap)
	}
	if overlap >= maxTokens {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than max chunk size %d", ErrConfig, overlap, maxTokens)
	}
	return &Chunker{tok: tok, maxTokens: maxTokens, overlap: overlap}, nil
}

// Split windows the text into chunks of up to maxTokens tokens, each
// starting overlap tokens before the previous one ended. The final chunk may
// be shorter. Empty or whitespace-only input yields no chunks.
func (c *Chunker) Split(text string) []string {
	ids := c.tok.Encode(text)
	if len(ids) == 0 {
		return nil
	}

	step := c.maxTokens - c.overlap
	var chunks []string
	for start := 0; start < len(ids); start += step {
		end := start + c.maxTokens
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, c.tok.Decode(ids[start:end]))
	}
	return chunks
}
