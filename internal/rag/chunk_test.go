package rag

import (
	"errors"
	"strings"
	"testing"
)

func TestNewChunkerRejectsBadParameters(t *testing.T) {
	tests := []struct {
		name    string
		max     int
		overlap int
		wantErr bool
	}{
		{name: "valid", max: 10, overlap: 2},
		{name: "zero overlap", max: 10, overlap: 0},
		{name: "zero max", max: 0, overlap: 0, wantErr: true},
		{name: "negative overlap", max: 10, overlap: -1, wantErr: true},
		{name: "overlap equals max", max: 10, overlap: 10, wantErr: true},
		{name: "overlap exceeds max", max: 10, overlap: 15, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChunker(runeTokenizer{}, tt.max, tt.overlap)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewChunker(%d, %d) error = %v, wantErr %v", tt.max, tt.overlap, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrConfig) {
				t.Errorf("error %v should wrap ErrConfig", err)
			}
		})
	}
}

func TestSplitWindowing(t *testing.T) {
	c, err := NewChunker(runeTokenizer{}, 10, 2)
	if err != nil {
		t.Fatal(err)
	}

	text := strings.Repeat("A. B. C. ", 5) // 45 tokens under the rune tokenizer
	chunks := c.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks for %d tokens, got %d", len([]rune(text)), len(chunks))
	}

	// Every chunk obeys the size bound.
	for i, chunk := range chunks {
		if n := len([]rune(chunk)); n > 10 {
			t.Errorf("chunk %d has %d tokens, max is 10", i, n)
		}
	}

	// Windows at stride max-overlap cover every token index.
	step := 10 - 2
	covered := make([]bool, len([]rune(text)))
	for i, chunk := range chunks {
		start := i * step
		for j := range []rune(chunk) {
			covered[start+j] = true
		}
	}
	for i, ok := range covered {
		if !ok {
			t.Fatalf("token index %d not covered by any chunk", i)
		}
	}

	// Consecutive chunks overlap by the configured token count.
	first := []rune(chunks[0])
	second := []rune(chunks[1])
	if got, want := string(first[len(first)-2:]), string(second[:2]); got != want {
		t.Errorf("chunk overlap mismatch: tail %q, head %q", got, want)
	}
}

func TestSplitDeterministic(t *testing.T) {
	c, err := NewChunker(runeTokenizer{}, 25, 5)
	if err != nil {
		t.Fatal(err)
	}

	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 8)
	a := c.Split(text)
	b := c.Split(text)
	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestSplitEdgeCases(t *testing.T) {
	c, err := NewChunker(runeTokenizer{}, 100, 10)
	if err != nil {
		t.Fatal(err)
	}

	if chunks := c.Split(""); chunks != nil {
		t.Errorf("empty input should yield no chunks, got %d", len(chunks))
	}

	// Input shorter than one window comes back as a single chunk.
	chunks := c.Split("short text")
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Errorf("short input: got %q", chunks)
	}
}
