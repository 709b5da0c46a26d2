package rag

import "sort"

// ChunkMetadata describes the chunk behind one index position. The Source
// label starts as the filename the chunk came from and is rewritten to a
// formatted citation before the blob pair is persisted.
type ChunkMetadata struct {
	Position   int    `bson:"position"`
	FileID     string `bson:"file_id"`
	ChunkIndex int    `bson:"chunk_index"`
	Source     string `bson:"source"`
	Text       string `bson:"text"`
}

// SourceCitation pairs a raw source label with the formatted citation that
// replaced it, kept for display endpoints after the rewrite.
type SourceCitation struct {
	Source   string `bson:"source" json:"source"`
	Citation string `bson:"citation" json:"citation"`
}

// Metadata is the position-aligned half of a blob pair: record i describes
// the chunk embedded into vector i.
type Metadata struct {
	Chunks    []ChunkMetadata
	Citations []SourceCitation
}

// DistinctSources returns the source labels currently on the chunks, in
// first-appearance order.
func (m Metadata) DistinctSources() []string {
	seen := make(map[string]bool)
	var sources []string
	for _, c := range m.Chunks {
		if !seen[c.Source] {
			seen[c.Source] = true
			sources = append(sources, c.Source)
		}
	}
	return sources
}

// SampleText concatenates up to limit chunk texts for the given source, used
// to give the citation generator something to work from.
func (m Metadata) SampleText(source string, limit int) string {
	var sample string
	n := 0
	for _, c := range m.Chunks {
		if c.Source != source {
			continue
		}
		if n > 0 {
			sample += " "
		}
		sample += c.Text
		n++
		if n >= limit {
			break
		}
	}
	return sample
}

// RewriteCitations returns a copy of m with every chunk whose Source matches
// a key of citations replaced by the mapped citation string, and the
// citation table extended with the pairs that were actually applied. The
// input is never mutated, and applying the same map twice is a no-op the
// second time: rewritten labels no longer match any raw key.
func RewriteCitations(m Metadata, citations map[string]string) Metadata {
	out := Metadata{
		Chunks:    make([]ChunkMetadata, len(m.Chunks)),
		Citations: append([]SourceCitation(nil), m.Citations...),
	}
	copy(out.Chunks, m.Chunks)

	applied := make(map[string]bool)
	for i, c := range out.Chunks {
		if citation, ok := citations[c.Source]; ok {
			applied[c.Source] = true
			out.Chunks[i].Source = citation
		}
	}
	for source := range applied {
		out.Citations = append(out.Citations, SourceCitation{Source: source, Citation: citations[source]})
	}
	sort.Slice(out.Citations, func(i, j int) bool {
		return out.Citations[i].Source < out.Citations[j].Source
	})
	return out
}
