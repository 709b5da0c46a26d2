package rag

import (
	"encoding/binary"
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/bson"
)

// The blob pair travels as two opaque byte slices: a binary vector frame and
// a BSON metadata document. Each half carries its own magic and version so a
// mismatched or truncated pair fails closed during decoding instead of
// producing nonsense neighbors.

// Vector frame layout, little endian:
//
//	magic "LPVX" | uint16 version | uint32 dim | uint32 count | count*dim float32
const (
	indexMagic   = "LPVX"
	indexVersion = 1
)

const metadataVersion = 1

type metadataDoc struct {
	Version   int              `bson:"version"`
	Chunks    []ChunkMetadata  `bson:"chunks"`
	Citations []SourceCitation `bson:"citations,omitempty"`
}

// EncodeIndex serializes the vector structure. An empty index encodes to a
// small valid frame with zero vectors, so "no content yet" round-trips
// without special cases downstream.
func EncodeIndex(ix *FlatIndex) ([]byte, error) {
	if ix == nil {
		return nil, fmt.Errorf("%w: nil index", ErrConfig)
	}
	buf := make([]byte, 0, 14+4*ix.dim*len(ix.vectors))
	buf = append(buf, indexMagic...)
	buf = binary.LittleEndian.AppendUint16(buf, indexVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(ix.dim))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(ix.vectors)))
	for _, v := range ix.vectors {
		for _, f := range v {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
	}
	return buf, nil
}

// DecodeIndex reconstructs the vector structure from a frame produced by
// EncodeIndex. Any structural inconsistency is ErrCorruptBlob.
func DecodeIndex(b []byte) (*FlatIndex, error) {
	const header = 14
	if len(b) < header {
		return nil, fmt.Errorf("%w: truncated header (%d bytes)", ErrCorruptBlob, len(b))
	}
	if string(b[:4]) != indexMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorruptBlob, b[:4])
	}
	if v := binary.LittleEndian.Uint16(b[4:6]); v != indexVersion {
		return nil, fmt.Errorf("%w: unsupported index version %d", ErrCorruptBlob, v)
	}
	dim := int(binary.LittleEndian.Uint32(b[6:10]))
	count := int(binary.LittleEndian.Uint32(b[10:14]))

	want := header + 4*dim*count
	if len(b) != want {
		return nil, fmt.Errorf("%w: frame is %d bytes, want %d for %d vectors of dimension %d", ErrCorruptBlob, len(b), want, count, dim)
	}

	ix := NewFlatIndex(dim)
	off := header
	for i := 0; i < count; i++ {
		v := make([]float32, dim)
		for j := 0; j < dim; j++ {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(b[off : off+4]))
			off += 4
		}
		ix.vectors = append(ix.vectors, v)
	}
	return ix, nil
}

// EncodeMetadata serializes the position-aligned metadata map as a BSON
// document.
func EncodeMetadata(m Metadata) ([]byte, error) {
	doc := metadataDoc{
		Version:   metadataVersion,
		Chunks:    m.Chunks,
		Citations: m.Citations,
	}
	b, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBlob, err)
	}
	return b, nil
}

// DecodeMetadata reconstructs the metadata map. Records are validated to sit
// at the position they claim, since a reordered map would silently describe
// the wrong vectors.
func DecodeMetadata(b []byte) (Metadata, error) {
	var doc metadataDoc
	if err := bson.Unmarshal(b, &doc); err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrCorruptBlob, err)
	}
	if doc.Version != metadataVersion {
		return Metadata{}, fmt.Errorf("%w: unsupported metadata version %d", ErrCorruptBlob, doc.Version)
	}
	for i, c := range doc.Chunks {
		if c.Position != i {
			return Metadata{}, fmt.Errorf("%w: record at position %d claims position %d", ErrCorruptBlob, i, c.Position)
		}
	}
	return Metadata{Chunks: doc.Chunks, Citations: doc.Citations}, nil
}

// DecodePair decodes both blobs and checks they describe the same corpus.
// One half without the other, or halves of different lengths, are unusable.
func DecodePair(indexBytes, metadataBytes []byte) (*FlatIndex, Metadata, error) {
	ix, err := DecodeIndex(indexBytes)
	if err != nil {
		return nil, Metadata{}, err
	}
	meta, err := DecodeMetadata(metadataBytes)
	if err != nil {
		return nil, Metadata{}, err
	}
	if ix.Len() != len(meta.Chunks) {
		return nil, Metadata{}, fmt.Errorf("%w: index holds %d vectors but metadata describes %d chunks", ErrCorruptBlob, ix.Len(), len(meta.Chunks))
	}
	return ix, meta, nil
}
