package rag

import (
	"errors"
	"math"
	"testing"
)

func TestFlatIndexSearch(t *testing.T) {
	ix := NewFlatIndex(3)
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.9, 0.1, 0},
		{0, 0, 1},
	}
	if err := ix.Add(vectors...); err != nil {
		t.Fatal(err)
	}

	t.Run("nearest first", func(t *testing.T) {
		got, err := ix.Search([]float32{1, 0, 0}, 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 neighbors, got %d", len(got))
		}
		if got[0].Position != 0 {
			t.Errorf("nearest position = %d, want 0", got[0].Position)
		}
		if got[0].Distance != 0 {
			t.Errorf("exact match distance = %v, want 0", got[0].Distance)
		}
		if got[1].Position != 2 {
			t.Errorf("second position = %d, want 2", got[1].Position)
		}
		if got[0].Distance > got[1].Distance {
			t.Error("neighbors not sorted by distance")
		}
	})

	t.Run("squared L2 distance", func(t *testing.T) {
		got, err := ix.Search([]float32{0, 0, 0}, 4)
		if err != nil {
			t.Fatal(err)
		}
		for _, n := range got[:3] {
			want := float32(1.0)
			if n.Position == 2 {
				want = 0.9*0.9 + 0.1*0.1
			}
			if math.Abs(float64(n.Distance-want)) > 1e-6 {
				t.Errorf("position %d distance = %v, want %v", n.Position, n.Distance, want)
			}
		}
	})

	t.Run("k larger than index", func(t *testing.T) {
		got, err := ix.Search([]float32{1, 0, 0}, 50)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 4 {
			t.Errorf("expected all 4 neighbors, got %d", len(got))
		}
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := ix.Search([]float32{1, 0}, 1)
		if !errors.Is(err, ErrConfig) {
			t.Errorf("wrong-dimension query error = %v, want ErrConfig", err)
		}
	})
}

func TestFlatIndexEmpty(t *testing.T) {
	ix := NewFlatIndex(0)
	got, err := ix.Search([]float32{1, 2, 3}, 5)
	if err != nil {
		t.Fatalf("empty index search should not fail: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("empty index returned %d neighbors", len(got))
	}
}

func TestFlatIndexAddRejectsWrongDimension(t *testing.T) {
	ix := NewFlatIndex(3)
	if err := ix.Add([]float32{1, 2}); !errors.Is(err, ErrConfig) {
		t.Errorf("Add with wrong dimension error = %v, want ErrConfig", err)
	}
	if ix.Len() != 0 {
		t.Errorf("failed Add must not grow the index, len = %d", ix.Len())
	}
}
