package types

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
)

func TestNewReachStore(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		_, err := NewReachStore(nil)
		if !errors.Is(err, ErrEmptyDataset) {
			t.Fatalf("got %v, want ErrEmptyDataset", err)
		}
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, err := NewReachStore([]Reach{{ID: 7}, {ID: 7}})
		if !errors.Is(err, ErrDuplicateReachID) {
			t.Fatalf("got %v, want ErrDuplicateReachID", err)
		}
	})

	t.Run("topology flags", func(t *testing.T) {
		s, err := NewReachStore([]Reach{
			{ID: 1, DownstreamID: 2},
			{ID: 2},
		})
		if err != nil {
			t.Fatal(err)
		}
		if !s.HasDownstreamRefs {
			t.Error("expected downstream refs flag")
		}
		if s.HasUpstreamRefs {
			t.Error("did not expect upstream refs flag")
		}
	})

	t.Run("lookup", func(t *testing.T) {
		s, err := NewReachStore([]Reach{{ID: 1, Order: 3}, {ID: 2}})
		if err != nil {
			t.Fatal(err)
		}
		if s.Len() != 2 {
			t.Fatalf("got len %d, want 2", s.Len())
		}
		if r := s.Get(1); r == nil || r.Order != 3 {
			t.Fatalf("Get(1) = %+v", r)
		}
		if s.Get(99) != nil {
			t.Error("Get(99) should be nil")
		}
		if !s.Has(2) || s.Has(99) {
			t.Error("Has misreports membership")
		}
	})
}

func TestNewCatchmentStore(t *testing.T) {
	square := orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}}

	t.Run("empty input", func(t *testing.T) {
		_, err := NewCatchmentStore(nil)
		if !errors.Is(err, ErrEmptyDataset) {
			t.Fatalf("got %v, want ErrEmptyDataset", err)
		}
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, err := NewCatchmentStore([]Catchment{
			{ID: 3, Polygon: square},
			{ID: 3, Polygon: square},
		})
		if !errors.Is(err, ErrDuplicateReachID) {
			t.Fatalf("got %v, want ErrDuplicateReachID", err)
		}
	})

	t.Run("collect skips missing ids", func(t *testing.T) {
		s, err := NewCatchmentStore([]Catchment{
			{ID: 1, Polygon: square},
			{ID: 2, Polygon: square},
		})
		if err != nil {
			t.Fatal(err)
		}
		got := s.Collect([]int64{1, 99, 2})
		if len(got) != 2 {
			t.Fatalf("got %d geometries, want 2", len(got))
		}
		if s.WKB(1) == nil || s.WKB(99) != nil {
			t.Error("WKB misreports membership")
		}
	})
}
