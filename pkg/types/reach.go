package types

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Reach is one river segment of the network. IDs are positive; zero means
// "no reference" wherever an ID field is optional.
type Reach struct {
	// ID is the reach's unique identifier.
	ID int64

	// DownstreamID is the next reach downstream, or 0 at a terminal outlet.
	DownstreamID int64

	// UpstreamIDs lists the immediate upstream reaches, at most four.
	UpstreamIDs []int64

	// Order is the Strahler stream order, or 0 when absent.
	Order int

	// UpstreamAreaKm2 is the total drained area attribute, or 0 when absent.
	UpstreamAreaKm2 float64

	// Line is the reach geometry in geographic coordinates.
	Line orb.LineString
}

// ReachStore is an immutable, id-keyed collection of reaches. Build it once
// with NewReachStore and share it read-only across workers.
type ReachStore struct {
	byID map[int64]*Reach
	ids  []int64

	// HasDownstreamRefs reports whether the source dataset carries a
	// downstream-reference encoding. NewReachStore sets it when any reach
	// holds a downstream ID; the loader additionally sets it when the
	// source column exists at all, even if every value is zero.
	HasDownstreamRefs bool

	// HasUpstreamRefs is the upstream-reference counterpart of
	// HasDownstreamRefs.
	HasUpstreamRefs bool
}

// NewReachStore indexes the given reaches by ID. It returns
// ErrDuplicateReachID if two reaches share an ID and ErrEmptyDataset if the
// slice is empty.
func NewReachStore(reaches []Reach) (*ReachStore, error) {
	if len(reaches) == 0 {
		return nil, fmt.Errorf("reach store: %w", ErrEmptyDataset)
	}
	s := &ReachStore{byID: make(map[int64]*Reach, len(reaches))}
	for i := range reaches {
		r := &reaches[i]
		if _, ok := s.byID[r.ID]; ok {
			return nil, fmt.Errorf("reach %d: %w", r.ID, ErrDuplicateReachID)
		}
		s.byID[r.ID] = r
		s.ids = append(s.ids, r.ID)
		if r.DownstreamID != 0 {
			s.HasDownstreamRefs = true
		}
		if len(r.UpstreamIDs) > 0 {
			s.HasUpstreamRefs = true
		}
	}
	return s, nil
}

// Get returns the reach with the given ID, or nil if absent.
func (s *ReachStore) Get(id int64) *Reach {
	return s.byID[id]
}

// Has reports whether the store contains the given ID.
func (s *ReachStore) Has(id int64) bool {
	_, ok := s.byID[id]
	return ok
}

// IDs returns all reach IDs in load order. Callers must not modify the
// returned slice.
func (s *ReachStore) IDs() []int64 {
	return s.ids
}

// Len returns the number of reaches.
func (s *ReachStore) Len() int {
	return len(s.byID)
}
