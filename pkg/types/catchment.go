package types

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

// Catchment is the elementary drainage polygon of one reach. Catchment IDs
// share the reach ID space: a reach and its catchment carry the same ID.
type Catchment struct {
	// ID is the catchment's identifier, equal to its reach's ID.
	ID int64

	// Polygon is the catchment geometry in geographic coordinates; it may
	// be an orb.Polygon or an orb.MultiPolygon.
	Polygon orb.Geometry
}

// CatchmentStore is an immutable, id-keyed collection of catchments. Each
// polygon is serialized to WKB once at build time so that workers can hand
// geometries to the merge engine without re-encoding.
type CatchmentStore struct {
	byID map[int64][]byte
	ids  []int64
}

// NewCatchmentStore indexes the given catchments by ID and precomputes their
// WKB encodings. It returns ErrDuplicateReachID if two catchments share an ID
// and ErrEmptyDataset if the slice is empty.
func NewCatchmentStore(catchments []Catchment) (*CatchmentStore, error) {
	if len(catchments) == 0 {
		return nil, fmt.Errorf("catchment store: %w", ErrEmptyDataset)
	}
	s := &CatchmentStore{byID: make(map[int64][]byte, len(catchments))}
	for i := range catchments {
		c := &catchments[i]
		if _, ok := s.byID[c.ID]; ok {
			return nil, fmt.Errorf("catchment %d: %w", c.ID, ErrDuplicateReachID)
		}
		data, err := wkb.Marshal(c.Polygon)
		if err != nil {
			return nil, fmt.Errorf("catchment %d: encode: %w", c.ID, err)
		}
		s.byID[c.ID] = data
		s.ids = append(s.ids, c.ID)
	}
	return s, nil
}

// WKB returns the catchment geometry for the given ID as WKB, or nil if the
// ID has no catchment. Callers must not modify the returned slice.
func (s *CatchmentStore) WKB(id int64) []byte {
	return s.byID[id]
}

// Has reports whether the store contains the given ID.
func (s *CatchmentStore) Has(id int64) bool {
	_, ok := s.byID[id]
	return ok
}

// Len returns the number of catchments.
func (s *CatchmentStore) Len() int {
	return len(s.byID)
}

// Collect returns the WKB geometries for every ID in ids that has a
// catchment, in iteration order of ids. Missing IDs are skipped; reaches
// without an elementary catchment are common at basin boundaries.
func (s *CatchmentStore) Collect(ids []int64) [][]byte {
	out := make([][]byte, 0, len(ids))
	for _, id := range ids {
		if data, ok := s.byID[id]; ok {
			out = append(out, data)
		}
	}
	return out
}
