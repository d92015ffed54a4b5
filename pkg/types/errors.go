package types

import "errors"

// Station-level errors. Each of these converts to a "failed" verdict for the
// affected station; the rest of the batch continues.
var (
	ErrNoReachWithinTolerance = errors.New("no reach within snap distance")
	ErrNetworkTooLarge        = errors.New("upstream network exceeds configured maximum")
	ErrNoMatchingCatchments   = errors.New("no elementary catchments match the upstream set")
	ErrGeometryRepair         = errors.New("geometry cannot be repaired")
)

// System-level errors. Any of these aborts the whole run; there is nothing
// meaningful to process without a usable dataset.
var (
	ErrNoTopologyFields = errors.New("reach dataset carries no topology fields")
	ErrMissingIDField   = errors.New("dataset is missing the reach identifier field")
	ErrDuplicateReachID = errors.New("duplicate reach identifier")
	ErrEmptyDataset     = errors.New("dataset contains no usable records")
)
