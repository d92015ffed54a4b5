// Package types defines the domain entities, immutable in-memory stores,
// tunable parameters, and standard errors for the watershed delineation
// pipeline.
package types
