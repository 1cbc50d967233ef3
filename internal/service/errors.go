package service

import "errors"

// Sentinel errors shared by the services. Callers distinguish them with
// errors.Is when mapping to HTTP statuses.
var (
	// ErrNoStopsFound is returned by RegisterByQuery when the upstream
	// search yields no candidates.
	ErrNoStopsFound = errors.New("no stops found for query")

	// ErrStopNotFound is returned when a referenced stop is not in the
	// local store.
	ErrStopNotFound = errors.New("stop not found")

	// ErrNoQualifyingPair is returned by the guide generator when no pair
	// of stored stops has both a journey and points of interest at both
	// ends.
	ErrNoQualifyingPair = errors.New("no valid journey or points of interest between any pair of stops")

	// ErrGenerationFailed is returned when the generative backend produced
	// no usable output for an otherwise valid request.
	ErrGenerationFailed = errors.New("text generation failed")
)
