package datamodel

import "errors"

var (
	// ErrRecordNotFound is returned when no record exists for a (plant, material) pair
	ErrRecordNotFound = errors.New("plant response record not found")

	// ErrRecordSubmitted is returned when a write is attempted on a finalized record
	ErrRecordSubmitted = errors.New("record already submitted and read-only")

	// ErrVersionConflict is returned when an optimistic write lost against a
	// concurrent update
	ErrVersionConflict = errors.New("record was modified concurrently")

	// ErrRecordBusy is returned when another request holds the per-record
	// writer lock. Retryable by the caller, not a server fault.
	ErrRecordBusy = errors.New("record is being modified by a concurrent request")

	// ErrCorruptSnapshot signals a malformed stored snapshot or input mapping.
	// This is data corruption and must fail loudly.
	ErrCorruptSnapshot = errors.New("stored snapshot is corrupt")

	// ErrWorkflowNotFound is returned when the workflow fallback chain found nothing
	ErrWorkflowNotFound = errors.New("no workflow associated with record")
)
