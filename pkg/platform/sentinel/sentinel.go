package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about ledger records, not validation failures:
// - ErrNotFound: record does not exist in the store
// - ErrConflict: a record with the same key already occupies the slot
// - ErrInsufficientFunds: a debit would take a balance below zero
//
// For validation errors (bad input, malformed identifiers), use
// pkg/domain-errors directly.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientFunds = errors.New("insufficient funds")
)
