package models

import "errors"

// Sentinel errors for validation.
var (
	ErrEmptyUpdate   = errors.New("update carries no fields")
	ErrInvalidStatus = errors.New("unknown debt status")
	ErrMissingDate   = errors.New("either date or from/to parameters are required")
	ErrInvalidRange  = errors.New("from must not be after to")
	ErrInvalidBucket = errors.New("bucket boundaries must be positive and ascending")
	ErrInvalidMode   = errors.New("unknown response mode")
)

// Sentinel errors for entity lookups.
var (
	ErrDebtNotFound    = errors.New("debt not found")
	ErrAccountNotFound = errors.New("debt account not found")
	ErrContactNotFound = errors.New("contact log not found")
)
