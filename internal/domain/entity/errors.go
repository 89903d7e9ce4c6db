package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidationFailed indicates that validation checks have failed
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// AccessDeniedError is returned when an infospace membership/ownership check
// fails (spec §7). Handlers translate it to HTTP 403.
type AccessDeniedError struct {
	InfospaceID int64
	UserID      int64
	Reason      string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied to infospace %d for user %d: %s", e.InfospaceID, e.UserID, e.Reason)
}

// ProcessingError is returned when a Processor fails mid-asset. The parent
// asset's ProcessingStatus is set to FAILED but any children already saved
// are kept (spec §7).
type ProcessingError struct {
	AssetID int64
	Reason  string
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing asset %d failed: %s", e.AssetID, e.Reason)
}

// ProviderError is returned when a language-model/search/geocoding/embedding
// provider call fails. The provider name is always included so operators can
// tell which vendor integration broke.
type ProviderError struct {
	Provider string
	Reason   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %q error: %s", e.Provider, e.Reason)
}

// BulkOperationError aggregates the per-item outcomes of a batch operation
// that partially failed. Transactions are not rolled back for successful
// items (spec §7).
type BulkOperationError struct {
	SuccessfulIDs   []int64
	FailedIDsReason map[int64]string
}

func (e *BulkOperationError) Error() string {
	return fmt.Sprintf("bulk operation: %d succeeded, %d failed", len(e.SuccessfulIDs), len(e.FailedIDsReason))
}
