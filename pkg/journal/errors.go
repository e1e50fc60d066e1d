package journal

import "fmt"

// StorageError represents an error from the journal storage backend.
type StorageError struct {
	Backend   string // Storage backend type ("memory", "sqlite")
	Operation string // Operation that failed ("store", "query", "delete", etc.)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("journal storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// RetentionError represents an error during journal retention enforcement.
type RetentionError struct {
	RetentionDays int   // Configured retention period
	Cause         error // Underlying error
}

// Error implements the error interface.
func (e *RetentionError) Error() string {
	return fmt.Sprintf("journal retention error [retention_days=%d]: %v", e.RetentionDays, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *RetentionError) Unwrap() error {
	return e.Cause
}

// NewRetentionError creates a new RetentionError.
func NewRetentionError(retentionDays int, cause error) *RetentionError {
	return &RetentionError{
		RetentionDays: retentionDays,
		Cause:         cause,
	}
}
