// Package errors provides custom error types for the reconciliation system.
// These errors enable programmatic error checking and keep the distinction
// between data-quality problems (never errors, they degrade to low-confidence
// verdicts) and caller contract violations (which fail loudly).
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the reconciliation system
var (
	// ErrNotFound indicates that a requested entity was not found in the store
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that an entity already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrSelfPair indicates a record was paired with itself, a caller bug
	ErrSelfPair = errors.New("record paired with itself")

	// ErrAlreadyRetired indicates a merge targeted a record that is no longer active
	ErrAlreadyRetired = errors.New("record already retired")

	// ErrNotApproved indicates a merge was attempted on an entry that still needs review
	ErrNotApproved = errors.New("entry not approved for merge")

	// ErrEmptyPool indicates a matching pass was requested against an empty pool
	ErrEmptyPool = errors.New("candidate pool is empty")

	// ErrReadOnly indicates an attempt to modify a read-only store
	ErrReadOnly = errors.New("read only")
)

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// MergeError represents an error while applying a merge to the store
type MergeError struct {
	WinnerID string
	LoserID  string
	Message  string
	Err      error
}

// Error implements the error interface
func (e *MergeError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("merge of %s into %s failed: %s", e.LoserID, e.WinnerID, e.Message)
	}
	return fmt.Sprintf("merge of %s into %s failed: %v", e.LoserID, e.WinnerID, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *MergeError) Unwrap() error {
	return e.Err
}

// NewMergeError creates a new MergeError
func NewMergeError(winnerID, loserID string, err error) *MergeError {
	return &MergeError{WinnerID: winnerID, LoserID: loserID, Err: err}
}

// StoreError represents an error from the persistence layer
type StoreError struct {
	Operation string // "get", "put", "retire", "audit"
	ID        string
	Err       error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("store %s for %s: %v", e.Operation, e.ID, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError
func NewStoreError(operation, id string, err error) *StoreError {
	return &StoreError{Operation: operation, ID: id, Err: err}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "yaml", "json"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file, message string, err error) *ParseError {
	return &ParseError{Format: format, File: file, Message: message, Err: err}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsSelfPair checks if an error is a self-pair contract violation
func IsSelfPair(err error) bool {
	return errors.Is(err, ErrSelfPair)
}

// IsAlreadyRetired checks if an error is an already-retired conflict
func IsAlreadyRetired(err error) bool {
	return errors.Is(err, ErrAlreadyRetired)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// WrapStore wraps an error as a StoreError
func WrapStore(operation, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewStoreError(operation, id, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}
