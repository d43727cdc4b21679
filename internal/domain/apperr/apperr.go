// Package apperr holds the error taxonomy shared by the prediction core.
//
// Callers match kinds with errors.Is against the sentinels and extract
// details with errors.As against the typed errors.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel kinds.
var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("not found")
	ErrAccessDenied   = errors.New("access denied")
	ErrCacheIntegrity = errors.New("cache integrity violated")
)

// ValidationError reports malformed input or an invalid sport profile.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// Is reports kind equality for errors.Is.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports an unknown sport or entity key.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

// Is reports kind equality for errors.Is.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// AccessDeniedError is a gate rejection. Reason is always set;
// RequiredTier is set when an upgrade would unlock the action.
type AccessDeniedError struct {
	Action       string
	Category     string
	Reason       string
	RequiredTier string
}

func (e *AccessDeniedError) Error() string {
	if e.RequiredTier != "" {
		return fmt.Sprintf("access denied: %s (requires %s tier)", e.Reason, e.RequiredTier)
	}
	return fmt.Sprintf("access denied: %s", e.Reason)
}

// Is reports kind equality for errors.Is.
func (e *AccessDeniedError) Is(target error) bool { return target == ErrAccessDenied }

// CacheIntegrityError is internal only: a cached value that can no longer be
// trusted. It must never reach a caller; it forces a recompute.
type CacheIntegrityError struct {
	Key    string
	Reason string
}

func (e *CacheIntegrityError) Error() string {
	return fmt.Sprintf("cache integrity violated for %q: %s", e.Key, e.Reason)
}

// Is reports kind equality for errors.Is.
func (e *CacheIntegrityError) Is(target error) bool { return target == ErrCacheIntegrity }

// Validation is a shorthand constructor.
func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NotFound is a shorthand constructor.
func NotFound(kind, key string) error {
	return &NotFoundError{Kind: kind, Key: key}
}
