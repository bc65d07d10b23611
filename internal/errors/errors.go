// Copyright (c) 2025 Subsync
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages. This enables better error categorization, logging,
// and user experience by providing context-aware error information.
//
// The package supports wrapping underlying errors while maintaining error kind information,
// making it easier to handle different types of failures appropriately.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// AuthFailed indicates bad credentials or an expired/invalid token.
	AuthFailed Kind = "auth_failed"
	// ValidationFailed indicates the backend rejected record creation.
	ValidationFailed Kind = "validation_failed"
	// MissingCollection indicates the backend schema is not provisioned yet.
	MissingCollection Kind = "missing_collection"
	// NotFound indicates no record matched the query.
	NotFound Kind = "not_found"
	// NetworkFailed indicates a transport-level failure.
	NetworkFailed Kind = "network_failed"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf extracts the Kind from err, or "" when err carries no kind.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsMissingCollection reports whether err is a missing-collection condition.
func IsMissingCollection(err error) bool { return KindOf(err) == MissingCollection }

// IsNotFound reports whether err is a no-matching-record condition.
func IsNotFound(err error) bool { return KindOf(err) == NotFound }
