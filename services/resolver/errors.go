// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolver

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a resolution (or a transport call) failed.
//
// Description:
//
//	The kinds partition failed genes into actionable buckets: NotFound is
//	generally not worth blind retrying, while RateLimited and TransportError
//	are good candidates for a later re-run of just the failed subset.
type FailureKind string

const (
	// KindInvalidInput marks a blank gene symbol, rejected before any
	// network activity.
	KindInvalidInput FailureKind = "invalid_input"

	// KindNotFound marks a waterfall that exhausted every strategy with
	// zero candidates.
	KindNotFound FailureKind = "not_found"

	// KindRateLimited marks a transport whose retry ceiling was reached
	// while the server kept answering 429.
	KindRateLimited FailureKind = "rate_limited"

	// KindTransportError marks exhausted retries on network failures,
	// timeouts, or 5xx responses.
	KindTransportError FailureKind = "transport_error"
)

// Failure is the error type carried by failed resolutions and returned by
// transport implementations.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type Failure struct {
	// Kind is the classification used for metric labels and report output.
	Kind FailureKind

	// Err is the underlying cause. May be nil for kinds that have no
	// lower-level error (InvalidInput, NotFound).
	Err error
}

// NewFailure builds a Failure of the given kind wrapping cause.
func NewFailure(kind FailureKind, cause error) *Failure {
	return &Failure{Kind: kind, Err: cause}
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (f *Failure) Unwrap() error {
	return f.Err
}

// KindOf extracts the FailureKind from err.
//
// Outputs:
//   - FailureKind: The kind if err is (or wraps) a *Failure.
//   - bool: False when err is nil or carries no Failure.
func KindOf(err error) (FailureKind, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return "", false
}
