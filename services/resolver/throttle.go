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
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Default pacing window applied before each physical call to the external
// service, matching its published fair-use guidance.
const (
	DefaultMinDelay = 500 * time.Millisecond
	DefaultMaxDelay = 2 * time.Second
)

// Throttle is the single shared pacing gate for outbound search traffic.
//
// Description:
//
//	Before each physical call the transport asks the throttle to wait. The
//	wait is a delay drawn uniformly from [minDelay, maxDelay], optionally
//	preceded by a token-bucket wait when a hard requests-per-second cap is
//	configured. One Throttle instance is shared by every concurrent
//	resolution; it is the only resource shared across genes.
//
// Thread Safety: Safe for concurrent use. The jitter source is guarded by
// a mutex; rate.Limiter is concurrency-safe by itself.
type Throttle struct {
	mu  sync.Mutex
	rnd *rand.Rand

	minDelay time.Duration
	maxDelay time.Duration

	// limiter is nil unless a requests-per-second cap was configured.
	limiter *rate.Limiter
}

// NewThrottle creates a pacing gate with the given jitter window.
//
// Inputs:
//   - minDelay, maxDelay: Bounds of the uniform jitter window. Both zero
//     selects the defaults; minDelay must not exceed maxDelay.
//   - requestsPerSecond: Hard token-bucket cap on top of the jitter.
//     Zero or negative disables the cap.
//
// Outputs:
//   - *Throttle: The configured gate.
//   - error: Non-nil when the window is inverted or negative.
func NewThrottle(minDelay, maxDelay time.Duration, requestsPerSecond float64) (*Throttle, error) {
	if minDelay == 0 && maxDelay == 0 {
		minDelay = DefaultMinDelay
		maxDelay = DefaultMaxDelay
	}
	if minDelay < 0 || maxDelay < 0 || minDelay > maxDelay {
		return nil, fmt.Errorf("resolver: invalid throttle window [%v, %v]", minDelay, maxDelay)
	}

	t := &Throttle{
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
	if requestsPerSecond > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return t, nil
}

// Wait blocks for the pacing delay or until ctx is done.
//
// Description:
//
//	A nil receiver is a no-op gate, which keeps tests free of real sleeps.
//
// Outputs:
//   - error: ctx.Err() when the context ended before the delay elapsed.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil {
		return nil
	}
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	delay := t.jitter()
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// jitter draws a delay uniformly from [minDelay, maxDelay].
func (t *Throttle) jitter() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.maxDelay == t.minDelay {
		return t.minDelay
	}
	return t.minDelay + time.Duration(t.rnd.Int63n(int64(t.maxDelay-t.minDelay)))
}
