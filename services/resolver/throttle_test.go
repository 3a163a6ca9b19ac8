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
	"testing"
	"time"
)

func TestNewThrottle_WindowValidation(t *testing.T) {
	if _, err := NewThrottle(2*time.Second, time.Second, 0); err == nil {
		t.Error("inverted window accepted")
	}
	if _, err := NewThrottle(-time.Second, time.Second, 0); err == nil {
		t.Error("negative minimum accepted")
	}

	th, err := NewThrottle(0, 0, 0)
	if err != nil {
		t.Fatalf("default window rejected: %v", err)
	}
	if th.minDelay != DefaultMinDelay || th.maxDelay != DefaultMaxDelay {
		t.Errorf("defaults = [%v, %v], want [%v, %v]",
			th.minDelay, th.maxDelay, DefaultMinDelay, DefaultMaxDelay)
	}
}

func TestThrottle_JitterWithinWindow(t *testing.T) {
	th, err := NewThrottle(10*time.Millisecond, 30*time.Millisecond, 0)
	if err != nil {
		t.Fatalf("NewThrottle: %v", err)
	}
	for i := 0; i < 50; i++ {
		d := th.jitter()
		if d < 10*time.Millisecond || d >= 30*time.Millisecond {
			t.Fatalf("jitter %v outside [10ms, 30ms)", d)
		}
	}
}

func TestThrottle_WaitHonorsCancellation(t *testing.T) {
	th, err := NewThrottle(time.Minute, 2*time.Minute, 0)
	if err != nil {
		t.Fatalf("NewThrottle: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := th.Wait(ctx); err == nil {
		t.Error("Wait returned nil under expired context")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Wait blocked %v past cancellation", elapsed)
	}
}

func TestThrottle_NilIsNoop(t *testing.T) {
	var th *Throttle
	start := time.Now()
	if err := th.Wait(context.Background()); err != nil {
		t.Errorf("nil throttle Wait = %v, want nil", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("nil throttle slept %v", elapsed)
	}
}
