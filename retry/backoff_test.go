// Copyright 2026 The Efinet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestZeroBackoff(t *testing.T) {
	backoff := ZeroBackoff{}
	if backoff.Next() != 0 {
		t.Error("invalid interval")
	}
}

func TestConstantBackoff(t *testing.T) {
	backoff := NewConstantBackoff(time.Second)
	if backoff.Next() != time.Second {
		t.Error("invalid interval")
	}
}

func TestExponentialBackoff(t *testing.T) {
	backoff := NewExponentialBackoff(time.Millisecond, 4*time.Millisecond)
	want := []time.Duration{
		time.Millisecond,
		2 * time.Millisecond,
		4 * time.Millisecond,
		4 * time.Millisecond,
	}
	for i, w := range want {
		if got := backoff.Next(); got != w {
			t.Errorf("step %d: got %s, want %s", i, got, w)
		}
	}
	backoff.Reset()
	if got := backoff.Next(); got != time.Millisecond {
		t.Errorf("after reset: got %s, want %s", got, time.Millisecond)
	}
}

func TestMaxTriesBackoff(t *testing.T) {
	backoff := WithMaxRetries(&ZeroBackoff{}, 10)
	for i := 0; i < 10; i++ {
		if backoff.Next() != 0 {
			t.Error("invalid interval")
		}
	}
	if backoff.Next() != Stop {
		t.Error("did not stop")
	}
}

func TestRetryStopsWithLastError(t *testing.T) {
	errBoom := errors.New("boom")
	calls := 0
	err := Retry(context.Background(), WithMaxRetries(&ZeroBackoff{}, 3), func() error {
		calls++
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Errorf("got %v, want %v", err, errBoom)
	}
	if calls != 4 {
		t.Errorf("got %d calls, want 4", calls)
	}
}

func TestRetrySucceeds(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), &ZeroBackoff{}, func() error {
		calls++
		if calls < 3 {
			return errors.New("again")
		}
		return nil
	})
	if err != nil {
		t.Errorf("got %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("got %d calls, want 3", calls)
	}
}

func TestRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, NewConstantBackoff(time.Hour), func() error {
		return errors.New("again")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want %v", err, context.Canceled)
	}
}
