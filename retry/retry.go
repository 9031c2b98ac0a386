// Copyright 2026 The Efinet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package retry

import (
	"context"
	"time"
)

// Retry runs f until it succeeds, the back-off policy says to stop, or the
// context is canceled. It returns nil on the first success, the last error
// from f if the policy stops, or the context's error if it is canceled first.
func Retry(ctx context.Context, b Backoff, f func() error) error {
	b.Reset()
	var err error
	for {
		if err = f(); err == nil {
			return nil
		}
		d := b.Next()
		if d == Stop {
			return err
		}
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
