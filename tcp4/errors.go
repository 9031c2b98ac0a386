// Copyright 2026 The Efinet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package tcp4

import (
	"errors"
	"fmt"

	"github.com/uefi-go/efinet/efi"
)

// Errors surfaced by this package. Callers match them with errors.Is; the
// raw environment status that produced one is carried in the message only.
var (
	ErrResourceExhausted     = errors.New("resource exhausted")
	ErrProtocolUnavailable   = errors.New("protocol unavailable")
	ErrConfigurationRejected = errors.New("configuration rejected")
	ErrConnectionRefused     = errors.New("connection refused")
	ErrConnectionReset       = errors.New("connection reset")
	ErrConnectionAborted     = errors.New("connection aborted")
	ErrUnsupported           = errors.New("unsupported")
	ErrAlreadyInProgress     = errors.New("operation already in progress")
	ErrNotConnected          = errors.New("not connected")
	ErrTimedOut              = errors.New("timed out")
)

// completionErr translates a transport completion status into the package
// taxonomy. The exact status a given environment reports for a given failure
// varies; anything unrecognized maps to fallback.
func completionErr(op string, s efi.Status, fallback error) error {
	var err error
	switch s {
	case efi.ConnectionRefused:
		err = ErrConnectionRefused
	case efi.ConnectionReset:
		err = ErrConnectionReset
	case efi.Aborted:
		err = ErrConnectionAborted
	case efi.Timeout:
		err = ErrTimedOut
	case efi.NetworkUnreachable, efi.HostUnreachable,
		efi.ProtocolUnreachable, efi.PortUnreachable:
		err = ErrConnectionRefused
	case efi.OutOfResources:
		err = ErrResourceExhausted
	default:
		err = fallback
	}
	return fmt.Errorf("%s: %s: %w", op, s, err)
}
