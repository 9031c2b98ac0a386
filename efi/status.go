// Copyright 2026 The Efinet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package efi

import "fmt"

// Status is an environment status code. The numbering follows the UEFI
// convention: zero is success and error codes carry the high bit.
type Status uintptr

const errBit = ^Status(0)>>1 + 1

const (
	Success Status = 0

	LoadError        = errBit | 1
	InvalidParameter = errBit | 2
	Unsupported      = errBit | 3
	NotReady         = errBit | 6
	DeviceError      = errBit | 7
	OutOfResources   = errBit | 9
	NotFound         = errBit | 14
	AccessDenied     = errBit | 15
	NoMapping        = errBit | 17
	Timeout          = errBit | 18
	NotStarted       = errBit | 19
	AlreadyStarted   = errBit | 20
	Aborted          = errBit | 21

	// TCP completion codes.
	NetworkUnreachable  = errBit | 100
	HostUnreachable     = errBit | 101
	ProtocolUnreachable = errBit | 102
	PortUnreachable     = errBit | 103
	ConnectionFin       = errBit | 104
	ConnectionReset     = errBit | 105
	ConnectionRefused   = errBit | 106
)

// IsError reports whether s is an error code (as opposed to success or a
// warning).
func (s Status) IsError() bool { return s&errBit != 0 }

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case LoadError:
		return "load error"
	case InvalidParameter:
		return "invalid parameter"
	case Unsupported:
		return "unsupported"
	case NotReady:
		return "not ready"
	case DeviceError:
		return "device error"
	case OutOfResources:
		return "out of resources"
	case NotFound:
		return "not found"
	case AccessDenied:
		return "access denied"
	case NoMapping:
		return "no mapping"
	case Timeout:
		return "timeout"
	case NotStarted:
		return "not started"
	case AlreadyStarted:
		return "already started"
	case Aborted:
		return "aborted"
	case NetworkUnreachable:
		return "network unreachable"
	case HostUnreachable:
		return "host unreachable"
	case ProtocolUnreachable:
		return "protocol unreachable"
	case PortUnreachable:
		return "port unreachable"
	case ConnectionFin:
		return "connection fin"
	case ConnectionReset:
		return "connection reset"
	case ConnectionRefused:
		return "connection refused"
	default:
		return fmt.Sprintf("status %#x", uintptr(s))
	}
}
