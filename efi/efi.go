// Copyright 2026 The Efinet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package efi defines the narrow contracts this module consumes from a
// UEFI-style pre-boot environment: opaque handles, completion events, and
// the slice of the boot-services dispatch table a protocol client needs.
//
// The environment is single-threaded and cooperative. The only completion
// primitive is an event: the environment marks it signaled when an
// asynchronous operation finishes, and the caller either blocks on it with
// WaitForEvent or polls it with CheckEvent. Both consume the signal.
package efi

import "fmt"

// Handle identifies an object in the environment's handle space. Handles are
// opaque; zero is never a valid handle.
type Handle uintptr

// Event is a completion signal allocated through BootServices.CreateEvent.
// An event must be closed exactly once, and only while no operation holds it.
type Event uintptr

// GUID names a protocol in the environment's protocol database.
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

func (g GUID) String() string {
	return fmt.Sprintf("%08x-%04x-%04x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		g.Data1, g.Data2, g.Data3,
		g.Data4[0], g.Data4[1], g.Data4[2], g.Data4[3],
		g.Data4[4], g.Data4[5], g.Data4[6], g.Data4[7])
}

// Protocol GUIDs for the TCP-over-IPv4 service, as published by the UEFI
// network stack.
var (
	TCP4ProtocolGUID = GUID{0x65530bc7, 0xa359, 0x410f,
		[8]byte{0xb0, 0x10, 0x5a, 0xad, 0xc7, 0xec, 0x2b, 0x62}}
	TCP4ServiceBindingGUID = GUID{0x00720665, 0x67eb, 0x4a99,
		[8]byte{0xba, 0xf7, 0xd3, 0xc3, 0x3a, 0x1c, 0x7c, 0xc9}}
)

// BootServices is the slice of the environment's dispatch table used by
// protocol clients. It is a process-wide singleton owned by the environment;
// clients borrow it and must never assume it can be torn down.
//
// Methods report failure through a Status rather than an error so that the
// raw environment codes stay inside the packages that translate them.
type BootServices interface {
	// CreateEvent allocates a completion event in the unsignaled state.
	CreateEvent() (Event, Status)

	// CloseEvent releases an event. Closing an event twice is a caller
	// error with undefined results; owners must track liveness themselves.
	CloseEvent(Event) Status

	// CheckEvent reports whether the event is signaled without blocking:
	// Success if it was (consuming the signal), NotReady if it was not.
	CheckEvent(Event) Status

	// WaitForEvent blocks the caller until the event is signaled, then
	// consumes the signal. The wait is unbounded.
	WaitForEvent(Event) Status

	// LocateProtocol finds the sole instance of a protocol in the
	// environment's database, typically a service-binding singleton.
	LocateProtocol(GUID) (any, Status)

	// OpenProtocol opens a protocol interface installed on handle on
	// behalf of the agent (the caller's image handle). The returned
	// interface is valid until CloseProtocol.
	OpenProtocol(handle Handle, protocol GUID, agent Handle) (any, Status)

	// CloseProtocol ends the agent's use of a protocol interface
	// previously obtained through OpenProtocol.
	CloseProtocol(handle Handle, protocol GUID, agent Handle) Status
}

// ServiceBinding creates and destroys per-connection child instances of a
// shared network service. It is obtained through LocateProtocol.
type ServiceBinding interface {
	// CreateChild allocates a child instance and returns its handle. The
	// caller owns the handle and must destroy it through DestroyChild.
	CreateChild() (Handle, Status)

	// DestroyChild releases a child instance and everything the service
	// holds for it.
	DestroyChild(Handle) Status
}
