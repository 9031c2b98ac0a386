// Copyright 2026 The Efinet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package tcp4

import "github.com/uefi-go/efinet/efi"

// CompletionToken pairs a completion event with the status the device writes
// when the operation it was submitted with finishes. A token's event must be
// created before the token is passed into any request and closed exactly
// once; the owning connection's state machine enforces both.
type CompletionToken struct {
	Event  efi.Event
	Status efi.Status

	// busy marks an operation in flight on this token. Set before the
	// request is issued, cleared after its completion is observed.
	busy bool
}

func (t *CompletionToken) create(bs efi.BootServices) efi.Status {
	ev, st := bs.CreateEvent()
	if st == efi.Success {
		t.Event = ev
	}
	return st
}

func (t *CompletionToken) destroy(bs efi.BootServices) {
	if t.Event != 0 {
		bs.CloseEvent(t.Event)
		t.Event = 0
	}
}

func (t *CompletionToken) signaled(bs efi.BootServices) bool {
	return bs.CheckEvent(t.Event) == efi.Success
}

// ConnectionToken drives a connect request. It carries no payload beyond the
// completion pair.
type ConnectionToken struct {
	CompletionToken
}

// TransmitData describes one outbound buffer. Done is written by the device
// on completion with the number of bytes it accepted, which may be less than
// len(Data).
type TransmitData struct {
	Push bool
	Data []byte
	Done int
}

// ReceiveData describes capacity for one inbound read. Len is written by the
// device on completion with the number of bytes placed in Buf.
type ReceiveData struct {
	Buf []byte
	Len int
}

// IOToken drives a transmit or receive request; exactly one of Tx and Rx is
// populated per submission.
type IOToken struct {
	CompletionToken
	Tx *TransmitData
	Rx *ReceiveData
}

// CloseToken drives a close request.
type CloseToken struct {
	CompletionToken
	AbortOnClose bool
}
