// Copyright 2026 The Efinet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package tcp4

import "github.com/uefi-go/efinet/efi"

// AccessPoint names the two ends of a connection. With UseDefaultAddress set
// the station address and subnet mask are ignored and the environment's own
// address configuration is used.
type AccessPoint struct {
	UseDefaultAddress bool
	StationAddress    Ipv4Addr
	SubnetMask        Ipv4Addr
	StationPort       uint16
	RemoteAddress     Ipv4Addr
	RemotePort        uint16
	ActiveFlag        bool
}

// ConfigData carries the parameters of a Configure call.
type ConfigData struct {
	TypeOfService uint8
	TimeToLive    uint8
	AccessPoint   AccessPoint
}

// Device is the TCP protocol interface opened on a child instance. Requests
// carrying a token return immediately; the device signals the token's event
// and writes the token's Status when the operation completes. A nil config
// resets the instance.
//
// A device accepts at most one outstanding request per token; submitting a
// token that is already in flight is a caller error.
type Device interface {
	Configure(*ConfigData) efi.Status
	Connect(*ConnectionToken) efi.Status
	Transmit(*IOToken) efi.Status
	Receive(*IOToken) efi.Status
	Close(*CloseToken) efi.Status
}

// Canceler is implemented by devices that can abort an outstanding request.
// Cancel completes the token (typically with an aborted status) and signals
// its event. Deadline-bounded waits require it.
type Canceler interface {
	Cancel(*CompletionToken) efi.Status
}
