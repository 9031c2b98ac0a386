// Copyright 2026 The Efinet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package emunet

import (
	"context"
	"errors"
	"io"
	"sync"

	"gvisor.dev/gvisor/pkg/tcpip"
	"gvisor.dev/gvisor/pkg/tcpip/adapters/gonet"
	"gvisor.dev/gvisor/pkg/tcpip/network/ipv4"

	"github.com/uefi-go/efinet/efi"
	"github.com/uefi-go/efinet/tcp4"
)

// device is one child instance of the emulated TCP service. It satisfies
// tcp4.Device and tcp4.Canceler. Requests complete on goroutines and report
// through the submitted token's event; the client never observes a result
// before the signal.
type device struct {
	env *Env

	opened bool // guarded by env.mu

	mu         sync.Mutex
	cfg        *tcp4.ConfigData
	conn       *gonet.TCPConn
	dialCancel context.CancelFunc
	closed     bool
}

func (d *device) Configure(cfg *tcp4.ConfigData) efi.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cfg == nil {
		// Reset.
		if d.conn != nil {
			d.conn.Close()
			d.conn = nil
		}
		d.cfg = nil
		d.closed = false
		return efi.Success
	}
	if d.cfg != nil {
		return efi.AlreadyStarted
	}
	if !cfg.AccessPoint.ActiveFlag {
		// Passive (server) mode is not implemented by this environment.
		return efi.Unsupported
	}
	c := *cfg
	d.cfg = &c
	return efi.Success
}

func (d *device) Connect(tok *tcp4.ConnectionToken) efi.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cfg == nil {
		return efi.NotStarted
	}
	if d.conn != nil || d.dialCancel != nil {
		return efi.AccessDenied
	}

	ap := d.cfg.AccessPoint
	remote := tcpip.FullAddress{
		NIC:  nicID,
		Addr: tcpip.AddrFrom4([4]byte(ap.RemoteAddress)),
		Port: ap.RemotePort,
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.dialCancel = cancel

	go func() {
		var conn *gonet.TCPConn
		var err error
		if ap.UseDefaultAddress {
			conn, err = gonet.DialContextTCP(ctx, d.env.stack, remote, ipv4.ProtocolNumber)
		} else {
			local := tcpip.FullAddress{
				NIC:  nicID,
				Addr: tcpip.AddrFrom4([4]byte(ap.StationAddress)),
				Port: ap.StationPort,
			}
			conn, err = gonet.DialTCPWithBind(ctx, d.env.stack, local, remote, ipv4.ProtocolNumber)
		}
		cancel()
		d.mu.Lock()
		d.dialCancel = nil
		switch {
		case err != nil && d.closed:
			tok.Status = efi.Aborted
		case err != nil:
			tok.Status = efi.ConnectionRefused
		default:
			d.conn = conn
			tok.Status = efi.Success
		}
		d.mu.Unlock()
		d.env.signal(tok.Event)
	}()
	return efi.Success
}

func (d *device) Transmit(tok *tcp4.IOToken) efi.Status {
	d.mu.Lock()
	conn := d.conn
	d.mu.Unlock()
	if conn == nil {
		return efi.NotStarted
	}
	go func() {
		n, err := conn.Write(tok.Tx.Data)
		tok.Tx.Done = n
		tok.Status = d.ioStatus(err)
		d.env.signal(tok.Event)
	}()
	return efi.Success
}

func (d *device) Receive(tok *tcp4.IOToken) efi.Status {
	d.mu.Lock()
	conn := d.conn
	d.mu.Unlock()
	if conn == nil {
		return efi.NotStarted
	}
	go func() {
		n, err := conn.Read(tok.Rx.Buf)
		tok.Rx.Len = n
		switch {
		case n > 0:
			tok.Status = efi.Success
		case errors.Is(err, io.EOF):
			tok.Status = efi.ConnectionFin
		default:
			tok.Status = d.ioStatus(err)
		}
		d.env.signal(tok.Event)
	}()
	return efi.Success
}

func (d *device) Close(tok *tcp4.CloseToken) efi.Status {
	go func() {
		d.mu.Lock()
		if d.conn != nil {
			d.conn.Close()
			d.conn = nil
		}
		d.closed = true
		d.mu.Unlock()
		tok.Status = efi.Success
		d.env.signal(tok.Event)
	}()
	return efi.Success
}

// Cancel aborts the outstanding operation by tearing down whatever it is
// blocked on. The operation itself completes the token and signals its
// event; Cancel never signals, so each completion is observed exactly once.
func (d *device) Cancel(*tcp4.CompletionToken) efi.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.dialCancel != nil {
		d.dialCancel()
	}
	if d.conn != nil {
		d.conn.Close()
	}
	return efi.Success
}

func (d *device) ioStatus(err error) efi.Status {
	if err == nil {
		return efi.Success
	}
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return efi.Aborted
	}
	return efi.ConnectionReset
}

// shutdown releases the device's transport state. Called when the child is
// destroyed or the environment is torn down.
func (d *device) shutdown() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.dialCancel != nil {
		d.dialCancel()
	}
	var err error
	if d.conn != nil {
		err = d.conn.Close()
		d.conn = nil
	}
	return err
}
