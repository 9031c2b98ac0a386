// Copyright 2026 The Efinet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package tcp4 implements a client TCP connection on top of a UEFI-style
// environment: a boot-services dispatch table, a TCP service-binding
// singleton that hands out per-connection child instances, and completion
// tokens whose events are the only way to observe I/O finishing.
//
// Everything is single-threaded and cooperative. Dial runs the setup
// sequence to completion or rolls back every resource it acquired; on an
// active connection, Send and Receive each submit one request on the
// connection's long-lived token and wait for its event.
package tcp4

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/multierr"

	"github.com/uefi-go/efinet/efi"
	"github.com/uefi-go/efinet/logger"
	"github.com/uefi-go/efinet/retry"
)

// maxTTL is the time-to-live applied to every connection.
const maxTTL = 255

// defaultPollInterval is the cadence at which deadline-bounded waits poll
// the completion event.
const defaultPollInterval = time.Millisecond

type connState int

const (
	stateUnconfigured connState = iota
	stateBindingCreated
	stateProtocolOpened
	stateActive
	stateClosing
	stateDestroyed
)

func (s connState) String() string {
	switch s {
	case stateUnconfigured:
		return "unconfigured"
	case stateBindingCreated:
		return "binding-created"
	case stateProtocolOpened:
		return "protocol-opened"
	case stateActive:
		return "active"
	case stateClosing:
		return "closing"
	case stateDestroyed:
		return "destroyed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// A Dialer opens TCP connections through an environment's boot services.
// BS and Image are required; Poll, when set, overrides the cadence used to
// poll completion events under a context deadline.
type Dialer struct {
	BS    efi.BootServices
	Image efi.Handle
	Poll  retry.Backoff
}

// Dial opens a connection to addr. On any setup failure every resource
// acquired up to that point is released before the error is returned; a
// partially-constructed connection is never handed out.
func (d *Dialer) Dial(ctx context.Context, addr SocketAddrV4) (*Conn, error) {
	if d.BS == nil {
		return nil, errors.New("tcp4: Dialer without boot services")
	}
	c := &Conn{
		bs:    d.BS,
		image: d.Image,
		poll:  d.Poll,
		raddr: addr,
	}
	if c.poll == nil {
		c.poll = retry.NewConstantBackoff(defaultPollInterval)
	}
	if err := c.connect(ctx, addr); err != nil {
		return nil, err
	}
	return c, nil
}

// Dial6 would open a connection to an IPv6 destination. The transport does
// not implement IPv6; the call fails before touching the environment.
func (d *Dialer) Dial6(ctx context.Context, addr SocketAddrV6) (*Conn, error) {
	return nil, fmt.Errorf("dial %s: IPv6: %w", addr, ErrUnsupported)
}

// Dial opens a connection to addr with a default Dialer.
func Dial(ctx context.Context, bs efi.BootServices, image efi.Handle, addr SocketAddrV4) (*Conn, error) {
	d := Dialer{BS: bs, Image: image}
	return d.Dial(ctx, addr)
}

// Conn is one TCP connection. It exclusively owns a child instance of the
// environment's TCP service, the protocol interface opened on it, and the
// four completion tokens that drive connect, send, receive and close. The
// boot-services table is borrowed, never owned.
//
// Conn is not safe for concurrent use; the environment it targets has a
// single thread of control.
type Conn struct {
	bs    efi.BootServices
	image efi.Handle
	poll  retry.Backoff
	raddr SocketAddrV4

	sb     efi.ServiceBinding
	child  efi.Handle
	device Device

	connectTok ConnectionToken
	sendTok    IOToken
	recvTok    IOToken
	closeTok   CloseToken

	state connState
}

// RemoteAddr returns the destination the connection was dialed to.
func (c *Conn) RemoteAddr() SocketAddrV4 { return c.raddr }

func (c *Conn) connect(ctx context.Context, addr SocketAddrV4) error {
	if ctx == nil {
		ctx = context.Background()
	}
	// Each acquisition pushes its release; any failure unwinds in reverse
	// before the error escapes.
	var undo []func()
	fail := func(err error) error {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		c.state = stateDestroyed
		return err
	}

	for _, tok := range []*CompletionToken{
		&c.connectTok.CompletionToken,
		&c.sendTok.CompletionToken,
		&c.recvTok.CompletionToken,
		&c.closeTok.CompletionToken,
	} {
		tok := tok
		if st := tok.create(c.bs); st != efi.Success {
			return fail(fmt.Errorf("create completion event: %s: %w", st, ErrResourceExhausted))
		}
		undo = append(undo, func() { tok.destroy(c.bs) })
	}

	p, st := c.bs.LocateProtocol(efi.TCP4ServiceBindingGUID)
	if st != efi.Success {
		return fail(fmt.Errorf("locate TCP service binding: %s: %w", st, ErrProtocolUnavailable))
	}
	sb, ok := p.(efi.ServiceBinding)
	if !ok {
		return fail(fmt.Errorf("locate TCP service binding: unexpected interface %T: %w", p, ErrProtocolUnavailable))
	}
	c.sb = sb

	child, st := sb.CreateChild()
	if st != efi.Success {
		return fail(fmt.Errorf("create child instance: %s: %w", st, ErrResourceExhausted))
	}
	c.child = child
	c.state = stateBindingCreated
	undo = append(undo, func() {
		sb.DestroyChild(child)
		c.child = 0
	})

	p, st = c.bs.OpenProtocol(child, efi.TCP4ProtocolGUID, c.image)
	if st != efi.Success {
		return fail(fmt.Errorf("open TCP protocol on child %#x: %s: %w", uintptr(child), st, ErrProtocolUnavailable))
	}
	dev, ok := p.(Device)
	if !ok {
		return fail(fmt.Errorf("open TCP protocol on child %#x: unexpected interface %T: %w", uintptr(child), p, ErrProtocolUnavailable))
	}
	c.device = dev
	c.state = stateProtocolOpened
	undo = append(undo, func() {
		c.bs.CloseProtocol(child, efi.TCP4ProtocolGUID, c.image)
		c.device = nil
	})

	cfg := &ConfigData{
		TimeToLive: maxTTL,
		AccessPoint: AccessPoint{
			UseDefaultAddress: true,
			RemoteAddress:     addr.Addr(),
			RemotePort:        addr.Port(),
			ActiveFlag:        true,
		},
	}
	if st := dev.Configure(cfg); st != efi.Success {
		return fail(fmt.Errorf("configure connection to %s: %s: %w", addr, st, ErrConfigurationRejected))
	}
	logger.Debugf(ctx, "tcp4: child %#x configured for %s", uintptr(child), addr)

	c.connectTok.busy = true
	if st := dev.Connect(&c.connectTok); st != efi.Success {
		c.connectTok.busy = false
		return fail(completionErr(fmt.Sprintf("connect to %s", addr), st, ErrConnectionRefused))
	}
	if err := c.wait(ctx, &c.connectTok.CompletionToken); err != nil {
		return fail(fmt.Errorf("connect to %s: %w", addr, err))
	}
	if st := c.connectTok.Status; st != efi.Success {
		return fail(completionErr(fmt.Sprintf("connect to %s", addr), st, ErrConnectionRefused))
	}
	c.state = stateActive
	logger.Debugf(ctx, "tcp4: connection to %s active", addr)
	return nil
}

// Send transmits b and returns the number of bytes the transport accepted,
// which may be less than len(b); callers loop for full delivery. It waits
// for the transmit completion unless the context expires first.
func (c *Conn) Send(ctx context.Context, b []byte) (int, error) {
	if c.state != stateActive {
		return 0, fmt.Errorf("send: connection %s: %w", c.state, ErrNotConnected)
	}
	c.reclaim(&c.sendTok.CompletionToken)
	if c.sendTok.busy {
		return 0, fmt.Errorf("send: %w", ErrAlreadyInProgress)
	}
	c.sendTok.Status = efi.Success
	c.sendTok.Rx = nil
	c.sendTok.Tx = &TransmitData{Push: true, Data: b}
	c.sendTok.busy = true
	if st := c.device.Transmit(&c.sendTok); st != efi.Success {
		c.sendTok.busy = false
		return 0, completionErr("send", st, ErrConnectionAborted)
	}
	if err := c.wait(ctx, &c.sendTok.CompletionToken); err != nil {
		return 0, fmt.Errorf("send: %w", err)
	}
	if st := c.sendTok.Status; st != efi.Success {
		return 0, completionErr("send", st, ErrConnectionAborted)
	}
	return c.sendTok.Tx.Done, nil
}

// Receive fills buf with the next inbound data and returns the byte count.
// A graceful close by the remote end is reported as io.EOF with a zero
// count, distinct from transport errors.
func (c *Conn) Receive(ctx context.Context, buf []byte) (int, error) {
	if c.state != stateActive {
		return 0, fmt.Errorf("receive: connection %s: %w", c.state, ErrNotConnected)
	}
	c.reclaim(&c.recvTok.CompletionToken)
	if c.recvTok.busy {
		return 0, fmt.Errorf("receive: %w", ErrAlreadyInProgress)
	}
	c.recvTok.Status = efi.Success
	c.recvTok.Tx = nil
	c.recvTok.Rx = &ReceiveData{Buf: buf}
	c.recvTok.busy = true
	if st := c.device.Receive(&c.recvTok); st != efi.Success {
		c.recvTok.busy = false
		return 0, completionErr("receive", st, ErrConnectionAborted)
	}
	if err := c.wait(ctx, &c.recvTok.CompletionToken); err != nil {
		return 0, fmt.Errorf("receive: %w", err)
	}
	switch st := c.recvTok.Status; {
	case st == efi.ConnectionFin:
		return 0, io.EOF
	case st != efi.Success:
		return 0, completionErr("receive", st, ErrConnectionAborted)
	}
	if c.recvTok.Rx.Len == 0 {
		return 0, io.EOF
	}
	return c.recvTok.Rx.Len, nil
}

// Close shuts the connection down gracefully when it is active, then
// releases everything the connection owns in reverse order of acquisition:
// the opened protocol interface, the child instance, and the four
// completion events. Teardown is best-effort; release failures are not
// recoverable and do not stop the remaining steps. A second Close returns
// ErrNotConnected.
func (c *Conn) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	switch c.state {
	case stateClosing, stateDestroyed:
		return fmt.Errorf("close: connection %s: %w", c.state, ErrNotConnected)
	}
	var errs error
	if c.state == stateActive {
		c.state = stateClosing
		c.closeTok.Status = efi.Success
		c.closeTok.busy = true
		if st := c.device.Close(&c.closeTok); st != efi.Success {
			c.closeTok.busy = false
			errs = multierr.Append(errs, completionErr("close", st, ErrConnectionAborted))
		} else if err := c.wait(ctx, &c.closeTok.CompletionToken); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("close: %w", err))
		} else if st := c.closeTok.Status; st != efi.Success {
			errs = multierr.Append(errs, completionErr("close", st, ErrConnectionAborted))
		}
	} else {
		c.state = stateClosing
	}
	c.teardown()
	logger.Debugf(ctx, "tcp4: connection to %s destroyed", c.raddr)
	return errs
}

// teardown releases whatever partial state exists, in reverse order of
// acquisition. Safe to run from any state; release statuses are ignored.
func (c *Conn) teardown() {
	if c.device != nil {
		c.bs.CloseProtocol(c.child, efi.TCP4ProtocolGUID, c.image)
		c.device = nil
	}
	if c.child != 0 {
		c.sb.DestroyChild(c.child)
		c.child = 0
	}
	for _, tok := range []*CompletionToken{
		&c.closeTok.CompletionToken,
		&c.recvTok.CompletionToken,
		&c.sendTok.CompletionToken,
		&c.connectTok.CompletionToken,
	} {
		tok.destroy(c.bs)
	}
	c.state = stateDestroyed
}

// reclaim clears a token left busy by an abandoned wait once its completion
// has actually fired. The stale operation's result is discarded.
func (c *Conn) reclaim(tok *CompletionToken) {
	if tok.busy && tok.signaled(c.bs) {
		tok.busy = false
	}
}

// wait blocks until the token's event fires. Without a cancelable context it
// uses the environment's unbounded wait primitive; with one it polls the
// event on the dialer's backoff cadence so the deadline can be observed.
func (c *Conn) wait(ctx context.Context, tok *CompletionToken) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Done() == nil {
		c.bs.WaitForEvent(tok.Event)
		tok.busy = false
		return nil
	}
	c.poll.Reset()
	for {
		if tok.signaled(c.bs) {
			tok.busy = false
			return nil
		}
		select {
		case <-ctx.Done():
			return c.abortWait(tok)
		default:
		}
		d := c.poll.Next()
		if d == retry.Stop {
			return c.abortWait(tok)
		}
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return c.abortWait(tok)
		case <-t.C:
		}
	}
}

// abortWait gives up on an outstanding operation: it cancels it when the
// device supports cancellation and consumes the completion, otherwise it
// leaves the token busy for a later reclaim.
func (c *Conn) abortWait(tok *CompletionToken) error {
	if ca, ok := c.device.(Canceler); ok {
		ca.Cancel(tok)
		c.bs.WaitForEvent(tok.Event)
		tok.busy = false
	} else if tok.signaled(c.bs) {
		tok.busy = false
	}
	return ErrTimedOut
}
