// Copyright 2026 The Efinet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package emunet provides an in-memory implementation of the efi
// environment contracts backed by a userspace TCP/IP stack with a loopback
// NIC. It exists so the client in package tcp4 can be exercised end to end
// against a real transport without firmware: integration tests and the
// efitcp self-test both run on it.
//
// Unlike real firmware the emulated environment completes operations on
// goroutines, but the contract observed by the client is the same: requests
// return immediately and completion is observed only through the token's
// event.
package emunet

import (
	"fmt"
	"net"
	"sync"

	"go.uber.org/multierr"
	"gvisor.dev/gvisor/pkg/tcpip"
	"gvisor.dev/gvisor/pkg/tcpip/adapters/gonet"
	"gvisor.dev/gvisor/pkg/tcpip/header"
	"gvisor.dev/gvisor/pkg/tcpip/link/loopback"
	"gvisor.dev/gvisor/pkg/tcpip/network/ipv4"
	"gvisor.dev/gvisor/pkg/tcpip/stack"
	"gvisor.dev/gvisor/pkg/tcpip/transport/tcp"

	"github.com/uefi-go/efinet/efi"
)

const nicID = 1

var loopbackAddr = tcpip.AddrFrom4([4]byte{127, 0, 0, 1})

// imageHandle identifies the emulated caller; OpenProtocol accepts any
// non-zero agent, so the exact value only has to be stable.
const imageHandle = efi.Handle(0xef1)

// Env is an emulated environment. It implements efi.BootServices; its
// service-binding singleton for the TCP service is reachable through
// LocateProtocol, as in firmware.
type Env struct {
	stack *stack.Stack

	mu         sync.Mutex
	nextHandle uintptr
	events     map[efi.Event]chan struct{}
	children   map[efi.Handle]*device
}

// New brings up the emulated network: an IPv4+TCP stack with a loopback NIC
// holding 127.0.0.1.
func New() (*Env, error) {
	s := stack.New(stack.Options{
		NetworkProtocols:   []stack.NetworkProtocolFactory{ipv4.NewProtocol},
		TransportProtocols: []stack.TransportProtocolFactory{tcp.NewProtocol},
	})
	if err := s.CreateNIC(nicID, loopback.New()); err != nil {
		s.Close()
		return nil, fmt.Errorf("create loopback NIC: %s", err)
	}
	protoAddr := tcpip.ProtocolAddress{
		Protocol:          ipv4.ProtocolNumber,
		AddressWithPrefix: tcpip.AddressWithPrefix{Address: loopbackAddr, PrefixLen: 8},
	}
	if err := s.AddProtocolAddress(nicID, protoAddr, stack.AddressProperties{}); err != nil {
		s.Close()
		return nil, fmt.Errorf("assign %s: %s", loopbackAddr, err)
	}
	s.SetRouteTable([]tcpip.Route{{Destination: header.IPv4EmptySubnet, NIC: nicID}})

	return &Env{
		stack:    s,
		events:   make(map[efi.Event]chan struct{}),
		children: make(map[efi.Handle]*device),
	}, nil
}

// ImageHandle returns the handle identifying callers of this environment.
func (e *Env) ImageHandle() efi.Handle { return imageHandle }

// ListenTCP opens a listener on 127.0.0.1:port inside the emulated stack.
func (e *Env) ListenTCP(port uint16) (net.Listener, error) {
	return gonet.ListenTCP(e.stack, tcpip.FullAddress{
		NIC:  nicID,
		Addr: loopbackAddr,
		Port: port,
	}, ipv4.ProtocolNumber)
}

// OpenEvents returns the number of events created and not yet closed.
func (e *Env) OpenEvents() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.events)
}

// LiveChildren returns the number of child instances not yet destroyed.
func (e *Env) LiveChildren() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.children)
}

// Close tears the environment down, destroying any children the client
// leaked and stopping the stack.
func (e *Env) Close() error {
	e.mu.Lock()
	var errs error
	for h, d := range e.children {
		if err := d.shutdown(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("child %#x: %w", uintptr(h), err))
		}
		delete(e.children, h)
	}
	e.mu.Unlock()
	e.stack.Close()
	e.stack.Wait()
	return errs
}

// signal marks an event signaled. Signals coalesce: an event carries at most
// one pending signal, which CheckEvent or WaitForEvent consumes. Signaling a
// closed event is a no-op, mirroring completion racing teardown in firmware.
func (e *Env) signal(ev efi.Event) {
	e.mu.Lock()
	ch, ok := e.events[ev]
	e.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (e *Env) CreateEvent() (efi.Event, efi.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextHandle++
	ev := efi.Event(e.nextHandle)
	e.events[ev] = make(chan struct{}, 1)
	return ev, efi.Success
}

func (e *Env) CloseEvent(ev efi.Event) efi.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.events[ev]; !ok {
		return efi.InvalidParameter
	}
	delete(e.events, ev)
	return efi.Success
}

func (e *Env) CheckEvent(ev efi.Event) efi.Status {
	e.mu.Lock()
	ch, ok := e.events[ev]
	e.mu.Unlock()
	if !ok {
		return efi.InvalidParameter
	}
	select {
	case <-ch:
		return efi.Success
	default:
		return efi.NotReady
	}
}

func (e *Env) WaitForEvent(ev efi.Event) efi.Status {
	e.mu.Lock()
	ch, ok := e.events[ev]
	e.mu.Unlock()
	if !ok {
		return efi.InvalidParameter
	}
	<-ch
	return efi.Success
}

func (e *Env) LocateProtocol(guid efi.GUID) (any, efi.Status) {
	if guid != efi.TCP4ServiceBindingGUID {
		return nil, efi.NotFound
	}
	return (*serviceBinding)(e), efi.Success
}

func (e *Env) OpenProtocol(h efi.Handle, guid efi.GUID, agent efi.Handle) (any, efi.Status) {
	if guid != efi.TCP4ProtocolGUID || agent == 0 {
		return nil, efi.Unsupported
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.children[h]
	if !ok {
		return nil, efi.Unsupported
	}
	if d.opened {
		return nil, efi.AccessDenied
	}
	d.opened = true
	return d, efi.Success
}

func (e *Env) CloseProtocol(h efi.Handle, guid efi.GUID, agent efi.Handle) efi.Status {
	if guid != efi.TCP4ProtocolGUID {
		return efi.NotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.children[h]
	if !ok || !d.opened {
		return efi.NotFound
	}
	d.opened = false
	return efi.Success
}

// serviceBinding is the TCP service-binding singleton of an Env.
type serviceBinding Env

func (b *serviceBinding) CreateChild() (efi.Handle, efi.Status) {
	e := (*Env)(b)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextHandle++
	h := efi.Handle(e.nextHandle)
	e.children[h] = &device{env: e}
	return h, efi.Success
}

func (b *serviceBinding) DestroyChild(h efi.Handle) efi.Status {
	e := (*Env)(b)
	e.mu.Lock()
	d, ok := e.children[h]
	if ok {
		delete(e.children, h)
	}
	e.mu.Unlock()
	if !ok {
		return efi.InvalidParameter
	}
	d.shutdown()
	return efi.Success
}
