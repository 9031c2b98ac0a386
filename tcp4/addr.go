// Copyright 2026 The Efinet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package tcp4

import (
	"fmt"
	"net"
	"strconv"
)

// Ipv4Addr is an IPv4 address in network byte order.
type Ipv4Addr [4]byte

// IPv4 builds an address from its four octets.
func IPv4(a, b, c, d byte) Ipv4Addr {
	return Ipv4Addr{a, b, c, d}
}

func (a Ipv4Addr) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", a[0], a[1], a[2], a[3])
}

// Ipv6Addr is an IPv6 address in network byte order.
type Ipv6Addr [16]byte

func (a Ipv6Addr) String() string {
	return net.IP(a[:]).String()
}

// SocketAddrV4 is an IPv4 address and port. A zero port is legal and means
// "any"; no validation is applied.
type SocketAddrV4 struct {
	addr Ipv4Addr
	port uint16
}

func NewSocketAddrV4(addr Ipv4Addr, port uint16) SocketAddrV4 {
	return SocketAddrV4{addr: addr, port: port}
}

func (s SocketAddrV4) Addr() Ipv4Addr { return s.addr }

func (s SocketAddrV4) Port() uint16 { return s.port }

func (s SocketAddrV4) String() string {
	return net.JoinHostPort(s.addr.String(), strconv.Itoa(int(s.port)))
}

// SocketAddrV6 is an IPv6 address and port. The type exists for call sites
// that carry either family; the transport itself does not implement IPv6.
type SocketAddrV6 struct {
	addr Ipv6Addr
	port uint16
}

func NewSocketAddrV6(addr Ipv6Addr, port uint16) SocketAddrV6 {
	return SocketAddrV6{addr: addr, port: port}
}

func (s SocketAddrV6) Addr() Ipv6Addr { return s.addr }

func (s SocketAddrV6) Port() uint16 { return s.port }

func (s SocketAddrV6) String() string {
	return net.JoinHostPort(s.addr.String(), strconv.Itoa(int(s.port)))
}

// ParseIPv4 parses the dotted-quad representation of an IPv4 address.
func ParseIPv4(src string) (Ipv4Addr, error) {
	ip := net.ParseIP(src)
	v4 := ip.To4()
	if v4 == nil {
		return Ipv4Addr{}, fmt.Errorf("not an IPv4 address: %q", src)
	}
	var a Ipv4Addr
	copy(a[:], v4)
	return a, nil
}

// ParseSocketAddrV4 parses "host:port" where host is a dotted-quad IPv4
// address.
func ParseSocketAddrV4(src string) (SocketAddrV4, error) {
	host, portStr, err := net.SplitHostPort(src)
	if err != nil {
		return SocketAddrV4{}, err
	}
	addr, err := ParseIPv4(host)
	if err != nil {
		return SocketAddrV4{}, err
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return SocketAddrV4{}, fmt.Errorf("bad port in %q: %v", src, err)
	}
	return NewSocketAddrV4(addr, uint16(port)), nil
}
