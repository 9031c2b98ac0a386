// Copyright 2026 The Efinet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package tcp4

import "testing"

func TestIpv4AddrString(t *testing.T) {
	if got, want := IPv4(10, 0, 0, 1).String(), "10.0.0.1"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSocketAddrV4(t *testing.T) {
	s := NewSocketAddrV4(IPv4(192, 0, 2, 7), 443)
	if got := s.Addr(); got != IPv4(192, 0, 2, 7) {
		t.Errorf("Addr: got %v", got)
	}
	if got := s.Port(); got != 443 {
		t.Errorf("Port: got %d, want 443", got)
	}
	if got, want := s.String(), "192.0.2.7:443"; got != want {
		t.Errorf("String: got %q, want %q", got, want)
	}
}

func TestSocketAddrV4ZeroPort(t *testing.T) {
	// Port zero is legal and means "any".
	s := NewSocketAddrV4(IPv4(0, 0, 0, 0), 0)
	if got := s.Port(); got != 0 {
		t.Errorf("Port: got %d, want 0", got)
	}
}

func TestSocketAddrV6String(t *testing.T) {
	s := NewSocketAddrV6(Ipv6Addr{15: 1}, 8080)
	if got, want := s.String(), "[::1]:8080"; got != want {
		t.Errorf("String: got %q, want %q", got, want)
	}
}

func TestParseIPv4(t *testing.T) {
	for _, tc := range []struct {
		src  string
		want Ipv4Addr
		ok   bool
	}{
		{"127.0.0.1", IPv4(127, 0, 0, 1), true},
		{"255.255.255.255", IPv4(255, 255, 255, 255), true},
		{"::1", Ipv4Addr{}, false},
		{"not-an-address", Ipv4Addr{}, false},
		{"", Ipv4Addr{}, false},
	} {
		got, err := ParseIPv4(tc.src)
		if tc.ok != (err == nil) {
			t.Errorf("ParseIPv4(%q): err = %v, want ok=%v", tc.src, err, tc.ok)
			continue
		}
		if tc.ok && got != tc.want {
			t.Errorf("ParseIPv4(%q): got %v, want %v", tc.src, got, tc.want)
		}
	}
}

func TestParseSocketAddrV4(t *testing.T) {
	got, err := ParseSocketAddrV4("192.0.2.1:8080")
	if err != nil {
		t.Fatalf("ParseSocketAddrV4: %v", err)
	}
	if want := NewSocketAddrV4(IPv4(192, 0, 2, 1), 8080); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	for _, bad := range []string{"192.0.2.1", "[::1]:80", "192.0.2.1:notaport", "192.0.2.1:99999"} {
		if _, err := ParseSocketAddrV4(bad); err == nil {
			t.Errorf("ParseSocketAddrV4(%q): expected error", bad)
		}
	}
}
