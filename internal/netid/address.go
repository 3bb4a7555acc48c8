// FieldPulse - Medical Sales Activity Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldpulse

package netid

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

var privateRanges = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"100.64.0.0/10", // carrier-grade NAT
	"127.0.0.0/8",
	"169.254.0.0/16",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic(err)
		}
		nets = append(nets, n)
	}
	return nets
}

// IsPrivateIP reports whether ipStr is in a private, loopback or
// link-local range. Unparseable input is not private.
func IsPrivateIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, n := range privateRanges {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// IsValidPublicIP reports whether ipStr is a routable unicast address.
func IsValidPublicIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil || ip.IsUnspecified() || ip.IsMulticast() {
		return false
	}
	return !IsPrivateIP(ipStr)
}

// NormalizeAddress strips a port and IPv6 brackets: "[::1]:80" -> "::1",
// "203.0.113.9:443" -> "203.0.113.9".
func NormalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.Trim(addr, "[]")
}

// TrustedProxies lists the peers whose forwarding headers are believed.
// A nil or empty TrustedProxies trusts no peer.
type TrustedProxies struct {
	nets []*net.IPNet
}

// NewTrustedProxies parses entries as single addresses or CIDR ranges.
func NewTrustedProxies(entries []string) (*TrustedProxies, error) {
	t := &TrustedProxies{}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.Contains(e, "/") {
			ip := net.ParseIP(e)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", e)
			}
			bits := 8 * net.IPv4len
			if ip.To4() == nil {
				bits = 8 * net.IPv6len
			}
			t.nets = append(t.nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(e)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", e, err)
		}
		t.nets = append(t.nets, n)
	}
	return t, nil
}

// Trusts reports whether addr belongs to a trusted proxy.
func (t *TrustedProxies) Trusts(addr string) bool {
	if t == nil {
		return false
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, n := range t.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientAddress returns the originating client address of r. Forwarding
// headers are read only when the direct peer is a trusted proxy: the
// right-most X-Forwarded-For entry that is not itself a trusted proxy,
// then X-Real-IP, then the peer address.
func (t *TrustedProxies) ClientAddress(r *http.Request) string {
	peer := NormalizeAddress(r.RemoteAddr)
	if !t.Trusts(peer) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		for i := len(parts) - 1; i >= 0; i-- {
			ip := NormalizeAddress(parts[i])
			if net.ParseIP(ip) == nil {
				break
			}
			if !t.Trusts(ip) {
				return ip
			}
		}
	}
	if xr := NormalizeAddress(r.Header.Get("X-Real-IP")); net.ParseIP(xr) != nil {
		return xr
	}
	return peer
}
