// Package network derives client identities from requests.
package network

import (
	"net"
	"net/http"
	"net/netip"
)

// ClientIP returns the request's client address. It reads RemoteAddr only;
// proxy headers are applied earlier by chi's RealIP middleware. The port,
// if any, is dropped and IPv4-mapped IPv6 addresses are unmapped. When
// RemoteAddr does not parse it is returned as is.
func ClientIP(r *http.Request) string {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return host
	}
	return addr.Unmap().WithZone("").String()
}

// ThrottleKey groups clients for rate limiting: the IPv4 address itself, or
// the /64 network for IPv6, since one IPv6 host usually controls a whole /64.
func ThrottleKey(r *http.Request) string {
	ip := ClientIP(r)
	addr, err := netip.ParseAddr(ip)
	if err != nil || addr.Is4() {
		return ip
	}
	prefix, err := addr.Prefix(64)
	if err != nil {
		return ip
	}
	return prefix.String()
}
