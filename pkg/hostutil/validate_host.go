// Package hostutil checks host strings taken from settings files.
package hostutil

import (
	"fmt"
	"net/netip"
	"strings"
)

// ValidateHost accepts an IPv4 address, a bracketed or bare IPv6 address, or
// an RFC 1123 hostname. An empty string is rejected.
func ValidateHost(raw string) error {
	switch {
	case raw == "":
		return fmt.Errorf("empty host")
	case looksLikeIPv4(raw):
		if a, err := netip.ParseAddr(raw); err != nil || !a.Is4() {
			return fmt.Errorf("bad IPv4: '%s'", raw)
		}
	case strings.Contains(raw, ":"):
		if a, err := netip.ParseAddr(strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]")); err != nil || !a.Is6() {
			return fmt.Errorf("bad IPv6: '%s'", raw)
		}
	default:
		if !validHostname(raw) {
			return fmt.Errorf("bad hostname: '%s'", raw)
		}
	}
	return nil
}

// ValidateHostPort splits host:port and validates the host part.
func ValidateHostPort(raw string) error {
	i := strings.LastIndex(raw, ":")
	if i <= 0 || i == len(raw)-1 {
		return fmt.Errorf("want host:port, got '%s'", raw)
	}
	return ValidateHost(raw[:i])
}

// looksLikeIPv4 reports a dotted quad of digit groups.
func looksLikeIPv4(raw string) bool {
	parts := strings.Split(raw, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if p == "" || strings.Trim(p, "0123456789") != "" {
			return false
		}
	}
	return true
}

func validHostname(raw string) bool {
	if len(raw) > 253 {
		return false
	}
	for _, label := range strings.Split(raw, ".") {
		if len(label) < 1 || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, r := range label {
			if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-') {
				return false
			}
		}
	}
	return true
}
