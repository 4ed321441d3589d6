package service

import (
	"context"
	"net"
	"time"
)

// FallbackLANAddress is reported when no LAN address can be determined.
const FallbackLANAddress = "127.0.0.1"

// defaultProbeAddr is a non-routable private address. Dialing UDP sends no packet;
// it only makes the kernel pick the source address of the default route.
const defaultProbeAddr = "10.254.254.254:1"

// LANAddressDiscoverer finds the host's primary IPv4 address on the local network.
type LANAddressDiscoverer struct {
	probe string
	dial  func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewLANAddressDiscoverer returns a discoverer probing the default route.
func NewLANAddressDiscoverer() *LANAddressDiscoverer {
	d := &net.Dialer{Timeout: time.Second}
	return &LANAddressDiscoverer{
		probe: defaultProbeAddr,
		dial:  d.DialContext,
	}
}

// DiscoverLANAddress returns the source address used to reach the LAN,
// or FallbackLANAddress on any failure (no route, no interface).
func (d *LANAddressDiscoverer) DiscoverLANAddress(ctx context.Context) string {
	conn, err := d.dial(ctx, "udp4", d.probe)
	if err != nil {
		return FallbackLANAddress
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP == nil || addr.IP.IsUnspecified() {
		return FallbackLANAddress
	}
	return addr.IP.String()
}
