package service

import (
	"context"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"
)

// LocalAddrLister returns the IPv4 addresses bound to this device's interfaces,
// with a small in-memory cache. The panel shows them so the operator can pick
// an explicit rtsp_host when the device has several networks (eth0 + wlan0).
//
//   - Loopback and link-local (169.254/16) addresses are skipped unless asked for.
//   - Interfaces that are down are skipped.
//   - Read-heavy; cached list is copied out under an RWMutex.
type LocalAddrLister struct {
	mu      sync.RWMutex
	cache   []IPv4Address
	expires time.Time
	opts    LocalAddrListerOptions
	now     func() time.Time // for tests; default time.Now
	ifaces  func() ([]net.Interface, error)
	addrs   func(net.Interface) ([]net.Addr, error)
}

type LocalAddrListerOptions struct {
	TTL              time.Duration // Cache TTL, default 15s
	IncludeLoopback  bool          // Include 127.0.0.0/8
	IncludeLinkLocal bool          // Include 169.254.0.0/16
}

// IPv4Address is one interface address.
type IPv4Address struct {
	Iface     string `json:"iface"`     // e.g. "eth0"
	LocalAddr string `json:"localaddr"` // e.g. "192.168.1.10"
	Scope     string `json:"scope"`     // "global" | "link" | "loopback"
}

// NewLocalAddrLister creates the lister with provided options.
func NewLocalAddrLister(opts LocalAddrListerOptions) *LocalAddrLister {
	if opts.TTL <= 0 {
		opts.TTL = 15 * time.Second
	}
	return &LocalAddrLister{
		opts:   opts,
		now:    time.Now,
		ifaces: net.Interfaces,
		addrs:  func(ifc net.Interface) ([]net.Addr, error) { return ifc.Addrs() },
	}
}

// Invalidate clears the cache so the next call refetches immediately.
func (s *LocalAddrLister) Invalidate() {
	s.mu.Lock()
	s.cache = nil
	s.expires = time.Time{}
	s.mu.Unlock()
}

// GetLocalAddrs returns IPv4 addresses sorted by interface then address (cached).
func (s *LocalAddrLister) GetLocalAddrs(ctx context.Context) ([]IPv4Address, error) {
	s.mu.RLock()
	if s.cache != nil && s.now().Before(s.expires) {
		out := append([]IPv4Address(nil), s.cache...)
		s.mu.RUnlock()
		return out, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine could have already refreshed; re-check
	if s.cache != nil && s.now().Before(s.expires) {
		return append([]IPv4Address(nil), s.cache...), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	list, err := s.list()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}
	s.cache = list
	s.expires = s.now().Add(s.opts.TTL)

	return append([]IPv4Address(nil), s.cache...), nil
}

func (s *LocalAddrLister) list() ([]IPv4Address, error) {
	sysIfaces, err := s.ifaces()
	if err != nil {
		return nil, err
	}

	out := []IPv4Address{}
	for _, ifc := range sysIfaces {
		if ifc.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, _ := s.addrs(ifc)
		for _, a := range addrs {
			var ip net.IP
			switch v := a.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			v4 := ip.To4()
			if v4 == nil {
				continue
			}

			scope := classifyScope(v4)
			if scope == "loopback" && !s.opts.IncludeLoopback {
				continue
			}
			if scope == "link" && !s.opts.IncludeLinkLocal {
				continue
			}
			out = append(out, IPv4Address{Iface: ifc.Name, LocalAddr: v4.String(), Scope: scope})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Iface == out[j].Iface {
			return out[i].LocalAddr < out[j].LocalAddr
		}
		return out[i].Iface < out[j].Iface
	})
	return out, nil
}

func classifyScope(v4 net.IP) string {
	switch {
	case v4.IsLoopback():
		return "loopback"
	case v4.IsLinkLocalUnicast():
		return "link"
	}
	return "global"
}
