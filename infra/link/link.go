// Package link provides link.Monitor implementations for the host network.
package link

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kilianp07/sfsbridge/core/factory"
	corelink "github.com/kilianp07/sfsbridge/core/link"
)

var registry = factory.NewRegistry[corelink.Monitor]()

// Register adds a monitor factory identified by name.
func Register(name string, f factory.Factory[corelink.Monitor]) error {
	return registry.Register(name, f)
}

// New builds the monitor described by cfg. An empty type yields a monitor
// that always reports the link up.
func New(cfg factory.ModuleConfig) (corelink.Monitor, error) {
	if cfg.Type == "" {
		return corelink.Always{}, nil
	}
	return registry.Create(cfg)
}

// InterfaceMonitor reports the link up when a network interface is up and
// carries a non-loopback unicast address.
type InterfaceMonitor struct {
	// Name restricts the check to one interface. Empty means any.
	Name string
	// WirelessPath is the kernel wireless statistics file.
	WirelessPath string

	interfaces func() ([]net.Interface, error)
	addrs      func(net.Interface) ([]net.Addr, error)
}

// NewInterfaceMonitor creates a monitor for the named interface.
func NewInterfaceMonitor(name string) *InterfaceMonitor {
	return &InterfaceMonitor{
		Name:         name,
		WirelessPath: "/proc/net/wireless",
		interfaces:   net.Interfaces,
		addrs:        func(i net.Interface) ([]net.Addr, error) { return i.Addrs() },
	}
}

func (m *InterfaceMonitor) IsLinkUp() bool {
	ifaces, err := m.interfaces()
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		if m.Name != "" && iface.Name != m.Name {
			continue
		}
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := m.addrs(iface)
		if err != nil {
			continue
		}
		for _, a := range addrs {
			if ipn, ok := a.(*net.IPNet); ok && ipn.IP.IsGlobalUnicast() {
				return true
			}
		}
	}
	return false
}

// SignalStrength reads the signal level of the interface from the kernel
// wireless statistics. It reports false for wired or unknown interfaces.
func (m *InterfaceMonitor) SignalStrength() (int, bool) {
	f, err := os.Open(m.WirelessPath)
	if err != nil {
		return 0, false
	}
	defer f.Close()
	return parseWireless(bufio.NewScanner(f), m.Name)
}

// parseWireless extracts the level column of /proc/net/wireless:
//
//	Inter-| sta-|   Quality        |   Discarded packets
//	 face | tus | link level noise |  nwid  crypt   frag
//	wlan0: 0000   54.  -56.  -256        0      0      0
func parseWireless(sc *bufio.Scanner, name string) (int, bool) {
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		iface, rest, ok := strings.Cut(line, ":")
		if !ok || strings.Contains(iface, "|") {
			continue
		}
		if name != "" && strings.TrimSpace(iface) != name {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) < 3 {
			continue
		}
		level, err := strconv.ParseFloat(strings.TrimSuffix(fields[2], "."), 64)
		if err != nil {
			continue
		}
		return int(level), true
	}
	return 0, false
}

// ProbeMonitor reports the link up when a TCP connection to Address can be
// opened. Results are cached for Interval to keep Tick cheap.
type ProbeMonitor struct {
	Address  string
	Timeout  time.Duration
	Interval time.Duration

	mu      sync.Mutex
	checked time.Time
	up      bool
	now     func() time.Time
	dial    func(network, addr string, timeout time.Duration) (net.Conn, error)
}

// NewProbeMonitor creates a probe monitor with the given limits.
func NewProbeMonitor(addr string, timeout, interval time.Duration) *ProbeMonitor {
	return &ProbeMonitor{
		Address:  addr,
		Timeout:  timeout,
		Interval: interval,
		now:      time.Now,
		dial:     net.DialTimeout,
	}
}

func (p *ProbeMonitor) IsLinkUp() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	if !p.checked.IsZero() && now.Sub(p.checked) < p.Interval {
		return p.up
	}
	p.checked = now
	conn, err := p.dial("tcp", p.Address, p.Timeout)
	if err != nil {
		p.up = false
		return false
	}
	_ = conn.Close()
	p.up = true
	return true
}

// init registers built-in monitors.
func init() {
	_ = Register("always", func(map[string]any) (corelink.Monitor, error) {
		return corelink.Always{}, nil
	})

	_ = Register("static", func(conf map[string]any) (corelink.Monitor, error) {
		var c struct {
			Up bool `json:"up"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		up := c.Up
		return corelink.Func(func() bool { return up }), nil
	})

	_ = Register("interface", func(conf map[string]any) (corelink.Monitor, error) {
		var c struct {
			Name string `json:"name"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInterfaceMonitor(c.Name), nil
	})

	_ = Register("probe", func(conf map[string]any) (corelink.Monitor, error) {
		var c struct {
			Address    string `json:"address"`
			TimeoutMS  int    `json:"timeout_ms"`
			IntervalMS int    `json:"interval_ms"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Address == "" {
			return nil, fmt.Errorf("probe link monitor: address required")
		}
		if c.TimeoutMS <= 0 {
			c.TimeoutMS = 500
		}
		if c.IntervalMS <= 0 {
			c.IntervalMS = 5000
		}
		return NewProbeMonitor(c.Address,
			time.Duration(c.TimeoutMS)*time.Millisecond,
			time.Duration(c.IntervalMS)*time.Millisecond), nil
	})
}
