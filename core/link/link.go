// Package link describes the network path the bridge depends on. The core
// only queries it; bringing the link up is somebody else's job.
package link

// Monitor reports whether a network path to the broker exists.
type Monitor interface {
	IsLinkUp() bool
}

// SignalReporter is implemented by monitors able to report link quality,
// in dBm for wireless links.
type SignalReporter interface {
	SignalStrength() (int, bool)
}

// Func adapts a function to Monitor.
type Func func() bool

func (f Func) IsLinkUp() bool { return f() }

// Always is a Monitor for wired deployments where the link is assumed up.
type Always struct{}

func (Always) IsLinkUp() bool { return true }
