// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tunnelhttp

import "fmt"

// VPNStatus is the state of the VPN tunnel as reported by the system.
type VPNStatus uint8

const (
	VPNInvalid VPNStatus = iota
	VPNDisconnected
	VPNConnecting
	VPNConnected
	VPNReasserting
	VPNDisconnecting
)

func (s VPNStatus) String() string {
	switch s {
	case VPNInvalid:
		return "invalid"
	case VPNDisconnected:
		return "disconnected"
	case VPNConnecting:
		return "connecting"
	case VPNConnected:
		return "connected"
	case VPNReasserting:
		return "reasserting"
	case VPNDisconnecting:
		return "disconnecting"
	default:
		return fmt.Sprintf("VPNStatus(%d)", uint8(s))
	}
}

// TunnelIntent is what the user last asked the tunnel to do.
type TunnelIntent uint8

const (
	IntentNone TunnelIntent = iota
	IntentStart
	IntentStop
)

func (i TunnelIntent) String() string {
	switch i {
	case IntentNone:
		return "none"
	case IntentStart:
		return "start"
	case IntentStop:
		return "stop"
	default:
		return fmt.Sprintf("TunnelIntent(%d)", uint8(i))
	}
}

// TunnelStatus pairs the user's intent with the observed VPN status.
type TunnelStatus struct {
	Intent TunnelIntent
	VPN    VPNStatus
}

// Connected reports whether requests may be issued: the VPN is connected
// and the user has not asked it to stop.
func (s TunnelStatus) Connected() bool {
	return s.VPN == VPNConnected && s.Intent != IntentStop
}

func (s TunnelStatus) String() string {
	return fmt.Sprintf("%s/%s", s.Intent, s.VPN)
}

// ResourceStatus is the live state behind a [Connection].
type ResourceStatus struct {
	// Released is set once the tunnel provider backing the handle is gone.
	Released bool
	VPN      VPNStatus
}

// Connected reports whether the handle can carry a request right now.
func (s ResourceStatus) Connected() bool {
	return !s.Released && s.VPN == VPNConnected
}

// Connection is a handle to the tunnel provider. Handles are compared by
// identity: a new handle means a new provider.
type Connection struct {
	status func() ResourceStatus
}

// NewConnection returns a handle whose live state is read from status.
func NewConnection(status func() ResourceStatus) *Connection {
	if status == nil {
		panic("tunnelhttp: nil connection status")
	}
	return &Connection{status: status}
}

// Status reads the live state of the handle.
func (c *Connection) Status() ResourceStatus {
	return c.status()
}
