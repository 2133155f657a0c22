package platform

import (
	"fmt"
	"net"
	"strings"
)

// InterfaceInfo describes one local network interface.
type InterfaceInfo struct {
	Name      string   `json:"name"`
	Index     int      `json:"index"`
	MTU       int      `json:"mtu"`
	MAC       string   `json:"mac,omitempty"`
	Up        bool     `json:"up"`
	Loopback  bool     `json:"loopback"`
	Addresses []string `json:"addresses,omitempty"`
}

// ListInterfaces enumerates local interfaces usable as probe endpoints.
func ListInterfaces() ([]InterfaceInfo, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}
	out := make([]InterfaceInfo, 0, len(ifaces))
	for _, iface := range ifaces {
		info := InterfaceInfo{
			Name:     iface.Name,
			Index:    iface.Index,
			MTU:      iface.MTU,
			MAC:      iface.HardwareAddr.String(),
			Up:       iface.Flags&net.FlagUp != 0,
			Loopback: iface.Flags&net.FlagLoopback != 0,
		}
		if addrs, err := iface.Addrs(); err == nil {
			for _, addr := range addrs {
				info.Addresses = append(info.Addresses, addr.String())
			}
		}
		out = append(out, info)
	}
	return out, nil
}

// FindInterface looks an interface up by name, case-insensitively.
func FindInterface(name string) (InterfaceInfo, error) {
	if strings.TrimSpace(name) == "" {
		return InterfaceInfo{}, fmt.Errorf("interface name is required")
	}
	infos, err := ListInterfaces()
	if err != nil {
		return InterfaceInfo{}, err
	}
	for _, info := range infos {
		if strings.EqualFold(info.Name, name) {
			return info, nil
		}
	}
	return InterfaceInfo{}, fmt.Errorf("interface %q not found", name)
}
