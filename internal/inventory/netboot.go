package inventory

import (
	"fmt"
	"net"
	"regexp"
	"strings"
)

var hostnamePattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?)*$`)

// ValidateSystemName checks that a system name is a resolvable host
// identifier: a hostname, an IPv4 literal, or a MAC literal. The name
// "default" is reserved for the catch-all netboot entry and always valid.
func ValidateSystemName(name string) error {
	if name == "" {
		return fmt.Errorf("system name must not be empty")
	}
	if name == "default" {
		return nil
	}
	if ip := net.ParseIP(name); ip != nil && ip.To4() != nil {
		return nil
	}
	if _, err := net.ParseMAC(name); err == nil {
		return nil
	}
	if hostnamePattern.MatchString(name) {
		return nil
	}
	return fmt.Errorf("name %q is not a hostname, IPv4 address, or MAC address", name)
}

// NetbootFilename returns the boot-config filename for one interface of a
// system. The pxelinux convention encodes the link-layer address as
// "01-aa-bb-cc-dd-ee-ff"; when the interface carries no MAC the IPv4
// address is encoded as eight uppercase hex digits instead.
func NetbootFilename(system *System, ifaceName string) (string, error) {
	if system.Name == "default" {
		return "default", nil
	}

	iface, ok := system.Interfaces[ifaceName]
	if !ok {
		return "", fmt.Errorf("system %q has no interface %q", system.Name, ifaceName)
	}

	if iface.MAC != "" {
		hw, err := net.ParseMAC(iface.MAC)
		if err != nil {
			return "", fmt.Errorf("system %q interface %q: %w", system.Name, ifaceName, err)
		}
		return "01-" + strings.ReplaceAll(hw.String(), ":", "-"), nil
	}

	ip := iface.IP
	if ip == "" {
		// fall back to the system name when it is itself an address
		ip = system.Name
	}
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.To4() == nil {
		return "", fmt.Errorf("system %q interface %q has neither a MAC nor an IPv4 address", system.Name, ifaceName)
	}
	v4 := parsed.To4()
	return fmt.Sprintf("%02X%02X%02X%02X", v4[0], v4[1], v4[2], v4[3]), nil
}
