package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	settings, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Default()
	if settings.BootDir != want.BootDir || settings.WebDir != want.WebDir {
		t.Fatalf("Load() = %+v, want defaults", settings)
	}
	if settings.ManageDHCPMode != DHCPModeISC {
		t.Fatalf("ManageDHCPMode = %q, want %q", settings.ManageDHCPMode, DHCPModeISC)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := `
boot_dir: /srv/boot
web_dir: /srv/web
server: 10.0.0.1
http_port: 8080
manage_dhcp: true
manage_dhcp_mode: dnsmasq
pxe_just_once: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if settings.BootDir != "/srv/boot" {
		t.Fatalf("BootDir = %q, want /srv/boot", settings.BootDir)
	}
	if settings.Server != "10.0.0.1" {
		t.Fatalf("Server = %q, want 10.0.0.1", settings.Server)
	}
	if settings.HTTPPort != 8080 {
		t.Fatalf("HTTPPort = %d, want 8080", settings.HTTPPort)
	}
	if !settings.ManageDHCP || settings.ManageDHCPMode != DHCPModeDnsmasq {
		t.Fatalf("dhcp settings = %v/%q, want true/dnsmasq", settings.ManageDHCP, settings.ManageDHCPMode)
	}
	// unset fields keep their defaults
	if settings.StateDir != Default().StateDir {
		t.Fatalf("StateDir = %q, want default", settings.StateDir)
	}
}

func TestLoadRejectsUnknownDHCPMode(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("manage_dhcp_mode: kea\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load() error = nil, want non-nil")
	}
}

func TestValidateEmptyDirs(t *testing.T) {
	t.Parallel()

	settings := Default()
	settings.BootDir = ""
	if err := settings.Validate(); err == nil {
		t.Fatal("Validate() error = nil for empty boot_dir, want non-nil")
	}

	settings = Default()
	settings.WebDir = ""
	if err := settings.Validate(); err == nil {
		t.Fatal("Validate() error = nil for empty web_dir, want non-nil")
	}
}

func TestDHCPConfPath(t *testing.T) {
	t.Parallel()

	settings := Default()
	settings.DHCPDConf = "/etc/dhcpd.conf"
	settings.DnsmasqConf = "/etc/dnsmasq.conf"

	settings.ManageDHCPMode = DHCPModeISC
	if got := settings.DHCPConfPath(); got != "/etc/dhcpd.conf" {
		t.Fatalf("DHCPConfPath() = %q, want /etc/dhcpd.conf", got)
	}
	settings.ManageDHCPMode = DHCPModeDnsmasq
	if got := settings.DHCPConfPath(); got != "/etc/dnsmasq.conf" {
		t.Fatalf("DHCPConfPath() = %q, want /etc/dnsmasq.conf", got)
	}
}
