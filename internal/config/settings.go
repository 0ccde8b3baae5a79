package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DHCPMode selects which DHCP manager the sync pipeline writes config for.
type DHCPMode string

const (
	DHCPModeISC     DHCPMode = "isc"
	DHCPModeDnsmasq DHCPMode = "dnsmasq"
)

// Settings is the process-wide configuration for one sync run. It is loaded
// once at startup and never mutated afterwards.
type Settings struct {
	// BootDir is the root of the network-boot tree (tftp-served).
	BootDir string `yaml:"boot_dir"`
	// WebDir is the root of the http-served tree.
	WebDir string `yaml:"web_dir"`
	// StateDir holds the inventory collections and generated host databases.
	StateDir string `yaml:"state_dir"`

	SnippetDir  string `yaml:"snippet_dir"`
	TemplateDir string `yaml:"template_dir"`
	TriggerDir  string `yaml:"trigger_dir"`

	// Bootloaders maps an architecture tag to the loader binary to copy
	// into the boot tree.
	Bootloaders map[string]string `yaml:"bootloaders"`
	// ExtraLoaders are additional loader support files copied alongside
	// the bootloaders (menu modules and the like).
	ExtraLoaders []string `yaml:"extra_loaders"`

	// Server is the address install clients use to reach this host.
	Server     string `yaml:"server"`
	NextServer string `yaml:"next_server"`
	HTTPPort   int    `yaml:"http_port"`

	ManageDHCP     bool     `yaml:"manage_dhcp"`
	ManageDHCPMode DHCPMode `yaml:"manage_dhcp_mode"`
	DHCPDConf      string   `yaml:"dhcpd_conf"`
	DnsmasqConf    string   `yaml:"dnsmasq_conf"`
	EthersFile     string   `yaml:"ethers_file"`
	HostsFile      string   `yaml:"hosts_file"`

	PXEJustOnce           bool `yaml:"pxe_just_once"`
	RunPostInstallTrigger bool `yaml:"run_post_install_trigger"`
	RepoPostInstallMirror bool `yaml:"repo_post_install_mirror"`
}

// Default returns the settings used when no configuration file exists.
func Default() *Settings {
	return &Settings{
		BootDir:     "/var/lib/kiln/boot",
		WebDir:      "/var/www/kiln",
		StateDir:    "/var/lib/kiln",
		SnippetDir:  "/var/lib/kiln/snippets",
		TemplateDir: "/etc/kiln/templates",
		TriggerDir:  "/var/lib/kiln/triggers",
		Bootloaders: map[string]string{
			"standard": "/usr/share/syslinux/pxelinux.0",
			"ia64":     "/var/lib/kiln/elilo-ia64.efi",
		},
		Server:         "127.0.0.1",
		NextServer:     "127.0.0.1",
		HTTPPort:       80,
		ManageDHCPMode: DHCPModeISC,
		DHCPDConf:      "/etc/dhcpd.conf",
		DnsmasqConf:    "/etc/dnsmasq.conf",
		EthersFile:     "/etc/ethers",
		HostsFile:      "/var/lib/kiln/hosts",
	}
}

// Load reads settings from path, filling unset fields with defaults. A
// missing file yields the defaults unchanged.
func Load(path string) (*Settings, error) {
	settings := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("decode settings %s: %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("settings %s: %w", path, err)
	}
	return settings, nil
}

// Validate checks for values the pipeline cannot work with.
func (s *Settings) Validate() error {
	if s.BootDir == "" {
		return errors.New("boot_dir must not be empty")
	}
	if s.WebDir == "" {
		return errors.New("web_dir must not be empty")
	}
	switch s.ManageDHCPMode {
	case DHCPModeISC, DHCPModeDnsmasq, "":
	default:
		return fmt.Errorf("unknown manage_dhcp_mode %q", s.ManageDHCPMode)
	}
	return nil
}

// DHCPConfPath returns the output path for the active DHCP manager.
func (s *Settings) DHCPConfPath() string {
	if s.ManageDHCPMode == DHCPModeDnsmasq {
		return s.DnsmasqConf
	}
	return s.DHCPDConf
}

// DHCPTemplatePath returns the template path for the active DHCP manager.
// Empty when no template override exists on disk; callers fall back to the
// embedded template.
func (s *Settings) DHCPTemplatePath() string {
	name := "dhcp.template"
	if s.ManageDHCPMode == DHCPModeDnsmasq {
		name = "dnsmasq.template"
	}
	return filepath.Join(s.TemplateDir, name)
}
