package inventory

import (
	"sort"

	"github.com/cochaviz/kiln/arch"
)

// Breed is the install-system family of a distro. It decides which
// directive syntax the generated kernel command line uses to point the
// installer at its autoinstall script.
type Breed string

const (
	BreedRedHat Breed = "redhat"
	BreedSUSE   Breed = "suse"
	BreedDebian Breed = "debian"
)

// Distro is a kernel and an initrd plus architecture and breed metadata.
// It is the root of the inheritance tree.
type Distro struct {
	Name   string            `yaml:"name"`
	Arch   arch.Architecture `yaml:"arch"`
	Breed  Breed             `yaml:"breed"`
	Kernel string            `yaml:"kernel"`
	Initrd string            `yaml:"initrd"`

	KernelOptions map[string]string `yaml:"kernel_options"`
	InstallMeta   map[string]string `yaml:"install_meta"`

	// SourceRepos are URLs of install-source repositories discovered at
	// import time, as (url, path-under-web-root) pairs.
	SourceRepos []string `yaml:"source_repos"`
}

// Profile is an installable configuration built on top of a distro.
type Profile struct {
	Name   string `yaml:"name"`
	Distro string `yaml:"distro"`

	// Autoinstall is a local path or a remote URL to the install script
	// template for this profile.
	Autoinstall string `yaml:"autoinstall"`

	KernelOptions map[string]string `yaml:"kernel_options"`
	InstallMeta   map[string]string `yaml:"install_meta"`

	// Repos are names of attached package repositories.
	Repos []string `yaml:"repos"`

	Server string `yaml:"server"`
}

// Interface is one network interface of a system. MAC and IP are optional,
// but an interface without a MAC never receives a DHCP reservation.
type Interface struct {
	MAC      string `yaml:"mac"`
	IP       string `yaml:"ip"`
	Hostname string `yaml:"hostname"`
	// DHCPTag buckets the reservation into a named insertion point of
	// the DHCP template. Empty means the default bucket.
	DHCPTag string `yaml:"dhcp_tag"`
}

// System is a concrete target machine built on top of a profile.
type System struct {
	Name    string `yaml:"name"`
	Profile string `yaml:"profile"`

	// Interfaces are keyed by a caller-assigned interface name.
	Interfaces map[string]Interface `yaml:"interfaces"`

	NetbootEnabled bool   `yaml:"netboot_enabled"`
	Autoinstall    string `yaml:"autoinstall"`

	KernelOptions map[string]string `yaml:"kernel_options"`
	InstallMeta   map[string]string `yaml:"install_meta"`
}

// InterfaceNames returns the interface keys in sorted order so that
// generated output does not depend on map iteration order.
func (s *System) InterfaceNames() []string {
	names := make([]string, 0, len(s.Interfaces))
	for name := range s.Interfaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Repo is a managed package repository mirrored under the web root.
type Repo struct {
	Name     string            `yaml:"name"`
	Mirror   string            `yaml:"mirror"`
	Metadata map[string]string `yaml:"metadata"`
}
