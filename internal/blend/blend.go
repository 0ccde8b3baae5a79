// Package blend resolves the effective configuration of an object by
// composing it with its ancestor chain. Scalars are overridden by the more
// specific level, mapping-valued fields merge key-by-key, and inherited
// collections are unioned. Results are memoized for the duration of one
// sync run.
package blend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cochaviz/kiln/arch"
	"github.com/cochaviz/kiln/internal/config"
	"github.com/cochaviz/kiln/internal/inventory"
)

// BrokenReferenceError reports an object whose parent reference does not
// resolve to a loaded object. It always aborts the run.
type BrokenReferenceError struct {
	Kind    string
	Name    string
	RefKind string
	RefName string
}

func (e *BrokenReferenceError) Error() string {
	return fmt.Sprintf("%s %q references missing %s %q", e.Kind, e.Name, e.RefKind, e.RefName)
}

// Config is the blended, effective configuration of one object. It is
// derived and ephemeral: built per run, never persisted.
type Config struct {
	Name  string
	Kind  string
	Arch  arch.Architecture
	Breed inventory.Breed

	Kernel string
	Initrd string

	// Autoinstall is the resolved install-script reference, possibly
	// inherited depending on the blend flag.
	Autoinstall string

	Server     string
	NextServer string

	KernelOptions map[string]string
	InstallMeta   map[string]string

	Repos       []string
	SourceRepos []string

	Interfaces     map[string]inventory.Interface
	NetbootEnabled bool

	// Extra carries opaque pass-through values the renderer may need.
	Extra map[string]string
}

// Blender walks ancestor chains against the run's object store. The memo
// cache is scoped to the blender, which is itself scoped to one run.
type Blender struct {
	store    *inventory.Store
	settings *config.Settings
	cache    map[cacheKey]*Config
}

type cacheKey struct {
	kind             string
	name             string
	preferParentAuto bool
}

// New returns a blender bound to the given store and settings.
func New(store *inventory.Store, settings *config.Settings) *Blender {
	return &Blender{
		store:    store,
		settings: settings,
		cache:    map[cacheKey]*Config{},
	}
}

// Distro blends a distro, the root of the chain.
func (b *Blender) Distro(d *inventory.Distro) (*Config, error) {
	key := cacheKey{kind: "distro", name: d.Name}
	if cached, ok := b.cache[key]; ok {
		return cached, nil
	}

	cfg := b.base()
	cfg.Kind = "distro"
	applyDistro(cfg, d)

	b.cache[key] = cfg
	return cfg, nil
}

// Profile blends a profile with its distro. When preferParentAutoinstall
// is set an unset install-script reference falls back to the parent chain;
// otherwise it stays unset.
func (b *Blender) Profile(p *inventory.Profile, preferParentAutoinstall bool) (*Config, error) {
	key := cacheKey{kind: "profile", name: p.Name, preferParentAuto: preferParentAutoinstall}
	if cached, ok := b.cache[key]; ok {
		return cached, nil
	}

	distro := b.store.Distro(p.Distro)
	if distro == nil {
		return nil, &BrokenReferenceError{Kind: "profile", Name: p.Name, RefKind: "distro", RefName: p.Distro}
	}

	cfg := b.base()
	cfg.Kind = "profile"
	applyDistro(cfg, distro)
	applyProfile(cfg, p)

	b.cache[key] = cfg
	return cfg, nil
}

// System blends a system with its profile and distro.
func (b *Blender) System(s *inventory.System, preferParentAutoinstall bool) (*Config, error) {
	key := cacheKey{kind: "system", name: s.Name, preferParentAuto: preferParentAutoinstall}
	if cached, ok := b.cache[key]; ok {
		return cached, nil
	}

	profile := b.store.Profile(s.Profile)
	if profile == nil {
		return nil, &BrokenReferenceError{Kind: "system", Name: s.Name, RefKind: "profile", RefName: s.Profile}
	}
	distro := b.store.Distro(profile.Distro)
	if distro == nil {
		return nil, &BrokenReferenceError{Kind: "profile", Name: profile.Name, RefKind: "distro", RefName: profile.Distro}
	}

	cfg := b.base()
	cfg.Kind = "system"
	applyDistro(cfg, distro)
	applyProfile(cfg, profile)

	cfg.Name = s.Name
	cfg.NetbootEnabled = s.NetbootEnabled
	mergeStringMap(cfg.KernelOptions, s.KernelOptions)
	mergeStringMap(cfg.InstallMeta, s.InstallMeta)
	cfg.Interfaces = map[string]inventory.Interface{}
	for name, iface := range s.Interfaces {
		cfg.Interfaces[name] = iface
	}
	if s.Autoinstall != "" {
		cfg.Autoinstall = s.Autoinstall
	} else if !preferParentAutoinstall {
		cfg.Autoinstall = ""
	}

	b.cache[key] = cfg
	return cfg, nil
}

func (b *Blender) base() *Config {
	return &Config{
		Server:        b.settings.Server,
		NextServer:    b.settings.NextServer,
		KernelOptions: map[string]string{},
		InstallMeta:   map[string]string{},
		Extra:         map[string]string{},
	}
}

func applyDistro(cfg *Config, d *inventory.Distro) {
	cfg.Name = d.Name
	cfg.Arch = d.Arch
	cfg.Breed = d.Breed
	cfg.Kernel = d.Kernel
	cfg.Initrd = d.Initrd
	mergeStringMap(cfg.KernelOptions, d.KernelOptions)
	mergeStringMap(cfg.InstallMeta, d.InstallMeta)
	cfg.SourceRepos = unionStrings(cfg.SourceRepos, d.SourceRepos)
}

func applyProfile(cfg *Config, p *inventory.Profile) {
	cfg.Name = p.Name
	mergeStringMap(cfg.KernelOptions, p.KernelOptions)
	mergeStringMap(cfg.InstallMeta, p.InstallMeta)
	cfg.Repos = unionStrings(cfg.Repos, p.Repos)
	if p.Autoinstall != "" {
		cfg.Autoinstall = p.Autoinstall
	}
	if p.Server != "" {
		cfg.Server = p.Server
	}
}

func mergeStringMap(dst, src map[string]string) {
	for key, value := range src {
		dst[key] = value
	}
}

func unionStrings(existing, extra []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(existing)+len(extra))
	for _, value := range existing {
		if !seen[value] {
			seen[value] = true
			out = append(out, value)
		}
	}
	for _, value := range extra {
		if !seen[value] {
			seen[value] = true
			out = append(out, value)
		}
	}
	return out
}

// Metadata flattens the blended configuration into the mapping the
// template renderer evaluates against. Install metadata is folded to the
// top level, matching what autoinstall templates expect.
func (c *Config) Metadata() map[string]any {
	meta := map[string]any{
		"name":            c.Name,
		"arch":            c.Arch.String(),
		"breed":           string(c.Breed),
		"kernel":          c.Kernel,
		"initrd":          c.Initrd,
		"autoinstall":     c.Autoinstall,
		"server":          c.Server,
		"next_server":     c.NextServer,
		"kernel_options":  FlattenOptions(c.KernelOptions),
		"netboot_enabled": c.NetbootEnabled,
		"repos":           append([]string(nil), c.Repos...),
		"source_repos":    append([]string(nil), c.SourceRepos...),
	}
	if c.Interfaces != nil {
		interfaces := map[string]any{}
		for name, iface := range c.Interfaces {
			interfaces[name] = map[string]string{
				"mac":      iface.MAC,
				"ip":       iface.IP,
				"hostname": iface.Hostname,
				"dhcp_tag": iface.DHCPTag,
			}
		}
		meta["interfaces"] = interfaces
	}
	for key, value := range c.InstallMeta {
		meta[key] = value
	}
	for key, value := range c.Extra {
		meta[key] = value
	}
	return meta
}

// FlattenOptions serializes a kernel-option mapping to the single string
// form used on an append line. Keys with empty values appear bare. Output
// is sorted so renders are reproducible.
func FlattenOptions(options map[string]string) string {
	keys := make([]string, 0, len(options))
	for key := range options {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		if options[key] == "" {
			parts = append(parts, key)
			continue
		}
		parts = append(parts, key+"="+options[key])
	}
	return strings.Join(parts, " ")
}
