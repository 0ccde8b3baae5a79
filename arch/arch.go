package arch

import (
	"fmt"
	"sort"
	"strings"
)

// Architecture defines the set of values accepted for distro images.
type Architecture string

const (
	X86      Architecture = "x86"
	X86_64   Architecture = "x86_64"
	IA64     Architecture = "ia64"
	Standard Architecture = "standard"
)

// Supported returns the full list of supported architectures.
func Supported() []Architecture {
	return []Architecture{
		X86,
		X86_64,
		IA64,
		Standard,
	}
}

// IsValid reports whether a matches a supported architecture value.
func (a Architecture) IsValid() bool {
	switch a {
	case X86, X86_64, IA64, Standard:
		return true
	default:
		return false
	}
}

// String returns the architecture as string.
func (a Architecture) String() string {
	return string(a)
}

// UsesPXELinux reports whether the architecture boots through pxelinux,
// with per-MAC config files under the boot-menu directory. Itanium boots
// through elilo instead, which reads "<name>.conf" from the tree root.
func (a Architecture) UsesPXELinux() bool {
	switch a {
	case X86, X86_64, Standard:
		return true
	default:
		return false
	}
}

// Parse returns the canonical Architecture for the provided string or an error if unsupported.
func Parse(value string) (Architecture, error) {
	if arch := Normalize(value); arch != "" {
		return arch, nil
	}
	return "", fmt.Errorf("unsupported architecture %q (supported: %s)", value, strings.Join(supportedStrings(), ", "))
}

// MustParse is like Parse but panics on error.
func MustParse(value string) Architecture {
	arch, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return arch
}

// Normalize maps a possibly ambiguous string into a canonical Architecture. Returns ""
// when the string cannot be normalized.
func Normalize(value string) Architecture {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case string(X86_64), "x86-64", "amd64":
		return X86_64
	case string(X86), "i386", "i486", "i586", "i686", "386":
		return X86
	case string(IA64), "itanium", "ia-64":
		return IA64
	case string(Standard), "":
		return Standard
	default:
		return ""
	}
}

func supportedStrings() []string {
	all := Supported()
	out := make([]string, 0, len(all))
	for _, a := range all {
		out = append(out, a.String())
	}
	sort.Strings(out)
	return out
}
