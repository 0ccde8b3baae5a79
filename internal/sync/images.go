package sync

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cochaviz/kiln/internal/fileutil"
	"github.com/cochaviz/kiln/internal/inventory"
)

// copyBootloaders places the configured boot-loader binaries and extra
// loader support files at the root of the boot tree, basenamed.
func (r *run) copyBootloaders() error {
	for _, archTag := range sortedKeys(r.settings.Bootloaders) {
		src := r.settings.Bootloaders[archTag]
		if err := fileutil.CopyFile(src, r.bootPath(filepath.Base(src))); err != nil {
			return err
		}
	}
	for _, src := range r.settings.ExtraLoaders {
		if err := fileutil.CopyFile(src, r.bootPath(filepath.Base(src))); err != nil {
			return err
		}
	}
	return nil
}

// copyDistroImages materializes every distro's kernel and initrd under
// both output roots. Images already living under a root are hard-linked
// (with symlink and copy fallbacks); everything else is copied, since the
// boot tree may be served from a chroot.
func (r *run) copyDistroImages() error {
	distros := r.store.Distros()
	for i := range distros {
		distro := &distros[i]
		r.logger.Info("sync distro", "distro", distro.Name)
		if err := r.copySingleDistro(distro); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) copySingleDistro(distro *inventory.Distro) error {
	kernel, err := locateArtifact(distro.Kernel)
	if err != nil {
		return &MissingArtifactError{Distro: distro.Name, Kind: "kernel", Path: distro.Kernel}
	}
	initrd, err := locateArtifact(distro.Initrd)
	if err != nil {
		return &MissingArtifactError{Distro: distro.Name, Kind: "initrd", Path: distro.Initrd}
	}

	for _, root := range []string{r.settings.BootDir, r.settings.WebDir} {
		distroDir := filepath.Join(root, imagesDir, distro.Name)
		if err := fileutil.MkdirAll(distroDir); err != nil {
			return err
		}
		for _, src := range []string{kernel, initrd} {
			dst := filepath.Join(distroDir, filepath.Base(src))
			if strings.HasPrefix(src, root+string(os.PathSeparator)) && fileutil.SameFilesystem(src, distroDir) {
				if err := fileutil.LinkOrCopy(src, dst); err != nil {
					return err
				}
				continue
			}
			if err := fileutil.CopyFile(src, dst); err != nil {
				return err
			}
		}
	}
	return nil
}

// locateArtifact resolves a kernel or initrd reference to an existing
// regular file.
func locateArtifact(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", os.ErrInvalid
	}
	return abs, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
