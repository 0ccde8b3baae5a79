package sync

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/cochaviz/kiln/arch"
	"github.com/cochaviz/kiln/internal/blend"
	"github.com/cochaviz/kiln/internal/fileutil"
	"github.com/cochaviz/kiln/internal/inventory"
)

// maxAppendLine is the pxelinux limit on kernel command lines.
const maxAppendLine = 255

// writeSystemFiles generates one boot-config file per interface of the
// system plus its served metadata file. Systems with network boot disabled
// get their boot configs removed instead, so a re-run reconciles state.
func (r *run) writeSystemFiles(system *inventory.System) error {
	blended, err := r.blender.System(system, true)
	if err != nil {
		return err
	}
	profile := r.store.Profile(system.Profile)
	distro := r.store.Distro(profile.Distro)

	for _, ifaceName := range system.InterfaceNames() {
		filename, err := inventory.NetbootFilename(system, ifaceName)
		if err != nil {
			return err
		}

		var target string
		if distro.Arch.UsesPXELinux() {
			target = r.bootPath(bootMenuDir, filename)
		} else {
			// elilo reads "<name>.conf" from the tree root and cannot
			// match on MAC
			if system.Interfaces[ifaceName].IP == "" {
				r.logger.Warn("ia64 system needs an IP address to netboot",
					"system", system.Name, "interface", ifaceName)
			}
			target = r.bootPath(filename + ".conf")
		}

		if system.NetbootEnabled {
			content, err := r.netbootEntry(system, profile, distro)
			if err != nil {
				return err
			}
			if err := fileutil.WriteFile(target, []byte(content)); err != nil {
				return err
			}
		} else if err := fileutil.RemoveFile(target); err != nil {
			return err
		}
	}

	return r.writeSystemFile(system, blended)
}

// netbootEntry renders the boot-loader configuration for a system, or a
// menu entry for a profile when system is nil.
func (r *run) netbootEntry(system *inventory.System, profile *inventory.Profile, distro *inventory.Distro) (string, error) {
	var (
		blended *blend.Config
		err     error
	)
	if system != nil {
		blended, err = r.blender.System(system, true)
	} else {
		blended, err = r.blender.Profile(profile, true)
	}
	if err != nil {
		return "", err
	}

	templateName := "entry_profile.template"
	if system != nil {
		if distro.Arch == arch.IA64 {
			templateName = "entry_system_ia64.template"
		} else {
			templateName = "entry_system.template"
		}
	}
	source, err := r.loadTemplate(templateName)
	if err != nil {
		return "", err
	}

	kernelPath := path.Join("/", imagesDir, distro.Name, filepath.Base(distro.Kernel))
	initrdPath := path.Join("/", imagesDir, distro.Name, filepath.Base(distro.Initrd))

	appendLine := "append " + blend.FlattenOptions(blended.KernelOptions)
	if distro.Arch != arch.IA64 {
		appendLine = fmt.Sprintf("%s initrd=%s", appendLine, initrdPath)
	}

	if url := r.autoinstallURL(blended.Autoinstall, system, profile); url != "" {
		switch distro.Breed {
		case inventory.BreedSUSE:
			appendLine = fmt.Sprintf("%s autoyast=%s", appendLine, url)
		case inventory.BreedDebian:
			appendLine = fmt.Sprintf("%s auto=true url=%s", appendLine, url)
			appendLine = strings.ReplaceAll(appendLine, "ksdevice", "interface")
		default:
			appendLine = fmt.Sprintf("%s ks=%s", appendLine, url)
		}
	}
	if len(appendLine) > maxAppendLine+len("append ") {
		r.logger.Warn("kernel option length exceeds 255", "profile", profile.Name)
	}

	menuLabel := ""
	if system == nil && distro.Arch != arch.IA64 {
		menuLabel = "MENU LABEL " + profile.Name
	}

	meta := map[string]any{
		"menu_label":   menuLabel,
		"profile_name": profile.Name,
		"kernel_path":  kernelPath,
		"initrd_path":  initrdPath,
		"append_line":  appendLine,
	}
	return r.renderer.Render(source, meta, "")
}

// autoinstallURL maps a local install-script reference to the URL the
// target fetches it from; remote references pass through unchanged.
func (r *run) autoinstallURL(ref string, system *inventory.System, profile *inventory.Profile) string {
	if ref == "" {
		return ""
	}
	if !strings.HasPrefix(ref, "/") {
		return ref
	}
	if system != nil {
		return fmt.Sprintf("http://%s/cblr/%s/%s/%s",
			r.settings.Server, autoinstallSystemSeg, system.Name, autoinstallFileName)
	}
	return fmt.Sprintf("http://%s/cblr/%s/%s/%s",
		r.settings.Server, autoinstallProfileSeg, profile.Name, autoinstallFileName)
}

// writeBootMenu writes the aggregated menu listing every profile, sorted
// by name. A system named "default" owns the default boot entry, so the
// menu is skipped entirely when one exists.
func (r *run) writeBootMenu() error {
	if r.store.System("default") != nil {
		r.logger.Info("system named 'default' exists; skipping boot menu")
		return nil
	}

	var entries []string
	profiles := r.store.Profiles()
	for i := range profiles {
		profile := &profiles[i]
		distro := r.store.Distro(profile.Distro)
		if distro == nil {
			return &blend.BrokenReferenceError{Kind: "profile", Name: profile.Name, RefKind: "distro", RefName: profile.Distro}
		}
		entry, err := r.netbootEntry(nil, profile, distro)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}

	source, err := r.loadTemplate("menu.template")
	if err != nil {
		return err
	}
	meta := map[string]any{
		"menu_items": strings.Join(entries, "\n"),
		"server":     r.settings.Server,
	}
	_, err = r.renderer.Render(source, meta, r.bootPath(bootMenuDir, "default"))
	return err
}
