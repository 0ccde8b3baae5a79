package sync

import (
	"fmt"
	"os"
	"strings"

	"github.com/cochaviz/kiln/internal/inventory"
)

const (
	autoinstallProfileSeg = "autoinstall"
	autoinstallSystemSeg  = "autoinstall_sys"
	autoinstallFileName   = "install.cfg"
)

// renderAutoinstallFiles materializes the install script of every profile
// and every system under the web root. Scripts referenced by URL are left
// to their remote host; local script templates get full substitution. A
// render failure for any single object is fatal to the run.
func (r *run) renderAutoinstallFiles() error {
	profiles := r.store.Profiles()
	for i := range profiles {
		profile := &profiles[i]
		r.logger.Info("sync profile", "profile", profile.Name)
		if err := r.renderProfileAutoinstall(profile); err != nil {
			return err
		}
	}
	systems := r.store.Systems()
	for i := range systems {
		system := &systems[i]
		r.logger.Info("sync system", "system", system.Name)
		if err := r.renderSystemAutoinstall(system); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) renderProfileAutoinstall(profile *inventory.Profile) error {
	blended, err := r.blender.Profile(profile, false)
	if err != nil {
		return err
	}

	source, ok := r.localAutoinstall(blended.Autoinstall, profile.Name)
	if !ok {
		return nil
	}

	meta := blended.Metadata()
	meta["repo_stanza"] = r.repoStanza(profile.Name, true)
	meta["repo_config_stanza"] = r.repoConfigStanza(profile.Name, true)
	meta["autoinstall_done"] = r.doneSignal(blended.Server, "profile", profile.Name, true)

	dest := r.webPath(autoinstallProfileSeg, profile.Name, autoinstallFileName)
	if _, err := r.renderer.Render(source, meta, dest); err != nil {
		return fmt.Errorf("render autoinstall for profile %q (%s -> %s): %w",
			profile.Name, blended.Autoinstall, dest, err)
	}
	return nil
}

func (r *run) renderSystemAutoinstall(system *inventory.System) error {
	blended, err := r.blender.System(system, true)
	if err != nil {
		return err
	}

	source, ok := r.localAutoinstall(blended.Autoinstall, system.Name)
	if !ok {
		return nil
	}

	// repository stanzas come from the parent profile; per-system repo
	// directories exist for overrides materialized by the earlier phase
	meta := blended.Metadata()
	meta["repo_stanza"] = r.repoStanza(system.Profile, true)
	meta["repo_config_stanza"] = r.repoConfigStanza(system.Profile, true)
	meta["autoinstall_done"] = r.systemDoneSignal(blended.Server, system, true)

	dest := r.webPath(autoinstallSystemSeg, system.Name, autoinstallFileName)
	if _, err := r.renderer.Render(source, meta, dest); err != nil {
		return fmt.Errorf("render autoinstall for system %q (%s -> %s): %w",
			system.Name, blended.Autoinstall, dest, err)
	}
	return nil
}

// localAutoinstall reads the install-script template when the reference is
// a local file. Remote references (http, ftp, nfs) and unset references
// yield ok=false: there is nothing to render locally.
func (r *run) localAutoinstall(ref, objName string) (string, bool) {
	if ref == "" || isRemoteRef(ref) {
		return "", false
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		r.logger.Warn("autoinstall template not readable; skipping render",
			"object", objName, "path", ref, "error", err)
		return "", false
	}
	return string(data), true
}

func isRemoteRef(ref string) bool {
	for _, scheme := range []string{"http://", "https://", "ftp://", "nfs://"} {
		if strings.HasPrefix(ref, scheme) {
			return true
		}
	}
	return false
}

// doneSignal builds the script fragment appended to the end of an install
// run: notify the status endpoint, and optionally fetch the rendered
// script for audit.
func (r *run) doneSignal(server, kind, name string, localScript bool) string {
	lines := []string{
		fmt.Sprintf("wget \"http://%s/cblr/status?%s_done=%s\" -b", server, kind, name),
	}
	if localScript {
		lines = append(lines, fmt.Sprintf("wget \"http://%s/cblr/%s/%s/%s\" -O /root/kiln-install.cfg",
			server, autoinstallProfileSeg, name, autoinstallFileName))
	}
	return strings.Join(lines, "\n")
}

// systemDoneSignal is the per-system variant: it can additionally disable
// future network boot and fire the post-install webhook, per settings.
func (r *run) systemDoneSignal(server string, system *inventory.System, localScript bool) string {
	lines := []string{
		fmt.Sprintf("wget \"http://%s/cblr/status?system_done=%s\" -b", server, system.Name),
	}
	if r.settings.PXEJustOnce {
		lines = append(lines, fmt.Sprintf("wget \"http://%s/cblr/nopxe?system=%s\" -b", server, system.Name))
	}
	if localScript {
		lines = append(lines, fmt.Sprintf("wget \"http://%s/cblr/%s/%s/%s\" -O /root/kiln-install.cfg",
			server, autoinstallSystemSeg, system.Name, autoinstallFileName))
	}
	if r.settings.RunPostInstallTrigger {
		lines = append(lines, fmt.Sprintf("wget \"http://%s/cblr/post_install_trigger?system=%s\" -b", server, system.Name))
	}
	return strings.Join(lines, "\n")
}
