package sync

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cochaviz/kiln/internal/blend"
	"github.com/cochaviz/kiln/internal/fileutil"
	"github.com/cochaviz/kiln/internal/inventory"
)

// writeListings publishes two flat files enumerating the known profile
// and system names, for install-side tooling that only needs the index.
func (r *run) writeListings() error {
	profileNames := make([]string, 0, len(r.store.Profiles()))
	for _, profile := range r.store.Profiles() {
		profileNames = append(profileNames, profile.Name)
	}
	systemNames := make([]string, 0, len(r.store.Systems()))
	for _, system := range r.store.Systems() {
		systemNames = append(systemNames, system.Name)
	}

	if err := r.writeYAML(r.webPath("profile_list"), profileNames); err != nil {
		return err
	}
	return r.writeYAML(r.webPath("system_list"), systemNames)
}

// writeDistroFile serves the blended distro attributes for install-side
// tooling.
func (r *run) writeDistroFile(distro *inventory.Distro) error {
	blended, err := r.blender.Distro(distro)
	if err != nil {
		return err
	}
	return r.writeYAML(r.webPath("distros", distro.Name), blended.Metadata())
}

// writeProfileFile serves the blended profile attributes. A local
// install-script path is rewritten to the URL it is served from.
func (r *run) writeProfileFile(profile *inventory.Profile) error {
	blended, err := r.blender.Profile(profile, true)
	if err != nil {
		return err
	}
	meta := blended.Metadata()
	if ref, _ := meta["autoinstall"].(string); strings.HasPrefix(ref, "/") {
		meta["autoinstall"] = fmt.Sprintf("http://%s/cblr/%s/%s/%s",
			r.settings.Server, autoinstallProfileSeg, profile.Name, autoinstallFileName)
	}
	return r.writeYAML(r.webPath("profiles", profile.Name), meta)
}

// writeSystemFile serves the blended system attributes.
func (r *run) writeSystemFile(system *inventory.System, blended *blend.Config) error {
	return r.writeYAML(r.webPath("systems", system.Name), blended.Metadata())
}

func (r *run) writeYAML(path string, value any) error {
	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return fileutil.WriteFile(path, data)
}
