package sync

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cochaviz/kiln/internal/blend"
	"github.com/cochaviz/kiln/internal/fileutil"
)

const (
	repoProfileSeg = "repos_profile"
	repoSystemSeg  = "repos_system"
)

func repoSegment(isProfile bool) string {
	if isProfile {
		return repoProfileSeg
	}
	return repoSystemSeg
}

// retemplateRepoManifests re-renders every repository manifest attached to
// a profile or system into that object's directory under the web root.
// Manifests carry server URLs that must be templated per object. A source
// manifest that has not been mirrored yet is skipped with a warning so the
// rest of the run can proceed.
func (r *run) retemplateRepoManifests() error {
	profiles := r.store.Profiles()
	for i := range profiles {
		blended, err := r.blender.Profile(&profiles[i], false)
		if err != nil {
			return err
		}
		if err := r.retemplateObjectRepos(blended, true); err != nil {
			return err
		}
	}
	systems := r.store.Systems()
	for i := range systems {
		system := &systems[i]
		blended, err := r.blender.System(system, false)
		if err != nil {
			return err
		}
		if err := r.retemplateObjectRepos(blended, false); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) retemplateObjectRepos(blended *blend.Config, isProfile bool) error {
	type manifest struct {
		path string
		name string
	}
	var inputs []manifest

	// install-source repos live at paths relative to the web root,
	// recorded at distro import time
	for _, rel := range blended.SourceRepos {
		path := r.webPath(filepath.FromSlash(rel))
		inputs = append(inputs, manifest{path: path, name: filepath.Base(filepath.Dir(path))})
	}
	for _, repo := range blended.Repos {
		inputs = append(inputs, manifest{
			path: r.webPath("repo_mirror", repo, "config.repo"),
			name: repo,
		})
	}

	outDir := r.webPath(repoSegment(isProfile), blended.Name)
	for _, input := range inputs {
		data, err := os.ReadFile(input.path)
		if err != nil {
			r.logger.Warn("repository manifest not materialized yet; skipping",
				"object", blended.Name, "manifest", input.path)
			continue
		}
		if err := fileutil.MkdirAll(outDir); err != nil {
			return err
		}
		out := filepath.Join(outDir, input.name+".repo")
		if _, err := r.renderer.Render(string(data), blended.Metadata(), out); err != nil {
			return fmt.Errorf("retemplate repo manifest %s for %s: %w", input.path, blended.Name, err)
		}
	}
	return nil
}

// repoStanza emits one repository-attachment directive per manifest
// already materialized for the object, for inclusion in an autoinstall
// script.
func (r *run) repoStanza(objName string, isProfile bool) string {
	var builder strings.Builder
	for _, manifest := range r.repoManifests(objName, isProfile) {
		name := strings.TrimSuffix(filepath.Base(manifest), ".repo")
		baseurl := extractBaseURL(manifest)
		if baseurl == "" {
			r.logger.Warn("repository manifest carries no base URL; stanza omitted", "manifest", manifest)
			continue
		}
		fmt.Fprintf(&builder, "repo --name=%s --baseurl=%s\n", name, baseurl)
	}
	return builder.String()
}

// repoConfigStanza emits the post-install commands that install each
// repository's manifest on the target box. Disabled unless the
// post-install mirror flag is set.
func (r *run) repoConfigStanza(objName string, isProfile bool) string {
	if !r.settings.RepoPostInstallMirror {
		return ""
	}
	seg := repoSegment(isProfile)
	var builder strings.Builder
	for _, manifest := range r.repoManifests(objName, isProfile) {
		name := strings.TrimSuffix(filepath.Base(manifest), ".repo")
		url := fmt.Sprintf("http://%s/cblr/%s/%s/%s.repo", r.settings.Server, seg, objName, name)
		fmt.Fprintf(&builder, "wget \"%s\" --output-document=/etc/yum.repos.d/%s.repo\n", url, name)
	}
	return builder.String()
}

// repoManifests lists the materialized manifest files for one object, in
// sorted order.
func (r *run) repoManifests(objName string, isProfile bool) []string {
	pattern := r.webPath(repoSegment(isProfile), objName, "*.repo")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil
	}
	return matches
}

// extractBaseURL scans a repository manifest for its URL-bearing line.
func extractBaseURL(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.Contains(line, "baseurl") {
			continue
		}
		if _, value, ok := strings.Cut(line, "="); ok {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
