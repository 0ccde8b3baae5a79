package sync

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cochaviz/kiln/internal/fileutil"
)

//go:embed templates/*.template
var templateFS embed.FS

const (
	bootMenuDir = "pxelinux.cfg"
	imagesDir   = "images"
)

// generatedDirs under the web root belong to the pipeline: their contents
// are purged on every run and rebuilt from the current object set.
var generatedDirs = []string{
	"distros",
	"profiles",
	"systems",
	"autoinstall",
	"autoinstall_sys",
	"repos_profile",
	"repos_system",
	imagesDir,
}

// preservedDirs under the web root are known but not generated per run
// (mirrors and hand-managed content); they are left untouched.
var preservedDirs = []string{
	"repo_mirror",
	"install_mirror",
	"links",
	"localmirror",
}

// cleanTrees reconciles the generated trees: unknown entries under the web
// root are deleted, generated directories are emptied but kept, preserved
// directories are left alone. Under the boot root only the boot-menu and
// images directories are emptied. The skeleton is recreated afterwards so
// generators can assume their target directories exist.
func (r *run) cleanTrees() error {
	entries, err := os.ReadDir(r.settings.WebDir)
	if err != nil {
		return &PreconditionError{Path: r.settings.WebDir, Err: err}
	}

	for _, entry := range entries {
		path := filepath.Join(r.settings.WebDir, entry.Name())
		if !entry.IsDir() {
			if err := fileutil.RemoveFile(path); err != nil {
				return err
			}
			continue
		}
		switch {
		case contains(generatedDirs, entry.Name()):
			if err := fileutil.RemoveTreeContents(path); err != nil {
				return err
			}
		case contains(preservedDirs, entry.Name()):
			// mirrored content survives the sweep
		default:
			r.logger.Debug("removing unknown directory", "path", path)
			if err := fileutil.RemoveTree(path); err != nil {
				return err
			}
		}
	}

	if err := fileutil.RemoveTreeContents(r.bootPath(bootMenuDir)); err != nil {
		return err
	}
	if err := fileutil.RemoveTreeContents(r.bootPath(imagesDir)); err != nil {
		return err
	}

	for _, dir := range generatedDirs {
		if err := fileutil.MkdirAll(r.webPath(dir)); err != nil {
			return err
		}
	}
	if err := fileutil.MkdirAll(r.bootPath(bootMenuDir)); err != nil {
		return err
	}
	return fileutil.MkdirAll(r.bootPath(imagesDir))
}

func (r *run) webPath(parts ...string) string {
	return filepath.Join(append([]string{r.settings.WebDir}, parts...)...)
}

func (r *run) bootPath(parts ...string) string {
	return filepath.Join(append([]string{r.settings.BootDir}, parts...)...)
}

// loadTemplate returns the named template, preferring an override in the
// configured template directory over the embedded default.
func (r *run) loadTemplate(name string) (string, error) {
	override := filepath.Join(r.settings.TemplateDir, name)
	if data, err := os.ReadFile(override); err == nil {
		return string(data), nil
	}
	data, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("load template %s: %w", name, err)
	}
	return string(data), nil
}

func contains(values []string, want string) bool {
	for _, value := range values {
		if value == want {
			return true
		}
	}
	return false
}
