// Package sync reconciles the generated boot and web trees against the
// loaded object set. It is the code behind 'kiln sync': an ordered,
// fail-fast sequence of phases that blends inherited configuration,
// renders text artifacts, and rebuilds the filesystem skeleton.
package sync

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/cochaviz/kiln/internal/blend"
	"github.com/cochaviz/kiln/internal/config"
	"github.com/cochaviz/kiln/internal/hooks"
	"github.com/cochaviz/kiln/internal/inventory"
	"github.com/cochaviz/kiln/internal/logging"
	"github.com/cochaviz/kiln/internal/templating"
)

// Service owns one synchronization pipeline. Collaborators are injected;
// the run-scoped blend and snippet caches are created per Run call and
// discarded afterwards.
type Service struct {
	Settings *config.Settings
	Store    *inventory.Store
	Hooks    *hooks.Runner
	Logger   *slog.Logger
}

// run carries the state shared by the phases of a single pipeline run.
type run struct {
	settings *config.Settings
	store    *inventory.Store
	blender  *blend.Blender
	renderer *templating.Renderer
	logger   *slog.Logger
}

// Run executes the full pipeline. Any phase failure aborts the remaining
// phases and propagates as a typed error naming the object or path
// involved.
func (s *Service) Run(ctx context.Context) error {
	logger := logging.Ensure(s.Logger).With("run_id", uuid.NewString())

	if _, err := os.Stat(s.Settings.BootDir); err != nil {
		return &PreconditionError{Path: s.Settings.BootDir, Err: err}
	}

	if s.Hooks != nil {
		s.Hooks.Run(ctx, "sync/pre", "")
	}

	// the pre trigger may have modified objects on disk
	if err := s.Store.Reload(); err != nil {
		return err
	}

	snippets, err := templating.LoadSnippets(s.Settings.SnippetDir)
	if err != nil {
		return err
	}

	r := &run{
		settings: s.Settings,
		store:    s.Store,
		blender:  blend.New(s.Store, s.Settings),
		renderer: &templating.Renderer{Snippets: snippets, Logger: logger.With("component", "templating")},
		logger:   logger,
	}

	phases := []struct {
		name string
		fn   func() error
	}{
		{"clean_trees", r.cleanTrees},
		{"copy_bootloaders", r.copyBootloaders},
		{"copy_distro_images", r.copyDistroImages},
		{"retemplate_repo_manifests", r.retemplateRepoManifests},
		{"render_autoinstall", r.renderAutoinstallFiles},
		{"build_tree", r.buildTree},
	}
	for _, phase := range phases {
		logger.Debug("phase starting", "phase", phase.name)
		if err := phase.fn(); err != nil {
			logger.Error("phase failed", "phase", phase.name, "error", err)
			return err
		}
	}

	if s.Hooks != nil {
		s.Hooks.Run(ctx, "sync/post", "")
	}

	logger.Info("sync completed",
		"distros", len(s.Store.Distros()),
		"profiles", len(s.Store.Profiles()),
		"systems", len(s.Store.Systems()),
	)
	return nil
}

// buildTree writes everything that depends on the blended object set: the
// listing files, per-object served metadata, netboot configs, the DHCP
// artifacts when managed, and the aggregated boot menu.
func (r *run) buildTree() error {
	if err := r.writeListings(); err != nil {
		return err
	}
	distros := r.store.Distros()
	for i := range distros {
		if err := r.writeDistroFile(&distros[i]); err != nil {
			return err
		}
	}
	profiles := r.store.Profiles()
	for i := range profiles {
		if err := r.writeProfileFile(&profiles[i]); err != nil {
			return err
		}
	}
	systems := r.store.Systems()
	for i := range systems {
		if err := r.writeSystemFiles(&systems[i]); err != nil {
			return err
		}
	}
	if r.settings.ManageDHCP {
		if err := r.writeDHCPConfig(); err != nil {
			return err
		}
		if err := r.writeEthers(); err != nil {
			return err
		}
		if err := r.writeHosts(); err != nil {
			return err
		}
	}
	return r.writeBootMenu()
}
