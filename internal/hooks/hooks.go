// Package hooks runs external trigger programs at named points of a sync
// run. Trigger failures are logged and never fail the run.
package hooks

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/cochaviz/kiln/internal/logging"
)

// Runner executes every program found under <Dir>/<point>/ in name order.
type Runner struct {
	Dir    string
	Logger *slog.Logger
}

// Run fires all triggers for the named point, passing arg when non-empty.
// Errors from individual triggers are logged, not returned; a missing
// trigger directory means there is nothing to do.
func (r *Runner) Run(ctx context.Context, point string, arg string) {
	logger := logging.Ensure(r.Logger).With("trigger", point)

	dir := filepath.Join(r.Dir, point)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("cannot list trigger directory", "dir", dir, "error", err)
		}
		return
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil || info.Mode()&0o111 == 0 {
			continue
		}

		var cmd *exec.Cmd
		if arg != "" {
			cmd = exec.CommandContext(ctx, path, arg)
		} else {
			cmd = exec.CommandContext(ctx, path)
		}
		if output, err := cmd.CombinedOutput(); err != nil {
			logger.Warn("trigger failed", "path", path, "error", err, "output", string(output))
			continue
		}
		logger.Debug("trigger completed", "path", path)
	}
}
