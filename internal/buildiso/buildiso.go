// Package buildiso packs a synchronized boot tree into a single ISO
// image, for environments where targets boot from media instead of the
// network.
package buildiso

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kdomanski/iso9660"

	"github.com/cochaviz/kiln/internal/logging"
)

// Builder writes ISO images from a directory tree.
type Builder struct {
	Logger *slog.Logger
}

// Build walks sourceDir and writes every regular file into an ISO image
// at outPath with the given volume label. Symlinks are followed; the boot
// tree only ever contains files and hard links.
func (b *Builder) Build(sourceDir, outPath, volumeLabel string) error {
	info, err := os.Stat(sourceDir)
	if err != nil {
		return fmt.Errorf("stat boot tree %s: %w", sourceDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("boot tree %s is not a directory", sourceDir)
	}

	writer, err := iso9660.NewWriter()
	if err != nil {
		return fmt.Errorf("create iso writer: %w", err)
	}
	defer writer.Cleanup()

	logger := logging.Ensure(b.Logger)
	files := 0

	err = filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		if err := writer.AddFile(f, filepath.ToSlash(rel)); err != nil {
			return fmt.Errorf("add %s to image: %w", rel, err)
		}
		files++
		return nil
	})
	if err != nil {
		return err
	}

	out, err := os.OpenFile(outPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create image file %s: %w", outPath, err)
	}
	if err := writer.WriteTo(out, volumeLabel); err != nil {
		out.Close()
		return fmt.Errorf("write image: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close image file: %w", err)
	}

	logger.Info("iso image written", "path", outPath, "files", files)
	return nil
}
