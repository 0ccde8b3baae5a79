package sync

import "fmt"

// PreconditionError means a directory the pipeline depends on is absent.
// It aborts the run before any phase executes.
type PreconditionError struct {
	Path string
	Err  error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("cannot find directory %s: %v", e.Path, e.Err)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// MissingArtifactError means a distro's kernel or initrd could not be
// located. Fatal for the run.
type MissingArtifactError struct {
	Distro string
	Kind   string
	Path   string
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("%s not found for distro %q: %s", e.Kind, e.Distro, e.Path)
}
