package inventory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Store holds the loaded object collections for one run. Collections are
// ordered by name and never mutated by the sync pipeline; Reload re-reads
// them from disk so side effects of a pre-run trigger become visible.
type Store struct {
	baseDir string

	distros  []Distro
	profiles []Profile
	systems  []System
	repos    []Repo
}

// LoadDir reads every collection file under baseDir. Missing collection
// files yield empty collections, not errors.
func LoadDir(baseDir string) (*Store, error) {
	store := &Store{baseDir: baseDir}
	if err := store.Reload(); err != nil {
		return nil, err
	}
	return store, nil
}

// Reload re-reads all collections from the store's base directory.
func (s *Store) Reload() error {
	if err := loadCollection(s.collectionPath("distros"), &s.distros); err != nil {
		return err
	}
	if err := loadCollection(s.collectionPath("profiles"), &s.profiles); err != nil {
		return err
	}
	if err := loadCollection(s.collectionPath("systems"), &s.systems); err != nil {
		return err
	}
	if err := loadCollection(s.collectionPath("repos"), &s.repos); err != nil {
		return err
	}

	sort.Slice(s.distros, func(i, j int) bool { return s.distros[i].Name < s.distros[j].Name })
	sort.Slice(s.profiles, func(i, j int) bool { return s.profiles[i].Name < s.profiles[j].Name })
	sort.Slice(s.systems, func(i, j int) bool { return s.systems[i].Name < s.systems[j].Name })
	sort.Slice(s.repos, func(i, j int) bool { return s.repos[i].Name < s.repos[j].Name })

	for i := range s.systems {
		system := &s.systems[i]
		if err := ValidateSystemName(system.Name); err != nil {
			return fmt.Errorf("system %q: %w", system.Name, err)
		}
	}
	return nil
}

func (s *Store) collectionPath(kind string) string {
	return filepath.Join(s.baseDir, kind+".yaml")
}

func loadCollection[T any](path string, out *[]T) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			*out = nil
			return nil
		}
		return fmt.Errorf("read collection %s: %w", path, err)
	}
	var items []T
	if err := yaml.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("decode collection %s: %w", path, err)
	}
	*out = items
	return nil
}

// Distros returns the ordered distro collection.
func (s *Store) Distros() []Distro { return s.distros }

// Profiles returns the ordered profile collection.
func (s *Store) Profiles() []Profile { return s.profiles }

// Systems returns the ordered system collection.
func (s *Store) Systems() []System { return s.systems }

// Repos returns the ordered repo collection.
func (s *Store) Repos() []Repo { return s.repos }

// Distro returns the named distro or nil.
func (s *Store) Distro(name string) *Distro {
	for i := range s.distros {
		if s.distros[i].Name == name {
			return &s.distros[i]
		}
	}
	return nil
}

// Profile returns the named profile or nil.
func (s *Store) Profile(name string) *Profile {
	for i := range s.profiles {
		if s.profiles[i].Name == name {
			return &s.profiles[i]
		}
	}
	return nil
}

// System returns the named system or nil.
func (s *Store) System(name string) *System {
	for i := range s.systems {
		if s.systems[i].Name == name {
			return &s.systems[i]
		}
	}
	return nil
}

// Repo returns the named repo or nil.
func (s *Store) Repo(name string) *Repo {
	for i := range s.repos {
		if s.repos[i].Name == name {
			return &s.repos[i]
		}
	}
	return nil
}
