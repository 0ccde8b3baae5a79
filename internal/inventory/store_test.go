package inventory

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCollections(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLoadDirSortsByName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeCollections(t, dir, map[string]string{
		"distros.yaml": `
- name: zeta
  arch: x86_64
  breed: redhat
  kernel: /boot/vmlinuz
  initrd: /boot/initrd.img
- name: alpha
  arch: x86_64
  breed: debian
  kernel: /boot/vmlinuz
  initrd: /boot/initrd.img
`,
		"profiles.yaml": `
- name: web
  distro: alpha
- name: db
  distro: alpha
`,
	})

	store, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}

	distros := store.Distros()
	if len(distros) != 2 || distros[0].Name != "alpha" || distros[1].Name != "zeta" {
		t.Fatalf("Distros() order = %v, want [alpha zeta]", distros)
	}
	profiles := store.Profiles()
	if len(profiles) != 2 || profiles[0].Name != "db" || profiles[1].Name != "web" {
		t.Fatalf("Profiles() order = %v, want [db web]", profiles)
	}
	if len(store.Systems()) != 0 || len(store.Repos()) != 0 {
		t.Fatal("missing collection files should load as empty")
	}
}

func TestLoadDirRejectsInvalidSystemName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeCollections(t, dir, map[string]string{
		"systems.yaml": `
- name: "not a hostname!"
  profile: web
`,
	})

	if _, err := LoadDir(dir); err == nil {
		t.Fatal("LoadDir() error = nil, want non-nil")
	}
}

func TestStoreLookup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeCollections(t, dir, map[string]string{
		"distros.yaml": `
- name: centos7
  arch: x86_64
  breed: redhat
  kernel: /boot/vmlinuz
  initrd: /boot/initrd.img
  kernel_options:
    console: tty0
`,
		"repos.yaml": `
- name: extras
  mirror: http://mirror.example.com/extras
`,
	})

	store, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}

	distro := store.Distro("centos7")
	if distro == nil {
		t.Fatal("Distro(\"centos7\") = nil, want distro")
	}
	if distro.KernelOptions["console"] != "tty0" {
		t.Fatalf("kernel_options = %v, want console=tty0", distro.KernelOptions)
	}
	if store.Distro("nope") != nil {
		t.Fatal("Distro(\"nope\") != nil, want nil")
	}
	if repo := store.Repo("extras"); repo == nil || repo.Mirror != "http://mirror.example.com/extras" {
		t.Fatalf("Repo(\"extras\") = %v, want mirror url", repo)
	}
}

func TestReloadPicksUpChanges(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeCollections(t, dir, map[string]string{
		"systems.yaml": "- name: web1\n  profile: web\n",
	})

	store, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if len(store.Systems()) != 1 {
		t.Fatalf("Systems() = %d entries, want 1", len(store.Systems()))
	}

	writeCollections(t, dir, map[string]string{
		"systems.yaml": "- name: web1\n  profile: web\n- name: web2\n  profile: web\n",
	})
	if err := store.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if len(store.Systems()) != 2 {
		t.Fatalf("Systems() after reload = %d entries, want 2", len(store.Systems()))
	}
}

func TestInterfaceNamesSorted(t *testing.T) {
	t.Parallel()

	system := &System{
		Name: "web1",
		Interfaces: map[string]Interface{
			"eth1": {},
			"eth0": {},
			"bond": {},
		},
	}
	names := system.InterfaceNames()
	want := []string{"bond", "eth0", "eth1"}
	if len(names) != len(want) {
		t.Fatalf("InterfaceNames() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("InterfaceNames() = %v, want %v", names, want)
		}
	}
}
