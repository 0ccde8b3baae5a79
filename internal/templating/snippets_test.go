package templating

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSnippetsMissingDir(t *testing.T) {
	t.Parallel()

	cache, err := LoadSnippets(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("LoadSnippets() error = %v", err)
	}
	if cache.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", cache.Len())
	}
}

func TestLoadSnippets(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := map[string]string{
		"network":        "network --bootproto=dhcp\n",
		"network_static": "network --bootproto=static\n",
		"keyboard":       "keyboard us\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0o755); err != nil {
		t.Fatal(err)
	}

	cache, err := LoadSnippets(dir)
	if err != nil {
		t.Fatalf("LoadSnippets() error = %v", err)
	}
	if cache.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 (subdirectories skipped)", cache.Len())
	}

	body, ok := cache.Get("keyboard")
	if !ok || body != "keyboard us\n" {
		t.Fatalf("Get(\"keyboard\") = %q/%v, want body/true", body, ok)
	}
	if _, ok := cache.Get("nope"); ok {
		t.Fatal("Get(\"nope\") ok = true, want false")
	}

	// longer names come first so "network" cannot clip "network_static"
	names := cache.Names()
	if names[0] != "network_static" {
		t.Fatalf("Names() = %v, want network_static first", names)
	}
}
