package templating

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestRenderer(t *testing.T, snippets map[string]string) *Renderer {
	t.Helper()

	dir := t.TempDir()
	for name, content := range snippets {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cache, err := LoadSnippets(dir)
	if err != nil {
		t.Fatalf("LoadSnippets() error = %v", err)
	}
	return &Renderer{Snippets: cache}
}

func TestRenderVariables(t *testing.T) {
	t.Parallel()

	renderer := newTestRenderer(t, nil)
	meta := map[string]any{
		"server": "192.168.1.1",
		"port":   80,
	}

	got, err := renderer.Render("url --url=http://$server:${port}/install\n", meta, "")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := "url --url=http://192.168.1.1:80/install\n"
	if got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
}

func TestRenderMissingVariableIsEmpty(t *testing.T) {
	t.Parallel()

	renderer := newTestRenderer(t, nil)
	got, err := renderer.Render("before $missing after", map[string]any{}, "")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got != "before  after" {
		t.Fatalf("Render() = %q, want unresolved variable dropped", got)
	}
}

func TestRenderLegacyMarker(t *testing.T) {
	t.Parallel()

	renderer := newTestRenderer(t, nil)
	got, err := renderer.Render("TEMPLATE::server", map[string]any{"server": "10.0.0.1"}, "")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got != "10.0.0.1" {
		t.Fatalf("Render() = %q, want %q", got, "10.0.0.1")
	}
}

func TestRenderInlinesSnippets(t *testing.T) {
	t.Parallel()

	renderer := newTestRenderer(t, map[string]string{
		"network": "network --bootproto=$proto",
	})
	meta := map[string]any{"proto": "dhcp"}

	got, err := renderer.Render("SNIPPET::network\n", meta, "")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	// snippet bodies are inlined before evaluation, so their variables
	// resolve too
	if got != "network --bootproto=dhcp\n" {
		t.Fatalf("Render() = %q, want expanded snippet", got)
	}
}

func TestRenderSnippetLiteralTokens(t *testing.T) {
	t.Parallel()

	// literal tokens inside a snippet body resolve against the host
	// document's metadata, since inlining happens before substitution
	renderer := newTestRenderer(t, map[string]string{
		"rootpw": "rootpw --iscrypted @@password@@",
	})
	meta := map[string]any{"password": "$6$salt$hash"}

	got, err := renderer.Render("SNIPPET::rootpw\n", meta, "")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got != "rootpw --iscrypted $6$salt$hash\n" {
		t.Fatalf("Render() = %q, want snippet token substituted", got)
	}
}

func TestRenderSkipsSnippetsOnCommentLines(t *testing.T) {
	t.Parallel()

	renderer := newTestRenderer(t, map[string]string{
		"network": "network --bootproto=dhcp",
	})

	got, err := renderer.Render("# SNIPPET::network ignored\nSNIPPET::network\n", map[string]any{}, "")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := "# SNIPPET::network ignored\nnetwork --bootproto=dhcp\n"
	if got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
}

func TestRenderNFSTreeRewrite(t *testing.T) {
	t.Parallel()

	renderer := newTestRenderer(t, nil)
	meta := map[string]any{"tree": "nfs://192.168.1.1:/var/www/kiln/install_mirror/centos7"}

	got, err := renderer.Render("url --url=$tree\n", meta, "")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := "nfs --server 192.168.1.1 --dir /var/www/kiln/install_mirror/centos7\n" +
		"#url --url=nfs://192.168.1.1:/var/www/kiln/install_mirror/centos7\n"
	if got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
}

func TestRenderNFSTreeMalformed(t *testing.T) {
	t.Parallel()

	renderer := newTestRenderer(t, nil)
	meta := map[string]any{"tree": "nfs://no-colon-anywhere"}

	if _, err := renderer.Render("url --url=$tree\n", meta, ""); err == nil {
		t.Fatal("Render() error = nil for malformed NFS tree, want non-nil")
	}
}

func TestRenderLiteralTokens(t *testing.T) {
	t.Parallel()

	renderer := newTestRenderer(t, nil)
	// the value carries engine syntax, so it must bypass the engine pass
	meta := map[string]any{"password": "$6$salt$hash"}

	got, err := renderer.Render("rootpw --iscrypted @@password@@\n", meta, "")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got != "rootpw --iscrypted $6$salt$hash\n" {
		t.Fatalf("Render() = %q, want literal password", got)
	}
}

func TestRenderSyntaxError(t *testing.T) {
	t.Parallel()

	renderer := newTestRenderer(t, nil)
	_, err := renderer.Render("{{unclosed\n", map[string]any{}, "")
	var syntaxErr *SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("Render() error = %v, want SyntaxError", err)
	}
	if syntaxErr.Context == "" {
		t.Fatal("SyntaxError carries no source context")
	}
}

func TestRenderWritesFile(t *testing.T) {
	t.Parallel()

	renderer := newTestRenderer(t, nil)
	out := filepath.Join(t.TempDir(), "deep", "nested", "install.cfg")

	got, err := renderer.Render("install $name\n", map[string]any{"name": "web"}, out)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("rendered file not written: %v", err)
	}
	if string(data) != got || got != "install web\n" {
		t.Fatalf("file = %q, returned = %q, want both %q", data, got, "install web\n")
	}
}
