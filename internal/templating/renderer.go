// Package templating renders boot menus, autoinstall scripts, and repo
// manifests through a layered substitution pipeline. The passes are ordered
// and must stay that way: the engine pass is not re-enterable, so every
// snippet and legacy marker has to be resolved before it runs, and literal
// tokens are substituted after it so values carrying engine syntax survive.
package templating

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"text/template"

	"github.com/cochaviz/kiln/internal/fileutil"
	"github.com/cochaviz/kiln/internal/logging"
)

const (
	legacyMarker  = "TEMPLATE::"
	snippetMarker = "SNIPPET::"
)

var variablePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// SyntaxError reports a templating-engine evaluation failure together with
// enough of the source to locate it.
type SyntaxError struct {
	Context string
	Err     error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("template syntax error near %q: %v", e.Context, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Renderer applies the substitution pipeline. One renderer lives for the
// duration of a sync run and shares the run's snippet cache.
type Renderer struct {
	Snippets *SnippetCache
	Logger   *slog.Logger
}

// Render runs all passes over source against the metadata mapping. When
// outPath is non-empty the result is also written there, creating parent
// directories and fully overwriting any existing file. The rendered text
// is returned either way.
func (r *Renderer) Render(source string, metadata map[string]any, outPath string) (string, error) {
	text := rewriteLegacyTokens(source)
	text = r.inlineSnippets(text)
	if strings.Contains(text, snippetMarker) {
		r.logger().Debug("unresolved snippet marker left in place", "out", outPath)
	}

	text, err := rewriteInstallTree(text, metadata)
	if err != nil {
		return "", err
	}

	text, err = evaluate(text, metadata)
	if err != nil {
		return "", err
	}

	text = substituteLiterals(text, metadata)

	if outPath != "" {
		if err := fileutil.WriteFile(outPath, []byte(text)); err != nil {
			return "", err
		}
	}
	return text, nil
}

// rewriteLegacyTokens converts the short-form variable marker into the
// canonical one the engine recognizes.
func rewriteLegacyTokens(text string) string {
	return strings.ReplaceAll(text, legacyMarker, "$")
}

// inlineSnippets replaces snippet markers on non-comment lines with the
// cached fragment bodies. Unresolved markers are left in place; whether
// that matters is the consumer's call.
func (r *Renderer) inlineSnippets(text string) string {
	if r.Snippets == nil || r.Snippets.Len() == 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.Contains(line, snippetMarker) {
			continue
		}
		for _, name := range r.Snippets.Names() {
			body, _ := r.Snippets.Get(name)
			line = strings.ReplaceAll(line, snippetMarker+name, body)
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// rewriteInstallTree converts url directives into the NFS mount form when
// the install tree lives on an NFS share. The original URL is kept as a
// trailing comment line so downstream consumers can still recover it.
func rewriteInstallTree(text string, metadata map[string]any) (string, error) {
	tree, _ := metadata["tree"].(string)
	if !strings.HasPrefix(tree, "nfs://") {
		return text, nil
	}

	rest := strings.TrimPrefix(tree, "nfs://")
	server, dir, ok := strings.Cut(rest, ":")
	if !ok || server == "" || dir == "" {
		return "", fmt.Errorf("invalid NFS install tree %q: want nfs://server:/path", tree)
	}

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.Contains(line, "--url") && strings.Contains(line, "url ") {
			out = append(out, fmt.Sprintf("nfs --server %s --dir %s", server, dir))
			out = append(out, fmt.Sprintf("#url --url=%s", tree))
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n"), nil
}

// evaluate runs the templating engine over the text. Variable markers
// ($name and ${name}) resolve against the metadata mapping; a name with no
// value renders as an empty string rather than failing the evaluation.
func evaluate(text string, metadata map[string]any) (string, error) {
	prepared := variablePattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := variablePattern.FindStringSubmatch(match)
		name := groups[1]
		if name == "" {
			name = groups[2]
		}
		return fmt.Sprintf("{{lookup %q}}", name)
	})

	funcs := template.FuncMap{
		"lookup": func(name string) string {
			value, ok := metadata[name]
			if !ok || value == nil {
				return ""
			}
			if s, isString := value.(string); isString {
				return s
			}
			return fmt.Sprint(value)
		},
	}

	tmpl, err := template.New("render").Funcs(funcs).Parse(prepared)
	if err != nil {
		return "", &SyntaxError{Context: excerpt(text), Err: err}
	}

	var builder strings.Builder
	if err := tmpl.Execute(&builder, metadata); err != nil {
		return "", &SyntaxError{Context: excerpt(text), Err: err}
	}
	return builder.String(), nil
}

// substituteLiterals replaces @@key@@ tokens verbatim for every metadata
// key holding a string value. Values containing engine-reserved syntax go
// through here instead of the engine pass.
func substituteLiterals(text string, metadata map[string]any) string {
	for key, value := range metadata {
		if s, ok := value.(string); ok {
			text = strings.ReplaceAll(text, "@@"+key+"@@", s)
		}
	}
	return text
}

func excerpt(text string) string {
	const max = 60
	text = strings.TrimSpace(text)
	if len(text) > max {
		return text[:max] + "..."
	}
	return text
}

func (r *Renderer) logger() *slog.Logger {
	return logging.Ensure(r.Logger)
}
