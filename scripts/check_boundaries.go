// Command check_boundaries enforces the layer rules of every service under
// contexts/. Run it from the repository root.
package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "univote"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRule describes what one layer of a service may import. Paths in
// forbidden and allowed are relative to the service (leading "/") or to the
// module root.
type layerRule struct {
	name       string
	forbidden  []string
	allowed    []string
	stdlibOnly bool
}

var runtimeInfrastructure = []string{"internal", "integrations", "platform"}

var layerRules = map[string]layerRule{
	"domain": {
		name:      "domain",
		forbidden: []string{"/adapters"},
		allowed:   []string{"/domain"},
	},
	"application": {
		name:      "application",
		forbidden: []string{"/adapters"},
		allowed:   []string{"/application", "/domain", "/ports", "contracts"},
	},
	"ports": {
		name:    "ports",
		allowed: []string{"/domain", "contracts"},
	},
	"transport": {
		name:       "transport",
		stdlibOnly: true,
	},
}

func main() {
	violations := collectViolations("contexts")
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}
	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

// collectViolations walks root and returns violations sorted by file, line
// and import.
func collectViolations(root string) []violation {
	var violations []violation
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		normalized := filepath.ToSlash(path)
		parts := strings.Split(normalized, "/")
		if len(parts) < 4 || parts[0] != "contexts" {
			return nil
		}
		service := modulePath + "/" + strings.Join(parts[:3], "/")
		violations = append(violations, checkFile(path, normalized, parts[3], service)...)
		return nil
	})

	sort.Slice(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Import < b.Import
	})
	return violations
}

func checkFile(path string, normalized string, layer string, service string) []violation {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: normalized, Line: 1, Rule: "file must parse"}}
	}

	rule, hasRule := layerRules[layer]
	var out []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		report := func(reason string) {
			out = append(out, violation{
				File:   normalized,
				Line:   fset.Position(imp.Pos()).Line,
				Import: importPath,
				Rule:   reason,
			})
		}

		if within(importPath, modulePath+"/contexts") && !within(importPath, service) {
			report("cross-module imports are forbidden")
		}
		if hasRule {
			for _, reason := range rule.check(importPath, service) {
				report(reason)
			}
		}
	}
	return out
}

func (r layerRule) check(importPath string, service string) []string {
	if isStdlib(importPath) {
		return nil
	}
	if r.stdlibOnly {
		return []string{r.name + " DTOs must only use the standard library"}
	}

	var reasons []string
	for _, prefix := range r.forbidden {
		if within(importPath, resolve(prefix, service)) || strings.Contains(importPath, prefix+"/") {
			reasons = append(reasons, r.name+" must not import "+strings.TrimPrefix(prefix, "/"))
		}
	}
	for _, dir := range runtimeInfrastructure {
		if within(importPath, modulePath+"/"+dir) {
			reasons = append(reasons, r.name+" must not import runtime infrastructure")
			break
		}
	}
	allowed := false
	for _, prefix := range r.allowed {
		if within(importPath, resolve(prefix, service)) {
			allowed = true
			break
		}
	}
	if !allowed {
		reasons = append(reasons, r.name+" import is outside explicit allowlist")
	}
	return reasons
}

func resolve(prefix string, service string) string {
	if strings.HasPrefix(prefix, "/") {
		return service + prefix
	}
	return modulePath + "/" + prefix
}

func within(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// isStdlib treats any import whose first element has no dot as standard
// library, except this module's own packages.
func isStdlib(importPath string) bool {
	if within(importPath, modulePath) {
		return false
	}
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}
