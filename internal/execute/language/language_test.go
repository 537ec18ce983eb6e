package language

import (
	"strings"
	"testing"

	pkgerrors "coderelay/pkg/errors"
)

func TestRegistryResolve(t *testing.T) {
	registry := DefaultRegistry()

	cases := []struct {
		name         string
		input        string
		wantExecutor string
		wantVersion  string
		wantKind     StrategyKind
	}{
		{name: "python", input: "python", wantExecutor: "python3", wantVersion: "4", wantKind: KindIdentity},
		{name: "python upper", input: "PYTHON", wantExecutor: "python3", wantVersion: "4", wantKind: KindIdentity},
		{name: "javascript mixed", input: "JavaScript", wantExecutor: "nodejs", wantVersion: "4", wantKind: KindIdentity},
		{name: "cpp", input: "cpp", wantExecutor: "cpp17", wantVersion: "1", wantKind: KindScaffoldIfNoEntryPoint},
		{name: "c", input: "C", wantExecutor: "c", wantVersion: "5", wantKind: KindScaffoldIfNoEntryPoint},
		{name: "java", input: "java", wantExecutor: "java", wantVersion: "4", wantKind: KindIdentity},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := registry.Resolve(tc.input)
			if err != nil {
				t.Fatalf("resolve failed: %v", err)
			}
			if cfg.ExecutorID != tc.wantExecutor {
				t.Fatalf("unexpected executor id: %s", cfg.ExecutorID)
			}
			if cfg.VersionSelector != tc.wantVersion {
				t.Fatalf("unexpected version: %s", cfg.VersionSelector)
			}
			if cfg.Strategy.Kind != tc.wantKind {
				t.Fatalf("unexpected strategy: %s", cfg.Strategy.Kind)
			}
		})
	}
}

func TestRegistryResolveUnsupported(t *testing.T) {
	registry := DefaultRegistry()

	for _, name := range []string{"brainfuck", "BrainFuck", "rust", "c++", " python", ""} {
		_, err := registry.Resolve(name)
		if err == nil {
			t.Fatalf("expected %q to be unsupported", name)
		}
		if pkgerrors.GetCode(err) != pkgerrors.LanguageNotSupported {
			t.Fatalf("unexpected error code for %q: %v", name, err)
		}
	}

	_, err := registry.Resolve("brainfuck")
	if err.Error() != "Language 'brainfuck' is not supported" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestRegistryNames(t *testing.T) {
	names := DefaultRegistry().Names()
	want := []string{"c", "cpp", "java", "javascript", "python"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestNewRegistryNormalizesNames(t *testing.T) {
	registry := NewRegistry(
		Config{Name: " Go ", ExecutorID: "go", VersionSelector: "4", Strategy: Identity()},
		Config{Name: "", ExecutorID: "ignored"},
	)
	cfg, err := registry.Resolve("GO")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if cfg.Name != "go" {
		t.Fatalf("unexpected canonical name: %q", cfg.Name)
	}
	if len(registry.Names()) != 1 {
		t.Fatalf("expected empty names to be skipped: %v", registry.Names())
	}
}

func TestWrapIdentity(t *testing.T) {
	inputs := []string{"print(1)", "", "int main() {}", "console.log('main')"}
	for _, input := range inputs {
		once := Wrap(input, Identity())
		if once != input {
			t.Fatalf("identity changed source: %q", once)
		}
		if Wrap(once, Identity()) != once {
			t.Fatalf("identity not idempotent for %q", input)
		}
	}
}

func TestWrapScaffoldCpp(t *testing.T) {
	cfg, err := DefaultRegistry().Resolve("cpp")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	wrapped := Wrap("cout << 1;", cfg.Strategy)
	want := "#include <iostream>\n#include <vector>\n#include <string>\n#include <algorithm>\nusing namespace std;\n\nint main() {\n    cout << 1;\n    return 0;\n}"
	if wrapped != want {
		t.Fatalf("unexpected scaffold:\n%s", wrapped)
	}
	if !strings.Contains(wrapped, "cout << 1;") {
		t.Fatalf("scaffold dropped the original source")
	}
}

func TestWrapScaffoldC(t *testing.T) {
	cfg, err := DefaultRegistry().Resolve("c")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	wrapped := Wrap(`printf("%d", 1);`, cfg.Strategy)
	for _, part := range []string{"#include <stdio.h>", "#include <stdlib.h>", "#include <string.h>", "int main() {", `printf("%d", 1);`, "return 0;"} {
		if !strings.Contains(wrapped, part) {
			t.Fatalf("scaffold missing %q:\n%s", part, wrapped)
		}
	}
	if strings.Contains(wrapped, "iostream") {
		t.Fatalf("c scaffold must not include c++ headers")
	}
}

func TestWrapScaffoldKeepsSourceWithEntryPoint(t *testing.T) {
	strategy := ScaffoldIfNoEntryPoint("main", cppPrelude)

	cases := []string{
		"int main() { return 0; }",
		"// main is defined elsewhere\ncout << 1;",
		`puts("domain");`,
	}
	for _, source := range cases {
		if got := Wrap(source, strategy); got != source {
			t.Fatalf("expected source unchanged, got:\n%s", got)
		}
	}
}

func TestWrapScaffoldMissesUnusualEntryPoint(t *testing.T) {
	strategy := ScaffoldIfNoEntryPoint("main", cPrelude)
	source := "#define ENTRY ma ## in\nint ENTRY() { return 0; }"
	wrapped := Wrap(source, strategy)
	if wrapped == source {
		t.Fatalf("expected scaffold when token is not literally present")
	}
	if !strings.Contains(wrapped, source) {
		t.Fatalf("scaffold dropped the original source")
	}
}

func TestStrategyKindString(t *testing.T) {
	if KindIdentity.String() != "identity" {
		t.Fatalf("unexpected name: %s", KindIdentity)
	}
	if KindScaffoldIfNoEntryPoint.String() != "scaffold_if_no_entry_point" {
		t.Fatalf("unexpected name: %s", KindScaffoldIfNoEntryPoint)
	}
	if StrategyKind(42).String() != "unknown" {
		t.Fatalf("unexpected name for unknown kind")
	}
}
