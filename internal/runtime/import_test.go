package runtime

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"ypsh-lang/internal/lexer"
	"ypsh-lang/internal/parser"
)

// runScriptDir executes source with imports resolved against dir.
func runScriptDir(t *testing.T, dir, source string) (string, error) {
	t.Helper()
	l := lexer.New(source, "main.ypsh")
	tokens, lexDiags := l.Tokenize()
	if len(lexDiags) > 0 {
		t.Fatalf("lex errors: %v", lexDiags)
	}
	file, parseDiags := parser.New(tokens).ParseFile()
	if len(parseDiags) > 0 {
		t.Fatalf("parse errors: %v", parseDiags)
	}

	var buf bytes.Buffer
	interp := NewInterpreter(&buf, &buf)
	interp.SetShellRunner(&fakeShell{})
	interp.SetScriptDir(dir)
	err := interp.Run(file)
	return buf.String(), err
}

func writeScript(t *testing.T, dir, name, source string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(source), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func TestImportNamespace(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "mathlib.ypsh", `
var answer = 42
func double(x) {
  return x * 2
}
`)

	out, err := runScriptDir(t, dir, `
import "mathlib"
print(mathlib.answer)
print(mathlib.double(21))
`)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out != "42\n42\n" {
		t.Errorf("expected namespace access, got %q", out)
	}
}

func TestImportAlias(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "mathlib.ypsh", `var answer = 7`)

	out, err := runScriptDir(t, dir, `
import "mathlib" as m
print(m.answer)
`)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out != "7\n" {
		t.Errorf("expected aliased access, got %q", out)
	}
}

func TestImportLegacyExtension(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "legacy.pylo", `var v = 1`)

	out, err := runScriptDir(t, dir, `
import "legacy"
print(legacy.v)
`)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out != "1\n" {
		t.Errorf("expected legacy extension resolution, got %q", out)
	}
}

func TestImportMissingIsCatchable(t *testing.T) {
	dir := t.TempDir()
	out, err := runScriptDir(t, dir, `
do {
  import "nope"
} catch e {
  print(e.kind)
}
`)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out != "ImportError\n" {
		t.Errorf("expected caught ImportError, got %q", out)
	}
}

func TestImportCircular(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "a.ypsh", `import "b"`)
	writeScript(t, dir, "b.ypsh", `import "a"`)

	_, err := runScriptDir(t, dir, `import "a"`)
	if err == nil {
		t.Fatal("expected circular import error")
	}
	se, ok := err.(*ScriptError)
	if !ok || se.Kind != ImportError {
		t.Errorf("expected ImportError, got %v", err)
	}
}

func TestImportDoesNotExportBuiltins(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "lib.ypsh", `var v = 1`)

	_, err := runScriptDir(t, dir, `
import "lib"
lib.print("x")
`)
	if err == nil {
		t.Fatal("expected error calling builtin through namespace")
	}
}

func TestImportErrorPropagates(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "bad.ypsh", `var x = 1 / 0`)

	_, err := runScriptDir(t, dir, `import "bad"`)
	if err == nil {
		t.Fatal("expected error from imported script")
	}
	se, ok := err.(*ScriptError)
	if !ok || se.Kind != ZeroDivisionError {
		t.Errorf("expected the original ZeroDivisionError, got %v", err)
	}
}

func TestImportSearchPaths(t *testing.T) {
	libDir := t.TempDir()
	writeScript(t, libDir, "shared.ypsh", `var v = 9`)

	mainDir := t.TempDir()
	l := lexer.New(`
import "shared"
print(shared.v)
`, "main.ypsh")
	tokens, _ := l.Tokenize()
	file, _ := parser.New(tokens).ParseFile()

	var buf bytes.Buffer
	interp := NewInterpreter(&buf, &buf)
	interp.SetScriptDir(mainDir)
	interp.SetSearchPaths([]string{libDir})
	if err := interp.Run(file); err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if buf.String() != "9\n" {
		t.Errorf("expected search-path resolution, got %q", buf.String())
	}
}
