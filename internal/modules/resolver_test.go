package modules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pallene-lang/pallenec/internal/config"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func TestResolveExposesExportedFunction(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mathutil.pln", `export function square(x: integer): integer return x * x end`)

	r := NewResolver(dir, &config.Manifest{})
	mod, err := r.Resolve("mathutil", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := mod.Exports["square"]; !ok {
		t.Fatalf("expected export %q, got %v", "square", mod.Exports)
	}
}

func TestResolveOmitsLocalDeclarations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mathutil.pln", `
local function helper(): integer return 1 end
export function square(x: integer): integer return x * x end
`)

	r := NewResolver(dir, &config.Manifest{})
	mod, err := r.Resolve("mathutil", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := mod.Exports["helper"]; ok {
		t.Fatal("local declaration must not appear in the export table")
	}
	if _, ok := mod.Exports["square"]; !ok {
		t.Fatal("expected square to be exported")
	}
}

func TestResolveMissingModuleIsAnError(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(dir, &config.Manifest{})
	if _, err := r.Resolve("nosuch", ""); err == nil {
		t.Fatal("expected an error for a missing module")
	}
}

func TestResolveCachesResult(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mathutil.pln", `export function square(x: integer): integer return x * x end`)

	r := NewResolver(dir, &config.Manifest{})
	if _, err := r.Resolve("mathutil", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Resolve("mathutil", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.cache) != 1 {
		t.Fatalf("got %d cache entries, want 1 after resolving the same module twice", len(r.cache))
	}
}

func TestConstraintViolationReportsBothVersions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mathutil.pln", `export function square(x: integer): integer return x * x end`)
	writeFile(t, dir, "pallene.yaml", "Version: \"1.0.0\"\n")

	r := NewResolver(dir, &config.Manifest{})
	_, err := r.Resolve("mathutil", ">= 2.0.0")
	if err == nil {
		t.Fatal("expected a constraint violation error")
	}
	if !strings.Contains(err.Error(), "1.0.0") || !strings.Contains(err.Error(), "2.0.0") {
		t.Fatalf("error %q does not name both the found version and the required one", err.Error())
	}
}

func TestConstraintSatisfiedResolvesCleanly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mathutil.pln", `export function square(x: integer): integer return x * x end`)
	writeFile(t, dir, "pallene.yaml", "Version: \"1.5.0\"\n")

	r := NewResolver(dir, &config.Manifest{})
	if _, err := r.Resolve("mathutil", ">= 1.0.0"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResolveAllResolvesIndependentModulesConcurrently(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.pln", `export function a(): integer return 1 end`)
	writeFile(t, dir, "b.pln", `export function b(): integer return 2 end`)
	writeFile(t, dir, "c.pln", `export function c(): integer return 3 end`)

	r := NewResolver(dir, &config.Manifest{})
	if err := r.ResolveAll([]string{"a", "b", "c"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range []string{"a", "b", "c"} {
		if _, err := r.Resolve(name, ""); err != nil {
			t.Fatalf("resolving %s after ResolveAll: %v", name, err)
		}
	}
}
