package translator

import (
	"strings"
	"testing"

	"github.com/pallene-lang/pallenec/internal/parser"
)

func translateSource(t *testing.T, src string) string {
	t.Helper()
	b := []byte(src)
	prog, diags := parser.Parse("test.pln", b)
	if diags.HasErrors() {
		t.Fatalf("parse error: %s", diags.String())
	}
	return string(Translate(b, prog))
}

func TestDeclaredTypeAnnotationIsWhitedOutByteExact(t *testing.T) {
	src := "local xs: integer = 10\n"
	got := translateSource(t, "function f()\n"+src+"end\n")
	if len(got) != len("function f()\n"+src+"end\n") {
		t.Fatalf("output length changed: got %d bytes, want %d", len(got), len(src)+len("function f()\nend\n"))
	}
	if !strings.Contains(got, "local xs          = 10\n") {
		t.Fatalf("type annotation not whited out as expected, got:\n%s", got)
	}
}

func TestExportIsRewrittenToLocalSameByteLength(t *testing.T) {
	got := translateSource(t, "export function f() end\n")
	if !strings.Contains(got, "local  function f() end") {
		t.Fatalf("export not rewritten to local with padding, got:\n%s", got)
	}
}

func TestExportSynthesizesReturnTable(t *testing.T) {
	got := translateSource(t, "export function f() end\n")
	if !strings.Contains(got, "return {\n    f = f,\n}\n") {
		t.Fatalf("missing synthesized export table, got:\n%s", got)
	}
}

func TestNoExportsProducesNoTrailingTable(t *testing.T) {
	got := translateSource(t, "local function f() end\n")
	if strings.Contains(got, "return {") {
		t.Fatalf("unexpected export table in non-exporting module, got:\n%s", got)
	}
}

func TestAsCastIsWhitedOutPreservingByteLength(t *testing.T) {
	src := "local x: any = 1\nlocal y: integer = x as integer\n"
	got := translateSource(t, "function f()\n"+src+"end\n")
	if len(got) != len("function f()\n"+src+"end\n") {
		t.Fatalf("output length changed: got %d, want %d", len(got), len("function f()\n"+src+"end\n"))
	}
	if strings.Contains(got, " as integer") {
		t.Fatalf("cast was not stripped, got:\n%s", got)
	}
}

func TestRecordDeclarationIsWhitedOutEntirely(t *testing.T) {
	src := "record Point\n  x: integer\n  y: integer\nend\n"
	got := translateSource(t, src+"local function f() end\n")
	if strings.Contains(got, "record") || strings.Contains(got, "Point") {
		t.Fatalf("record declaration survived translation, got:\n%s", got)
	}
}

func TestTypealiasDeclarationIsWhitedOutEntirely(t *testing.T) {
	src := "typealias IntArray = {integer}\n"
	got := translateSource(t, src+"local function f() end\n")
	if strings.Contains(got, "typealias") || strings.Contains(got, "IntArray") {
		t.Fatalf("typealias declaration survived translation, got:\n%s", got)
	}
}

func TestParamAndReturnTypeAnnotationsAreWhitedOut(t *testing.T) {
	src := "local function f(x: integer): integer return x end\n"
	got := translateSource(t, src)
	if strings.Contains(got, "integer") {
		t.Fatalf("parameter/return type annotations survived, got:\n%s", got)
	}
	if len(got) != len(src) {
		t.Fatalf("output length changed: got %d, want %d", len(got), len(src))
	}
}

func TestTranslationNeverChangesNonExportByteLength(t *testing.T) {
	src := "record Point\n  x: integer\nend\n\nexport function dist(p: Point): float\n  return p.x as float\nend\n"
	got := translateSource(t, src)
	// Only the appended export table is allowed to grow the length.
	if len(got)-len(src) != len("return {\n    dist = dist,\n}\n") {
		t.Fatalf("unexpected growth from export table: got %d extra bytes", len(got)-len(src))
	}
}
