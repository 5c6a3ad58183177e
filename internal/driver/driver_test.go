package driver

import (
	"os"
	"testing"
)

func TestCompileReportsSyntaxError(t *testing.T) {
	result := Compile("test.pln", []byte(`function f(): integer return 10`), Options{StopAfter: StopAfterOptimize, Passes: DefaultPasses()})
	if !result.Diagnostics.HasErrors() {
		t.Fatal("expected a diagnostic for the missing `end`")
	}
}

func TestCompileReportsUninitializedRead(t *testing.T) {
	src := `function f(): integer
local x: integer
return x
end`
	result := Compile("test.pln", []byte(src), Options{StopAfter: StopAfterOptimize, Passes: DefaultPasses()})
	if !result.Diagnostics.HasErrors() {
		t.Fatal("expected an uninitialized-variable diagnostic")
	}
}

func TestCompileSucceedsOnValidProgram(t *testing.T) {
	src := `function gcd(a: integer, b: integer): integer
	if b == 0 then
		return a
	else
		return gcd(b, a % b)
	end
end`
	result := Compile("test.pln", []byte(src), Options{StopAfter: StopAfterOptimize, Passes: DefaultPasses()})
	if result.Diagnostics.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", result.Diagnostics.String())
	}
}

func TestCompileStopsAfterCheckSkipsAnalysis(t *testing.T) {
	src := `function f(): integer
local x: integer
return x
end`
	result := Compile("test.pln", []byte(src), Options{StopAfter: StopAfterCheck, Passes: DefaultPasses()})
	if result.Diagnostics.HasErrors() {
		t.Fatalf("unexpected diagnostics when stopping before analysis: %s", result.Diagnostics.String())
	}
}

func TestCompileWithPassesDisabledSkipsUninitializedCheck(t *testing.T) {
	src := `function f(): integer
local x: integer
return x
end`
	result := Compile("test.pln", []byte(src), Options{StopAfter: StopAfterOptimize, Passes: Passes{}})
	if result.Diagnostics.HasErrors() {
		t.Fatalf("unexpected diagnostics with both passes disabled: %s", result.Diagnostics.String())
	}
}

func TestModuleNameReplacesSlashesWithUnderscores(t *testing.T) {
	if got := ModuleName("foo/bar.pln"); got != "foo_bar" {
		t.Fatalf("got %q, want foo_bar", got)
	}
}

func TestValidateBaseNameRejectsInvalidCharacters(t *testing.T) {
	if err := ValidateBaseName("foo bar.pln"); err == nil {
		t.Fatal("expected an error for a base name containing a space")
	}
	if err := ValidateBaseName("foo/bar-baz.pln"); err == nil {
		t.Fatal("expected an error for a base name containing a hyphen")
	}
	if err := ValidateBaseName("foo/bar_baz.pln"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStagesForFullChain(t *testing.T) {
	stages, err := StagesFor(".pln", ".so")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stages) != 4 {
		t.Fatalf("got %d stages, want 4", len(stages))
	}
	if stages[0].From != ".pln" || stages[len(stages)-1].To != ".so" {
		t.Fatalf("got stages %v", stages)
	}
}

func TestStagesForPartialChain(t *testing.T) {
	stages, err := StagesFor(".pln", ".c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stages) != 1 || stages[0] != (Chain{".pln", ".c"}) {
		t.Fatalf("got %v, want a single .pln->.c stage", stages)
	}
}

func TestStagesForUnreachableTargetIsAnError(t *testing.T) {
	if _, err := StagesFor(".c", ".pln"); err == nil {
		t.Fatal("expected an error: .c cannot reach .pln along the forward chain")
	}
}

func TestTranslateToLuaRoundTripsOnItsOwnOutput(t *testing.T) {
	src := []byte("local xs: integer = 10\n")
	out, diags := TranslateToLua("test.pln", src, nil)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags.String())
	}
	again, diags := TranslateToLua("test.pln", out, nil)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics re-translating output: %s", diags.String())
	}
	if string(again) != string(out) {
		t.Fatalf("translate(translate(src)) != translate(src):\n%q\nvs\n%q", again, out)
	}
}

func TestWorkspaceCloseRemovesDirectory(t *testing.T) {
	ws, err := NewWorkspace()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ws.Close(); err != nil {
		t.Fatalf("unexpected error closing workspace: %v", err)
	}
	if _, err := os.Stat(ws.Dir); !os.IsNotExist(err) {
		t.Fatalf("workspace directory %s still exists after Close (stat error: %v)", ws.Dir, err)
	}
}
