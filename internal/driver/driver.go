// Package driver orchestrates the compilation pipeline: it drives one
// file through lexer/parser/checker/lowering/analysis/translator, manages
// the `.pln → .c → .s → .o → .so` extension chain (and the off-chain
// `.pln → .lua` branch), and scopes every intermediate file it creates to
// the one Compile call that created it.
package driver

import (
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/pallene-lang/pallenec/internal/analysis"
	"github.com/pallene-lang/pallenec/internal/checker"
	"github.com/pallene-lang/pallenec/internal/config"
	"github.com/pallene-lang/pallenec/internal/diagnostics"
	"github.com/pallene-lang/pallenec/internal/lowering"
	"github.com/pallene-lang/pallenec/internal/modules"
	"github.com/pallene-lang/pallenec/internal/parser"
	"github.com/pallene-lang/pallenec/internal/translator"
)

// StopAfter is the furthest pipeline stage Compile should run, covering
// every intermediate form the driver can be asked to stop at.
type StopAfter string

const (
	StopAfterParse    StopAfter = "parse"
	StopAfterCheck    StopAfter = "check"
	StopAfterLower    StopAfter = "lower"
	StopAfterOptimize StopAfter = "optimize"
	StopAfterCodegen  StopAfter = "codegen"
)

// Passes selects which of the two IR passes to run when StopAfter is
// StopAfterOptimize or later.
type Passes struct {
	Uninitialized      bool
	ConstantPropagation bool
}

// DefaultPasses runs both passes, the driver's normal (non-test) mode.
func DefaultPasses() Passes {
	return Passes{Uninitialized: true, ConstantPropagation: true}
}

// Options configures one Compile invocation.
type Options struct {
	StopAfter StopAfter
	Passes    Passes

	// Resolver resolves `import` declarations. With nil, every import
	// binds to an empty export table and no diagnostic is reported.
	Resolver checker.Resolver

	// EmitSourcemap carries the CLI's --emit-sourcemap flag. Compile does
	// not read it, and no source map is written.
	EmitSourcemap bool

	// CC names the external C compiler for the .c->.s->.o->.so chain.
	// Compile does not read it; the CLI passes its --cc value to
	// RunToolchainStage, which falls back to "cc" for an empty name.
	CC string
}

var baseNamePattern = regexp.MustCompile(`^[A-Za-z0-9_/]+$`)

// ModuleName derives the runtime-visible module name from an input path's
// base name: the extension-less path with "/" replaced by
// "_".
func ModuleName(inputPath string) string {
	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	return strings.ReplaceAll(base, "/", "_")
}

// ValidateBaseName checks the input file naming constraint: the path
// sans extension must match `[A-Za-z0-9_/]+`.
func ValidateBaseName(inputPath string) error {
	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	if !baseNamePattern.MatchString(base) {
		return errors.Errorf("invalid input file name %q: base name must match [A-Za-z0-9_/]+", inputPath)
	}
	return nil
}

// Result is everything a successful Compile produced.
type Result struct {
	Diagnostics *diagnostics.Bag
	COutput     []byte // never set by Compile: C code generation is outside this package
	LuaOutput   []byte // never set by Compile: TranslateToLua returns the translated source itself
}

// Compile runs filename's source through the pipeline up to opts.StopAfter
// and returns the accumulated diagnostics plus whichever artifacts that
// stage produced. Downstream stages are skipped as soon as any prior
// stage reports an error.
func Compile(filename string, src []byte, opts Options) *Result {
	diags := &diagnostics.Bag{}

	prog, parseDiags := parser.Parse(filename, src)
	diags.Merge(parseDiags)
	if diags.HasErrors() || opts.StopAfter == StopAfterParse {
		return &Result{Diagnostics: diags}
	}

	checkDiags := checker.Check(filename, prog, opts.Resolver)
	diags.Merge(checkDiags)
	if diags.HasErrors() || opts.StopAfter == StopAfterCheck {
		return &Result{Diagnostics: diags}
	}

	mod := lowering.LowerProgram(prog)
	if opts.StopAfter == StopAfterLower {
		return &Result{Diagnostics: diags}
	}

	if opts.Passes.Uninitialized {
		for _, fn := range mod.Functions {
			fnDiags := analysis.CheckUninitialized(fn)
			diags.Merge(fnDiags)
			if fnDiags.HasErrors() {
				// Analysis passes stop at the first error they produce;
				// don't run constant propagation on a function already
				// known to read before definition.
				return &Result{Diagnostics: diags}
			}
		}
	}
	if opts.Passes.ConstantPropagation {
		for _, fn := range mod.Functions {
			analysis.PropagateConstants(fn)
		}
	}
	if opts.StopAfter == StopAfterOptimize {
		return &Result{Diagnostics: diags}
	}

	// Code generation to portable C is an external collaborator; this
	// driver only reaches the boundary of that contract, not an
	// implementation of it.
	return &Result{Diagnostics: diags}
}

// TranslateToLua runs the type-erasing translator over a
// program that has already parsed and type-checked successfully.
func TranslateToLua(filename string, src []byte, resolver checker.Resolver) ([]byte, *diagnostics.Bag) {
	diags := &diagnostics.Bag{}

	prog, parseDiags := parser.Parse(filename, src)
	diags.Merge(parseDiags)
	if diags.HasErrors() {
		return nil, diags
	}

	checkDiags := checker.Check(filename, prog, resolver)
	diags.Merge(checkDiags)
	if diags.HasErrors() {
		return nil, diags
	}

	return translator.Translate(src, prog), diags
}

// Chain is one step of the `.pln → .c → .s → .o → .so` extension chain.
type Chain struct {
	From, To string
}

var fullChain = []Chain{
	{".pln", ".c"},
	{".c", ".s"},
	{".s", ".o"},
	{".o", ".so"},
}

// StagesFor returns the sequence of chain steps needed to go from
// fromExt to toExt, or an error if toExt isn't reachable from fromExt
// along the chain (the `.pln → .lua` branch is off-chain and handled by
// TranslateToLua directly, not by StagesFor).
func StagesFor(fromExt, toExt string) ([]Chain, error) {
	startIdx := -1
	for i, c := range fullChain {
		if c.From == fromExt {
			startIdx = i
			break
		}
	}
	if startIdx == -1 {
		return nil, errors.Errorf("unsupported input extension %q", fromExt)
	}
	for i := startIdx; i < len(fullChain); i++ {
		if fullChain[i].From == toExt {
			return fullChain[startIdx:i], nil
		}
		if fullChain[i].To == toExt {
			return fullChain[startIdx : i+1], nil
		}
	}
	return nil, errors.Errorf("no chain from %q to %q", fromExt, toExt)
}

// RunToolchainStage invokes the external C toolchain for one chain step
// that isn't produced by this package's own stages (.c->.s, .s->.o,
// .o->.so), in a scratch directory that the caller is responsible for
// removing. Intermediate files are scoped to a single compile invocation
// and must be guaranteed removal by that caller.
func RunToolchainStage(cc, step, inputPath, outputPath string) error {
	var args []string
	switch step {
	case ".c->.s":
		args = []string{"-S", "-o", outputPath, inputPath}
	case ".s->.o":
		args = []string{"-c", "-o", outputPath, inputPath}
	case ".o->.so":
		args = []string{"-shared", "-o", outputPath, inputPath}
	default:
		return errors.Errorf("unknown toolchain stage %q", step)
	}
	if cc == "" {
		cc = "cc"
	}
	cmd := exec.Command(cc, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "toolchain stage %s failed: %s", step, string(out))
	}
	return nil
}

// Workspace is a scratch directory for one Compile invocation's
// intermediate files, created under the OS temp directory and removed in
// full on Close.
type Workspace struct {
	Dir string
}

// NewWorkspace creates a fresh temp directory for one compile run.
func NewWorkspace() (*Workspace, error) {
	dir, err := os.MkdirTemp("", "pallenec-*")
	if err != nil {
		return nil, errors.Wrap(err, "creating intermediate workspace")
	}
	return &Workspace{Dir: dir}, nil
}

// Path joins name onto the workspace directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// Close removes the workspace and every intermediate file under it,
// whether the compile succeeded or failed.
func (w *Workspace) Close() error {
	return os.RemoveAll(w.Dir)
}

// LoadManifest loads the pallene.yaml manifest that governs inputPath's
// directory, and builds the import Resolver it describes.
func LoadManifest(inputPath, configPath string) (*config.Manifest, *modules.Resolver, error) {
	dir := filepath.Dir(inputPath)
	if configPath == "" {
		configPath = filepath.Join(dir, "pallene.yaml")
	}
	m, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	return m, modules.NewResolver(dir, m), nil
}
