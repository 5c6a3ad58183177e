// Command pallenec is the Pallene compiler's command-line front end.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pallene-lang/pallenec/internal/config"
	"github.com/pallene-lang/pallenec/internal/driver"
)

var (
	emitC      = flag.Bool("emit-c", false, "compile .pln to .c and stop")
	emitAsm    = flag.Bool("emit-asm", false, "compile .c to .s (not compatible with --emit-c)")
	emitLua    = flag.Bool("emit-lua", false, "translate .pln to .lua and stop")
	compileC   = flag.Bool("compile-c", false, "compile .c to .so")
	emitSrcMap = flag.Bool("emit-sourcemap", false, "accepted but ignored: no source map is written")
	configPath = flag.String("config", "", "path to the pallene.yaml manifest (default: ./pallene.yaml next to the input)")
	watch      = flag.Bool("watch", false, "recompile whenever the input file or a file in its directory changes")
	ccPath     = flag.String("cc", "cc", "the C compiler to invoke for .c->.s->.o->.so stages")
)

func main() {
	flag.Usage = showUsage
	flag.Parse()

	if err := validateFlags(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) != 1 {
		showUsage()
		os.Exit(1)
	}
	input := args[0]

	if err := driver.ValidateBaseName(input); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	if *watch {
		runWatch(input)
		return
	}

	if err := runOnce(input); err != nil {
		log.Fatalf("compilation failed: %v", err)
	}
}

func showUsage() {
	fmt.Fprintln(os.Stderr, "pallenec [FLAGS] <input>")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "FLAGS:")
	fmt.Fprintln(os.Stderr, "    --emit-c          .pln -> .c")
	fmt.Fprintln(os.Stderr, "    --emit-asm        .c   -> .s")
	fmt.Fprintln(os.Stderr, "    --emit-lua        .pln -> .lua")
	fmt.Fprintln(os.Stderr, "    --compile-c       .c   -> .so")
	fmt.Fprintln(os.Stderr, "    --emit-sourcemap  accepted but ignored: no source map is written")
	fmt.Fprintln(os.Stderr, "    --config <path>   load a pallene.yaml manifest from <path>")
	fmt.Fprintln(os.Stderr, "    --watch           recompile on change to the input file or a file in its directory")
	fmt.Fprintln(os.Stderr, "    --cc <path>       C compiler used for the .c->.s->.o->.so chain")
}

func validateFlags() error {
	if *emitC && *emitAsm {
		return fmt.Errorf("option '--emit-asm' can not be used together with option '--emit-c'")
	}
	return nil
}

func runOnce(input string) error {
	ext := filepath.Ext(input)

	if *emitLua {
		return compileToLua(input)
	}

	manifest, resolver, err := driver.LoadManifest(input, *configPath)
	if err != nil {
		return err
	}

	src, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}

	targetExt := targetExtension(manifest)
	if targetExt == ".lua" {
		return compileToLua(input)
	}
	stages, err := driver.StagesFor(ext, targetExt)
	if err != nil {
		return err
	}

	opts := driver.Options{
		StopAfter: driver.StopAfterOptimize,
		Passes:    driver.DefaultPasses(),
		Resolver:  resolver,
		EmitSourcemap: *emitSrcMap,
		CC:            *ccPath,
	}
	result := driver.Compile(input, src, opts)
	if result.Diagnostics.HasErrors() {
		fmt.Fprintln(os.Stderr, result.Diagnostics.String())
		os.Exit(1)
	}

	ws, err := driver.NewWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	return runChain(input, stages, ws)
}

// targetExtension picks the chain endpoint implied by the given flags,
// falling back to the manifest's default emit mode.
func targetExtension(manifest *config.Manifest) string {
	switch {
	case *emitC:
		return ".c"
	case *emitAsm:
		return ".s"
	case *compileC:
		return ".so"
	case manifest.Emit == "lua":
		return ".lua"
	default:
		return ".so"
	}
}

func runChain(input string, stages []driver.Chain, ws *driver.Workspace) error {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	cur := input
	for i, stage := range stages {
		if stage.From == ".pln" {
			// The .pln->.c step is this compiler's own code generator;
			// everything after is the external C toolchain.
			continue
		}
		var out string
		if i == len(stages)-1 {
			out = base + stage.To
		} else {
			out = ws.Path(fmt.Sprintf("stage%d%s", i, stage.To))
		}
		if err := driver.RunToolchainStage(*ccPath, stage.From+"->"+stage.To, cur, out); err != nil {
			return err
		}
		cur = out
	}
	return nil
}

func compileToLua(input string) error {
	_, resolver, err := driver.LoadManifest(input, *configPath)
	if err != nil {
		return err
	}
	src, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}
	out, diags := driver.TranslateToLua(input, src, resolver)
	if diags.HasErrors() {
		fmt.Fprintln(os.Stderr, diags.String())
		os.Exit(1)
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return os.WriteFile(base+".lua", out, 0o644)
}

func runWatch(input string) {
	w, err := driver.NewWatcher()
	if err != nil {
		log.Fatalf("starting watcher: %v", err)
	}
	defer w.Close()

	if err := w.Add(input); err != nil {
		log.Fatalf("watching %s: %v", input, err)
	}
	if err := w.Add(filepath.Dir(input)); err != nil {
		log.Fatalf("watching %s: %v", filepath.Dir(input), err)
	}

	if err := runOnce(input); err != nil {
		log.Printf("compilation failed: %v", err)
	}

	for {
		select {
		case ev := <-w.Events():
			if ev.Op&(driver.OpWrite|driver.OpCreate) == 0 {
				continue
			}
			log.Printf("change detected: %s", ev.Path)
			if err := runOnce(input); err != nil {
				log.Printf("compilation failed: %v", err)
			}
		case err := <-w.Errors():
			log.Printf("watch error: %v", err)
		}
	}
}
