// Package modules resolves `import` declarations collected by the
// checker's pass 1 to another compiled unit's export table, checking any
// declared semver constraint against the target module's own declared
// version.
package modules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/pallene-lang/pallenec/internal/ast"
	"github.com/pallene-lang/pallenec/internal/checker"
	"github.com/pallene-lang/pallenec/internal/config"
	"github.com/pallene-lang/pallenec/internal/parser"
	"github.com/pallene-lang/pallenec/internal/types"
)

// Unit is one resolved import's export table plus the version the unit
// itself declares, so a dependent's constraint can be checked against it.
type Unit struct {
	Path    string
	Version string
	Exports map[string]*types.Type
}

// Resolver locates, parses, and checks `.pln` files reachable from a
// manifest's search roots, far enough to know each one's export table.
// Resolving a module is read-only and side-effect-free. It implements
// checker.Resolver.
type Resolver struct {
	Roots []string

	mu    sync.Mutex
	cache map[string]*Unit
	errs  map[string]error
}

// NewResolver builds a Resolver that searches the given manifest's Roots
// for imported `.pln` files, relative to manifestDir.
func NewResolver(manifestDir string, m *config.Manifest) *Resolver {
	roots := make([]string, 0, len(m.Roots)+1)
	roots = append(roots, manifestDir)
	for _, r := range m.Roots {
		roots = append(roots, filepath.Join(manifestDir, r))
	}
	return &Resolver{Roots: roots, cache: map[string]*Unit{}, errs: map[string]error{}}
}

// Resolve implements checker.Resolver. It is safe for concurrent use: two
// independent imports racing through Resolve for different module paths
// never block each other beyond the shared cache's mutex.
func (r *Resolver) Resolve(modulePath, constraint string) (*checker.Module, error) {
	u, err := r.resolveUnit(modulePath)
	if err != nil {
		return nil, err
	}
	if constraint != "" {
		if err := checkConstraint(modulePath, u.Version, constraint); err != nil {
			return nil, err
		}
	}
	return &checker.Module{Path: u.Path, Exports: u.Exports}, nil
}

// ResolveAll resolves every module path in paths concurrently, bounded by
// an errgroup.Group: resolving one import has no data dependency on
// another's result, so the only shared state is the Resolver's own
// cache.
func (r *Resolver) ResolveAll(paths []string) error {
	var g errgroup.Group
	g.SetLimit(8)
	for _, p := range paths {
		path := p
		g.Go(func() error {
			_, err := r.resolveUnit(path)
			return err
		})
	}
	return g.Wait()
}

func (r *Resolver) resolveUnit(modulePath string) (*Unit, error) {
	r.mu.Lock()
	if u, ok := r.cache[modulePath]; ok {
		r.mu.Unlock()
		return u, nil
	}
	if err, ok := r.errs[modulePath]; ok {
		r.mu.Unlock()
		return nil, err
	}
	r.mu.Unlock()

	u, err := r.loadUnit(modulePath)

	r.mu.Lock()
	if err != nil {
		r.errs[modulePath] = err
	} else {
		r.cache[modulePath] = u
	}
	r.mu.Unlock()

	return u, err
}

func (r *Resolver) loadUnit(modulePath string) (*Unit, error) {
	file, err := r.findFile(modulePath)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "reading imported module %q", modulePath)
	}

	prog, diags := parser.Parse(file, src)
	if diags.HasErrors() {
		return nil, errors.Errorf("module %q failed to parse:\n%s", modulePath, diags.String())
	}

	checkDiags := checker.Check(file, prog, r)
	if checkDiags.HasErrors() {
		return nil, errors.Errorf("module %q failed to type-check:\n%s", modulePath, checkDiags.String())
	}

	exports := exportTable(prog)
	manifest, _ := config.Load(filepath.Join(filepath.Dir(file), "pallene.yaml"))

	return &Unit{Path: modulePath, Version: manifest.Version, Exports: exports}, nil
}

// exportTable collects the types of every top-level declaration not
// marked local, the same set the translator's export synthesis walks.
func exportTable(prog *ast.Program) map[string]*types.Type {
	exports := map[string]*types.Type{}
	for _, top := range prog.Toplevs {
		switch t := top.(type) {
		case *ast.TopFunc:
			if !t.IsLocal {
				args := make([]*types.Type, len(t.Params))
				for i, p := range t.Params {
					args[i] = p.Type
				}
				exports[t.Name] = types.Function(args, t.Rets)
			}
		case *ast.TopVar:
			if !t.IsLocal {
				exports[t.Name] = t.Type
			}
		}
	}
	return exports
}

func (r *Resolver) findFile(modulePath string) (string, error) {
	rel := strings.ReplaceAll(modulePath, ".", string(filepath.Separator)) + ".pln"
	for _, root := range r.Roots {
		candidate := filepath.Join(root, rel)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", errors.Errorf("no .pln file found for import %q under %s", modulePath, strings.Join(r.Roots, ", "))
}

// checkConstraint validates a declared import constraint (e.g. `>= "1.2.0"`)
// against the imported unit's own declared version, mirroring the
// teacher's packagemanager use of Masterminds/semver for dependency
// version resolution.
func checkConstraint(modulePath, version, constraint string) error {
	if version == "" {
		return errors.Errorf("import %q declares constraint %q but the module has no Version in its pallene.yaml", modulePath, constraint)
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errors.Wrapf(err, "invalid version constraint %q on import %q", constraint, modulePath)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return errors.Wrapf(err, "module %q has invalid declared version %q", modulePath, version)
	}
	if !c.Check(v) {
		return fmt.Errorf("module %q version %s does not satisfy constraint %s", modulePath, v, constraint)
	}
	return nil
}
