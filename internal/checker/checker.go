// Package checker implements Pallene's name resolution and type checking
//: it takes a parsed Program and decorates every Exp node
// with a *types.Type, or reports a list of diagnostics.
package checker

import (
	"github.com/pallene-lang/pallenec/internal/ast"
	"github.com/pallene-lang/pallenec/internal/diagnostics"
	"github.com/pallene-lang/pallenec/internal/position"
	"github.com/pallene-lang/pallenec/internal/types"
)

// Module is an imported unit's resolved export table, as the `modules`
// package builds it. The checker depends only on this struct and the
// Resolver interface below, so it can be tested without a real resolver.
type Module struct {
	Path    string
	Exports map[string]*types.Type
}

// Resolver resolves an import's module path to its compiled export table.
type Resolver interface {
	Resolve(modulePath, constraint string) (*Module, error)
}

// Checker carries the state of one Program's check.
type Checker struct {
	filename string
	diags    *diagnostics.Bag

	global *Scope
	scope  *Scope

	// typeNS is the separate type namespace for record and typealias
	// names, keyed by declared name.
	typeNS map[string]*types.Type

	resolver Resolver

	// retTypes is the enclosing function's declared return types, used
	// to check `return` statements and to give array/table literals in
	// `return` position their context type.
	retTypes []*types.Type
}

// Check runs all three resolution passes over prog and returns the
// accumulated diagnostics. prog is mutated in place: every
// Exp's type is set, NamedRef placeholders are resolved, and the checker
// inserts explicit Cast nodes for every implicit promotion.
func Check(filename string, prog *ast.Program, resolver Resolver) *diagnostics.Bag {
	c := &Checker{
		filename: filename,
		diags:    &diagnostics.Bag{},
		global:   newScope(nil),
		typeNS:   map[string]*types.Type{},
		resolver: resolver,
	}
	c.scope = c.global

	c.collectTopLevel(prog)
	c.expandAliases(prog)
	c.checkBodies(prog)

	return c.diags
}

// ===== Pass 1: collect top-level declarations =====

func (c *Checker) collectTopLevel(prog *ast.Program) {
	for _, top := range prog.Toplevs {
		switch t := top.(type) {
		case *ast.TopRecord:
			c.declareType(t.Name, types.Record(t.Name, t.FieldOrder, t.Fields), t.Span.Start)
		case *ast.TopTypealias:
			c.declareType(t.Name, types.Typealias(t.Name, t.Target), t.Span.Start)
		}
	}
	for _, top := range prog.Toplevs {
		switch t := top.(type) {
		case *ast.TopFunc:
			args := make([]*types.Type, len(t.Params))
			for i, p := range t.Params {
				args[i] = p.Type
			}
			fnType := types.Function(args, t.Rets)
			if !c.global.Declare(&Declaration{Name: t.Name, Type: fnType, Mutable: false}) {
				c.diags.Add(t.Span.Start, diagnostics.Name, msgDuplicateName, t.Name)
			}
		case *ast.TopVar:
			if !c.global.Declare(&Declaration{Name: t.Name, Type: t.Type, Mutable: true}) {
				c.diags.Add(t.Span.Start, diagnostics.Name, msgDuplicateName, t.Name)
			}
		case *ast.TopImport:
			mod := c.resolveImport(t)
			exports := map[string]*types.Type{}
			var order []string
			if mod != nil {
				for name, ty := range mod.Exports {
					exports[name] = ty
					order = append(order, name)
				}
			}
			if !c.global.Declare(&Declaration{Name: t.Name, Type: types.Table(order, exports), Mutable: false, IsImport: true}) {
				c.diags.Add(t.Span.Start, diagnostics.Name, msgDuplicateName, t.Name)
			}
		}
	}
}

func (c *Checker) declareType(name string, t *types.Type, pos position.Position) {
	if _, dup := c.typeNS[name]; dup {
		c.diags.Add(pos, diagnostics.Name, msgDuplicateName, name)
		return
	}
	c.typeNS[name] = t
}

func (c *Checker) resolveImport(t *ast.TopImport) *Module {
	if c.resolver == nil {
		return nil
	}
	mod, err := c.resolver.Resolve(t.ModulePath, t.Constraint)
	if err != nil {
		c.diags.Add(t.Span.Start, diagnostics.Toolchain, msgUnknownModule, t.ModulePath, err.Error())
		return nil
	}
	return mod
}

// ===== Pass 2: expand typealiases, detect cycles =====

func (c *Checker) expandAliases(prog *ast.Program) {
	for _, t := range c.typeNS {
		c.expandType(t, map[string]bool{})
	}
	for _, d := range c.global.names {
		c.expandType(d.Type, map[string]bool{})
	}
	for _, top := range prog.Toplevs {
		switch t := top.(type) {
		case *ast.TopFunc:
			for i := range t.Params {
				c.expandType(t.Params[i].Type, map[string]bool{})
			}
			for i := range t.Rets {
				c.expandType(t.Rets[i], map[string]bool{})
			}
		case *ast.TopVar:
			c.expandType(t.Type, map[string]bool{})
		}
	}
}

// expandType resolves every NamedRef reachable from t in place, so later
// passes never see an unresolved name.
func (c *Checker) expandType(t *types.Type, visiting map[string]bool) {
	if t == nil {
		return
	}
	switch t.Tag {
	case types.TagNamedRef:
		name := t.Name
		if visiting[name] {
			c.diags.Add(t.Span.Start, diagnostics.Type, msgCyclicAlias, name)
			types.ResolveInPlace(t, types.Any())
			return
		}
		target, ok := c.typeNS[name]
		if !ok {
			c.diags.Add(t.Span.Start, diagnostics.Type, msgUndeclaredType, name)
			types.ResolveInPlace(t, types.Any())
			return
		}
		visiting[name] = true
		c.expandType(target, visiting)
		delete(visiting, name)
		types.ResolveInPlace(t, target)
	case types.TagArray:
		c.expandType(t.Elem, visiting)
	case types.TagTable:
		for _, f := range t.Fields {
			c.expandType(f, visiting)
		}
	case types.TagFunction:
		for _, a := range t.Args {
			c.expandType(a, visiting)
		}
		for _, r := range t.Rets {
			c.expandType(r, visiting)
		}
	case types.TagRecord:
		for _, f := range t.Fields {
			c.expandType(f, visiting)
		}
	case types.TagTypealias:
		c.expandType(t.Target, visiting)
	}
}

// ===== Pass 3: check function/var bodies =====

func (c *Checker) checkBodies(prog *ast.Program) {
	for _, top := range prog.Toplevs {
		switch t := top.(type) {
		case *ast.TopFunc:
			c.checkFunc(t)
		case *ast.TopVar:
			if t.Value != nil {
				got := c.checkExpWithContext(t.Value, t.Type)
				if t.Type == nil {
					t.Type = got
					if decl, ok := c.global.Lookup(t.Name); ok {
						decl.Type = got
					}
				} else {
					t.Value = c.coerceTo(t.Value, t.Type)
					c.requireAssignable(t.Value, t.Type, got)
				}
			}
		}
	}
}

func (c *Checker) checkFunc(f *ast.TopFunc) {
	c.pushScope()
	defer c.popScope()

	for _, p := range f.Params {
		c.scope.Declare(&Declaration{Name: p.Name, Type: p.Type, Mutable: true})
	}

	prevRets := c.retTypes
	c.retTypes = f.Rets
	c.checkBlock(f.Body)
	c.retTypes = prevRets
}

func (c *Checker) pushScope() { c.scope = newScope(c.scope) }
func (c *Checker) popScope()  { c.scope = c.scope.parent }
