package checker

import "github.com/pallene-lang/pallenec/internal/types"

// Declaration is one name bound in a scope: a top-level function/var, an
// import, a local variable, or a function parameter.
type Declaration struct {
	Name     string
	Type     *types.Type
	Mutable  bool
	IsImport bool
}

// Scope is one entry in the symbol table's scope stack: a
// flat Name -> Declaration map with a link to its enclosing scope.
type Scope struct {
	parent *Scope
	names  map[string]*Declaration
}

func newScope(parent *Scope) *Scope {
	return &Scope{parent: parent, names: map[string]*Declaration{}}
}

// Declare binds name in this scope, shadowing any declaration of the same
// name in an enclosing scope. It returns false if name is already bound
// directly in this scope (a duplicate declaration in the same block).
func (s *Scope) Declare(decl *Declaration) bool {
	if _, dup := s.names[decl.Name]; dup {
		return false
	}
	s.names[decl.Name] = decl
	return true
}

// Lookup searches this scope and its ancestors for name.
func (s *Scope) Lookup(name string) (*Declaration, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if d, ok := cur.names[name]; ok {
			return d, true
		}
	}
	return nil, false
}
