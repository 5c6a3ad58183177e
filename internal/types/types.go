// Package types defines Pallene's closed type lattice and the
// structural/nominal equality and implicit-promotion rules the checker
// relies on.
package types

import (
	"fmt"
	"strings"

	"github.com/pallene-lang/pallenec/internal/position"
)

// Tag identifies which variant of the Type union a value holds.
type Tag int

const (
	TagNil Tag = iota
	TagBoolean
	TagInteger
	TagFloat
	TagString
	TagAny
	TagArray
	TagTable
	TagFunction
	TagRecord
	TagTypealias

	// TagNamedRef marks a type spelled as a bare name in source (e.g. a
	// field type `p: Point`) whose target is not yet known. The checker's
	// alias-expansion pass resolves every NamedRef
	// in place by overwriting *t with the resolved type's value, so every
	// other pointer aliasing the same placeholder observes the
	// resolution too.
	TagNamedRef
)

// Type is a closed tagged union over the type lattice. Only the fields
// relevant to Tag are meaningful for a given value.
type Type struct {
	Tag Tag

	Elem *Type // Array

	Fields       map[string]*Type // Table, Record
	FieldOrder   []string         // Table: declaration order, for literal typing

	Args []*Type // Function
	Rets []*Type // Function

	Name string // Record (nominal identity), Typealias (its own name)

	Target *Type // Typealias: the type it expands to

	Span position.Span // NamedRef: where the name was written in source
}

func Nil() *Type     { return &Type{Tag: TagNil} }
func Boolean() *Type { return &Type{Tag: TagBoolean} }
func Integer() *Type { return &Type{Tag: TagInteger} }
func Float() *Type   { return &Type{Tag: TagFloat} }
func String() *Type  { return &Type{Tag: TagString} }
func Any() *Type     { return &Type{Tag: TagAny} }

func Array(elem *Type) *Type { return &Type{Tag: TagArray, Elem: elem} }

func Table(order []string, fields map[string]*Type) *Type {
	return &Type{Tag: TagTable, FieldOrder: order, Fields: fields}
}

func Function(args, rets []*Type) *Type {
	return &Type{Tag: TagFunction, Args: args, Rets: rets}
}

func Record(name string, order []string, fields map[string]*Type) *Type {
	return &Type{Tag: TagRecord, Name: name, FieldOrder: order, Fields: fields}
}

func Typealias(name string, target *Type) *Type {
	return &Type{Tag: TagTypealias, Name: name, Target: target}
}

// NamedRef creates an unresolved reference to the type declared as name,
// spelled at span in source. The checker reports undeclared-type and
// cyclic-alias diagnostics at span rather than at an unrelated location.
func NamedRef(name string, span position.Span) *Type {
	return &Type{Tag: TagNamedRef, Name: name, Span: span}
}

// ResolveInPlace overwrites the contents of ref (which must be a
// TagNamedRef) with a copy of resolved's fields, so every other *Type that
// aliases ref observes the resolution without needing to be revisited.
func ResolveInPlace(ref *Type, resolved *Type) {
	*ref = *resolved
}

// IsNumeric reports whether t is Integer or Float.
func (t *Type) IsNumeric() bool {
	return t != nil && (t.Tag == TagInteger || t.Tag == TagFloat)
}

// Resolve follows Typealias chains to the underlying type. The checker
// guarantees that no Typealias survives checking,
// but Resolve is also used during alias expansion itself, before that
// invariant holds.
func (t *Type) Resolve() *Type {
	for t != nil && t.Tag == TagTypealias {
		t = t.Target
	}
	return t
}

// Equal compares two types structurally, except Record, which is
// nominal (identified by declared name only).
func Equal(a, b *Type) bool {
	a, b = a.Resolve(), b.Resolve()
	if a == nil || b == nil {
		return a == b
	}
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case TagNil, TagBoolean, TagInteger, TagFloat, TagString, TagAny:
		return true
	case TagArray:
		return Equal(a.Elem, b.Elem)
	case TagTable:
		if len(a.Fields) != len(b.Fields) {
			return false
		}
		for name, ta := range a.Fields {
			tb, ok := b.Fields[name]
			if !ok || !Equal(ta, tb) {
				return false
			}
		}
		return true
	case TagFunction:
		if len(a.Args) != len(b.Args) || len(a.Rets) != len(b.Rets) {
			return false
		}
		for i := range a.Args {
			if !Equal(a.Args[i], b.Args[i]) {
				return false
			}
		}
		for i := range a.Rets {
			if !Equal(a.Rets[i], b.Rets[i]) {
				return false
			}
		}
		return true
	case TagRecord:
		return a.Name == b.Name
	}
	return false
}

// String renders t the way diagnostics quote types in error messages
// ("expected integer but found string").
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Tag {
	case TagNil:
		return "nil"
	case TagBoolean:
		return "boolean"
	case TagInteger:
		return "integer"
	case TagFloat:
		return "float"
	case TagString:
		return "string"
	case TagAny:
		return "any"
	case TagArray:
		return fmt.Sprintf("{%s}", t.Elem.String())
	case TagTable:
		parts := make([]string, 0, len(t.FieldOrder))
		for _, name := range t.FieldOrder {
			parts = append(parts, fmt.Sprintf("%s: %s", name, t.Fields[name].String()))
		}
		return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
	case TagFunction:
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = a.String()
		}
		rets := make([]string, len(t.Rets))
		for i, r := range t.Rets {
			rets[i] = r.String()
		}
		return fmt.Sprintf("(%s) -> (%s)", strings.Join(args, ", "), strings.Join(rets, ", "))
	case TagRecord:
		return t.Name
	case TagTypealias:
		return t.Name
	}
	return "<invalid>"
}
