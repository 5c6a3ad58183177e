// Package diagnostics is the shared error/warning collection type used by
// every stage of the pipeline, from the parser down to the driver.
package diagnostics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pallene-lang/pallenec/internal/position"
)

// Kind is the closed set of diagnostic kinds.
type Kind string

const (
	Syntax        Kind = "syntax"
	Type          Kind = "type"
	Name          Kind = "name"
	Uninitialized Kind = "uninitialized"
	IO            Kind = "io"
	Toolchain     Kind = "toolchain"
)

// Diagnostic is one compiler-facing error, always tied to a source
// position (the zero Position for kinds with no single relevant span,
// e.g. a toolchain failure that spans an entire file).
type Diagnostic struct {
	Pos     position.Position
	Kind    Kind
	Message string
}

// String renders d in the driver's required line format:
// "<file>:<line>:<col>: <kind>: <message>".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Pos.String(), d.Kind, d.Message)
}

// Bag accumulates diagnostics for one pipeline stage. Stages never stop at
// the first error; they accumulate and return in source
// order.
type Bag struct {
	items []Diagnostic
}

// Add appends a diagnostic.
func (b *Bag) Add(pos position.Position, kind Kind, format string, args ...interface{}) {
	b.items = append(b.items, Diagnostic{Pos: pos, Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// AddDiagnostic appends an already-built Diagnostic.
func (b *Bag) AddDiagnostic(d Diagnostic) {
	b.items = append(b.items, d)
}

// Merge appends every diagnostic from other into b, preserving order.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.items = append(b.items, other.items...)
}

// HasErrors reports whether any diagnostic was recorded.
func (b *Bag) HasErrors() bool { return len(b.items) > 0 }

// Len returns the number of recorded diagnostics.
func (b *Bag) Len() int { return len(b.items) }

// Items returns the diagnostics sorted in source order (file, then
// offset): every caller gets them back in the order they appear in the
// source, not in the order the passes happened to record them.
func (b *Bag) Items() []Diagnostic {
	out := make([]Diagnostic, len(b.items))
	copy(out, b.items)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pos.Filename != out[j].Pos.Filename {
			return out[i].Pos.Filename < out[j].Pos.Filename
		}
		return out[i].Pos.Offset < out[j].Pos.Offset
	})
	return out
}

// String joins every diagnostic onto its own line, ready to write to
// stderr.
func (b *Bag) String() string {
	var sb strings.Builder
	for i, d := range b.Items() {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(d.String())
	}
	return sb.String()
}
