package checker

import "github.com/pallene-lang/pallenec/internal/types"

// Message templates for the checker's diagnostics: every error carries a
// location and a template string. Kept as named format
// strings, the way the parser's Label catalog centralizes its own wording,
// so every call site produces identically-worded errors for the same
// mistake.
const (
	msgUndeclaredName     = "undeclared name `%s`"
	msgDuplicateName      = "`%s` is already declared in this scope"
	msgUndeclaredType     = "type '%s' is not declared"
	msgCyclicAlias        = "cyclic type alias involving `%s`"
	msgNotAssignable      = "cannot assign to `%s`, which is not writable in this module"
	msgTypeMismatch       = "expected %s but found %s"
	msgArityMismatch      = "expected %d argument(s) but found %d"
	msgNotCallable        = "cannot call a value of type %s"
	msgNotIndexable       = "cannot index a value of type %s"
	msgNoSuchField        = "%s has no field `%s`"
	msgBadCast            = "cannot cast %s to %s"
	msgNeedsContextType   = "array or table literal needs a surrounding type annotation"
	msgNonUniformElements = "array literal elements must share a single type, but found %s and %s"
	msgBadConcatOperand   = "`..` requires string, integer, or float operands, but found %s"
	msgBoolOperand        = "expected a boolean operand but found %s"
	msgNumericOperand     = "expected a numeric operand but found %s"
	msgIntegerOperand     = "expected an integer operand but found %s"
	msgLenOperand         = "`#` requires an array or string operand, but found %s"
	msgNotAVar            = "left side of assignment is not an assignable variable"
	msgRecordDupField     = "field `%s` is already declared in record `%s`"
	msgMissingField       = "record %s is missing field `%s`"
	msgUnknownModule      = "cannot resolve imported module `%s`: %s"
	msgNoSuchImportMember = "module `%s` has no exported member `%s`"
	msgWrongReturnCount   = "function returns %d value(s) but %d were expected"
	msgBreakNotInLoop     = "break statement outside loop"
)

func tstr(t *types.Type) string {
	if t == nil {
		return "<unknown>"
	}
	return t.String()
}
