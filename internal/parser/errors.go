package parser

// Label names a commit point in the grammar: a place where, having seen a
// keyword like `function` or `if`, the parser is committed to that
// production and any further failure should report a specific message
// rather than a generic "parse failure". Labels map 1-to-1 onto this
// catalog, keying suggestions off a closed set of recovery identifiers.
type Label int

const (
	LabelExpectedEnd Label = iota
	LabelExpectedThen
	LabelExpectedDo
	LabelExpectedUntil
	LabelExpectedName
	LabelExpectedAssignInFor
	LabelExpectedCommaOrDo
	LabelExpectedLParen
	LabelExpectedRParen
	LabelExpectedLBrace
	LabelExpectedRBrace
	LabelExpectedRBracket
	LabelExpectedColon
	LabelExpectedType
	LabelExpectedExpression
	LabelExpectedStatement
	LabelAssignNotToVar
	LabelBreakOutsideLoop
	LabelExpectedEquals
	LabelExpectedString
	LabelExpectedIn
)

var labelMessages = map[Label]string{
	LabelExpectedEnd:         "Expected `end` to close the function body",
	LabelExpectedThen:        "Expected `then` after condition",
	LabelExpectedDo:          "Expected `do` to start the loop body",
	LabelExpectedUntil:       "Expected `until` to close the `repeat` body",
	LabelExpectedName:        "Expected a name",
	LabelExpectedAssignInFor: "Expected `=` in numeric `for`",
	LabelExpectedCommaOrDo:   "Expected `,` or `do` in `for`",
	LabelExpectedLParen:      "Expected `(`",
	LabelExpectedRParen:      "Expected `)`",
	LabelExpectedLBrace:      "Expected `{`",
	LabelExpectedRBrace:      "Expected `}`",
	LabelExpectedRBracket:    "Expected `]`",
	LabelExpectedColon:       "Expected `:`",
	LabelExpectedType:        "Expected a type",
	LabelExpectedExpression:  "Expected an expression",
	LabelExpectedStatement:   "Expected a statement",
	LabelAssignNotToVar:      "Left side of assignment is not an assignable variable",
	LabelBreakOutsideLoop:    "break statement outside loop",
	LabelExpectedEquals:      "Expected `=`",
	LabelExpectedString:      "Expected a string literal naming the imported module",
	LabelExpectedIn:          "Expected `in`",
}

// Message renders the catalog entry for l.
func (l Label) Message() string { return labelMessages[l] }
