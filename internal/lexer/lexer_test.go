package lexer

import "testing"

func TestNextBasicTokens(t *testing.T) {
	src := `local x: integer = 10 + 2.5`
	l := New("test.pln", []byte(src))

	want := []TokenType{
		TokenLocal, TokenName, TokenColon, TokenName, TokenAssign,
		TokenInteger, TokenPlus, TokenFloat, TokenEOF,
	}

	for i, wantType := range want {
		tok := l.Next()
		if tok.Type != wantType {
			t.Fatalf("token %d: got %s, want %s", i, tok.Type, wantType)
		}
	}
}

func TestIntegerVsFloat(t *testing.T) {
	tests := []struct {
		src  string
		want TokenType
	}{
		{"10", TokenInteger},
		{"10.0", TokenFloat},
		{"10.", TokenFloat},
		{"1e10", TokenFloat},
		{"0x1F", TokenInteger},
	}
	for _, tt := range tests {
		l := New("test.pln", []byte(tt.src))
		tok := l.Next()
		if tok.Type != tt.want {
			t.Errorf("lexing %q: got %s, want %s", tt.src, tok.Type, tt.want)
		}
		if tok.Lexeme != tt.src {
			t.Errorf("lexing %q: lexeme = %q", tt.src, tok.Lexeme)
		}
	}
}

func TestKeywordsNotConfusedWithNames(t *testing.T) {
	l := New("test.pln", []byte("record Point end recordKeeper"))
	if tok := l.Next(); tok.Type != TokenRecord {
		t.Fatalf("got %s, want record", tok.Type)
	}
	if tok := l.Next(); tok.Type != TokenName {
		t.Fatalf("got %s, want name", tok.Type)
	}
	if tok := l.Next(); tok.Type != TokenEnd {
		t.Fatalf("got %s, want end", tok.Type)
	}
	if tok := l.Next(); tok.Type != TokenName || tok.Lexeme != "recordKeeper" {
		t.Fatalf("got %s %q, want name recordKeeper", tok.Type, tok.Lexeme)
	}
}

func TestLineCommentSkipped(t *testing.T) {
	l := New("test.pln", []byte("-- comment\nlocal x"))
	tok := l.Next()
	if tok.Type != TokenLocal || tok.Line != 2 {
		t.Fatalf("got %s at line %d, want local at line 2", tok.Type, tok.Line)
	}
}

func TestOffsetsTrackBytePositions(t *testing.T) {
	l := New("test.pln", []byte("ab\ncd"))
	first := l.Next() // "ab"
	if first.Offset != 0 || first.Line != 1 || first.Column != 1 {
		t.Fatalf("unexpected first token position: %+v", first)
	}
	second := l.Next() // "cd"
	if second.Offset != 3 || second.Line != 2 || second.Column != 1 {
		t.Fatalf("unexpected second token position: %+v", second)
	}
}
