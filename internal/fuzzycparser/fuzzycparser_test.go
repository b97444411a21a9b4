package fuzzycparser_test

import (
	"testing"

	"github.com/smattr/clink/internal/fuzzycparser"
	"github.com/smattr/clink/internal/symbol"
)

func parseAll(t *testing.T, path, src string) []symbol.Symbol {
	t.Helper()
	var got []symbol.Symbol
	err := fuzzycparser.Parse(path, []byte(src), func(s symbol.Symbol) error {
		got = append(got, s)
		return nil
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return got
}

func TestKeywordFiltering(t *testing.T) {
	got := parseAll(t, "/t/a.c", "int x = 0;\n")
	if len(got) != 1 || got[0].Name != "x" || got[0].Category != symbol.Definition {
		t.Fatalf("expected exactly one Definition x, got %+v", got)
	}
}

func TestFunctionCallInsideBody(t *testing.T) {
	got := parseAll(t, "/t/b.c", "void main(void) {\n  helper();\n}\n")
	var sawDef, sawCall bool
	for _, s := range got {
		if s.Category == symbol.Definition && s.Name == "main" {
			sawDef = true
		}
		if s.Category == symbol.FunctionCall && s.Name == "helper" {
			sawCall = true
			if s.Parent != "main" {
				t.Errorf("expected parent=main, got %q", s.Parent)
			}
		}
	}
	if !sawDef || !sawCall {
		t.Fatalf("expected def main and call helper, got %+v", got)
	}
}

func TestStringAndCommentsDrained(t *testing.T) {
	got := parseAll(t, "/t/c.c", "// helper(); not a call\nint y = 1; /* block helper() */\nconst char *s = \"helper()\";\n")
	for _, sym := range got {
		if sym.Name == "helper" {
			t.Fatalf("helper should not be emitted from comment/string, got %+v", got)
		}
	}
}
