package cparser_test

import (
	"testing"

	"github.com/smattr/clink/internal/cparser"
	"github.com/smattr/clink/internal/symbol"
)

func parseAll(t *testing.T, dialect cparser.Dialect, path, src string) []symbol.Symbol {
	t.Helper()
	p := cparser.New(dialect)
	var got []symbol.Symbol
	if err := p.Parse(path, []byte(src), func(s symbol.Symbol) error {
		got = append(got, s)
		return nil
	}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return got
}

func TestIncludeAndDefine(t *testing.T) {
	src := "#include <stdio.h>\n#define N 10\n"
	got := parseAll(t, cparser.DialectC, "/t/a.c", src)

	var sawInclude, sawDefine bool
	for _, s := range got {
		if s.Category == symbol.Include && s.Name == "stdio.h" {
			sawInclude = true
			if s.Line != 1 || s.Col != 10 {
				t.Errorf("Include stdio.h at %d:%d, want 1:10", s.Line, s.Col)
			}
		}
		if s.Category == symbol.Definition && s.Name == "N" {
			sawDefine = true
			if s.Line != 2 || s.Col != 9 {
				t.Errorf("Definition N at %d:%d, want 2:9", s.Line, s.Col)
			}
		}
	}
	if !sawInclude {
		t.Errorf("expected Include stdio.h, got %+v", got)
	}
	if !sawDefine {
		t.Errorf("expected Definition N, got %+v", got)
	}
}

func TestKeywordFiltering(t *testing.T) {
	src := "int x = 0;\n"
	got := parseAll(t, cparser.DialectC, "/t/b.c", src)

	var names []string
	for _, s := range got {
		names = append(names, s.Name)
	}
	if len(got) != 1 || got[0].Name != "x" || got[0].Category != symbol.Definition {
		t.Fatalf("expected exactly one Definition for x, got %+v", names)
	}
}

func TestFunctionCallParentTracking(t *testing.T) {
	src := "void main(void) {\n  helper();\n}\n"
	got := parseAll(t, cparser.DialectC, "/t/c.c", src)

	var sawCall bool
	for _, s := range got {
		if s.Category == symbol.FunctionCall && s.Name == "helper" {
			sawCall = true
			if s.Parent != "main" {
				t.Errorf("expected call parent=main, got %q", s.Parent)
			}
		}
	}
	if !sawCall {
		t.Fatalf("expected a FunctionCall to helper, got %+v", got)
	}
}

func TestCPPClassScope(t *testing.T) {
	src := "class Widget {\n  void draw();\n};\n"
	got := parseAll(t, cparser.DialectCPP, "/t/d.cpp", src)

	var sawClass bool
	for _, s := range got {
		if s.Category == symbol.Definition && s.Name == "Widget" {
			sawClass = true
		}
	}
	if !sawClass {
		t.Fatalf("expected Definition Widget, got %+v", got)
	}
}
