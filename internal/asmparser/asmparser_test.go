package asmparser_test

import (
	"strings"
	"testing"

	"github.com/smattr/clink/internal/asmparser"
	"github.com/smattr/clink/internal/symbol"
)

func TestDefinitionAndCall(t *testing.T) {
	input := "foo:\n  call bar\n"
	var got []symbol.Symbol
	err := asmparser.Parse("/t/a.s", strings.NewReader(input), func(s symbol.Symbol) error {
		got = append(got, s)
		return nil
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 symbols, got %d: %+v", len(got), got)
	}
	if got[0].Category != symbol.Definition || got[0].Name != "foo" || got[0].Line != 1 || got[0].Col != 1 || got[0].Parent != "" {
		t.Errorf("unexpected first symbol: %+v", got[0])
	}
	if got[1].Category != symbol.FunctionCall || got[1].Name != "bar" || got[1].Line != 2 || got[1].Parent != "foo" {
		t.Errorf("unexpected second symbol: %+v", got[1])
	}
}

func TestParentTracking(t *testing.T) {
	input := "main:\n  call helper\n"
	var got []symbol.Symbol
	err := asmparser.Parse("/t/b.s", strings.NewReader(input), func(s symbol.Symbol) error {
		got = append(got, s)
		return nil
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 2 || got[1].Parent != "main" {
		t.Fatalf("expected call with parent=main, got %+v", got)
	}
}

func TestDefineAndInclude(t *testing.T) {
	input := "#define N 10\n#include <foo.inc>\n"
	var got []symbol.Symbol
	err := asmparser.Parse("/t/c.s", strings.NewReader(input), func(s symbol.Symbol) error {
		got = append(got, s)
		return nil
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 symbols, got %+v", got)
	}
	if got[0].Category != symbol.Definition || got[0].Name != "N" {
		t.Errorf("unexpected define symbol: %+v", got[0])
	}
	if got[1].Category != symbol.Include || got[1].Name != "foo.inc" {
		t.Errorf("unexpected include symbol: %+v", got[1])
	}
}
