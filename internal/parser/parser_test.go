package parser_test

import (
	"context"
	"testing"

	"github.com/smattr/clink/internal/parser"
	"github.com/smattr/clink/internal/symbol"
)

func TestDispatchByExtension(t *testing.T) {
	cases := []struct {
		path string
		want parser.Kind
	}{
		{"/t/a.c", parser.KindCTreeSitter},
		{"/t/a.cpp", parser.KindCPPTreeSitter},
		{"/t/a.s", parser.KindAsm},
		{"/t/a.py", parser.KindGeneric},
		{"/t/a.unknown", parser.KindNone},
	}
	for _, tc := range cases {
		if got := parser.KindFor(tc.path, parser.Options{}); got != tc.want {
			t.Errorf("KindFor(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestParseCFile(t *testing.T) {
	var got []symbol.Symbol
	kind, err := parser.Parse(context.Background(), "/t/a.c", []byte("int x = 0;\n"), parser.Options{}, func(s symbol.Symbol) error {
		got = append(got, s)
		return nil
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if kind != parser.KindCTreeSitter {
		t.Fatalf("expected KindCTreeSitter, got %q", kind)
	}
	if len(got) != 1 || got[0].Name != "x" {
		t.Fatalf("expected Definition x, got %+v", got)
	}
}

func TestFuzzyCOverride(t *testing.T) {
	kind := parser.KindFor("/t/a.c", parser.Options{UseFuzzyC: true})
	if kind != parser.KindFuzzyC {
		t.Fatalf("expected fuzzy-c override, got %q", kind)
	}
}
