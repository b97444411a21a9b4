package cscopeparser

import (
	"testing"

	"github.com/smattr/clink/internal/symbol"
)

func TestParseDatabaseMarks(t *testing.T) {
	db := "cscope 15 /t -c\n" +
		"@/t/a.c\n" +
		"1\n" +
		"\t$main\n" +
		"2\n" +
		"\t`helper\n" +
		"\t}\n"

	var got []symbol.Symbol
	if err := parseDatabase([]byte(db), func(s symbol.Symbol) error {
		got = append(got, s)
		return nil
	}); err != nil {
		t.Fatalf("parseDatabase: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 symbols, got %+v", got)
	}
	if got[0].Category != symbol.Definition || got[0].Name != "main" {
		t.Errorf("unexpected first symbol: %+v", got[0])
	}
	if got[1].Category != symbol.FunctionCall || got[1].Name != "helper" || got[1].Parent != "main" {
		t.Errorf("unexpected second symbol: %+v", got[1])
	}
}

func TestParseDatabaseResetOnEndMarker(t *testing.T) {
	db := "cscope 15 /t -c\n" +
		"@/t/a.c\n" +
		"1\n" +
		"\t$main\n" +
		"\t}\n" +
		"2\n" +
		"\t`helper\n"

	var got []symbol.Symbol
	if err := parseDatabase([]byte(db), func(s symbol.Symbol) error {
		got = append(got, s)
		return nil
	}); err != nil {
		t.Fatalf("parseDatabase: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 symbols, got %+v", got)
	}
	if got[1].Parent != "" {
		t.Errorf("expected parent reset after }, got %q", got[1].Parent)
	}
}
