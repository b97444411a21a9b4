package genericparser_test

import (
	"testing"

	"github.com/smattr/clink/internal/genericparser"
	"github.com/smattr/clink/internal/symbol"
)

func TestPythonDefLeader(t *testing.T) {
	src := "def handler(event):\n    log(event)\n"
	var got []symbol.Symbol
	err := genericparser.Parse(genericparser.Python(), "/t/a.py", []byte(src), func(s symbol.Symbol) error {
		got = append(got, s)
		return nil
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var sawDef, sawRef bool
	for _, s := range got {
		if s.Category == symbol.Definition && s.Name == "handler" {
			sawDef = true
		}
		if s.Category == symbol.Reference && s.Name == "log" {
			sawRef = true
		}
	}
	if !sawDef {
		t.Errorf("expected Definition handler, got %+v", got)
	}
	if !sawRef {
		t.Errorf("expected Reference log, got %+v", got)
	}
}

func TestPythonCommentAndStringDrained(t *testing.T) {
	src := "# def fake(): pass\nx = \"def also_fake():\"\n"
	var got []symbol.Symbol
	err := genericparser.Parse(genericparser.Python(), "/t/b.py", []byte(src), func(s symbol.Symbol) error {
		got = append(got, s)
		return nil
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, s := range got {
		if s.Name == "fake" || s.Name == "also_fake" {
			t.Fatalf("comment/string content should not be tokenised, got %+v", got)
		}
	}
}
