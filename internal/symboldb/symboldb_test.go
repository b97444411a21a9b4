package symboldb_test

import (
	"path/filepath"
	"testing"

	"github.com/smattr/clink/internal/symbol"
	"github.com/smattr/clink/internal/symboldb"
)

func openTestDB(t *testing.T) *symboldb.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "clink.db")
	db, err := symboldb.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAddSymbolRejectsRelativePath(t *testing.T) {
	db := openTestDB(t)
	err := db.AddSymbol(symbol.Symbol{Category: symbol.Definition, Name: "foo", Path: "rel/a.c", Line: 1, Col: 1})
	if err == nil {
		t.Fatal("expected InvalidArgument for relative path")
	}
}

func TestInsertionIdempotence(t *testing.T) {
	db := openTestDB(t)
	sym := symbol.Symbol{Category: symbol.Definition, Name: "foo", Path: "/t/a.c", Line: 1, Col: 1}
	if err := db.AddSymbol(sym); err != nil {
		t.Fatalf("add symbol: %v", err)
	}
	if err := db.AddSymbol(sym); err != nil {
		t.Fatalf("add symbol (again): %v", err)
	}
	rows, err := db.FindDefinition("foo")
	if err != nil {
		t.Fatalf("find definition: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected exactly one row, got %d", len(rows))
	}
}

func TestPurgeCascade(t *testing.T) {
	db := openTestDB(t)
	if err := db.AddRecord("/t/a.c", 1, 100); err != nil {
		t.Fatalf("add record: %v", err)
	}
	if err := db.AddSymbol(symbol.Symbol{Category: symbol.Definition, Name: "foo", Path: "/t/a.c", Line: 1, Col: 1}); err != nil {
		t.Fatalf("add symbol: %v", err)
	}
	if err := db.AddLine("/t/a.c", 1, "foo"); err != nil {
		t.Fatalf("add line: %v", err)
	}
	if err := db.Remove("/t/a.c"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	rows, err := db.FindSymbol("foo")
	if err != nil {
		t.Fatalf("find symbol: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows after purge, got %d", len(rows))
	}
}

func TestRegexAnchoring(t *testing.T) {
	db := openTestDB(t)
	for _, name := range []string{"foo", "foobar", "myfoo"} {
		if err := db.AddSymbol(symbol.Symbol{Category: symbol.Definition, Name: name, Path: "/t/a.c", Line: 1, Col: 1}); err != nil {
			t.Fatalf("add symbol %s: %v", name, err)
		}
	}
	rows, err := db.FindDefinition("foo")
	if err != nil {
		t.Fatalf("find definition: %v", err)
	}
	if len(rows) != 1 || rows[0].Symbol.Name != "foo" {
		t.Fatalf("expected exactly [foo], got %+v", rows)
	}
}

func TestFindFileSuffixMatch(t *testing.T) {
	db := openTestDB(t)
	if err := db.AddRecord("/a/b/include/clink/clink.h", 1, 100); err != nil {
		t.Fatalf("add record: %v", err)
	}
	rows, err := db.FindFile("clink.h")
	if err != nil {
		t.Fatalf("find file: %v", err)
	}
	if len(rows) != 1 || rows[0].Symbol.Path != "/a/b/include/clink/clink.h" {
		t.Fatalf("expected single suffix match, got %+v", rows)
	}
}

func TestFindCallByParent(t *testing.T) {
	db := openTestDB(t)
	if err := db.AddSymbol(symbol.Symbol{Category: symbol.FunctionCall, Name: "helper", Path: "/t/a.c", Line: 2, Col: 3, Parent: "main"}); err != nil {
		t.Fatalf("add symbol: %v", err)
	}
	rows, err := db.FindCall("main")
	if err != nil {
		t.Fatalf("find call: %v", err)
	}
	if len(rows) != 1 || rows[0].Symbol.Name != "helper" {
		t.Fatalf("expected [helper], got %+v", rows)
	}
	rows, err = db.FindCall("main2")
	if err != nil {
		t.Fatalf("find call: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows for main2, got %+v", rows)
	}
}
