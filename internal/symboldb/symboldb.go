// Package symboldb is the Clink symbol database: the relational store of
// §4.2, backed by modernc.org/sqlite exactly as the teacher's
// internal/index/index.go opens and configures its database, but with the
// schema, upsert semantics, and regex-anchored query operations of the
// original libclink/src/db_*.c and re_sqlite.c.
package symboldb

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	dbdriver "modernc.org/sqlite"

	"github.com/smattr/clink/internal/clinkerr"
	"github.com/smattr/clink/internal/pathutil"
	"github.com/smattr/clink/internal/symbol"
)

// DB is one open connection to a Clink symbol database. It owns a single
// *sql.DB; callers (the build driver) are responsible for serialising
// writes with an external mutex as §5 describes — DB itself does not lock.
type DB struct {
	conn *sql.DB
	tx   *sql.Tx
}

func init() {
	// regexpFuncMu guards the compiled-pattern cache the scalar function
	// below reads from; sqlite may invoke it from any goroutine driving a
	// connection, so the cache must be safe for concurrent use.
	dbdriver.MustRegisterDeterministicScalarFunction("regexp", 2, sqlRegexp)
}

var (
	regexpFuncMu    sync.Mutex
	regexpFuncCache = map[string]*regexp.Regexp{}
)

// sqlRegexp implements the SQL scalar function `regexp(pattern, text)`,
// replacing the libc regcomp/regexec pair in the original re_sqlite.c. The
// pattern is expected to already carry the ^…$ anchors the DB's find_*
// operations add; REG_NOSUB semantics (match/no-match only) map directly
// onto regexp.MatchString.
func sqlRegexp(ctx *dbdriver.FunctionContext, args []driver.Value) (driver.Value, error) {
	pattern, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("regexp: pattern is not a string")
	}
	text, ok := args[1].(string)
	if !ok {
		return int64(0), nil
	}
	regexpFuncMu.Lock()
	re, cached := regexpFuncCache[pattern]
	if !cached {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			regexpFuncMu.Unlock()
			// REG_ESPACE/REG_ESIZE in the original map to ENOMEM; an
			// uncompilable pattern here is the caller's InvalidArgument,
			// surfaced by simply not matching rather than aborting the query.
			return int64(0), nil
		}
		re = compiled
		regexpFuncCache[pattern] = re
	}
	regexpFuncMu.Unlock()
	if re.MatchString(text) {
		return int64(1), nil
	}
	return int64(0), nil
}

// Open creates the schema if path does not exist yet, or opens the existing
// file otherwise, applying pragmas that favour throughput over fsync
// durability: the database is a derived artifact, the worst case of a crash
// is a re-index, exactly as §4.2 specifies.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, clinkerr.Wrap(clinkerr.IOError, err)
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, clinkerr.Wrap(clinkerr.IOError, err)
	}
	conn.SetMaxOpenConns(1) // §4.2: the DB object owns one connection
	pragmas := []string{
		"PRAGMA synchronous=OFF;",
		"PRAGMA journal_mode=MEMORY;",
		"PRAGMA temp_store=MEMORY;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, clinkerr.Errorf(clinkerr.IOError, "apply pragma %s: %w", p, err)
		}
	}
	if err := ensureSchema(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &DB{conn: conn}, nil
}

func ensureSchema(conn *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS records (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			path      TEXT UNIQUE NOT NULL,
			hash      INTEGER,
			timestamp INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS symbols (
			name     TEXT NOT NULL,
			path     INTEGER REFERENCES records(id) ON DELETE CASCADE,
			category INTEGER NOT NULL,
			line     INTEGER NOT NULL,
			col      INTEGER NOT NULL,
			parent   TEXT,
			UNIQUE(name, path, category, line, col)
		);`,
		`CREATE TABLE IF NOT EXISTS content (
			path INTEGER REFERENCES records(id) ON DELETE CASCADE,
			line INTEGER NOT NULL,
			body TEXT,
			UNIQUE(path, line)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_symbols_path ON symbols(path);`,
		`CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);`,
		`CREATE INDEX IF NOT EXISTS idx_content_path ON content(path);`,
	}
	for _, stmt := range stmts {
		if _, err := conn.Exec(stmt); err != nil {
			return clinkerr.Errorf(clinkerr.IOError, "ensure schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying connection. Any open transaction is rolled back.
func (db *DB) Close() error {
	if db.tx != nil {
		db.tx.Rollback()
		db.tx = nil
	}
	return db.conn.Close()
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

func (db *DB) execer() execer {
	if db.tx != nil {
		return db.tx
	}
	return db.conn
}

// BeginTransaction opens the single build transaction §4.2/§4.6 describe:
// the entire mutation phase of a build is wrapped in one transaction because
// committing per-insertion is intolerably slow.
func (db *DB) BeginTransaction() error {
	if db.tx != nil {
		return clinkerr.Errorf(clinkerr.NotRecoverable, "transaction already open")
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return clinkerr.Wrap(clinkerr.IOError, err)
	}
	db.tx = tx
	return nil
}

// CommitTransaction commits the build transaction opened by BeginTransaction.
func (db *DB) CommitTransaction() error {
	if db.tx == nil {
		return clinkerr.Errorf(clinkerr.NotRecoverable, "no transaction open")
	}
	err := db.tx.Commit()
	db.tx = nil
	if err != nil {
		return clinkerr.Wrap(clinkerr.IOError, err)
	}
	return nil
}

// RollbackTransaction aborts the build transaction without committing it,
// used when a DB failure during the write phase must abort the whole build.
func (db *DB) RollbackTransaction() error {
	if db.tx == nil {
		return nil
	}
	err := db.tx.Rollback()
	db.tx = nil
	if err != nil {
		return clinkerr.Wrap(clinkerr.IOError, err)
	}
	return nil
}

// recordID looks up (or, via AddRecord, creates) the integer id records.id
// that symbols.path/content.path reference.
func (db *DB) recordID(path string) (int64, bool, error) {
	row := db.execer().QueryRow(`SELECT id FROM records WHERE path = ?;`, path)
	var id int64
	if err := row.Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, clinkerr.Wrap(clinkerr.IOError, err)
	}
	return id, true, nil
}

// AddRecord upserts a FileRecord, matching db_add_record.c's insert-or-replace.
func (db *DB) AddRecord(path string, hash uint64, timestamp int64) error {
	if err := pathutil.RequireAbs(path); err != nil {
		return err
	}
	_, err := db.execer().Exec(
		`INSERT INTO records(path, hash, timestamp) VALUES(?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET hash = excluded.hash, timestamp = excluded.timestamp;`,
		path, int64(hash), timestamp,
	)
	if err != nil {
		return clinkerr.Errorf(clinkerr.IOError, "add record %s: %w", path, err)
	}
	return nil
}

// FindRecord returns the stored hash/timestamp for path, or clinkerr.NotFound.
func (db *DB) FindRecord(path string) (hash uint64, timestamp int64, err error) {
	if err := pathutil.RequireAbs(path); err != nil {
		return 0, 0, err
	}
	row := db.execer().QueryRow(`SELECT hash, timestamp FROM records WHERE path = ?;`, path)
	var h, ts int64
	if scanErr := row.Scan(&h, &ts); scanErr != nil {
		if scanErr == sql.ErrNoRows {
			return 0, 0, clinkerr.Wrap(clinkerr.NotFound, scanErr)
		}
		return 0, 0, clinkerr.Wrap(clinkerr.IOError, scanErr)
	}
	return uint64(h), ts, nil
}

// AddSymbol inserts sym, deduping on (name, path, category, line, col) per
// §3's uniqueness invariant; a duplicate insertion is not an error.
func (db *DB) AddSymbol(sym symbol.Symbol) error {
	if err := pathutil.RequireAbs(sym.Path); err != nil {
		return err
	}
	if sym.Name == "" {
		return clinkerr.Errorf(clinkerr.InvalidArgument, "empty symbol name")
	}
	if sym.Line <= 0 || sym.Col <= 0 {
		return clinkerr.Errorf(clinkerr.InvalidArgument, "non-positive line/col for %s", sym.Name)
	}
	id, _, err := db.ensureRecordID(sym.Path)
	if err != nil {
		return err
	}
	_, err = db.execer().Exec(
		`INSERT INTO symbols(name, path, category, line, col, parent) VALUES(?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name, path, category, line, col) DO UPDATE SET parent = excluded.parent;`,
		sym.Name, id, int(sym.Category), sym.Line, sym.Col, sym.Parent,
	)
	if err != nil {
		return clinkerr.Errorf(clinkerr.IOError, "add symbol %s: %w", sym.Name, err)
	}
	return nil
}

// ensureRecordID returns the records.id for path, creating a bare record
// (zero hash/timestamp, to be filled by a later AddRecord) if none exists
// yet. Parsers may emit symbols for files outside the scan root (e.g. a
// system header) before that file has itself been through AddRecord.
func (db *DB) ensureRecordID(path string) (int64, bool, error) {
	id, ok, err := db.recordID(path)
	if err != nil {
		return 0, false, err
	}
	if ok {
		return id, false, nil
	}
	res, err := db.execer().Exec(`INSERT INTO records(path, hash, timestamp) VALUES(?, 0, 0);`, path)
	if err != nil {
		return 0, false, clinkerr.Errorf(clinkerr.IOError, "create record %s: %w", path, err)
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return 0, false, clinkerr.Wrap(clinkerr.IOError, err)
	}
	return newID, true, nil
}

// AddLine upserts a ContentLine, matching db_add_line.c.
func (db *DB) AddLine(path string, line int, body string) error {
	if err := pathutil.RequireAbs(path); err != nil {
		return err
	}
	if line <= 0 {
		return clinkerr.Errorf(clinkerr.InvalidArgument, "non-positive line for %s", path)
	}
	id, _, err := db.ensureRecordID(path)
	if err != nil {
		return err
	}
	_, err = db.execer().Exec(
		`INSERT INTO content(path, line, body) VALUES(?, ?, ?)
		 ON CONFLICT(path, line) DO UPDATE SET body = excluded.body;`,
		id, line, body,
	)
	if err != nil {
		return clinkerr.Errorf(clinkerr.IOError, "add line %s:%d: %w", path, line, err)
	}
	return nil
}

// Remove deletes every row referencing path from all three tables, matching
// db_remove.c's sequential symbols/content/records delete and §3's
// cascade-on-removal invariant.
func (db *DB) Remove(path string) error {
	if err := pathutil.RequireAbs(path); err != nil {
		return err
	}
	id, ok, err := db.recordID(path)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	for _, stmt := range []string{
		`DELETE FROM symbols WHERE path = ?;`,
		`DELETE FROM content WHERE path = ?;`,
		`DELETE FROM records WHERE id = ?;`,
	} {
		if _, err := db.execer().Exec(stmt, id); err != nil {
			return clinkerr.Errorf(clinkerr.IOError, "remove %s: %w", path, err)
		}
	}
	return nil
}

// Row is one joined (Symbol, context) result from a find_* query.
type Row struct {
	Symbol  symbol.Symbol
	Context string
}

// anchor wraps pattern in ^…$ the way every find_* operation requires.
func anchor(pattern string) string {
	if pattern == "" {
		return pattern
	}
	p := pattern
	if !strings.HasPrefix(p, "^") {
		p = "^" + p
	}
	if !strings.HasSuffix(p, "$") {
		p = p + "$"
	}
	return p
}

const joinedSelect = `
	SELECT r.path, s.category, s.line, s.col, s.parent, s.name,
	       COALESCE(c.body, '')
	FROM symbols s
	JOIN records r ON r.id = s.path
	LEFT JOIN content c ON c.path = s.path AND c.line = s.line
	WHERE %s
	ORDER BY r.path, s.line, s.col;
`

func (db *DB) queryRows(where string, args ...any) ([]Row, error) {
	rows, err := db.execer().Query(fmt.Sprintf(joinedSelect, where), args...)
	if err != nil {
		return nil, clinkerr.Wrap(clinkerr.IOError, err)
	}
	defer rows.Close()
	var out []Row
	for rows.Next() {
		var r Row
		var cat int
		if err := rows.Scan(&r.Symbol.Path, &cat, &r.Symbol.Line, &r.Symbol.Col, &r.Symbol.Parent, &r.Symbol.Name, &r.Context); err != nil {
			return nil, clinkerr.Wrap(clinkerr.IOError, err)
		}
		r.Symbol.Category = symbol.Category(cat)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, clinkerr.Wrap(clinkerr.IOError, err)
	}
	return out, nil
}

// FindSymbol matches name (a POSIX-extended regex, implicitly anchored)
// against every symbol regardless of category.
func (db *DB) FindSymbol(namePattern string) ([]Row, error) {
	return db.queryRows(`regexp(?, s.name)`, anchor(namePattern))
}

// FindDefinition returns Definition-category matches.
func (db *DB) FindDefinition(namePattern string) ([]Row, error) {
	return db.queryRows(`s.category = ? AND regexp(?, s.name)`, int(symbol.Definition), anchor(namePattern))
}

// FindCaller returns FunctionCall-category matches for a call target name:
// "who calls this function".
func (db *DB) FindCaller(namePattern string) ([]Row, error) {
	return db.queryRows(`s.category = ? AND regexp(?, s.name)`, int(symbol.FunctionCall), anchor(namePattern))
}

// FindCall returns FunctionCall-category symbols whose parent matches
// parentPattern: "what does this function call".
func (db *DB) FindCall(parentPattern string) ([]Row, error) {
	return db.queryRows(`s.category = ? AND regexp(?, s.parent)`, int(symbol.FunctionCall), anchor(parentPattern))
}

// FindFile matches namePattern (a regex, implicitly anchored) against a
// stored path either in full or against its suffix "…/<name>", so a user
// can type "clink.h" and find "/a/b/include/clink/clink.h", per §4.2 and §8
// scenario 4.
func (db *DB) FindFile(namePattern string) ([]Row, error) {
	suffix := "^.*/(" + strings.TrimSuffix(strings.TrimPrefix(namePattern, "^"), "$") + ")$"
	rows, err := db.execer().Query(`
		SELECT r.path, r.path
		FROM records r
		WHERE regexp(?, r.path) OR regexp(?, r.path)
		ORDER BY r.path;
	`, anchor(namePattern), suffix)
	if err != nil {
		return nil, clinkerr.Wrap(clinkerr.IOError, err)
	}
	defer rows.Close()
	var out []Row
	for rows.Next() {
		var path, dup string
		if err := rows.Scan(&path, &dup); err != nil {
			return nil, clinkerr.Wrap(clinkerr.IOError, err)
		}
		out = append(out, Row{Symbol: symbol.Symbol{Path: path}})
	}
	return out, rows.Err()
}

// FindIncluder returns Include-category symbols whose name matches (files
// that include something matching the pattern).
func (db *DB) FindIncluder(namePattern string) ([]Row, error) {
	return db.queryRows(`s.category = ? AND regexp(?, s.name)`, int(symbol.Include), anchor(namePattern))
}

// FindAssignment returns Assignment-category matches.
func (db *DB) FindAssignment(namePattern string) ([]Row, error) {
	return db.queryRows(`s.category = ? AND regexp(?, s.name)`, int(symbol.Assignment), anchor(namePattern))
}
