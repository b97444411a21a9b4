// Package cscopeparser is Clink's optional cscope-driven parser (§4.3.4): it
// shells out to a compatible cscope binary to build a database for one file,
// then parses that database's line-oriented format back into Symbols.
package cscopeparser

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/smattr/clink/internal/clinkerr"
	"github.com/smattr/clink/internal/symbol"
)

// Available reports whether a cscope binary can be found on PATH.
func Available() bool {
	_, err := exec.LookPath("cscope")
	return err == nil
}

// markInfo describes what one cscope database mark means: the category it
// maps to (hasCat is false for structural/reset marks), and whether the symbol
// it introduces becomes the new enclosing parent.
type markInfo struct {
	category  symbol.Category
	hasCat    bool
	becomesParent bool
	resets    bool
}

// marks is the full alphabet from §4.3.4.
var marks = map[byte]markInfo{
	'$': {category: symbol.Definition, hasCat: true, becomesParent: true},
	'#': {category: symbol.Definition, hasCat: true, becomesParent: true},
	'`': {category: symbol.FunctionCall, hasCat: true},
	'~': {category: symbol.Include, hasCat: true},
	'}': {resets: true},
	')': {resets: true},
	';': {resets: true},
	'=': {category: symbol.Assignment, hasCat: true},
	'c': {category: symbol.Definition, hasCat: true, becomesParent: true},
	'e': {category: symbol.Definition, hasCat: true, becomesParent: true},
	's': {category: symbol.Definition, hasCat: true, becomesParent: true},
	'u': {category: symbol.Definition, hasCat: true, becomesParent: true},
	'g': {category: symbol.Definition, hasCat: true},
	'l': {category: symbol.Definition, hasCat: true},
	'm': {category: symbol.Definition, hasCat: true},
	'p': {category: symbol.Definition, hasCat: true},
	't': {category: symbol.Definition, hasCat: true},
}

// Parse runs cscope against path (building its database into a scratch
// directory under os.TempDir, in the spirit of clink's TMPDIR convention)
// and emits the Symbols recovered from the resulting database.
func Parse(ctx context.Context, path string, emit func(symbol.Symbol) error) error {
	tmpDir, err := os.MkdirTemp("", "clink-cscope-")
	if err != nil {
		return clinkerr.Wrap(clinkerr.IOError, err)
	}
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "cscope.out")
	listPath := filepath.Join(tmpDir, "files")
	if err := os.WriteFile(listPath, []byte(path+"\n"), 0o644); err != nil {
		return clinkerr.Wrap(clinkerr.IOError, err)
	}

	// -b: build the database only, no interactive lookup.
	// -c: uncompressed.
	// -i: read file list from listPath.
	// -f: output database path.
	cmd := exec.CommandContext(ctx, "cscope", "-b", "-c", "-i", listPath, "-f", dbPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return clinkerr.Errorf(clinkerr.IOError, "cscope build failed: %w (%s)", err, string(out))
	}

	data, err := os.ReadFile(dbPath)
	if err != nil {
		return clinkerr.Wrap(clinkerr.IOError, err)
	}
	return parseDatabase(data, emit)
}

// parseDatabase walks a cscope.out-format byte stream: a header line,
// "@<path>" file markers, line-number markers, and "\t<mark><symbol>" records.
func parseDatabase(data []byte, emit func(symbol.Symbol) error) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var currentPath string
	var parent string
	lineno := 0

	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			first = false
			if !strings.HasPrefix(line, "cscope") {
				return clinkerr.Errorf(clinkerr.IOError, "malformed cscope database header: %q", line)
			}
			fields := strings.Fields(line)
			if len(fields) >= 3 {
				currentPath = fields[2]
			}
			continue
		}

		if strings.HasPrefix(line, "@") {
			currentPath = line[1:]
			parent = ""
			lineno = 0
			continue
		}

		if !strings.HasPrefix(line, "\t") {
			if n, err := strconv.Atoi(strings.Fields(line)[0]); err == nil {
				lineno = n
			}
			continue
		}

		if len(line) < 2 {
			continue
		}
		mark := line[1]
		rest := line[2:]
		info, known := marks[mark]
		if !known {
			// unmarked record: a plain reference
			name := rest
			if name == "" {
				continue
			}
			if err := emit(symbol.Symbol{Category: symbol.Reference, Name: name, Path: currentPath, Line: lineno, Col: 1, Parent: parent}); err != nil {
				return err
			}
			continue
		}

		if info.resets {
			parent = ""
			continue
		}
		if !info.hasCat || rest == "" {
			continue
		}
		if err := emit(symbol.Symbol{Category: info.category, Name: rest, Path: currentPath, Line: lineno, Col: 1, Parent: parent}); err != nil {
			return err
		}
		if info.becomesParent {
			parent = rest
		}
	}
	if err := scanner.Err(); err != nil {
		return clinkerr.Wrap(clinkerr.IOError, err)
	}
	return nil
}
