package clinkcli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/smattr/clink/internal/symboldb"
)

// runREPL drives the cscope-compatible line-oriented protocol (§6): each
// input line is a single digit command followed immediately by a query
// string, and the reply is "cscope: N lines\n" followed by N records of
// "<path> <parent-or-name> <lineno> <context>\n".
func runREPL(db *symboldb.DB, stdin io.Reader, stdout io.Writer, color bool) error {
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		rows, err := dispatch(db, line)
		if err != nil {
			return err
		}
		writeReply(stdout, rows, color)
	}
	return scanner.Err()
}

// dispatch maps a single REPL command line to the corresponding DB query.
// Commands 4, 5, 6, and 9 (find-text, change-text, find-pattern,
// find-assignments) are not implemented by the line REPL and always answer
// with zero rows, matching the wire contract exactly.
func dispatch(db *symboldb.DB, line string) ([]symboldb.Row, error) {
	if len(line) < 1 {
		return nil, nil
	}
	cmd := line[0]
	query := strings.TrimSpace(line[1:])

	switch cmd {
	case '0':
		return db.FindSymbol(query)
	case '1':
		return db.FindDefinition(query)
	case '2':
		// Cscope command 2 ("find functions called by this function") maps
		// onto find_call, keyed by the textual enclosing-function parent
		// recorded at parse time. This can disagree with the true caller
		// for header-included inline functions; the behaviour is preserved
		// as observed rather than resolved.
		return db.FindCall(query)
	case '3':
		return db.FindCaller(query)
	case '7':
		return db.FindFile(query)
	case '8':
		return db.FindIncluder(query)
	case '4', '5', '6', '9':
		return nil, nil
	default:
		return nil, nil
	}
}

func writeReply(stdout io.Writer, rows []symboldb.Row, color bool) {
	fmt.Fprintf(stdout, "cscope: %d lines\n", len(rows))
	for _, r := range rows {
		name := r.Symbol.Name
		if r.Symbol.Parent != "" {
			name = r.Symbol.Parent
		}
		ctx := r.Context
		if !color {
			ctx = stripANSI(ctx)
		}
		fmt.Fprintf(stdout, "%s %s %d %s\n", r.Symbol.Path, name, r.Symbol.Line, ctx)
	}
}

// stripANSI removes SGR escape sequences from s, for --no-color output.
func stripANSI(s string) string {
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && !(s[j] >= 0x40 && s[j] <= 0x7e) {
				j++
			}
			i = j
			continue
		}
		out.WriteByte(s[i])
	}
	return out.String()
}
