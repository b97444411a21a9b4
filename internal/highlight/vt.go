package highlight

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/smattr/clink/internal/clinkerr"
)

// cell is one screen position: a rune plus the packed style active when it
// was written.
type cell struct {
	r     rune
	style style
}

// term is a minimal virtual terminal: just enough ANSI CSI support to host
// Vim's own screen output (cursor moves, erase-in-display, SGR), per §4.4's
// virtual-terminal highlighting strategy. No library in the retrieval pack
// implements ANSI terminal emulation, so this is hand-rolled against the
// ECMA-48 CSI subset Vim actually emits, rather than a general emulator.
type term struct {
	rows, cols   int
	grid         [][]cell
	row, col     int
	cur          style
}

func newTerm(rows, cols int) *term {
	t := &term{rows: rows, cols: cols, cur: style{fg: noColour, bg: noColour}}
	t.grid = make([][]cell, rows)
	for i := range t.grid {
		t.grid[i] = make([]cell, cols)
		for j := range t.grid[i] {
			t.grid[i][j] = cell{r: ' ', style: t.cur}
		}
	}
	return t
}

// feed interprets a chunk of output from the hosted process, byte by byte.
func (t *term) feed(b []byte) {
	i := 0
	for i < len(b) {
		c := b[i]
		if c == 0x1b && i+1 < len(b) && b[i+1] == '[' {
			end := i + 2
			for end < len(b) && !isCSIFinal(b[end]) {
				end++
			}
			if end < len(b) {
				t.applyCSI(string(b[i+2:end]), b[end])
				i = end + 1
				continue
			}
		}
		switch c {
		case '\n':
			t.row++
			t.col = 0
		case '\r':
			t.col = 0
		default:
			t.put(rune(c))
		}
		i++
	}
	if t.row >= t.rows {
		t.row = t.rows - 1
	}
}

func isCSIFinal(b byte) bool {
	return b >= 0x40 && b <= 0x7e
}

func (t *term) put(r rune) {
	if t.row >= 0 && t.row < t.rows && t.col >= 0 && t.col < t.cols {
		t.grid[t.row][t.col] = cell{r: r, style: t.cur}
	}
	t.col++
	if t.col >= t.cols {
		t.col = 0
		t.row++
	}
}

// applyCSI handles one CSI sequence's parameters and final byte.
func (t *term) applyCSI(params string, final byte) {
	args := csiArgs(params)
	arg := func(i, def int) int {
		if i < len(args) && args[i] > 0 {
			return args[i]
		}
		return def
	}

	switch final {
	case 'A': // cursor up
		t.row -= arg(0, 1)
	case 'B': // cursor down
		t.row += arg(0, 1)
	case 'C': // cursor forward
		t.col += arg(0, 1)
	case 'D': // cursor back
		t.col -= arg(0, 1)
	case 'E': // cursor next line
		t.row += arg(0, 1)
		t.col = 0
	case 'F': // cursor previous line
		t.row -= arg(0, 1)
		t.col = 0
	case 'G': // cursor horizontal absolute
		t.col = arg(0, 1) - 1
	case 'H', 'f': // cursor position
		t.row = arg(0, 1) - 1
		t.col = arg(1, 1) - 1
	case 'J': // erase in display
		t.eraseDisplay(arg(0, 0))
	case 'm': // SGR
		t.applySGR(args)
	}

	if t.row < 0 {
		t.row = 0
	}
	if t.col < 0 {
		t.col = 0
	}
}

func (t *term) eraseDisplay(mode int) {
	switch mode {
	case 0: // cursor to end
		t.clearRange(t.row, t.col, t.rows-1, t.cols-1)
	case 1: // start to cursor
		t.clearRange(0, 0, t.row, t.col)
	case 2, 3: // entire screen
		t.clearRange(0, 0, t.rows-1, t.cols-1)
	}
}

func (t *term) clearRange(r0, c0, r1, c1 int) {
	for r := r0; r <= r1 && r < t.rows; r++ {
		start, end := 0, t.cols-1
		if r == r0 {
			start = c0
		}
		if r == r1 {
			end = c1
		}
		for c := start; c <= end && c < t.cols; c++ {
			t.grid[r][c] = cell{r: ' ', style: style{fg: noColour, bg: noColour}}
		}
	}
}

func (t *term) applySGR(args []int) {
	if len(args) == 0 {
		t.cur = style{fg: noColour, bg: noColour}
		return
	}
	for i := 0; i < len(args); i++ {
		switch a := args[i]; {
		case a == 0:
			t.cur = style{fg: noColour, bg: noColour}
		case a == 1:
			t.cur.bold = true
		case a == 4:
			t.cur.underline = true
		case a == 22:
			t.cur.bold = false
		case a == 24:
			t.cur.underline = false
		case a >= 30 && a <= 37:
			t.cur.fg = a - 30
		case a == 39:
			t.cur.fg = noColour
		case a >= 40 && a <= 47:
			t.cur.bg = a - 40
		case a == 49:
			t.cur.bg = noColour
		}
	}
}

func csiArgs(params string) []int {
	if params == "" {
		return nil
	}
	parts := strings.Split(params, ";")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			n = 0
		}
		out[i] = n
	}
	return out
}

// line renders row n as text with minimal SGR transitions and a trailing
// reset, per §4.4's description of reading the emulator's screen.
func (t *term) line(n int) string {
	if n < 0 || n >= t.rows {
		return ""
	}
	row := t.grid[n]

	last := -1
	for i, c := range row {
		if c.r != ' ' {
			last = i
		}
	}
	if last < 0 {
		return ""
	}

	var out strings.Builder
	var active style
	first := true
	for _, c := range row[:last+1] {
		if first || c.style != active {
			out.WriteString(c.style.sgr())
			active = c.style
			first = false
		}
		out.WriteRune(c.r)
	}
	out.WriteString(resetSGR)
	return out.String()
}

// VT is the virtual-terminal highlighting strategy: it runs Vim in Ex batch
// mode (`-es`) with its stdout captured directly (no pty is allocated),
// feeds whatever CSI stream Vim writes there through the in-memory terminal
// above, and decodes the resulting screen.
type VT struct {
	VimPath string
	Rows, Cols int
}

// Highlight runs Vim over path and returns one decoded line per screen row,
// all Rows of them; a row never written to comes back as "".
func (v VT) Highlight(ctx context.Context, path string) ([]string, error) {
	vim := v.VimPath
	if vim == "" {
		vim = "vim"
	}
	rows, cols := v.Rows, v.Cols
	if rows == 0 {
		rows = 512
	}
	if cols == 0 {
		cols = 240
	}

	cmd := exec.CommandContext(ctx, vim, "-n", "-es", "-c", fmt.Sprintf("set term=xterm columns=%d lines=%d", cols, rows), "-c", "syntax on", "-c", "redraw!", "-c", "qa!", path)
	out, err := cmd.Output()
	if err != nil {
		return nil, clinkerr.Errorf(clinkerr.IOError, "vim virtual-terminal run failed: %w", err)
	}

	t := newTerm(rows, cols)
	t.feed(out)

	var lines []string
	for r := 0; r < rows; r++ {
		lines = append(lines, t.line(r))
	}
	return lines, nil
}
