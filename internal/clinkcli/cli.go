// Package clinkcli is Clink's command-line surface (§6): flag parsing, the
// rescan-or-query decision, and the cscope-compatible line REPL. This layer
// sits outside the spec's core (the engine is what matters), but the engine
// expects the shape documented here, so it is built in the teacher's own
// flag-dispatch idiom (stdlib "flag", a package-level Run(args) entry point)
// rather than left unimplemented.
package clinkcli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/smattr/clink/internal/builder"
	"github.com/smattr/clink/internal/clinkconfig"
	"github.com/smattr/clink/internal/highlight"
	"github.com/smattr/clink/internal/parser"
	"github.com/smattr/clink/internal/pathutil"
	"github.com/smattr/clink/internal/symboldb"
)

// stringList accumulates repeated -I DIR flag occurrences.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// options is the parsed form of the command line.
type options struct {
	roots       []string
	dbPath      string
	queryOnly   bool
	lineRepl    bool
	jobs        int
	includeDirs stringList
	color       string // "auto", "always", "never"
}

// Run parses args and executes the requested build/query operation,
// returning the process exit code: 0 on success, non-zero on build failure
// or query I/O failure, per §6.
func Run(args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "clink:", err)
		return 2
	}
	if opts == nil {
		// -h/--help or --version already printed their output.
		return 0
	}

	if err := run(opts, os.Stdout, os.Stdin); err != nil {
		fmt.Fprintln(os.Stderr, "clink:", err)
		return 1
	}
	return 0
}

func parseArgs(args []string) (*options, error) {
	fs := flag.NewFlagSet("clink", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var opts options
	fs.StringVar(&opts.dbPath, "f", "", "database location")
	fs.StringVar(&opts.dbPath, "file", "", "database location")
	fs.BoolVar(&opts.queryOnly, "d", false, "do not rescan, query only")
	fs.BoolVar(&opts.lineRepl, "l", false, "run the line REPL instead of the TUI")
	fs.BoolVar(&opts.lineRepl, "line-oriented", false, "run the line REPL instead of the TUI")

	jobsFlag := "auto"
	fs.StringVar(&jobsFlag, "j", jobsFlag, "worker count (auto or 0 = number of cores)")
	fs.StringVar(&jobsFlag, "jobs", jobsFlag, "worker count")
	fs.StringVar(&jobsFlag, "threads", jobsFlag, "worker count")

	fs.Var(&opts.includeDirs, "I", "accepted and collected (repeatable); not passed to any parser")

	color := false
	noColor := false
	fs.BoolVar(&color, "color", false, "force ANSI colour in content output")
	fs.BoolVar(&noColor, "no-color", false, "suppress ANSI colour in content output")

	version := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			fmt.Println(usage())
			return nil, nil
		}
		return nil, err
	}

	if *version {
		printVersion()
		return nil, nil
	}

	jobs, err := parseJobs(jobsFlag)
	if err != nil {
		return nil, err
	}
	opts.jobs = jobs

	switch {
	case color && noColor:
		return nil, fmt.Errorf("--color and --no-color are mutually exclusive")
	case color:
		opts.color = "always"
	case noColor:
		opts.color = "never"
	default:
		opts.color = "auto"
	}

	opts.roots = fs.Args()
	if len(opts.roots) == 0 {
		cwd, err := pathutil.Cwd()
		if err != nil {
			return nil, err
		}
		opts.roots = []string{cwd}
	}

	if opts.dbPath == "" {
		opts.dbPath, err = findDatabase()
		if err != nil {
			return nil, err
		}
	}

	return &opts, nil
}

// parseJobs accepts "auto" or an integer (0 also means auto, per §6).
func parseJobs(s string) (int, error) {
	if strings.EqualFold(s, "auto") {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid -j value %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid -j value %q: must not be negative", s)
	}
	return n, nil
}

// findDatabase walks upward from cwd looking for .clink.db, falling back to
// ./clink.db, per §6's -f/--file default.
func findDatabase() (string, error) {
	cwd, err := pathutil.Cwd()
	if err != nil {
		return "", err
	}
	dir := cwd
	for {
		candidate := filepath.Join(dir, ".clink.db")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		if pathutil.IsRoot(dir) {
			break
		}
		parent, err := pathutil.Dirname(dir)
		if err != nil || parent == dir {
			break
		}
		dir = parent
	}
	return filepath.Join(cwd, "clink.db"), nil
}

func usage() string {
	return `usage: clink [options] [roots...]

  -f, --file PATH        database location
  -d                      do not rescan, query only
  -l, --line-oriented     run the line REPL instead of the TUI
  -j, --jobs, --threads N worker count (auto or 0 = number of cores)
  -I DIR                  accepted (repeatable); no parser uses it
  --color, --no-color     force or suppress ANSI colour in content output
  --version               print version and exit`
}

// run executes the build (unless -d was given) and then, when -l was
// given, the line REPL; otherwise it reports the build summary and exits.
func run(opts *options, stdout io.Writer, stdin io.Reader) error {
	// The era start is the database's own mtime from before this build opens
	// (and potentially creates) it, so a brand new database admits every
	// file and a rebuild only picks up what changed since the last one.
	var eraStart time.Time
	if info, err := os.Stat(opts.dbPath); err == nil {
		eraStart = info.ModTime()
	}

	db, err := symboldb.Open(opts.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if !opts.queryOnly {
		cfg := builder.Config{
			Roots:         opts.roots,
			Jobs:          defaultJobs(opts.jobs),
			ParserOptions: parser.Options{},
			Highlighter:   selectHighlighter(opts),
			EraStart:      eraStart,
		}
		summary, err := builder.Run(context.Background(), db, cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "clink: %d files parsed, %d highlighted, %d errors\n",
			summary.FilesParsed, summary.FilesHighlighted, summary.Errors)
	}

	if opts.lineRepl {
		return runREPL(db, stdin, stdout, wantColor(opts.color))
	}

	return nil
}

func selectHighlighter(opts *options) builder.Highlighter {
	cfg, err := clinkconfig.Load(firstOr(opts.roots, "."))
	strategy := "html"
	if err == nil {
		strategy = cfg.Highlighter
	}
	switch strategy {
	case "vt":
		return highlight.VT{}
	case "none":
		return nil
	default:
		return highlight.HTMLCapture{}
	}
}

func firstOr(roots []string, fallback string) string {
	if len(roots) > 0 {
		return roots[0]
	}
	return fallback
}

func wantColor(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		return isatty.IsTerminal(os.Stdout.Fd())
	}
}

func defaultJobs(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

func printVersion() {
	fmt.Printf("clink %s (commit %s, built %s)\n", buildVersion, buildCommit, buildDate)
}
