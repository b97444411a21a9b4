// Package builder is Clink's top-level build driver (§4.6): seed the work
// queue with the scan roots, spawn N workers, and loop each one over
// pop/parse-or-highlight/insert/push until the queue drains, all wrapped in
// one DB transaction. Workers are coordinated with golang.org/x/sync/errgroup
// (as kralicky-protocompile's compiler driver does for its own parallel
// per-file pipeline), generalising the teacher's single-goroutine
// internal/scan.Run into the spec's N-worker pool.
package builder

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/smattr/clink/internal/clinkerr"
	"github.com/smattr/clink/internal/parser"
	"github.com/smattr/clink/internal/pathutil"
	"github.com/smattr/clink/internal/symbol"
	"github.com/smattr/clink/internal/symboldb"
	"github.com/smattr/clink/internal/workqueue"
)

// Highlighter is satisfied by both highlighting strategies (HTMLCapture and
// VT); the builder is agnostic to which one a config selects.
type Highlighter interface {
	Highlight(ctx context.Context, path string) ([]string, error)
}

// Config parameterises one build run.
type Config struct {
	// Roots are the absolute directories to scan.
	Roots []string
	// Jobs is the worker count; zero means runtime.NumCPU().
	Jobs int
	// Ignore holds doublestar glob patterns excluded from traversal.
	Ignore []string
	// ParserOptions selects amongst the parser family per §4.3.
	ParserOptions parser.Options
	// Highlighter performs §4.4 highlighting; nil disables highlighting
	// (symbols are inserted without context, to be filled on a later build).
	Highlighter Highlighter
	// EraStart is the timestamp of the database file before this build, the
	// Glossary's "era start": only files modified since then are considered
	// changed. The zero Time (a brand new database) admits every file.
	EraStart time.Time
}

// buildStats accumulates per-build counters behind the same mutex that
// serialises DB access, since both are touched from every worker goroutine.
type buildStats struct {
	parsed, highlighted, errs int
}

// Summary reports what one build accomplished.
type Summary struct {
	ID          string
	FilesParsed int
	FilesHighlighted int
	Errors      int
	StartedAt   time.Time
	CompletedAt time.Time
}

// Run executes one build against db: seeds the queue, spawns cfg.Jobs
// workers, and commits one global transaction when the queue drains. A
// worker-level parse or highlight failure is logged and the file is
// skipped, per §7's propagation rule; it never aborts the build. A DB
// failure during the write phase aborts the build and rolls back.
func Run(ctx context.Context, db *symboldb.DB, cfg Config) (Summary, error) {
	summary := Summary{ID: uuid.NewString(), StartedAt: time.Now().UTC()}

	jobs := cfg.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	q := workqueue.New(cfg.EraStart, cfg.Ignore)
	for _, root := range cfg.Roots {
		abs, err := pathutil.Abspath(root)
		if err != nil {
			return summary, err
		}
		q.SeedRoot(abs)
	}

	if err := db.BeginTransaction(); err != nil {
		return summary, err
	}

	// SIGINT is masked for the duration of the write phase so a Ctrl-C does
	// not interrupt us mid-commit and leave a half-written database.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT)
	defer signal.Stop(sigCh)

	var mu sync.Mutex // serialises all DB calls, per §5
	var stats buildStats

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < jobs; i++ {
		g.Go(func() error {
			for {
				task, ok := q.Pop()
				if !ok {
					return nil
				}
				if err := runTask(gctx, db, &mu, q, task, cfg, &stats); err != nil {
					return err
				}
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
			}
		})
	}

	werr := g.Wait()

	summary.FilesParsed = stats.parsed
	summary.FilesHighlighted = stats.highlighted
	summary.Errors = stats.errs
	summary.CompletedAt = time.Now().UTC()

	if werr != nil {
		if rerr := db.RollbackTransaction(); rerr != nil {
			log.Printf("rollback after build error also failed: %v", rerr)
		}
		return summary, clinkerr.Wrap(clinkerr.NotRecoverable, werr)
	}

	if err := db.CommitTransaction(); err != nil {
		return summary, clinkerr.Wrap(clinkerr.NotRecoverable, err)
	}

	return summary, nil
}

func runTask(ctx context.Context, db *symboldb.DB, mu *sync.Mutex, q *workqueue.Queue, task workqueue.Task, cfg Config, stats *buildStats) error {
	switch task.Kind {
	case workqueue.Parse:
		return parseTask(ctx, db, mu, q, task.Path, cfg, stats)
	case workqueue.Highlight:
		return highlightTask(ctx, db, mu, task.Path, cfg, stats)
	default:
		return nil
	}
}

func parseTask(ctx context.Context, db *symboldb.DB, mu *sync.Mutex, q *workqueue.Queue, path string, cfg Config, stats *buildStats) error {
	content, err := os.ReadFile(path)
	if err != nil {
		log.Printf("skipping %s: %v", pathutil.DisplayName(path), err)
		mu.Lock()
		stats.errs++
		mu.Unlock()
		return nil
	}

	st, err := pathutil.StatFile(path)
	if err != nil {
		log.Printf("skipping %s: %v", pathutil.DisplayName(path), err)
		mu.Lock()
		stats.errs++
		mu.Unlock()
		return nil
	}

	mu.Lock()
	if err := db.Remove(path); err != nil {
		mu.Unlock()
		return err
	}
	if err := db.AddRecord(path, st.Hash, st.ModTime); err != nil {
		mu.Unlock()
		return err
	}
	mu.Unlock()

	var emitErr error
	_, perr := parser.Parse(ctx, path, content, cfg.ParserOptions, func(sym symbol.Symbol) error {
		mu.Lock()
		err := db.AddSymbol(sym)
		mu.Unlock()
		if err != nil {
			emitErr = err
			return err
		}
		q.Push(sym.Path)
		return nil
	})
	if emitErr != nil {
		return emitErr
	}
	if perr != nil {
		log.Printf("parse error in %s: %v", pathutil.DisplayName(path), perr)
		mu.Lock()
		stats.errs++
		mu.Unlock()
		return nil
	}

	q.Push(path)

	mu.Lock()
	stats.parsed++
	mu.Unlock()
	return nil
}

func highlightTask(ctx context.Context, db *symboldb.DB, mu *sync.Mutex, path string, cfg Config, stats *buildStats) error {
	if cfg.Highlighter == nil {
		return nil
	}
	lines, err := cfg.Highlighter.Highlight(ctx, path)
	if err != nil {
		log.Printf("highlight error in %s: %v", pathutil.DisplayName(path), err)
		mu.Lock()
		stats.errs++
		mu.Unlock()
		return nil
	}

	mu.Lock()
	defer mu.Unlock()
	for i, line := range lines {
		if err := db.AddLine(path, i+1, line); err != nil {
			return err
		}
	}
	stats.highlighted++
	return nil
}
