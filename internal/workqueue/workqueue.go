// Package workqueue is Clink's build work queue (§4.5): a directory-walk
// stack feeding a file-parse queue, plus a separate higher-priority
// highlight queue, all behind one mutex. Modelled on the teacher's
// mind-palace scan pipeline and on navc's handleFiles dispatch loop
// (ep-infosec-50_google_navc/files.go), which drives a worker pool from a
// similarly-shaped in-memory queue of pending files.
package workqueue

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	art "github.com/kralicky/go-adaptive-radix-tree"
)

// Kind says what a popped Task asks a worker to do.
type Kind int

const (
	// Parse asks the worker to run the parser family over Task.Path.
	Parse Kind = iota
	// Highlight asks the worker to run the highlighter over Task.Path.
	Highlight
)

// Task is one unit of work handed to a build worker.
type Task struct {
	Kind Kind
	Path string
}

// extensions lists the file suffixes the directory walk expands into Parse
// tasks; anything else found while walking is ignored.
var extensions = map[string]bool{
	".c": true, ".h": true,
	".cpp": true, ".cc": true, ".cxx": true, ".hpp": true, ".hh": true,
	".s": true, ".S": true, ".asm": true,
	".py": true, ".def": true, ".td": true, ".pp": true,
}

// Queue is the mutex-protected dual queue described in §4.5: a directory
// stack driving discovery, a file queue holding tasks already discovered,
// and a highlight queue that always wins priority because the files it
// names are typically still hot in the OS page cache from having just been
// parsed.
type Queue struct {
	mu sync.Mutex

	dirs  []string
	files []string
	hi    []string

	// pushed deduplicates highlight-queue membership: a path is enqueued for
	// highlighting at most once per build, tracked by byte-key in an
	// adaptive radix tree rather than a map, matching protocompile's use of
	// the same library as a keyed set over string paths.
	pushed art.Tree

	eraStart time.Time
	ignore   []string
}

// New creates an empty queue. eraStart is the timestamp of the database file
// from before this build: Push and the directory walk only admit paths whose
// mtime is newer, per §4.5's push(path) contract.
// ignore holds doublestar glob patterns (relative to scan roots) whose
// matches are excluded from directory traversal.
func New(eraStart time.Time, ignore []string) *Queue {
	return &Queue{
		pushed:   art.New(),
		eraStart: eraStart,
		ignore:   ignore,
	}
}

// SeedRoot enqueues root as a directory to walk, the entry point for a
// fresh build.
func (q *Queue) SeedRoot(root string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.dirs = append(q.dirs, root)
}

// Push enqueues path for highlighting iff it has not been enqueued before,
// its mtime is newer than eraStart, and it is readable, matching §4.5's
// push(path) operation exactly.
func (q *Queue) Push(path string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pushLocked(path)
}

func (q *Queue) pushLocked(path string) {
	key := art.Key(path)
	if _, found := q.pushed.Search(key); found {
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if !info.ModTime().After(q.eraStart) {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		return
	}
	f.Close()
	q.pushed.Insert(key, true)
	q.hi = append(q.hi, path)
}

// Pop returns the next task to run, or ok=false if the queue is fully
// drained: no pending highlight tasks, no pending files, and no directories
// left to expand.
func (q *Queue) Pop() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if len(q.hi) > 0 {
			path := q.hi[0]
			q.hi = q.hi[1:]
			return Task{Kind: Highlight, Path: path}, true
		}

		if len(q.files) > 0 {
			path := q.files[0]
			q.files = q.files[1:]
			return Task{Kind: Parse, Path: path}, true
		}

		if len(q.dirs) == 0 {
			return Task{}, false
		}

		dir := q.dirs[len(q.dirs)-1]
		q.dirs = q.dirs[:len(q.dirs)-1]
		q.expand(dir)
		// loop again: expanding dir may have produced files or subdirs, or
		// may have produced nothing (empty/fully-ignored directory), in
		// which case we fall through to the next stack entry.
	}
}

// expand lists dir's entries, pushing subdirectories back onto the
// directory stack and files with a recognised extension onto the file
// queue, skipping anything matched by an ignore glob.
func (q *Queue) expand(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		full := filepath.Join(dir, e.Name())
		if q.matchesIgnore(full) {
			continue
		}
		if e.IsDir() {
			q.dirs = append(q.dirs, full)
			continue
		}
		if !extensions[strings.ToLower(filepath.Ext(full))] {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().After(q.eraStart) {
			continue
		}
		q.files = append(q.files, full)
	}
}

func (q *Queue) matchesIgnore(path string) bool {
	for _, pattern := range q.ignore {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
		base := filepath.Base(path)
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// Len reports the total number of tasks currently queued (directories not
// yet expanded are not counted), for progress reporting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.hi) + len(q.files)
}
