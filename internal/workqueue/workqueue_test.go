package workqueue_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smattr/clink/internal/workqueue"
)

func TestPopExpandsDirectoryIntoFileTasks(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.c"), []byte("int x;"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "README.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "b.cpp"), []byte("int y;"), 0o644); err != nil {
		t.Fatal(err)
	}

	q := workqueue.New(time.Now().Add(-time.Hour), nil)
	q.SeedRoot(root)

	var got []string
	for {
		task, ok := q.Pop()
		if !ok {
			break
		}
		got = append(got, task.Path)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 file tasks (README.md excluded), got %+v", got)
	}
}

func TestHighlightQueueTakesPriority(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "a.c")
	if err := os.WriteFile(file, []byte("int x;"), 0o644); err != nil {
		t.Fatal(err)
	}

	q := workqueue.New(time.Now().Add(-time.Hour), nil)
	q.SeedRoot(root)
	q.Push(file)

	task, ok := q.Pop()
	if !ok {
		t.Fatalf("expected a task")
	}
	if task.Kind != workqueue.Highlight {
		t.Errorf("expected Highlight task first, got %v", task.Kind)
	}
}

func TestPushDeduplicates(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "a.c")
	if err := os.WriteFile(file, []byte("int x;"), 0o644); err != nil {
		t.Fatal(err)
	}

	q := workqueue.New(time.Now().Add(-time.Hour), nil)
	q.Push(file)
	q.Push(file)

	count := 0
	for {
		task, ok := q.Pop()
		if !ok {
			break
		}
		if task.Kind == workqueue.Highlight {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected Push to dedup, got %d highlight tasks", count)
	}
}

func TestPushRejectsOldFiles(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "a.c")
	if err := os.WriteFile(file, []byte("int x;"), 0o644); err != nil {
		t.Fatal(err)
	}

	q := workqueue.New(time.Now().Add(time.Hour), nil)
	q.Push(file)

	if _, ok := q.Pop(); ok {
		t.Errorf("expected no tasks: file predates era start")
	}
}

func TestPopSkipsFilesDiscoveredViaWalkThatPredateEraStart(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.c"), []byte("int x;"), 0o644); err != nil {
		t.Fatal(err)
	}

	q := workqueue.New(time.Now().Add(time.Hour), nil)
	q.SeedRoot(root)

	if _, ok := q.Pop(); ok {
		t.Errorf("expected no tasks: file discovered by directory walk predates era start")
	}
}

func TestIgnoreGlobExcludesDirectory(t *testing.T) {
	root := t.TempDir()
	ignored := filepath.Join(root, "vendor")
	if err := os.Mkdir(ignored, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(ignored, "a.c"), []byte("int x;"), 0o644); err != nil {
		t.Fatal(err)
	}

	q := workqueue.New(time.Now().Add(-time.Hour), []string{"**/vendor"})
	q.SeedRoot(root)

	if _, ok := q.Pop(); ok {
		t.Errorf("expected ignore glob to exclude the vendor directory entirely")
	}
}
