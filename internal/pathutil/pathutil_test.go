package pathutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/smattr/clink/internal/pathutil"
)

func TestDirnameRoot(t *testing.T) {
	got, err := pathutil.Dirname("/")
	if err != nil {
		t.Fatalf("Dirname(/): %v", err)
	}
	if got != "/" {
		t.Fatalf("Dirname(/) = %q, want /", got)
	}
}

func TestDirnameDropsTrailingSlash(t *testing.T) {
	got, err := pathutil.Dirname("/a/b/")
	if err != nil {
		t.Fatalf("Dirname: %v", err)
	}
	if got != "/a" {
		t.Fatalf("Dirname(/a/b/) = %q, want /a", got)
	}
}

func TestDirnameRejectsRelative(t *testing.T) {
	if _, err := pathutil.Dirname("a/b"); err == nil {
		t.Fatal("expected error for relative path")
	}
}

func TestIsRoot(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"/", true},
		{"/.", true},
		{"/nonexistent-clink-test-path", false},
	}
	for _, tc := range cases {
		if got := pathutil.IsRoot(tc.path); got != tc.want {
			t.Errorf("IsRoot(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}

	// IsRoot resolves symlinks, like realpath() in the original is_root.c, so
	// a redundant ".." segment only proves the path is root when the
	// directory it's relative to actually exists.
	if _, err := os.Stat("/usr"); err == nil {
		if !pathutil.IsRoot("/usr/..") {
			t.Errorf("IsRoot(/usr/..) = false, want true")
		}
	}
}

func TestJoinCollapsesSlashes(t *testing.T) {
	got, err := pathutil.Join("/a/b///", "///c/d")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if got != "/a/b/c/d" {
		t.Fatalf("Join = %q, want /a/b/c/d", got)
	}
}

func TestJoinRejectsEmpty(t *testing.T) {
	if _, err := pathutil.Join("", "c"); err == nil {
		t.Fatal("expected error for empty branch")
	}
	if _, err := pathutil.Join("b", ""); err == nil {
		t.Fatal("expected error for empty stem")
	}
}

func TestAbspathIsAbsolute(t *testing.T) {
	got, err := pathutil.Abspath("relative/file.c")
	if err != nil {
		t.Fatalf("Abspath: %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Fatalf("Abspath(%q) = %q, not absolute", "relative/file.c", got)
	}
}

func TestRequireAbsRejectsRelative(t *testing.T) {
	if err := pathutil.RequireAbs("relative/path.c"); err == nil {
		t.Fatal("expected InvalidArgument for relative path")
	}
	if err := pathutil.RequireAbs("/absolute/path.c"); err != nil {
		t.Fatalf("unexpected error for absolute path: %v", err)
	}
}

func TestDisppathDotForCwd(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	got, err := pathutil.Disppath(wd)
	if err != nil {
		t.Fatalf("Disppath: %v", err)
	}
	if got != "." {
		t.Fatalf("Disppath(cwd) = %q, want .", got)
	}
}

func TestStatFileHashDeterministic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.c")
	if err := os.WriteFile(path, []byte("int main(void) { return 0; }\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	s1, err := pathutil.StatFile(path)
	if err != nil {
		t.Fatalf("StatFile: %v", err)
	}
	s2, err := pathutil.StatFile(path)
	if err != nil {
		t.Fatalf("StatFile: %v", err)
	}
	if s1.Hash != s2.Hash {
		t.Fatalf("hash not deterministic: %d != %d", s1.Hash, s2.Hash)
	}
}
