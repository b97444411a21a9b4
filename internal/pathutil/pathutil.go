// Package pathutil is the Clink path store: absolutisation, canonicalisation,
// display-relative-to-cwd rendering, root detection, slash-collapsing join,
// and mtime/hash inspection. It is ported from the original clink/src/path.c,
// is_root.c, dirname.c, join.c, disppath.c, and cwd.c, adapted to return
// freshly allocated Go strings instead of mutating caller buffers.
package pathutil

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/smattr/clink/internal/clinkerr"
)

// Abspath returns path made absolute against the current working directory.
// An already-absolute path is returned unchanged (aside from Clean).
func Abspath(path string) (string, error) {
	if path == "" {
		return "", clinkerr.Errorf(clinkerr.InvalidArgument, "empty path")
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	wd, err := Cwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, path), nil
}

// Cwd returns the process's current working directory.
func Cwd() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", clinkerr.Wrap(clinkerr.IOError, err)
	}
	return wd, nil
}

// Canonicalise resolves symlinks and ".."/"." components, producing the
// form the rest of Clink expects: absolute, beginning with "/", containing
// no "." or ".." components.
func Canonicalise(path string) (string, error) {
	abs, err := Abspath(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", clinkerr.Wrap(clinkerr.IOError, err)
	}
	return filepath.Clean(resolved), nil
}

// IsRoot reports whether path resolves to the filesystem root.
func IsRoot(path string) bool {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return false
	}
	return filepath.Clean(resolved) == "/"
}

// Dirname returns the parent directory of an absolute path. dirname("/") is
// "/"; trailing slashes are dropped before taking the parent, matching the
// original dirname.c.
func Dirname(path string) (string, error) {
	if !filepath.IsAbs(path) {
		return "", clinkerr.Errorf(clinkerr.InvalidArgument, "dirname: %q is not absolute", path)
	}
	if IsRoot(path) {
		return "/", nil
	}
	trimmed := strings.TrimRight(path, "/")
	if trimmed == "" {
		return "/", nil
	}
	idx := strings.LastIndex(trimmed, "/")
	if idx <= 0 {
		return "/", nil
	}
	return trimmed[:idx], nil
}

// Join concatenates branch and stem, collapsing any redundant "/"s at the
// seam, matching join.c: trailing slashes are stripped from branch and
// leading slashes from stem before a single "/" is inserted between them.
func Join(branch, stem string) (string, error) {
	if branch == "" {
		return "", clinkerr.Errorf(clinkerr.InvalidArgument, "join: empty branch")
	}
	if stem == "" {
		return "", clinkerr.Errorf(clinkerr.InvalidArgument, "join: empty stem")
	}
	prefix := strings.TrimRight(branch, "/")
	suffix := strings.TrimLeft(stem, "/")
	return prefix + "/" + suffix, nil
}

// Disppath renders path relative to the current working directory for
// display: "." if it names the cwd exactly, a relative suffix if the cwd is
// a prefix, or the canonical absolute path otherwise.
func Disppath(path string) (string, error) {
	a, err := Canonicalise(path)
	if err != nil {
		return "", err
	}
	wd, err := Cwd()
	if err != nil {
		return "", err
	}
	if wd == a {
		return ".", nil
	}
	if strings.HasPrefix(a, wd+"/") {
		return a[len(wd)+1:], nil
	}
	return a, nil
}

// RequireAbs fails with InvalidArgument if path is not absolute, the
// boundary check every DB-bound API in §4.2 performs before accepting a path.
func RequireAbs(path string) error {
	if path == "" || !filepath.IsAbs(path) {
		return clinkerr.Errorf(clinkerr.InvalidArgument, "path %q is not absolute", path)
	}
	return nil
}

// Stat reports a file's size, mtime (unix seconds), and content hash.
type Stat struct {
	Size    int64
	ModTime int64
	Hash    uint64
}

// StatFile stats and hashes path in one pass.
func StatFile(path string) (Stat, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Stat{}, clinkerr.Wrap(clinkerr.NotFound, err)
		}
		return Stat{}, clinkerr.Wrap(clinkerr.IOError, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Stat{}, clinkerr.Wrap(clinkerr.IOError, err)
	}
	return Stat{
		Size:    info.Size(),
		ModTime: info.ModTime().Unix(),
		Hash:    HashContent(data),
	}, nil
}

// HashContent returns a stable 64-bit digest of data, truncated from a
// SHA-256 sum, suitable for storage in the records table's integer hash column.
func HashContent(data []byte) uint64 {
	sum := sha256.Sum256(data)
	return binary.BigEndian.Uint64(sum[:8])
}

// DisplayName renders an error-friendly form of a path for log messages.
func DisplayName(path string) string {
	disp, err := Disppath(path)
	if err != nil {
		return path
	}
	return fmt.Sprintf("%s", disp)
}
