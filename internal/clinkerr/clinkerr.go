// Package clinkerr defines the error categories shared by every Clink
// component, matching the taxonomy the original C implementation used
// (an enum of error codes returned alongside a diagnostic string).
package clinkerr

import (
	"errors"
	"fmt"
)

// Category is one of the fixed error kinds callers can match on with errors.Is.
type Category error

var (
	// InvalidArgument signals a relative path, empty name, bad regex, or zero
	// line/column passed to a DB-bound API.
	InvalidArgument Category = errors.New("invalid argument")
	// NotFound signals a record lookup that did not match.
	NotFound Category = errors.New("not found")
	// AlreadyExists signals that an item was already present. Nothing in this
	// module returns it: the work queue's Push deduplicates silently, with no
	// error.
	AlreadyExists Category = errors.New("already exists")
	// Interrupted signals that SIGINT was observed.
	Interrupted Category = errors.New("interrupted")
	// IOError wraps an underlying store, filesystem, or subprocess failure.
	IOError Category = errors.New("io error")
	// NotRecoverable signals an internal invariant violation that should never occur.
	NotRecoverable Category = errors.New("not recoverable")
)

// wrapped pairs a category with the specific error that triggered it, so
// errors.Is(err, clinkerr.NotFound) and %v/%w formatting both work.
type wrapped struct {
	category Category
	err      error
}

func (w *wrapped) Error() string {
	if w.err == nil {
		return w.category.Error()
	}
	return fmt.Sprintf("%s: %s", w.category.Error(), w.err.Error())
}

func (w *wrapped) Unwrap() []error {
	return []error{w.category, w.err}
}

// Wrap annotates err with category so errors.Is(result, category) holds.
// Wrap(category, nil) returns nil.
func Wrap(category Category, err error) error {
	if err == nil {
		return nil
	}
	return &wrapped{category: category, err: err}
}

// Errorf is Wrap combined with fmt.Errorf-style formatting of the message.
func Errorf(category Category, format string, args ...any) error {
	return Wrap(category, fmt.Errorf(format, args...))
}

// Is reports whether err belongs to category.
func Is(err error, category Category) bool {
	return errors.Is(err, category)
}
