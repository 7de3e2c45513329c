package mapper

import (
	"errors"
	"fmt"
	"strings"
)

// CommandNotFoundError reports that no file for Command exists in Dir.
type CommandNotFoundError struct {
	Command string
	Dir     string
	Tried   []string
}

func (e *CommandNotFoundError) Error() string {
	return fmt.Sprintf("command %q not found in %s (tried %s)", e.Command, e.Dir, strings.Join(e.Tried, ", "))
}

// DirError reports that a directory could not be listed.
type DirError struct {
	Dir string
	Err error
}

func (e *DirError) Error() string { return fmt.Sprintf("read directory %s: %v", e.Dir, e.Err) }

func (e *DirError) Unwrap() error { return e.Err }

// ReconcileError collects the shims that could not be written or removed.
// The other shims were still processed.
type ReconcileError struct {
	Failures []error
}

func (e *ReconcileError) Error() string {
	if len(e.Failures) == 1 {
		return "reconcile shims: " + e.Failures[0].Error()
	}
	return fmt.Sprintf("reconcile shims: %d failures: %v", len(e.Failures), errors.Join(e.Failures...))
}

func (e *ReconcileError) Unwrap() []error { return e.Failures }
