package cli

import (
	"errors"
	"fmt"
)

// ExitError carries the exit code of a command run through exec. It is not
// a failure of noderig itself; main exits with Code and prints nothing.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// ExitCode maps err to a process exit code: 0 for nil, the child's code for
// an *ExitError and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// PrintError reports a failed command on stderr with its hint, if any.
func PrintError(err error) {
	var exitErr *ExitError
	if err == nil || errors.As(err, &exitErr) {
		return
	}
	printError("%v", err)
	var hinted interface{ Help() string }
	if errors.As(err, &hinted) {
		if help := hinted.Help(); help != "" {
			printDetail("%s", help)
		}
	}
}
