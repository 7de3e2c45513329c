package versions

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a resolution failure.
type ErrorKind uint8

const (
	// UnknownVersion means an LTS codename is not in the release index.
	UnknownVersion ErrorKind = iota + 1
	// Unfulfillable means no release satisfies a range.
	Unfulfillable
	// NotInstalled means the resolved release is not present locally.
	NotInstalled
	// Unsupported means the spec cannot be resolved against the given source,
	// e.g. "latest" against the installed inventory.
	Unsupported
)

func (k ErrorKind) String() string {
	switch k {
	case UnknownVersion:
		return "unknown version"
	case Unfulfillable:
		return "unfulfillable version"
	case NotInstalled:
		return "not installed"
	case Unsupported:
		return "unsupported"
	default:
		return "version error"
	}
}

// Error is a resolution failure. Input holds the offending spec or version
// exactly as it was resolved.
type Error struct {
	Kind  ErrorKind
	Input string
}

func (e *Error) Error() string {
	switch e.Kind {
	case UnknownVersion:
		return fmt.Sprintf("unknown version %q", e.Input)
	case Unfulfillable:
		return fmt.Sprintf("no release satisfies %q", e.Input)
	case NotInstalled:
		return fmt.Sprintf("version %s is not installed", e.Input)
	case Unsupported:
		return fmt.Sprintf("%q cannot be resolved against installed versions", e.Input)
	default:
		return fmt.Sprintf("version error: %s", e.Input)
	}
}

// Help returns a hint for the user.
func (e *Error) Help() string {
	switch e.Kind {
	case UnknownVersion, Unfulfillable:
		return "Make sure there's no typo in the version."
	case NotInstalled:
		return "Install it first with `noderig install " + e.Input + "`."
	default:
		return ""
	}
}

func newError(kind ErrorKind, input string) *Error {
	return &Error{Kind: kind, Input: input}
}

// UnknownVersionError returns an UnknownVersion error for input.
func UnknownVersionError(input string) *Error { return newError(UnknownVersion, input) }

// UnfulfillableError returns an Unfulfillable error for the given spec.
func UnfulfillableError(s Spec) *Error { return newError(Unfulfillable, s.String()) }

// NotInstalledError returns a NotInstalled error for v.
func NotInstalledError(v Version) *Error { return newError(NotInstalled, v.String()) }

// UnsupportedError returns an Unsupported error for the given spec.
func UnsupportedError(s Spec) *Error { return newError(Unsupported, s.String()) }

// IsKind reports whether err is, or wraps, an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
