package versions

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Kind identifies the form of a Spec.
type Kind uint8

const (
	// KindLatest selects the newest known release.
	KindLatest Kind = iota + 1
	// KindLatestLTS selects the newest release of any LTS line.
	KindLatestLTS
	// KindNamedLTS selects the newest release of one LTS line.
	KindNamedLTS
	// KindRange selects the newest release matching a semver range.
	KindRange
)

func (k Kind) String() string {
	switch k {
	case KindLatest:
		return "latest"
	case KindLatestLTS:
		return "lts"
	case KindNamedLTS:
		return "named-lts"
	case KindRange:
		return "range"
	default:
		return "invalid"
	}
}

// ErrInvalidSpec is returned by ParseSpec for input that is neither a
// keyword, a semver range nor a plausible LTS codename.
var ErrInvalidSpec = errors.New("invalid version spec")

const ltsPrefix = "lts/"

var (
	partialVersion = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)
	codename       = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)
)

// Spec is an immutable version selector. The zero value is invalid; obtain
// specs from ParseSpec, Latest, LatestLTS or NamedLTS.
type Spec struct {
	kind       Kind
	text       string
	constraint *semver.Constraints
}

var (
	// Latest selects the newest known release.
	Latest = Spec{kind: KindLatest}
	// LatestLTS selects the newest LTS release.
	LatestLTS = Spec{kind: KindLatestLTS}
)

// NamedLTS returns a spec selecting the newest release of the named LTS line.
func NamedLTS(name string) Spec {
	return Spec{kind: KindNamedLTS, text: strings.ToLower(strings.TrimSpace(name))}
}

// ParseSpec parses a user-supplied version selector.
//
// "latest" and "lts" are keywords, "lts/<name>" names an LTS line and
// "lts/*" is an alias for "lts". Anything else has a leading "v" stripped and
// is tried as a semver range; if that fails it is taken as an LTS codename.
func ParseSpec(s string) (Spec, error) {
	input := strings.ToLower(strings.TrimSpace(s))
	if input == "" {
		return Spec{}, fmt.Errorf("%w: empty", ErrInvalidSpec)
	}

	switch input {
	case "latest":
		return Latest, nil
	case "lts", "lts/*":
		return LatestLTS, nil
	}

	if name, ok := strings.CutPrefix(input, ltsPrefix); ok {
		if !codename.MatchString(name) {
			return Spec{}, fmt.Errorf("%w: %q", ErrInvalidSpec, s)
		}
		return NamedLTS(name), nil
	}

	text := strings.TrimPrefix(input, "v")
	if partialVersion.MatchString(text) {
		text += ".x"
	}
	if c, err := semver.NewConstraint(text); err == nil {
		return Spec{kind: KindRange, text: text, constraint: c}, nil
	}

	if codename.MatchString(input) {
		return NamedLTS(input), nil
	}
	return Spec{}, fmt.Errorf("%w: %q", ErrInvalidSpec, s)
}

// MustParseSpec is like ParseSpec but panics on error.
func MustParseSpec(s string) Spec {
	spec, err := ParseSpec(s)
	if err != nil {
		panic(err)
	}
	return spec
}

// Kind returns the form of the spec.
func (s Spec) Kind() Kind { return s.kind }

// IsZero reports whether s is the invalid zero value.
func (s Spec) IsZero() bool { return s.kind == 0 }

// Name returns the LTS codename of a KindNamedLTS spec.
func (s Spec) Name() string {
	if s.kind != KindNamedLTS {
		return ""
	}
	return s.text
}

// Matches reports whether v satisfies a KindRange spec. It is always false
// for other kinds.
func (s Spec) Matches(v Version) bool {
	if s.kind != KindRange || s.constraint == nil {
		return false
	}
	return s.constraint.Check(v.semver())
}

// Equal reports whether two specs select the same thing.
func (s Spec) Equal(o Spec) bool {
	return s.kind == o.kind && s.text == o.text
}

// String returns the canonical form of the spec, which ParseSpec accepts.
func (s Spec) String() string {
	switch s.kind {
	case KindLatest:
		return "latest"
	case KindLatestLTS:
		return "lts"
	case KindNamedLTS:
		return ltsPrefix + s.text
	case KindRange:
		return s.text
	default:
		return ""
	}
}

func (s Spec) MarshalText() ([]byte, error) {
	if s.IsZero() {
		return nil, fmt.Errorf("%w: empty", ErrInvalidSpec)
	}
	return []byte(s.String()), nil
}

func (s *Spec) UnmarshalText(b []byte) error {
	parsed, err := ParseSpec(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
