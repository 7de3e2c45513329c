package versions

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is a released Node.js version. Versions order numerically by
// major, then minor, then patch.
type Version struct {
	Major uint64 `cbor:"1,keyasint"`
	Minor uint64 `cbor:"2,keyasint"`
	Patch uint64 `cbor:"3,keyasint"`
}

// ParseVersion parses a full version such as "20.1.0" or "v20.1.0".
// Pre-release and build metadata are rejected; Node.js does not publish them
// in its release index.
func ParseVersion(s string) (Version, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "v")
	sv, err := semver.StrictNewVersion(raw)
	if err != nil {
		return Version{}, fmt.Errorf("parse version %q: %w", s, err)
	}
	if sv.Prerelease() != "" || sv.Metadata() != "" {
		return Version{}, fmt.Errorf("parse version %q: pre-release versions are not supported", s)
	}
	return Version{Major: sv.Major(), Minor: sv.Minor(), Patch: sv.Patch()}, nil
}

// MustParseVersion is like ParseVersion but panics on error.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or +1 depending on whether v sorts before, equal to or
// after o.
func (v Version) Compare(o Version) int {
	if c := cmp.Compare(v.Major, o.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Minor, o.Minor); c != 0 {
		return c
	}
	return cmp.Compare(v.Patch, o.Patch)
}

// Less reports whether v sorts before o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// IsZero reports whether v is 0.0.0, which never names a real release.
func (v Version) IsZero() bool { return v == Version{} }

func (v Version) semver() *semver.Version {
	return semver.New(v.Major, v.Minor, v.Patch, "", "")
}

func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Version) UnmarshalText(b []byte) error {
	parsed, err := ParseVersion(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Release is the metadata of one upstream release.
type Release struct {
	Version Version `cbor:"1,keyasint"`
	// LTS is the lower-cased codename of the LTS line, empty for current releases.
	LTS string `cbor:"2,keyasint,omitempty"`
}

// IsLTS reports whether the release belongs to a long-term-support line.
func (r Release) IsLTS() bool { return r.LTS != "" }

func (r Release) String() string {
	if r.LTS != "" {
		return fmt.Sprintf("%s (%s)", r.Version, r.LTS)
	}
	return r.Version.String()
}
