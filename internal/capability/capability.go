// Package capability answers host feature questions from the host version.
package capability

import (
	"strconv"
	"strings"

	ferrors "git.home.luguber.info/inful/gsit/internal/foundation/errors"
)

// Version is a parsed host version. Versions follow the "1.<major>.<minor>"
// scheme of the game host, so "1.20.5" is major 20, minor 5. A leading "1."
// is optional.
type Version struct {
	Major int
	Minor int
}

// Parse accepts "1.20.5", "1.20", "20.5" and "20".
func Parse(raw string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if len(parts) > 1 && parts[0] == "1" {
		parts = parts[1:]
	}
	if len(parts) == 0 || len(parts) > 2 || parts[0] == "" {
		return Version{}, invalid(raw)
	}
	var v Version
	var err error
	if v.Major, err = strconv.Atoi(parts[0]); err != nil || v.Major < 0 {
		return Version{}, invalid(raw)
	}
	if len(parts) == 2 {
		if v.Minor, err = strconv.Atoi(parts[1]); err != nil || v.Minor < 0 {
			return Version{}, invalid(raw)
		}
	}
	return v, nil
}

func invalid(raw string) error {
	return ferrors.ValidationError("invalid server version").
		WithContext("version", raw).
		Build()
}

// AtLeast reports whether v is the same as or newer than major.minor.
func (v Version) AtLeast(major, minor int) bool {
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

func (v Version) String() string {
	return "1." + strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor)
}

// Check implements attach.Capabilities for a fixed host version.
type Check struct {
	version Version
}

func NewCheck(v Version) Check { return Check{version: v} }

// ParseCheck parses raw and returns a Check for it.
func ParseCheck(raw string) (Check, error) {
	v, err := Parse(raw)
	if err != nil {
		return Check{}, err
	}
	return NewCheck(v), nil
}

func (c Check) Supports(minMajor, minMinor int) bool { return c.version.AtLeast(minMajor, minMinor) }

func (c Check) Version() Version { return c.version }
