// Package version implements software versioning.
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Version is a software version.
type Version struct {
	Major uint16
	Minor uint16
	Patch uint16
}

// ToU64 returns the version as a packed uint64.
func (v Version) ToU64() uint64 {
	return (uint64(v.Major) << 32) | (uint64(v.Minor) << 16) | (uint64(v.Patch))
}

// FromU64 returns the version from a packed uint64.
func FromU64(v uint64) Version {
	return Version{
		Major: uint16((v >> 32) & 0xffff),
		Minor: uint16((v >> 16) & 0xffff),
		Patch: uint16(v & 0xffff),
	}
}

// String returns the version as a string.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// MajorMinor extracts the major and minor segments of the Version only.
func (v Version) MajorMinor() Version {
	return Version{
		Major: v.Major,
		Minor: v.Minor,
		Patch: 0,
	}
}

// Software is the scheduling core version.
var Software = Version{Major: 0, Minor: 3, Patch: 0}

// SoftwareVersion is the scheduling core version string.
var SoftwareVersion = Software.String()

// Toolchain returns the version of the Go toolchain the binary was built
// with.
func Toolchain() string {
	return strings.TrimPrefix(runtime.Version(), "go")
}
