package protocol

import (
	"cmp"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// String returns "major.minor.subminor+rREVISION".
func (v ProgramVersion) String() string {
	return fmt.Sprintf("%d.%d.%d+r%d", v.Major, v.Minor, v.Subminor, v.Revision)
}

// Semver returns the major.minor.subminor part as a semantic version.
func (v ProgramVersion) Semver() *semver.Version {
	return semver.New(uint64(v.Major), uint64(v.Minor), uint64(v.Subminor), "", "")
}

// Compare returns -1, 0 or +1 depending on whether v is older than, equal
// to or newer than o. Revision breaks ties between equal semantic versions.
func (v ProgramVersion) Compare(o ProgramVersion) int {
	if c := v.Semver().Compare(o.Semver()); c != 0 {
		return c
	}
	return cmp.Compare(v.Revision, o.Revision)
}

// ParseProgramVersion parses "1.2.3" or "1.2.3+r45".
func ParseProgramVersion(s string) (ProgramVersion, error) {
	sv, err := semver.StrictNewVersion(s)
	if err != nil {
		return ProgramVersion{}, fmt.Errorf("protocol: invalid program version %q: %w", s, err)
	}
	if sv.Major() > math.MaxUint16 || sv.Minor() > math.MaxUint16 || sv.Patch() > math.MaxUint16 {
		return ProgramVersion{}, fmt.Errorf("protocol: program version %q out of range", s)
	}
	if sv.Prerelease() != "" {
		return ProgramVersion{}, fmt.Errorf("protocol: program version %q has a prerelease tag", s)
	}

	v := ProgramVersion{
		Major:    uint16(sv.Major()),
		Minor:    uint16(sv.Minor()),
		Subminor: uint16(sv.Patch()),
	}
	if md := sv.Metadata(); md != "" {
		rev, err := strconv.ParseUint(strings.TrimPrefix(md, "r"), 10, 16)
		if err != nil {
			return ProgramVersion{}, fmt.Errorf("protocol: invalid revision in %q", s)
		}
		v.Revision = uint16(rev)
	}
	return v, nil
}
