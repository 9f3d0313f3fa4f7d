package docsite

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dhamidi/plugintools/pom"
)

// Generation selects the link syntax of a javadoc tool release.
type Generation int

const (
	// Legacy is javadoc before 1.8.
	Legacy Generation = iota
	// Mid is javadoc 1.8 and 9.
	Mid
	// Modern is javadoc 10 and later.
	Modern
)

func (g Generation) String() string {
	switch g {
	case Legacy:
		return "LEGACY"
	case Mid:
		return "MID"
	case Modern:
		return "MODERN"
	}
	return fmt.Sprintf("Generation(%d)", int(g))
}

// generationRanges are contiguous: lower bounds inclusive, upper bounds
// exclusive.
var generationRanges = []struct {
	generation Generation
	versions   pom.VersionRange
}{
	{Legacy, pom.VersionRange{Max: pom.ParseVersion("1.8")}},
	{Mid, pom.VersionRange{Min: pom.ParseVersion("1.8"), MinInclusive: true, Max: pom.ParseVersion("10")}},
	{Modern, pom.VersionRange{Min: pom.ParseVersion("10"), MinInclusive: true}},
}

// GenerationFor maps a javadoc tool version such as "1.8.0_345" or "17"
// to its generation.
func GenerationFor(version string) (Generation, error) {
	version = strings.TrimSpace(version)
	if version == "" || !unicode.IsDigit(rune(version[0])) {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedToolVersion, version)
	}
	v := pom.ParseVersion(version)
	for _, r := range generationRanges {
		if r.versions.Contains(v) {
			return r.generation, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedToolVersion, version)
}
