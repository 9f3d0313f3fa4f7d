package pom

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Version is a Maven version split into comparable items, following the
// ordering of Maven's ComparableVersion: "1.0-alpha" < "1.0-rc1" <
// "1.0-SNAPSHOT" < "1.0" = "1.0.0" = "1.0-ga" < "1.0-sp" < "1.0.1".
type Version struct {
	Raw   string
	items []versionItem
}

type versionItem struct {
	numeric bool
	number  int64
	text    string
	// dash is set when the item followed a '-' rather than a '.'.
	dash bool
}

func ParseVersion(s string) *Version {
	s = strings.TrimSpace(s)
	v := &Version{Raw: s}
	var (
		current   strings.Builder
		isNumeric bool
		dash      bool
	)
	flush := func() {
		if current.Len() == 0 {
			return
		}
		item := versionItem{numeric: isNumeric, text: strings.ToLower(current.String()), dash: dash}
		if isNumeric {
			item.number, _ = strconv.ParseInt(item.text, 10, 64)
		}
		v.items = append(v.items, item)
		current.Reset()
	}
	for _, c := range s {
		switch {
		case c == '.' || c == '-' || c == '_':
			flush()
			dash = c == '-'
		case unicode.IsDigit(c):
			if current.Len() > 0 && !isNumeric {
				flush()
				dash = true
			}
			isNumeric = true
			current.WriteRune(c)
		default:
			if current.Len() > 0 && isNumeric {
				flush()
				dash = true
			}
			isNumeric = false
			current.WriteRune(c)
		}
	}
	flush()
	for len(v.items) > 0 && v.items[len(v.items)-1].isNull() {
		v.items = v.items[:len(v.items)-1]
	}
	return v
}

func (v *Version) String() string {
	return v.Raw
}

func (it versionItem) isNull() bool {
	if it.numeric {
		return it.number == 0
	}
	return qualifierRank(it.text) == releaseRank
}

var qualifierRanks = map[string]int{
	"alpha":     1,
	"a":         1,
	"beta":      2,
	"b":         2,
	"milestone": 3,
	"m":         3,
	"rc":        4,
	"cr":        4,
	"snapshot":  5,
	"":          6,
	"ga":        6,
	"final":     6,
	"release":   6,
	"sp":        7,
}

const (
	releaseRank = 6
	unknownRank = 8
)

func qualifierRank(q string) int {
	if r, ok := qualifierRanks[q]; ok {
		return r
	}
	return unknownRank
}

// CompareVersions returns -1, 0 or 1.
func CompareVersions(a, b *Version) int {
	n := max(len(a.items), len(b.items))
	for i := 0; i < n; i++ {
		var c int
		switch {
		case i >= len(a.items):
			c = -compareToMissing(b.items[i])
		case i >= len(b.items):
			c = compareToMissing(a.items[i])
		default:
			c = compareItems(a.items[i], b.items[i])
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// compareToMissing compares an item against the padding of a shorter
// version, which behaves like 0 or like a release qualifier.
func compareToMissing(it versionItem) int {
	if it.numeric {
		return sign(it.number)
	}
	return sign(int64(qualifierRank(it.text) - releaseRank))
}

func compareItems(a, b versionItem) int {
	switch {
	case a.numeric && b.numeric:
		return sign(a.number - b.number)
	case a.numeric:
		return 1
	case b.numeric:
		return -1
	}
	ra, rb := qualifierRank(a.text), qualifierRank(b.text)
	if ra != rb {
		return sign(int64(ra - rb))
	}
	return strings.Compare(a.text, b.text)
}

func sign(n int64) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

// VersionRange is one interval of a range specification. A nil bound is
// unbounded.
type VersionRange struct {
	Min          *Version
	Max          *Version
	MinInclusive bool
	MaxInclusive bool
}

func (r VersionRange) Contains(v *Version) bool {
	if r.Min != nil {
		c := CompareVersions(v, r.Min)
		if c < 0 || (c == 0 && !r.MinInclusive) {
			return false
		}
	}
	if r.Max != nil {
		c := CompareVersions(v, r.Max)
		if c > 0 || (c == 0 && !r.MaxInclusive) {
			return false
		}
	}
	return true
}

// VersionRequirement is either a soft version such as "1.2", which
// dependency mediation may override, or a hard range list such as
// "[1.0,2.0),[3.0,)".
type VersionRequirement struct {
	Raw    string
	Soft   *Version
	Ranges []VersionRange
}

func (r *VersionRequirement) IsHard() bool {
	return r.Soft == nil
}

var ErrInvalidVersionSpec = errors.New("invalid version specification")

func ParseVersionRequirement(s string) (*VersionRequirement, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidVersionSpec)
	}
	if !strings.ContainsAny(s, "[](),") {
		return &VersionRequirement{Raw: s, Soft: ParseVersion(s)}, nil
	}
	req := &VersionRequirement{Raw: s}
	rest := s
	for rest != "" {
		rest = strings.TrimLeft(rest, ", ")
		if rest == "" {
			break
		}
		if rest[0] != '[' && rest[0] != '(' {
			return nil, fmt.Errorf("%w: %q", ErrInvalidVersionSpec, s)
		}
		end := strings.IndexAny(rest, "])")
		if end < 0 {
			return nil, fmt.Errorf("%w: unterminated range in %q", ErrInvalidVersionSpec, s)
		}
		r, err := parseVersionRange(rest[:end+1])
		if err != nil {
			return nil, err
		}
		req.Ranges = append(req.Ranges, r)
		rest = rest[end+1:]
	}
	return req, nil
}

func parseVersionRange(s string) (VersionRange, error) {
	r := VersionRange{MinInclusive: s[0] == '[', MaxInclusive: s[len(s)-1] == ']'}
	inner := s[1 : len(s)-1]
	lower, upper, hasComma := strings.Cut(inner, ",")
	if !hasComma {
		if !r.MinInclusive || !r.MaxInclusive || strings.TrimSpace(inner) == "" {
			return VersionRange{}, fmt.Errorf("%w: %q", ErrInvalidVersionSpec, s)
		}
		v := ParseVersion(inner)
		return VersionRange{Min: v, Max: v, MinInclusive: true, MaxInclusive: true}, nil
	}
	if lower = strings.TrimSpace(lower); lower != "" {
		r.Min = ParseVersion(lower)
	}
	if upper = strings.TrimSpace(upper); upper != "" {
		r.Max = ParseVersion(upper)
	}
	if r.Min != nil && r.Max != nil && CompareVersions(r.Min, r.Max) > 0 {
		return VersionRange{}, fmt.Errorf("%w: lower bound above upper bound in %q", ErrInvalidVersionSpec, s)
	}
	return r, nil
}

// Allows reports whether v satisfies the requirement. Soft requirements
// allow every version.
func (r *VersionRequirement) Allows(v *Version) bool {
	if !r.IsHard() {
		return true
	}
	for _, rng := range r.Ranges {
		if rng.Contains(v) {
			return true
		}
	}
	return false
}
