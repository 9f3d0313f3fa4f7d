package pom

import (
	"errors"
	"testing"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0", "1.0", 0},
		{"1.0", "1.0.0", 0},
		{"1.0.0.Final", "1.0", 0},
		{"1.0-ga", "1.0", 0},
		{"1.0", "1.1", -1},
		{"2.0", "10.0", -1},
		{"1.0-alpha", "1.0-beta", -1},
		{"1.0-beta1", "1.0-rc1", -1},
		{"1.0-rc1", "1.0-SNAPSHOT", -1},
		{"1.0-SNAPSHOT", "1.0", -1},
		{"1.0", "1.0-sp1", -1},
		{"1.0-sp1", "1.0.1", -1},
		{"1.0-alpha-1", "1.0-alpha-2", -1},
		{"1.8.0_345", "1.8", 1},
		{"1.7.0_80", "1.8", -1},
		{"9.0.4", "10", -1},
		{"17", "11.0.2", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			a, b := ParseVersion(tt.a), ParseVersion(tt.b)
			if got := CompareVersions(a, b); got != tt.want {
				t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := CompareVersions(b, a); got != -tt.want {
				t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.b, tt.a, got, -tt.want)
			}
		})
	}
}

func TestParseVersionKeepsRaw(t *testing.T) {
	for _, s := range []string{"1.0-SNAPSHOT", "1.0.0-beta.2", "3.9.6"} {
		if got := ParseVersion(s).String(); got != s {
			t.Errorf("ParseVersion(%q).String() = %q", s, got)
		}
	}
}

func TestParseVersionRequirement(t *testing.T) {
	tests := []struct {
		spec   string
		hard   bool
		ranges int
	}{
		{"1.0", false, 0},
		{"2.3.4", false, 0},
		{"[1.0]", true, 1},
		{"[1.0,2.0)", true, 1},
		{"(,1.0]", true, 1},
		{"[1.5,)", true, 1},
		{"(,1.0],[1.2,)", true, 2},
		{"(,1.1), (1.1,)", true, 2},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			req, err := ParseVersionRequirement(tt.spec)
			if err != nil {
				t.Fatalf("ParseVersionRequirement(%q) error = %v", tt.spec, err)
			}
			if req.IsHard() != tt.hard {
				t.Errorf("IsHard() = %v, want %v", req.IsHard(), tt.hard)
			}
			if len(req.Ranges) != tt.ranges {
				t.Errorf("got %d ranges, want %d", len(req.Ranges), tt.ranges)
			}
		})
	}
}

func TestParseVersionRequirementErrors(t *testing.T) {
	for _, spec := range []string{"", "[1.0", "(1.0)", "[2.0,1.0]", "1.0,[2.0]"} {
		t.Run(spec, func(t *testing.T) {
			_, err := ParseVersionRequirement(spec)
			if !errors.Is(err, ErrInvalidVersionSpec) {
				t.Errorf("ParseVersionRequirement(%q) error = %v, want ErrInvalidVersionSpec", spec, err)
			}
		})
	}
}

func TestVersionRangeContains(t *testing.T) {
	tests := []struct {
		spec    string
		version string
		want    bool
	}{
		{"[1.0]", "1.0", true},
		{"[1.0]", "1.0.0", true},
		{"[1.0]", "1.1", false},
		{"[1.0,2.0)", "1.0", true},
		{"[1.0,2.0)", "2.0", false},
		{"[1.0,2.0)", "2.0-SNAPSHOT", true},
		{"(1.0,2.0]", "1.0", false},
		{"(1.0,2.0]", "2.0", true},
		{"(,1.0]", "0.5", true},
		{"(,1.0]", "1.0.1", false},
		{"[1.5,)", "99", true},
		{"[1.5,)", "1.4.9", false},
	}
	for _, tt := range tests {
		t.Run(tt.spec+" "+tt.version, func(t *testing.T) {
			req, err := ParseVersionRequirement(tt.spec)
			if err != nil {
				t.Fatalf("ParseVersionRequirement(%q) error = %v", tt.spec, err)
			}
			if got := req.Ranges[0].Contains(ParseVersion(tt.version)); got != tt.want {
				t.Errorf("%s contains %s = %v, want %v", tt.spec, tt.version, got, tt.want)
			}
		})
	}
}
