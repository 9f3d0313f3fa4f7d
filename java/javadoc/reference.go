package javadoc

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrMalformedReference = errors.New("malformed reference")

// referencePattern splits "module/package.Class#member(Arg1, Arg2) label".
var referencePattern = regexp.MustCompile(`^\s*(?:(.+)/)??([^#\s/()]+)?(?:#([^\s()]+(?:\([^()]*\))?))?(?: +(.*\S))?\s*$`)

// Reference is a doc reference as written in {@link} or @see.
type Reference struct {
	Module string
	// Path is a package, a class or a package qualified class.
	Path   string
	Member string
	Label  string
}

// ParseReference parses s. A reference needs a path or a member.
func ParseReference(s string) (Reference, error) {
	m := referencePattern.FindStringSubmatch(s)
	if m == nil {
		return Reference{}, fmt.Errorf("%w: %q", ErrMalformedReference, s)
	}
	ref := Reference{Module: m[1], Path: m[2], Member: m[3], Label: m[4]}
	if ref.Path == "" && ref.Member == "" {
		return Reference{}, fmt.Errorf("%w: %q names neither a package, class nor member", ErrMalformedReference, s)
	}
	return ref, nil
}

func (r Reference) String() string {
	var sb strings.Builder
	if r.Module != "" {
		sb.WriteString(r.Module)
		sb.WriteByte('/')
	}
	sb.WriteString(r.Path)
	if r.Member != "" {
		sb.WriteByte('#')
		sb.WriteString(r.Member)
	}
	if r.Label != "" {
		sb.WriteByte(' ')
		sb.WriteString(r.Label)
	}
	return sb.String()
}

// MemberName is the member without its argument list.
func (r Reference) MemberName() string {
	name, _, _ := strings.Cut(r.Member, "(")
	return name
}

// MemberArgs returns the argument types of a parenthesised member, with
// surrounding whitespace removed. ok is false when the member has no
// parentheses.
func (r Reference) MemberArgs() (args []string, ok bool) {
	_, list, found := strings.Cut(r.Member, "(")
	if !found {
		return nil, false
	}
	list = strings.TrimSuffix(list, ")")
	if strings.TrimSpace(list) == "" {
		return []string{}, true
	}
	for _, arg := range strings.Split(list, ",") {
		args = append(args, strings.TrimSpace(arg))
	}
	return args, true
}
