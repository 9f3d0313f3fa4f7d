package javadoc

import (
	"errors"
	"strings"
	"unicode"
)

type MemberType int

const (
	MemberNone MemberType = iota
	MemberField
	MemberMethod
	MemberConstructor
)

func (t MemberType) String() string {
	switch t {
	case MemberField:
		return "FIELD"
	case MemberMethod:
		return "METHOD"
	case MemberConstructor:
		return "CONSTRUCTOR"
	}
	return "NONE"
}

// ResolvedReference is a reference with every name fully qualified.
// Member parameter types are canonical names joined by ',' without
// whitespace, e.g. "execute(java.lang.String,int[])".
type ResolvedReference struct {
	Module  string
	Package string
	// Class is the class name relative to the package, with nested classes
	// joined by '.'.
	Class      string
	Member     string
	MemberType MemberType
	Label      string
	// External is set for references outside the scanned sources.
	External bool
}

// Validate checks the structural rules of a resolved reference.
func (r ResolvedReference) Validate() error {
	if r.Module == "" && r.Package == "" {
		return errors.New("resolved reference needs a module or a package")
	}
	if (r.Member == "") != (r.MemberType == MemberNone) {
		return errors.New("resolved reference needs a member type exactly when it has a member")
	}
	if strings.IndexFunc(r.Member, unicode.IsSpace) >= 0 {
		return errors.New("resolved member must not contain whitespace")
	}
	return nil
}

// QualifiedClassName joins package and class, or returns "" without a class.
func (r ResolvedReference) QualifiedClassName() string {
	if r.Class == "" {
		return ""
	}
	if r.Package == "" {
		return r.Class
	}
	return r.Package + "." + r.Class
}

// MemberName is the member without its parameter list.
func (r ResolvedReference) MemberName() string {
	name, _, _ := strings.Cut(r.Member, "(")
	return name
}

// MemberParameters splits the canonical parameter list of a method or
// constructor member.
func (r ResolvedReference) MemberParameters() []string {
	_, list, found := strings.Cut(r.Member, "(")
	list = strings.TrimSuffix(list, ")")
	if !found || list == "" {
		return nil
	}
	return strings.Split(list, ",")
}

func (r ResolvedReference) String() string {
	var sb strings.Builder
	if r.Module != "" {
		sb.WriteString(r.Module)
		sb.WriteByte('/')
	}
	switch {
	case r.Class != "":
		sb.WriteString(r.QualifiedClassName())
	default:
		sb.WriteString(r.Package)
	}
	if r.Member != "" {
		sb.WriteByte('#')
		sb.WriteString(r.Member)
	}
	return sb.String()
}
