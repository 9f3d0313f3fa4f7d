// Package converter turns javadoc text into XHTML. It resolves doc
// references relative to a class, links them into javadoc sites or goal
// pages and renders inline and block tags.
package converter

import (
	"errors"
	"net/url"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/plugintools/java/javadoc"
)

var log = commonlog.GetLogger("plugintools.converter")

var (
	ErrUnresolvableReference = errors.New("unresolvable javadoc reference")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrNoLinkGenerator       = errors.New("no javadoc sites given to create URLs to")
	ErrInvalidLink           = errors.New("link target does not exist")
)

// Context is what tag converters know about the place a comment was found.
type Context interface {
	// ModuleName is the module of the current class, or "".
	ModuleName() string
	PackageName() string
	// Location is "file:line" for diagnostics.
	Location() string
	ResolveReference(ref javadoc.Reference) (javadoc.ResolvedReference, error)
	// IsReferencedBy reports whether ref names the current class, one of its
	// superclasses or an interface any of them implements.
	IsReferencedBy(ref javadoc.ResolvedReference) bool
	CanGetURL() bool
	URL(ref javadoc.ResolvedReference) (*url.URL, error)
	// StaticFieldValue is the initializer of a static field as written.
	StaticFieldValue(ref javadoc.ResolvedReference) (string, error)
	InternalBaseURL() (*url.URL, error)
	// Attributes is scoped to one conversion pass.
	Attributes() *Attributes
}

// Attributes carries state between the tags of one comment, such as
// whether a "See also" heading was already written.
type Attributes struct {
	values map[string]any
}

func NewAttributes() *Attributes {
	return &Attributes{values: map[string]any{}}
}

// Set stores value and returns the previous value, or nil.
func (a *Attributes) Set(name string, value any) any {
	prev := a.values[name]
	a.values[name] = value
	return prev
}

// Get returns the value stored under name, or def.
func (a *Attributes) Get(name string, def any) any {
	if v, ok := a.values[name]; ok {
		return v
	}
	return def
}

// Reset clears every attribute before the next pass.
func (a *Attributes) Reset() {
	clear(a.values)
}
