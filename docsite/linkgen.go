package docsite

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dhamidi/plugintools/java"
	"github.com/dhamidi/plugintools/java/javadoc"
	"github.com/dhamidi/plugintools/metrics"
)

// LinkGenerator picks the site a reference links into: the internal site
// for references into the scanned sources, otherwise the first external
// site covering the reference.
type LinkGenerator struct {
	internal *Site
	external []*Site
}

// NewLinkGenerator needs an internal site or at least one external site.
// internal may be nil.
func NewLinkGenerator(internal *Site, external []*Site) (*LinkGenerator, error) {
	if internal == nil && len(external) == 0 {
		return nil, errors.New("either an internal or at least one accessible external javadoc site must be given")
	}
	if internal != nil {
		metrics.SitesLoaded.WithLabelValues("internal").Set(1)
	}
	return &LinkGenerator{internal: internal, external: external}, nil
}

func (g *LinkGenerator) Internal() *Site {
	return g.internal
}

func (g *LinkGenerator) External() []*Site {
	return append([]*Site(nil), g.external...)
}

// DocumentsExternalPackage reports whether an online external site lists
// pkg. Offline sites cover every package and are not asked.
func (g *LinkGenerator) DocumentsExternalPackage(pkg string) bool {
	for _, site := range g.external {
		if !site.Offline() && site.Covers("", pkg) {
			return true
		}
	}
	return false
}

// CreateLink returns the URL documenting ref.
func (g *LinkGenerator) CreateLink(ref javadoc.ResolvedReference) (*url.URL, error) {
	if !ref.External && g.internal != nil {
		return g.internal.CreateLink(ref)
	}
	for _, site := range g.external {
		if site.Covers(ref.Module, ref.Package) {
			return site.CreateLink(ref)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoCoverage, ref)
}

// CreateClassLink links a binary class name such as "java.util.Map$Entry"
// or "java.lang.String[]". External sites are preferred; the internal site
// is assumed to document every other package.
func (g *LinkGenerator) CreateClassLink(binaryName string) (*url.URL, error) {
	name := strings.TrimSpace(binaryName)
	for strings.HasSuffix(name, "[]") {
		name = strings.TrimSuffix(name, "[]")
	}
	if java.IsPrimitive(name) || name == "void" {
		return nil, fmt.Errorf("%w: primitive type %q has no javadoc", ErrInvalidReference, binaryName)
	}
	pkg, class, err := SplitBinaryName(name)
	if err != nil {
		return nil, err
	}
	for _, site := range g.external {
		if site.Covers("", pkg) {
			return site.CreateClassLink(pkg, class)
		}
	}
	if g.internal == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoCoverage, binaryName)
	}
	return g.internal.CreateClassLink(pkg, class)
}

// InternalBaseURL is the root of the internal site.
func (g *LinkGenerator) InternalBaseURL() (*url.URL, error) {
	if g.internal == nil {
		return nil, ErrNoInternalSite
	}
	return g.internal.BaseURL(), nil
}
