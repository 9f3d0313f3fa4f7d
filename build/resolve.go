package build

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dhamidi/plugintools/converter"
	"github.com/dhamidi/plugintools/docsite"
	"github.com/dhamidi/plugintools/java/javadoc"
)

var ErrClassNotFound = errors.New("class not found")

// Resolution is a reference resolved in the context of a class.
type Resolution struct {
	Reference javadoc.ResolvedReference
	// URL is empty when no javadoc site documents the reference.
	URL string
	// Value is the constant of a static final field.
	Value string
}

// Resolve resolves reference as if it appeared in the javadoc of
// className. The engine runs up to loaded sources; no descriptors are
// built.
func (s *Session) Resolve(ctx context.Context, className, reference string) (*Resolution, error) {
	ref, err := javadoc.ParseReference(reference)
	if err != nil {
		return nil, err
	}
	links, err := s.Links(ctx)
	if err != nil {
		return nil, err
	}
	deps, _, err := s.Dependencies(ctx)
	if err != nil {
		return nil, err
	}
	engine, err := s.NewEngine(ctx, deps, links)
	if err != nil {
		return nil, err
	}
	defer engine.Close()
	if err := engine.ScanAnnotations(ctx); err != nil {
		return nil, err
	}
	if err := engine.LoadSources(ctx); err != nil {
		return nil, err
	}

	class, ok := engine.Index().Lookup(className)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrClassNotFound, className)
	}
	cctx := converter.NewClassContext(class, engine.Index(), converter.ClassContextOptions{
		Goals:        engine.Hierarchy().GoalNames(),
		Links:        links,
		ValidateLink: s.ValidateLink(ctx),
		Line:         class.Line,
	})
	resolved, err := cctx.ResolveReference(ref)
	if err != nil {
		return nil, err
	}
	r := &Resolution{Reference: resolved}
	if resolved.MemberType == javadoc.MemberField {
		if v, err := cctx.StaticFieldValue(resolved); err == nil {
			r.Value = v
		} else {
			log.Debugf("%s has no constant value: %s", resolved, err)
		}
	}
	u, err := cctx.URL(resolved)
	switch {
	case err == nil:
		r.URL = u.String()
	case errors.Is(err, converter.ErrNoLinkGenerator):
	default:
		log.Warningf("%s: %s", cctx.Location(), err)
	}
	return r, nil
}

// LinkFor creates the URL of a binary class name, or of a fully qualified
// reference such as "java.util.List#add(int,java.lang.Object)". internal
// marks the reference as part of the scanned sources.
func LinkFor(links *docsite.LinkGenerator, target string, internal bool) (*url.URL, error) {
	if links == nil {
		return nil, converter.ErrNoLinkGenerator
	}
	if !strings.ContainsAny(target, "#/") {
		if internal {
			pkg, class, err := docsite.SplitBinaryName(target)
			if err != nil {
				return nil, err
			}
			return links.CreateLink(javadoc.ResolvedReference{Package: pkg, Class: class})
		}
		return links.CreateClassLink(target)
	}

	ref, err := javadoc.ParseReference(target)
	if err != nil {
		return nil, err
	}
	resolved := javadoc.ResolvedReference{Module: ref.Module, External: !internal}
	if ref.Path != "" {
		if resolved.Package, resolved.Class, err = docsite.SplitBinaryName(ref.Path); err != nil {
			return nil, err
		}
	}
	if ref.Member != "" {
		resolved.Member = strings.Join(strings.Fields(ref.Member), "")
		resolved.MemberType = javadoc.MemberField
		if strings.Contains(ref.Member, "(") {
			resolved.MemberType = javadoc.MemberMethod
			if ref.MemberName() == resolved.Class[strings.LastIndexByte(resolved.Class, '.')+1:] {
				resolved.MemberType = javadoc.MemberConstructor
			}
		}
	}
	if err := resolved.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", docsite.ErrInvalidReference, err)
	}
	return links.CreateLink(resolved)
}

// SiteStatus is the outcome of probing one javadoc site.
type SiteStatus struct {
	URL      string
	Internal bool
	Site     *docsite.Site
	Err      error
}

// CheckSites loads the internal and every external site and reports each
// one, in configured order.
func (s *Session) CheckSites(ctx context.Context) []SiteStatus {
	jd := s.Config.Javadoc
	var statuses []SiteStatus
	if jd.InternalURL != "" {
		site, err := docsite.NewOfflineSite(jd.InternalURL, cmp.Or(jd.InternalVersion, DefaultJavadocVersion))
		statuses = append(statuses, SiteStatus{URL: jd.InternalURL, Internal: true, Site: site, Err: err})
	}

	external := make([]SiteStatus, len(jd.ExternalURLs))
	g, gctx := errgroup.WithContext(ctx)
	for i, raw := range jd.ExternalURLs {
		g.Go(func() error {
			site, err := docsite.LoadSite(gctx, s.Client, raw)
			external[i] = SiteStatus{URL: raw, Site: site, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return append(statuses, external...)
}
