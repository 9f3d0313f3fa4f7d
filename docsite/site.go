// Package docsite models javadoc sites: which packages they document, how
// their URLs and anchors are spelled for a given javadoc release, and how
// links are chosen among an internal site and external mirrors.
package docsite

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode"

	"github.com/dhamidi/plugintools/java/javadoc"
)

var (
	ErrUnsupportedToolVersion = errors.New("unsupported javadoc tool version")
	ErrNoCoverage             = errors.New("no javadoc site covers reference")
	ErrInvalidReference       = errors.New("invalid reference")
	ErrNoInternalSite         = errors.New("no internal javadoc site configured")
)

// Site is a javadoc site rooted at a base URL.
type Site struct {
	base       *url.URL
	generation Generation
	offline    bool
	// packages maps each documented package to its module, or to "" for
	// sites without modules. Offline sites leave it nil and cover everything.
	packages map[string]string
}

// NewOfflineSite describes a site generated by this build. It is trusted to
// contain every package.
func NewOfflineSite(baseURL, toolVersion string) (*Site, error) {
	gen, err := GenerationFor(toolVersion)
	if err != nil {
		return nil, err
	}
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Site{base: base, generation: gen, offline: true}, nil
}

// NewSite describes an online site whose package index is already known.
func NewSite(baseURL string, gen Generation, packages map[string]string) (*Site, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if packages == nil {
		packages = map[string]string{}
	}
	return &Site{base: base, generation: gen, packages: packages}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse site url %q: %w", raw, err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u, nil
}

func (s *Site) BaseURL() *url.URL {
	u := *s.base
	return &u
}

func (s *Site) Generation() Generation {
	return s.generation
}

func (s *Site) Offline() bool {
	return s.offline
}

// Packages returns the documented packages in sorted order. It is empty
// for offline sites.
func (s *Site) Packages() []string {
	names := make([]string, 0, len(s.packages))
	for pkg := range s.packages {
		names = append(names, pkg)
	}
	sort.Strings(names)
	return names
}

// Covers reports whether the site documents pkg in module. An empty module
// matches any module and an empty package asks for the module itself.
func (s *Site) Covers(module, pkg string) bool {
	if s.offline {
		return true
	}
	if pkg == "" {
		for _, m := range s.packages {
			if m != "" && m == module {
				return true
			}
		}
		return false
	}
	m, ok := s.packages[pkg]
	return ok && (module == "" || module == m)
}

// CreateLink returns the URL of the page, and anchor if any, documenting ref.
func (s *Site) CreateLink(ref javadoc.ResolvedReference) (*url.URL, error) {
	if !s.Covers(ref.Module, ref.Package) {
		return nil, fmt.Errorf("%w: %s at %s", ErrNoCoverage, ref, s.base)
	}
	page, err := s.pagePath(ref.Module, ref.Package, ref.Class)
	if err != nil {
		return nil, err
	}
	fragment, err := s.fragment(ref)
	if err != nil {
		return nil, err
	}
	return s.base.ResolveReference(&url.URL{Path: page, Fragment: fragment}), nil
}

// CreateClassLink returns the URL of a class page. class is relative to
// pkg with nested classes joined by '.'.
func (s *Site) CreateClassLink(pkg, class string) (*url.URL, error) {
	return s.CreateLink(javadoc.ResolvedReference{Package: pkg, Class: class})
}

func (s *Site) pagePath(module, pkg, class string) (string, error) {
	var sb strings.Builder
	if s.generation == Modern {
		if module == "" {
			module = s.packages[pkg]
		}
		if module != "" {
			sb.WriteString(module)
			sb.WriteByte('/')
		}
	}
	if pkg == "" {
		if s.generation != Modern || module == "" {
			return "", fmt.Errorf("%w: module pages need a modular site", ErrInvalidReference)
		}
		sb.WriteString("module-summary.html")
		return sb.String(), nil
	}
	sb.WriteString(strings.ReplaceAll(pkg, ".", "/"))
	sb.WriteByte('/')
	if class == "" {
		sb.WriteString("package-summary.html")
	} else {
		sb.WriteString(class)
		sb.WriteString(".html")
	}
	return sb.String(), nil
}

func (s *Site) fragment(ref javadoc.ResolvedReference) (string, error) {
	switch ref.MemberType {
	case javadoc.MemberNone:
		return "", nil
	case javadoc.MemberField:
		return ref.Member, nil
	case javadoc.MemberMethod, javadoc.MemberConstructor:
	default:
		return "", fmt.Errorf("%w: unknown member type %v", ErrInvalidReference, ref.MemberType)
	}

	name := ref.MemberName()
	params := ref.MemberParameters()
	if s.generation == Modern {
		if ref.MemberType == javadoc.MemberConstructor {
			name = "<init>"
		}
		return name + "(" + strings.Join(params, ",") + ")", nil
	}
	if ref.MemberType == javadoc.MemberConstructor {
		_, name = splitLast(ref.Class)
	}
	encoded := make([]string, len(params))
	for i, p := range params {
		p = strings.ReplaceAll(p, "...", "[]")
		encoded[i] = strings.ReplaceAll(p, "[]", ":A")
	}
	return name + "-" + strings.Join(encoded, "-") + "-", nil
}

// SplitBinaryName splits a binary class name such as "java.util.Map$Entry"
// into its package and its class name relative to the package, here
// "java.util" and "Map.Entry".
func SplitBinaryName(binaryName string) (pkg, class string, err error) {
	pkg, class = splitLast(binaryName)
	if pkg == "" || class == "" {
		return "", "", fmt.Errorf("%w: %q is not a package qualified class name", ErrInvalidReference, binaryName)
	}
	parts := strings.Split(class, "$")
	for _, part := range parts[1:] {
		if part == "" || unicode.IsDigit(rune(part[0])) {
			return "", "", fmt.Errorf("%w: %q is a local or anonymous class", ErrInvalidReference, binaryName)
		}
	}
	return pkg, strings.Join(parts, "."), nil
}

func splitLast(name string) (string, string) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return "", name
	}
	return name[:i], name[i+1:]
}
