package converter

import (
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/dhamidi/plugintools/docsite"
	"github.com/dhamidi/plugintools/java"
	"github.com/dhamidi/plugintools/java/javadoc"
	"github.com/dhamidi/plugintools/metrics"
)

// ClassContext resolves references found in the javadoc of a goal class or
// of one of its superclasses.
type ClassContext struct {
	mojoClass *java.ClassModel
	declaring *java.ClassModel
	index     *java.Index
	// goals maps the canonical names of goal classes to their goal names.
	goals    map[string]string
	links    *docsite.LinkGenerator
	validate func(*url.URL) bool
	module   string
	line     int
	attrs    *Attributes
}

type ClassContextOptions struct {
	// Declaring is the class whose comment is converted. It defaults to
	// the goal class.
	Declaring *java.ClassModel
	Goals     map[string]string
	// Links may be nil when no javadoc site is configured.
	Links *docsite.LinkGenerator
	// ValidateLink, if set, rejects javadoc site URLs that do not lead
	// to an existing page or anchor.
	ValidateLink func(*url.URL) bool
	Module       string
	Line         int
}

func NewClassContext(mojoClass *java.ClassModel, index *java.Index, opts ClassContextOptions) *ClassContext {
	declaring := opts.Declaring
	if declaring == nil {
		declaring = mojoClass
	}
	return &ClassContext{
		mojoClass: mojoClass,
		declaring: declaring,
		index:     index,
		goals:     opts.Goals,
		links:     opts.Links,
		validate:  opts.ValidateLink,
		module:    opts.Module,
		line:      opts.Line,
		attrs:     NewAttributes(),
	}
}

// At returns a context for another comment of the same class, with a
// fresh attribute bag.
func (c *ClassContext) At(declaring *java.ClassModel, line int) *ClassContext {
	next := *c
	if declaring != nil {
		next.declaring = declaring
	}
	next.line = line
	next.attrs = NewAttributes()
	return &next
}

func (c *ClassContext) ModuleName() string {
	return c.module
}

func (c *ClassContext) PackageName() string {
	return c.mojoClass.Package
}

func (c *ClassContext) Location() string {
	line := strconv.Itoa(c.line)
	switch {
	case c.declaring.SourcePath != "":
		return filepath.ToSlash(c.declaring.SourcePath) + ":" + line
	case c.declaring.SourceFile != "" && c.declaring.Package != "":
		return strings.ReplaceAll(c.declaring.Package, ".", "/") + "/" + c.declaring.SourceFile + ":" + line
	}
	return c.declaring.Name + ":" + line
}

func (c *ClassContext) Attributes() *Attributes {
	return c.attrs
}

func (c *ClassContext) CanGetURL() bool {
	return c.links != nil
}

func (c *ClassContext) InternalBaseURL() (*url.URL, error) {
	if c.links == nil {
		return nil, ErrNoLinkGenerator
	}
	return c.links.InternalBaseURL()
}

func (c *ClassContext) IsReferencedBy(ref javadoc.ResolvedReference) bool {
	if referencesClass(ref, c.mojoClass.Name) {
		return true
	}
	for _, name := range c.index.Supertypes(c.mojoClass.Name) {
		if referencesClass(ref, name) {
			return true
		}
	}
	return false
}

func referencesClass(ref javadoc.ResolvedReference, canonical string) bool {
	return ref.Class != "" && ref.QualifiedClassName() == canonical
}

// URL links fields of the current class hierarchy to their anchor on the
// goal page, references to other goals to their goal page and everything
// else into a javadoc site.
func (c *ClassContext) URL(ref javadoc.ResolvedReference) (*url.URL, error) {
	if ref.MemberType == javadoc.MemberField && c.IsReferencedBy(ref) {
		return &url.URL{Fragment: ref.Member}, nil
	}
	if goal, ok := c.goals[ref.QualifiedClassName()]; ok && (ref.Label == "" || ref.MemberType == javadoc.MemberField) {
		u := &url.URL{Path: "./" + goal + "-mojo.html"}
		if ref.MemberType == javadoc.MemberField {
			u.Fragment = ref.Member
		}
		return u, nil
	}
	if c.links == nil {
		return nil, ErrNoLinkGenerator
	}
	u, err := c.links.CreateLink(ref)
	if err != nil {
		return nil, err
	}
	if c.validate != nil && !c.validate(u) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLink, u)
	}
	return u, nil
}

func (c *ClassContext) StaticFieldValue(ref javadoc.ResolvedReference) (string, error) {
	className := ref.QualifiedClassName()
	if className == "" {
		return "", fmt.Errorf("%w: %s does not name a class", ErrInvalidArgument, ref)
	}
	if ref.Member == "" {
		return "", fmt.Errorf("%w: %s does not name a member", ErrInvalidArgument, ref)
	}
	class, ok := c.index.Lookup(className)
	if !ok {
		return "", fmt.Errorf("%w: class %s not found", ErrInvalidArgument, className)
	}
	field, ok := class.Field(ref.Member)
	if !ok {
		return "", fmt.Errorf("%w: could not find field with name %s in class %s", ErrInvalidArgument, ref.Member, className)
	}
	if !field.IsStatic {
		return "", fmt.Errorf("%w: field with name %s in class %s is not static", ErrInvalidArgument, ref.Member, className)
	}
	if field.Initializer != "" {
		return field.Initializer, nil
	}
	switch v := field.ConstantValue.(type) {
	case nil:
		return "", fmt.Errorf("%w: field %s in class %s has no constant value", ErrInvalidArgument, ref.Member, className)
	case string:
		return strconv.Quote(v), nil
	default:
		return fmt.Sprint(v), nil
	}
}

// ResolveReference qualifies ref. A reference with a class path is tried
// as a fully qualified name first. A member without class is looked up in
// the declaring class, its nested classes and then its superclasses. A
// class path is otherwise tried in the current package and then against
// java.lang and each import in declaration order.
func (c *ClassContext) ResolveReference(ref javadoc.Reference) (javadoc.ResolvedReference, error) {
	resolved, ok, err := c.resolve(ref)
	if err != nil {
		metrics.ReferencesResolved.WithLabelValues("error").Inc()
		return javadoc.ResolvedReference{}, err
	}
	if !ok {
		metrics.ReferencesResolved.WithLabelValues("unresolved").Inc()
		return javadoc.ResolvedReference{}, fmt.Errorf("%w: could not resolve javadoc reference %s", ErrUnresolvableReference, ref)
	}
	metrics.ReferencesResolved.WithLabelValues("resolved").Inc()
	resolved.Module = ref.Module
	resolved.Label = ref.Label
	return resolved, nil
}

func (c *ClassContext) resolve(ref javadoc.Reference) (javadoc.ResolvedReference, bool, error) {
	if ref.Path != "" {
		if r, ok, err := c.resolveQualified(ref.Path, "", ref, true); ok || err != nil {
			return r, ok, err
		}
	}

	if ref.Path == "" {
		if r, ok, err := c.resolveMember(c.declaring, ref); ok || err != nil {
			return r, ok, err
		}
		for _, name := range c.declaring.NestedClasses {
			nested, found := c.index.Lookup(name)
			if !found {
				continue
			}
			if r, ok, err := c.resolveMember(nested, ref); ok || err != nil {
				return r, ok, err
			}
		}
		chain := c.index.SuperclassChain(c.declaring.Name)
		for _, super := range chain[min(1, len(chain)):] {
			if r, ok, err := c.resolveMember(super, ref); ok || err != nil {
				return r, ok, err
			}
		}
		return javadoc.ResolvedReference{}, false, nil
	}

	if c.declaring.Package != "" {
		if r, ok, err := c.resolveQualified(c.declaring.Package+"."+ref.Path, "", ref, false); ok || err != nil {
			return r, ok, err
		}
	}
	imports := append([]java.Import{{Name: "java.lang", Wildcard: true}}, c.declaring.Imports...)
	for _, imp := range imports {
		if imp.Static {
			continue
		}
		if imp.Wildcard {
			if r, ok, err := c.resolveQualified(imp.Name+"."+ref.Path, "", ref, false); ok || err != nil {
				return r, ok, err
			}
			continue
		}
		if imp.Name == ref.Path || strings.HasSuffix(imp.Name, "."+ref.Path) {
			if r, ok, err := c.resolveQualified(imp.Name, "", ref, true); ok || err != nil {
				return r, ok, err
			}
			continue
		}
		head, rest, nested := strings.Cut(ref.Path, ".")
		if nested && (imp.Name == head || strings.HasSuffix(imp.Name, "."+head)) {
			if r, ok, err := c.resolveQualified(imp.Name, rest, ref, true); ok || err != nil {
				return r, ok, err
			}
		}
	}
	return c.resolveExternal(ref)
}

// resolveExternal accepts the class of ref from the one on demand import
// whose package an external javadoc site documents.
func (c *ClassContext) resolveExternal(ref javadoc.Reference) (javadoc.ResolvedReference, bool, error) {
	var found string
	for _, imp := range c.declaring.Imports {
		if !imp.Wildcard || imp.Static || !c.index.ExternalClass(imp.Name+"."+ref.Path) {
			continue
		}
		if found != "" {
			return javadoc.ResolvedReference{}, false, nil
		}
		found = imp.Name + "." + ref.Path
	}
	if found == "" {
		return javadoc.ResolvedReference{}, false, nil
	}
	return c.resolveQualified(found, "", ref, true)
}

// resolveQualified looks name up as a class, then as a package, and then
// retries with its last segment moved into nested. With external set, a
// class of a package documented by an external site is accepted without
// a model.
func (c *ClassContext) resolveQualified(name, nested string, ref javadoc.Reference, external bool) (javadoc.ResolvedReference, bool, error) {
	if nested == "" {
		if class, bare, ok := c.lookupClass(name, external); ok {
			if bare {
				return c.resolveUnverified(class, ref)
			}
			return c.resolveMember(class, ref)
		}
	} else if class, _, ok := c.lookupClass(name, false); ok {
		if class, ok = c.index.Lookup(class.Name + "." + nested); !ok {
			return javadoc.ResolvedReference{}, false, nil
		}
		return c.resolveMember(class, ref)
	}
	if nested == "" && c.index.HasPackage(name) {
		return javadoc.ResolvedReference{
			Package:  name,
			External: !c.index.LocalPackage(name),
		}, true, nil
	}
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return javadoc.ResolvedReference{}, false, nil
	}
	if nested != "" {
		nested = name[i+1:] + "." + nested
	} else {
		nested = name[i+1:]
	}
	return c.resolveQualified(name[:i], nested, ref, external)
}

// lookupClass finds a class in the index or on the class path. java.lang
// types and, with external set, classes of externally documented packages
// resolve to a bare model without members.
func (c *ClassContext) lookupClass(name string, external bool) (class *java.ClassModel, bare, ok bool) {
	if class, ok := c.index.Lookup(name); ok {
		return class, false, true
	}
	pkg, simple := java.SplitClassName(name)
	switch {
	case c.index.Exists(name):
	case external && c.index.ExternalClass(name):
		pkg, _ = java.PackageOf(name)
	default:
		return nil, false, false
	}
	return &java.ClassModel{Name: name, BinaryName: name, SimpleName: simple, Package: pkg}, true, true
}

// resolveUnverified classifies the member of a class without a model by
// its syntax: a parenthesised member is a method or constructor,
// anything else a field.
func (c *ClassContext) resolveUnverified(class *java.ClassModel, ref javadoc.Reference) (javadoc.ResolvedReference, bool, error) {
	resolved := javadoc.ResolvedReference{
		Package:  class.Package,
		Class:    strings.TrimPrefix(strings.TrimPrefix(class.Name, class.Package), "."),
		External: true,
	}
	if ref.Member == "" {
		return resolved, true, nil
	}
	name := ref.MemberName()
	args, parenthesised := ref.MemberArgs()
	if !parenthesised {
		resolved.Member = name
		resolved.MemberType = javadoc.MemberField
		return resolved, true, nil
	}
	wanted, err := c.argumentTypes(args, ref)
	if err != nil {
		return javadoc.ResolvedReference{}, false, err
	}
	resolved.Member = name + "(" + strings.Join(wanted, ",") + ")"
	resolved.MemberType = javadoc.MemberMethod
	if name == class.SimpleName {
		resolved.MemberType = javadoc.MemberConstructor
	}
	return resolved, true, nil
}

// resolveMember classifies the member of ref within class: a field by
// name, then a method by signature and finally a constructor.
func (c *ClassContext) resolveMember(class *java.ClassModel, ref javadoc.Reference) (javadoc.ResolvedReference, bool, error) {
	resolved := javadoc.ResolvedReference{
		Package:  class.Package,
		Class:    strings.TrimPrefix(strings.TrimPrefix(class.Name, class.Package), "."),
		External: !c.index.Local(class.Name),
	}
	if ref.Member == "" {
		return resolved, true, nil
	}
	if _, ok := class.Field(ref.Member); ok {
		resolved.Member = ref.Member
		resolved.MemberType = javadoc.MemberField
		return resolved, true, nil
	}

	name := ref.MemberName()
	args, parenthesised := ref.MemberArgs()
	var wanted []string
	if parenthesised {
		var err error
		if wanted, err = c.argumentTypes(args, ref); err != nil {
			return javadoc.ResolvedReference{}, false, err
		}
	}

	match := func(candidates []*java.MethodModel, typ javadoc.MemberType) bool {
		for _, m := range candidates {
			params := c.parameterTypes(class, m)
			if parenthesised && !slices.Equal(params, wanted) {
				continue
			}
			resolved.Member = name + "(" + strings.Join(params, ",") + ")"
			resolved.MemberType = typ
			return true
		}
		return false
	}
	if match(class.MethodsNamed(name), javadoc.MemberMethod) {
		return resolved, true, nil
	}
	if name == class.SimpleName && match(class.Constructors(), javadoc.MemberConstructor) {
		return resolved, true, nil
	}
	return javadoc.ResolvedReference{}, false, nil
}

// argumentTypes resolves the argument list of a reference in the import
// context of the declaring class. Argument names are dropped.
func (c *ClassContext) argumentTypes(args []string, ref javadoc.Reference) ([]string, error) {
	types := make([]string, 0, len(args))
	for _, arg := range args {
		typeName, _, _ := strings.Cut(strings.TrimSpace(arg), " ")
		if typeName == "" {
			continue
		}
		raw, dims := splitDimensions(typeName)
		qualified, ok := c.index.ResolveType(c.declaring, raw)
		if !ok {
			return nil, fmt.Errorf("%w: found unresolvable method argument type %s in %s", ErrUnresolvableReference, raw, ref.Member)
		}
		types = append(types, qualified+strings.Repeat("[]", dims))
	}
	return types, nil
}

func (c *ClassContext) parameterTypes(class *java.ClassModel, m *java.MethodModel) []string {
	types := make([]string, len(m.Parameters))
	for i, p := range m.Parameters {
		name := p.Type.Name
		if class.FromSource {
			if qualified, ok := c.index.ResolveType(class, name); ok {
				name = qualified
			}
		}
		types[i] = name + strings.Repeat("[]", p.Type.ArrayDepth)
	}
	return types
}

// splitDimensions strips generic arguments, array brackets and varargs.
func splitDimensions(typeName string) (string, int) {
	if open := strings.IndexByte(typeName, '<'); open >= 0 {
		if end := strings.LastIndexByte(typeName, '>'); end > open {
			typeName = typeName[:open] + typeName[end+1:]
		}
	}
	dims := 0
	if base, ok := strings.CutSuffix(typeName, "..."); ok {
		dims++
		typeName = base
	}
	dims += strings.Count(typeName, "[")
	if i := strings.IndexByte(typeName, '['); i >= 0 {
		typeName = typeName[:i]
	}
	return typeName, dims
}
