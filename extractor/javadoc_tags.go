package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/dhamidi/plugintools/java"
	"github.com/dhamidi/plugintools/java/javadoc"
)

// TagScanner reads goal metadata from doc comment tags such as @goal and
// @parameter in source classes.
type TagScanner struct {
	index    *java.Index
	classes  []*java.ClassModel
	comments map[string]*javadoc.Comment
}

// NewTagScanner scans classes, which must be source models. The index is
// used to find superclasses and to qualify field types.
func NewTagScanner(index *java.Index, classes []*java.ClassModel) *TagScanner {
	return &TagScanner{index: index, classes: classes, comments: map[string]*javadoc.Comment{}}
}

func (s *TagScanner) Name() string {
	return VariantJavadoc
}

func (s *TagScanner) Scan(ctx context.Context) ([]*ScannedClass, error) {
	var out []*ScannedClass
	for _, class := range s.classes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if class.Kind != java.ClassKindClass {
			continue
		}
		sc, err := s.scanClass(class)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

func (s *TagScanner) comment(class *java.ClassModel) *javadoc.Comment {
	if c, ok := s.comments[class.Name]; ok {
		return c
	}
	c := javadoc.Parse(class.Javadoc)
	s.comments[class.Name] = c
	return c
}

// hierarchyTag finds the first class of the superclass chain, starting
// with class itself, carrying the tag.
func (s *TagScanner) hierarchyTag(class *java.ClassModel, name string) (javadoc.BlockTag, bool) {
	for _, c := range s.index.SuperclassChain(class.Name) {
		if c.Javadoc == "" {
			continue
		}
		if tag, ok := s.comment(c).Tag(name); ok {
			return tag, true
		}
	}
	return javadoc.BlockTag{}, false
}

func (s *TagScanner) tagValue(class *java.ClassModel, name string) (string, bool) {
	tag, ok := s.hierarchyTag(class, name)
	return strings.TrimSpace(tag.Value), ok
}

// boolTag returns def when the tag is missing and ifEmpty when it has no
// value.
func (s *TagScanner) boolTag(class *java.ClassModel, name string, def, ifEmpty bool) bool {
	v, ok := s.tagValue(class, name)
	switch {
	case !ok:
		return def
	case v == "":
		return ifEmpty
	}
	return v == "true"
}

func (s *TagScanner) scanClass(class *java.ClassModel) (*ScannedClass, error) {
	sc := &ScannedClass{Name: class.Name, Model: class, Variant: VariantJavadoc}
	if super, ok := s.index.SuperClass(class); ok && super != "java.lang.Object" {
		sc.SuperClass = super
	}
	if _, ok := s.comment(class).Tag("goal"); ok {
		mojo, execute, err := s.mojoFromTags(class)
		if err != nil {
			return nil, err
		}
		sc.Mojo, sc.Execute = mojo, execute
	}

	for i := range class.Fields {
		f := &class.Fields[i]
		if f.Javadoc == "" {
			continue
		}
		comment := javadoc.Parse(f.Javadoc)
		if tag, ok := comment.Tag("parameter"); ok {
			pf, err := s.parameterFromTags(class, f, comment, tag)
			if err != nil {
				return nil, err
			}
			sc.Parameters = append(sc.Parameters, pf)
		}
		if tag, ok := comment.Tag("component"); ok {
			sc.Components = append(sc.Components, s.componentFromTags(class, f, comment, tag))
		}
	}
	return sc, nil
}

func (s *TagScanner) mojoFromTags(class *java.ClassModel) (*MojoDescriptor, *Execute, error) {
	m := newMojoDescriptor(class)
	m.Goal, _ = s.tagValue(class, "goal")
	m.DefaultPhase, _ = s.tagValue(class, "phase")
	m.Configurator, _ = s.tagValue(class, "configurator")
	if _, ok := s.hierarchyTag(class, "aggregator"); ok {
		m.Aggregator = true
	}
	m.InheritedByDefault = s.boolTag(class, "inheritByDefault", true, true)
	if v, ok := s.tagValue(class, "instantiationStrategy"); ok && v != "" {
		m.InstantiationStrategy = v
	}
	if _, ok := s.hierarchyTag(class, "attainAlways"); ok {
		log.Warningf("%s: @attainAlways is deprecated, use @executionStrategy always", class.Name)
		m.ExecutionStrategy = "always"
	}
	if v, ok := s.tagValue(class, "executionStrategy"); ok && v != "" {
		m.ExecutionStrategy = v
	}
	if v, ok := s.tagValue(class, "requiresDependencyResolution"); ok {
		if v == "" {
			v = "runtime"
		}
		m.RequiresDependencyResolution = v
	}
	if v, ok := s.tagValue(class, "requiresDependencyCollection"); ok {
		if v == "" {
			v = "runtime"
		}
		m.RequiresDependencyCollection = v
	}
	m.RequiresDirectInvocation = s.boolTag(class, "requiresDirectInvocation", false, false)
	m.RequiresOnline = s.boolTag(class, "requiresOnline", false, false)
	m.RequiresProject = s.boolTag(class, "requiresProject", true, true)
	m.RequiresReports = s.boolTag(class, "requiresReports", false, false)
	m.ThreadSafe = s.boolTag(class, "threadSafe", false, true)
	m.Since, _ = s.tagValue(class, "since")
	if tag, ok := s.comment(class).Tag("deprecated"); ok {
		m.IsDeprecated = true
		m.Deprecated = strings.TrimSpace(tag.Value)
	}

	tag, ok := s.hierarchyTag(class, "execute")
	if !ok {
		return m, nil, nil
	}
	params := javadoc.TagParameters(tag.Value)
	execute := &Execute{Phase: params["phase"], Goal: params["goal"], Lifecycle: params["lifecycle"]}
	if err := validateExecute(execute); err != nil {
		return nil, nil, &DescriptorError{Class: class.Name, Goal: m.Goal, Err: err}
	}
	return m, execute, nil
}

func validateExecute(e *Execute) error {
	switch {
	case e.Phase == "" && e.Goal == "":
		return fmt.Errorf("%w: @execute tag requires a 'phase' or 'goal' parameter", ErrInvalidDescriptor)
	case e.Phase != "" && e.Goal != "":
		return fmt.Errorf("%w: @execute tag can have only one of a 'phase' or 'goal' parameter", ErrInvalidDescriptor)
	case e.Lifecycle != "" && e.Phase == "":
		return fmt.Errorf("%w: @execute lifecycle requires a phase instead of a goal", ErrInvalidDescriptor)
	}
	return nil
}

func (s *TagScanner) fieldType(class *java.ClassModel, f *java.FieldModel) string {
	name := f.Type.Name
	if qualified, ok := s.index.ResolveType(class, name); ok {
		name = qualified
	}
	return name + strings.Repeat("[]", f.Type.ArrayDepth)
}

func (s *TagScanner) parameterFromTags(class *java.ClassModel, f *java.FieldModel, comment *javadoc.Comment, tag javadoc.BlockTag) (*ParameterField, error) {
	params := javadoc.TagParameters(tag.Value)
	pf := &ParameterField{
		FieldName:      f.Name,
		Type:           s.fieldType(class, f),
		Name:           params["name"],
		Alias:          params["alias"],
		Property:       params["property"],
		Expression:     params["expression"],
		DefaultValue:   params["default-value"],
		Implementation: params["implementation"],
		IsDeprecated:   f.IsDeprecated,
		Line:           f.Line,
	}
	_, pf.Required = comment.Tag("required")
	_, pf.Readonly = comment.Tag("readonly")
	if since, ok := comment.Tag("since"); ok {
		pf.Since = strings.TrimSpace(since.Value)
	}
	if deprecated, ok := comment.Tag("deprecated"); ok {
		pf.IsDeprecated = true
		pf.Deprecated = strings.TrimSpace(deprecated.Value)
	}

	location := fmt.Sprintf("%s:%d", class.SourcePath, f.Line)
	switch {
	case pf.Expression != "" && pf.Property != "":
		return nil, &DescriptorError{Class: class.Name, Parameter: f.Name,
			Err: fmt.Errorf("%w: both expression and property are set", ErrInvalidParameter)}
	case strings.HasPrefix(pf.Expression, "${component."):
		log.Warningf("%s: @parameter expression=\"${component.<role>}\" is deprecated, use @component instead", location)
	case pf.Expression != "":
		log.Warningf("%s: @parameter expression is deprecated, use property=%q instead", location, strings.TrimSuffix(strings.TrimPrefix(pf.Expression, "${"), "}"))
	}
	return pf, nil
}

func (s *TagScanner) componentFromTags(class *java.ClassModel, f *java.FieldModel, comment *javadoc.Comment, tag javadoc.BlockTag) *ComponentField {
	params := javadoc.TagParameters(tag.Value)
	cf := &ComponentField{
		FieldName:    f.Name,
		Type:         s.fieldType(class, f),
		Role:         params["role"],
		Hint:         params["roleHint"],
		IsDeprecated: f.IsDeprecated,
		Line:         f.Line,
	}
	if cf.Role == "" {
		cf.Role = cf.Type
	}
	if cf.Hint == "" {
		cf.Hint = params["role-hint"]
	}
	if since, ok := comment.Tag("since"); ok {
		cf.Since = strings.TrimSpace(since.Value)
	}
	if deprecated, ok := comment.Tag("deprecated"); ok {
		cf.IsDeprecated = true
		cf.Deprecated = strings.TrimSpace(deprecated.Value)
	}
	return cf
}
