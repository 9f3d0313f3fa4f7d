package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gobwas/glob"

	"github.com/dhamidi/plugintools/java"
	"github.com/dhamidi/plugintools/metrics"
	"github.com/dhamidi/plugintools/pom"
)

const (
	VariantAnnotations = "java-annotations"
	VariantJavadoc     = "java-javadoc"
)

// DefaultInclude selects every class file.
const DefaultInclude = "**.class"

// Packages of the Maven 3 and Maven 4 plugin annotations.
var annotationPackages = []string{
	"org.apache.maven.plugins.annotations",
	"org.apache.maven.api.plugin.annotations",
}

// Source produces scanned class records for one kind of goal metadata.
type Source interface {
	Name() string
	Scan(ctx context.Context) ([]*ScannedClass, error)
}

// Dependency is a resolved jar of the plugin's class path.
type Dependency struct {
	Coordinate pom.Coordinate
	Path       string
}

type AnnotationScannerOptions struct {
	ClassesDirs []string
	// Dependencies are scanned for ancestors only; goals declared in them
	// are ignored.
	Dependencies []Dependency
	// Include holds glob patterns matched against slash separated class
	// file paths. Empty means DefaultInclude.
	Include []string
}

// AnnotationScanner reads goal metadata from the invisible annotations of
// compiled classes.
type AnnotationScanner struct {
	opts    AnnotationScannerOptions
	include []glob.Glob
}

func NewAnnotationScanner(opts AnnotationScannerOptions) (*AnnotationScanner, error) {
	patterns := opts.Include
	if len(patterns) == 0 {
		patterns = []string{DefaultInclude}
	}
	s := &AnnotationScanner{opts: opts}
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("compile include pattern %q: %w", p, err)
		}
		s.include = append(s.include, g)
	}
	return s, nil
}

func (s *AnnotationScanner) Name() string {
	return VariantAnnotations
}

// Scan reads the dependencies first and the classes directories last, so
// that the plugin's own classes win over equally named dependency classes.
func (s *AnnotationScanner) Scan(ctx context.Context) ([]*ScannedClass, error) {
	byName := map[string]int{}
	var out []*ScannedClass
	record := func(sc *ScannedClass) {
		if i, ok := byName[sc.Name]; ok {
			out[i] = sc
			return
		}
		byName[sc.Name] = len(out)
		out = append(out, sc)
	}

	for _, dep := range s.opts.Dependencies {
		coord := dep.Coordinate
		err := s.walk(ctx, dep.Path, func(sc *ScannedClass) {
			sc.Artifact = &coord
			sc.Mojo = nil
			record(sc)
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warningf("cannot scan dependency %s: %s", coord, err)
		}
	}
	for _, dir := range s.opts.ClassesDirs {
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			log.Warningf("classes directory %s does not exist, skipped", dir)
			continue
		}
		if err := s.walk(ctx, dir, record); err != nil {
			return nil, fmt.Errorf("scan %s: %w", dir, err)
		}
	}
	return out, nil
}

func (s *AnnotationScanner) walk(ctx context.Context, root string, visit func(*ScannedClass)) error {
	return java.WalkClasses(root, func(name string, r io.Reader) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !s.accepts(name) {
			return nil
		}
		model, err := java.ClassModelFromReader(r)
		if err != nil {
			metrics.ClassesScanned.WithLabelValues("error").Inc()
			log.Warningf("skipping broken class file %s in %s: %s", name, root, err)
			return nil
		}
		metrics.ClassesScanned.WithLabelValues("ok").Inc()
		visit(scanClassFile(model))
		return nil
	})
}

// accepts applies the [^-]+\.class file name rule, which drops
// module-info and package-info, and the include patterns.
func (s *AnnotationScanner) accepts(name string) bool {
	base := path.Base(name)
	if !strings.HasSuffix(base, ".class") || strings.Contains(base, "-") || base == ".class" {
		return false
	}
	for _, g := range s.include {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func scanClassFile(model *java.ClassModel) *ScannedClass {
	sc := &ScannedClass{
		Name:       model.Name,
		SuperClass: model.SuperClass,
		Model:      model,
		Variant:    VariantAnnotations,
	}
	if sc.SuperClass == "java.lang.Object" {
		sc.SuperClass = ""
	}
	if a, ok := pluginAnnotation(model.Annotations, "Mojo"); ok {
		sc.Mojo = mojoFromAnnotation(model, a)
	}
	if a, ok := pluginAnnotation(model.Annotations, "Execute"); ok {
		sc.Execute = &Execute{
			Phase:     enumID(stringValue(a, "phase")),
			Goal:      stringValue(a, "goal"),
			Lifecycle: stringValue(a, "lifecycle"),
		}
	}

	for i := range model.Fields {
		f := &model.Fields[i]
		if a, ok := pluginAnnotation(f.Annotations, "Parameter"); ok {
			pf := parameterFromAnnotation(a)
			pf.FieldName = f.Name
			pf.Type = f.Type.String()
			pf.IsDeprecated = f.IsDeprecated
			pf.Line = f.Line
			sc.Parameters = append(sc.Parameters, pf)
		}
		if a, ok := pluginAnnotation(f.Annotations, "Component"); ok {
			role := stringValue(a, "role")
			if role == "" || role == "java.lang.Object" {
				role = f.Type.String()
			}
			sc.Components = append(sc.Components, &ComponentField{
				FieldName:    f.Name,
				Type:         f.Type.String(),
				Role:         role,
				Hint:         stringValue(a, "hint"),
				IsDeprecated: f.IsDeprecated,
				Line:         f.Line,
			})
		}
	}

	for i := range model.Methods {
		m := &model.Methods[i]
		a, ok := pluginAnnotation(m.Annotations, "Parameter")
		if !ok {
			continue
		}
		if !isSetter(m) {
			log.Warningf("ignoring @Parameter on %s.%s: not a public setter taking one argument", model.Name, m.Name)
			continue
		}
		pf := parameterFromAnnotation(a)
		pf.FieldName = setterProperty(m.Name)
		pf.Type = m.Parameters[0].Type.String()
		pf.Setter = true
		pf.IsDeprecated = m.IsDeprecated
		pf.Line = m.Line
		sc.Parameters = append(sc.Parameters, pf)
	}
	return sc
}

func pluginAnnotation(anns []java.AnnotationModel, simpleName string) (java.AnnotationModel, bool) {
	for _, pkg := range annotationPackages {
		for _, a := range anns {
			if a.Type == pkg+"."+simpleName {
				return a, true
			}
		}
	}
	return java.AnnotationModel{}, false
}

func mojoFromAnnotation(model *java.ClassModel, a java.AnnotationModel) *MojoDescriptor {
	m := newMojoDescriptor(model)
	m.Goal = stringValue(a, "name")
	m.DefaultPhase = enumID(stringValue(a, "defaultPhase"))
	m.RequiresDependencyResolution = enumID(stringValue(a, "requiresDependencyResolution"))
	m.RequiresDependencyCollection = enumID(stringValue(a, "requiresDependencyCollection"))
	if s := enumID(stringValue(a, "instantiationStrategy")); s != "" {
		m.InstantiationStrategy = s
	}
	if s := stringValue(a, "executionStrategy"); s != "" {
		m.ExecutionStrategy = s
	}
	m.Configurator = stringValue(a, "configurator")
	m.RequiresProject = boolValue(a, "requiresProject", true)
	m.RequiresReports = boolValue(a, "requiresReports", false)
	m.Aggregator = boolValue(a, "aggregator", false)
	m.RequiresDirectInvocation = boolValue(a, "requiresDirectInvocation", false)
	m.RequiresOnline = boolValue(a, "requiresOnline", false)
	m.InheritedByDefault = boolValue(a, "inheritByDefault", true)
	m.ThreadSafe = boolValue(a, "threadSafe", false)
	m.IsDeprecated = model.IsDeprecated
	return m
}

func parameterFromAnnotation(a java.AnnotationModel) *ParameterField {
	return &ParameterField{
		Name:           stringValue(a, "name"),
		Alias:          stringValue(a, "alias"),
		Property:       stringValue(a, "property"),
		DefaultValue:   stringValue(a, "defaultValue"),
		Implementation: stringValue(a, "implementation"),
		Required:       boolValue(a, "required", false),
		Readonly:       boolValue(a, "readonly", false),
	}
}

func stringValue(a java.AnnotationModel, name string) string {
	s, _ := a.StringValue(name)
	return s
}

func boolValue(a java.AnnotationModel, name string, def bool) bool {
	if v, ok := a.BoolValue(name); ok {
		return v
	}
	return def
}

// enumID turns enum constants such as PROCESS_SOURCES,
// COMPILE_PLUS_RUNTIME or PER_LOOKUP into the ids written to descriptors.
// NONE has no id.
func enumID(constant string) string {
	if i := strings.LastIndexByte(constant, '.'); i >= 0 {
		constant = constant[i+1:]
	}
	if constant == "" || constant == "NONE" {
		return ""
	}
	id := strings.ReplaceAll(constant, "_PLUS_", "+")
	return strings.ToLower(strings.ReplaceAll(id, "_", "-"))
}

func isSetter(m *java.MethodModel) bool {
	return m.Visibility == java.VisibilityPublic && !m.IsStatic && !m.IsConstructor &&
		len(m.Name) > 3 && (strings.HasPrefix(m.Name, "set") || strings.HasPrefix(m.Name, "add")) &&
		m.ReturnType.IsVoid() && len(m.Parameters) == 1
}

func setterProperty(method string) string {
	rest := method[3:]
	r, size := utf8.DecodeRuneInString(rest)
	return string(unicode.ToLower(r)) + rest[size:]
}
