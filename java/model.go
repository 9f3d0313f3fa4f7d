// Package java models the declarations of Java classes as read from class
// files or source files, and indexes them for hierarchy walks and name
// resolution.
package java

import "strings"

type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityProtected Visibility = "protected"
	VisibilityPrivate   Visibility = "private"
	VisibilityPackage   Visibility = "package"
)

type ClassKind string

const (
	ClassKindClass      ClassKind = "class"
	ClassKindInterface  ClassKind = "interface"
	ClassKindEnum       ClassKind = "enum"
	ClassKindAnnotation ClassKind = "annotation"
	ClassKindRecord     ClassKind = "record"
)

type ClassModel struct {
	// Name is the canonical name with nested classes joined by '.'.
	Name string
	// BinaryName joins nested classes with '$'.
	BinaryName string
	SimpleName string
	Package    string
	// Outer is the canonical name of the enclosing class, if any.
	Outer        string
	Kind         ClassKind
	Visibility   Visibility
	IsAbstract   bool
	IsStatic     bool
	IsDeprecated bool
	// SuperClass and Interfaces are fully qualified for class file models
	// and as written for source models.
	SuperClass    string
	Interfaces    []string
	Imports       []Import
	NestedClasses []string
	Fields        []FieldModel
	Methods       []MethodModel
	Annotations   []AnnotationModel
	Javadoc       string
	SourceFile    string
	// SourcePath is the path the source model was parsed from.
	SourcePath string
	Line       int
	FromSource bool
}

type Import struct {
	Name     string
	Wildcard bool
	Static   bool
}

type FieldModel struct {
	Name         string
	Type         TypeModel
	Visibility   Visibility
	IsStatic     bool
	IsFinal      bool
	IsDeprecated bool
	// Initializer is the initializer expression exactly as written in source.
	Initializer string
	// ConstantValue comes from a class file ConstantValue attribute.
	ConstantValue any
	Annotations   []AnnotationModel
	Javadoc       string
	Line          int
}

type MethodModel struct {
	Name          string
	IsConstructor bool
	ReturnType    TypeModel
	Parameters    []ParameterModel
	Visibility    Visibility
	IsStatic      bool
	IsAbstract    bool
	IsVarargs     bool
	IsDeprecated  bool
	Annotations   []AnnotationModel
	Javadoc       string
	Line          int
}

type ParameterModel struct {
	Name string
	Type TypeModel
}

type TypeModel struct {
	Name       string
	ArrayDepth int
}

func (t TypeModel) String() string {
	return t.Name + strings.Repeat("[]", t.ArrayDepth)
}

func (t TypeModel) IsPrimitive() bool {
	return t.ArrayDepth == 0 && IsPrimitive(t.Name)
}

func (t TypeModel) IsVoid() bool {
	return t.Name == "void" && t.ArrayDepth == 0
}

// AnnotationModel values are string, bool, int32, int64, float32, float64,
// rune, AnnotationModel or []any. Enum constants and class literals are
// stored by name. Source models keep the literal text of each value with
// string quotes removed.
type AnnotationModel struct {
	Type   string
	Values map[string]any
}

func (a AnnotationModel) StringValue(name string) (string, bool) {
	v, ok := a.Values[name].(string)
	return v, ok
}

func (a AnnotationModel) BoolValue(name string) (bool, bool) {
	switch v := a.Values[name].(type) {
	case bool:
		return v, true
	case string:
		return v == "true", v == "true" || v == "false"
	}
	return false, false
}

func (c *ClassModel) Annotation(typeName string) (AnnotationModel, bool) {
	return findAnnotation(c.Annotations, typeName)
}

func (f *FieldModel) Annotation(typeName string) (AnnotationModel, bool) {
	return findAnnotation(f.Annotations, typeName)
}

func (m *MethodModel) Annotation(typeName string) (AnnotationModel, bool) {
	return findAnnotation(m.Annotations, typeName)
}

func findAnnotation(anns []AnnotationModel, typeName string) (AnnotationModel, bool) {
	for _, a := range anns {
		if a.Type == typeName {
			return a, true
		}
	}
	return AnnotationModel{}, false
}

func (c *ClassModel) Field(name string) (*FieldModel, bool) {
	for i := range c.Fields {
		if c.Fields[i].Name == name {
			return &c.Fields[i], true
		}
	}
	return nil, false
}

// MethodsNamed returns methods with the given name in declaration order.
// Constructors are never included.
func (c *ClassModel) MethodsNamed(name string) []*MethodModel {
	var methods []*MethodModel
	for i := range c.Methods {
		if !c.Methods[i].IsConstructor && c.Methods[i].Name == name {
			methods = append(methods, &c.Methods[i])
		}
	}
	return methods
}

func (c *ClassModel) Constructors() []*MethodModel {
	var ctors []*MethodModel
	for i := range c.Methods {
		if c.Methods[i].IsConstructor {
			ctors = append(ctors, &c.Methods[i])
		}
	}
	return ctors
}

// IsPrimitive reports whether name is a primitive type keyword.
func IsPrimitive(name string) bool {
	switch name {
	case "boolean", "byte", "char", "short", "int", "long", "float", "double":
		return true
	}
	return false
}

// SplitClassName splits a canonical name at its last dot.
func SplitClassName(fullName string) (pkg, simpleName string) {
	lastDot := strings.LastIndex(fullName, ".")
	if lastDot == -1 {
		return "", fullName
	}
	return fullName[:lastDot], fullName[lastDot+1:]
}
