// Package classfile reads the declaration level content of JVM class files:
// names, hierarchy, member signatures, constant values and annotations.
// Method bodies are skipped.
package classfile

import "strings"

type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool ConstantPool
	AccessFlags  AccessFlags
	// Internal names use '/' as package separator and '$' for nesting.
	Name         string
	SuperName    string
	Interfaces   []string
	Fields       []Member
	Methods      []Member
	SourceFile   string
	Signature    string
	Deprecated   bool
	Annotations  []Annotation
	InnerClasses []InnerClass
}

// Member is a field or a method.
type Member struct {
	AccessFlags AccessFlags
	Name        string
	Descriptor  string
	Signature   string
	Deprecated  bool
	// ConstantValue is set for fields carrying a ConstantValue attribute.
	ConstantValue any
	Annotations   []Annotation
	// ParameterNames comes from the MethodParameters attribute when present.
	ParameterNames []string
}

type InnerClass struct {
	Name        string
	OuterName   string
	SimpleName  string
	AccessFlags AccessFlags
}

func (cf *ClassFile) ClassName() string {
	return InternalToSourceName(cf.Name)
}

func (cf *ClassFile) SuperClassName() string {
	return InternalToSourceName(cf.SuperName)
}

func (cf *ClassFile) InterfaceNames() []string {
	names := make([]string, len(cf.Interfaces))
	for i, name := range cf.Interfaces {
		names[i] = InternalToSourceName(name)
	}
	return names
}

func (cf *ClassFile) IsInterface() bool {
	return cf.AccessFlags.IsInterface() && !cf.AccessFlags.IsAnnotation()
}

func (cf *ClassFile) GetField(name string) *Member {
	for i := range cf.Fields {
		if cf.Fields[i].Name == name {
			return &cf.Fields[i]
		}
	}
	return nil
}

func (cf *ClassFile) GetMethods(name string) []*Member {
	var methods []*Member
	for i := range cf.Methods {
		if cf.Methods[i].Name == name {
			methods = append(methods, &cf.Methods[i])
		}
	}
	return methods
}

// Annotation returns the first annotation whose type has the given binary
// name (for example "org.apache.maven.plugins.annotations.Mojo").
func (cf *ClassFile) Annotation(binaryName string) *Annotation {
	return findAnnotation(cf.Annotations, binaryName)
}

func (m *Member) Annotation(binaryName string) *Annotation {
	return findAnnotation(m.Annotations, binaryName)
}

func (m *Member) IsConstructor() bool {
	return m.Name == "<init>"
}

func (m *Member) IsStaticInitializer() bool {
	return m.Name == "<clinit>"
}

func (m *Member) FieldType() *FieldType {
	return ParseFieldDescriptor(m.Descriptor)
}

func (m *Member) MethodDescriptor() *MethodDescriptor {
	return ParseMethodDescriptor(m.Descriptor)
}

func findAnnotation(annotations []Annotation, binaryName string) *Annotation {
	desc := "L" + SourceToInternalName(binaryName) + ";"
	for i := range annotations {
		if annotations[i].Type == desc {
			return &annotations[i]
		}
	}
	return nil
}

// IsLocalOrAnonymous reports whether an internal name denotes a class
// declared inside a method body, such as Outer$1 or Outer$1Local.
func IsLocalOrAnonymous(internalName string) bool {
	idx := strings.LastIndexByte(internalName, '$')
	if idx < 0 || idx == len(internalName)-1 {
		return false
	}
	c := internalName[idx+1]
	return c >= '0' && c <= '9'
}
