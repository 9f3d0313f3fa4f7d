package java

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dhamidi/plugintools/classfile"
)

func ClassModelFromFile(path string) (*ClassModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	model, err := ClassModelFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return model, nil
}

func ClassModelFromReader(r io.Reader) (*ClassModel, error) {
	cf, err := classfile.Parse(r)
	if err != nil {
		return nil, err
	}
	return ClassModelFromClassFile(cf), nil
}

func ClassModelFromClassFile(cf *classfile.ClassFile) *ClassModel {
	binaryName := cf.ClassName()
	name := canonicalName(cf)
	pkg := classfile.InternalToSourceName(packageOf(cf.Name))

	model := &ClassModel{
		Name:         name,
		BinaryName:   binaryName,
		SimpleName:   simpleNameOf(name),
		Package:      pkg,
		Kind:         classKindFromClassFile(cf),
		Visibility:   visibilityFromAccessFlags(cf.AccessFlags),
		IsAbstract:   cf.AccessFlags.IsAbstract(),
		SourceFile:   cf.SourceFile,
		IsDeprecated: cf.Deprecated,
		Annotations:  annotationModels(cf.Annotations),
	}
	if cf.SuperName != "" {
		model.SuperClass = strings.ReplaceAll(cf.SuperClassName(), "$", ".")
	}
	for _, iface := range cf.InterfaceNames() {
		model.Interfaces = append(model.Interfaces, strings.ReplaceAll(iface, "$", "."))
	}
	if _, ok := model.Annotation("java.lang.Deprecated"); ok {
		model.IsDeprecated = true
	}

	for _, ic := range cf.InnerClasses {
		switch {
		case ic.Name == cf.Name:
			if ic.OuterName != "" {
				model.Outer = strings.ReplaceAll(classfile.InternalToSourceName(ic.OuterName), "$", ".")
			}
			model.IsStatic = ic.AccessFlags.IsStatic()
			model.Visibility = visibilityFromAccessFlags(ic.AccessFlags)
		case ic.OuterName == cf.Name && ic.SimpleName != "":
			model.NestedClasses = append(model.NestedClasses, name+"."+ic.SimpleName)
		}
	}

	for i := range cf.Fields {
		f := &cf.Fields[i]
		if f.AccessFlags.IsSynthetic() {
			continue
		}
		model.Fields = append(model.Fields, fieldModelFromMember(f))
	}

	for i := range cf.Methods {
		m := &cf.Methods[i]
		if m.AccessFlags.IsSynthetic() || m.AccessFlags.IsBridge() || m.IsStaticInitializer() {
			continue
		}
		model.Methods = append(model.Methods, methodModelFromMember(m, model.SimpleName))
	}

	return model
}

func packageOf(internalName string) string {
	if idx := strings.LastIndexByte(internalName, '/'); idx >= 0 {
		return internalName[:idx]
	}
	return ""
}

func canonicalName(cf *classfile.ClassFile) string {
	binary := cf.ClassName()
	if classfile.IsLocalOrAnonymous(cf.Name) {
		return binary
	}
	for _, ic := range cf.InnerClasses {
		if ic.Name == cf.Name && ic.OuterName != "" && ic.SimpleName != "" {
			outer := classfile.InternalToSourceName(ic.OuterName)
			return strings.ReplaceAll(outer, "$", ".") + "." + ic.SimpleName
		}
	}
	return strings.ReplaceAll(binary, "$", ".")
}

func simpleNameOf(name string) string {
	_, simple := SplitClassName(name)
	return simple
}

func visibilityFromAccessFlags(flags classfile.AccessFlags) Visibility {
	switch {
	case flags.IsPublic():
		return VisibilityPublic
	case flags.IsProtected():
		return VisibilityProtected
	case flags.IsPrivate():
		return VisibilityPrivate
	}
	return VisibilityPackage
}

func classKindFromClassFile(cf *classfile.ClassFile) ClassKind {
	switch {
	case cf.AccessFlags.IsAnnotation():
		return ClassKindAnnotation
	case cf.AccessFlags.IsEnum():
		return ClassKindEnum
	case cf.IsInterface():
		return ClassKindInterface
	case cf.SuperName == "java/lang/Record":
		return ClassKindRecord
	}
	return ClassKindClass
}

func fieldModelFromMember(f *classfile.Member) FieldModel {
	model := FieldModel{
		Name:          f.Name,
		Type:          typeModelFromFieldType(f.FieldType()),
		Visibility:    visibilityFromAccessFlags(f.AccessFlags),
		IsStatic:      f.AccessFlags.IsStatic(),
		IsFinal:       f.AccessFlags.IsFinal(),
		IsDeprecated:  f.Deprecated,
		ConstantValue: f.ConstantValue,
		Annotations:   annotationModels(f.Annotations),
	}
	if _, ok := model.Annotation("java.lang.Deprecated"); ok {
		model.IsDeprecated = true
	}
	return model
}

func methodModelFromMember(m *classfile.Member, simpleName string) MethodModel {
	model := MethodModel{
		Name:         m.Name,
		Visibility:   visibilityFromAccessFlags(m.AccessFlags),
		IsStatic:     m.AccessFlags.IsStatic(),
		IsAbstract:   m.AccessFlags.IsAbstract(),
		IsVarargs:    m.AccessFlags.IsVarargs(),
		IsDeprecated: m.Deprecated,
		Annotations:  annotationModels(m.Annotations),
	}
	if m.IsConstructor() {
		model.IsConstructor = true
		model.Name = simpleName
	}

	desc := m.MethodDescriptor()
	if desc == nil {
		return model
	}
	if desc.ReturnType != nil {
		model.ReturnType = typeModelFromFieldType(desc.ReturnType)
	} else {
		model.ReturnType = TypeModel{Name: "void"}
	}
	for i := range desc.Parameters {
		name := fmt.Sprintf("arg%d", i)
		if i < len(m.ParameterNames) && m.ParameterNames[i] != "" {
			name = m.ParameterNames[i]
		}
		model.Parameters = append(model.Parameters, ParameterModel{
			Name: name,
			Type: typeModelFromFieldType(&desc.Parameters[i]),
		})
	}
	return model
}

func typeModelFromFieldType(ft *classfile.FieldType) TypeModel {
	if ft == nil {
		return TypeModel{Name: "void"}
	}
	name := ft.BaseType
	if name == "" {
		name = strings.ReplaceAll(classfile.InternalToSourceName(ft.ClassName), "$", ".")
	}
	return TypeModel{Name: name, ArrayDepth: ft.ArrayDepth}
}

func annotationModels(anns []classfile.Annotation) []AnnotationModel {
	if len(anns) == 0 {
		return nil
	}
	models := make([]AnnotationModel, 0, len(anns))
	for i := range anns {
		models = append(models, annotationModel(&anns[i]))
	}
	return models
}

func annotationModel(a *classfile.Annotation) AnnotationModel {
	model := AnnotationModel{Type: a.TypeName(), Values: make(map[string]any, len(a.Values))}
	for name, v := range a.Values {
		model.Values[name] = annotationValue(v)
	}
	return model
}

func annotationValue(v any) any {
	switch v := v.(type) {
	case classfile.EnumValue:
		return v.Name
	case classfile.ClassValue:
		if ft := classfile.ParseFieldDescriptor(string(v)); ft != nil {
			return ft.String()
		}
		return string(v)
	case classfile.Annotation:
		return annotationModel(&v)
	case []any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = annotationValue(v[i])
		}
		return out
	}
	return v
}
