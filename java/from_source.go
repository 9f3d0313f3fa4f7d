package java

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tsjava "github.com/smacker/go-tree-sitter/java"
)

// SourceParser extracts class models from Java source files using
// tree-sitter. A SourceParser is not safe for concurrent use.
type SourceParser struct {
	parser *sitter.Parser
}

func NewSourceParser() *SourceParser {
	p := sitter.NewParser()
	p.SetLanguage(tsjava.GetLanguage())
	return &SourceParser{parser: p}
}

func (p *SourceParser) Close() {
	p.parser.Close()
}

func (p *SourceParser) ParseFile(ctx context.Context, path string) ([]*ClassModel, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return p.Parse(ctx, path, content)
}

// Parse returns the top level classes of a compilation unit followed by
// their nested classes, depth first.
func (p *SourceParser) Parse(ctx context.Context, path string, content []byte) ([]*ClassModel, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	u := &compilationUnit{content: content, path: path, file: filepath.Base(path)}
	root := tree.RootNode()
	var models []*ClassModel
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "package_declaration":
			u.pkg = u.qualifiedName(child)
		case "import_declaration":
			u.imports = append(u.imports, u.importDecl(child))
		default:
			if _, ok := declarationKinds[child.Type()]; ok {
				models = append(models, u.typeDecl(child, nil)...)
			}
		}
	}
	return models, nil
}

// ParseSource is a convenience wrapper around a throwaway SourceParser.
func ParseSource(ctx context.Context, path string, content []byte) ([]*ClassModel, error) {
	p := NewSourceParser()
	defer p.Close()
	return p.Parse(ctx, path, content)
}

var declarationKinds = map[string]ClassKind{
	"class_declaration":           ClassKindClass,
	"interface_declaration":       ClassKindInterface,
	"enum_declaration":            ClassKindEnum,
	"record_declaration":          ClassKindRecord,
	"annotation_type_declaration": ClassKindAnnotation,
}

type compilationUnit struct {
	content []byte
	path    string
	file    string
	pkg     string
	imports []Import
}

func (u *compilationUnit) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(u.content)
}

func (u *compilationUnit) qualifiedName(decl *sitter.Node) string {
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		child := decl.NamedChild(i)
		if child.Type() == "scoped_identifier" || child.Type() == "identifier" {
			return u.text(child)
		}
	}
	return ""
}

func (u *compilationUnit) importDecl(decl *sitter.Node) Import {
	imp := Import{Name: u.qualifiedName(decl)}
	for i := 0; i < int(decl.ChildCount()); i++ {
		switch decl.Child(i).Type() {
		case "static":
			imp.Static = true
		case "asterisk":
			imp.Wildcard = true
		}
	}
	return imp
}

func (u *compilationUnit) typeDecl(node *sitter.Node, outer *ClassModel) []*ClassModel {
	simple := u.text(node.ChildByFieldName("name"))
	model := &ClassModel{
		SimpleName: simple,
		Package:    u.pkg,
		Kind:       declarationKinds[node.Type()],
		Visibility: VisibilityPackage,
		Imports:    u.imports,
		SourceFile: u.file,
		SourcePath: u.path,
		Line:       int(node.StartPoint().Row) + 1,
		Javadoc:    u.javadoc(node),
		FromSource: true,
	}
	switch {
	case outer != nil:
		model.Name = outer.Name + "." + simple
		model.BinaryName = outer.BinaryName + "$" + simple
		model.Outer = outer.Name
		outer.NestedClasses = append(outer.NestedClasses, model.Name)
		if outer.Kind == ClassKindInterface || model.Kind != ClassKindClass {
			model.IsStatic = true
		}
	case u.pkg != "":
		model.Name = u.pkg + "." + simple
		model.BinaryName = model.Name
	default:
		model.Name = simple
		model.BinaryName = simple
	}

	mods := u.modifiers(node)
	model.Visibility = mods.visibility
	model.IsAbstract = mods.has("abstract") || model.Kind == ClassKindInterface
	model.IsStatic = model.IsStatic || mods.has("static")
	model.Annotations = mods.annotations
	model.IsDeprecated = mods.deprecated()

	if super := node.ChildByFieldName("superclass"); super != nil && super.NamedChildCount() > 0 {
		model.SuperClass = u.typeModel(super.NamedChild(0)).Name
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "super_interfaces" || child.Type() == "extends_interfaces" {
			model.Interfaces = append(model.Interfaces, u.typeList(child)...)
		}
	}

	if model.Kind == ClassKindRecord {
		if params := node.ChildByFieldName("parameters"); params != nil {
			for _, p := range u.parameters(params) {
				model.Fields = append(model.Fields, FieldModel{
					Name:       p.Name,
					Type:       p.Type,
					Visibility: VisibilityPrivate,
					IsFinal:    true,
					Line:       model.Line,
				})
			}
		}
	}

	nested := u.members(node.ChildByFieldName("body"), model)
	return append([]*ClassModel{model}, nested...)
}

func (u *compilationUnit) typeList(n *sitter.Node) []string {
	var names []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "type_list" {
			names = append(names, u.typeList(child)...)
			continue
		}
		names = append(names, u.typeModel(child).Name)
	}
	return names
}

func (u *compilationUnit) members(body *sitter.Node, model *ClassModel) []*ClassModel {
	if body == nil {
		return nil
	}
	var nested []*ClassModel
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		switch child.Type() {
		case "field_declaration", "constant_declaration":
			model.Fields = append(model.Fields, u.fields(child, model)...)
		case "method_declaration", "annotation_type_element_declaration":
			model.Methods = append(model.Methods, u.method(child, model))
		case "constructor_declaration", "compact_constructor_declaration":
			ctor := u.method(child, model)
			ctor.IsConstructor = true
			ctor.Name = model.SimpleName
			ctor.ReturnType = TypeModel{}
			model.Methods = append(model.Methods, ctor)
		case "enum_constant":
			model.Fields = append(model.Fields, FieldModel{
				Name:       u.text(child.ChildByFieldName("name")),
				Type:       TypeModel{Name: model.SimpleName},
				Visibility: VisibilityPublic,
				IsStatic:   true,
				IsFinal:    true,
				Javadoc:    u.javadoc(child),
				Line:       int(child.StartPoint().Row) + 1,
			})
		case "enum_body_declarations":
			nested = append(nested, u.members(child, model)...)
		default:
			if _, ok := declarationKinds[child.Type()]; ok {
				nested = append(nested, u.typeDecl(child, model)...)
			}
		}
	}
	return nested
}

func (u *compilationUnit) fields(decl *sitter.Node, owner *ClassModel) []FieldModel {
	mods := u.modifiers(decl)
	typ := u.typeModel(decl.ChildByFieldName("type"))
	implicit := owner.Kind == ClassKindInterface || owner.Kind == ClassKindAnnotation
	javadoc := u.javadoc(decl)

	var fields []FieldModel
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		child := decl.NamedChild(i)
		if child.Type() != "variable_declarator" {
			continue
		}
		t := typ
		t.ArrayDepth += u.dimensions(child.ChildByFieldName("dimensions"))
		f := FieldModel{
			Name:         u.text(child.ChildByFieldName("name")),
			Type:         t,
			Visibility:   mods.visibility,
			IsStatic:     implicit || mods.has("static"),
			IsFinal:      implicit || mods.has("final"),
			IsDeprecated: mods.deprecated(),
			Initializer:  u.text(child.ChildByFieldName("value")),
			Annotations:  mods.annotations,
			Javadoc:      javadoc,
			Line:         int(decl.StartPoint().Row) + 1,
		}
		if implicit {
			f.Visibility = VisibilityPublic
		}
		fields = append(fields, f)
	}
	return fields
}

func (u *compilationUnit) method(decl *sitter.Node, owner *ClassModel) MethodModel {
	mods := u.modifiers(decl)
	m := MethodModel{
		Name:         u.text(decl.ChildByFieldName("name")),
		ReturnType:   u.typeModel(decl.ChildByFieldName("type")),
		Visibility:   mods.visibility,
		IsStatic:     mods.has("static"),
		IsAbstract:   mods.has("abstract"),
		IsDeprecated: mods.deprecated(),
		Annotations:  mods.annotations,
		Javadoc:      u.javadoc(decl),
		Line:         int(decl.StartPoint().Row) + 1,
	}
	if owner.Kind == ClassKindInterface && m.Visibility == VisibilityPackage {
		m.Visibility = VisibilityPublic
	}
	m.ReturnType.ArrayDepth += u.dimensions(decl.ChildByFieldName("dimensions"))
	if params := decl.ChildByFieldName("parameters"); params != nil {
		m.Parameters = u.parameters(params)
		for i := 0; i < int(params.NamedChildCount()); i++ {
			if params.NamedChild(i).Type() == "spread_parameter" {
				m.IsVarargs = true
			}
		}
	}
	return m
}

func (u *compilationUnit) parameters(params *sitter.Node) []ParameterModel {
	var out []ParameterModel
	for i := 0; i < int(params.NamedChildCount()); i++ {
		child := params.NamedChild(i)
		switch child.Type() {
		case "formal_parameter":
			t := u.typeModel(child.ChildByFieldName("type"))
			t.ArrayDepth += u.dimensions(child.ChildByFieldName("dimensions"))
			out = append(out, ParameterModel{Name: u.text(child.ChildByFieldName("name")), Type: t})
		case "spread_parameter":
			var p ParameterModel
			for j := 0; j < int(child.NamedChildCount()); j++ {
				part := child.NamedChild(j)
				switch part.Type() {
				case "modifiers":
				case "variable_declarator":
					p.Name = u.text(part.ChildByFieldName("name"))
				default:
					if p.Type.Name == "" {
						p.Type = u.typeModel(part)
					}
				}
			}
			p.Type.ArrayDepth++
			out = append(out, p)
		}
	}
	return out
}

func (u *compilationUnit) dimensions(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	return strings.Count(u.text(n), "[")
}

// typeModel returns the erasure of a type as written.
func (u *compilationUnit) typeModel(n *sitter.Node) TypeModel {
	if n == nil {
		return TypeModel{}
	}
	switch n.Type() {
	case "array_type":
		t := u.typeModel(n.ChildByFieldName("element"))
		t.ArrayDepth += u.dimensions(n.ChildByFieldName("dimensions"))
		return t
	case "generic_type":
		if n.NamedChildCount() > 0 {
			return u.typeModel(n.NamedChild(0))
		}
	case "annotated_type":
		if c := n.NamedChildCount(); c > 0 {
			return u.typeModel(n.NamedChild(int(c) - 1))
		}
	case "scoped_type_identifier":
		return TypeModel{Name: eraseTypeArguments(u.text(n))}
	}
	return TypeModel{Name: strings.TrimSpace(u.text(n))}
}

// eraseTypeArguments drops <...> groups and whitespace, so that
// "Outer<String>.Inner" becomes "Outer.Inner".
func eraseTypeArguments(s string) string {
	var sb strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>':
			depth--
		case depth == 0 && r != ' ' && r != '\t' && r != '\n' && r != '\r':
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func (u *compilationUnit) javadoc(n *sitter.Node) string {
	prev := n.PrevNamedSibling()
	if prev == nil {
		return ""
	}
	if prev.Type() != "block_comment" && prev.Type() != "comment" {
		return ""
	}
	text := u.text(prev)
	if !strings.HasPrefix(text, "/**") || text == "/**/" {
		return ""
	}
	return text
}

type modifierSet struct {
	keywords    map[string]bool
	visibility  Visibility
	annotations []AnnotationModel
}

func (m modifierSet) has(keyword string) bool {
	return m.keywords[keyword]
}

func (m modifierSet) deprecated() bool {
	for _, a := range m.annotations {
		if a.Type == "Deprecated" || a.Type == "java.lang.Deprecated" {
			return true
		}
	}
	return false
}

func (u *compilationUnit) modifiers(decl *sitter.Node) modifierSet {
	set := modifierSet{keywords: map[string]bool{}, visibility: VisibilityPackage}
	for i := 0; i < int(decl.ChildCount()); i++ {
		mods := decl.Child(i)
		if mods.Type() != "modifiers" {
			continue
		}
		for j := 0; j < int(mods.ChildCount()); j++ {
			child := mods.Child(j)
			switch child.Type() {
			case "marker_annotation", "annotation":
				set.annotations = append(set.annotations, u.annotation(child))
			default:
				set.keywords[u.text(child)] = true
			}
		}
	}
	switch {
	case set.keywords["public"]:
		set.visibility = VisibilityPublic
	case set.keywords["protected"]:
		set.visibility = VisibilityProtected
	case set.keywords["private"]:
		set.visibility = VisibilityPrivate
	}
	return set
}

func (u *compilationUnit) annotation(n *sitter.Node) AnnotationModel {
	a := AnnotationModel{Type: u.text(n.ChildByFieldName("name")), Values: map[string]any{}}
	args := n.ChildByFieldName("arguments")
	if args == nil {
		return a
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		child := args.NamedChild(i)
		if child.Type() == "element_value_pair" {
			a.Values[u.text(child.ChildByFieldName("key"))] = u.elementValue(child.ChildByFieldName("value"))
			continue
		}
		a.Values["value"] = u.elementValue(child)
	}
	return a
}

func (u *compilationUnit) elementValue(n *sitter.Node) any {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "string_literal":
		text := u.text(n)
		if s, err := strconv.Unquote(text); err == nil {
			return s
		}
		return strings.Trim(text, `"`)
	case "true":
		return true
	case "false":
		return false
	case "element_value_array_initializer":
		var values []any
		for i := 0; i < int(n.NamedChildCount()); i++ {
			values = append(values, u.elementValue(n.NamedChild(i)))
		}
		return values
	case "marker_annotation", "annotation":
		return u.annotation(n)
	}
	return u.text(n)
}
