// Package classfiletest assembles minimal class files for tests, so that
// scanners can be exercised without a Java compiler.
package classfiletest

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhamidi/plugintools/classfile"
)

// Class describes a class file. Names are binary names with '.' separators,
// e.g. "org.example.Outer$Inner".
type Class struct {
	Name         string
	Super        string
	Interfaces   []string
	Access       classfile.AccessFlags
	SourceFile   string
	Deprecated   bool
	Annotations  []Annotation
	Fields       []Field
	Methods      []Method
	InnerClasses []InnerClass
}

type Field struct {
	Access        classfile.AccessFlags
	Name          string
	Descriptor    string
	ConstantValue any
	Deprecated    bool
	Annotations   []Annotation
}

type Method struct {
	Access      classfile.AccessFlags
	Name        string
	Descriptor  string
	Annotations []Annotation
}

type InnerClass struct {
	Name   string
	Outer  string
	Simple string
	Access classfile.AccessFlags
}

// Annotation values may be string, bool, int32, int64, Enum, classfile.ClassValue,
// Annotation or []any.
type Annotation struct {
	Type      string
	Invisible bool
	Values    []Element
}

type Element struct {
	Name  string
	Value any
}

type Enum struct {
	Type string
	Name string
}

type pool struct {
	entries [][]byte
	index   map[string]uint16
	next    uint16
}

func newPool() *pool {
	return &pool{index: map[string]uint16{}, next: 1}
}

func (p *pool) add(key string, entry []byte, slots uint16) uint16 {
	if idx, ok := p.index[key]; ok {
		return idx
	}
	idx := p.next
	p.entries = append(p.entries, entry)
	p.index[key] = idx
	p.next += slots
	return idx
}

func (p *pool) utf8(s string) uint16 {
	var b bytes.Buffer
	b.WriteByte(byte(classfile.ConstantUtf8))
	writeU2(&b, uint16(len(s)))
	b.WriteString(s)
	return p.add("u:"+s, b.Bytes(), 1)
}

func (p *pool) class(binaryName string) uint16 {
	name := classfile.SourceToInternalName(binaryName)
	var b bytes.Buffer
	b.WriteByte(byte(classfile.ConstantClass))
	writeU2(&b, p.utf8(name))
	return p.add("c:"+name, b.Bytes(), 1)
}

func (p *pool) constant(v any) uint16 {
	var b bytes.Buffer
	switch v := v.(type) {
	case int32:
		b.WriteByte(byte(classfile.ConstantInteger))
		writeU4(&b, uint32(v))
		return p.add(fmt.Sprintf("i:%d", v), b.Bytes(), 1)
	case bool:
		if v {
			return p.constant(int32(1))
		}
		return p.constant(int32(0))
	case int64:
		b.WriteByte(byte(classfile.ConstantLong))
		writeU4(&b, uint32(uint64(v)>>32))
		writeU4(&b, uint32(v))
		return p.add(fmt.Sprintf("j:%d", v), b.Bytes(), 2)
	case float64:
		bits := math.Float64bits(v)
		b.WriteByte(byte(classfile.ConstantDouble))
		writeU4(&b, uint32(bits>>32))
		writeU4(&b, uint32(bits))
		return p.add(fmt.Sprintf("d:%v", v), b.Bytes(), 2)
	case string:
		b.WriteByte(byte(classfile.ConstantString))
		writeU2(&b, p.utf8(v))
		return p.add("s:"+v, b.Bytes(), 1)
	}
	panic(fmt.Sprintf("classfiletest: unsupported constant %T", v))
}

// Bytes encodes the class.
func (c Class) Bytes() []byte {
	p := newPool()
	var body bytes.Buffer

	access := c.Access
	if access == 0 {
		access = classfile.AccPublic
	}
	writeU2(&body, uint16(access))
	writeU2(&body, p.class(c.Name))
	super := c.Super
	if super == "" {
		super = "java.lang.Object"
	}
	writeU2(&body, p.class(super))
	writeU2(&body, uint16(len(c.Interfaces)))
	for _, iface := range c.Interfaces {
		writeU2(&body, p.class(iface))
	}

	writeU2(&body, uint16(len(c.Fields)))
	for _, f := range c.Fields {
		writeU2(&body, uint16(f.Access))
		writeU2(&body, p.utf8(f.Name))
		writeU2(&body, p.utf8(f.Descriptor))
		var attrs []attribute
		if f.ConstantValue != nil {
			var info bytes.Buffer
			writeU2(&info, p.constant(f.ConstantValue))
			attrs = append(attrs, attribute{"ConstantValue", info.Bytes()})
		}
		if f.Deprecated {
			attrs = append(attrs, attribute{"Deprecated", nil})
		}
		attrs = append(attrs, annotationAttributes(p, f.Annotations)...)
		writeAttributes(&body, p, attrs)
	}

	writeU2(&body, uint16(len(c.Methods)))
	for _, m := range c.Methods {
		writeU2(&body, uint16(m.Access))
		writeU2(&body, p.utf8(m.Name))
		writeU2(&body, p.utf8(m.Descriptor))
		writeAttributes(&body, p, annotationAttributes(p, m.Annotations))
	}

	var attrs []attribute
	if c.SourceFile != "" {
		var info bytes.Buffer
		writeU2(&info, p.utf8(c.SourceFile))
		attrs = append(attrs, attribute{"SourceFile", info.Bytes()})
	}
	if c.Deprecated {
		attrs = append(attrs, attribute{"Deprecated", nil})
	}
	if len(c.InnerClasses) > 0 {
		var info bytes.Buffer
		writeU2(&info, uint16(len(c.InnerClasses)))
		for _, ic := range c.InnerClasses {
			writeU2(&info, p.class(ic.Name))
			if ic.Outer != "" {
				writeU2(&info, p.class(ic.Outer))
			} else {
				writeU2(&info, 0)
			}
			if ic.Simple != "" {
				writeU2(&info, p.utf8(ic.Simple))
			} else {
				writeU2(&info, 0)
			}
			writeU2(&info, uint16(ic.Access))
		}
		attrs = append(attrs, attribute{"InnerClasses", info.Bytes()})
	}
	attrs = append(attrs, annotationAttributes(p, c.Annotations)...)
	writeAttributes(&body, p, attrs)

	var out bytes.Buffer
	writeU4(&out, classfile.Magic)
	writeU2(&out, 0)
	writeU2(&out, 52)
	writeU2(&out, p.next)
	for _, e := range p.entries {
		out.Write(e)
	}
	out.Write(body.Bytes())
	return out.Bytes()
}

// Write stores the class below dir following the package layout and
// returns the file path.
func (c Class) Write(dir string) (string, error) {
	path := filepath.Join(dir, filepath.FromSlash(classfile.SourceToInternalName(c.Name))+".class")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	return path, os.WriteFile(path, c.Bytes(), 0o644)
}

// WriteJmod stores classes in a jmod file at path: the "JM" magic and
// version bytes followed by a zip with the class files under classes/.
func WriteJmod(path string, classes ...Class) error {
	var buf bytes.Buffer
	buf.Write([]byte{'J', 'M', 1, 0})
	zw := zip.NewWriter(&buf)
	for _, c := range classes {
		w, err := zw.Create("classes/" + classfile.SourceToInternalName(c.Name) + ".class")
		if err != nil {
			return err
		}
		if _, err := w.Write(c.Bytes()); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

type attribute struct {
	name string
	info []byte
}

func writeAttributes(w *bytes.Buffer, p *pool, attrs []attribute) {
	writeU2(w, uint16(len(attrs)))
	for _, a := range attrs {
		writeU2(w, p.utf8(a.name))
		writeU4(w, uint32(len(a.info)))
		w.Write(a.info)
	}
}

func annotationAttributes(p *pool, anns []Annotation) []attribute {
	var visible, invisible []Annotation
	for _, a := range anns {
		if a.Invisible {
			invisible = append(invisible, a)
		} else {
			visible = append(visible, a)
		}
	}
	var attrs []attribute
	for _, group := range []struct {
		name string
		anns []Annotation
	}{
		{"RuntimeVisibleAnnotations", visible},
		{"RuntimeInvisibleAnnotations", invisible},
	} {
		if len(group.anns) == 0 {
			continue
		}
		var info bytes.Buffer
		writeU2(&info, uint16(len(group.anns)))
		for _, a := range group.anns {
			writeAnnotation(&info, p, a)
		}
		attrs = append(attrs, attribute{group.name, info.Bytes()})
	}
	return attrs
}

func writeAnnotation(w *bytes.Buffer, p *pool, a Annotation) {
	writeU2(w, p.utf8(descriptor(a.Type)))
	writeU2(w, uint16(len(a.Values)))
	for _, e := range a.Values {
		writeU2(w, p.utf8(e.Name))
		writeElementValue(w, p, e.Value)
	}
}

func writeElementValue(w *bytes.Buffer, p *pool, v any) {
	switch v := v.(type) {
	case string:
		w.WriteByte('s')
		writeU2(w, p.utf8(v))
	case bool:
		w.WriteByte('Z')
		writeU2(w, p.constant(v))
	case int32:
		w.WriteByte('I')
		writeU2(w, p.constant(v))
	case int64:
		w.WriteByte('J')
		writeU2(w, p.constant(v))
	case Enum:
		w.WriteByte('e')
		writeU2(w, p.utf8(descriptor(v.Type)))
		writeU2(w, p.utf8(v.Name))
	case classfile.ClassValue:
		w.WriteByte('c')
		writeU2(w, p.utf8(string(v)))
	case Annotation:
		w.WriteByte('@')
		writeAnnotation(w, p, v)
	case []any:
		w.WriteByte('[')
		writeU2(w, uint16(len(v)))
		for _, item := range v {
			writeElementValue(w, p, item)
		}
	default:
		panic(fmt.Sprintf("classfiletest: unsupported element value %T", v))
	}
}

// descriptor turns a binary class name into a field descriptor.
func descriptor(binaryName string) string {
	return "L" + strings.ReplaceAll(binaryName, ".", "/") + ";"
}

func writeU2(w *bytes.Buffer, v uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	w.Write(buf[:])
}

func writeU4(w *bytes.Buffer, v uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	w.Write(buf[:])
}
