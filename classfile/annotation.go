package classfile

import (
	"bytes"
	"fmt"
)

// Annotation is a decoded annotation. Element values are Go values:
// bool, int32, int64, float32, float64, rune, string, EnumValue,
// ClassValue, Annotation or []any for arrays.
type Annotation struct {
	// Type is the field descriptor of the annotation interface.
	Type    string
	Visible bool
	Values  map[string]any
	// Names lists element names in declaration order.
	Names []string
}

type EnumValue struct {
	Type string
	Name string
}

// ClassValue holds a class literal as a return descriptor, e.g. "Ljava/lang/String;".
type ClassValue string

// TypeName returns the binary name of the annotation type.
func (a *Annotation) TypeName() string {
	if ft := ParseFieldDescriptor(a.Type); ft != nil {
		return ft.String()
	}
	return a.Type
}

func (a *Annotation) Has(name string) bool {
	_, ok := a.Values[name]
	return ok
}

func (a *Annotation) StringValue(name string) (string, bool) {
	switch v := a.Values[name].(type) {
	case string:
		return v, true
	case EnumValue:
		return v.Name, true
	case ClassValue:
		if ft := ParseFieldDescriptor(string(v)); ft != nil {
			return ft.String(), true
		}
		return string(v), true
	}
	return "", false
}

func (a *Annotation) BoolValue(name string) (bool, bool) {
	v, ok := a.Values[name].(bool)
	return v, ok
}

func parseAnnotations(info []byte, cp ConstantPool, visible bool) ([]Annotation, error) {
	r := &reader{r: bytes.NewReader(info)}
	count := r.readU2()
	anns := make([]Annotation, 0, count)
	for i := uint16(0); i < count; i++ {
		ann, err := readAnnotation(r, cp)
		if err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
		ann.Visible = visible
		anns = append(anns, ann)
	}
	return anns, nil
}

func readAnnotation(r *reader, cp ConstantPool) (Annotation, error) {
	ann := Annotation{
		Type:   cp.GetUtf8(r.readU2()),
		Values: map[string]any{},
	}
	pairs := r.readU2()
	for i := uint16(0); i < pairs; i++ {
		name := cp.GetUtf8(r.readU2())
		value, err := readElementValue(r, cp)
		if err != nil {
			return ann, fmt.Errorf("element %s: %w", name, err)
		}
		ann.Values[name] = value
		ann.Names = append(ann.Names, name)
	}
	return ann, r.err
}

func readElementValue(r *reader, cp ConstantPool) (any, error) {
	tag := r.readU1()
	if r.err != nil {
		return nil, r.err
	}
	switch tag {
	case 'B', 'I', 'S':
		return cp.getInt(r.readU2()), r.err
	case 'C':
		return rune(cp.getInt(r.readU2())), r.err
	case 'Z':
		return cp.getInt(r.readU2()) != 0, r.err
	case 'J', 'F', 'D':
		return cp.GetConstant(r.readU2())
	case 's':
		return cp.GetUtf8(r.readU2()), r.err
	case 'e':
		typ := cp.GetUtf8(r.readU2())
		return EnumValue{Type: typ, Name: cp.GetUtf8(r.readU2())}, r.err
	case 'c':
		return ClassValue(cp.GetUtf8(r.readU2())), r.err
	case '@':
		return readAnnotation(r, cp)
	case '[':
		n := r.readU2()
		values := make([]any, 0, n)
		for i := uint16(0); i < n; i++ {
			v, err := readElementValue(r, cp)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return values, r.err
	}
	return nil, fmt.Errorf("unknown element value tag %q", tag)
}
