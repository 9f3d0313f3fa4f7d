package classfile

import "fmt"

// constant is a single decoded constant pool slot. Only the kinds needed to
// describe declarations are kept; reference and dynamic entries are recorded
// by tag alone.
type constant struct {
	tag   ConstantTag
	utf8  string
	index uint16
	value any
}

type ConstantPool []constant

func (cp ConstantPool) entry(index uint16) (constant, bool) {
	if index == 0 || int(index) > len(cp) {
		return constant{}, false
	}
	return cp[index-1], true
}

func (cp ConstantPool) GetUtf8(index uint16) string {
	if e, ok := cp.entry(index); ok && e.tag == ConstantUtf8 {
		return e.utf8
	}
	return ""
}

func (cp ConstantPool) GetClassName(index uint16) string {
	if e, ok := cp.entry(index); ok && e.tag == ConstantClass {
		return cp.GetUtf8(e.index)
	}
	return ""
}

func (cp ConstantPool) GetString(index uint16) string {
	if e, ok := cp.entry(index); ok && e.tag == ConstantString {
		return cp.GetUtf8(e.index)
	}
	return ""
}

// GetConstant returns the Go value of a loadable constant: int32, int64,
// float32, float64 or string.
func (cp ConstantPool) GetConstant(index uint16) (any, error) {
	e, ok := cp.entry(index)
	if !ok {
		return nil, fmt.Errorf("constant pool index %d out of range", index)
	}
	switch e.tag {
	case ConstantInteger, ConstantLong, ConstantFloat, ConstantDouble:
		return e.value, nil
	case ConstantString:
		return cp.GetUtf8(e.index), nil
	case ConstantUtf8:
		return e.utf8, nil
	}
	return nil, fmt.Errorf("constant pool index %d has non-loadable tag %d", index, e.tag)
}

func (cp ConstantPool) getInt(index uint16) int32 {
	if e, ok := cp.entry(index); ok && e.tag == ConstantInteger {
		return e.value.(int32)
	}
	return 0
}
