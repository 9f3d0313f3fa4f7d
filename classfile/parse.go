package classfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

type reader struct {
	r   io.Reader
	err error
}

func (r *reader) readU1() uint8 {
	if r.err != nil {
		return 0
	}
	var buf [1]byte
	_, r.err = io.ReadFull(r.r, buf[:])
	return buf[0]
}

func (r *reader) readU2() uint16 {
	if r.err != nil {
		return 0
	}
	var buf [2]byte
	_, r.err = io.ReadFull(r.r, buf[:])
	return binary.BigEndian.Uint16(buf[:])
}

func (r *reader) readU4() uint32 {
	if r.err != nil {
		return 0
	}
	var buf [4]byte
	_, r.err = io.ReadFull(r.r, buf[:])
	return binary.BigEndian.Uint32(buf[:])
}

func (r *reader) readBytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	buf := make([]byte, n)
	_, r.err = io.ReadFull(r.r, buf)
	return buf
}

func (r *reader) skip(n int) {
	if r.err != nil {
		return
	}
	_, r.err = io.CopyN(io.Discard, r.r, int64(n))
}

func ParseFile(path string) (*ClassFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open class file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func Parse(rd io.Reader) (*ClassFile, error) {
	r := &reader{r: rd}

	magic := r.readU4()
	if r.err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", r.err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("invalid magic number: 0x%X (expected 0xCAFEBABE)", magic)
	}

	cf := &ClassFile{
		MinorVersion: r.readU2(),
		MajorVersion: r.readU2(),
	}
	if r.err != nil {
		return nil, fmt.Errorf("failed to read version: %w", r.err)
	}

	cp, err := readConstantPool(r)
	if err != nil {
		return nil, err
	}
	cf.ConstantPool = cp

	cf.AccessFlags = AccessFlags(r.readU2())
	cf.Name = cp.GetClassName(r.readU2())
	cf.SuperName = cp.GetClassName(r.readU2())
	interfacesCount := r.readU2()
	for i := uint16(0); i < interfacesCount; i++ {
		cf.Interfaces = append(cf.Interfaces, cp.GetClassName(r.readU2()))
	}
	if r.err != nil {
		return nil, fmt.Errorf("failed to read class info: %w", r.err)
	}

	if cf.Fields, err = readMembers(r, cp); err != nil {
		return nil, fmt.Errorf("failed to read fields: %w", err)
	}
	if cf.Methods, err = readMembers(r, cp); err != nil {
		return nil, fmt.Errorf("failed to read methods: %w", err)
	}

	err = readAttributes(r, cp, func(name string, info []byte) error {
		switch name {
		case "SourceFile":
			cf.SourceFile = cp.GetUtf8(u2(info))
		case "Signature":
			cf.Signature = cp.GetUtf8(u2(info))
		case "Deprecated":
			cf.Deprecated = true
		case "InnerClasses":
			inner, err := parseInnerClasses(info, cp)
			if err != nil {
				return err
			}
			cf.InnerClasses = inner
		case "RuntimeVisibleAnnotations", "RuntimeInvisibleAnnotations":
			anns, err := parseAnnotations(info, cp, name == "RuntimeVisibleAnnotations")
			if err != nil {
				return err
			}
			cf.Annotations = append(cf.Annotations, anns...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read class attributes: %w", err)
	}

	return cf, nil
}

func readConstantPool(r *reader) (ConstantPool, error) {
	count := r.readU2()
	if r.err != nil {
		return nil, fmt.Errorf("failed to read constant pool count: %w", r.err)
	}
	if count == 0 {
		return nil, fmt.Errorf("invalid constant pool count 0")
	}

	cp := make(ConstantPool, count-1)
	for i := uint16(1); i < count; i++ {
		tag := ConstantTag(r.readU1())
		c := constant{tag: tag}
		wide := false
		switch tag {
		case ConstantUtf8:
			length := r.readU2()
			c.utf8 = decodeModifiedUtf8(r.readBytes(int(length)))
		case ConstantInteger:
			c.value = int32(r.readU4())
		case ConstantFloat:
			c.value = math.Float32frombits(r.readU4())
		case ConstantLong:
			high, low := r.readU4(), r.readU4()
			c.value = int64(high)<<32 | int64(low)
			wide = true
		case ConstantDouble:
			high, low := r.readU4(), r.readU4()
			c.value = math.Float64frombits(uint64(high)<<32 | uint64(low))
			wide = true
		case ConstantClass, ConstantString:
			c.index = r.readU2()
		default:
			size, ok := operandSize[tag]
			if !ok {
				if r.err != nil {
					return nil, fmt.Errorf("failed to read constant pool entry %d: %w", i, r.err)
				}
				return nil, fmt.Errorf("unknown constant pool tag %d at entry %d", tag, i)
			}
			r.skip(size)
		}
		if r.err != nil {
			return nil, fmt.Errorf("failed to read constant pool entry %d: %w", i, r.err)
		}
		cp[i-1] = c
		if wide {
			// long and double occupy two slots
			i++
		}
	}
	return cp, nil
}

func readMembers(r *reader, cp ConstantPool) ([]Member, error) {
	count := r.readU2()
	if r.err != nil {
		return nil, r.err
	}
	members := make([]Member, 0, count)
	for i := uint16(0); i < count; i++ {
		m := Member{
			AccessFlags: AccessFlags(r.readU2()),
			Name:        cp.GetUtf8(r.readU2()),
			Descriptor:  cp.GetUtf8(r.readU2()),
		}
		err := readAttributes(r, cp, func(name string, info []byte) error {
			switch name {
			case "Signature":
				m.Signature = cp.GetUtf8(u2(info))
			case "Deprecated":
				m.Deprecated = true
			case "ConstantValue":
				v, err := cp.GetConstant(u2(info))
				if err != nil {
					return err
				}
				m.ConstantValue = v
			case "MethodParameters":
				m.ParameterNames = parseMethodParameters(info, cp)
			case "RuntimeVisibleAnnotations", "RuntimeInvisibleAnnotations":
				anns, err := parseAnnotations(info, cp, name == "RuntimeVisibleAnnotations")
				if err != nil {
					return err
				}
				m.Annotations = append(m.Annotations, anns...)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("member %d: %w", i, err)
		}
		members = append(members, m)
	}
	return members, nil
}

func readAttributes(r *reader, cp ConstantPool, visit func(name string, info []byte) error) error {
	count := r.readU2()
	for i := uint16(0); i < count; i++ {
		name := cp.GetUtf8(r.readU2())
		length := r.readU4()
		info := r.readBytes(int(length))
		if r.err != nil {
			return r.err
		}
		if err := visit(name, info); err != nil {
			return fmt.Errorf("attribute %s: %w", name, err)
		}
	}
	return r.err
}

func u2(info []byte) uint16 {
	if len(info) < 2 {
		return 0
	}
	return binary.BigEndian.Uint16(info)
}

func parseInnerClasses(info []byte, cp ConstantPool) ([]InnerClass, error) {
	r := &reader{r: bytes.NewReader(info)}
	count := r.readU2()
	classes := make([]InnerClass, 0, count)
	for i := uint16(0); i < count; i++ {
		classes = append(classes, InnerClass{
			Name:        cp.GetClassName(r.readU2()),
			OuterName:   cp.GetClassName(r.readU2()),
			SimpleName:  cp.GetUtf8(r.readU2()),
			AccessFlags: AccessFlags(r.readU2()),
		})
	}
	return classes, r.err
}

func parseMethodParameters(info []byte, cp ConstantPool) []string {
	r := &reader{r: bytes.NewReader(info)}
	count := r.readU1()
	names := make([]string, 0, count)
	for i := uint8(0); i < count; i++ {
		names = append(names, cp.GetUtf8(r.readU2()))
		r.readU2()
	}
	if r.err != nil {
		return nil
	}
	return names
}

func decodeModifiedUtf8(b []byte) string {
	runes := make([]rune, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c&0x80 == 0:
			runes = append(runes, rune(c))
			i++
		case c&0xE0 == 0xC0 && i+1 < len(b):
			runes = append(runes, rune(c&0x1F)<<6|rune(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0 && i+2 < len(b):
			ch := rune(c&0x0F)<<12 | rune(b[i+1]&0x3F)<<6 | rune(b[i+2]&0x3F)
			if ch >= 0xD800 && ch <= 0xDBFF && i+5 < len(b) && b[i+3] == 0xED {
				low := rune(b[i+3]&0x0F)<<12 | rune(b[i+4]&0x3F)<<6 | rune(b[i+5]&0x3F)
				if low >= 0xDC00 && low <= 0xDFFF {
					runes = append(runes, 0x10000+((ch-0xD800)<<10)+(low-0xDC00))
					i += 6
					continue
				}
			}
			runes = append(runes, ch)
			i += 3
		default:
			runes = append(runes, rune(c))
			i++
		}
	}
	return string(runes)
}
