package classfile_test

import (
	"bytes"
	"testing"

	"github.com/dhamidi/plugintools/classfile"
	"github.com/dhamidi/plugintools/classfile/classfiletest"
)

func sampleClass() classfiletest.Class {
	return classfiletest.Class{
		Name:       "org.example.MyMojo",
		Super:      "org.example.AbstractMojo",
		Interfaces: []string{"java.lang.Runnable"},
		SourceFile: "MyMojo.java",
		Annotations: []classfiletest.Annotation{{
			Type:      "org.apache.maven.plugins.annotations.Mojo",
			Invisible: true,
			Values: []classfiletest.Element{
				{Name: "name", Value: "touch"},
				{Name: "threadSafe", Value: true},
				{Name: "defaultPhase", Value: classfiletest.Enum{Type: "org.apache.maven.plugins.annotations.LifecyclePhase", Name: "PROCESS_SOURCES"}},
			},
		}},
		Fields: []classfiletest.Field{
			{Access: classfile.AccPublic | classfile.AccStatic | classfile.AccFinal, Name: "LIMIT", Descriptor: "I", ConstantValue: int32(42)},
			{Access: classfile.AccPrivate, Name: "big", Descriptor: "J", ConstantValue: int64(1 << 40)},
			{Access: classfile.AccPrivate, Name: "outputDirectory", Descriptor: "Ljava/io/File;", Deprecated: true,
				Annotations: []classfiletest.Annotation{{
					Type:      "org.apache.maven.plugins.annotations.Parameter",
					Invisible: true,
					Values: []classfiletest.Element{
						{Name: "property", Value: "outputDir"},
						{Name: "required", Value: true},
					},
				}}},
		},
		Methods: []classfiletest.Method{
			{Access: classfile.AccPublic, Name: "<init>", Descriptor: "()V"},
			{Access: classfile.AccPublic, Name: "setItems", Descriptor: "([Ljava/lang/String;)V"},
		},
		InnerClasses: []classfiletest.InnerClass{
			{Name: "org.example.MyMojo$Item", Outer: "org.example.MyMojo", Simple: "Item", Access: classfile.AccPublic | classfile.AccStatic},
		},
	}
}

func TestParseClassFile(t *testing.T) {
	cf, err := classfile.Parse(bytes.NewReader(sampleClass().Bytes()))
	if err != nil {
		t.Fatalf("Failed to parse class file: %v", err)
	}

	t.Run("names", func(t *testing.T) {
		if got := cf.ClassName(); got != "org.example.MyMojo" {
			t.Errorf("ClassName() = %q", got)
		}
		if got := cf.SuperClassName(); got != "org.example.AbstractMojo" {
			t.Errorf("SuperClassName() = %q", got)
		}
		if got := cf.InterfaceNames(); len(got) != 1 || got[0] != "java.lang.Runnable" {
			t.Errorf("InterfaceNames() = %v", got)
		}
		if cf.SourceFile != "MyMojo.java" {
			t.Errorf("SourceFile = %q", cf.SourceFile)
		}
	})

	t.Run("constant values", func(t *testing.T) {
		limit := cf.GetField("LIMIT")
		if limit == nil {
			t.Fatal("expected LIMIT field")
		}
		if !limit.AccessFlags.IsStatic() || !limit.AccessFlags.IsFinal() {
			t.Error("LIMIT should be static final")
		}
		if v, ok := limit.ConstantValue.(int32); !ok || v != 42 {
			t.Errorf("LIMIT = %#v, want int32(42)", limit.ConstantValue)
		}
		big := cf.GetField("big")
		if v, ok := big.ConstantValue.(int64); !ok || v != 1<<40 {
			t.Errorf("big = %#v", big.ConstantValue)
		}
	})

	t.Run("class annotation", func(t *testing.T) {
		mojo := cf.Annotation("org.apache.maven.plugins.annotations.Mojo")
		if mojo == nil {
			t.Fatal("expected @Mojo")
		}
		if mojo.Visible {
			t.Error("expected invisible annotation")
		}
		if name, _ := mojo.StringValue("name"); name != "touch" {
			t.Errorf("name = %q", name)
		}
		if ts, ok := mojo.BoolValue("threadSafe"); !ok || !ts {
			t.Errorf("threadSafe = %v, %v", ts, ok)
		}
		if phase, _ := mojo.StringValue("defaultPhase"); phase != "PROCESS_SOURCES" {
			t.Errorf("defaultPhase = %q", phase)
		}
		if mojo.TypeName() != "org.apache.maven.plugins.annotations.Mojo" {
			t.Errorf("TypeName() = %q", mojo.TypeName())
		}
	})

	t.Run("field annotation", func(t *testing.T) {
		f := cf.GetField("outputDirectory")
		if !f.Deprecated {
			t.Error("expected deprecated field")
		}
		param := f.Annotation("org.apache.maven.plugins.annotations.Parameter")
		if param == nil {
			t.Fatal("expected @Parameter")
		}
		if got := param.Names; len(got) != 2 || got[0] != "property" {
			t.Errorf("Names = %v", got)
		}
		if ft := f.FieldType(); ft.String() != "java.io.File" {
			t.Errorf("FieldType() = %q", ft.String())
		}
	})

	t.Run("methods", func(t *testing.T) {
		setters := cf.GetMethods("setItems")
		if len(setters) != 1 {
			t.Fatalf("expected 1 setter, got %d", len(setters))
		}
		md := setters[0].MethodDescriptor()
		if md == nil || len(md.Parameters) != 1 || md.ReturnType != nil {
			t.Fatalf("unexpected descriptor %+v", md)
		}
		if got := md.Parameters[0].String(); got != "java.lang.String[]" {
			t.Errorf("parameter = %q", got)
		}
	})

	t.Run("inner classes", func(t *testing.T) {
		if len(cf.InnerClasses) != 1 || cf.InnerClasses[0].SimpleName != "Item" {
			t.Errorf("InnerClasses = %+v", cf.InnerClasses)
		}
	})
}

func TestParseInvalidMagic(t *testing.T) {
	_, err := classfile.Parse(bytes.NewReader([]byte{0xDE, 0xAD, 0xBE, 0xEF}))
	if err == nil {
		t.Fatal("expected error for invalid magic")
	}
}

func TestParseTruncated(t *testing.T) {
	data := sampleClass().Bytes()
	_, err := classfile.Parse(bytes.NewReader(data[:len(data)/2]))
	if err == nil {
		t.Fatal("expected error for truncated class file")
	}
}

func TestParseFieldDescriptor(t *testing.T) {
	tests := []struct {
		desc string
		want string
		prim bool
	}{
		{"I", "int", true},
		{"[[I", "int[][]", false},
		{"Ljava/util/Map$Entry;", "java.util.Map$Entry", false},
		{"[Ljava/lang/String;", "java.lang.String[]", false},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			ft := classfile.ParseFieldDescriptor(tt.desc)
			if ft == nil {
				t.Fatalf("ParseFieldDescriptor(%q) = nil", tt.desc)
			}
			if ft.String() != tt.want {
				t.Errorf("String() = %q, want %q", ft.String(), tt.want)
			}
			if ft.IsPrimitive() != tt.prim {
				t.Errorf("IsPrimitive() = %v", ft.IsPrimitive())
			}
		})
	}
	if classfile.ParseFieldDescriptor("Ljava/lang/String") != nil {
		t.Error("expected nil for unterminated descriptor")
	}
}

func TestIsLocalOrAnonymous(t *testing.T) {
	tests := map[string]bool{
		"a/B":        false,
		"a/B$C":      false,
		"a/B$1":      true,
		"a/B$1Local": true,
	}
	for name, want := range tests {
		if got := classfile.IsLocalOrAnonymous(name); got != want {
			t.Errorf("IsLocalOrAnonymous(%q) = %v, want %v", name, got, want)
		}
	}
}
