package converter

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/plugintools/docsite"
	"github.com/dhamidi/plugintools/java"
	"github.com/dhamidi/plugintools/java/javadoc"
)

const testPkg = "org.example.test"

var fixtureSources = map[string]string{
	"src/main/java/org/example/test/CurrentClass.java": `package org.example.test;

import java.util.Collection;
import org.example.test.other.OtherClassOtherPackage;
import org.example.test.other.*;

/**
 * Current class.
 */
public class CurrentClass extends SuperClass implements Marker {
    public String field1;
    public String shared;

    public CurrentClass() {}

    public void noParamMethod() {}
    public void simpleParamMethod(Integer value) {}
    public void complexParamMethod(int value1, OtherClassOtherPackage.EmbeddedEnum value2) {}
    public void arrayParamMethod(int[] a, String[][][] b) {}
    public void genericsParamMethod(Collection<String> something, java.util.function.BiConsumer<String, String> function) {}
    public void overloaded(String s) {}
    public void overloaded(int i) {}

    public static class Nested {
        public int nestedField;
    }
}
`,
	"src/main/java/org/example/test/SuperClass.java": `package org.example.test;
public class SuperClass {
    protected String superField1;
    protected String shared;
}
`,
	"src/main/java/org/example/test/Marker.java": `package org.example.test;
public interface Marker {
    String MARKER = "marker";
}
`,
	"src/main/java/org/example/test/OtherClass.java": `package org.example.test;
public class OtherClass {
    public static final String STATIC_1 = "STATIC 1";
    public static final long STATIC_3 = 3l;
    public String field1;
}
`,
	"src/main/java/org/example/test/Helper.java": `package org.example.test;
public class Helper {}
`,
	"src/main/java/org/example/test/other/Helper.java": `package org.example.test.other;
public class Helper {}
`,
	"src/main/java/org/example/test/other/OtherClassOtherPackage.java": `package org.example.test.other;
public class OtherClassOtherPackage {
    public String field1;
    public enum EmbeddedEnum { A, B }
}
`,
}

func fixtureIndex(t *testing.T) *java.Index {
	t.Helper()
	ix := java.NewIndex(nil)
	for path, src := range fixtureSources {
		models, err := java.ParseSource(context.Background(), path, []byte(src))
		require.NoError(t, err, path)
		ix.Add(models...)
	}
	return ix
}

func fixtureContext(t *testing.T, opts ClassContextOptions) (*ClassContext, *java.Index) {
	t.Helper()
	ix := fixtureIndex(t)
	current, ok := ix.Lookup(testPkg + ".CurrentClass")
	require.True(t, ok)
	if opts.Line == 0 {
		opts.Line = 10
	}
	return NewClassContext(current, ix, opts), ix
}

func resolve(t *testing.T, ctx Context, raw string) (javadoc.ResolvedReference, error) {
	t.Helper()
	ref, err := javadoc.ParseReference(raw)
	require.NoError(t, err, raw)
	return ctx.ResolveReference(ref)
}

func TestResolveReferenceClasses(t *testing.T) {
	ctx, _ := fixtureContext(t, ClassContextOptions{})

	for _, raw := range []string{"org.example.InvalidClass", "InvalidClass"} {
		_, err := resolve(t, ctx, raw)
		assert.ErrorIs(t, err, ErrUnresolvableReference, raw)
	}

	tests := map[string]javadoc.ResolvedReference{
		"org.example.test.OtherClass":         {Package: testPkg, Class: "OtherClass"},
		"OtherClass":                          {Package: testPkg, Class: "OtherClass"},
		"org.example.test":                    {Package: testPkg},
		"String":                              {Package: "java.lang", Class: "String", External: true},
		"OtherClassOtherPackage.EmbeddedEnum": {Package: testPkg + ".other", Class: "OtherClassOtherPackage.EmbeddedEnum"},
		"Helper":                              {Package: testPkg, Class: "Helper"},
		"OtherClass label text":               {Package: testPkg, Class: "OtherClass", Label: "label text"},
	}
	for raw, want := range tests {
		got, err := resolve(t, ctx, raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
}

func TestResolveReferenceMembers(t *testing.T) {
	ctx, _ := fixtureContext(t, ClassContextOptions{})

	method := func(class, member string) javadoc.ResolvedReference {
		return javadoc.ResolvedReference{Package: testPkg, Class: class, Member: member, MemberType: javadoc.MemberMethod}
	}
	field := func(class, member string) javadoc.ResolvedReference {
		return javadoc.ResolvedReference{Package: testPkg, Class: class, Member: member, MemberType: javadoc.MemberField}
	}

	tests := []struct {
		raw  string
		want javadoc.ResolvedReference
	}{
		{"#field1", field("CurrentClass", "field1")},
		{"#shared", field("CurrentClass", "shared")},
		{"#nestedField", field("CurrentClass.Nested", "nestedField")},
		{"#superField1", field("SuperClass", "superField1")},
		{"#noParamMethod()", method("CurrentClass", "noParamMethod()")},
		{"#noParamMethod", method("CurrentClass", "noParamMethod()")},
		{"#simpleParamMethod(Integer)", method("CurrentClass", "simpleParamMethod(java.lang.Integer)")},
		{"#simpleParamMethod(Integer value)", method("CurrentClass", "simpleParamMethod(java.lang.Integer)")},
		{"#complexParamMethod(int value1, OtherClassOtherPackage.EmbeddedEnum value2)",
			method("CurrentClass", "complexParamMethod(int,org.example.test.other.OtherClassOtherPackage.EmbeddedEnum)")},
		{"#arrayParamMethod(int[], String[][][])", method("CurrentClass", "arrayParamMethod(int[],java.lang.String[][][])")},
		{"#genericsParamMethod(Collection something, java.util.function.BiConsumer function)",
			method("CurrentClass", "genericsParamMethod(java.util.Collection,java.util.function.BiConsumer)")},
		{"#overloaded", method("CurrentClass", "overloaded(java.lang.String)")},
		{"#overloaded(int)", method("CurrentClass", "overloaded(int)")},
		{"OtherClass#field1", field("OtherClass", "field1")},
		{"#CurrentClass()", javadoc.ResolvedReference{Package: testPkg, Class: "CurrentClass", Member: "CurrentClass()", MemberType: javadoc.MemberConstructor}},
	}
	for _, tt := range tests {
		got, err := resolve(t, ctx, tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}

	_, err := resolve(t, ctx, "#genericsParamMethod(Collection something, BiConsumer function)")
	assert.ErrorIs(t, err, ErrUnresolvableReference)

	_, err = resolve(t, ctx, "#missing")
	assert.ErrorIs(t, err, ErrUnresolvableReference)
}

func TestIsReferencedBy(t *testing.T) {
	ctx, _ := fixtureContext(t, ClassContextOptions{})

	assert.True(t, ctx.IsReferencedBy(javadoc.ResolvedReference{Package: testPkg, Class: "CurrentClass"}))
	assert.True(t, ctx.IsReferencedBy(javadoc.ResolvedReference{Package: testPkg, Class: "SuperClass"}))
	assert.True(t, ctx.IsReferencedBy(javadoc.ResolvedReference{Package: testPkg, Class: "SuperClass", Member: "superField1", MemberType: javadoc.MemberField}))
	assert.True(t, ctx.IsReferencedBy(javadoc.ResolvedReference{Package: testPkg, Class: "Marker", Member: "MARKER", MemberType: javadoc.MemberField}))
	assert.False(t, ctx.IsReferencedBy(javadoc.ResolvedReference{Package: testPkg, Class: "OtherClass"}))
	assert.False(t, ctx.IsReferencedBy(javadoc.ResolvedReference{Package: testPkg}))

	assert.Equal(t, testPkg, ctx.PackageName())
	assert.Equal(t, "src/main/java/org/example/test/CurrentClass.java:10", ctx.Location())
}

func TestStaticFieldValue(t *testing.T) {
	ctx, _ := fixtureContext(t, ClassContextOptions{})
	ref := func(member string) javadoc.ResolvedReference {
		return javadoc.ResolvedReference{Package: testPkg, Class: "OtherClass", Member: member, MemberType: javadoc.MemberField}
	}

	v, err := ctx.StaticFieldValue(ref("STATIC_1"))
	require.NoError(t, err)
	assert.Equal(t, `"STATIC 1"`, v)

	v, err = ctx.StaticFieldValue(ref("STATIC_3"))
	require.NoError(t, err)
	assert.Equal(t, "3l", v)

	_, err = ctx.StaticFieldValue(ref("field1"))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = ctx.StaticFieldValue(ref("missing"))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = ctx.StaticFieldValue(javadoc.ResolvedReference{Package: testPkg})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestClassContextURL(t *testing.T) {
	site, err := docsite.NewOfflineSite("http://localhost/apidocs", "11")
	require.NoError(t, err)
	links, err := docsite.NewLinkGenerator(site, nil)
	require.NoError(t, err)
	ctx, _ := fixtureContext(t, ClassContextOptions{
		Links: links,
		Goals: map[string]string{testPkg + ".OtherClass": "other-goal"},
	})

	urlOf := func(ref javadoc.ResolvedReference) string {
		t.Helper()
		u, err := ctx.URL(ref)
		require.NoError(t, err, ref.String())
		return u.String()
	}

	assert.Equal(t, "#field1", urlOf(javadoc.ResolvedReference{Package: testPkg, Class: "CurrentClass", Member: "field1", MemberType: javadoc.MemberField}))
	assert.Equal(t, "http://localhost/apidocs/org/example/test/other/OtherClassOtherPackage.html#field1",
		urlOf(javadoc.ResolvedReference{Package: testPkg + ".other", Class: "OtherClassOtherPackage", Member: "field1", MemberType: javadoc.MemberField}))
	assert.Equal(t, "./other-goal-mojo.html#field1",
		urlOf(javadoc.ResolvedReference{Package: testPkg, Class: "OtherClass", Member: "field1", MemberType: javadoc.MemberField}))
	assert.Equal(t, "./other-goal-mojo.html",
		urlOf(javadoc.ResolvedReference{Package: testPkg, Class: "OtherClass"}))
	assert.Equal(t, "http://localhost/apidocs/org/example/test/CurrentClass.html#noParamMethod()",
		urlOf(javadoc.ResolvedReference{Package: testPkg, Class: "CurrentClass", Member: "noParamMethod()", MemberType: javadoc.MemberMethod}))
	assert.Equal(t, "http://localhost/apidocs/org/example/test/CurrentClass.html#%3Cinit%3E()",
		urlOf(javadoc.ResolvedReference{Package: testPkg, Class: "CurrentClass", Member: "CurrentClass()", MemberType: javadoc.MemberConstructor}))
	assert.Equal(t, "http://localhost/apidocs/org/example/test/package-summary.html",
		urlOf(javadoc.ResolvedReference{Package: testPkg}))

	base, err := ctx.InternalBaseURL()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/apidocs/", base.String())
}

func TestClassContextValidateLink(t *testing.T) {
	site, err := docsite.NewOfflineSite("http://localhost/apidocs", "11")
	require.NoError(t, err)
	links, err := docsite.NewLinkGenerator(site, nil)
	require.NoError(t, err)
	var checked []string
	ctx, _ := fixtureContext(t, ClassContextOptions{
		Links: links,
		ValidateLink: func(u *url.URL) bool {
			checked = append(checked, u.String())
			return u.Fragment == ""
		},
	})

	_, err = ctx.URL(javadoc.ResolvedReference{Package: testPkg, Class: "CurrentClass", Member: "noParamMethod()", MemberType: javadoc.MemberMethod})
	assert.ErrorIs(t, err, ErrInvalidLink)
	u, err := ctx.URL(javadoc.ResolvedReference{Package: testPkg, Class: "OtherClass"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/apidocs/org/example/test/OtherClass.html", u.String())

	_, err = ctx.URL(javadoc.ResolvedReference{Package: testPkg, Class: "CurrentClass", Member: "field1", MemberType: javadoc.MemberField})
	require.NoError(t, err)
	assert.Len(t, checked, 2, "same page anchors are not validated")

	out := NewInlineConverter().Convert("{@link #noParamMethod()}", ctx)
	assert.Equal(t, "<code>noParamMethod()</code><!-- this link does not have javadoc linked -->", out)
}

func TestClassContextWithoutSites(t *testing.T) {
	ctx, _ := fixtureContext(t, ClassContextOptions{})
	assert.False(t, ctx.CanGetURL())
	_, err := ctx.URL(javadoc.ResolvedReference{Package: testPkg, Class: "OtherClass"})
	assert.ErrorIs(t, err, ErrNoLinkGenerator)
	_, err = ctx.InternalBaseURL()
	assert.ErrorIs(t, err, ErrNoLinkGenerator)
}

func TestAttributesScopedToContext(t *testing.T) {
	ctx, ix := fixtureContext(t, ClassContextOptions{})
	assert.Nil(t, ctx.Attributes().Set("k", 1))
	assert.Equal(t, 1, ctx.Attributes().Set("k", 2))
	assert.Equal(t, 2, ctx.Attributes().Get("k", 0))

	super, _ := ix.Lookup(testPkg + ".SuperClass")
	next := ctx.At(super, 4)
	assert.Equal(t, "missing", next.Attributes().Get("k", "missing"))
	assert.Equal(t, "src/main/java/org/example/test/SuperClass.java:4", next.Location())
	assert.Equal(t, testPkg, next.PackageName())
}

const touchMojoSource = `package org.example.touch;

import java.io.File;
import java.util.*;

public class TouchMojo {
    public void touch(File file) {}
    public void all(List<String> files) {}
}
`

const mixedImportsSource = `package org.example.touch;

import java.awt.*;
import java.util.*;

public class Mixed {}
`

func TestResolveReferenceExternalPackages(t *testing.T) {
	ix := java.NewIndex(nil)
	for path, src := range map[string]string{"TouchMojo.java": touchMojoSource, "Mixed.java": mixedImportsSource} {
		models, err := java.ParseSource(context.Background(), path, []byte(src))
		require.NoError(t, err, path)
		ix.Add(models...)
	}
	documented := map[string]bool{"java.io": true, "java.util": true, "java.awt": true, "java.lang": true}
	ix.SetExternalPackages(func(pkg string) bool { return documented[pkg] })

	touch, ok := ix.Lookup("org.example.touch.TouchMojo")
	require.True(t, ok)
	ctx := NewClassContext(touch, ix, ClassContextOptions{Line: 1})

	file := javadoc.ResolvedReference{Package: "java.io", Class: "File", External: true}
	list := javadoc.ResolvedReference{Package: "java.util", Class: "List", External: true}
	tests := []struct {
		raw  string
		want javadoc.ResolvedReference
	}{
		{"java.io.File", file},
		{"File", file},
		{"java.util.List", list},
		{"List", list},
		{"java.util.Map.Entry", javadoc.ResolvedReference{Package: "java.util", Class: "Map.Entry", External: true}},
		{"java.lang.ProcessBuilder", javadoc.ResolvedReference{Package: "java.lang", Class: "ProcessBuilder", External: true}},
		{"ProcessBuilder", javadoc.ResolvedReference{Package: "java.lang", Class: "ProcessBuilder", External: true}},
		{"java.util", javadoc.ResolvedReference{Package: "java.util", External: true}},
		{"File#exists()", javadoc.ResolvedReference{Package: "java.io", Class: "File", Member: "exists()", MemberType: javadoc.MemberMethod, External: true}},
		{"File#separator", javadoc.ResolvedReference{Package: "java.io", Class: "File", Member: "separator", MemberType: javadoc.MemberField, External: true}},
		{"File#File(String)", javadoc.ResolvedReference{Package: "java.io", Class: "File", Member: "File(java.lang.String)", MemberType: javadoc.MemberConstructor, External: true}},
		{"#touch(File)", javadoc.ResolvedReference{Package: "org.example.touch", Class: "TouchMojo", Member: "touch(java.io.File)", MemberType: javadoc.MemberMethod}},
		{"#all(List)", javadoc.ResolvedReference{Package: "org.example.touch", Class: "TouchMojo", Member: "all(java.util.List)", MemberType: javadoc.MemberMethod}},
	}
	for _, tt := range tests {
		got, err := resolve(t, ctx, tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}

	for _, raw := range []string{"org.other.Thing", "java.lang.Thing", "#touch(String)"} {
		_, err := resolve(t, ctx, raw)
		assert.ErrorIs(t, err, ErrUnresolvableReference, raw)
	}

	mixed, ok := ix.Lookup("org.example.touch.Mixed")
	require.True(t, ok)
	_, err := resolve(t, NewClassContext(mixed, ix, ClassContextOptions{}), "List")
	assert.ErrorIs(t, err, ErrUnresolvableReference, "List is in java.awt and java.util")
}

func TestResolveReferenceConstructorAfterMethods(t *testing.T) {
	ix := java.NewIndex(nil)
	models, err := java.ParseSource(context.Background(), "Odd.java", []byte(`package org.example;
public class Odd {
    public Odd(int size) {}
    public void Odd(String name) {}
}
`))
	require.NoError(t, err)
	ix.Add(models...)
	odd, ok := ix.Lookup("org.example.Odd")
	require.True(t, ok)
	ctx := NewClassContext(odd, ix, ClassContextOptions{})

	got, err := resolve(t, ctx, "#Odd(int)")
	require.NoError(t, err)
	assert.Equal(t, javadoc.ResolvedReference{Package: "org.example", Class: "Odd", Member: "Odd(int)", MemberType: javadoc.MemberConstructor}, got)

	got, err = resolve(t, ctx, "#Odd(String)")
	require.NoError(t, err)
	assert.Equal(t, javadoc.MemberMethod, got.MemberType)
}
