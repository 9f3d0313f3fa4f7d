package docsite

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/plugintools/java/javadoc"
)

const testPkg = "org.apache.maven.tools.plugin.extractor.annotations.converter.test"

func TestGenerationFor(t *testing.T) {
	tests := map[string]Generation{
		"1.5.0":     Legacy,
		"1.7.0_123": Legacy,
		"1.8":       Mid,
		"1.8.0_345": Mid,
		"9.1.1":     Mid,
		"10":        Modern,
		"11.0.12":   Modern,
		"22":        Modern,
	}
	for version, want := range tests {
		got, err := GenerationFor(version)
		require.NoError(t, err, version)
		assert.Equal(t, want, got, version)
	}
	for _, bad := range []string{"", "next", "  "} {
		_, err := GenerationFor(bad)
		assert.ErrorIs(t, err, ErrUnsupportedToolVersion, bad)
	}
}

func TestSiteCreateLinkFragments(t *testing.T) {
	ctor := javadoc.ResolvedReference{Package: testPkg, Class: "CurrentClass", Member: "CurrentClass()", MemberType: javadoc.MemberConstructor}
	method := javadoc.ResolvedReference{Package: testPkg, Class: "CurrentClass", Member: "arrayParamMethod(int[],java.lang.String[][][])", MemberType: javadoc.MemberMethod}
	noArgs := javadoc.ResolvedReference{Package: testPkg, Class: "CurrentClass", Member: "noParamMethod()", MemberType: javadoc.MemberMethod}
	field := javadoc.ResolvedReference{Package: testPkg, Class: "CurrentClass", Member: "field1", MemberType: javadoc.MemberField}

	tests := []struct {
		version string
		ref     javadoc.ResolvedReference
		want    string
	}{
		{"1.7", ctor, "CurrentClass--"},
		{"1.8", ctor, "CurrentClass--"},
		{"11", ctor, "<init>()"},
		{"1.8", noArgs, "noParamMethod--"},
		{"11", noArgs, "noParamMethod()"},
		{"1.8", method, "arrayParamMethod-int:A-java.lang.String:A:A:A-"},
		{"17", method, "arrayParamMethod(int[],java.lang.String[][][])"},
		{"1.8", field, "field1"},
		{"17", field, "field1"},
	}
	for _, tt := range tests {
		site, err := NewOfflineSite("https://example.com/apidocs", tt.version)
		require.NoError(t, err)
		u, err := site.CreateLink(tt.ref)
		require.NoError(t, err)
		assert.Equal(t, "/apidocs/org/apache/maven/tools/plugin/extractor/annotations/converter/test/CurrentClass.html", u.Path)
		assert.Equal(t, tt.want, u.Fragment, "%s %s", tt.version, tt.ref)
	}
}

func TestSiteCreateLinkPages(t *testing.T) {
	site, err := NewOfflineSite("https://example.com/apidocs/", "11")
	require.NoError(t, err)

	u, err := site.CreateLink(javadoc.ResolvedReference{Package: "some.unknown.package"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/apidocs/some/unknown/package/package-summary.html", u.String())

	u, err = site.CreateLink(javadoc.ResolvedReference{Module: "my.mod", Package: "a.b", Class: "Outer.Inner"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/apidocs/my.mod/a/b/Outer.Inner.html", u.String())

	u, err = site.CreateLink(javadoc.ResolvedReference{Module: "my.mod"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/apidocs/my.mod/module-summary.html", u.String())

	legacy, err := NewOfflineSite("https://example.com/apidocs/", "1.8")
	require.NoError(t, err)
	u, err = legacy.CreateLink(javadoc.ResolvedReference{Module: "my.mod", Package: "a.b", Class: "C"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/apidocs/a/b/C.html", u.String())
}

func TestSiteModulePrefixFromIndex(t *testing.T) {
	site, err := NewSite("https://docs.oracle.com/en/java/javase/11/docs/api/", Modern, map[string]string{"java.lang": "java.base"})
	require.NoError(t, err)
	u, err := site.CreateClassLink("java.lang", "String")
	require.NoError(t, err)
	assert.Equal(t, "https://docs.oracle.com/en/java/javase/11/docs/api/java.base/java/lang/String.html", u.String())

	_, err = site.CreateClassLink("java.util", "List")
	assert.ErrorIs(t, err, ErrNoCoverage)
	assert.True(t, site.Covers("java.base", ""))
	assert.False(t, site.Covers("java.sql", "java.lang"))
}

func TestSplitBinaryName(t *testing.T) {
	pkg, class, err := SplitBinaryName("java.util.Map")
	require.NoError(t, err)
	assert.Equal(t, "java.util", pkg)
	assert.Equal(t, "Map", class)

	pkg, class, err = SplitBinaryName("org.example.Outer$Nested$Deep")
	require.NoError(t, err)
	assert.Equal(t, "org.example", pkg)
	assert.Equal(t, "Outer.Nested.Deep", class)

	for _, bad := range []string{"java.util.Map$0001Entry", "java.util.", "int"} {
		_, _, err := SplitBinaryName(bad)
		assert.ErrorIs(t, err, ErrInvalidReference, bad)
	}
}

func newSiteServer(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testClient(t *testing.T) *HTTPClient {
	t.Helper()
	c, err := NewHTTPClient(ClientOptions{})
	require.NoError(t, err)
	return c
}

func TestLoadSiteElementList(t *testing.T) {
	srv := newSiteServer(t, map[string]string{
		"/api/element-list": "module:java.base\njava.lang\njava.util\nmodule:java.sql\njava.sql\n",
		"/api/index.html":   "<html><!-- Generated by javadoc (17) on Mon Jan 01 --><head></head></html>",
	})
	site, err := LoadSite(context.Background(), testClient(t), srv.URL+"/api")
	require.NoError(t, err)
	assert.Equal(t, Modern, site.Generation())
	assert.False(t, site.Offline())
	assert.Equal(t, []string{"java.lang", "java.sql", "java.util"}, site.Packages())

	u, err := site.CreateLink(javadoc.ResolvedReference{Package: "java.sql", Class: "Connection", External: true})
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/api/java.sql/java/sql/Connection.html", u.String())
}

func TestLoadSitePackageListDefaultsToMid(t *testing.T) {
	srv := newSiteServer(t, map[string]string{
		"/api/package-list": "org.example\n",
	})
	site, err := LoadSite(context.Background(), testClient(t), srv.URL+"/api/")
	require.NoError(t, err)
	assert.Equal(t, Mid, site.Generation())
	assert.True(t, site.Covers("", "org.example"))
}

func TestLoadSiteUnreachable(t *testing.T) {
	srv := newSiteServer(t, map[string]string{})
	_, err := LoadSite(context.Background(), testClient(t), srv.URL+"/api/")
	assert.Error(t, err)
}

func TestLinkGenerator(t *testing.T) {
	srv := newSiteServer(t, map[string]string{
		"/jdk/package-list": "java.lang\njava.util\n",
		"/jdk/index.html":   "<!-- Generated by javadoc (1.8.0_292) on Mon -->",
	})
	external := LoadSites(context.Background(), testClient(t), []string{
		srv.URL + "/missing/",
		srv.URL + "/jdk/",
	})
	require.Len(t, external, 1)

	internal, err := NewOfflineSite("https://example.com/apidocs/", "11")
	require.NoError(t, err)
	gen, err := NewLinkGenerator(internal, external)
	require.NoError(t, err)

	u, err := gen.CreateLink(javadoc.ResolvedReference{Package: "org.example", Class: "MyMojo"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/apidocs/org/example/MyMojo.html", u.String())

	u, err = gen.CreateLink(javadoc.ResolvedReference{Package: "java.util", Class: "List", Member: "add(java.lang.Object)", MemberType: javadoc.MemberMethod, External: true})
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/jdk/java/util/List.html#add-java.lang.Object-", u.String())

	_, err = gen.CreateLink(javadoc.ResolvedReference{Package: "javax.inject", Class: "Named", External: true})
	assert.ErrorIs(t, err, ErrNoCoverage)

	u, err = gen.CreateClassLink("java.lang.String[]")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/jdk/java/lang/String.html", u.String())

	u, err = gen.CreateClassLink("org.example.Outer$Inner")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/apidocs/org/example/Outer.Inner.html", u.String())

	_, err = gen.CreateClassLink("boolean")
	assert.ErrorIs(t, err, ErrInvalidReference)

	base, err := gen.InternalBaseURL()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/apidocs/", base.String())
}

func TestLinkGeneratorWithoutSites(t *testing.T) {
	_, err := NewLinkGenerator(nil, nil)
	assert.Error(t, err)

	external, err := NewSite("https://example.com/api/", Mid, map[string]string{"a": ""})
	require.NoError(t, err)
	gen, err := NewLinkGenerator(nil, []*Site{external})
	require.NoError(t, err)
	_, err = gen.InternalBaseURL()
	assert.True(t, errors.Is(err, ErrNoInternalSite))

	_, err = gen.CreateClassLink("b.C")
	assert.ErrorIs(t, err, ErrNoCoverage)
}

func TestIsLinkValid(t *testing.T) {
	srv := newSiteServer(t, map[string]string{
		"/api/a/C.html": `<html><body><a id="field1"></a><section id="run()"></section></body></html>`,
	})
	client := testClient(t)
	ctx := context.Background()

	site, err := NewSite(srv.URL+"/api/", Modern, map[string]string{"a": ""})
	require.NoError(t, err)
	valid, err := site.CreateLink(javadoc.ResolvedReference{Package: "a", Class: "C", Member: "run()", MemberType: javadoc.MemberMethod})
	require.NoError(t, err)
	assert.True(t, IsLinkValid(ctx, client, valid, ""))

	missing, err := site.CreateLink(javadoc.ResolvedReference{Package: "a", Class: "C", Member: "other", MemberType: javadoc.MemberField})
	require.NoError(t, err)
	assert.False(t, IsLinkValid(ctx, client, missing, ""))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "touch-mojo.html"), []byte("<html/>"), 0o644))
	assert.True(t, IsLinkValid(ctx, client, &url.URL{Path: "touch-mojo.html"}, dir))
	assert.False(t, IsLinkValid(ctx, client, &url.URL{Path: "other-mojo.html"}, dir))
}
