package converter

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/plugintools/docsite"
	"github.com/dhamidi/plugintools/java/javadoc"
)

// stubContext resolves references syntactically: a lower case path is a
// package or package qualified class, anything else is a class of pkg.
type stubContext struct {
	pkg          string
	site         *docsite.Site
	unresolvable map[string]bool
	urlErr       error
	staticValue  func(javadoc.ResolvedReference) (string, error)
	attrs        *Attributes
}

func newStubContext(t *testing.T) *stubContext {
	t.Helper()
	site, err := docsite.NewOfflineSite("https://javadoc.example.com/", "11")
	require.NoError(t, err)
	return &stubContext{
		pkg:          "org.example",
		site:         site,
		unresolvable: map[string]bool{},
		staticValue: func(javadoc.ResolvedReference) (string, error) {
			return "some field value", nil
		},
		attrs: NewAttributes(),
	}
}

func (c *stubContext) ModuleName() string  { return "" }
func (c *stubContext) PackageName() string { return c.pkg }
func (c *stubContext) Location() string    { return "customlocation:0" }

func (c *stubContext) ResolveReference(ref javadoc.Reference) (javadoc.ResolvedReference, error) {
	if c.unresolvable[ref.String()] {
		return javadoc.ResolvedReference{}, ErrUnresolvableReference
	}
	resolved := javadoc.ResolvedReference{Package: c.pkg, Label: ref.Label}
	if ref.Path != "" {
		if unicode.IsLower(rune(ref.Path[0])) {
			pkg, class := ref.Path, ""
			if i := strings.LastIndexByte(ref.Path, '.'); i >= 0 && unicode.IsUpper(rune(ref.Path[i+1])) {
				pkg, class = ref.Path[:i], ref.Path[i+1:]
			}
			resolved.Package, resolved.Class = pkg, class
		} else {
			resolved.Class = ref.Path
		}
	}
	if ref.Member != "" {
		if args, ok := ref.MemberArgs(); ok {
			types := make([]string, len(args))
			for i, a := range args {
				types[i], _, _ = strings.Cut(a, " ")
			}
			resolved.Member = ref.MemberName() + "(" + strings.Join(types, ",") + ")"
			resolved.MemberType = javadoc.MemberMethod
		} else {
			resolved.Member = ref.Member
			resolved.MemberType = javadoc.MemberField
		}
	}
	return resolved, nil
}

func (c *stubContext) IsReferencedBy(javadoc.ResolvedReference) bool { return false }
func (c *stubContext) CanGetURL() bool                               { return true }

func (c *stubContext) URL(ref javadoc.ResolvedReference) (*url.URL, error) {
	if c.urlErr != nil {
		return nil, c.urlErr
	}
	return c.site.CreateLink(ref)
}

func (c *stubContext) StaticFieldValue(ref javadoc.ResolvedReference) (string, error) {
	return c.staticValue(ref)
}

func (c *stubContext) InternalBaseURL() (*url.URL, error) { return c.site.BaseURL(), nil }
func (c *stubContext) Attributes() *Attributes            { return c.attrs }

func TestInlineConverter(t *testing.T) {
	ctx := newStubContext(t)
	conv := NewInlineConverter()

	tests := []struct {
		in   string
		want string
	}{
		{"This is a {@code <>code} and {@link my.pkg.Class#member} test {@code code2}\nsome other text",
			`This is a <code>&lt;&gt;code</code> and <a href="https://javadoc.example.com/my/pkg/Class.html#member"><code>my.pkg.Class.member</code></a> test <code>code2</code> some other text`},
		{"{@code text}", "<code>text</code>"},
		{"{@code <A&B>}", "<code>&lt;A&amp;B&gt;</code>"},
		{"Something{@code \n<A&B>\n   }", "Something<code>&lt;A&amp;B&gt; </code>"},
		{"{@code\ntest}", "<code>test</code>"},
		{"{@code Map<String, List<String>>}", "<code>Map&lt;String, List&lt;String&gt;&gt;</code>"},
		{"{@literal text}", "text"},
		{"{@literal text}  {@literal text}", "text text"},
		{"{@literal <A&B>}", "&lt;A&amp;B&gt;"},
		{"{@link Class}", `<a href="https://javadoc.example.com/org/example/Class.html"><code>Class</code></a>`},
		{"{@link MyClass#field1}", `<a href="https://javadoc.example.com/org/example/MyClass.html#field1"><code>MyClass.field1</code></a>`},
		{"{@linkplain Class}", `<a href="https://javadoc.example.com/org/example/Class.html">Class</a>`},
		{"{@linkplain #field}", `<a href="https://javadoc.example.com/org/example/package-summary.html#field">field</a>`},
		{"{@linkplain #method(Object, String) label}", `<a href="https://javadoc.example.com/org/example/package-summary.html#method(Object,String)">label</a>`},
		{"{@linkplain Class#method(Object, String)}", `<a href="https://javadoc.example.com/org/example/Class.html#method(Object,String)">Class.method(Object,String)</a>`},
		{"{@linkplain java.lang.String}", `<a href="https://javadoc.example.com/java/lang/String.html">String</a>`},
		{"{@value Class#STATIC_FIELD}", "some field value"},
		{`Some <a href="{@docRoot}/test.html">link</a>`, `Some <a href="https://javadoc.example.com/test.html">link</a>`},
		{"Some code {@code myCode} and link {@linkplain Class}. Something",
			`Some code <code>myCode</code> and link <a href="https://javadoc.example.com/org/example/Class.html">Class</a>. Something`},
		{"{@unknown text}", "{@unknown text}<!-- unsupported tag 'unknown' -->"},
		{"unterminated {@code", "unterminated {@code"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, conv.Convert(tt.in, ctx), tt.in)
	}
}

func TestInlineConverterDegrades(t *testing.T) {
	conv := NewInlineConverter()

	ctx := newStubContext(t)
	ctx.staticValue = func(javadoc.ResolvedReference) (string, error) {
		return "", errors.New("Some exception")
	}
	assert.Equal(t, "{@value Class#STATIC_FIELD}<!-- error processing javadoc tag 'value': Some exception -->",
		conv.Convert("{@value Class#STATIC_FIELD}", ctx))

	ctx = newStubContext(t)
	ctx.unresolvable["Missing"] = true
	assert.Equal(t, "<code>Missing</code><!-- this link could not be resolved -->",
		conv.Convert("{@link Missing}", ctx))

	ctx = newStubContext(t)
	ctx.urlErr = docsite.ErrNoCoverage
	assert.Equal(t, "<code>Class</code><!-- this link does not have javadoc linked -->",
		conv.Convert("{@link Class}", ctx))
}

func TestBlockConverterSee(t *testing.T) {
	block := NewBlockConverter(NewInlineConverter())

	ctx := newStubContext(t)
	assert.Equal(t, `<br/><strong>See also:</strong> "Some reference"`, block.Convert("see", `"Some reference"`, ctx))
	assert.Equal(t, `, <a href="example.com">Example</a>`, block.Convert("see", `<a href="example.com">Example</a>`, ctx))
	assert.Equal(t, `, <a href="https://javadoc.example.com/org/example/Class.html#field">Class.field</a>`, block.Convert("see", "Class#field", ctx))

	fresh := newStubContext(t)
	assert.Equal(t, `<br/><strong>See also:</strong> <a href="example.com">Example</a>`, block.Convert("see", `<a href="example.com">Example</a>`, fresh))
}

func TestBlockConverterDegrades(t *testing.T) {
	block := NewBlockConverter(NewInlineConverter())
	block.Register("example", TagConverterFunc(func(string, Context) (string, error) {
		return "", errors.New("Some exception")
	}))
	ctx := newStubContext(t)

	assert.Equal(t, "@example Class#field<!-- error processing javadoc tag 'example': Some exception-->",
		block.Convert("example", "Class#field", ctx))
	assert.Equal(t, "@author someone<!-- unknown block tag 'author' -->",
		block.Convert("author", "someone", ctx))
}

func TestReferenceLabel(t *testing.T) {
	ctx := newStubContext(t)
	tests := []struct {
		ref  javadoc.ResolvedReference
		want string
	}{
		{javadoc.ResolvedReference{Package: "org.example", Class: "Foo", Member: "bar"}, "Foo.bar"},
		{javadoc.ResolvedReference{Package: "org.other", Class: "Foo"}, "org.other.Foo"},
		{javadoc.ResolvedReference{Package: "java.lang", Class: "String"}, "String"},
		{javadoc.ResolvedReference{Package: "org.other"}, "org.other"},
		{javadoc.ResolvedReference{Package: "org.example", Class: "Foo", Label: "explicit"}, "explicit"},
		{javadoc.ResolvedReference{Module: "mod", Package: "org.example", Class: "Foo"}, "org.example.Foo"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, referenceLabel(tt.ref, ctx), tt.ref.String())
	}
}
