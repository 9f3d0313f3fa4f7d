package javadoc

import (
	"errors"
	"testing"
)

func TestParseSimpleText(t *testing.T) {
	c := Parse("/** Simple text. */")
	if c.Body != "Simple text." {
		t.Errorf("expected 'Simple text.', got %q", c.Body)
	}
	if len(c.Tags) != 0 {
		t.Errorf("expected no tags, got %+v", c.Tags)
	}
}

func TestParseMultiline(t *testing.T) {
	c := Parse(`/**
     * First line.
     * <pre>
     *   indented
     * </pre>
     *
     * @since 1.2
     * @deprecated use {@link Other}
     *     instead
     * @parameter property="out.dir" default-value="${project.build.directory}"
     */`)

	want := "First line.\n<pre>\n  indented\n</pre>"
	if c.Body != want {
		t.Errorf("Body = %q, want %q", c.Body, want)
	}
	if len(c.Tags) != 3 {
		t.Fatalf("expected 3 tags, got %+v", c.Tags)
	}
	since, ok := c.Tag("since")
	if !ok || since.Value != "1.2" || since.Line != 6 {
		t.Errorf("since = %+v", since)
	}
	dep, _ := c.Tag("deprecated")
	if dep.Value != "use {@link Other}\n    instead" {
		t.Errorf("deprecated = %q", dep.Value)
	}
	params := TagParameters(c.TagsNamed("parameter")[0].Value)
	if params["property"] != "out.dir" || params["default-value"] != "${project.build.directory}" {
		t.Errorf("parameters = %v", params)
	}
}

func TestParseAtInsideInlineTag(t *testing.T) {
	c := Parse("/**\n * Use {@code\n * @Foo} here.\n */")
	if len(c.Tags) != 0 {
		t.Errorf("expected no block tags, got %+v", c.Tags)
	}
	if c.Body != "Use {@code\n@Foo} here." {
		t.Errorf("Body = %q", c.Body)
	}
}

func TestParseWithoutDelimiters(t *testing.T) {
	c := Parse("Just text\n@goal touch")
	if c.Body != "Just text" {
		t.Errorf("Body = %q", c.Body)
	}
	if g, ok := c.Tag("goal"); !ok || g.Value != "touch" {
		t.Errorf("goal = %+v", g)
	}
}

func TestSplitInlineTags(t *testing.T) {
	segs := SplitInlineTags("See {@link java.util.List} and {@code class Foo { int x; }} or {@docRoot}. {@broken")
	if len(segs) != 7 {
		t.Fatalf("expected 7 segments, got %d: %+v", len(segs), segs)
	}
	link := segs[1].Tag
	if link == nil || link.Name != "link" || link.Value != "java.util.List" || link.Raw != "{@link java.util.List}" {
		t.Errorf("link = %+v", link)
	}
	code := segs[3].Tag
	if code == nil || code.Value != "class Foo { int x; }" {
		t.Errorf("code = %+v", code)
	}
	root := segs[5].Tag
	if root == nil || root.Name != "docRoot" || root.Value != "" {
		t.Errorf("docRoot = %+v", root)
	}
	if segs[6].Text != ". {@broken" {
		t.Errorf("tail = %q", segs[6].Text)
	}
}

func TestTagParameters(t *testing.T) {
	got := TagParameters(`phase=generate-sources goal="touch" lifecycle=my flag`)
	want := map[string]string{"phase": "generate-sources", "goal": "touch", "lifecycle": "my", "flag": ""}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
}

func TestParseReference(t *testing.T) {
	tests := []struct {
		input string
		want  Reference
	}{
		{"package.Class#member", Reference{Path: "package.Class", Member: "member"}},
		{"package", Reference{Path: "package"}},
		{"#field", Reference{Member: "field"}},
		{"package.Class#member(ArgType1,ArgType2) label", Reference{Path: "package.Class", Member: "member(ArgType1,ArgType2)", Label: "label"}},
		{"my.module/package.Class#member(ArgType1,ArgType2) label", Reference{Module: "my.module", Path: "package.Class", Member: "member(ArgType1,ArgType2)", Label: "label"}},
		{"Class#method(String, int) the method", Reference{Path: "Class", Member: "method(String, int)", Label: "the method"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseReference(tt.input)
			if err != nil {
				t.Fatalf("ParseReference(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			again, err := ParseReference(got.String())
			if err != nil || again != got {
				t.Errorf("round trip of %q gave %+v, %v", got.String(), again, err)
			}
		})
	}
}

func TestParseReferenceMalformed(t *testing.T) {
	for _, input := range []string{
		"", "my.module/", "Class#member(int", "   ",
		"Foo#bar)", "#run)", "Foo#bar)(int)", "Foo)", "Foo#bar(int))",
	} {
		if _, err := ParseReference(input); !errors.Is(err, ErrMalformedReference) {
			t.Errorf("ParseReference(%q) error = %v", input, err)
		}
	}
}

func TestReferenceMemberArgs(t *testing.T) {
	ref := Reference{Member: "execute( String , int[] )"}
	args, ok := ref.MemberArgs()
	if !ok || len(args) != 2 || args[0] != "String" || args[1] != "int[]" {
		t.Errorf("MemberArgs() = %v, %v", args, ok)
	}
	if ref.MemberName() != "execute" {
		t.Errorf("MemberName() = %q", ref.MemberName())
	}
	if args, ok := (Reference{Member: "run()"}).MemberArgs(); !ok || len(args) != 0 {
		t.Errorf("run() args = %v, %v", args, ok)
	}
	if _, ok := (Reference{Member: "field"}).MemberArgs(); ok {
		t.Error("field should not have an argument list")
	}
}

func TestResolvedReferenceValidate(t *testing.T) {
	ok := ResolvedReference{Package: "a.b", Class: "C", Member: "m(int)", MemberType: MemberMethod}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if ok.QualifiedClassName() != "a.b.C" || ok.String() != "a.b.C#m(int)" {
		t.Errorf("names = %q, %q", ok.QualifiedClassName(), ok.String())
	}
	bad := []ResolvedReference{
		{Class: "C"},
		{Package: "a", Member: "m"},
		{Package: "a", Member: "m(int, long)", MemberType: MemberMethod},
	}
	for _, r := range bad {
		if r.Validate() == nil {
			t.Errorf("expected %+v to be invalid", r)
		}
	}
}
