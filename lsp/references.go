package lsp

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dhamidi/plugintools/java"
)

// Occurrence is a doc reference found in a Java source file. Lines and
// columns are zero based; columns count bytes.
type Occurrence struct {
	Tag       string
	Text      string
	Line      int
	StartCol  int
	EndCol    int
	Declaring *java.ClassModel
}

// Contains reports whether the position lies on the occurrence.
func (o Occurrence) Contains(line, col int) bool {
	return line == o.Line && col >= o.StartCol && col <= o.EndCol
}

var (
	docComment = regexp.MustCompile(`(?s)/\*\*.*?\*/`)
	inlineRef  = regexp.MustCompile(`\{@(link|linkplain|value)\s+([^}\s][^}]*?)\s*\}`)
	seeRef     = regexp.MustCompile(`(?m)^[ \t]*(?:/\*\*|\*)?[ \t]*@see[ \t]+([^"<\s][^\r\n]*?)[ \t]*(?:\*/)?[ \t]*\r?$`)
)

// declaration is a class or member declaration line and its class.
type declaration struct {
	line  int
	class *java.ClassModel
}

// FindOccurrences lists the {@link}, {@linkplain}, {@value} and @see
// references in the doc comments of content. Each is attributed to the
// class whose declaration follows the comment.
func FindOccurrences(content []byte, classes []*java.ClassModel) []Occurrence {
	decls := declarations(classes)
	lines := lineStarts(content)

	var out []Occurrence
	for _, comment := range docComment.FindAllIndex(content, -1) {
		start, end := comment[0], comment[1]
		text := content[start:end]
		owner := ownerAfter(decls, lineOf(lines, end-1)+1)

		for _, m := range inlineRef.FindAllSubmatchIndex(text, -1) {
			out = append(out, occurrence(lines, string(text[m[2]:m[3]]), text, start, m[4], m[5], owner))
		}
		for _, m := range seeRef.FindAllSubmatchIndex(text, -1) {
			out = append(out, occurrence(lines, "see", text, start, m[2], m[3], owner))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].StartCol < out[j].StartCol
	})
	return out
}

func occurrence(lines []int, tag string, comment []byte, base, from, to int, owner *java.ClassModel) Occurrence {
	line := lineOf(lines, base+from)
	return Occurrence{
		Tag:       tag,
		Text:      strings.TrimSpace(string(comment[from:to])),
		Line:      line,
		StartCol:  base + from - lines[line],
		EndCol:    base + to - lines[line],
		Declaring: owner,
	}
}

func declarations(classes []*java.ClassModel) []declaration {
	var decls []declaration
	for _, c := range classes {
		decls = append(decls, declaration{c.Line, c})
		for _, f := range c.Fields {
			decls = append(decls, declaration{f.Line, c})
		}
		for _, m := range c.Methods {
			decls = append(decls, declaration{m.Line, c})
		}
	}
	sort.SliceStable(decls, func(i, j int) bool { return decls[i].line < decls[j].line })
	return decls
}

// ownerAfter returns the class of the first declaration on or after the
// one based line. Comments after the last declaration belong to the
// outermost class.
func ownerAfter(decls []declaration, line int) *java.ClassModel {
	i := sort.Search(len(decls), func(i int) bool { return decls[i].line >= line })
	if i < len(decls) {
		return decls[i].class
	}
	if len(decls) > 0 {
		return decls[0].class
	}
	return nil
}

func lineStarts(content []byte) []int {
	starts := []int{0}
	for i, b := range content {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineOf returns the zero based line of a byte offset.
func lineOf(starts []int, offset int) int {
	return sort.Search(len(starts), func(i int) bool { return starts[i] > offset }) - 1
}
