package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTidy(t *testing.T) {
	tests := map[string]string{
		"plain text":                   "plain text",
		"  padded\n  text  ":           "padded text",
		"a<br>b":                       "a<br/>b",
		"<p>unclosed <b>bold":          "<p>unclosed <b>bold</b></p>",
		`<a href="x?a=1&b=2">q</a>`:    `<a href="x?a=1&amp;b=2">q</a>`,
		"<pre>  x\n  y</pre>":          "<pre>  x\n  y</pre>",
		"text<!-- a comment -->":       "text<!-- a comment -->",
		"5 &lt; 6 &amp; \"quoted\"":    "5 &lt; 6 &amp; \"quoted\"",
		"<ul><li>one<li>two</ul>":      "<ul><li>one</li><li>two</li></ul>",
		"<img src=\"a.png\" alt=\"\">": `<img src="a.png" alt=""/>`,
	}
	for in, want := range tests {
		assert.Equal(t, want, Tidy(in), in)
	}
}

func TestPlainText(t *testing.T) {
	tests := map[string]string{
		"":   "",
		"  ": "  ",
		`This is a <code>code</code> and <a href="https://javadoc.example.com/some/javadoc.html">Link</a>`: "This is a code and Link <https://javadoc.example.com/some/javadoc.html>",
		`<a href="#field">field</a>`: "field",
		"Some \"quotation\" marks, some <strong>important</strong> javadoc<br> and an inline link to foo": "Some \"quotation\" marks, some important javadoc\nand an inline link to foo",
		"Line1\nLine2":   "Line1 Line2",
		"Line1\r\nLine2": "Line1 Line2",
		"Line1<br>Line2": "Line1\nLine2",
		"Generates <i>something</i> <b>for the project.":     "Generates something for the project.",
		"<ul><li>one</li><li>two</li></ul>":                   "* one\n* two",
		"<p>First</p><p>Second</p>":                           "First\n\nSecond",
	}
	for in, want := range tests {
		assert.Equal(t, want, PlainText(in), in)
	}
}
