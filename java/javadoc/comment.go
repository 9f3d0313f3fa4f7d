// Package javadoc parses doc comments into a body and block tags, finds
// inline tags inside them and implements the doc reference grammar.
package javadoc

import (
	"strings"
	"unicode"
)

// Comment is a doc comment with its delimiters and line prefixes removed.
type Comment struct {
	Body string
	Tags []BlockTag
}

// BlockTag is a tag such as "@since 1.2". Line counts from zero at the
// line holding the comment start.
type BlockTag struct {
	Name  string
	Value string
	Line  int
}

// Tag returns the first block tag with the given name.
func (c *Comment) Tag(name string) (BlockTag, bool) {
	for _, t := range c.Tags {
		if t.Name == name {
			return t, true
		}
	}
	return BlockTag{}, false
}

func (c *Comment) TagsNamed(name string) []BlockTag {
	var tags []BlockTag
	for _, t := range c.Tags {
		if t.Name == name {
			tags = append(tags, t)
		}
	}
	return tags
}

// Parser is a single pass scanner over a doc comment.
type Parser struct {
	input []rune
	pos   int
	len   int
	line  int
}

// Parse parses a doc comment. The input may include or omit the comment
// delimiters.
func Parse(javadoc string) *Comment {
	p := &Parser{input: []rune(javadoc)}
	p.len = len(p.input)
	return p.parseComment()
}

func (p *Parser) parseComment() *Comment {
	p.skipCommentStart()
	c := &Comment{Body: p.readContent(true)}
	for p.pos < p.len && p.peek() == '@' {
		line := p.line
		p.advance(1)
		name := p.readTagName()
		p.skipHorizontalWhitespace()
		c.Tags = append(c.Tags, BlockTag{Name: name, Value: p.readContent(false), Line: line})
	}
	return c
}

// skipCommentStart skips the leading /** and the prefix of the first line.
func (p *Parser) skipCommentStart() {
	for p.pos < p.len && unicode.IsSpace(p.peek()) {
		p.newline()
		p.advance(1)
	}
	if p.match("/**") {
		p.advance(3)
	}
	p.skipLinePrefix()
}

// skipLinePrefix skips leading whitespace and a single asterisk at the start of a line.
func (p *Parser) skipLinePrefix() {
	p.skipHorizontalWhitespace()
	if p.peek() == '*' && p.peekAt(1) != '/' {
		p.advance(1)
		if p.peek() == ' ' {
			p.advance(1)
		}
	}
}

// readContent reads up to the next block tag or the end of the comment.
// Block tags are not recognised inside inline tags.
func (p *Parser) readContent(atLineStart bool) string {
	var sb strings.Builder
	depth := 0
	for p.pos < p.len {
		ch := p.peek()
		if ch == '*' && p.peekAt(1) == '/' {
			p.pos = p.len
			break
		}
		if ch == '@' && depth == 0 && atLineStart {
			break
		}
		switch ch {
		case '\n', '\r':
			sb.WriteRune('\n')
			p.advance(1)
			if ch == '\r' && p.peek() == '\n' {
				p.advance(1)
			}
			p.line++
			p.skipLinePrefix()
			p.skipHorizontalWhitespaceInto(&sb)
			atLineStart = true
			continue
		case '{':
			if p.peekAt(1) == '@' || depth > 0 {
				depth++
			}
		case '}':
			if depth > 0 {
				depth--
			}
		}
		sb.WriteRune(ch)
		p.advance(1)
		atLineStart = false
	}
	return strings.TrimSpace(sb.String())
}

// skipHorizontalWhitespaceInto copies indentation to sb so that
// preformatted blocks keep it, while still allowing a block tag to follow.
func (p *Parser) skipHorizontalWhitespaceInto(sb *strings.Builder) {
	for p.pos < p.len && (p.peek() == ' ' || p.peek() == '\t') {
		sb.WriteRune(p.peek())
		p.advance(1)
	}
}

func (p *Parser) newline() {
	if p.peek() == '\n' {
		p.line++
	}
}

func (p *Parser) peek() rune {
	if p.pos >= p.len {
		return 0
	}
	return p.input[p.pos]
}

func (p *Parser) peekAt(offset int) rune {
	pos := p.pos + offset
	if pos >= p.len || pos < 0 {
		return 0
	}
	return p.input[pos]
}

func (p *Parser) advance(n int) {
	p.pos += n
	if p.pos > p.len {
		p.pos = p.len
	}
}

func (p *Parser) match(s string) bool {
	if p.pos+len(s) > p.len {
		return false
	}
	for i, ch := range s {
		if p.input[p.pos+i] != ch {
			return false
		}
	}
	return true
}

func (p *Parser) skipHorizontalWhitespace() {
	for p.pos < p.len && (p.peek() == ' ' || p.peek() == '\t') {
		p.advance(1)
	}
}

func (p *Parser) readTagName() string {
	start := p.pos
	for p.pos < p.len && !unicode.IsSpace(p.peek()) && p.peek() != '{' && p.peek() != '}' {
		if p.peek() == '*' && p.peekAt(1) == '/' {
			break
		}
		p.advance(1)
	}
	return string(p.input[start:p.pos])
}
