package javadoc

import (
	"strings"
	"unicode"
)

// InlineTag is an inline tag such as {@link Foo#bar label}. Raw holds the
// tag as written, braces included.
type InlineTag struct {
	Name  string
	Value string
	Raw   string
}

// Segment is either literal text or an inline tag.
type Segment struct {
	Text string
	Tag  *InlineTag
}

// SplitInlineTags splits text into literal runs and inline tags. Braces
// inside a tag value must balance. An unterminated tag is kept as text.
func SplitInlineTags(text string) []Segment {
	var segments []Segment
	rest := text
	for {
		start := strings.Index(rest, "{@")
		if start < 0 {
			break
		}
		end := closingBrace(rest, start)
		if end < 0 {
			break
		}
		if start > 0 {
			segments = append(segments, Segment{Text: rest[:start]})
		}
		segments = append(segments, Segment{Tag: parseInlineTag(rest[start : end+1])})
		rest = rest[end+1:]
	}
	if rest != "" {
		segments = append(segments, Segment{Text: rest})
	}
	return segments
}

// InlineTags returns only the tags of text, in order.
func InlineTags(text string) []InlineTag {
	var tags []InlineTag
	for _, s := range SplitInlineTags(text) {
		if s.Tag != nil {
			tags = append(tags, *s.Tag)
		}
	}
	return tags
}

func closingBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func parseInlineTag(raw string) *InlineTag {
	inner := raw[2 : len(raw)-1]
	nameEnd := strings.IndexFunc(inner, unicode.IsSpace)
	if nameEnd < 0 {
		return &InlineTag{Name: inner, Raw: raw}
	}
	return &InlineTag{
		Name:  inner[:nameEnd],
		Value: strings.TrimLeftFunc(inner[nameEnd:], unicode.IsSpace),
		Raw:   raw,
	}
}

// TagParameters parses the name=value pairs of block tags such as
// "@parameter property=foo default-value=\"a b\"". Values may be double
// quoted. Words without '=' map to the empty string.
func TagParameters(value string) map[string]string {
	params := map[string]string{}
	p := &Parser{input: []rune(value)}
	p.len = len(p.input)
	for {
		for p.pos < p.len && unicode.IsSpace(p.peek()) {
			p.advance(1)
		}
		if p.pos >= p.len {
			return params
		}
		start := p.pos
		for p.pos < p.len && p.peek() != '=' && !unicode.IsSpace(p.peek()) {
			p.advance(1)
		}
		name := string(p.input[start:p.pos])
		if p.peek() != '=' {
			params[name] = ""
			continue
		}
		p.advance(1)
		if p.peek() == '"' {
			p.advance(1)
			start = p.pos
			for p.pos < p.len && p.peek() != '"' {
				p.advance(1)
			}
			params[name] = string(p.input[start:p.pos])
			p.advance(1)
			continue
		}
		start = p.pos
		for p.pos < p.len && !unicode.IsSpace(p.peek()) {
			p.advance(1)
		}
		params[name] = string(p.input[start:p.pos])
	}
}
