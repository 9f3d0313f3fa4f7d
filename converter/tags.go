package converter

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/dhamidi/plugintools/java/javadoc"
)

// TagConverter renders the value of one tag as HTML.
type TagConverter interface {
	Convert(value string, ctx Context) (string, error)
}

type TagConverterFunc func(value string, ctx Context) (string, error)

func (f TagConverterFunc) Convert(value string, ctx Context) (string, error) {
	return f(value, ctx)
}

// InlineConverter replaces every {@tag value} of a text and tidies the
// result to XHTML.
type InlineConverter struct {
	converters map[string]TagConverter
}

// NewInlineConverter knows code, literal, link, linkplain, value and
// docRoot.
func NewInlineConverter() *InlineConverter {
	return &InlineConverter{converters: map[string]TagConverter{
		"code":      TagConverterFunc(convertCode),
		"literal":   TagConverterFunc(convertLiteral),
		"link":      TagConverterFunc(convertLink),
		"linkplain": TagConverterFunc(convertLinkPlain),
		"value":     TagConverterFunc(convertValue),
		"docRoot":   TagConverterFunc(convertDocRoot),
	}}
}

func (c *InlineConverter) Register(name string, tc TagConverter) {
	c.converters[name] = tc
}

// Convert never fails. Tags that cannot be converted are kept as written
// followed by a comment naming the problem.
func (c *InlineConverter) Convert(text string, ctx Context) string {
	var sb strings.Builder
	for _, seg := range javadoc.SplitInlineTags(text) {
		if seg.Tag == nil {
			sb.WriteString(seg.Text)
			continue
		}
		sb.WriteString(c.convertTag(seg.Tag, ctx))
	}
	return Tidy(sb.String())
}

func (c *InlineConverter) convertTag(tag *javadoc.InlineTag, ctx Context) string {
	tc, ok := c.converters[tag.Name]
	if !ok {
		log.Warningf("found unsupported javadoc inline tag '%s' in %s", tag.Name, ctx.Location())
		return tag.Raw + "<!-- unsupported tag '" + tag.Name + "' -->"
	}
	out, err := tc.Convert(tag.Value, ctx)
	if err != nil {
		log.Warningf("error converting javadoc inline tag '%s' in %s: %s", tag.Name, ctx.Location(), err)
		return tag.Raw + "<!-- error processing javadoc tag '" + tag.Name + "': " + err.Error() + " -->"
	}
	return out
}

// BlockConverter renders block tags such as @see. The converted value is
// passed through the inline converter.
type BlockConverter struct {
	inline     *InlineConverter
	converters map[string]TagConverter
}

// NewBlockConverter knows see.
func NewBlockConverter(inline *InlineConverter) *BlockConverter {
	return &BlockConverter{inline: inline, converters: map[string]TagConverter{
		"see": TagConverterFunc(convertSee),
	}}
}

func (c *BlockConverter) Register(name string, tc TagConverter) {
	c.converters[name] = tc
}

func (c *BlockConverter) Convert(name, text string, ctx Context) string {
	tc, ok := c.converters[name]
	if !ok {
		return "@" + name + " " + text + "<!-- unknown block tag '" + name + "' -->"
	}
	out, err := tc.Convert(text, ctx)
	if err != nil {
		log.Warningf("error converting javadoc block tag '%s' in %s: %s", name, ctx.Location(), err)
		return "@" + name + " " + text + "<!-- error processing javadoc tag '" + name + "': " + err.Error() + "-->"
	}
	return c.inline.Convert(out, ctx)
}

func convertCode(value string, _ Context) (string, error) {
	return "<code>" + html.EscapeString(value) + "</code>", nil
}

func convertLiteral(value string, _ Context) (string, error) {
	return html.EscapeString(value), nil
}

func convertLink(value string, ctx Context) (string, error) {
	return CreateLink(value, ctx, func(label string) string { return "<code>" + label + "</code>" }), nil
}

func convertLinkPlain(value string, ctx Context) (string, error) {
	return CreateLink(value, ctx, nil), nil
}

func convertValue(value string, ctx Context) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", errors.New("{@value} without reference is not supported")
	}
	ref, err := javadoc.ParseReference(value)
	if err != nil {
		return "", err
	}
	resolved, err := ctx.ResolveReference(ref)
	if err != nil {
		return "", err
	}
	return ctx.StaticFieldValue(resolved)
}

func convertDocRoot(_ string, ctx Context) (string, error) {
	base, err := ctx.InternalBaseURL()
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(base.String(), "/"), nil
}

const firstSeeAttribute = "see.isFirstReference"

// convertSee writes the "See also" heading once per pass and separates
// later references with commas. Anchors and quoted strings pass through.
func convertSee(value string, ctx Context) (string, error) {
	var sb strings.Builder
	if first, _ := ctx.Attributes().Get(firstSeeAttribute, true).(bool); first {
		sb.WriteString("<br/><strong>See also:</strong>\n")
		ctx.Attributes().Set(firstSeeAttribute, false)
	} else {
		sb.WriteString(", ")
	}
	if strings.HasPrefix(value, "<a href") || strings.HasPrefix(value, `"`) {
		sb.WriteString(value)
		return sb.String(), nil
	}
	sb.WriteString(CreateLink(value, ctx, nil))
	return sb.String(), nil
}

// CreateLink renders a reference as an anchor. decorate, if not nil,
// wraps the label. A reference that cannot be resolved or linked degrades
// to its label followed by a comment.
func CreateLink(value string, ctx Context, decorate func(string) string) string {
	if decorate == nil {
		decorate = func(label string) string { return label }
	}
	ref, err := javadoc.ParseReference(value)
	var resolved javadoc.ResolvedReference
	if err == nil {
		resolved, err = ctx.ResolveReference(ref)
	}
	if err != nil {
		log.Warningf("unresolvable link in javadoc tag with value %s found in %s: %s", value, ctx.Location(), err)
		return decorate(value) + "<!-- this link could not be resolved -->"
	}

	label := decorate(referenceLabel(resolved, ctx))
	u, err := ctx.URL(resolved)
	if err != nil {
		log.Warningf("could not get javadoc URL for reference %s at %s (fully qualified %s): %s", value, ctx.Location(), resolved, err)
		return label + "<!-- this link does not have javadoc linked -->"
	}
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(u.String()), label)
}

// referenceLabel is the explicit label, or the reference shortened
// relative to the current package and class.
func referenceLabel(ref javadoc.ResolvedReference, ctx Context) string {
	if ref.Label != "" {
		return ref.Label
	}
	pkg, class := ref.Package, ref.Class
	if ref.Package == ctx.PackageName() && ref.Module == ctx.ModuleName() {
		pkg = ""
		if ctx.IsReferencedBy(ref) {
			class = ""
		}
	}
	if pkg == "java.lang" {
		pkg = ""
	}
	var parts []string
	for _, p := range []string{pkg, class, ref.Member} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}
