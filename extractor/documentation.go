package extractor

import (
	"context"
	"net/url"
	"strings"

	"github.com/dhamidi/plugintools/converter"
	"github.com/dhamidi/plugintools/docsite"
	"github.com/dhamidi/plugintools/java"
	"github.com/dhamidi/plugintools/java/javadoc"
)

// DocumentationOptions configures how doc comments are converted.
type DocumentationOptions struct {
	// Links may be nil, in which case only goal page links are created.
	Links *docsite.LinkGenerator
	// ValidateLink, if set, drops links to missing javadoc pages.
	ValidateLink func(*url.URL) bool
}

// Documenter converts the doc comments of goal classes, their ancestors and
// their parameter fields to XHTML.
type Documenter struct {
	index  *java.Index
	h      *Hierarchy
	opts   DocumentationOptions
	goals  map[string]string
	inline *converter.InlineConverter
	block  *converter.BlockConverter
}

func NewDocumenter(index *java.Index, h *Hierarchy, opts DocumentationOptions) *Documenter {
	inline := converter.NewInlineConverter()
	return &Documenter{
		index:  index,
		h:      h,
		opts:   opts,
		goals:  h.GoalNames(),
		inline: inline,
		block:  converter.NewBlockConverter(inline),
	}
}

// Merge sets the Docs of every goal class that has sources.
func (d *Documenter) Merge(ctx context.Context) error {
	for _, sc := range d.h.Goals() {
		if err := ctx.Err(); err != nil {
			return err
		}
		sc.Docs = d.GoalDocs(sc)
	}
	return nil
}

// GoalDocs returns nil when the goal class has no source model or one of
// its superclasses cannot be loaded. The description is the goal class's
// own; since and deprecation fall back to the nearest ancestor stating
// them. Field documentation is collected ancestors first, so that a field
// declared again in a subclass replaces the parent's entry even when it
// has no comment. Within one class a documented field wins over the
// comment of its setter.
func (d *Documenter) GoalDocs(sc *ScannedClass) *ClassDocs {
	mojoClass, ok := d.index.Lookup(sc.Name)
	if !ok || !mojoClass.FromSource {
		log.Debugf("no sources for %s, documentation skipped", sc.Name)
		return nil
	}
	chain, ok := d.sourceChain(mojoClass)
	if !ok {
		return nil
	}
	base := converter.NewClassContext(mojoClass, d.index, converter.ClassContextOptions{
		Goals:        d.goals,
		Links:        d.opts.Links,
		ValidateLink: d.opts.ValidateLink,
		Line:         mojoClass.Line,
	})
	docs := &ClassDocs{Fields: map[string]Doc{}}

	for i, c := range chain {
		comment := javadoc.Parse(c.Javadoc)
		cctx := base.At(c, c.Line)
		if i == 0 && strings.TrimSpace(comment.Body) != "" {
			docs.Class.Description = d.convert(cctx, comment)
		}
		if since, ok := comment.Tag("since"); ok && docs.Class.Since == "" {
			docs.Class.Since = strings.TrimSpace(since.Value)
		}
		if !docs.Class.IsDeprecated {
			docs.Class.IsDeprecated, docs.Class.Deprecated = d.deprecation(cctx, comment, c.IsDeprecated)
		}
	}

	for i := len(chain) - 1; i >= 0; i-- {
		c := chain[i]
		local := map[string]Doc{}
		for j := range c.Methods {
			m := &c.Methods[j]
			if m.Javadoc == "" || !isSetter(m) {
				continue
			}
			local[setterProperty(m.Name)] = d.memberDoc(base.At(c, m.Line), m.Javadoc, m.IsDeprecated)
		}
		for j := range c.Fields {
			f := &c.Fields[j]
			if _, documented := local[f.Name]; documented && f.Javadoc == "" && !f.IsDeprecated {
				continue
			}
			local[f.Name] = d.memberDoc(base.At(c, f.Line), f.Javadoc, f.IsDeprecated)
		}
		for name, doc := range local {
			docs.Fields[name] = doc
		}
	}
	return docs
}

// sourceChain returns the source models of the class and its superclasses.
// A superclass without sources is skipped. ok is false when a superclass
// cannot be loaded at all.
func (d *Documenter) sourceChain(class *java.ClassModel) (chain []*java.ClassModel, ok bool) {
	all := d.index.SuperclassChain(class.Name)
	for _, c := range all {
		if c.FromSource {
			chain = append(chain, c)
		}
	}
	if last := all[len(all)-1]; last.SuperClass != "" {
		if super, resolved := d.index.SuperClass(last); resolved && !hierarchyRoots[super] {
			if _, found := d.index.Lookup(super); !found {
				log.Warningf("%s: cannot load superclass %s, documentation of the class is skipped", class.Name, super)
				return nil, false
			}
		}
	}
	return chain, true
}

func (d *Documenter) memberDoc(cctx *converter.ClassContext, comment string, deprecated bool) Doc {
	parsed := javadoc.Parse(comment)
	doc := Doc{Description: d.convert(cctx, parsed)}
	if since, ok := parsed.Tag("since"); ok {
		doc.Since = strings.TrimSpace(since.Value)
	}
	doc.IsDeprecated, doc.Deprecated = d.deprecation(cctx, parsed, deprecated)
	return doc
}

func (d *Documenter) deprecation(cctx *converter.ClassContext, comment *javadoc.Comment, annotated bool) (bool, string) {
	tag, ok := comment.Tag("deprecated")
	if !ok {
		return annotated, ""
	}
	return true, d.inline.Convert(strings.TrimSpace(tag.Value), cctx)
}

// convert renders the body of a comment followed by its @see tags.
func (d *Documenter) convert(cctx *converter.ClassContext, comment *javadoc.Comment) string {
	var sb strings.Builder
	sb.WriteString(d.inline.Convert(strings.TrimSpace(comment.Body), cctx))
	for _, see := range comment.TagsNamed("see") {
		sb.WriteString(d.block.Convert("see", strings.TrimSpace(see.Value), cctx))
	}
	return converter.Tidy(sb.String())
}
