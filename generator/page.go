package generator

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/dhamidi/plugintools/converter"
	"github.com/dhamidi/plugintools/docsite"
	"github.com/dhamidi/plugintools/extractor"
)

//go:embed templates
var templateFS embed.FS

var pageTemplate = template.Must(template.New("goal.html").Funcs(template.FuncMap{
	"msg":     func(string) template.HTML { return "" },
	"section": newSection,
}).ParseFS(templateFS, "templates/goal.html"))

// PageOptions control goal page rendering.
type PageOptions struct {
	Locale Locale
	// Links resolves parameter types to javadoc pages. May be nil.
	Links *docsite.LinkGenerator
}

type goalPage struct {
	Locale      string
	Title       string
	FullName    string
	Description template.HTML
	Deprecated  template.HTML
	Attributes  []template.HTML
	Parameters  []pageParameter
	Required    []pageParameter
	Optional    []pageParameter
}

type pageParameter struct {
	Name        string
	Type        string
	TypeURL     string
	Since       string
	Required    bool
	Property    string
	Expression  string
	Default     string
	Alias       string
	Description template.HTML
	Summary     template.HTML
	Deprecated  template.HTML
}

type pageSection struct {
	Title      template.HTML
	Parameters []pageParameter
}

func newSection(title template.HTML, params []pageParameter) pageSection {
	return pageSection{Title: title, Parameters: params}
}

// PageFileName is the page written for goal.
func PageFileName(goal string) string {
	return goal + "-mojo.html"
}

// WritePage renders the documentation page of one goal.
func WritePage(w io.Writer, pd *extractor.PluginDescriptor, m *extractor.MojoDescriptor, opts PageOptions) error {
	l := opts.Locale
	if l.strings == nil {
		l = LocaleFor(DefaultLocale)
	}
	t, err := pageTemplate.Clone()
	if err != nil {
		return err
	}
	t.Funcs(template.FuncMap{
		"msg": func(key string) template.HTML { return template.HTML(l.Get(key)) },
	})

	page := goalPage{
		Locale:     l.Tag,
		Title:      pd.GoalPrefix + ":" + m.Goal,
		FullName:   fmt.Sprintf("%s:%s:%s:%s", pd.GroupID, pd.ArtifactID, pd.Version, m.Goal),
		Attributes: goalAttributes(l, m),
	}
	page.Description = template.HTML(m.Description)
	if m.Description == "" {
		page.Description = template.HTML(l.Get("nodescription"))
	}
	if m.IsDeprecated {
		page.Deprecated = template.HTML(cmpOr(m.Deprecated, l.Get("noReason")))
	}
	for _, p := range sortedParameters(m.Parameters) {
		if !p.Editable {
			continue
		}
		pp := pageParameter{
			Name:        p.Name,
			Type:        rawType(p.Type),
			Since:       cmpOr(p.Since, cmpOr(m.Since, "-")),
			Required:    p.Required,
			Property:    property(p.Expression),
			Expression:  p.Expression,
			Default:     p.DefaultValue,
			Alias:       p.Alias,
			Description: template.HTML(cmpOr(p.Description, l.Get("nodescription"))),
		}
		pp.Summary = template.HTML(firstSentence(string(pp.Description)))
		if p.IsDeprecated {
			pp.Deprecated = template.HTML(cmpOr(p.Deprecated, l.Get("noReason")))
		}
		if opts.Links != nil && strings.Contains(p.Type, ".") {
			if u, err := opts.Links.CreateClassLink(pp.Type); err == nil {
				pp.TypeURL = u.String()
			} else {
				log.Debugf("no javadoc page for %s: %s", pp.Type, err)
			}
		}
		page.Parameters = append(page.Parameters, pp)
		if p.Required {
			page.Required = append(page.Required, pp)
		} else {
			page.Optional = append(page.Optional, pp)
		}
	}
	return t.Execute(w, page)
}

// goalAttributes lists the execution attributes of m in page order.
func goalAttributes(l Locale, m *extractor.MojoDescriptor) []template.HTML {
	var lines []string
	add := func(ok bool, key string, args ...string) {
		if !ok {
			return
		}
		for i, arg := range args {
			args[i] = template.HTMLEscapeString(arg)
		}
		lines = append(lines, l.Format(key, args...))
	}
	add(m.RequiresProject, "projectRequired")
	add(m.RequiresReports, "reportingMojo")
	add(m.Aggregator, "aggregator")
	add(m.RequiresDirectInvocation, "directInvocationOnly")
	add(m.RequiresDependencyResolution != "", "dependencyResolutionRequired", m.RequiresDependencyResolution)
	add(m.RequiresDependencyCollection != "", "dependencyCollectionRequired", m.RequiresDependencyCollection)
	add(m.ThreadSafe, "threadSafe")
	add(!m.ThreadSafe, "notThreadSafe")
	add(m.Since != "", "since", m.Since)
	add(m.DefaultPhase != "", "phase", m.DefaultPhase)
	add(m.ExecutePhase != "", "executePhase", m.ExecutePhase)
	add(m.ExecuteGoal != "", "executeGoal", m.ExecuteGoal)
	add(m.ExecuteLifecycle != "", "executeLifecycle", m.ExecuteLifecycle)
	add(m.RequiresOnline, "onlineRequired")
	add(!m.InheritedByDefault, "inheritedByDefault")

	out := make([]template.HTML, len(lines))
	for i, line := range lines {
		out[i] = template.HTML(line)
	}
	return out
}

// property extracts name from an expression of the form ${name}.
func property(expression string) string {
	if strings.HasPrefix(expression, "${") && strings.HasSuffix(expression, "}") && strings.Count(expression, "${") == 1 {
		return expression[2 : len(expression)-1]
	}
	return ""
}

// firstSentence cuts an XHTML snippet after the first period that is
// followed by whitespace and not inside a tag.
func firstSentence(xhtml string) string {
	inTag := false
	for i := 0; i < len(xhtml); i++ {
		switch c := xhtml[i]; {
		case c == '<':
			inTag = true
		case c == '>':
			inTag = false
		case c == '.' && !inTag:
			if i+1 == len(xhtml) {
				return xhtml
			}
			if next := xhtml[i+1]; next == ' ' || next == '\n' || next == '\t' || next == '<' && strings.HasPrefix(xhtml[i+1:], "<p") {
				return converter.Tidy(xhtml[:i+1])
			}
		}
	}
	return xhtml
}
