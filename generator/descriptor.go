// Package generator writes goal descriptors as plugin.xml files, per-goal
// documentation pages and YAML.
package generator

import (
	"encoding/xml"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/plugintools/converter"
	"github.com/dhamidi/plugintools/docsite"
	"github.com/dhamidi/plugintools/extractor"
)

var log = commonlog.GetLogger("plugintools.generator")

// DescriptorType selects how descriptions are written.
type DescriptorType int

const (
	// Standard descriptors carry plain text descriptions.
	Standard DescriptorType = iota
	// XHTML descriptors carry XHTML descriptions and javadoc links for
	// parameter types.
	XHTML
)

const (
	noReasonGiven = "No reason given"
)

// Tool is written into the header comment of every descriptor.
var Tool = "plugintools"

type descriptorWriter struct {
	enc   *xml.Encoder
	typ   DescriptorType
	links *docsite.LinkGenerator
	err   error
}

// WriteDescriptor writes pd as a plugin descriptor. links may be nil; it is
// only used for XHTML descriptors.
func WriteDescriptor(w io.Writer, pd *extractor.PluginDescriptor, typ DescriptorType, links *docsite.LinkGenerator) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	dw := &descriptorWriter{enc: xml.NewEncoder(w), typ: typ, links: links}
	dw.enc.Indent("", "  ")
	dw.token(xml.Comment(" Generated by " + Tool + " "))
	dw.start("plugin")
	dw.element("name", pd.Name)
	dw.element("description", pd.Description)
	dw.element("groupId", pd.GroupID)
	dw.element("artifactId", pd.ArtifactID)
	dw.element("version", pd.Version)
	dw.element("goalPrefix", pd.GoalPrefix)
	dw.element("isolatedRealm", strconv.FormatBool(pd.IsolatedRealm))
	dw.element("inheritedByDefault", strconv.FormatBool(pd.InheritedByDefault))
	dw.optional("requiredJavaVersion", pd.RequiredJavaVersion)
	dw.optional("requiredMavenVersion", pd.RequiredMavenVersion)

	dw.start("mojos")
	for _, m := range sortedMojos(pd.Mojos) {
		dw.mojo(m)
	}
	dw.end("mojos")

	dw.start("dependencies")
	for _, d := range pd.Dependencies {
		dw.start("dependency")
		dw.element("groupId", d.GroupID)
		dw.element("artifactId", d.ArtifactID)
		dw.element("type", cmpOr(d.Type, "jar"))
		dw.element("version", d.Version)
		dw.end("dependency")
	}
	dw.end("dependencies")
	dw.end("plugin")
	if dw.err != nil {
		return dw.err
	}
	if err := dw.enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func (dw *descriptorWriter) token(t xml.Token) {
	if dw.err == nil {
		dw.err = dw.enc.EncodeToken(t)
	}
}

func (dw *descriptorWriter) start(name string) {
	dw.token(xml.StartElement{Name: xml.Name{Local: name}})
}

func (dw *descriptorWriter) end(name string) {
	dw.token(xml.EndElement{Name: xml.Name{Local: name}})
}

func (dw *descriptorWriter) element(name, value string) {
	dw.start(name)
	if value != "" {
		dw.token(xml.CharData(value))
	}
	dw.end(name)
}

func (dw *descriptorWriter) optional(name, value string) {
	if value != "" {
		dw.element(name, value)
	}
}

// text converts an XHTML description for the descriptor type.
func (dw *descriptorWriter) text(xhtml string) string {
	if dw.typ == XHTML {
		return xhtml
	}
	return converter.PlainText(xhtml)
}

func (dw *descriptorWriter) mojo(m *extractor.MojoDescriptor) {
	dw.start("mojo")
	dw.element("goal", m.Goal)
	if m.Description != "" {
		dw.element("description", dw.text(m.Description))
	}
	dw.optional("requiresDependencyResolution", m.RequiresDependencyResolution)
	dw.element("requiresDirectInvocation", strconv.FormatBool(m.RequiresDirectInvocation))
	dw.element("requiresProject", strconv.FormatBool(m.RequiresProject))
	dw.element("requiresReports", strconv.FormatBool(m.RequiresReports))
	dw.element("aggregator", strconv.FormatBool(m.Aggregator))
	dw.element("requiresOnline", strconv.FormatBool(m.RequiresOnline))
	dw.element("inheritedByDefault", strconv.FormatBool(m.InheritedByDefault))
	dw.optional("phase", m.DefaultPhase)
	dw.optional("executePhase", m.ExecutePhase)
	dw.optional("executeGoal", m.ExecuteGoal)
	dw.optional("executeLifecycle", m.ExecuteLifecycle)
	dw.element("implementation", m.Implementation)
	dw.element("language", m.Language)
	dw.optional("configurator", m.Configurator)
	dw.element("instantiationStrategy", m.InstantiationStrategy)
	dw.element("executionStrategy", m.ExecutionStrategy)
	dw.optional("since", m.Since)
	if m.IsDeprecated {
		dw.element("deprecated", cmpOr(dw.text(m.Deprecated), noReasonGiven))
	}
	dw.optional("requiresDependencyCollection", m.RequiresDependencyCollection)
	dw.element("threadSafe", strconv.FormatBool(m.ThreadSafe))

	params := sortedParameters(m.Parameters)
	dw.start("parameters")
	for _, p := range params {
		dw.parameter(m, p)
	}
	dw.end("parameters")

	var configured []*extractor.Parameter
	for _, p := range params {
		if p.DefaultValue != "" || p.Expression != "" {
			configured = append(configured, p)
		}
	}
	if len(configured) > 0 {
		dw.start("configuration")
		for _, p := range configured {
			start := xml.StartElement{Name: xml.Name{Local: p.Name}}
			if t := rawType(p.Type); t != "" {
				start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "implementation"}, Value: t})
			}
			if p.DefaultValue != "" {
				start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "default-value"}, Value: p.DefaultValue})
			}
			dw.token(start)
			if p.Expression != "" {
				dw.token(xml.CharData(p.Expression))
			}
			dw.token(start.End())
		}
		dw.end("configuration")
	}

	if len(m.Requirements) > 0 {
		dw.start("requirements")
		for _, r := range m.Requirements {
			dw.start("requirement")
			dw.element("role", r.Role)
			dw.optional("role-hint", r.RoleHint)
			dw.element("field-name", r.FieldName)
			dw.end("requirement")
		}
		dw.end("requirements")
	}
	dw.end("mojo")
}

func (dw *descriptorWriter) parameter(m *extractor.MojoDescriptor, p *extractor.Parameter) {
	dw.start("parameter")
	dw.element("name", p.Name)
	dw.optional("alias", p.Alias)
	if dw.typ == Standard {
		dw.element("type", rawType(p.Type))
	} else {
		dw.element("type", p.Type)
		if u := dw.typeURL(m, p); u != "" {
			dw.element("typeJavadocUrl", u)
		}
	}
	dw.optional("since", p.Since)
	if p.IsDeprecated {
		dw.element("deprecated", cmpOr(dw.text(p.Deprecated), noReasonGiven))
	}
	dw.optional("implementation", p.Implementation)
	dw.element("required", strconv.FormatBool(p.Required))
	dw.element("editable", strconv.FormatBool(p.Editable))
	dw.element("description", dw.text(p.Description))
	dw.end("parameter")
}

// typeURL links the parameter type into a javadoc site. Primitives and
// types no site covers get no link.
func (dw *descriptorWriter) typeURL(m *extractor.MojoDescriptor, p *extractor.Parameter) string {
	if dw.links == nil || !strings.Contains(p.Type, ".") {
		return ""
	}
	u, err := dw.links.CreateClassLink(rawType(p.Type))
	if err != nil {
		log.Warningf("could not get javadoc URL for type %s of parameter %s from goal %s: %s", p.Type, p.Name, m.Goal, err)
		return ""
	}
	return u.String()
}

// rawType drops type arguments.
func rawType(t string) string {
	if i := strings.IndexByte(t, '<'); i >= 0 {
		return t[:i]
	}
	return t
}

func sortedMojos(mojos []*extractor.MojoDescriptor) []*extractor.MojoDescriptor {
	out := slices.Clone(mojos)
	slices.SortStableFunc(out, func(a, b *extractor.MojoDescriptor) int {
		return strings.Compare(a.Goal, b.Goal)
	})
	return out
}

func sortedParameters(params []*extractor.Parameter) []*extractor.Parameter {
	out := slices.Clone(params)
	slices.SortStableFunc(out, func(a, b *extractor.Parameter) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

func cmpOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// DescriptorFileName is the file a descriptor of typ is written to.
func DescriptorFileName(typ DescriptorType) string {
	switch typ {
	case XHTML:
		return "plugin-enhanced.xml"
	case Standard:
		return "plugin.xml"
	}
	panic(fmt.Sprintf("unknown descriptor type %d", typ))
}
