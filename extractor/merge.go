package extractor

import (
	"fmt"
	"strings"
)

// Hierarchy holds the scanned classes of one run by name.
type Hierarchy struct {
	classes map[string]*ScannedClass
	order   []*ScannedClass
}

// NewHierarchy indexes classes. A later record replaces an earlier one with
// the same name.
func NewHierarchy(classes ...[]*ScannedClass) *Hierarchy {
	h := &Hierarchy{classes: map[string]*ScannedClass{}}
	for _, list := range classes {
		for _, sc := range list {
			if _, exists := h.classes[sc.Name]; !exists {
				h.order = append(h.order, sc)
			} else {
				for i := range h.order {
					if h.order[i].Name == sc.Name {
						h.order[i] = sc
					}
				}
			}
			h.classes[sc.Name] = sc
		}
	}
	return h
}

func (h *Hierarchy) Lookup(name string) (*ScannedClass, bool) {
	sc, ok := h.classes[name]
	return sc, ok
}

func (h *Hierarchy) Classes() []*ScannedClass {
	return h.order
}

// Goals returns the classes declaring a goal, in scan order.
func (h *Hierarchy) Goals() []*ScannedClass {
	var goals []*ScannedClass
	for _, sc := range h.order {
		if sc.IsGoal() {
			goals = append(goals, sc)
		}
	}
	return goals
}

// GoalNames maps the canonical names of goal classes to their goals.
func (h *Hierarchy) GoalNames() map[string]string {
	names := map[string]string{}
	for _, sc := range h.Goals() {
		names[sc.Name] = sc.Mojo.Goal
	}
	return names
}

// Superclasses that end every plugin hierarchy and are never scanned.
var hierarchyRoots = map[string]bool{
	"java.lang.Object":                               true,
	"org.apache.maven.plugin.AbstractMojo":           true,
	"org.apache.maven.reporting.AbstractMavenReport": true,
}

// Ancestors returns the named class followed by its superclasses, nearest
// first. The walk stops at a cycle or at the first superclass that was
// not scanned; the name of that opaque ancestor is returned too.
func (h *Hierarchy) Ancestors(name string) (chain []*ScannedClass, opaque string) {
	visited := map[string]bool{}
	for current, ok := h.classes[name]; ok; current, ok = h.classes[current.SuperClass] {
		if visited[current.Name] {
			log.Warningf("class hierarchy cycle at %s", current.Name)
			return chain, ""
		}
		visited[current.Name] = true
		chain = append(chain, current)
		if current.SuperClass == "" {
			return chain, ""
		}
		if _, known := h.classes[current.SuperClass]; !known {
			return chain, current.SuperClass
		}
	}
	return chain, ""
}

// Build merges every goal class with its superclasses into a descriptor.
func Build(h *Hierarchy) ([]*MojoDescriptor, error) {
	var out []*MojoDescriptor
	for _, sc := range h.Goals() {
		d, err := BuildGoal(h, sc)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// BuildGoal builds the descriptor of one goal class. Parameters and
// components are collected over the superclass chain, ancestors first,
// with the declarations of a subclass replacing those of its parents.
func BuildGoal(h *Hierarchy, sc *ScannedClass) (*MojoDescriptor, error) {
	if sc.Mojo.Goal == "" {
		return nil, &DescriptorError{Class: sc.Name, Err: fmt.Errorf("%w: no goal name", ErrInvalidDescriptor)}
	}
	d := *sc.Mojo
	d.Parameters, d.Requirements = nil, nil

	chain, opaque := h.Ancestors(sc.Name)
	switch {
	case opaque == "":
	case hierarchyRoots[opaque]:
		log.Debugf("%s: hierarchy ends at %s", sc.Name, opaque)
	default:
		log.Warningf("%s: superclass %s was not scanned, parameters it declares are missing", sc.Name, opaque)
	}

	if docs := sc.Docs; docs != nil {
		d.Description = docs.Class.Description
		if d.Since == "" {
			d.Since = docs.Class.Since
		}
		if docs.Class.IsDeprecated {
			d.IsDeprecated = true
			if d.Deprecated == "" {
				d.Deprecated = docs.Class.Deprecated
			}
		}
	}

	for _, c := range chain {
		if c.Execute == nil {
			continue
		}
		if err := validateExecute(c.Execute); err != nil {
			return nil, &DescriptorError{Class: sc.Name, Goal: d.Goal, Err: err}
		}
		d.ExecutePhase, d.ExecuteGoal, d.ExecuteLifecycle = c.Execute.Phase, c.Execute.Goal, c.Execute.Lifecycle
		break
	}

	for _, pf := range mergeParameters(chain) {
		p, err := toParameter(&d, pf, sc.Docs)
		if err != nil {
			return nil, err
		}
		if err := d.addParameter(p); err != nil {
			return nil, err
		}
	}
	for _, cf := range mergeComponents(chain) {
		if expr, injected := mavenObjects[cf.Role]; injected {
			return nil, &DescriptorError{Class: sc.Name, Goal: d.Goal, Parameter: cf.FieldName,
				Err: fmt.Errorf("%w: %s must not be injected as a component, use @Parameter(defaultValue = \"%s\", readonly = true) instead",
					ErrInvalidParameter, cf.Role, expr)}
		}
		d.Requirements = append(d.Requirements, &Requirement{Role: cf.Role, RoleHint: cf.Hint, FieldName: cf.FieldName})
	}
	return &d, nil
}

// Objects injected by Maven itself, with the expression to use instead.
var mavenObjects = map[string]string{
	"org.apache.maven.execution.MavenSession":             "${session}",
	"org.apache.maven.project.MavenProject":               "${project}",
	"org.apache.maven.plugin.MojoExecution":               "${mojoExecution}",
	"org.apache.maven.plugin.descriptor.PluginDescriptor": "${plugin}",
	"org.apache.maven.settings.Settings":                  "${settings}",
}

func mergeParameters(chain []*ScannedClass) []*ParameterField {
	pos := map[string]int{}
	var out []*ParameterField
	for i := len(chain) - 1; i >= 0; i-- {
		for _, pf := range chain[i].Parameters {
			if j, ok := pos[pf.FieldName]; ok {
				out[j] = pf
				continue
			}
			pos[pf.FieldName] = len(out)
			out = append(out, pf)
		}
	}
	return out
}

func mergeComponents(chain []*ScannedClass) []*ComponentField {
	pos := map[string]int{}
	var out []*ComponentField
	for i := len(chain) - 1; i >= 0; i-- {
		for _, cf := range chain[i].Components {
			if j, ok := pos[cf.FieldName]; ok {
				out[j] = cf
				continue
			}
			pos[cf.FieldName] = len(out)
			out = append(out, cf)
		}
	}
	return out
}

func toParameter(d *MojoDescriptor, pf *ParameterField, docs *ClassDocs) (*Parameter, error) {
	p := &Parameter{
		Name:           pf.Name,
		Alias:          pf.Alias,
		Type:           pf.Type,
		Required:       pf.Required,
		Editable:       !pf.Readonly,
		Expression:     pf.Expression,
		DefaultValue:   pf.DefaultValue,
		Implementation: pf.Implementation,
		Description:    pf.Description,
		Since:          pf.Since,
		Deprecated:     pf.Deprecated,
		IsDeprecated:   pf.IsDeprecated,
		FieldName:      pf.FieldName,
		Setter:         pf.Setter,
	}
	if p.Name == "" {
		p.Name = pf.FieldName
	}
	if pf.Property != "" {
		if strings.ContainsAny(pf.Property, "${}") {
			return nil, &DescriptorError{Class: d.Implementation, Goal: d.Goal, Parameter: p.Name,
				Err: fmt.Errorf("%w: property %q must not contain '$', '{' or '}'", ErrInvalidParameter, pf.Property)}
		}
		p.Expression = "${" + pf.Property + "}"
	}
	if p.Expression == "${reports}" {
		d.RequiresReports = true
	}
	if doc, ok := docs.field(pf.FieldName); ok {
		p.Description = doc.Description
		if doc.Since != "" {
			p.Since = doc.Since
		}
		if doc.IsDeprecated {
			p.IsDeprecated = true
			if doc.Deprecated != "" {
				p.Deprecated = doc.Deprecated
			}
		}
	}
	return p, nil
}
