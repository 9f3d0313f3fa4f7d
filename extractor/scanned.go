package extractor

import (
	"github.com/dhamidi/plugintools/java"
	"github.com/dhamidi/plugintools/pom"
)

// ScannedClass is the goal metadata found in one class, before it is
// merged with its superclasses. Classes without goal metadata are
// recorded too, since they link goals to their ancestors.
type ScannedClass struct {
	Name       string
	SuperClass string
	Model      *java.ClassModel
	// Artifact is the dependency the class was read from, nil for the
	// classes of the plugin itself.
	Artifact *pom.Coordinate
	// Variant is the metadata source: java-annotations or java-javadoc.
	Variant string

	// Mojo holds the goal level attributes, nil when the class is not a
	// goal.
	Mojo       *MojoDescriptor
	Execute    *Execute
	Parameters []*ParameterField
	Components []*ComponentField

	// Docs is filled when documentation is merged.
	Docs *ClassDocs
}

func (c *ScannedClass) IsGoal() bool {
	return c.Mojo != nil
}

type Execute struct {
	Phase     string
	Goal      string
	Lifecycle string
}

// ParameterField is a field or setter declaring a goal parameter.
type ParameterField struct {
	FieldName      string
	Type           string
	Name           string
	Alias          string
	Property       string
	Expression     string
	DefaultValue   string
	Implementation string
	Required       bool
	Readonly       bool
	Setter         bool
	IsDeprecated   bool
	Deprecated     string
	Since          string
	Description    string
	Line           int
}

// ComponentField is a field the container injects a component into.
type ComponentField struct {
	FieldName    string
	Type         string
	Role         string
	Hint         string
	IsDeprecated bool
	Deprecated   string
	Since        string
	Description  string
	Line         int
}

// Doc is converted documentation of a class or member.
type Doc struct {
	Description  string
	Since        string
	Deprecated   string
	IsDeprecated bool
}

// ClassDocs is the documentation of a goal and of every parameter and
// component visible to it, keyed by field name.
type ClassDocs struct {
	Class  Doc
	Fields map[string]Doc
}

func (d *ClassDocs) field(name string) (Doc, bool) {
	if d == nil {
		return Doc{}, false
	}
	doc, ok := d.Fields[name]
	return doc, ok
}
