package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/plugintools/pom"
)

func goalClass(name, super, goal string, params ...*ParameterField) *ScannedClass {
	m := &MojoDescriptor{
		Goal:                  goal,
		Implementation:        name,
		Language:              Language,
		InstantiationStrategy: DefaultInstantiationStrategy,
		ExecutionStrategy:     DefaultExecutionStrategy,
		RequiresProject:       true,
		InheritedByDefault:    true,
	}
	return &ScannedClass{Name: name, SuperClass: super, Mojo: m, Parameters: params}
}

func parameter(t *testing.T, d *MojoDescriptor, name string) *Parameter {
	t.Helper()
	p, ok := d.Parameter(name)
	require.True(t, ok, "parameter %s", name)
	return p
}

func TestBuildWithoutAncestors(t *testing.T) {
	sc := goalClass("org.example.TouchMojo", "", "touch",
		&ParameterField{FieldName: "outputDirectory", Type: "java.io.File", Property: "touch.out", Required: true},
		&ParameterField{FieldName: "items", Type: "java.lang.String[]", Name: "entries", Setter: true},
		&ParameterField{FieldName: "skip", Type: "boolean", Readonly: true},
	)
	d, err := BuildGoal(NewHierarchy([]*ScannedClass{sc}), sc)
	require.NoError(t, err)

	var names []string
	for _, p := range d.Parameters {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"outputDirectory", "entries", "skip"}, names)

	out := parameter(t, d, "outputDirectory")
	assert.Equal(t, "${touch.out}", out.Expression)
	assert.True(t, out.Required)
	assert.True(t, out.Editable)
	assert.False(t, parameter(t, d, "skip").Editable)
	assert.Equal(t, "items", parameter(t, d, "entries").FieldName)
	assert.Empty(t, sc.Mojo.Parameters, "building must not modify the scanned record")
}

func TestBuildChildOverridesParent(t *testing.T) {
	parent := &ScannedClass{
		Name: "test.ClassB",
		Parameters: []*ParameterField{
			{FieldName: "value", Type: "java.lang.String", Description: "Parent description.", Since: "1.0"},
			{FieldName: "encoding", Type: "java.lang.String", DefaultValue: "UTF-8"},
		},
	}
	child := goalClass("test.SomeMojo", "test.ClassB", "test",
		&ParameterField{FieldName: "value", Type: "java.lang.String", Description: "Child description."},
	)
	h := NewHierarchy([]*ScannedClass{parent, child})

	d, err := BuildGoal(h, child)
	require.NoError(t, err)
	require.Len(t, d.Parameters, 2)
	assert.Equal(t, "value", d.Parameters[0].Name)
	assert.Equal(t, "Child description.", d.Parameters[0].Description)
	assert.Empty(t, d.Parameters[0].Since)
	assert.Equal(t, "UTF-8", parameter(t, d, "encoding").DefaultValue)
}

func TestBuildOpaqueAncestor(t *testing.T) {
	child := goalClass("test.SomeMojo", "test.ClassB", "test",
		&ParameterField{FieldName: "value", Type: "java.lang.String"},
	)
	h := NewHierarchy([]*ScannedClass{child})

	chain, opaque := h.Ancestors("test.SomeMojo")
	assert.Len(t, chain, 1)
	assert.Equal(t, "test.ClassB", opaque)

	d, err := BuildGoal(h, child)
	require.NoError(t, err)
	assert.Len(t, d.Parameters, 1)
}

func TestAncestorsStopsAtCycle(t *testing.T) {
	a := &ScannedClass{Name: "p.A", SuperClass: "p.B"}
	b := &ScannedClass{Name: "p.B", SuperClass: "p.A"}
	chain, opaque := NewHierarchy([]*ScannedClass{a, b}).Ancestors("p.A")
	assert.Len(t, chain, 2)
	assert.Empty(t, opaque)
}

func TestBuildDocumentationOverlay(t *testing.T) {
	sc := goalClass("org.example.TouchMojo", "", "touch",
		&ParameterField{FieldName: "outputDirectory", Type: "java.io.File"},
	)
	sc.Mojo.Since = "2.0"
	sc.Docs = &ClassDocs{
		Class: Doc{Description: "Touches a file.", Since: "1.0", IsDeprecated: true, Deprecated: "Use <code>copy</code>."},
		Fields: map[string]Doc{
			"outputDirectory": {Description: "Where to write.", Since: "1.1"},
		},
	}
	d, err := BuildGoal(NewHierarchy([]*ScannedClass{sc}), sc)
	require.NoError(t, err)
	assert.Equal(t, "Touches a file.", d.Description)
	assert.Equal(t, "2.0", d.Since)
	assert.True(t, d.IsDeprecated)
	assert.Equal(t, "Use <code>copy</code>.", d.Deprecated)
	assert.Equal(t, "Where to write.", parameter(t, d, "outputDirectory").Description)
	assert.Equal(t, "1.1", parameter(t, d, "outputDirectory").Since)
}

func TestBuildExecuteFromAncestor(t *testing.T) {
	parent := &ScannedClass{Name: "p.Base", Execute: &Execute{Phase: "generate-sources", Lifecycle: "gen"}}
	child := goalClass("p.Child", "p.Base", "run")
	d, err := BuildGoal(NewHierarchy([]*ScannedClass{parent, child}), child)
	require.NoError(t, err)
	assert.Equal(t, "generate-sources", d.ExecutePhase)
	assert.Equal(t, "gen", d.ExecuteLifecycle)

	parent.Execute = &Execute{Phase: "compile", Goal: "other"}
	_, err = BuildGoal(NewHierarchy([]*ScannedClass{parent, child}), child)
	assert.ErrorIs(t, err, ErrInvalidDescriptor)
}

func TestBuildRequiresReports(t *testing.T) {
	sc := goalClass("p.Report", "", "report",
		&ParameterField{FieldName: "reports", Type: "java.util.List", Expression: "${reports}"},
	)
	d, err := BuildGoal(NewHierarchy([]*ScannedClass{sc}), sc)
	require.NoError(t, err)
	assert.True(t, d.RequiresReports)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name      string
		class     *ScannedClass
		sentinel  error
		parameter string
	}{
		{
			name: "duplicate parameter name",
			class: goalClass("p.Dup", "", "dup",
				&ParameterField{FieldName: "a", Name: "target"},
				&ParameterField{FieldName: "b", Name: "target"},
			),
			sentinel:  ErrDuplicateParameter,
			parameter: "target",
		},
		{
			name: "property with expression characters",
			class: goalClass("p.Prop", "", "prop",
				&ParameterField{FieldName: "a", Property: "${bad}"},
			),
			sentinel:  ErrInvalidParameter,
			parameter: "a",
		},
		{
			name:     "missing goal name",
			class:    goalClass("p.Nameless", "", ""),
			sentinel: ErrInvalidDescriptor,
		},
		{
			name: "maven object as component",
			class: func() *ScannedClass {
				sc := goalClass("p.Session", "", "session")
				sc.Components = []*ComponentField{{FieldName: "session", Role: "org.apache.maven.execution.MavenSession"}}
				return sc
			}(),
			sentinel:  ErrInvalidParameter,
			parameter: "session",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildGoal(NewHierarchy([]*ScannedClass{tt.class}), tt.class)
			require.ErrorIs(t, err, tt.sentinel)
			var de *DescriptorError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.class.Name, de.Class)
			assert.Equal(t, tt.parameter, de.Parameter)
		})
	}
}

func TestBuildComponents(t *testing.T) {
	parent := &ScannedClass{Name: "p.Base", Components: []*ComponentField{
		{FieldName: "archiver", Role: "org.codehaus.plexus.archiver.Archiver", Hint: "zip"},
	}}
	child := goalClass("p.Child", "p.Base", "pack")
	child.Components = []*ComponentField{
		{FieldName: "archiver", Role: "org.codehaus.plexus.archiver.Archiver", Hint: "jar"},
	}
	d, err := BuildGoal(NewHierarchy([]*ScannedClass{parent, child}), child)
	require.NoError(t, err)
	require.Len(t, d.Requirements, 1)
	assert.Equal(t, Requirement{Role: "org.codehaus.plexus.archiver.Archiver", RoleHint: "jar", FieldName: "archiver"}, *d.Requirements[0])
}

func TestHierarchyReplacesEarlierRecords(t *testing.T) {
	coord := pom.Coordinate{GroupID: "g", ArtifactID: "a", Version: "1"}
	dep := &ScannedClass{Name: "p.A", Artifact: &coord}
	own := goalClass("p.A", "", "a")
	h := NewHierarchy([]*ScannedClass{dep}, []*ScannedClass{own})
	require.Len(t, h.Classes(), 1)
	got, ok := h.Lookup("p.A")
	require.True(t, ok)
	assert.Same(t, own, got)
	assert.Equal(t, map[string]string{"p.A": "a"}, h.GoalNames())
}

func TestDefaultGoalPrefix(t *testing.T) {
	for artifact, want := range map[string]string{
		"maven-compiler-plugin": "compiler",
		"touch-maven-plugin":    "touch",
		"exec-plugin":           "exec",
		"tool":                  "tool",
	} {
		assert.Equal(t, want, DefaultGoalPrefix(artifact), artifact)
	}
}
