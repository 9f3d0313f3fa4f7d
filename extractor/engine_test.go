package extractor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSources(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

const classBSource = `package test;

/**
 * Base class of the test goals.
 *
 * @since 1.0
 */
public abstract class ClassB {
    /**
     * Parent description.
     *
     * @parameter default-value="parent"
     */
    protected String value;

    /**
     * The encoding of written files.
     *
     * @parameter property="test.encoding" default-value="UTF-8"
     * @since 1.1
     */
    protected String encoding;
}
`

const someMojoSource = `package test;

/**
 * Runs the test goal. See {@link #value} for details.
 *
 * @goal test
 * @phase process-sources
 * @requiresDependencyResolution
 * @threadSafe
 */
public class SomeMojo extends ClassB {
    /**
     * Child description with {@code code}.
     *
     * @parameter property="test.value"
     * @required
     */
    private String value;
}
`

func TestEngineJavadocVariant(t *testing.T) {
	src := writeSources(t, map[string]string{
		"test/ClassB.java":   classBSource,
		"test/SomeMojo.java": someMojoSource,
	})
	e, err := NewEngine(EngineOptions{
		SourceRoots: []string{src},
		Extractors:  []string{VariantJavadoc},
	})
	require.NoError(t, err)
	defer e.Close()

	descriptors, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseDescriptorsBuilt, e.Phase())
	require.Len(t, descriptors, 1)

	d := descriptors[0]
	assert.Equal(t, "test", d.Goal)
	assert.Equal(t, "test.SomeMojo", d.Implementation)
	assert.Equal(t, "process-sources", d.DefaultPhase)
	assert.Equal(t, "runtime", d.RequiresDependencyResolution)
	assert.True(t, d.ThreadSafe)
	assert.Contains(t, d.Description, "Runs the test goal.")
	assert.Contains(t, d.Description, `<a href="#value">`)
	assert.Equal(t, "1.0", d.Since)

	require.Len(t, d.Parameters, 2)
	value := parameter(t, d, "value")
	assert.Equal(t, "Child description with <code>code</code>.", value.Description)
	assert.Equal(t, "${test.value}", value.Expression)
	assert.True(t, value.Required)
	assert.Empty(t, value.DefaultValue)

	encoding := parameter(t, d, "encoding")
	assert.Equal(t, "The encoding of written files.", encoding.Description)
	assert.Equal(t, "UTF-8", encoding.DefaultValue)
	assert.Equal(t, "1.1", encoding.Since)
}

func TestEngineAnnotationVariantWithSources(t *testing.T) {
	classes := writeClasses(t, baseMojoClass(), touchMojoClass())
	src := writeSources(t, map[string]string{
		"org/example/TouchMojo.java": `package org.example;

/** Touches a file. */
public class TouchMojo extends AbstractTouchMojo {
    /** Where to write. */
    private java.io.File outputDirectory;

    /**
     * Sets the items.
     * @deprecated use {@link #outputDirectory}
     */
    public void setItems(String[] items) {
    }
}
`,
	})
	e, err := NewEngine(EngineOptions{
		ClassesDirs: []string{classes},
		SourceRoots: []string{src},
		Extractors:  []string{VariantAnnotations},
	})
	require.NoError(t, err)
	defer e.Close()

	descriptors, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	d := descriptors[0]
	assert.Equal(t, "Touches a file.", d.Description)
	assert.Equal(t, "Where to write.", parameter(t, d, "outputDirectory").Description)

	items := parameter(t, d, "items")
	assert.Equal(t, "Sets the items.", items.Description)
	assert.True(t, items.IsDeprecated)
	assert.Contains(t, items.Deprecated, `<a href="#outputDirectory">`)
	assert.Empty(t, parameter(t, d, "encoding").Description)
}

func TestEnginePhaseOrder(t *testing.T) {
	e, err := NewEngine(EngineOptions{Extractors: []string{VariantAnnotations}})
	require.NoError(t, err)
	defer e.Close()
	ctx := context.Background()

	assert.ErrorIs(t, e.BuildDescriptors(ctx), ErrPhaseOrder)
	assert.ErrorIs(t, e.LoadSources(ctx), ErrPhaseOrder)
	assert.Equal(t, PhaseNotStarted, e.Phase())

	require.NoError(t, e.ScanAnnotations(ctx))
	assert.ErrorIs(t, e.ScanAnnotations(ctx), ErrPhaseOrder)
	assert.ErrorIs(t, e.MergeDocumentation(ctx), ErrPhaseOrder)

	descriptors, err := e.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, descriptors)
	assert.Equal(t, PhaseDescriptorsBuilt, e.Phase())
	assert.ErrorIs(t, e.LoadSources(ctx), ErrPhaseOrder)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "DOCUMENTATION_MERGED", PhaseDocumentationMerged.String())
	assert.Equal(t, "Phase(9)", Phase(9).String())
}

func TestEngineTagErrors(t *testing.T) {
	src := writeSources(t, map[string]string{
		"p/Bad.java": `package p;

/**
 * @goal bad
 * @execute phase=compile goal=other
 */
public class Bad {
}
`,
	})
	e, err := NewEngine(EngineOptions{SourceRoots: []string{src}, Extractors: []string{VariantJavadoc}})
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Run(context.Background())
	require.ErrorIs(t, err, ErrInvalidDescriptor)
	assert.Equal(t, PhaseNotStarted, e.Phase())
}

func TestCombine(t *testing.T) {
	plain := &ScannedClass{Name: "p.A"}
	tagged := goalClass("p.A", "", "a")
	other := &ScannedClass{Name: "p.B"}
	annotated := goalClass("p.C", "", "c")

	out := combine([]*ScannedClass{plain, annotated}, []*ScannedClass{tagged, other, &ScannedClass{Name: "p.C"}})
	require.Len(t, out, 3)
	assert.Same(t, tagged, out[0])
	assert.Same(t, annotated, out[1])
	assert.Same(t, other, out[2])
}
