package extractor

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dhamidi/plugintools/java"
	"github.com/dhamidi/plugintools/metrics"
	"github.com/dhamidi/plugintools/project"
)

// Phase is the progress of an Engine. Phases are passed strictly in order.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseAnnotationsScanned
	PhaseSourcesLoaded
	PhaseDocumentationMerged
	PhaseDescriptorsBuilt
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "NOT_STARTED"
	case PhaseAnnotationsScanned:
		return "ANNOTATIONS_SCANNED"
	case PhaseSourcesLoaded:
		return "SOURCES_LOADED"
	case PhaseDocumentationMerged:
		return "DOCUMENTATION_MERGED"
	case PhaseDescriptorsBuilt:
		return "DESCRIPTORS_BUILT"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

type EngineOptions struct {
	ClassesDirs  []string
	Dependencies []Dependency
	// Include holds class file glob patterns, see AnnotationScannerOptions.
	Include []string
	// SourceRoots are the plugin's own Java sources.
	SourceRoots []string
	// Extractors selects the metadata variants. Empty means both.
	Extractors []string
	// Sources, if set, finds the sources of ancestors read from
	// dependencies.
	Sources       *SourcesLoader
	Documentation DocumentationOptions
	// PlatformClassPath holds the JDK's jmod files or rt.jar. Its classes
	// resolve references but are never scanned for goals.
	PlatformClassPath []string
	// Parallelism bounds concurrent source parsing. Zero means 4.
	Parallelism int
}

// Engine runs one extraction: scan classes, load sources, merge
// documentation and build descriptors. An Engine is not reusable.
type Engine struct {
	opts        EngineOptions
	phase       Phase
	classPath   *java.ClassPath
	index       *java.Index
	parsed      map[string]bool
	hierarchy   *Hierarchy
	descriptors []*MojoDescriptor
}

func NewEngine(opts EngineOptions) (*Engine, error) {
	var entries []string
	for _, dir := range opts.ClassesDirs {
		if _, err := os.Stat(dir); err == nil {
			entries = append(entries, dir)
		}
	}
	for _, dep := range opts.Dependencies {
		entries = append(entries, dep.Path)
	}
	entries = append(entries, opts.PlatformClassPath...)
	cp, err := java.NewClassPath(entries...)
	if err != nil {
		return nil, fmt.Errorf("open class path: %w", err)
	}
	index := java.NewIndex(cp)
	if links := opts.Documentation.Links; links != nil {
		index.SetExternalPackages(links.DocumentsExternalPackage)
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = 4
	}
	if len(opts.Extractors) == 0 {
		opts.Extractors = []string{VariantAnnotations, VariantJavadoc}
	}
	return &Engine{
		opts:      opts,
		classPath: cp,
		index:     index,
		parsed:    map[string]bool{},
	}, nil
}

func (e *Engine) Close() error {
	return e.classPath.Close()
}

func (e *Engine) Phase() Phase {
	return e.phase
}

// Index holds every parsed source class, backed by the class path.
func (e *Engine) Index() *java.Index {
	return e.index
}

func (e *Engine) Hierarchy() *Hierarchy {
	return e.hierarchy
}

func (e *Engine) Descriptors() []*MojoDescriptor {
	return e.descriptors
}

func (e *Engine) enabled(variant string) bool {
	return slices.Contains(e.opts.Extractors, variant)
}

func (e *Engine) advance(from, to Phase, run func() error) error {
	if e.phase != from {
		return fmt.Errorf("%w: cannot enter %s from %s", ErrPhaseOrder, to, e.phase)
	}
	start := time.Now()
	if err := run(); err != nil {
		return err
	}
	metrics.PhaseDuration.WithLabelValues(to.String()).Observe(time.Since(start).Seconds())
	e.phase = to
	log.Infof("extraction phase %s done in %s", to, time.Since(start).Round(time.Millisecond))
	return nil
}

// Run passes every remaining phase.
func (e *Engine) Run(ctx context.Context) ([]*MojoDescriptor, error) {
	steps := []func(context.Context) error{
		e.ScanAnnotations,
		e.LoadSources,
		e.MergeDocumentation,
		e.BuildDescriptors,
	}
	for _, step := range steps[e.phase:] {
		if err := step(ctx); err != nil {
			return nil, err
		}
	}
	return e.descriptors, nil
}

// ScanAnnotations records every class of the classes directories and the
// dependencies. With the javadoc variant enabled the plugin's own sources
// are parsed here too, since its tags live in them.
func (e *Engine) ScanAnnotations(ctx context.Context) error {
	return e.advance(PhaseNotStarted, PhaseAnnotationsScanned, func() error {
		var scanned []*ScannedClass
		if e.enabled(VariantAnnotations) {
			s, err := NewAnnotationScanner(AnnotationScannerOptions{
				ClassesDirs:  e.opts.ClassesDirs,
				Dependencies: e.opts.Dependencies,
				Include:      e.opts.Include,
			})
			if err != nil {
				return err
			}
			if scanned, err = s.Scan(ctx); err != nil {
				return err
			}
		}
		if e.enabled(VariantJavadoc) {
			models, err := e.parseRoots(ctx, e.opts.SourceRoots)
			if err != nil {
				return err
			}
			tagged, err := NewTagScanner(e.index, models).Scan(ctx)
			if err != nil {
				return err
			}
			scanned = combine(scanned, tagged)
		}
		e.hierarchy = NewHierarchy(scanned)
		log.Infof("scanned %d classes, %d goals", len(e.hierarchy.Classes()), len(e.hierarchy.Goals()))
		return nil
	})
}

// combine adds the records of extra to base. A class already recorded is
// only replaced when extra carries goal metadata for it and base does not.
func combine(base, extra []*ScannedClass) []*ScannedClass {
	pos := map[string]int{}
	for i, sc := range base {
		pos[sc.Name] = i
	}
	for _, sc := range extra {
		i, ok := pos[sc.Name]
		switch {
		case !ok:
			pos[sc.Name] = len(base)
			base = append(base, sc)
		case !hasMetadata(base[i]) && hasMetadata(sc):
			base[i] = sc
		}
	}
	return base
}

func hasMetadata(sc *ScannedClass) bool {
	return sc.IsGoal() || len(sc.Parameters) > 0 || len(sc.Components) > 0
}

// LoadSources parses the plugin's own sources and the sources of
// ancestors that come from dependencies.
func (e *Engine) LoadSources(ctx context.Context) error {
	return e.advance(PhaseAnnotationsScanned, PhaseSourcesLoaded, func() error {
		roots := append([]string(nil), e.opts.SourceRoots...)
		if e.opts.Sources != nil {
			extra, err := e.opts.Sources.Roots(ctx, e.hierarchy)
			if err != nil {
				return err
			}
			roots = append(roots, extra...)
		}
		_, err := e.parseRoots(ctx, roots)
		return err
	})
}

// parseRoots parses every Java file below roots not parsed before and adds
// the models to the index. Files that fail to parse are skipped.
func (e *Engine) parseRoots(ctx context.Context, roots []string) ([]*java.ClassModel, error) {
	var files []string
	for _, root := range roots {
		found, err := project.JavaFiles(root, nil)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			if !e.parsed[f] {
				e.parsed[f] = true
				files = append(files, f)
			}
		}
	}

	var (
		mu     sync.Mutex
		models []*java.ClassModel
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Parallelism)
	for _, file := range files {
		g.Go(func() error {
			content, err := os.ReadFile(file)
			if err != nil {
				log.Warningf("cannot read %s: %s", file, err)
				return nil
			}
			parsed, err := java.ParseSource(gctx, file, content)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warningf("cannot parse %s: %s", file, err)
				return nil
			}
			metrics.SourcesParsed.Inc()
			mu.Lock()
			models = append(models, parsed...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	slices.SortStableFunc(models, func(a, b *java.ClassModel) int {
		return strings.Compare(a.Name, b.Name)
	})
	e.index.Add(models...)
	log.Debugf("parsed %d source files, %d classes", len(files), len(models))
	return models, nil
}

func (e *Engine) MergeDocumentation(ctx context.Context) error {
	return e.advance(PhaseSourcesLoaded, PhaseDocumentationMerged, func() error {
		return NewDocumenter(e.index, e.hierarchy, e.opts.Documentation).Merge(ctx)
	})
}

func (e *Engine) BuildDescriptors(ctx context.Context) error {
	return e.advance(PhaseDocumentationMerged, PhaseDescriptorsBuilt, func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		descriptors, err := Build(e.hierarchy)
		if err != nil {
			return err
		}
		e.descriptors = descriptors
		metrics.DescriptorsBuilt.Add(float64(len(descriptors)))
		return nil
	})
}
