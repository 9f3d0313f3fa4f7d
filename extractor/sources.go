package extractor

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dhamidi/plugintools/metrics"
	"github.com/dhamidi/plugintools/pom"
	"github.com/dhamidi/plugintools/project"
)

// ArtifactFetcher downloads one artifact and returns its local path.
// *pom.Fetcher implements it.
type ArtifactFetcher interface {
	Download(ctx context.Context, c pom.Coordinate) (string, error)
}

type SourcesLoaderOptions struct {
	// Reactor, if set, is searched for the module an ancestor comes from
	// before anything is downloaded.
	Reactor *project.Project
	// Fetcher may be nil, in which case nothing is downloaded.
	Fetcher ArtifactFetcher
	// ScratchDir receives extracted source archives, one directory per
	// artifact and classifier.
	ScratchDir string
}

// SourcesLoader finds sources for the superclasses of goals that were read
// from dependencies, so their doc comments can be merged.
type SourcesLoader struct {
	opts SourcesLoaderOptions
}

func NewSourcesLoader(opts SourcesLoaderOptions) *SourcesLoader {
	return &SourcesLoader{opts: opts}
}

// Roots returns the source roots of every dependency providing an ancestor
// of a goal class. Artifacts without sources are logged and skipped.
func (l *SourcesLoader) Roots(ctx context.Context, h *Hierarchy) ([]string, error) {
	seen := map[string]bool{}
	var roots []string
	for _, goal := range h.Goals() {
		chain, _ := h.Ancestors(goal.Name)
		for _, sc := range chain {
			if sc.Artifact == nil || seen[sc.Artifact.String()] {
				continue
			}
			seen[sc.Artifact.String()] = true
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			found, ok := l.artifactRoots(ctx, *sc.Artifact)
			if !ok {
				log.Warningf("no sources for %s, documentation inherited from %s is skipped", sc.Artifact, sc.Name)
				continue
			}
			roots = append(roots, found...)
		}
	}
	return roots, nil
}

func (l *SourcesLoader) artifactRoots(ctx context.Context, artifact pom.Coordinate) ([]string, bool) {
	if l.opts.Reactor != nil {
		if m := l.opts.Reactor.FindModule(artifact.GroupID, artifact.ArtifactID, artifact.Version); m != nil {
			log.Debugf("using reactor sources of %s", m.Key())
			if artifact.Classifier == "tests" {
				return m.TestSourceRoots, true
			}
			return m.SourceRoots, true
		}
	}
	if l.opts.Fetcher == nil {
		return nil, false
	}

	classifier := "sources"
	if artifact.Classifier == "tests" {
		classifier = "test-sources"
	}
	c := artifact.WithClassifier(classifier)
	c.Type = ""
	dest := filepath.Join(l.opts.ScratchDir, filepath.FromSlash(c.GroupID), c.ArtifactID, c.Version, classifier)
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		return []string{dest}, true
	} else if !errors.Is(err, fs.ErrNotExist) && err != nil {
		log.Warningf("cannot use %s: %s", dest, err)
		return nil, false
	}

	archive, err := l.opts.Fetcher.Download(ctx, c)
	if err != nil {
		metrics.ArtifactDownloads.WithLabelValues(classifier, "error").Inc()
		log.Warningf("cannot download %s: %s", c, err)
		return nil, false
	}
	metrics.ArtifactDownloads.WithLabelValues(classifier, "ok").Inc()
	if err := pom.Extract(archive, dest); err != nil {
		os.RemoveAll(dest)
		log.Warningf("cannot extract %s: %s", archive, err)
		return nil, false
	}
	return []string{dest}, true
}
