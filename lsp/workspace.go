package lsp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/dhamidi/plugintools/converter"
	"github.com/dhamidi/plugintools/docsite"
	"github.com/dhamidi/plugintools/java"
	"github.com/dhamidi/plugintools/java/javadoc"
	"github.com/dhamidi/plugintools/project"
)

// Workspace holds the open documents and the class index their references
// are resolved against.
type Workspace struct {
	mu          sync.RWMutex
	sourceRoots []string
	classPath   []string
	links       *docsite.LinkGenerator

	cp    *java.ClassPath
	index *java.Index
	// sources are the models parsed from the source roots, by file.
	sources map[string][]*java.ClassModel
	docs    map[string]*Document
}

type WorkspaceOptions struct {
	SourceRoots []string
	// ClassPath holds compiled classes directories and jars. Entries that
	// do not exist are skipped.
	ClassPath []string
	Links     *docsite.LinkGenerator
}

// Document is an open source file.
type Document struct {
	Path        string
	Content     []byte
	Classes     []*java.ClassModel
	Occurrences []Occurrence
	ParseErr    error
}

// Resolution is the outcome of resolving one occurrence.
type Resolution struct {
	Occurrence
	Resolved javadoc.ResolvedReference
	URL      string
	Value    string
	Err      error
}

func NewWorkspace(opts WorkspaceOptions) *Workspace {
	return &Workspace{
		sourceRoots: opts.SourceRoots,
		classPath:   opts.ClassPath,
		links:       opts.Links,
		sources:     map[string][]*java.ClassModel{},
		docs:        map[string]*Document{},
	}
}

func (w *Workspace) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cp != nil {
		return w.cp.Close()
	}
	return nil
}

// Reload reopens the class path and reparses the source roots.
func (w *Workspace) Reload(ctx context.Context) error {
	var entries []string
	for _, p := range w.classPath {
		if _, err := os.Stat(p); err == nil {
			entries = append(entries, p)
		}
	}
	cp, err := java.NewClassPath(entries...)
	if err != nil {
		return err
	}

	sources := map[string][]*java.ClassModel{}
	for _, root := range w.sourceRoots {
		files, err := project.JavaFiles(root, nil)
		if err != nil {
			cp.Close()
			return err
		}
		for _, path := range files {
			if err := ctx.Err(); err != nil {
				cp.Close()
				return err
			}
			content, err := os.ReadFile(path)
			if err != nil {
				log.Warningf("read %s: %s", path, err)
				continue
			}
			classes, err := java.ParseSource(ctx, path, content)
			if err != nil {
				log.Warningf("parse %s: %s", path, err)
				continue
			}
			sources[path] = classes
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cp != nil {
		w.cp.Close()
	}
	w.cp = cp
	w.sources = sources
	w.rebuildLocked()
	log.Infof("indexed %d source files, %d class path entries", len(sources), len(entries))
	return nil
}

// rebuildLocked indexes the source roots with open documents taking
// precedence over the files on disk.
func (w *Workspace) rebuildLocked() {
	w.index = java.NewIndex(w.cp)
	if w.links != nil {
		w.index.SetExternalPackages(w.links.DocumentsExternalPackage)
	}
	for _, path := range sortedKeys(w.sources) {
		if _, open := w.docs[path]; !open {
			w.index.Add(w.sources[path]...)
		}
	}
	for _, path := range sortedKeys(w.docs) {
		w.index.Add(w.docs[path].Classes...)
	}
}

// Update parses content as the current text of path.
func (w *Workspace) Update(ctx context.Context, path string, content []byte) *Document {
	doc := &Document{Path: path, Content: content}
	doc.Classes, doc.ParseErr = java.ParseSource(ctx, path, content)
	doc.Occurrences = FindOccurrences(content, doc.Classes)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.docs[path] = doc
	w.rebuildLocked()
	return doc
}

// CloseDocument forgets an open document; the file on disk is indexed again.
func (w *Workspace) CloseDocument(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.docs, path)
	w.rebuildLocked()
}

func (w *Workspace) Document(path string) (*Document, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	doc, ok := w.docs[path]
	return doc, ok
}

// OpenDocuments returns the paths of all open documents.
func (w *Workspace) OpenDocuments() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return sortedKeys(w.docs)
}

// Resolve resolves every occurrence of an open document.
func (w *Workspace) Resolve(path string) []Resolution {
	w.mu.RLock()
	defer w.mu.RUnlock()
	doc, ok := w.docs[path]
	if !ok {
		return nil
	}
	out := make([]Resolution, len(doc.Occurrences))
	for i, occ := range doc.Occurrences {
		out[i] = w.resolveLocked(occ)
	}
	return out
}

// ResolveAt resolves the occurrence under a position.
func (w *Workspace) ResolveAt(path string, line, col int) (Resolution, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	doc, ok := w.docs[path]
	if !ok {
		return Resolution{}, false
	}
	for _, occ := range doc.Occurrences {
		if occ.Contains(line, col) {
			return w.resolveLocked(occ), true
		}
	}
	return Resolution{}, false
}

func (w *Workspace) resolveLocked(occ Occurrence) Resolution {
	r := Resolution{Occurrence: occ}
	if occ.Declaring == nil || w.index == nil {
		r.Err = fmt.Errorf("%w: no class declared around %s", converter.ErrUnresolvableReference, occ.Text)
		return r
	}
	ref, err := javadoc.ParseReference(occ.Text)
	if err != nil {
		r.Err = err
		return r
	}
	ctx := converter.NewClassContext(occ.Declaring, w.index, converter.ClassContextOptions{Links: w.links, Line: occ.Line + 1})
	r.Resolved, r.Err = ctx.ResolveReference(ref)
	if r.Err != nil {
		return r
	}
	if occ.Tag == "value" {
		r.Value, r.Err = ctx.StaticFieldValue(r.Resolved)
		if r.Err != nil {
			return r
		}
	}
	if u, err := ctx.URL(r.Resolved); err == nil {
		r.URL = u.String()
	} else if !errors.Is(err, converter.ErrNoLinkGenerator) {
		log.Debugf("%s: no link for %s: %s", ctx.Location(), r.Resolved, err)
	}
	return r
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
