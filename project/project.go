// Package project loads a Maven reactor: the root pom.xml and every module
// reachable through <modules>, with their source roots and output
// directories.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhamidi/plugintools/pom"
	"github.com/gobwas/glob"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("plugintools.project")

// Project is a reactor rooted at one pom.xml.
type Project struct {
	RootDir string
	Root    *Module
	// Modules holds every module including the root, in discovery order.
	Modules []*Module
}

// Module is one pom.xml of the reactor.
type Module struct {
	Dir             string
	POM             *pom.Project
	SourceRoots     []string
	TestSourceRoots []string
	OutDir          string
	BuildDir        string
	// Dependencies names the reactor modules this module depends on, as
	// groupId:artifactId keys.
	Dependencies []string
	Project      *Project
}

// Load reads dir/pom.xml and its modules recursively.
func Load(dir string) (*Project, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	proj := &Project{RootDir: root}
	m, err := proj.load(root, nil, map[string]bool{})
	if err != nil {
		return nil, err
	}
	proj.Root = m

	keys := map[string]bool{}
	for _, m := range proj.Modules {
		keys[m.Key()] = true
	}
	for _, m := range proj.Modules {
		for _, d := range m.POM.Dependencies {
			key := d.GroupID + ":" + d.ArtifactID
			if keys[key] && key != m.Key() {
				m.Dependencies = append(m.Dependencies, key)
			}
		}
	}
	return proj, nil
}

func (p *Project) load(dir string, parent *Module, seen map[string]bool) (*Module, error) {
	if seen[dir] {
		return nil, fmt.Errorf("module cycle at %s", dir)
	}
	seen[dir] = true

	model, err := pom.ReadFile(filepath.Join(dir, "pom.xml"))
	if err != nil {
		return nil, fmt.Errorf("load module: %w", err)
	}
	if parent != nil && model.Parent != nil &&
		model.Parent.GroupID == parent.POM.GroupID && model.Parent.ArtifactID == parent.POM.ArtifactID {
		pom.Inherit(model, parent.POM)
	}

	m := &Module{Dir: dir, POM: model, Project: p}
	m.layout()
	p.Modules = append(p.Modules, m)
	log.Debugf("module %s at %s", m.Key(), dir)

	for _, name := range model.Modules {
		childDir := filepath.Join(dir, filepath.FromSlash(strings.TrimSpace(name)))
		if info, err := os.Stat(childDir); err == nil && !info.IsDir() {
			childDir = filepath.Dir(childDir)
		}
		if _, err := p.load(childDir, m, seen); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Module) layout() {
	build := m.POM.Build
	if build == nil {
		build = &pom.Build{}
	}
	path := func(value, fallback string) string {
		value = m.POM.Interpolate(strings.TrimSpace(value))
		if value == "" {
			value = fallback
		}
		value = strings.ReplaceAll(value, "${project.basedir}", m.Dir)
		value = strings.ReplaceAll(value, "${basedir}", m.Dir)
		if m.BuildDir != "" {
			value = strings.ReplaceAll(value, "${project.build.directory}", m.BuildDir)
		}
		if filepath.IsAbs(value) {
			return filepath.Clean(value)
		}
		return filepath.Join(m.Dir, filepath.FromSlash(value))
	}
	m.BuildDir = path(build.Directory, "target")
	m.OutDir = path(build.OutputDirectory, filepath.Join(m.BuildDir, "classes"))
	m.SourceRoots = []string{path(build.SourceDirectory, "src/main/java")}
	m.TestSourceRoots = []string{path(build.TestSourceDirectory, "src/test/java")}
}

// Key is groupId:artifactId.
func (m *Module) Key() string {
	return m.POM.GroupID + ":" + m.POM.ArtifactID
}

func (m *Module) Coordinate() pom.Coordinate {
	return m.POM.Coordinate()
}

// Module returns the module with the given groupId:artifactId key, or nil.
func (p *Project) Module(key string) *Module {
	for _, m := range p.Modules {
		if m.Key() == key {
			return m
		}
	}
	return nil
}

// FindModule looks up a reactor module by coordinate. An empty version
// matches any version.
func (p *Project) FindModule(groupID, artifactID, version string) *Module {
	m := p.Module(groupID + ":" + artifactID)
	if m == nil || (version != "" && m.POM.Version != version) {
		return nil
	}
	return m
}

// ModulesInOrder returns modules with their reactor dependencies first.
// A cycle keeps discovery order.
func (p *Project) ModulesInOrder() []*Module {
	inDegree := make(map[string]int, len(p.Modules))
	for _, m := range p.Modules {
		inDegree[m.Key()] = len(m.Dependencies)
	}
	var queue []*Module
	for _, m := range p.Modules {
		if inDegree[m.Key()] == 0 {
			queue = append(queue, m)
		}
	}
	var result []*Module
	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		result = append(result, m)
		for _, other := range p.Modules {
			for _, dep := range other.Dependencies {
				if dep != m.Key() {
					continue
				}
				inDegree[other.Key()]--
				if inDegree[other.Key()] == 0 {
					queue = append(queue, other)
				}
			}
		}
	}
	if len(result) != len(p.Modules) {
		return p.Modules
	}
	return result
}

// SourceFilter selects source files by slash separated paths relative to a
// source root. No include patterns means everything is included.
type SourceFilter struct {
	include []glob.Glob
	exclude []glob.Glob
}

func NewSourceFilter(include, exclude []string) (*SourceFilter, error) {
	f := &SourceFilter{}
	for _, p := range include {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("compile include pattern %q: %w", p, err)
		}
		f.include = append(f.include, g)
	}
	for _, p := range exclude {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("compile exclude pattern %q: %w", p, err)
		}
		f.exclude = append(f.exclude, g)
	}
	return f, nil
}

func (f *SourceFilter) Match(rel string) bool {
	if f == nil {
		return true
	}
	for _, g := range f.exclude {
		if g.Match(rel) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, g := range f.include {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// JavaFiles lists the .java files below the module's source roots. Roots
// that do not exist are skipped.
func (m *Module) JavaFiles(filter *SourceFilter) ([]string, error) {
	var files []string
	for _, root := range m.SourceRoots {
		found, err := JavaFiles(root, filter)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

// JavaFiles lists the .java files below root accepted by filter.
func JavaFiles(root string, filter *SourceFilter) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == root {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".java") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if filter.Match(filepath.ToSlash(rel)) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan java files in %s: %w", root, err)
	}
	return files, nil
}

func (m *Module) EnsureOutDir() error {
	if err := os.MkdirAll(m.OutDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", m.OutDir, err)
	}
	return nil
}
