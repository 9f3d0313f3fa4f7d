package java

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("plugintools.java")

// ClassPath loads class models lazily from class directories, jars and
// jmod files. It is safe for concurrent use.
type ClassPath struct {
	mu      sync.Mutex
	entries []classPathEntry
	loaded  map[string]*ClassModel
	missing map[string]bool
}

type classPathEntry interface {
	open(name string) (io.ReadCloser, bool)
	hasDir(dir string) bool
	walk(fn func(name string, r io.Reader) error) error
	io.Closer
}

// NewClassPath opens every entry. Directories are read from disk, files
// ending in .jmod are read past their four byte header and anything else
// is treated as a jar.
func NewClassPath(paths ...string) (*ClassPath, error) {
	cp := &ClassPath{loaded: map[string]*ClassModel{}, missing: map[string]bool{}}
	for _, p := range paths {
		entry, err := openClassPathEntry(p)
		if err != nil {
			cp.Close()
			return nil, fmt.Errorf("classpath entry %s: %w", p, err)
		}
		cp.entries = append(cp.entries, entry)
	}
	return cp, nil
}

func openClassPathEntry(p string) (classPathEntry, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return dirEntry(p), nil
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	var ra io.ReaderAt = f
	size := info.Size()
	prefix := ""
	if strings.HasSuffix(p, ".jmod") {
		ra = io.NewSectionReader(f, 4, size-4)
		size -= 4
		prefix = "classes/"
	}
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		f.Close()
		return nil, err
	}
	entry := &archiveEntry{file: f, prefix: prefix, files: map[string]*zip.File{}, dirs: map[string]bool{}}
	for _, zf := range zr.File {
		if !strings.HasPrefix(zf.Name, prefix) || zf.FileInfo().IsDir() {
			continue
		}
		name := strings.TrimPrefix(zf.Name, prefix)
		entry.files[name] = zf
		for dir := path.Dir(name); dir != "." && !entry.dirs[dir]; dir = path.Dir(dir) {
			entry.dirs[dir] = true
		}
	}
	return entry, nil
}

func (cp *ClassPath) Close() error {
	var first error
	for _, e := range cp.entries {
		if err := e.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Load returns the class with the given canonical or binary name. Nested
// classes are found by trying each '.' from the right as a '$'.
func (cp *ClassPath) Load(name string) (*ClassModel, bool) {
	if cp == nil {
		return nil, false
	}
	cp.mu.Lock()
	defer cp.mu.Unlock()

	if model, ok := cp.loaded[name]; ok {
		return model, true
	}
	if cp.missing[name] {
		return nil, false
	}
	for _, candidate := range binaryCandidates(name) {
		file := strings.ReplaceAll(candidate, ".", "/") + ".class"
		for _, e := range cp.entries {
			rc, ok := e.open(file)
			if !ok {
				continue
			}
			model, err := ClassModelFromReader(rc)
			rc.Close()
			if err != nil {
				log.Warningf("skipping %s: %s", file, err)
				continue
			}
			cp.loaded[name] = model
			return model, true
		}
	}
	cp.missing[name] = true
	return nil, false
}

// HasPackage reports whether any entry contains a directory for pkg.
func (cp *ClassPath) HasPackage(pkg string) bool {
	if cp == nil {
		return false
	}
	dir := strings.ReplaceAll(pkg, ".", "/")
	for _, e := range cp.entries {
		if e.hasDir(dir) {
			return true
		}
	}
	return false
}

// WalkClasses calls fn for every class file in the entry rooted at root,
// which must be one of the paths passed to NewClassPath.
func WalkClasses(root string, fn func(name string, r io.Reader) error) error {
	entry, err := openClassPathEntry(root)
	if err != nil {
		return err
	}
	defer entry.Close()
	return entry.walk(fn)
}

// binaryCandidates lists "a.b.C.D", "a.b.C$D", "a.b$C$D" and so on.
func binaryCandidates(name string) []string {
	candidates := []string{name}
	for i := strings.LastIndexByte(name, '.'); i > 0; i = strings.LastIndexByte(name[:i], '.') {
		candidates = append(candidates, name[:i]+"$"+strings.ReplaceAll(name[i+1:], ".", "$"))
	}
	return candidates
}

type dirEntry string

func (d dirEntry) open(name string) (io.ReadCloser, bool) {
	f, err := os.Open(filepath.Join(string(d), filepath.FromSlash(name)))
	if err != nil {
		return nil, false
	}
	return f, true
}

func (d dirEntry) hasDir(dir string) bool {
	info, err := os.Stat(filepath.Join(string(d), filepath.FromSlash(dir)))
	return err == nil && info.IsDir()
}

func (d dirEntry) walk(fn func(name string, r io.Reader) error) error {
	return filepath.WalkDir(string(d), func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasSuffix(p, ".class") {
			return nil
		}
		rel, err := filepath.Rel(string(d), p)
		if err != nil {
			return err
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		return fn(filepath.ToSlash(rel), f)
	})
}

func (d dirEntry) Close() error { return nil }

type archiveEntry struct {
	file   *os.File
	prefix string
	files  map[string]*zip.File
	dirs   map[string]bool
}

func (a *archiveEntry) open(name string) (io.ReadCloser, bool) {
	zf, ok := a.files[name]
	if !ok {
		return nil, false
	}
	rc, err := zf.Open()
	if err != nil {
		return nil, false
	}
	return rc, true
}

func (a *archiveEntry) hasDir(dir string) bool {
	return a.dirs[dir]
}

func (a *archiveEntry) walk(fn func(name string, r io.Reader) error) error {
	names := make([]string, 0, len(a.files))
	for name := range a.files {
		if strings.HasSuffix(name, ".class") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		rc, err := a.files[name].Open()
		if err != nil {
			return err
		}
		err = fn(name, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *archiveEntry) Close() error {
	return a.file.Close()
}
