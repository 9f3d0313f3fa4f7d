package java

import (
	"strings"
	"sync"
	"unicode"
)

// Index holds the classes known to a build, keyed by canonical and binary
// name, and falls back to a ClassPath for everything else.
type Index struct {
	mu        sync.RWMutex
	classes   map[string]*ClassModel
	binary    map[string]*ClassModel
	packages  map[string]bool
	order     []*ClassModel
	classPath *ClassPath
	// external reports packages documented by an external javadoc site.
	external func(pkg string) bool
}

func NewIndex(cp *ClassPath) *Index {
	return &Index{
		classes:   map[string]*ClassModel{},
		binary:    map[string]*ClassModel{},
		packages:  map[string]bool{},
		classPath: cp,
	}
}

// Add registers models. A model replaces an earlier one with the same name.
func (ix *Index) Add(models ...*ClassModel) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, m := range models {
		if _, exists := ix.classes[m.Name]; !exists {
			ix.order = append(ix.order, m)
		} else {
			for i := range ix.order {
				if ix.order[i].Name == m.Name {
					ix.order[i] = m
				}
			}
		}
		ix.classes[m.Name] = m
		if m.BinaryName != "" {
			ix.binary[m.BinaryName] = m
		}
		ix.packages[m.Package] = true
	}
}

// Classes returns the added classes in insertion order.
func (ix *Index) Classes() []*ClassModel {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return append([]*ClassModel(nil), ix.order...)
}

// Lookup finds a class by canonical or binary name.
func (ix *Index) Lookup(name string) (*ClassModel, bool) {
	if name == "" {
		return nil, false
	}
	ix.mu.RLock()
	m, ok := ix.classes[name]
	if !ok {
		m, ok = ix.binary[name]
	}
	ix.mu.RUnlock()
	if ok {
		return m, true
	}
	return ix.classPath.Load(name)
}

// Local reports whether name was added to the index rather than loaded
// from the class path.
func (ix *Index) Local(name string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.classes[name]
	if !ok {
		_, ok = ix.binary[name]
	}
	return ok
}

// LocalPackage reports whether any added class lives in pkg.
func (ix *Index) LocalPackage(pkg string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.packages[pkg]
}

// SetExternalPackages makes classes of the packages reported by fn
// resolvable when they are named unambiguously, even if the class path
// does not hold them.
func (ix *Index) SetExternalPackages(fn func(pkg string) bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.external = fn
}

// ExternalClass reports whether name is a class in a package of an
// external javadoc site. java.lang is not covered; its types are known.
func (ix *Index) ExternalClass(name string) bool {
	pkg, ok := PackageOf(name)
	if !ok || pkg == "java.lang" {
		return false
	}
	ix.mu.RLock()
	fn := ix.external
	ix.mu.RUnlock()
	return fn != nil && fn(pkg)
}

// PackageOf returns the leading lower case segments of a canonical class
// name, so "java.util.Map.Entry" is in "java.util". ok is false when
// name has no package or no class segment.
func PackageOf(name string) (pkg string, ok bool) {
	segments := strings.Split(name, ".")
	for i, seg := range segments {
		if seg == "" {
			return "", false
		}
		if unicode.IsUpper(rune(seg[0])) {
			if i == 0 {
				return "", false
			}
			return strings.Join(segments[:i], "."), true
		}
	}
	return "", false
}

// Exists reports whether name is an indexed class, a class on the class
// path or one of the java.lang types.
func (ix *Index) Exists(name string) bool {
	if _, ok := ix.Lookup(name); ok {
		return true
	}
	if simple, ok := strings.CutPrefix(name, "java.lang."); ok {
		return javaLangTypes[simple]
	}
	return false
}

func (ix *Index) HasPackage(pkg string) bool {
	ix.mu.RLock()
	known := ix.packages[pkg]
	ix.mu.RUnlock()
	if known || pkg == "java.lang" || ix.classPath.HasPackage(pkg) {
		return true
	}
	ix.mu.RLock()
	fn := ix.external
	ix.mu.RUnlock()
	return fn != nil && fn(pkg)
}

// javaLangTypes are the public types of java.lang, which every class
// imports implicitly.
var javaLangTypes = func() map[string]bool {
	names := strings.Fields(`
		AbstractMethodError Appendable ArithmeticException
		ArrayIndexOutOfBoundsException ArrayStoreException AssertionError
		AutoCloseable Boolean BootstrapMethodError Byte Character
		CharSequence Class ClassCastException ClassCircularityError
		ClassFormatError ClassLoader ClassNotFoundException ClassValue
		CloneNotSupportedException Cloneable Comparable Compiler Deprecated
		Double Enum EnumConstantNotPresentException Error Exception
		ExceptionInInitializerError Float FunctionalInterface
		IllegalAccessError IllegalAccessException IllegalArgumentException
		IllegalCallerException IllegalMonitorStateException
		IllegalStateException IllegalThreadStateException
		IncompatibleClassChangeError IndexOutOfBoundsException
		InheritableThreadLocal InstantiationError InstantiationException
		Integer InternalError InterruptedException Iterable
		LayerInstantiationException LinkageError Long Math MatchException
		Module ModuleLayer NegativeArraySizeException NoClassDefFoundError
		NoSuchFieldError NoSuchFieldException NoSuchMethodError
		NoSuchMethodException NullPointerException Number
		NumberFormatException Object OutOfMemoryError Override Package
		Process ProcessBuilder ProcessHandle Readable Record
		ReflectiveOperationException Runnable Runtime RuntimeException
		RuntimePermission SafeVarargs ScopedValue SecurityException
		SecurityManager Short StackOverflowError StackTraceElement
		StackWalker StrictMath String StringBuffer StringBuilder
		StringIndexOutOfBoundsException SuppressWarnings System Thread
		ThreadDeath ThreadGroup ThreadLocal Throwable TypeNotPresentException
		UnknownError UnsatisfiedLinkError UnsupportedClassVersionError
		UnsupportedOperationException VerifyError VirtualMachineError Void
		WrongThreadException
	`)
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}()

// ResolveType resolves a type name as written inside from to a canonical
// name. Nested classes of from and its enclosing classes are tried first,
// then single type imports, the package of from, on demand imports and
// finally java.lang.
func (ix *Index) ResolveType(from *ClassModel, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if IsPrimitive(name) || name == "void" {
		return name, true
	}
	if from == nil {
		return name, ix.Exists(name) || ix.ExternalClass(name)
	}

	if head, rest, qualified := strings.Cut(name, "."); qualified {
		if ix.Exists(name) || ix.ExternalClass(name) {
			return name, true
		}
		if outer, ok := ix.resolveSimple(from, head); ok {
			if ix.Exists(outer + "." + rest) {
				return outer + "." + rest, true
			}
			return "", false
		}
		// Package qualified names outside the index are taken as written.
		if unicode.IsLower(rune(head[0])) {
			return name, true
		}
		return "", false
	}
	return ix.resolveSimple(from, name)
}

func (ix *Index) resolveSimple(from *ClassModel, simple string) (string, bool) {
	for scope := from; scope != nil; {
		if candidate := scope.Name + "." + simple; ix.Exists(candidate) {
			return candidate, true
		}
		if scope.SimpleName == simple {
			return scope.Name, true
		}
		if scope.Outer == "" {
			break
		}
		outer, ok := ix.Lookup(scope.Outer)
		if !ok {
			break
		}
		scope = outer
	}

	for _, imp := range from.Imports {
		if imp.Wildcard || imp.Static {
			continue
		}
		if imp.Name == simple || strings.HasSuffix(imp.Name, "."+simple) {
			return imp.Name, true
		}
	}

	if from.Package != "" {
		if candidate := from.Package + "." + simple; ix.Exists(candidate) {
			return candidate, true
		}
	} else if ix.Exists(simple) {
		return simple, true
	}

	for _, imp := range from.Imports {
		if !imp.Wildcard || imp.Static {
			continue
		}
		if candidate := imp.Name + "." + simple; ix.Exists(candidate) {
			return candidate, true
		}
	}

	if candidate := "java.lang." + simple; ix.Exists(candidate) {
		return candidate, true
	}
	return ix.resolveExternal(from, simple)
}

// resolveExternal picks the single on demand import whose package an
// external site documents. Two such imports make simple ambiguous.
func (ix *Index) resolveExternal(from *ClassModel, simple string) (string, bool) {
	var found string
	for _, imp := range from.Imports {
		if !imp.Wildcard || imp.Static {
			continue
		}
		candidate := imp.Name + "." + simple
		if !ix.ExternalClass(candidate) {
			continue
		}
		if found != "" {
			return "", false
		}
		found = candidate
	}
	return found, found != ""
}

// SuperClass returns the resolved canonical name of c's superclass.
func (ix *Index) SuperClass(c *ClassModel) (string, bool) {
	if c.SuperClass == "" {
		return "", false
	}
	if !c.FromSource {
		return c.SuperClass, true
	}
	return ix.ResolveType(c, c.SuperClass)
}

// Interfaces returns the resolved names of the interfaces c implements
// directly. Names that cannot be resolved are returned as written.
func (ix *Index) Interfaces(c *ClassModel) []string {
	names := make([]string, 0, len(c.Interfaces))
	for _, iface := range c.Interfaces {
		if !c.FromSource {
			names = append(names, iface)
			continue
		}
		if resolved, ok := ix.ResolveType(c, iface); ok {
			iface = resolved
		}
		names = append(names, iface)
	}
	return names
}

// SuperclassChain returns the class named by name followed by each of
// its known superclasses. The walk stops at the first superclass that is
// not known, or at a cycle.
func (ix *Index) SuperclassChain(name string) []*ClassModel {
	var chain []*ClassModel
	visited := map[string]bool{}
	for current, ok := ix.Lookup(name); ok && !visited[current.Name]; {
		visited[current.Name] = true
		chain = append(chain, current)
		super, resolved := ix.SuperClass(current)
		if !resolved {
			break
		}
		current, ok = ix.Lookup(super)
	}
	return chain
}

// Supertypes returns the names of every superclass and interface of the
// named class, transitively, in breadth first order.
func (ix *Index) Supertypes(name string) []string {
	var out []string
	visited := map[string]bool{name: true}
	queue := []string{name}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		c, ok := ix.Lookup(current)
		if !ok {
			continue
		}
		var next []string
		if super, ok := ix.SuperClass(c); ok {
			next = append(next, super)
		}
		next = append(next, ix.Interfaces(c)...)
		for _, n := range next {
			if visited[n] {
				continue
			}
			visited[n] = true
			out = append(out, n)
			queue = append(queue, n)
		}
	}
	return out
}
