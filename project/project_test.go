package project

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeReactor(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pom.xml"), `<project>
  <groupId>org.example</groupId>
  <artifactId>reactor</artifactId>
  <version>1.0</version>
  <packaging>pom</packaging>
  <properties><java.dir>src/java</java.dir></properties>
  <modules>
    <module>plugin</module>
    <module>api</module>
  </modules>
</project>`)
	writeFile(t, filepath.Join(root, "api", "pom.xml"), `<project>
  <parent><groupId>org.example</groupId><artifactId>reactor</artifactId><version>1.0</version></parent>
  <artifactId>api</artifactId>
  <build>
    <sourceDirectory>${java.dir}</sourceDirectory>
    <directory>out</directory>
  </build>
</project>`)
	writeFile(t, filepath.Join(root, "plugin", "pom.xml"), `<project>
  <parent><groupId>org.example</groupId><artifactId>reactor</artifactId><version>1.0</version></parent>
  <artifactId>plugin</artifactId>
  <packaging>maven-plugin</packaging>
  <dependencies>
    <dependency><groupId>org.example</groupId><artifactId>api</artifactId><version>1.0</version></dependency>
    <dependency><groupId>org.other</groupId><artifactId>lib</artifactId><version>2.0</version></dependency>
  </dependencies>
  <build>
    <outputDirectory>${project.build.directory}/main-classes</outputDirectory>
  </build>
</project>`)
	return root
}

func TestLoad(t *testing.T) {
	root := writeReactor(t)
	proj, err := Load(root)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(proj.Modules) != 3 {
		t.Fatalf("got %d modules, want 3", len(proj.Modules))
	}
	if proj.Root.Key() != "org.example:reactor" {
		t.Errorf("root = %s", proj.Root.Key())
	}

	api := proj.Module("org.example:api")
	if api == nil {
		t.Fatal("api module not found")
	}
	if want := filepath.Join(root, "api", "src", "java"); api.SourceRoots[0] != want {
		t.Errorf("api source root = %s, want %s", api.SourceRoots[0], want)
	}
	if want := filepath.Join(root, "api", "out", "classes"); api.OutDir != want {
		t.Errorf("api out dir = %s, want %s", api.OutDir, want)
	}

	plugin := proj.FindModule("org.example", "plugin", "1.0")
	if plugin == nil {
		t.Fatal("plugin module not found")
	}
	if want := filepath.Join(root, "plugin", "target", "main-classes"); plugin.OutDir != want {
		t.Errorf("plugin out dir = %s, want %s", plugin.OutDir, want)
	}
	if want := filepath.Join(root, "plugin", "src", "main", "java"); plugin.SourceRoots[0] != want {
		t.Errorf("plugin source root = %s, want %s", plugin.SourceRoots[0], want)
	}
	if len(plugin.Dependencies) != 1 || plugin.Dependencies[0] != "org.example:api" {
		t.Errorf("plugin reactor dependencies = %v, want [org.example:api]", plugin.Dependencies)
	}
	if proj.FindModule("org.example", "plugin", "2.0") != nil {
		t.Error("FindModule should not match another version")
	}
}

func TestModulesInOrder(t *testing.T) {
	proj, err := Load(writeReactor(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	pos := map[string]int{}
	for i, m := range proj.ModulesInOrder() {
		pos[m.Key()] = i
	}
	if pos["org.example:api"] > pos["org.example:plugin"] {
		t.Errorf("api must come before plugin: %v", pos)
	}
}

func TestLoadMissingPOM(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load() error = nil, want missing pom.xml error")
	}
}

func TestJavaFiles(t *testing.T) {
	root := t.TempDir()
	for _, f := range []string{
		"org/example/MyMojo.java",
		"org/example/internal/Helper.java",
		"org/example/package.html",
		"org/example/MyMojoTest.java",
	} {
		writeFile(t, filepath.Join(root, filepath.FromSlash(f)), "")
	}

	tests := []struct {
		name             string
		include, exclude []string
		want             int
	}{
		{"all", nil, nil, 3},
		{"include", []string{"org/example/*.java"}, nil, 2},
		{"exclude", nil, []string{"**/internal/**", "**Test.java"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := NewSourceFilter(tt.include, tt.exclude)
			if err != nil {
				t.Fatalf("NewSourceFilter() error = %v", err)
			}
			files, err := JavaFiles(root, filter)
			if err != nil {
				t.Fatalf("JavaFiles() error = %v", err)
			}
			if len(files) != tt.want {
				t.Errorf("got %d files %v, want %d", len(files), files, tt.want)
			}
		})
	}
}

func TestJavaFilesMissingRoot(t *testing.T) {
	files, err := JavaFiles(filepath.Join(t.TempDir(), "missing"), nil)
	if err != nil || len(files) != 0 {
		t.Errorf("JavaFiles() = %v, %v; want no files and no error", files, err)
	}
}
