package pom

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("plugintools.pom")

const (
	DefaultMavenRepoURL = "https://repo1.maven.org/maven2"
	EnvMavenRepoURL     = "MAVEN_REPO_URL"
)

var ErrArtifactNotFound = errors.New("artifact not found")

// Coordinate names one file in a Maven repository.
type Coordinate struct {
	GroupID    string
	ArtifactID string
	Version    string
	Classifier string
	// Type is the packaging or dependency type; empty means jar.
	Type string
}

// ParseCoordinate accepts groupId:artifactId:version and
// groupId:artifactId:classifier:version.
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(s, ":")
	for _, p := range parts {
		if p == "" {
			return Coordinate{}, fmt.Errorf("invalid Maven coordinate %q: empty segment", s)
		}
	}
	switch len(parts) {
	case 3:
		return Coordinate{GroupID: parts[0], ArtifactID: parts[1], Version: parts[2]}, nil
	case 4:
		return Coordinate{GroupID: parts[0], ArtifactID: parts[1], Classifier: parts[2], Version: parts[3]}, nil
	}
	return Coordinate{}, fmt.Errorf("invalid Maven coordinate %q: expected groupId:artifactId[:classifier]:version", s)
}

func (c Coordinate) String() string {
	if c.Classifier != "" {
		return c.GroupID + ":" + c.ArtifactID + ":" + c.Classifier + ":" + c.Version
	}
	return c.GroupID + ":" + c.ArtifactID + ":" + c.Version
}

func (c Coordinate) WithClassifier(classifier string) Coordinate {
	c.Classifier = classifier
	return c
}

func (c Coordinate) extension() string {
	switch c.Type {
	case "pom":
		return "pom"
	case "war", "ear", "zip":
		return c.Type
	}
	return "jar"
}

func (c Coordinate) FileName() string {
	name := c.ArtifactID + "-" + c.Version
	if c.Classifier != "" {
		name += "-" + c.Classifier
	}
	return name + "." + c.extension()
}

// Path is the slash separated location below a repository root.
func (c Coordinate) Path() string {
	return path.Join(strings.ReplaceAll(c.GroupID, ".", "/"), c.ArtifactID, c.Version, c.FileName())
}

type FetcherOptions struct {
	// RepoURL defaults to $MAVEN_REPO_URL, then to Maven Central.
	RepoURL string
	Client  *http.Client
	// LocalDir caches downloads in repository layout. Empty means the
	// system temp directory.
	LocalDir string
}

// Fetcher reads POMs and downloads artifacts from one remote repository.
type Fetcher struct {
	repoURL  string
	client   *http.Client
	localDir string
}

func NewFetcher(opts FetcherOptions) *Fetcher {
	repoURL := opts.RepoURL
	if env := os.Getenv(EnvMavenRepoURL); env != "" {
		repoURL = env
	}
	if repoURL == "" {
		repoURL = DefaultMavenRepoURL
	}
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	localDir := opts.LocalDir
	if localDir == "" {
		localDir = filepath.Join(os.TempDir(), "plugintools-repository")
	}
	return &Fetcher{repoURL: strings.TrimSuffix(repoURL, "/"), client: client, localDir: localDir}
}

func (f *Fetcher) RepoURL() string {
	return f.repoURL
}

// URL is the remote location of c.
func (f *Fetcher) URL(c Coordinate) string {
	return f.repoURL + "/" + c.Path()
}

func (f *Fetcher) get(ctx context.Context, c Coordinate) (io.ReadCloser, error) {
	url := f.URL(c)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, c)
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}
	return resp.Body, nil
}

// FetchPOM reads a POM and merges what it inherits from its parents:
// group, version, properties and dependency management.
func (f *Fetcher) FetchPOM(ctx context.Context, groupID, artifactID, version string) (*Project, error) {
	return f.fetchPOM(ctx, Coordinate{GroupID: groupID, ArtifactID: artifactID, Version: version, Type: "pom"}, map[string]bool{})
}

func (f *Fetcher) fetchPOM(ctx context.Context, c Coordinate, seen map[string]bool) (*Project, error) {
	if seen[c.String()] {
		return nil, fmt.Errorf("parent cycle at %s", c)
	}
	seen[c.String()] = true

	body, err := f.get(ctx, c)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read POM %s: %w", c, err)
	}
	project, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c, err)
	}
	if project.Parent != nil {
		parentCoord := Coordinate{GroupID: project.Parent.GroupID, ArtifactID: project.Parent.ArtifactID, Version: project.Parent.Version, Type: "pom"}
		parent, err := f.fetchPOM(ctx, parentCoord, seen)
		if err != nil {
			return nil, fmt.Errorf("parent of %s: %w", c, err)
		}
		Inherit(project, parent)
	}
	return project, nil
}

// Inherit merges the properties and dependency management of parent into
// child. Values declared by child win.
func Inherit(child, parent *Project) {
	if child.Properties == nil {
		child.Properties = &Properties{Entries: map[string]string{}}
	}
	if parent.Properties != nil {
		for k, v := range parent.Properties.Entries {
			if _, ok := child.Properties.Entries[k]; !ok {
				child.Properties.Entries[k] = v
			}
		}
	}
	if parent.DependencyManagement == nil {
		return
	}
	if child.DependencyManagement == nil {
		child.DependencyManagement = &DependencyManagement{}
	}
	declared := map[ArtifactKey]bool{}
	for _, d := range child.DependencyManagement.Dependencies {
		declared[ArtifactKey{d.GroupID, d.ArtifactID}] = true
	}
	for _, d := range parent.DependencyManagement.Dependencies {
		if !declared[ArtifactKey{d.GroupID, d.ArtifactID}] {
			d.Version = parent.Interpolate(d.Version)
			child.DependencyManagement.Dependencies = append(child.DependencyManagement.Dependencies, d)
		}
	}
}

// Download stores c in the local directory and returns its path. A file
// already present is reused.
func (f *Fetcher) Download(ctx context.Context, c Coordinate) (string, error) {
	dest := filepath.Join(f.localDir, filepath.FromSlash(c.Path()))
	if info, err := os.Stat(dest); err == nil && !info.IsDir() {
		log.Debugf("using cached %s", dest)
		return dest, nil
	}
	body, err := f.get(ctx, c)
	if err != nil {
		return "", err
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("download %s: %w", c, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	log.Infof("downloaded %s", c)
	return dest, nil
}

// Extract unpacks a jar or zip archive below destDir. Entries that would
// land outside destDir are rejected.
func Extract(archive, destDir string) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", archive, err)
	}
	defer zr.Close()

	root, err := filepath.Abs(destDir)
	if err != nil {
		return err
	}
	for _, zf := range zr.File {
		target := filepath.Join(root, filepath.FromSlash(zf.Name))
		if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
			return fmt.Errorf("extract %s: entry %q escapes the destination", archive, zf.Name)
		}
		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := extractFile(zf, target); err != nil {
			return fmt.Errorf("extract %s: %w", zf.Name, err)
		}
	}
	return nil
}

func extractFile(zf *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
