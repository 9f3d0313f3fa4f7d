// Package build runs a whole extraction for one configuration. It reads
// the project model, resolves the plugin's class path, loads the javadoc
// sites, drives the extractor engine and writes the outputs.
package build

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/plugintools/config"
	"github.com/dhamidi/plugintools/docsite"
	"github.com/dhamidi/plugintools/extractor"
	"github.com/dhamidi/plugintools/generator"
	"github.com/dhamidi/plugintools/pom"
	"github.com/dhamidi/plugintools/project"
)

var log = commonlog.GetLogger("plugintools.build")

// DefaultJavadocVersion is assumed for the internal site when
// javadoc.internal_version is not set.
const DefaultJavadocVersion = "11"

const pluginPluginArtifactID = "maven-plugin-plugin"

var ErrNoCoordinates = errors.New("plugin coordinates unknown: set [plugin] group_id, artifact_id and version or provide a pom.xml")

// Session holds what every command derives from the configuration.
type Session struct {
	Config  *config.Config
	Client  *docsite.HTTPClient
	Fetcher *pom.Fetcher
	// Project and Module are nil when the project root has no pom.xml.
	Project *project.Project
	Module  *project.Module
}

func NewSession(cfg *config.Config) (*Session, error) {
	client, err := docsite.NewHTTPClient(docsite.ClientOptions{
		Proxy:             cfg.Network.Proxy,
		Username:          cfg.Network.Username,
		Password:          cfg.Network.Password,
		Timeout:           cfg.Network.Timeout,
		RequestsPerSecond: cfg.Network.RequestsPerSecond,
	})
	if err != nil {
		return nil, err
	}
	s := &Session{
		Config: cfg,
		Client: client,
		Fetcher: pom.NewFetcher(pom.FetcherOptions{
			RepoURL:  cfg.Repository.URL,
			Client:   client.HTTP(),
			LocalDir: cfg.Path(cfg.Repository.Local),
		}),
	}

	root := cfg.Path(".")
	if _, err := os.Stat(filepath.Join(root, "pom.xml")); err != nil {
		log.Debugf("no pom.xml in %s, using configuration only", root)
		return s, nil
	}
	proj, err := project.Load(root)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	s.Project = proj
	s.Module = pluginModule(proj)
	log.Infof("plugin module %s at %s", s.Module.Key(), s.Module.Dir)
	return s, nil
}

// pluginModule is the first module packaged as maven-plugin, or the root.
func pluginModule(p *project.Project) *project.Module {
	for _, m := range p.ModulesInOrder() {
		if m.POM.Packaging == "maven-plugin" {
			return m
		}
	}
	return p.Root
}

// ClassesDir is the compiled output scanned for goals.
func (s *Session) ClassesDir() string {
	if s.Config.Project.ClassesDir == "" && s.Module != nil {
		return s.Module.OutDir
	}
	return s.Config.ClassesDir()
}

// SourceRoots are the plugin's own Java sources.
func (s *Session) SourceRoots() []string {
	switch {
	case len(s.Config.Project.SourceRoots) > 0:
		return s.Config.SourceRoots()
	case s.Module != nil:
		return s.Module.SourceRoots
	}
	return []string{s.Config.Path(filepath.Join("src", "main", "java"))}
}

// PlatformClassPath lists the JDK's jmod files, or rt.jar for a JDK
// without modules. The JDK is project.jdk_home, else JAVA_HOME.
func (s *Session) PlatformClassPath() []string {
	home := cmp.Or(s.Config.Project.JDKHome, os.Getenv("JAVA_HOME"))
	if home == "" {
		log.Debugf("no JDK configured, JDK classes resolve through external javadoc sites only")
		return nil
	}
	home = s.Config.Path(home)
	if jmods, _ := filepath.Glob(filepath.Join(home, "jmods", "*.jmod")); len(jmods) > 0 {
		return jmods
	}
	for _, rt := range []string{filepath.Join("jre", "lib", "rt.jar"), filepath.Join("lib", "rt.jar")} {
		if _, err := os.Stat(filepath.Join(home, rt)); err == nil {
			return []string{filepath.Join(home, rt)}
		}
	}
	log.Warningf("no jmods or rt.jar under %s, JDK classes resolve through external javadoc sites only", home)
	return nil
}

// Plugin returns the plugin level descriptor fields, read from the POM
// and overridden by the [plugin] section. Goals are not filled in.
func (s *Session) Plugin() (*extractor.PluginDescriptor, error) {
	pd := &extractor.PluginDescriptor{InheritedByDefault: true}
	if s.Module != nil {
		p := s.Module.POM
		pd.GroupID, pd.ArtifactID, pd.Version = p.GroupID, p.ArtifactID, p.Version
		pd.Name, pd.Description = p.Interpolate(p.Name), p.Interpolate(p.Description)
		if p.Prerequisites != nil {
			pd.RequiredMavenVersion = p.Prerequisites.Maven
		}
		if plugin, ok := p.Plugin(pluginPluginArtifactID); ok {
			if v, ok := plugin.Configuration.Value("goalPrefix"); ok {
				pd.GoalPrefix = p.Interpolate(v)
			}
			if v, ok := plugin.Configuration.Value("requiredJavaVersion"); ok {
				pd.RequiredJavaVersion = p.Interpolate(v)
			}
		}
		for _, prop := range []string{"maven.compiler.release", "maven.compiler.target"} {
			if v, ok := p.Property(prop); ok && pd.RequiredJavaVersion == "" {
				pd.RequiredJavaVersion = v
			}
		}
	}

	c := s.Config.Plugin
	pd.GroupID = cmp.Or(c.GroupID, pd.GroupID)
	pd.ArtifactID = cmp.Or(c.ArtifactID, pd.ArtifactID)
	pd.Version = cmp.Or(c.Version, pd.Version)
	pd.Name = cmp.Or(c.Name, pd.Name)
	pd.Description = cmp.Or(c.Description, pd.Description)
	pd.GoalPrefix = cmp.Or(c.GoalPrefix, pd.GoalPrefix, extractor.DefaultGoalPrefix(pd.ArtifactID))
	if pd.GroupID == "" || pd.ArtifactID == "" || pd.Version == "" {
		return nil, ErrNoCoordinates
	}
	return pd, nil
}

// Links builds the link generator from the [javadoc] section. It returns
// nil when no site is configured or none could be loaded.
func (s *Session) Links(ctx context.Context) (*docsite.LinkGenerator, error) {
	jd := s.Config.Javadoc
	var internal *docsite.Site
	if jd.InternalURL != "" {
		site, err := docsite.NewOfflineSite(jd.InternalURL, cmp.Or(jd.InternalVersion, DefaultJavadocVersion))
		if err != nil {
			return nil, fmt.Errorf("internal javadoc site: %w", err)
		}
		internal = site
	}
	external := docsite.LoadSites(ctx, s.Client, jd.ExternalURLs)
	if internal == nil && len(external) == 0 {
		if len(jd.ExternalURLs) > 0 {
			log.Warningf("none of the %d external javadoc sites could be loaded, javadoc links are not created", len(jd.ExternalURLs))
		}
		return nil, nil
	}
	return docsite.NewLinkGenerator(internal, external)
}

// ValidateLink returns the link check of javadoc.validate_links, or nil
// when links are not validated.
func (s *Session) ValidateLink(ctx context.Context) func(*url.URL) bool {
	if !s.Config.Javadoc.ValidateLinks {
		return nil
	}
	siteDir := s.Config.Path(filepath.Join(s.Config.Project.BuildDir, "site"))
	return func(u *url.URL) bool {
		return docsite.IsLinkValid(ctx, s.Client, u, siteDir)
	}
}

// Dependencies resolves the plugin's class path. Reactor modules are taken
// from their output directories, everything else is downloaded. The
// runtime coordinates are returned for the descriptor's dependency list.
func (s *Session) Dependencies(ctx context.Context) ([]extractor.Dependency, []pom.Coordinate, error) {
	if s.Module == nil {
		return nil, nil, nil
	}
	resolved, err := pom.NewResolver(s.Fetcher).Resolve(ctx, s.Module.POM)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve dependencies: %w", err)
	}

	var (
		deps    []extractor.Dependency
		runtime []pom.Coordinate
	)
	for _, d := range resolved {
		if d.Type == "pom" {
			continue
		}
		if d.Scope == pom.ScopeCompile || d.Scope == pom.ScopeRuntime {
			runtime = append(runtime, d.Coordinate)
		}
		if m := s.Project.FindModule(d.GroupID, d.ArtifactID, d.Version); m != nil {
			if _, err := os.Stat(m.OutDir); err != nil {
				log.Warningf("reactor module %s is not compiled, its classes are not scanned", m.Key())
				continue
			}
			deps = append(deps, extractor.Dependency{Coordinate: d.Coordinate, Path: m.OutDir})
			continue
		}
		path, err := s.Fetcher.Download(ctx, d.Coordinate)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			log.Warningf("cannot download %s, its classes are not scanned: %s", d.Coordinate, err)
			continue
		}
		deps = append(deps, extractor.Dependency{Coordinate: d.Coordinate, Path: path})
	}
	log.Infof("resolved %d dependencies", len(deps))
	return deps, runtime, nil
}

// NewEngine configures an extraction over the session's classes, sources
// and dependencies. The caller closes it.
func (s *Session) NewEngine(ctx context.Context, deps []extractor.Dependency, links *docsite.LinkGenerator) (*extractor.Engine, error) {
	cfg := s.Config
	return extractor.NewEngine(extractor.EngineOptions{
		ClassesDirs:       []string{s.ClassesDir()},
		Dependencies:      deps,
		Include:           cfg.Project.Include,
		SourceRoots:       s.SourceRoots(),
		Extractors:        cfg.Project.Extractors,
		PlatformClassPath: s.PlatformClassPath(),
		Sources: extractor.NewSourcesLoader(extractor.SourcesLoaderOptions{
			Reactor:    s.Project,
			Fetcher:    s.Fetcher,
			ScratchDir: cfg.Path(filepath.Join(cfg.Project.BuildDir, "plugintools", "sources")),
		}),
		Documentation: extractor.DocumentationOptions{
			Links:        links,
			ValidateLink: s.ValidateLink(ctx),
		},
	})
}

// Extract runs every engine phase and returns the complete descriptor
// together with the link generator used for it.
func (s *Session) Extract(ctx context.Context) (*extractor.PluginDescriptor, *docsite.LinkGenerator, error) {
	pd, err := s.Plugin()
	if err != nil {
		return nil, nil, err
	}
	links, err := s.Links(ctx)
	if err != nil {
		return nil, nil, err
	}
	deps, runtime, err := s.Dependencies(ctx)
	if err != nil {
		return nil, nil, err
	}
	pd.Dependencies = runtime

	engine, err := s.NewEngine(ctx, deps, links)
	if err != nil {
		return nil, nil, err
	}
	defer engine.Close()
	mojos, err := engine.Run(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(mojos) == 0 {
		log.Warningf("no goals found in %s", s.ClassesDir())
	}
	pd.Mojos = mojos
	return pd, links, nil
}

// Write writes the [output] formats of pd. A non-empty formats list
// replaces the configured one.
func (s *Session) Write(pd *extractor.PluginDescriptor, links *docsite.LinkGenerator, formats []string) ([]string, error) {
	out := s.Config.Output
	if len(formats) == 0 {
		formats = out.Formats
	}
	return generator.WriteAll(pd, generator.Options{
		Dir:     s.Config.Path(out.Dir),
		Formats: formats,
		Locale:  generator.LocaleFor(out.Locale),
		Links:   links,
	})
}
