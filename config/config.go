// Package config loads plugintools.toml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/gobwas/glob"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/plugintools/extractor"
	"github.com/dhamidi/plugintools/generator"
	"github.com/dhamidi/plugintools/pom"
)

var log = commonlog.GetLogger("plugintools.config")

// FileName is looked up in the working directory when no path is given.
const FileName = "plugintools.toml"

type Config struct {
	Project    Project    `toml:"project"`
	Plugin     Plugin     `toml:"plugin"`
	Javadoc    Javadoc    `toml:"javadoc"`
	Repository Repository `toml:"repository"`
	Network    Network    `toml:"network"`
	Output     Output     `toml:"output"`
	Metrics    Metrics    `toml:"metrics"`

	// Dir is the directory relative paths are resolved against.
	Dir string `toml:"-"`
}

type Project struct {
	Root        string   `toml:"root"`
	ClassesDir  string   `toml:"classes_dir"`
	SourceRoots []string `toml:"source_roots"`
	BuildDir    string   `toml:"build_dir"`
	Encoding    string   `toml:"encoding"`
	Include     []string `toml:"include" validate:"dive,glob"`
	Extractors  []string `toml:"extractors" validate:"dive,oneof=java-annotations java-javadoc"`
	// JDKHome locates the JDK whose classes references may name. Empty
	// means JAVA_HOME.
	JDKHome string `toml:"jdk_home"`
}

type Plugin struct {
	GroupID     string `toml:"group_id"`
	ArtifactID  string `toml:"artifact_id"`
	Version     string `toml:"version"`
	GoalPrefix  string `toml:"goal_prefix"`
	Name        string `toml:"name"`
	Description string `toml:"description"`
}

type Javadoc struct {
	InternalURL     string   `toml:"internal_url" validate:"omitempty,url"`
	InternalVersion string   `toml:"internal_version"`
	ExternalURLs    []string `toml:"external_urls" validate:"dive,url"`
	ValidateLinks   bool     `toml:"validate_links"`
}

type Repository struct {
	URL   string `toml:"url" validate:"url"`
	Local string `toml:"local"`
}

type Network struct {
	Proxy             string        `toml:"proxy" validate:"omitempty,url"`
	Username          string        `toml:"username"`
	Password          string        `toml:"password"`
	Timeout           time.Duration `toml:"timeout" validate:"gte=0"`
	RequestsPerSecond float64       `toml:"requests_per_second" validate:"gte=0"`
}

type Output struct {
	Dir     string   `toml:"dir"`
	Formats []string `toml:"formats" validate:"dive,oneof=xml xhtml pages yaml"`
	Locale  string   `toml:"locale"`
}

type Metrics struct {
	Textfile string `toml:"textfile"`
}

// Default returns the configuration used without a file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the file at path. An empty path looks for FileName in the
// working directory and falls back to Default when there is none.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = FileName
	}
	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		log.Debugf("loaded %s", path)
	case !explicit && errors.Is(err, fs.ErrNotExist):
		log.Debugf("no %s, using defaults", FileName)
	default:
		return nil, err
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	cfg.Dir = dir
	applyDefaults(cfg)
	ApplyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Dir) == "" {
		cfg.Dir = "."
	}
	if strings.TrimSpace(cfg.Project.Root) == "" {
		cfg.Project.Root = "."
	}
	if strings.TrimSpace(cfg.Project.BuildDir) == "" {
		cfg.Project.BuildDir = "target"
	}
	if strings.TrimSpace(cfg.Project.Encoding) == "" {
		cfg.Project.Encoding = "UTF-8"
	}
	if len(cfg.Project.Include) == 0 {
		cfg.Project.Include = []string{extractor.DefaultInclude}
	}
	if len(cfg.Project.Extractors) == 0 {
		cfg.Project.Extractors = []string{extractor.VariantAnnotations, extractor.VariantJavadoc}
	}

	if strings.TrimSpace(cfg.Repository.URL) == "" {
		cfg.Repository.URL = pom.DefaultMavenRepoURL
	}
	if strings.TrimSpace(cfg.Repository.Local) == "" {
		cfg.Repository.Local = filepath.Join(cfg.Project.BuildDir, "plugintools", "repository")
	}

	if cfg.Network.Timeout == 0 {
		cfg.Network.Timeout = 30 * time.Second
	}

	if strings.TrimSpace(cfg.Output.Dir) == "" {
		cfg.Output.Dir = filepath.Join(cfg.Project.BuildDir, "classes")
	}
	if len(cfg.Output.Formats) == 0 {
		cfg.Output.Formats = []string{generator.FormatXML, generator.FormatXHTML}
	}
	if strings.TrimSpace(cfg.Output.Locale) == "" {
		cfg.Output.Locale = generator.DefaultLocale
	}
}

// ApplyEnvOverrides applies environment variable overrides. MAVEN_REPO_URL
// wins over repository.url; the rest follow PLUGINTOOLS_[SECTION]_[KEY].
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Repository.URL, pom.EnvMavenRepoURL)
	setEnvString(&cfg.Repository.Local, "PLUGINTOOLS_REPOSITORY_LOCAL")
	setEnvString(&cfg.Project.JDKHome, "PLUGINTOOLS_PROJECT_JDK_HOME")

	setEnvString(&cfg.Network.Proxy, "PLUGINTOOLS_NETWORK_PROXY")
	setEnvString(&cfg.Network.Username, "PLUGINTOOLS_NETWORK_USERNAME")
	setEnvString(&cfg.Network.Password, "PLUGINTOOLS_NETWORK_PASSWORD")
	setEnvDuration(&cfg.Network.Timeout, "PLUGINTOOLS_NETWORK_TIMEOUT")

	setEnvString(&cfg.Javadoc.InternalURL, "PLUGINTOOLS_JAVADOC_INTERNAL_URL")
	setEnvBool(&cfg.Javadoc.ValidateLinks, "PLUGINTOOLS_JAVADOC_VALIDATE_LINKS")

	setEnvString(&cfg.Output.Locale, "PLUGINTOOLS_OUTPUT_LOCALE")
	setEnvString(&cfg.Metrics.Textfile, "PLUGINTOOLS_METRICS_TEXTFILE")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		log.Debugf("applying env override: %s", key)
		*target = val
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			*target = b
		} else {
			log.Warningf("ignoring %s: %s", key, err)
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			*target = d
		} else {
			log.Warningf("ignoring %s: %s", key, err)
		}
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("glob", func(fl validator.FieldLevel) bool {
		_, err := glob.Compile(fl.Field().String(), '/')
		return err == nil
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks field constraints and reports every violation.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return err
	}
	var errs []error
	for _, fe := range invalid {
		errs = append(errs, fmt.Errorf("%s: invalid value %q (%s)", tomlPath(fe.Namespace()), fmt.Sprint(fe.Value()), fe.Tag()))
	}
	return errors.Join(errs...)
}

// tomlPath drops the root struct name from a validator namespace.
func tomlPath(namespace string) string {
	_, rest, ok := strings.Cut(namespace, ".")
	if !ok {
		return namespace
	}
	return rest
}

// Path resolves p against the configuration directory.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, c.Project.Root, p)
}

// ClassesDir is project.classes_dir, defaulting to build_dir/classes.
func (c *Config) ClassesDir() string {
	if c.Project.ClassesDir != "" {
		return c.Path(c.Project.ClassesDir)
	}
	return c.Path(filepath.Join(c.Project.BuildDir, "classes"))
}

// SourceRoots are the configured source roots, resolved.
func (c *Config) SourceRoots() []string {
	roots := make([]string, len(c.Project.SourceRoots))
	for i, r := range c.Project.SourceRoots {
		roots[i] = c.Path(r)
	}
	return roots
}
