// Package extractor scans compiled plugin classes and their sources for
// goal metadata, merges it over class hierarchies and builds goal
// descriptors.
package extractor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/plugintools/java"
	"github.com/dhamidi/plugintools/pom"
)

var log = commonlog.GetLogger("plugintools.extractor")

var (
	ErrDuplicateParameter = errors.New("duplicate parameter")
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrInvalidDescriptor  = errors.New("invalid goal descriptor")
	ErrPhaseOrder         = errors.New("extraction phase out of order")
)

// DescriptorError names the goal element a fatal merge error was found in.
type DescriptorError struct {
	Class     string
	Goal      string
	Parameter string
	Err       error
}

func (e *DescriptorError) Error() string {
	var sb strings.Builder
	if e.Goal != "" {
		fmt.Fprintf(&sb, "goal %s (%s)", e.Goal, e.Class)
	} else {
		sb.WriteString("class " + e.Class)
	}
	if e.Parameter != "" {
		sb.WriteString(", parameter " + e.Parameter)
	}
	sb.WriteString(": " + e.Err.Error())
	return sb.String()
}

func (e *DescriptorError) Unwrap() error {
	return e.Err
}

// Goal attribute defaults.
const (
	DefaultInstantiationStrategy = "per-lookup"
	DefaultExecutionStrategy     = "once-per-session"
	Language                     = "java"
)

// PluginDescriptor is everything written to plugin.xml.
type PluginDescriptor struct {
	Name                 string            `yaml:"name,omitempty"`
	Description          string            `yaml:"description,omitempty"`
	GroupID              string            `yaml:"groupId"`
	ArtifactID           string            `yaml:"artifactId"`
	Version              string            `yaml:"version"`
	GoalPrefix           string            `yaml:"goalPrefix"`
	IsolatedRealm        bool              `yaml:"isolatedRealm"`
	InheritedByDefault   bool              `yaml:"inheritedByDefault"`
	RequiredJavaVersion  string            `yaml:"requiredJavaVersion,omitempty"`
	RequiredMavenVersion string            `yaml:"requiredMavenVersion,omitempty"`
	Mojos                []*MojoDescriptor `yaml:"mojos"`
	Dependencies         []pom.Coordinate  `yaml:"-"`
}

// DefaultGoalPrefix derives the prefix from maven-X-plugin and
// X-maven-plugin artifact ids.
func DefaultGoalPrefix(artifactID string) string {
	switch {
	case strings.HasPrefix(artifactID, "maven-") && strings.HasSuffix(artifactID, "-plugin"):
		return strings.TrimSuffix(strings.TrimPrefix(artifactID, "maven-"), "-plugin")
	case strings.HasSuffix(artifactID, "-maven-plugin"):
		return strings.TrimSuffix(artifactID, "-maven-plugin")
	case strings.HasSuffix(artifactID, "-plugin"):
		return strings.TrimSuffix(artifactID, "-plugin")
	}
	return artifactID
}

// MojoDescriptor describes one goal.
type MojoDescriptor struct {
	Goal           string `yaml:"goal"`
	Implementation string `yaml:"implementation"`
	Language       string `yaml:"language"`
	// Description is XHTML.
	Description  string `yaml:"description,omitempty"`
	Since        string `yaml:"since,omitempty"`
	Deprecated   string `yaml:"deprecated,omitempty"`
	IsDeprecated bool   `yaml:"isDeprecated,omitempty"`

	DefaultPhase                 string `yaml:"phase,omitempty"`
	ExecutePhase                 string `yaml:"executePhase,omitempty"`
	ExecuteGoal                  string `yaml:"executeGoal,omitempty"`
	ExecuteLifecycle             string `yaml:"executeLifecycle,omitempty"`
	RequiresDependencyResolution string `yaml:"requiresDependencyResolution,omitempty"`
	RequiresDependencyCollection string `yaml:"requiresDependencyCollection,omitempty"`
	RequiresDirectInvocation     bool   `yaml:"requiresDirectInvocation"`
	RequiresProject              bool   `yaml:"requiresProject"`
	RequiresReports              bool   `yaml:"requiresReports"`
	RequiresOnline               bool   `yaml:"requiresOnline"`
	Aggregator                   bool   `yaml:"aggregator"`
	InheritedByDefault           bool   `yaml:"inheritedByDefault"`
	ThreadSafe                   bool   `yaml:"threadSafe"`
	InstantiationStrategy        string `yaml:"instantiationStrategy"`
	ExecutionStrategy            string `yaml:"executionStrategy"`
	Configurator                 string `yaml:"configurator,omitempty"`

	Parameters   []*Parameter   `yaml:"parameters,omitempty"`
	Requirements []*Requirement `yaml:"requirements,omitempty"`
}

func newMojoDescriptor(class *java.ClassModel) *MojoDescriptor {
	return &MojoDescriptor{
		Implementation:        class.BinaryName,
		Language:              Language,
		RequiresProject:       true,
		InheritedByDefault:    true,
		InstantiationStrategy: DefaultInstantiationStrategy,
		ExecutionStrategy:     DefaultExecutionStrategy,
	}
}

// Parameter returns the parameter with the given name.
func (m *MojoDescriptor) Parameter(name string) (*Parameter, bool) {
	for _, p := range m.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

func (m *MojoDescriptor) addParameter(p *Parameter) error {
	if _, exists := m.Parameter(p.Name); exists {
		return &DescriptorError{Class: m.Implementation, Goal: m.Goal, Parameter: p.Name, Err: ErrDuplicateParameter}
	}
	m.Parameters = append(m.Parameters, p)
	return nil
}

type Parameter struct {
	Name           string `yaml:"name"`
	Alias          string `yaml:"alias,omitempty"`
	Type           string `yaml:"type"`
	Required       bool   `yaml:"required"`
	Editable       bool   `yaml:"editable"`
	Expression     string `yaml:"expression,omitempty"`
	DefaultValue   string `yaml:"defaultValue,omitempty"`
	Implementation string `yaml:"implementation,omitempty"`
	Description    string `yaml:"description,omitempty"`
	Since          string `yaml:"since,omitempty"`
	Deprecated     string `yaml:"deprecated,omitempty"`
	IsDeprecated   bool   `yaml:"isDeprecated,omitempty"`
	// FieldName is the field or setter property the value is injected into.
	FieldName string `yaml:"-"`
	Setter    bool   `yaml:"-"`
}

type Requirement struct {
	Role      string `yaml:"role"`
	RoleHint  string `yaml:"roleHint,omitempty"`
	FieldName string `yaml:"fieldName"`
}
