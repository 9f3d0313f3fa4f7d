// Package pom reads Maven project models, orders Maven versions, resolves
// dependency graphs and fetches artifacts from a Maven repository.
package pom

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
)

type Project struct {
	XMLName              xml.Name              `xml:"project"`
	GroupID              string                `xml:"groupId"`
	ArtifactID           string                `xml:"artifactId"`
	Version              string                `xml:"version"`
	Packaging            string                `xml:"packaging"`
	Name                 string                `xml:"name"`
	Description          string                `xml:"description"`
	URL                  string                `xml:"url"`
	Parent               *Parent               `xml:"parent"`
	Modules              []string              `xml:"modules>module"`
	Properties           *Properties           `xml:"properties"`
	Dependencies         []Dependency          `xml:"dependencies>dependency"`
	DependencyManagement *DependencyManagement `xml:"dependencyManagement"`
	Build                *Build                `xml:"build"`
	Prerequisites        *Prerequisites        `xml:"prerequisites"`
}

type Parent struct {
	GroupID      string `xml:"groupId"`
	ArtifactID   string `xml:"artifactId"`
	Version      string `xml:"version"`
	RelativePath string `xml:"relativePath"`
}

// Properties keeps the free form <properties> children by element name.
type Properties struct {
	Entries map[string]string
}

func (p *Properties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	p.Entries = map[string]string{}
	for {
		token, err := d.Token()
		if err != nil {
			return err
		}
		switch t := token.(type) {
		case xml.StartElement:
			var value string
			if err := d.DecodeElement(&value, &t); err != nil {
				return err
			}
			p.Entries[t.Name.Local] = strings.TrimSpace(value)
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

type Dependency struct {
	GroupID    string      `xml:"groupId"`
	ArtifactID string      `xml:"artifactId"`
	Version    string      `xml:"version"`
	Type       string      `xml:"type"`
	Classifier string      `xml:"classifier"`
	Scope      string      `xml:"scope"`
	Optional   string      `xml:"optional"`
	Exclusions []Exclusion `xml:"exclusions>exclusion"`
}

type Exclusion struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
}

type DependencyManagement struct {
	Dependencies []Dependency `xml:"dependencies>dependency"`
}

type Build struct {
	SourceDirectory     string   `xml:"sourceDirectory"`
	TestSourceDirectory string   `xml:"testSourceDirectory"`
	OutputDirectory     string   `xml:"outputDirectory"`
	Directory           string   `xml:"directory"`
	FinalName           string   `xml:"finalName"`
	Plugins             []Plugin `xml:"plugins>plugin"`
}

type Plugin struct {
	GroupID       string        `xml:"groupId"`
	ArtifactID    string        `xml:"artifactId"`
	Version       string        `xml:"version"`
	Configuration Configuration `xml:"configuration"`
}

// Configuration keeps the raw XML of a plugin configuration.
type Configuration struct {
	Inner []byte `xml:",innerxml"`
}

// Value returns the text of the first top level element named name.
func (c Configuration) Value(name string) (string, bool) {
	var fields struct {
		Elements []struct {
			XMLName xml.Name
			Value   string `xml:",chardata"`
		} `xml:",any"`
	}
	if err := xml.Unmarshal([]byte("<c>"+string(c.Inner)+"</c>"), &fields); err != nil {
		return "", false
	}
	for _, e := range fields.Elements {
		if e.XMLName.Local == name {
			return strings.TrimSpace(e.Value), true
		}
	}
	return "", false
}

type Prerequisites struct {
	Maven string `xml:"maven"`
}

// Parse decodes a POM and fills in the group and version inherited from
// the parent declaration.
func Parse(data []byte) (*Project, error) {
	var p Project
	if err := xml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse POM: %w", err)
	}
	if p.Parent != nil {
		if p.GroupID == "" {
			p.GroupID = p.Parent.GroupID
		}
		if p.Version == "" {
			p.Version = p.Parent.Version
		}
	}
	if p.Packaging == "" {
		p.Packaging = "jar"
	}
	return &p, nil
}

func ReadFile(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Coordinate returns the main artifact of the project.
func (p *Project) Coordinate() Coordinate {
	return Coordinate{GroupID: p.GroupID, ArtifactID: p.ArtifactID, Version: p.Version, Type: p.Packaging}
}

// Property looks up a property of the project, including the
// project.* built-ins.
func (p *Project) Property(name string) (string, bool) {
	switch name {
	case "project.groupId", "pom.groupId":
		return p.GroupID, true
	case "project.artifactId", "pom.artifactId":
		return p.ArtifactID, true
	case "project.version", "pom.version":
		return p.Version, true
	}
	if p.Properties == nil {
		return "", false
	}
	v, ok := p.Properties.Entries[name]
	return v, ok
}

// Interpolate replaces ${name} placeholders with project properties.
// Unknown placeholders are kept.
func (p *Project) Interpolate(s string) string {
	var sb strings.Builder
	for {
		start := strings.Index(s, "${")
		if start < 0 {
			break
		}
		end := strings.IndexByte(s[start:], '}')
		if end < 0 {
			break
		}
		name := s[start+2 : start+end]
		sb.WriteString(s[:start])
		if v, ok := p.Property(name); ok {
			sb.WriteString(v)
		} else {
			sb.WriteString(s[start : start+end+1])
		}
		s = s[start+end+1:]
	}
	sb.WriteString(s)
	return sb.String()
}

// Plugin finds a build plugin by artifact id.
func (p *Project) Plugin(artifactID string) (Plugin, bool) {
	if p.Build == nil {
		return Plugin{}, false
	}
	for _, pl := range p.Build.Plugins {
		if pl.ArtifactID == artifactID {
			return pl, true
		}
	}
	return Plugin{}, false
}
