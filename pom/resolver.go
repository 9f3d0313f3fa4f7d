package pom

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

type Scope string

const (
	ScopeCompile  Scope = "compile"
	ScopeProvided Scope = "provided"
	ScopeRuntime  Scope = "runtime"
	ScopeTest     Scope = "test"
	ScopeSystem   Scope = "system"
)

type ArtifactKey struct {
	GroupID    string
	ArtifactID string
}

func (k ArtifactKey) String() string {
	return k.GroupID + ":" + k.ArtifactID
}

// ResolvedDependency is one node of a resolved dependency graph. Depth is
// zero for direct dependencies.
type ResolvedDependency struct {
	Coordinate
	Scope    Scope
	Optional bool
	Depth    int
}

func (d ResolvedDependency) Key() ArtifactKey {
	return ArtifactKey{GroupID: d.GroupID, ArtifactID: d.ArtifactID}
}

// POMSource provides the models of dependencies. A missing POM is
// reported as (nil, nil) or as an error wrapping ErrArtifactNotFound; either
// way its transitive dependencies are skipped.
type POMSource interface {
	FetchPOM(ctx context.Context, groupID, artifactID, version string) (*Project, error)
}

// Resolver computes the scanning class path of a plugin project: its
// compile, provided and runtime dependencies with their transitive
// compile and runtime dependencies.
type Resolver struct {
	source POMSource
}

// NewResolver returns a resolver. A nil source resolves direct
// dependencies only.
func NewResolver(source POMSource) *Resolver {
	return &Resolver{source: source}
}

type ExclusionSet map[ArtifactKey]struct{}

// Contains honours "*" wildcards for the group, the artifact or both.
func (e ExclusionSet) Contains(key ArtifactKey) bool {
	for _, k := range []ArtifactKey{key, {key.GroupID, "*"}, {"*", key.ArtifactID}, {"*", "*"}} {
		if _, ok := e[k]; ok {
			return true
		}
	}
	return false
}

func (e ExclusionSet) Add(key ArtifactKey) {
	e[key] = struct{}{}
}

func (e ExclusionSet) Merge(other ExclusionSet) ExclusionSet {
	merged := make(ExclusionSet, len(e)+len(other))
	for k := range e {
		merged[k] = struct{}{}
	}
	for k := range other {
		merged[k] = struct{}{}
	}
	return merged
}

type pendingProject struct {
	project    *Project
	scope      Scope
	depth      int
	exclusions ExclusionSet
}

// Resolve walks the graph breadth first. The nearest declaration of an
// artifact wins, as in Maven, unless a hard version range somewhere in the
// graph excludes it; then the highest boundary version allowed by every
// range is chosen.
func (r *Resolver) Resolve(ctx context.Context, project *Project) ([]ResolvedDependency, error) {
	resolved := map[ArtifactKey]*ResolvedDependency{}
	requirements := map[ArtifactKey][]*VersionRequirement{}
	var order []ArtifactKey

	managed := managedVersions(project)
	queue := []pendingProject{{project: project, depth: 0, exclusions: ExclusionSet{}}}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := queue[0]
		queue = queue[1:]

		for _, dep := range current.project.Dependencies {
			key := ArtifactKey{GroupID: dep.GroupID, ArtifactID: dep.ArtifactID}
			if current.exclusions.Contains(key) || (dep.Optional == "true" && current.depth > 0) {
				continue
			}
			scope := transitiveScope(Scope(dep.Scope), current.scope, current.depth)
			if scope == "" {
				continue
			}
			version := current.project.Interpolate(dep.Version)
			if m, ok := managed[key]; ok && (version == "" || current.depth > 0) {
				version = m
			}
			if version == "" {
				return nil, fmt.Errorf("resolve %s: no version declared or managed", key)
			}
			req, err := ParseVersionRequirement(version)
			if err != nil {
				return nil, fmt.Errorf("resolve %s: %w", key, err)
			}
			requirements[key] = append(requirements[key], req)
			if _, seen := resolved[key]; seen {
				continue
			}

			rd := &ResolvedDependency{
				Coordinate: Coordinate{
					GroupID:    dep.GroupID,
					ArtifactID: dep.ArtifactID,
					Version:    version,
					Classifier: dep.Classifier,
					Type:       dep.Type,
				},
				Scope:    scope,
				Optional: dep.Optional == "true",
				Depth:    current.depth,
			}
			resolved[key] = rd
			order = append(order, key)

			if r.source == nil {
				continue
			}
			child, err := r.fetchChild(ctx, rd)
			if err != nil {
				return nil, err
			}
			if child == nil {
				continue
			}
			queue = append(queue, pendingProject{
				project:    child,
				scope:      scope,
				depth:      current.depth + 1,
				exclusions: current.exclusions.Merge(exclusionSet(dep.Exclusions)),
			})
		}
	}

	out := make([]ResolvedDependency, 0, len(order))
	for _, key := range order {
		rd := resolved[key]
		version, err := mediate(requirements[key])
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", key, err)
		}
		rd.Version = version
		out = append(out, *rd)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Depth < out[j].Depth })
	return out, nil
}

func (r *Resolver) fetchChild(ctx context.Context, rd *ResolvedDependency) (*Project, error) {
	req, err := ParseVersionRequirement(rd.Version)
	if err != nil || req.IsHard() {
		return nil, nil
	}
	child, err := r.source.FetchPOM(ctx, rd.GroupID, rd.ArtifactID, rd.Version)
	switch {
	case errors.Is(err, ErrArtifactNotFound):
		log.Warningf("no POM for %s, transitive dependencies skipped", rd.Coordinate)
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("fetch POM of %s: %w", rd.Coordinate, err)
	}
	return child, nil
}

func managedVersions(p *Project) map[ArtifactKey]string {
	managed := map[ArtifactKey]string{}
	if p.DependencyManagement == nil {
		return managed
	}
	for _, d := range p.DependencyManagement.Dependencies {
		managed[ArtifactKey{d.GroupID, d.ArtifactID}] = p.Interpolate(d.Version)
	}
	return managed
}

func exclusionSet(exclusions []Exclusion) ExclusionSet {
	set := ExclusionSet{}
	for _, ex := range exclusions {
		set.Add(ArtifactKey{GroupID: ex.GroupID, ArtifactID: ex.ArtifactID})
	}
	return set
}

// transitiveScope applies Maven's scope table. Direct dependencies keep
// their declared scope except system and test; provided and test
// dependencies are not inherited. An empty result drops the dependency.
func transitiveScope(declared, parent Scope, depth int) Scope {
	if declared == "" {
		declared = ScopeCompile
	}
	if depth == 0 {
		if declared == ScopeSystem || declared == ScopeTest {
			return ""
		}
		return declared
	}
	switch declared {
	case ScopeCompile:
		return parent
	case ScopeRuntime:
		if parent == ScopeCompile {
			return ScopeRuntime
		}
		return parent
	}
	return ""
}

func mediate(reqs []*VersionRequirement) (string, error) {
	var hard []*VersionRequirement
	for _, req := range reqs {
		if req.IsHard() {
			hard = append(hard, req)
		}
	}
	if len(hard) == 0 {
		return reqs[0].Raw, nil
	}
	if !reqs[0].IsHard() && allows(hard, reqs[0].Soft) {
		return reqs[0].Raw, nil
	}
	var best *Version
	for _, req := range hard {
		for _, rng := range req.Ranges {
			for _, bound := range []*Version{rng.Min, rng.Max} {
				if bound == nil || !rng.Contains(bound) || !allows(hard, bound) {
					continue
				}
				if best == nil || CompareVersions(bound, best) > 0 {
					best = bound
				}
			}
		}
	}
	if best == nil {
		return "", errors.New("no version satisfies every declared range")
	}
	return best.Raw, nil
}

func allows(reqs []*VersionRequirement, v *Version) bool {
	for _, req := range reqs {
		if !req.Allows(v) {
			return false
		}
	}
	return true
}
