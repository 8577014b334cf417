// Package record models the resolution documents manifest builds consume.
//
// A resolution document is the JSON form of one resolved record set: the
// source repository checkout it was resolved from, the top-level packages,
// and the dependency rows attributed to each package.
package record

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/git-pkgs/icm/internal/core"
	"github.com/git-pkgs/icm/internal/purlgen"
)

// Resolution is a resolved record set for one repository checkout.
type Resolution struct {
	ID       int64             `json:"id"`
	Repo     string            `json:"repo"`
	Ref      string            `json:"ref"`
	Packages []ResolvedPackage `json:"packages"`
}

// ResolvedPackage is one top-level package with its resolved dependencies.
type ResolvedPackage struct {
	ID           int64                `json:"id"`
	Type         string               `json:"type"`
	Name         string               `json:"name"`
	Version      string               `json:"version"`
	Subpath      string               `json:"subpath,omitempty"`
	Dependencies []ResolvedDependency `json:"dependencies"`
}

// ResolvedDependency is one dependency row of a package.
type ResolvedDependency struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Version string `json:"version"`
	Dev     bool   `json:"dev,omitempty"`
}

// Decode parses a resolution document.
func Decode(data []byte) (*Resolution, error) {
	var r Resolution
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding resolution: %w", err)
	}
	return &r, nil
}

// DecodeFile reads and parses a resolution document from disk.
func DecodeFile(path string) (*Resolution, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading resolution: %w", err)
	}
	return Decode(data)
}

// Flatten turns the per-package dependency rows into the flat package and
// edge lists a build consumes. Dependency rows become one edge each, in
// document order.
func (r *Resolution) Flatten() ([]core.Package, []core.Edge) {
	pkgs := make([]core.Package, 0, len(r.Packages))
	var edges []core.Edge

	for _, rp := range r.Packages {
		pkg := core.Package{
			ID:      rp.ID,
			Type:    core.PackageType(rp.Type),
			Name:    rp.Name,
			Version: rp.Version,
			Subpath: rp.Subpath,
		}
		pkgs = append(pkgs, pkg)

		for _, rd := range rp.Dependencies {
			edges = append(edges, core.Edge{
				Package: pkg,
				Dependency: core.Dependency{
					Type:    core.PackageType(rd.Type),
					Name:    rd.Name,
					Version: rd.Version,
					Dev:     rd.Dev,
				},
			})
		}
	}

	return pkgs, edges
}

// Purls returns the default purl deriver configured with the resolution's
// repository and ref.
func (r *Resolution) Purls() core.PurlDeriver {
	return purlgen.New(r.Repo, r.Ref)
}
