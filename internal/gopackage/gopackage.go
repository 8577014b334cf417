// Package gopackage provides the manifest rules for Go packages.
package gopackage

import (
	"strings"

	"github.com/git-pkgs/icm/internal/core"
)

const packageType = core.GoPackage

func init() {
	core.Register(packageType, func() core.Processor {
		return New()
	})
}

// Processor builds image_contents entries for go packages. Dependency purls
// lean on the owning module: relative versions and subpackages of vcs-rooted
// modules are expressed as subpaths of the module purl.
type Processor struct{}

func New() *Processor {
	return &Processor{}
}

func (p *Processor) Type() core.PackageType {
	return packageType
}

func (p *Processor) Seed(a *core.Assembly, pkg core.Package) error {
	pkgPurl, err := a.Purls().PackagePurl(pkg)
	if err != nil {
		return err
	}
	a.PutEntry(packageType, pkg.ID, pkgPurl, pkg.Name)
	return nil
}

// Edge appends one go package dependency. Sources are not touched here; they
// are propagated wholesale from the owning module after all edges.
func (p *Processor) Edge(a *core.Assembly, pkg core.Package, dep core.Dependency) error {
	if dep.Type != packageType {
		return nil
	}

	entry, ok := a.EntryFor(packageType, pkg.ID)
	if !ok {
		return &core.UnseededPackageError{Type: pkg.Type, ID: pkg.ID, Name: pkg.Name}
	}

	depPurl, err := p.dependencyPurl(a, pkg, dep)
	if err != nil {
		return err
	}

	entry.Dependencies = append(entry.Dependencies, core.PurlRef{Purl: depPurl})
	return nil
}

func (p *Processor) dependencyPurl(a *core.Assembly, pkg core.Package, dep core.Dependency) (string, error) {
	var modName, modPurl string
	if name, ok := a.ParentModule(pkg.Name); ok {
		modName = name
		if mod, ok := a.Module(modName); ok {
			modPurl = mod.Purl
		}
	}

	if modPurl != "" && strings.HasPrefix(dep.Version, ".") {
		return core.AddSubpath(modPurl, dep.Version)
	}

	// A module rooted in a vcs purl keeps the packages it owns under that
	// purl too, instead of minting registry-style purls for them.
	if modPurl != "" && !strings.HasPrefix(modPurl, "pkg:golang") {
		if subpath, ok := core.PathToSubpackage(modName, dep.Name); ok {
			return core.AddSubpath(modPurl, subpath)
		}
	}

	return a.Purls().DependencyPurl(dep)
}
