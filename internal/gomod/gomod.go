// Package gomod provides the manifest rules for Go modules.
package gomod

import (
	"strings"

	"github.com/git-pkgs/icm/internal/core"
)

const packageType = core.GoModule

func init() {
	core.Register(packageType, func() core.Processor {
		return New()
	})
}

// Processor accumulates Go module dependencies in the assembly's module
// ledger. Modules never become image_contents entries themselves; their
// dependency lists are handed to the go packages they own.
type Processor struct{}

func New() *Processor {
	return &Processor{}
}

func (p *Processor) Type() core.PackageType {
	return packageType
}

// Seed records the module in the module ledger under its name.
func (p *Processor) Seed(a *core.Assembly, pkg core.Package) error {
	modPurl, err := a.Purls().PackagePurl(pkg)
	if err != nil {
		return err
	}
	a.PutModule(pkg.Name, modPurl)
	return nil
}

// Edge appends one module dependency. A version starting with "." marks a
// dependency replaced by a relative path in the module's own repository; its
// purl is the module purl extended with that path.
func (p *Processor) Edge(a *core.Assembly, pkg core.Package, dep core.Dependency) error {
	if dep.Type != packageType {
		return nil
	}

	mod, ok := a.Module(pkg.Name)
	if !ok {
		return &core.UnseededPackageError{Type: pkg.Type, ID: pkg.ID, Name: pkg.Name}
	}

	var depPurl string
	var err error
	if strings.HasPrefix(dep.Version, ".") {
		depPurl, err = core.AddSubpath(mod.Purl, dep.Version)
	} else {
		depPurl, err = a.Purls().DependencyPurl(dep)
	}
	if err != nil {
		return err
	}

	mod.Dependencies = append(mod.Dependencies, core.PurlRef{Purl: depPurl})
	return nil
}
