// Package pip provides the manifest rules for pip packages.
package pip

import "github.com/git-pkgs/icm/internal/core"

const packageType = core.Pip

func init() {
	core.Register(packageType, func() core.Processor {
		return New()
	})
}

// Processor applies the standard dependency rules to pip packages.
type Processor struct{}

func New() *Processor {
	return &Processor{}
}

func (p *Processor) Type() core.PackageType {
	return packageType
}

func (p *Processor) Seed(a *core.Assembly, pkg core.Package) error {
	return core.StandardSeed(a, packageType, pkg)
}

func (p *Processor) Edge(a *core.Assembly, pkg core.Package, dep core.Dependency) error {
	if dep.Type != packageType {
		return nil
	}
	return core.StandardEdge(a, packageType, pkg, dep)
}
