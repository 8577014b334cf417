// Package gitsubmodule provides the manifest rules for git submodules.
package gitsubmodule

import "github.com/git-pkgs/icm/internal/core"

const packageType = core.GitSubmodule

func init() {
	core.Register(packageType, func() core.Processor {
		return New()
	})
}

// Processor seeds submodule entries. Submodules carry no dependency edges,
// so their entries keep empty dependency and source lists.
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
	return nil
}
