package core

import "strings"

// ParentModule resolves the Go module that owns a go package: an exact name
// match, or else the longest seeded module whose path contains the package.
// Results are memoized for the build, misses included, so a missing module
// is warned about once per package name.
func (a *Assembly) ParentModule(pkgName string) (string, bool) {
	if name, ok := a.owners[pkgName]; ok {
		return name, name != ""
	}

	name := a.matchParentModule(pkgName)
	if name == "" {
		a.diag.Warn("could not find a Go module for package", "package", pkgName)
	}
	a.owners[pkgName] = name
	return name, name != ""
}

func (a *Assembly) matchParentModule(pkgName string) string {
	if _, ok := a.modules[pkgName]; ok {
		return pkgName
	}

	best := ""
	for name := range a.modules {
		if len(name) > len(best) && ContainsPackage(name, pkgName) {
			best = name
		}
	}
	return best
}

// ContainsPackage reports whether a package path lives inside a module path.
// The module path must be a prefix of the package path ending on a "/"
// boundary: example.com/mod contains example.com/mod/sub but not
// example.com/module.
func ContainsPackage(module, pkg string) bool {
	if !strings.HasPrefix(pkg, module) {
		return false
	}
	return len(pkg) == len(module) || pkg[len(module)] == '/'
}

// PathToSubpackage returns the path of a package relative to its module,
// "" when the package is the module root. The second return is false when
// the module does not contain the package.
func PathToSubpackage(module, pkg string) (string, bool) {
	if !ContainsPackage(module, pkg) {
		return "", false
	}
	return strings.TrimPrefix(strings.TrimPrefix(pkg, module), "/"), true
}
