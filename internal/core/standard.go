package core

// StandardSeed records a top-level entry for ecosystems without special
// manifest handling.
func StandardSeed(a *Assembly, t PackageType, pkg Package) error {
	pkgPurl, err := a.purls.PackagePurl(pkg)
	if err != nil {
		return err
	}
	a.PutEntry(t, pkg.ID, pkgPurl, pkg.Name)
	return nil
}

// StandardEdge applies the shared dependency rule for ecosystems without
// special manifest handling: the dependency purl is recorded as a source
// always, and as a direct dependency unless the dependency is dev-only.
func StandardEdge(a *Assembly, t PackageType, pkg Package, dep Dependency) error {
	entry, ok := a.EntryFor(t, pkg.ID)
	if !ok {
		return &UnseededPackageError{Type: pkg.Type, ID: pkg.ID, Name: pkg.Name}
	}

	depPurl, err := a.purls.DependencyPurl(dep)
	if err != nil {
		return err
	}

	ref := PurlRef{Purl: depPurl}
	entry.Sources = append(entry.Sources, ref)
	if !dep.Dev {
		entry.Dependencies = append(entry.Dependencies, ref)
	}
	return nil
}
