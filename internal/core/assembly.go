package core

// Assembly is the mutable state of one build: the module ledger, the
// per-type entry ledgers, and the module ownership memo. Every build
// constructs a fresh Assembly and discards it when the manifest is returned;
// nothing is shared across builds.
type Assembly struct {
	purls PurlDeriver
	diag  Diagnostics

	// modules is keyed by module name, entries by package id per type.
	// Seed order is kept so collection is stable before the canonical sort.
	modules    map[string]*ModuleEntry
	entries    map[PackageType]map[int64]*Entry
	entryOrder map[PackageType][]int64

	// owners memoizes package name -> owning module name, "" for misses.
	owners map[string]string
}

// NewAssembly creates the empty state for one build.
func NewAssembly(purls PurlDeriver, diag Diagnostics) *Assembly {
	return &Assembly{
		purls:      purls,
		diag:       diag,
		modules:    make(map[string]*ModuleEntry),
		entries:    make(map[PackageType]map[int64]*Entry),
		entryOrder: make(map[PackageType][]int64),
		owners:     make(map[string]string),
	}
}

// Purls returns the purl deriver for this build.
func (a *Assembly) Purls() PurlDeriver {
	return a.purls
}

// Diag returns the diagnostics sink for this build.
func (a *Assembly) Diag() Diagnostics {
	return a.diag
}

// PutModule records a Go module in the module ledger. Seeding the same
// module name again keeps the first entry.
func (a *Assembly) PutModule(name, modPurl string) *ModuleEntry {
	if m, ok := a.modules[name]; ok {
		return m
	}
	m := &ModuleEntry{Purl: modPurl, Dependencies: []PurlRef{}}
	a.modules[name] = m
	return m
}

// Module returns the ledger entry seeded for a module name.
func (a *Assembly) Module(name string) (*ModuleEntry, bool) {
	m, ok := a.modules[name]
	return m, ok
}

// PutEntry records a top-level manifest entry for a package. Seeding the
// same package id again keeps the first entry.
func (a *Assembly) PutEntry(t PackageType, id int64, entryPurl, name string) *Entry {
	byID := a.entries[t]
	if byID == nil {
		byID = make(map[int64]*Entry)
		a.entries[t] = byID
	}
	if e, ok := byID[id]; ok {
		return e
	}
	e := &Entry{
		Dependencies: []PurlRef{},
		Purl:         entryPurl,
		Sources:      []PurlRef{},
		Name:         name,
	}
	byID[id] = e
	a.entryOrder[t] = append(a.entryOrder[t], id)
	return e
}

// EntryFor returns the manifest entry seeded for a package id.
func (a *Assembly) EntryFor(t PackageType, id int64) (*Entry, bool) {
	e, ok := a.entries[t][id]
	return e, ok
}

// propagateGoSources copies each owning module's dependency list onto its go
// package entries. Packages with no resolvable module keep empty sources.
func (a *Assembly) propagateGoSources() {
	for _, id := range a.entryOrder[GoPackage] {
		e := a.entries[GoPackage][id]
		modName, ok := a.ParentModule(e.Name)
		if !ok {
			continue
		}
		mod, ok := a.Module(modName)
		if !ok {
			continue
		}
		sources := make([]PurlRef, len(mod.Dependencies))
		copy(sources, mod.Dependencies)
		e.Sources = sources
	}
}

// collect flattens the per-type ledgers into image contents. Modules are
// absent on purpose: they surface only through go package sources.
func (a *Assembly) collect() []Entry {
	var contents []Entry
	for _, t := range []PackageType{GoPackage, NPM, Pip, Yarn, GitSubmodule} {
		for _, id := range a.entryOrder[t] {
			contents = append(contents, *a.entries[t][id])
		}
	}
	return contents
}
