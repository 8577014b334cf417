package core

import "fmt"

// Option configures a single build.
type Option func(*buildOptions)

type buildOptions struct {
	purls PurlDeriver
	diag  Diagnostics
}

// WithPurls sets the purl deriver used for top-level packages and
// dependencies.
func WithPurls(d PurlDeriver) Option {
	return func(o *buildOptions) {
		o.purls = d
	}
}

// WithDiagnostics sets the sink for non-fatal build notices.
func WithDiagnostics(d Diagnostics) Option {
	return func(o *buildOptions) {
		o.diag = d
	}
}

// BuildManifest assembles a canonical manifest from a resolved record set.
// The build is self-contained: all state lives in a per-call Assembly, and
// the processor set is instantiated fresh from the registered factories, so
// concurrent builds do not interfere.
//
// Packages of unregistered types are reported to the diagnostics sink and
// omitted; edges of unregistered types are skipped. Any processor or purl
// derivation error aborts the build with no partial manifest.
func BuildManifest(pkgs []Package, edges []Edge, opts ...Option) (*Manifest, error) {
	o := buildOptions{diag: NopDiagnostics{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.purls == nil {
		return nil, fmt.Errorf("content manifest: no purl deriver configured")
	}

	procs := newProcessors()
	a := NewAssembly(o.purls, o.diag)

	for _, pkg := range pkgs {
		proc, ok := procs[pkg.Type]
		if !ok {
			a.diag.Debug("no manifest rules for package type", "type", string(pkg.Type))
			continue
		}
		if err := proc.Seed(a, pkg); err != nil {
			return nil, err
		}
	}

	for _, edge := range edges {
		proc, ok := procs[edge.Package.Type]
		if !ok {
			continue
		}
		if err := proc.Edge(a, edge.Package, edge.Dependency); err != nil {
			return nil, err
		}
	}

	a.propagateGoSources()

	return NewManifest(a.collect()), nil
}
