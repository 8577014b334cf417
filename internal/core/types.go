// Package core provides the manifest data model and the processor system.
package core

import "context"

const (
	// Version is the ICM schema version emitted in manifest metadata.
	Version = 1

	// SpecURL locates the JSON schema the emitted manifest conforms to.
	SpecURL = "https://raw.githubusercontent.com/containerbuildsystem/atomic-reactor/" +
		"f4abcfdaf8247a6b074f94fa84f3846f82d781c6/atomic_reactor/schemas/content_manifest.json"

	// UnknownLayerIndex is the image_layer_index sentinel for manifests that
	// have not been attributed to a concrete image layer.
	UnknownLayerIndex = -1
)

// PackageType identifies the package manager ecosystem a package or
// dependency was resolved with.
type PackageType string

const (
	GoModule     PackageType = "gomod"
	GoPackage    PackageType = "go-package"
	NPM          PackageType = "npm"
	Pip          PackageType = "pip"
	Yarn         PackageType = "yarn"
	GitSubmodule PackageType = "git-submodule"
)

// Package is a top-level package from a resolved record set.
type Package struct {
	ID      int64
	Type    PackageType
	Name    string
	Version string
	Subpath string // path inside the source repository, "" for the root
}

// Dependency is one resolved dependency of a top-level package.
type Dependency struct {
	Type    PackageType
	Name    string
	Version string
	Dev     bool // dev dependencies are reported as sources but not dependencies
}

// Edge attributes one resolved dependency to the top-level package that
// pulled it in.
type Edge struct {
	Package    Package
	Dependency Dependency
}

// PurlRef is the single-key record used in dependency and source lists.
type PurlRef struct {
	Purl string `json:"purl"`
}

// Entry is one image_contents element: a top-level package with its direct
// dependencies and its source closure.
//
// Fields are declared in lexicographic key order; encoding/json preserves
// declaration order, which keeps marshaled keys canonical.
type Entry struct {
	Dependencies []PurlRef `json:"dependencies"`
	Purl         string    `json:"purl"`
	Sources      []PurlRef `json:"sources"`

	// Name is the package name the entry was seeded from. Go packages are
	// matched to their parent module by name; never marshaled.
	Name string `json:"-"`
}

// ModuleEntry is the ledger a Go module accumulates its dependencies in.
// Modules never appear in image_contents; their dependencies become the
// sources of the go packages they own.
type ModuleEntry struct {
	Purl         string
	Dependencies []PurlRef
}

// Metadata describes the manifest document itself.
// Fields are declared in lexicographic key order, as in Entry.
type Metadata struct {
	IcmSpec         string `json:"icm_spec"`
	IcmVersion      int    `json:"icm_version"`
	ImageLayerIndex int    `json:"image_layer_index"`
}

// Manifest is a complete Image Content Manifest document.
type Manifest struct {
	ImageContents []Entry  `json:"image_contents"`
	Metadata      Metadata `json:"metadata"`
}

// NewManifest wraps image contents in a manifest with standard metadata and
// canonicalizes the result. The layer index is UnknownLayerIndex; attributing
// the manifest to a concrete layer is the caller's concern.
func NewManifest(contents []Entry) *Manifest {
	if contents == nil {
		contents = []Entry{}
	}
	m := &Manifest{
		ImageContents: contents,
		Metadata: Metadata{
			IcmSpec:         SpecURL,
			IcmVersion:      Version,
			ImageLayerIndex: UnknownLayerIndex,
		},
	}
	m.Canonicalize()
	return m
}

// PurlDeriver produces package URLs for top-level packages and dependencies.
type PurlDeriver interface {
	// PackagePurl returns the purl identifying a top-level package,
	// including the subpath fragment for packages below the repository root.
	PackagePurl(pkg Package) (string, error)

	// DependencyPurl returns the purl identifying a resolved dependency.
	DependencyPurl(dep Dependency) (string, error)
}

// Source lists the resolved record set of a stored resolution.
type Source interface {
	// Packages returns the top-level packages of a resolution.
	Packages(ctx context.Context, resolutionID int64) ([]Package, error)

	// Edges returns every (package, dependency) attribution of a resolution.
	Edges(ctx context.Context, resolutionID int64) ([]Edge, error)
}
