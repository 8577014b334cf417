// Package icm builds Image Content Manifests from resolved dependency
// record sets.
//
// An Image Content Manifest (ICM) reports what went into a container image:
// one entry per top-level package, carrying the package purl, the purls of
// its runtime dependencies, and the purls of the sources used to build it.
// The builder consumes top-level packages and (package, dependency) edges
// from multiple package manager ecosystems and emits a deterministic,
// schema-conformant document: the same record set produces byte-identical
// JSON no matter how the input was ordered.
//
// Basic usage:
//
//	import (
//		"encoding/json"
//		"github.com/git-pkgs/icm"
//		"github.com/git-pkgs/icm/record"
//		_ "github.com/git-pkgs/icm/all"
//	)
//
//	res, err := record.DecodeFile("resolution.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	manifest, err := icm.BuildResolution(res)
//	if err != nil {
//		log.Fatal(err)
//	}
//	out, _ := json.Marshal(manifest)
//
// To automatically register the manifest rules for all package types, use
// the all subpackage:
//
//	import (
//		"github.com/git-pkgs/icm"
//		_ "github.com/git-pkgs/icm/all"
//	)
package icm

import (
	"context"

	"github.com/git-pkgs/purl"
	"github.com/hashicorp/go-hclog"

	"github.com/git-pkgs/icm/internal/core"
	"github.com/git-pkgs/icm/internal/purlgen"
	"github.com/git-pkgs/icm/record"
)

// Re-export types from internal/core
type (
	// Package is a top-level package from a resolved record set.
	Package = core.Package

	// Dependency is one resolved dependency of a top-level package.
	Dependency = core.Dependency

	// Edge attributes one resolved dependency to its top-level package.
	Edge = core.Edge

	// PackageType identifies a package manager ecosystem.
	PackageType = core.PackageType

	// PurlRef is the single-key record used in dependency and source lists.
	PurlRef = core.PurlRef

	// Entry is one image_contents element of a manifest.
	Entry = core.Entry

	// Metadata describes the manifest document itself.
	Metadata = core.Metadata

	// Manifest is a complete Image Content Manifest document.
	Manifest = core.Manifest

	// Processor implements the manifest rules for one package type.
	Processor = core.Processor

	// PurlDeriver produces purls for top-level packages and dependencies.
	PurlDeriver = core.PurlDeriver

	// Diagnostics receives non-fatal notices raised during a build.
	Diagnostics = core.Diagnostics

	// NopDiagnostics discards all notices. It is the default sink.
	NopDiagnostics = core.NopDiagnostics

	// Source lists the resolved record set of a stored resolution.
	Source = core.Source
)

// Re-export constants
const (
	GoModule     = core.GoModule
	GoPackage    = core.GoPackage
	NPM          = core.NPM
	Pip          = core.Pip
	Yarn         = core.Yarn
	GitSubmodule = core.GitSubmodule

	// Version is the ICM schema version emitted in manifest metadata.
	Version = core.Version

	// SpecURL locates the JSON schema emitted manifests conform to.
	SpecURL = core.SpecURL

	// UnknownLayerIndex is the image_layer_index sentinel for manifests not
	// attributed to a concrete image layer.
	UnknownLayerIndex = core.UnknownLayerIndex
)

// Re-export errors
var (
	ErrUnknownType = core.ErrUnknownType
)

// Error types
type (
	UnknownTypeError     = core.UnknownTypeError
	InvalidPurlError     = core.InvalidPurlError
	UnseededPackageError = core.UnseededPackageError
)

// Option configures a single build.
type Option = core.Option

// WithPurls sets the purl deriver used for top-level packages and
// dependencies.
var WithPurls = core.WithPurls

// WithDiagnostics sets the sink for non-fatal build notices.
var WithDiagnostics = core.WithDiagnostics

// Build assembles a canonical manifest from a resolved record set.
// Every build is self-contained and concurrency-safe: state lives in
// per-call assembly, and the processor set is instantiated fresh from the
// registered factories.
//
// Purls are derived with DefaultPurls("", "") unless WithPurls is given.
func Build(pkgs []Package, edges []Edge, opts ...Option) (*Manifest, error) {
	return core.BuildManifest(pkgs, edges, withDefaults(opts)...)
}

// BuildResolution builds the manifest for a decoded resolution document.
// Purls are derived with the document's repository context unless WithPurls
// is given.
func BuildResolution(res *record.Resolution, opts ...Option) (*Manifest, error) {
	pkgs, edges := res.Flatten()
	all := append([]Option{WithPurls(res.Purls())}, opts...)
	return core.BuildManifest(pkgs, edges, all...)
}

// BuildSource builds the manifest for a stored resolution, listing its
// packages and edges from src.
func BuildSource(ctx context.Context, src Source, resolutionID int64, opts ...Option) (*Manifest, error) {
	return core.BuildSource(ctx, src, resolutionID, withDefaults(opts)...)
}

// BuildAll builds manifests for multiple stored resolutions in parallel.
// Individual build errors are silently ignored - those resolutions are
// omitted from the results. Returns a map of resolution id to Manifest.
func BuildAll(ctx context.Context, src Source, ids []int64, opts ...Option) map[int64]*Manifest {
	return core.BuildAll(ctx, src, ids, withDefaults(opts)...)
}

// BuildAllWithConcurrency builds with a custom concurrency limit.
func BuildAllWithConcurrency(ctx context.Context, src Source, ids []int64, concurrency int, opts ...Option) map[int64]*Manifest {
	return core.BuildAllWithConcurrency(ctx, src, ids, concurrency, withDefaults(opts)...)
}

func withDefaults(opts []Option) []Option {
	return append([]Option{WithPurls(purlgen.New("", ""))}, opts...)
}

// NewManifest wraps prepared image contents in a canonical manifest with
// standard metadata. Use it for manifests assembled outside a build, such
// as the empty manifest of a resolution with no packages.
func NewManifest(contents []Entry) *Manifest {
	return core.NewManifest(contents)
}

// DefaultPurls returns the default purl deriver for a repository checkout.
// Top-level npm, pip and yarn packages are identified by the repository;
// with an empty repo they fall back to registry purls.
func DefaultPurls(repo, ref string) PurlDeriver {
	return purlgen.New(repo, ref)
}

// Supported returns all registered package types.
// Note: package types must be imported to be registered.
func Supported() []PackageType {
	return core.Supported()
}

// NewProcessor creates a processor for the given package type.
func NewProcessor(t PackageType) (Processor, error) {
	return core.NewProcessor(t)
}

// AddSubpath extends a package URL with a path inside the package, for
// custom PurlDeriver implementations that need subpath fragments.
func AddSubpath(basePurl, relPath string) (string, error) {
	return core.AddSubpath(basePurl, relPath)
}

// PURL represents a parsed Package URL.
type PURL = purl.PURL

// ParsePURL parses a Package URL string into its components.
// Supports both package PURLs (pkg:npm/lodash) and version PURLs
// (pkg:npm/lodash@4.17.21).
func ParsePURL(purlStr string) (*PURL, error) {
	return purl.Parse(purlStr)
}

// HclogDiagnostics adapts an hclog logger into a build diagnostics sink.
func HclogDiagnostics(l hclog.Logger) Diagnostics {
	return hclogDiag{l: l}
}

type hclogDiag struct {
	l hclog.Logger
}

func (d hclogDiag) Debug(msg string, args ...any) {
	d.l.Debug(msg, args...)
}

func (d hclogDiag) Warn(msg string, args ...any) {
	d.l.Warn(msg, args...)
}
