package icm_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/git-pkgs/icm"
	_ "github.com/git-pkgs/icm/all"
	"github.com/git-pkgs/icm/record"
)

func TestSupportedTypes(t *testing.T) {
	types := icm.Supported()
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	expected := []icm.PackageType{
		icm.GitSubmodule,
		icm.GoPackage,
		icm.GoModule,
		icm.NPM,
		icm.Pip,
		icm.Yarn,
	}

	if len(types) != len(expected) {
		t.Fatalf("expected %d package types, got %d: %v", len(expected), len(types), types)
	}

	for i, want := range expected {
		if types[i] != want {
			t.Errorf("expected type %q at position %d, got %q", want, i, types[i])
		}
	}
}

func TestNewProcessor(t *testing.T) {
	tests := []struct {
		pkgType icm.PackageType
		wantErr bool
	}{
		{icm.GoModule, false},
		{icm.GoPackage, false},
		{icm.NPM, false},
		{icm.Pip, false},
		{icm.Yarn, false},
		{icm.GitSubmodule, false},
		{"unknown", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.pkgType), func(t *testing.T) {
			p, err := icm.NewProcessor(tt.pkgType)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewProcessor(%q) error = %v, wantErr %v", tt.pkgType, err, tt.wantErr)
			}
			if err == nil && p.Type() != tt.pkgType {
				t.Errorf("Type() = %q, want %q", p.Type(), tt.pkgType)
			}
		})
	}
}

// mixedRecordSet is one resolved record set spanning the go and npm rules:
// a go module with two dependencies, the module's root package, a command
// package below the root, and an npm package with a runtime and a dev
// dependency.
func mixedRecordSet() ([]icm.Package, []icm.Edge) {
	mod := icm.Package{ID: 1, Type: icm.GoModule, Name: "example.com/mod", Version: "v1.0.0"}
	root := icm.Package{ID: 2, Type: icm.GoPackage, Name: "example.com/mod", Version: "v1.0.0"}
	app := icm.Package{ID: 3, Type: icm.GoPackage, Name: "example.com/mod/cmd/app", Version: "v1.0.0", Subpath: "cmd/app"}
	webapp := icm.Package{ID: 4, Type: icm.NPM, Name: "webapp", Version: "1.0.0"}

	pkgs := []icm.Package{mod, root, app, webapp}
	edges := []icm.Edge{
		{Package: mod, Dependency: icm.Dependency{Type: icm.GoModule, Name: "github.com/gorilla/mux", Version: "v1.8.1"}},
		{Package: mod, Dependency: icm.Dependency{Type: icm.GoModule, Name: "golang.org/x/net", Version: "v0.17.0"}},
		{Package: root, Dependency: icm.Dependency{Type: icm.GoPackage, Name: "github.com/gorilla/mux", Version: "v1.8.1"}},
		{Package: app, Dependency: icm.Dependency{Type: icm.GoPackage, Name: "golang.org/x/net", Version: "v0.17.0"}},
		{Package: webapp, Dependency: icm.Dependency{Type: icm.NPM, Name: "lodash", Version: "4.17.21"}},
		{Package: webapp, Dependency: icm.Dependency{Type: icm.NPM, Name: "jest", Version: "29.0.0", Dev: true}},
	}
	return pkgs, edges
}

func refs(purls ...string) []icm.PurlRef {
	out := make([]icm.PurlRef, 0, len(purls))
	for _, p := range purls {
		out = append(out, icm.PurlRef{Purl: p})
	}
	return out
}

func TestBuildMixedEcosystems(t *testing.T) {
	pkgs, edges := mixedRecordSet()

	manifest, err := icm.Build(pkgs, edges)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// The go module itself is never an image content; its dependencies
	// surface as the sources of the packages it owns.
	if len(manifest.ImageContents) != 3 {
		t.Fatalf("expected 3 entries, got %d: %+v", len(manifest.ImageContents), manifest.ImageContents)
	}

	muxPurl := "pkg:golang/github.com/gorilla/mux@v1.8.1"
	netPurl := "pkg:golang/golang.org/x/net@v0.17.0"

	appEntry := manifest.ImageContents[0]
	if appEntry.Purl != "pkg:golang/example.com/mod/cmd/app@v1.0.0#cmd/app" {
		t.Errorf("unexpected entry purl: %q", appEntry.Purl)
	}
	if !reflect.DeepEqual(appEntry.Dependencies, refs(netPurl)) {
		t.Errorf("unexpected dependencies: %v", appEntry.Dependencies)
	}
	if !reflect.DeepEqual(appEntry.Sources, refs(muxPurl, netPurl)) {
		t.Errorf("unexpected sources: %v", appEntry.Sources)
	}

	rootEntry := manifest.ImageContents[1]
	if rootEntry.Purl != "pkg:golang/example.com/mod@v1.0.0" {
		t.Errorf("unexpected entry purl: %q", rootEntry.Purl)
	}
	if !reflect.DeepEqual(rootEntry.Dependencies, refs(muxPurl)) {
		t.Errorf("unexpected dependencies: %v", rootEntry.Dependencies)
	}
	if !reflect.DeepEqual(rootEntry.Sources, refs(muxPurl, netPurl)) {
		t.Errorf("unexpected sources: %v", rootEntry.Sources)
	}

	npmEntry := manifest.ImageContents[2]
	if npmEntry.Purl != "pkg:npm/webapp@1.0.0" {
		t.Errorf("unexpected entry purl: %q", npmEntry.Purl)
	}
	if !reflect.DeepEqual(npmEntry.Dependencies, refs("pkg:npm/lodash@4.17.21")) {
		t.Errorf("unexpected dependencies: %v", npmEntry.Dependencies)
	}
	// Every dependency is a source; only the dev one stays out of dependencies.
	if !reflect.DeepEqual(npmEntry.Sources, refs("pkg:npm/jest@29.0.0", "pkg:npm/lodash@4.17.21")) {
		t.Errorf("unexpected sources: %v", npmEntry.Sources)
	}
}

func TestBuildDeterministic(t *testing.T) {
	pkgs, edges := mixedRecordSet()

	first, err := icm.Build(pkgs, edges)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// Same record set, reversed input order.
	revPkgs := make([]icm.Package, 0, len(pkgs))
	for i := len(pkgs) - 1; i >= 0; i-- {
		revPkgs = append(revPkgs, pkgs[i])
	}
	revEdges := make([]icm.Edge, 0, len(edges))
	for i := len(edges) - 1; i >= 0; i-- {
		revEdges = append(revEdges, edges[i])
	}

	second, err := icm.Build(revPkgs, revEdges)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	b1, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	b2, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	if !bytes.Equal(b1, b2) {
		t.Errorf("permuted input changed the manifest:\n%s\n%s", b1, b2)
	}
}

func TestBuildRelativeVersionSubpaths(t *testing.T) {
	mod := icm.Package{ID: 1, Type: icm.GoModule, Name: "example.com/mod", Version: "v1.0.0"}
	root := icm.Package{ID: 2, Type: icm.GoPackage, Name: "example.com/mod", Version: "v1.0.0"}

	// A relative version marks a dependency vendored inside the module's
	// own repository; it resolves to the module purl plus a subpath.
	pkgs := []icm.Package{mod, root}
	edges := []icm.Edge{
		{Package: mod, Dependency: icm.Dependency{Type: icm.GoModule, Name: "example.com/mod/api", Version: "./api"}},
		{Package: root, Dependency: icm.Dependency{Type: icm.GoPackage, Name: "example.com/mod/api", Version: "./api"}},
	}

	manifest, err := icm.Build(pkgs, edges)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(manifest.ImageContents) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(manifest.ImageContents))
	}

	vendored := "pkg:golang/example.com/mod@v1.0.0#api"
	entry := manifest.ImageContents[0]
	if !reflect.DeepEqual(entry.Dependencies, refs(vendored)) {
		t.Errorf("unexpected dependencies: %v", entry.Dependencies)
	}
	if !reflect.DeepEqual(entry.Sources, refs(vendored)) {
		t.Errorf("unexpected sources: %v", entry.Sources)
	}
}

type recordDiag struct {
	debugs []string
	warns  []string
}

func (d *recordDiag) Debug(msg string, args ...any) { d.debugs = append(d.debugs, msg) }
func (d *recordDiag) Warn(msg string, args ...any)  { d.warns = append(d.warns, msg) }

func TestBuildUnknownTypeOmitted(t *testing.T) {
	diag := &recordDiag{}

	manifest, err := icm.Build(
		[]icm.Package{
			{ID: 1, Type: icm.NPM, Name: "app", Version: "1.0.0"},
			{ID: 2, Type: "rpm", Name: "bash", Version: "5.0"},
		},
		nil,
		icm.WithDiagnostics(diag),
	)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(manifest.ImageContents) != 1 {
		t.Errorf("expected unknown type omitted, got %d entries", len(manifest.ImageContents))
	}
	if len(diag.debugs) != 1 {
		t.Errorf("expected 1 debug notice, got %v", diag.debugs)
	}
}

func TestBuildEmpty(t *testing.T) {
	manifest, err := icm.Build(nil, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if manifest.Metadata.IcmVersion != icm.Version {
		t.Errorf("IcmVersion = %d, want %d", manifest.Metadata.IcmVersion, icm.Version)
	}
	if manifest.Metadata.IcmSpec != icm.SpecURL {
		t.Errorf("IcmSpec = %q, want %q", manifest.Metadata.IcmSpec, icm.SpecURL)
	}
	if manifest.Metadata.ImageLayerIndex != icm.UnknownLayerIndex {
		t.Errorf("ImageLayerIndex = %d, want %d", manifest.Metadata.ImageLayerIndex, icm.UnknownLayerIndex)
	}

	data, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.HasPrefix(string(data), `{"image_contents":[],`) {
		t.Errorf("empty manifest must marshal an empty list, got %s", data)
	}
}

const resolutionDoc = `{
	"id": 42,
	"repo": "https://github.com/org/app",
	"ref": "abc123",
	"packages": [
		{
			"id": 1,
			"type": "npm",
			"name": "app",
			"version": "1.0.0",
			"dependencies": [
				{"type": "npm", "name": "lodash", "version": "4.17.21"}
			]
		}
	]
}`

func TestBuildResolution(t *testing.T) {
	res, err := record.Decode([]byte(resolutionDoc))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	manifest, err := icm.BuildResolution(res)
	if err != nil {
		t.Fatalf("BuildResolution failed: %v", err)
	}

	if len(manifest.ImageContents) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(manifest.ImageContents))
	}

	entry := manifest.ImageContents[0]
	if entry.Purl != "pkg:github/org/app@abc123" {
		t.Errorf("expected the repository purl for the top-level package, got %q", entry.Purl)
	}
	if !reflect.DeepEqual(entry.Dependencies, refs("pkg:npm/lodash@4.17.21")) {
		t.Errorf("unexpected dependencies: %v", entry.Dependencies)
	}
}

func TestBuildSourceAndBuildAll(t *testing.T) {
	dir := t.TempDir()
	docs := map[string]string{
		"1.json": `{"id": 1, "packages": [{"id": 10, "type": "npm", "name": "app", "version": "1.0.0", "dependencies": [{"type": "npm", "name": "lodash", "version": "4.17.21"}]}]}`,
		"2.json": `{"id": 2, "packages": [{"id": 20, "type": "pip", "name": "flask_app", "version": "2.0.0", "dependencies": []}]}`,
	}
	for name, doc := range docs {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(doc), 0644); err != nil {
			t.Fatalf("writing fixture: %v", err)
		}
	}

	src := record.Dir(dir)
	ctx := context.Background()

	manifest, err := icm.BuildSource(ctx, src, 1)
	if err != nil {
		t.Fatalf("BuildSource failed: %v", err)
	}
	if len(manifest.ImageContents) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(manifest.ImageContents))
	}
	if manifest.ImageContents[0].Purl != "pkg:npm/app@1.0.0" {
		t.Errorf("unexpected entry purl: %q", manifest.ImageContents[0].Purl)
	}

	// Missing resolutions are silently omitted from bulk results.
	manifests := icm.BuildAll(ctx, src, []int64{1, 2, 99})
	if len(manifests) != 2 {
		t.Fatalf("expected 2 manifests, got %d", len(manifests))
	}
	if manifests[2].ImageContents[0].Purl != "pkg:pypi/flask-app@2.0.0" {
		t.Errorf("unexpected entry purl: %q", manifests[2].ImageContents[0].Purl)
	}
	if _, ok := manifests[99]; ok {
		t.Error("expected missing resolution omitted")
	}
}

func TestEmittedPurlsParse(t *testing.T) {
	pkgs, edges := mixedRecordSet()

	manifest, err := icm.Build(pkgs, edges)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for _, entry := range manifest.ImageContents {
		if _, err := icm.ParsePURL(entry.Purl); err != nil {
			t.Errorf("entry purl %q does not parse: %v", entry.Purl, err)
		}
		for _, ref := range entry.Dependencies {
			if _, err := icm.ParsePURL(ref.Purl); err != nil {
				t.Errorf("dependency purl %q does not parse: %v", ref.Purl, err)
			}
		}
		for _, ref := range entry.Sources {
			if _, err := icm.ParsePURL(ref.Purl); err != nil {
				t.Errorf("source purl %q does not parse: %v", ref.Purl, err)
			}
		}
	}

	p, err := icm.ParsePURL("pkg:npm/webapp@1.0.0")
	if err != nil {
		t.Fatalf("ParsePURL failed: %v", err)
	}
	if p.Type != "npm" {
		t.Errorf("Type = %q, want %q", p.Type, "npm")
	}
	if p.Version != "1.0.0" {
		t.Errorf("Version = %q, want %q", p.Version, "1.0.0")
	}
}

func TestAddSubpath(t *testing.T) {
	got, err := icm.AddSubpath("pkg:npm/app@1.0.0", "packages/lib")
	if err != nil {
		t.Fatalf("AddSubpath failed: %v", err)
	}
	if got != "pkg:npm/app@1.0.0#packages/lib" {
		t.Errorf("AddSubpath = %q, want %q", got, "pkg:npm/app@1.0.0#packages/lib")
	}

	if _, err := icm.AddSubpath("not a purl", "lib"); err == nil {
		t.Error("expected error for invalid purl")
	}
}

func TestDefaultPurls(t *testing.T) {
	purls := icm.DefaultPurls("https://github.com/org/app", "abc123")

	got, err := purls.PackagePurl(icm.Package{Type: icm.NPM, Name: "app", Version: "1.0.0"})
	if err != nil {
		t.Fatalf("PackagePurl failed: %v", err)
	}
	if got != "pkg:github/org/app@abc123" {
		t.Errorf("PackagePurl = %q, want %q", got, "pkg:github/org/app@abc123")
	}
}
