package gomod

import (
	"errors"
	"testing"

	"github.com/git-pkgs/icm/internal/core"
	"github.com/git-pkgs/icm/internal/purlgen"
)

func newAssembly() *core.Assembly {
	return core.NewAssembly(purlgen.New("", ""), core.NopDiagnostics{})
}

func TestSeedRecordsModule(t *testing.T) {
	a := newAssembly()
	p := New()

	err := p.Seed(a, core.Package{ID: 1, Type: core.GoModule, Name: "example.com/mod", Version: "v1.0.0"})
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	mod, ok := a.Module("example.com/mod")
	if !ok {
		t.Fatal("expected module in ledger")
	}
	if mod.Purl != "pkg:golang/example.com/mod@v1.0.0" {
		t.Errorf("expected %q, got %q", "pkg:golang/example.com/mod@v1.0.0", mod.Purl)
	}
	if len(mod.Dependencies) != 0 {
		t.Errorf("expected empty dependencies, got %v", mod.Dependencies)
	}
}

func TestEdgeAppendsDependency(t *testing.T) {
	a := newAssembly()
	p := New()

	pkg := core.Package{ID: 1, Type: core.GoModule, Name: "example.com/mod", Version: "v1.0.0"}
	if err := p.Seed(a, pkg); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	err := p.Edge(a, pkg, core.Dependency{Type: core.GoModule, Name: "example.com/dep", Version: "v1.2.3"})
	if err != nil {
		t.Fatalf("Edge failed: %v", err)
	}

	mod, _ := a.Module("example.com/mod")
	if len(mod.Dependencies) != 1 {
		t.Fatalf("expected 1 dependency, got %d", len(mod.Dependencies))
	}
	if mod.Dependencies[0].Purl != "pkg:golang/example.com/dep@v1.2.3" {
		t.Errorf("unexpected purl: %q", mod.Dependencies[0].Purl)
	}
}

func TestEdgeRelativeVersion(t *testing.T) {
	a := newAssembly()
	p := New()

	pkg := core.Package{ID: 1, Type: core.GoModule, Name: "example.com/mod", Version: "v1.0.0"}
	if err := p.Seed(a, pkg); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	// A relative version marks a dependency vendored inside the module's
	// own repository.
	err := p.Edge(a, pkg, core.Dependency{
		Type:    core.GoModule,
		Name:    "example.com/mod/api",
		Version: "./staging/src/api",
	})
	if err != nil {
		t.Fatalf("Edge failed: %v", err)
	}

	mod, _ := a.Module("example.com/mod")
	expected := "pkg:golang/example.com/mod@v1.0.0#staging/src/api"
	if mod.Dependencies[0].Purl != expected {
		t.Errorf("expected %q, got %q", expected, mod.Dependencies[0].Purl)
	}
}

func TestEdgeIgnoresOtherTypes(t *testing.T) {
	a := newAssembly()
	p := New()

	pkg := core.Package{ID: 1, Type: core.GoModule, Name: "example.com/mod", Version: "v1.0.0"}
	if err := p.Seed(a, pkg); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	err := p.Edge(a, pkg, core.Dependency{Type: core.NPM, Name: "left-pad", Version: "1.3.0"})
	if err != nil {
		t.Fatalf("Edge failed: %v", err)
	}

	mod, _ := a.Module("example.com/mod")
	if len(mod.Dependencies) != 0 {
		t.Errorf("expected mismatched dependency to be ignored, got %v", mod.Dependencies)
	}
}

func TestEdgeUnseededModule(t *testing.T) {
	a := newAssembly()
	p := New()

	pkg := core.Package{ID: 1, Type: core.GoModule, Name: "example.com/mod", Version: "v1.0.0"}
	err := p.Edge(a, pkg, core.Dependency{Type: core.GoModule, Name: "example.com/dep", Version: "v1.2.3"})
	if err == nil {
		t.Fatal("expected error for unseeded module")
	}

	var unseeded *core.UnseededPackageError
	if !errors.As(err, &unseeded) {
		t.Errorf("expected UnseededPackageError, got %T", err)
	}
}

func TestSeedFirstWins(t *testing.T) {
	a := newAssembly()
	p := New()

	if err := p.Seed(a, core.Package{ID: 1, Type: core.GoModule, Name: "example.com/mod", Version: "v1.0.0"}); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if err := p.Seed(a, core.Package{ID: 2, Type: core.GoModule, Name: "example.com/mod", Version: "v2.0.0"}); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	mod, _ := a.Module("example.com/mod")
	if mod.Purl != "pkg:golang/example.com/mod@v1.0.0" {
		t.Errorf("expected first seed to win, got %q", mod.Purl)
	}
}
