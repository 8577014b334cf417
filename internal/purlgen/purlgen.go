// Package purlgen provides the default purl derivation for manifest builds.
package purlgen

import (
	"fmt"
	"net/url"
	"strings"

	packageurl "github.com/package-url/packageurl-go"

	"github.com/git-pkgs/icm/internal/core"
)

// Generator derives purls for packages and dependencies. repo and ref locate
// the source repository the record set was resolved from; top-level npm, pip
// and yarn packages are identified by that repository rather than by a
// registry upload. With no repository configured they fall back to their
// registry purl.
type Generator struct {
	repo string
	ref  string
}

// New creates a Generator for a source repository checkout. Both arguments
// may be empty when no repository context exists.
func New(repo, ref string) *Generator {
	return &Generator{
		repo: strings.TrimSuffix(repo, "/"),
		ref:  ref,
	}
}

// PackagePurl returns the top-level purl for a package. Subpaths append as
// purl fragments, except for git submodules: a submodule purl already
// locates the exact repository and ref.
func (g *Generator) PackagePurl(pkg core.Package) (string, error) {
	base, err := g.topLevelPurl(pkg)
	if err != nil {
		return "", err
	}
	if pkg.Subpath == "" || pkg.Type == core.GitSubmodule {
		return base, nil
	}
	return core.AddSubpath(base, pkg.Subpath)
}

func (g *Generator) topLevelPurl(pkg core.Package) (string, error) {
	switch pkg.Type {
	case core.GoModule, core.GoPackage:
		return golangPurl(pkg.Name, pkg.Version), nil
	case core.NPM, core.Yarn:
		if g.repo != "" {
			return vcsPurl(g.repo, g.ref)
		}
		return npmPurl(pkg.Name, pkg.Version), nil
	case core.Pip:
		if g.repo != "" {
			return vcsPurl(g.repo, g.ref)
		}
		return pypiPurl(pkg.Name, pkg.Version), nil
	case core.GitSubmodule:
		return submodulePurl(pkg.Name, pkg.Version)
	default:
		return "", &core.UnknownTypeError{Type: pkg.Type}
	}
}

// DependencyPurl returns the registry purl for a resolved dependency.
func (g *Generator) DependencyPurl(dep core.Dependency) (string, error) {
	switch dep.Type {
	case core.GoModule, core.GoPackage:
		return golangPurl(dep.Name, dep.Version), nil
	case core.NPM, core.Yarn:
		// yarn resolves against the npm registry; there is no yarn purl type
		return npmPurl(dep.Name, dep.Version), nil
	case core.Pip:
		return pypiPurl(dep.Name, dep.Version), nil
	case core.GitSubmodule:
		return submodulePurl(dep.Name, dep.Version)
	default:
		return "", &core.UnknownTypeError{Type: dep.Type}
	}
}

// encodeForProxy encodes a module path according to the goproxy protocol.
// Capital letters are replaced with "!" followed by the lowercase letter.
// https://go.dev/ref/mod#goproxy-protocol
func encodeForProxy(path string) string {
	var b strings.Builder
	for _, r := range path {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune('!')
			b.WriteRune(r + 32) // lowercase
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func golangPurl(name, version string) string {
	parts := strings.Split(name, "/")
	namespace := ""
	pkgName := encodeForProxy(name)

	if len(parts) > 1 {
		namespace = encodeForProxy(strings.Join(parts[:len(parts)-1], "/"))
		pkgName = encodeForProxy(parts[len(parts)-1])
	}

	if namespace != "" {
		if version != "" {
			return fmt.Sprintf("pkg:golang/%s/%s@%s", namespace, pkgName, version)
		}
		return fmt.Sprintf("pkg:golang/%s/%s", namespace, pkgName)
	}

	if version != "" {
		return fmt.Sprintf("pkg:golang/%s@%s", pkgName, version)
	}
	return fmt.Sprintf("pkg:golang/%s", pkgName)
}

func npmPurl(name, version string) string {
	namespace := ""
	pkgName := name
	if strings.HasPrefix(name, "@") && strings.Contains(name, "/") {
		parts := strings.SplitN(name, "/", 2)
		namespace = parts[0]
		pkgName = parts[1]
	}

	if namespace != "" {
		if version != "" {
			return fmt.Sprintf("pkg:npm/%s/%s@%s", namespace, pkgName, version)
		}
		return fmt.Sprintf("pkg:npm/%s/%s", namespace, pkgName)
	}

	if version != "" {
		return fmt.Sprintf("pkg:npm/%s@%s", pkgName, version)
	}
	return fmt.Sprintf("pkg:npm/%s", pkgName)
}

// normalizeName applies PEP 503 normalization to a pypi project name.
func normalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "_", "-")
	name = strings.ReplaceAll(name, ".", "-")
	return name
}

func pypiPurl(name, version string) string {
	normalized := normalizeName(name)
	if version != "" {
		return fmt.Sprintf("pkg:pypi/%s@%s", normalized, version)
	}
	return fmt.Sprintf("pkg:pypi/%s", normalized)
}

// submodulePurl identifies a git submodule. The version carries the
// submodule's own repository and ref as "<repo>#<ref>".
func submodulePurl(name, version string) (string, error) {
	idx := strings.LastIndex(version, "#")
	if idx < 0 {
		return "", fmt.Errorf("git-submodule %s: version %q carries no ref", name, version)
	}
	return vcsPurl(version[:idx], version[idx+1:])
}

// vcsPurl identifies a repository checkout. Recognized hosts get their own
// purl type; anything else becomes a generic purl with the checkout in a
// vcs_url qualifier.
func vcsPurl(repoURL, ref string) (string, error) {
	repoURL = strings.TrimSuffix(repoURL, "/")
	parsed, err := url.Parse(repoURL)
	if err != nil {
		return "", fmt.Errorf("parsing repository url %q: %w", repoURL, err)
	}

	repoPath := strings.Trim(parsed.Path, "/")
	parts := strings.Split(repoPath, "/")
	name := strings.TrimSuffix(parts[len(parts)-1], ".git")
	if name == "" {
		return "", fmt.Errorf("repository url %q has no repository name", repoURL)
	}
	namespace := strings.Join(parts[:len(parts)-1], "/")

	switch strings.ToLower(parsed.Hostname()) {
	case "github.com":
		return fmt.Sprintf("pkg:github/%s/%s@%s", strings.ToLower(namespace), strings.ToLower(name), ref), nil
	case "bitbucket.org":
		return fmt.Sprintf("pkg:bitbucket/%s/%s@%s", strings.ToLower(namespace), strings.ToLower(name), ref), nil
	default:
		qualifiers := packageurl.QualifiersFromMap(map[string]string{
			"vcs_url": fmt.Sprintf("%s@%s", repoURL, ref),
		})
		return packageurl.NewPackageURL("generic", "", name, "", qualifiers, "").ToString(), nil
	}
}
