package core

import (
	"path"
	"strings"

	"github.com/git-pkgs/purl"
)

// AddSubpath extends a package URL with a path inside the package. The
// relative path is cleaned first, so "./deep/../sub" lands as "sub". A purl
// that already carries a subpath fragment gets the segment appended with "/";
// otherwise the "#" separator is introduced.
func AddSubpath(basePurl, relPath string) (string, error) {
	if _, err := purl.Parse(basePurl); err != nil {
		return "", &InvalidPurlError{Purl: basePurl, Err: err}
	}

	cleaned := path.Clean(relPath)
	if strings.Contains(basePurl, "#") {
		return basePurl + "/" + cleaned, nil
	}
	return basePurl + "#" + cleaned, nil
}
