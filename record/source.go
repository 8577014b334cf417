package record

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/git-pkgs/icm/internal/core"
)

// ErrNotFound is returned when a resolution document does not exist.
var ErrNotFound = errors.New("resolution not found")

// Dir serves resolution documents from a directory of <id>.json files.
// It implements the package and edge listing a build consumes.
type Dir string

// Resolution loads and decodes one resolution document.
func (d Dir) Resolution(ctx context.Context, id int64) (*Resolution, error) {
	path := filepath.Join(string(d), fmt.Sprintf("%d.json", id))
	res, err := DecodeFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("resolution %d: %w", id, ErrNotFound)
	}
	return res, err
}

// Packages returns the top-level packages of a resolution.
func (d Dir) Packages(ctx context.Context, id int64) ([]core.Package, error) {
	res, err := d.Resolution(ctx, id)
	if err != nil {
		return nil, err
	}
	pkgs, _ := res.Flatten()
	return pkgs, nil
}

// Edges returns every (package, dependency) attribution of a resolution.
func (d Dir) Edges(ctx context.Context, id int64) ([]core.Edge, error) {
	res, err := d.Resolution(ctx, id)
	if err != nil {
		return nil, err
	}
	_, edges := res.Flatten()
	return edges, nil
}
