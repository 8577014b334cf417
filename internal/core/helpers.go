package core

import (
	"context"
	"sync"
)

const defaultConcurrency = 15

// BuildSource assembles the manifest for one stored resolution, listing its
// packages and edges from src.
func BuildSource(ctx context.Context, src Source, resolutionID int64, opts ...Option) (*Manifest, error) {
	pkgs, err := src.Packages(ctx, resolutionID)
	if err != nil {
		return nil, err
	}

	edges, err := src.Edges(ctx, resolutionID)
	if err != nil {
		return nil, err
	}

	return BuildManifest(pkgs, edges, opts...)
}

// BuildAll builds manifests for multiple stored resolutions in parallel.
// Individual build errors are silently ignored - those resolutions are
// omitted from the results. Returns a map of resolution id to manifest.
func BuildAll(ctx context.Context, src Source, ids []int64, opts ...Option) map[int64]*Manifest {
	return BuildAllWithConcurrency(ctx, src, ids, defaultConcurrency, opts...)
}

// BuildAllWithConcurrency builds with a custom concurrency limit.
func BuildAllWithConcurrency(ctx context.Context, src Source, ids []int64, concurrency int, opts ...Option) map[int64]*Manifest {
	results := make(map[int64]*Manifest)
	var mu sync.Mutex
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			m, err := BuildSource(ctx, src, id, opts...)
			if err == nil && m != nil {
				mu.Lock()
				results[id] = m
				mu.Unlock()
			}
		}(id)
	}

	wg.Wait()
	return results
}
