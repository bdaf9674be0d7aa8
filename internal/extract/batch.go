package extract

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Batch parses many files in parallel and collects their summaries.
// Parsing is pure, so fan-out is safe even though graph and mirror
// mutation stays sequential. limit bounds concurrent parses; values below
// one mean unbounded. Unsupported and unreadable files are skipped rather
// than failing the batch; context cancellation is the only error.
func (e *Extractor) Batch(ctx context.Context, paths []string, limit int) (map[string]*FileExtract, error) {
	results := make(map[string]*FileExtract, len(paths))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, path := range paths {
		if !e.Supported(path) {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			elements, imports, err := e.ExtractFile(path)
			if err != nil {
				return nil
			}
			mu.Lock()
			results[path] = &FileExtract{Elements: elements, Imports: imports}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
