package paperscan

import (
	"context"
	"sync"

	"github.com/paperscan/paperscan/pkg/schema"
)

// DocumentResult pairs one input path with its extraction outcome. Result is
// nil when Err is set.
type DocumentResult struct {
	Path   string
	Result *Result
	Err    error
}

// ExtractAll extracts the schema from multiple documents concurrently,
// bounded by the configured concurrency. One document failing never affects
// the others; results come back aligned with the input paths.
func (p *Paperscan) ExtractAll(ctx context.Context, paths []string, s schema.Schema) []DocumentResult {
	concurrency := p.config.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]DocumentResult, len(paths))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result, err := p.ExtractFile(ctx, path, s)
			results[i] = DocumentResult{Path: path, Result: result, Err: err}
		}(i, path)
	}

	wg.Wait()
	return results
}
