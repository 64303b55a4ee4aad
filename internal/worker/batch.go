package worker

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"github.com/ppiankov/quakelink/internal/model"
)

// Resolver looks up the external record for one entity
type Resolver interface {
	Resolve(ctx context.Context, e model.Entity, useCache bool) (*model.EnrichmentRecord, error)
}

// EnrichJob resolves a single entity
type EnrichJob struct {
	Index    int
	Entity   model.Entity
	Resolver Resolver
	UseCache bool
}

// Execute runs the lookup
func (j *EnrichJob) Execute(ctx context.Context) Result {
	rec, err := j.Resolver.Resolve(ctx, j.Entity, j.UseCache)
	return &EnrichResult{
		Index:  j.Index,
		Entity: j.Entity,
		Record: rec,
		Error:  err,
	}
}

// EnrichResult is the outcome of one lookup
type EnrichResult struct {
	Index  int
	Entity model.Entity
	Record *model.EnrichmentRecord
	Error  error
}

// GetError returns the lookup error
func (r *EnrichResult) GetError() error {
	return r.Error
}

// EnrichBatch resolves many entities concurrently
type EnrichBatch struct {
	resolver    Resolver
	concurrency int
}

// NewEnrichBatch creates a batch runner with the given worker count
func NewEnrichBatch(resolver Resolver, concurrency int) *EnrichBatch {
	return &EnrichBatch{
		resolver:    resolver,
		concurrency: concurrency,
	}
}

// Run resolves every entity and returns one result per input, in input
// order. Entities never started because ctx was cancelled carry ctx's error.
func (b *EnrichBatch) Run(ctx context.Context, entities []model.Entity, useCache bool) []*EnrichResult {
	if len(entities) == 0 {
		return []*EnrichResult{}
	}

	jobs := make([]Job, len(entities))
	for i, e := range entities {
		jobs[i] = &EnrichJob{
			Index:    i,
			Entity:   e,
			Resolver: b.resolver,
			UseCache: useCache,
		}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()
	defer pool.Shutdown()
	collected := pool.Collect(jobs)

	results := make([]*EnrichResult, len(entities))
	for _, r := range collected {
		er := r.(*EnrichResult)
		results[er.Index] = er
	}

	for i, r := range results {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			results[i] = &EnrichResult{Index: i, Entity: entities[i], Error: err}
		}
	}

	return results
}

// ReadTermsFromFile reads one lookup term per line, skipping blanks,
// '#' comments and duplicates
func ReadTermsFromFile(fs afero.Fs, filePath string) ([]string, error) {
	file, err := fs.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var terms []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			terms = append(terms, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return terms, nil
}
