package extract

import (
	"context"
	"sort"
)

// Pipeline tries a set of Strategy implementations in descending Priority
// order until one returns a non-empty Result, per spec §4.6.
type Pipeline struct {
	strategies []Strategy
}

// NewPipeline sorts strategies once by descending priority and returns a
// Pipeline ready to extract files.
func NewPipeline(strategies ...Strategy) *Pipeline {
	sorted := make([]Strategy, len(strategies))
	copy(sorted, strategies)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() > sorted[j].Priority()
	})
	return &Pipeline{strategies: sorted}
}

// Extract tries each strategy supporting file, in priority order, until one
// yields a non-empty Result. If every strategy is empty or unsupported for
// file, it returns an empty Result tagged with the last strategy attempted
// (or SourceFallback if none were attempted at all) — this never surfaces
// an error, matching spec §4.6's "at worst an empty symbol list" guarantee.
func (p *Pipeline) Extract(ctx context.Context, file string) Result {
	var last Result
	attempted := false
	for _, strat := range p.strategies {
		if !strat.Supports(file) {
			continue
		}
		attempted = true
		res := strat.Extract(ctx, file)
		last = res
		if !res.Empty() {
			return res
		}
	}
	if !attempted {
		return Result{Source: SourceFallback}
	}
	return last
}
