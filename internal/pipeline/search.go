package pipeline

import (
	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/bm25"
)

// Hit is a search result with its score relative to the best hit.
type Hit struct {
	bm25.Result
	Normalized float64 `json:"normalized"`
}

// Search runs a keyword query. limit <= 0 or above searchMaxResults is
// capped at searchMaxResults. Hits whose score relative to the top hit is
// below searchMinScore are dropped, so the top hit is always kept.
func (ix *Indexer) Search(query string, limit int) []Hit {
	maxResults := ix.cfg.EffectiveSearchMaxResults()
	if limit <= 0 || limit > maxResults {
		limit = maxResults
	}

	results := ix.index.Search(query, limit)
	hits := make([]Hit, 0, len(results))
	if len(results) == 0 {
		return hits
	}

	top := results[0].Score
	minScore := ix.cfg.EffectiveSearchMinScore()
	for _, r := range results {
		norm := r.Score / top
		if norm < minScore {
			break
		}
		hits = append(hits, Hit{Result: r, Normalized: norm})
	}
	return hits
}
