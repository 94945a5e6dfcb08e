// Package bm25 is an in-memory keyword index over code fragments, ranked
// with Okapi BM25. It is the lexical counterpart to vector search.
package bm25

import (
	"math"
	"sort"
	"sync"
)

// Ranking parameters.
const (
	K1 = 1.2
	B  = 0.75

	// DefaultLimit is used when Search is called with a non-positive limit.
	DefaultLimit = 20
)

// Document is a fragment of a source file.
type Document struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	FilePath  string `json:"filePath"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
}

// Result is a scored search hit.
type Result struct {
	ID       string   `json:"id"`
	Score    float64  `json:"score"`
	Document Document `json:"document"`
}

// Stats summarizes the index.
type Stats struct {
	DocumentCount int     `json:"documentCount"`
	TermCount     int     `json:"termCount"`
	AvgDocLength  float64 `json:"avgDocLength"`
}

// entry keeps a document together with its tokens so that removal can
// never leave the two out of step.
type entry struct {
	doc    Document
	tokens []string
	tf     map[string]int
}

// Index is a BM25 keyword index. Documents are tokenized once on insert.
// Adding the same ID twice stores two entries.
//
// Index is safe for concurrent use; every method is atomic.
type Index struct {
	mu      sync.RWMutex
	entries []entry
}

// New returns an empty index.
func New() *Index {
	return &Index{}
}

// AddDocument tokenizes and stores doc.
func (idx *Index) AddDocument(doc Document) {
	e := newEntry(doc)

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = append(idx.entries, e)
}

// AddDocuments tokenizes and stores docs in order.
func (idx *Index) AddDocuments(docs []Document) {
	if len(docs) == 0 {
		return
	}
	batch := make([]entry, len(docs))
	for i, d := range docs {
		batch[i] = newEntry(d)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = append(idx.entries, batch...)
}

func newEntry(doc Document) entry {
	tokens := Tokenize(doc.Text)
	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	return entry{doc: doc, tokens: tokens, tf: tf}
}

// RemoveDocument removes the first entry with id. It is a no-op if none exists.
func (idx *Index) RemoveDocument(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for i := range idx.entries {
		if idx.entries[i].doc.ID == id {
			idx.entries = append(idx.entries[:i], idx.entries[i+1:]...)
			return
		}
	}
}

// RemoveDocumentsByFilePath removes every document from path and returns
// how many were removed. The relative order of the rest is kept.
func (idx *Index) RemoveDocumentsByFilePath(path string) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	kept := idx.entries[:0]
	removed := 0
	for _, e := range idx.entries {
		if e.doc.FilePath == path {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	// Drop references held by the tail.
	for i := len(kept); i < len(idx.entries); i++ {
		idx.entries[i] = entry{}
	}
	idx.entries = kept
	return removed
}

// Clear drops all documents.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = nil
}

// IsEmpty reports whether the index holds no documents.
func (idx *Index) IsEmpty() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries) == 0
}

// Len returns the number of stored documents.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Stats computes document count, distinct term count and mean document length.
func (idx *Index) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	terms := make(map[string]struct{})
	total := 0
	for _, e := range idx.entries {
		total += len(e.tokens)
		for t := range e.tf {
			terms[t] = struct{}{}
		}
	}

	s := Stats{DocumentCount: len(idx.entries), TermCount: len(terms)}
	if len(idx.entries) > 0 {
		s.AvgDocLength = float64(total) / float64(len(idx.entries))
	}
	return s
}

// Search ranks documents against query. It returns no results for an empty
// index or a query without tokens. Zero-score documents are never returned.
// Ties keep insertion order.
func (idx *Index) Search(query string, limit int) []Result {
	if limit <= 0 {
		limit = DefaultLimit
	}
	terms := Tokenize(query)
	if len(terms) == 0 {
		return []Result{}
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := len(idx.entries)
	if n == 0 {
		return []Result{}
	}

	total := 0
	for _, e := range idx.entries {
		total += len(e.tokens)
	}
	avgdl := float64(total) / float64(n)

	idf := make(map[string]float64, len(terms))
	for _, t := range terms {
		if _, ok := idf[t]; ok {
			continue
		}
		df := 0
		for _, e := range idx.entries {
			if e.tf[t] > 0 {
				df++
			}
		}
		idf[t] = inverseDocumentFrequency(n, df)
	}

	results := make([]Result, 0)
	for _, e := range idx.entries {
		score := scoreEntry(e, terms, idf, avgdl)
		if score > 0 {
			results = append(results, Result{ID: e.doc.ID, Score: score, Document: e.doc})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// inverseDocumentFrequency is the non-negative BM25 IDF.
func inverseDocumentFrequency(n, df int) float64 {
	return math.Log(1 + (float64(n)-float64(df)+0.5)/(float64(df)+0.5))
}

// scoreEntry sums the BM25 contribution of every query term. Repeated query
// terms count once per occurrence.
func scoreEntry(e entry, terms []string, idf map[string]float64, avgdl float64) float64 {
	dl := float64(len(e.tokens))
	norm := K1 * (1 - B)
	if avgdl > 0 {
		norm = K1 * (1 - B + B*dl/avgdl)
	}

	var score float64
	for _, t := range terms {
		f := float64(e.tf[t])
		if f == 0 {
			continue
		}
		score += idf[t] * (f * (K1 + 1)) / (f + norm)
	}
	return score
}
