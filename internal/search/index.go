// Package search maintains a fuzzy full-text index over task names.
//
// The index is purely derived state: Rebuild throws away everything and
// reinserts the given tasks, so it is always exactly as fresh as the
// collection it was built from. Each rebuild is O(n) in the number of tasks;
// Stats exposes that cost.
//
// A query is tokenized the same way as names. Each query term is matched
// against every indexed term in three ways, keeping the best one:
//
//   - exact match, weight 1
//   - prefix match (the indexed term starts with the query term)
//   - fuzzy match within an edit distance of round(len(term) * Fuzzy),
//     capped at MaxFuzzy
//
// A matching term contributes its match weight scaled by a BM25 factor: the
// term's inverse document frequency times its length-normalized frequency in
// the task name (k1 = 1.2, b = 0.7). Contributions are summed per task.
// Results are ordered by score, ties by position in the indexed sequence, so
// identical input always produces identical output.
package search

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/LevdanskyVitaliy/todo-sync/internal/task"
)

const (
	prefixWeight = 0.375
	fuzzyWeight  = 0.45

	bm25K1 = 1.2
	bm25B  = 0.7
)

// Options tunes query matching
type Options struct {
	// Fuzzy is the edit distance allowed per query term, as a fraction of
	// the term's length. 0 disables fuzzy matching.
	Fuzzy float64 `yaml:"fuzzy" mapstructure:"fuzzy"`

	// Prefix enables prefix matching of query terms.
	Prefix bool `yaml:"prefix" mapstructure:"prefix"`

	// MaxFuzzy caps the edit distance regardless of term length.
	MaxFuzzy int `yaml:"max_fuzzy" mapstructure:"max_fuzzy"`
}

// DefaultOptions returns the matching used by the task list search box
func DefaultOptions() Options {
	return Options{
		Fuzzy:    0.2,
		Prefix:   true,
		MaxFuzzy: 6,
	}
}

// Result is a matching task with its stored fields and relevance
type Result struct {
	task.Task
	Score float64  `json:"score"`
	Terms []string `json:"terms,omitempty"` // indexed terms that matched
}

// Stats describes the index and the cost of its last rebuild
type Stats struct {
	Rebuilds    int
	Documents   int
	Terms       int
	LastRebuild time.Duration
}

type document struct {
	task   task.Task
	length int
}

type posting struct {
	doc int
	tf  int
}

// Index is an in-memory inverted index over task names
type Index struct {
	mu       sync.RWMutex
	opts     Options
	docs     []document
	postings map[string][]posting
	terms    []string // sorted keys of postings
	avgLen   float64
	stats    Stats
}

// New creates an empty index
func New(opts Options) *Index {
	return &Index{
		opts:     opts,
		postings: map[string][]posting{},
	}
}

// Rebuild clears the index and indexes tasks in the given order
func (ix *Index) Rebuild(tasks []task.Task) {
	start := time.Now()

	docs := make([]document, 0, len(tasks))
	postings := make(map[string][]posting)
	total := 0

	for i, t := range tasks {
		tokens := Tokenize(t.Name)
		counts := make(map[string]int, len(tokens))
		order := make([]string, 0, len(tokens))
		for _, tok := range tokens {
			if counts[tok] == 0 {
				order = append(order, tok)
			}
			counts[tok]++
		}
		for _, tok := range order {
			postings[tok] = append(postings[tok], posting{doc: i, tf: counts[tok]})
		}
		docs = append(docs, document{task: t, length: len(tokens)})
		total += len(tokens)
	}

	terms := make([]string, 0, len(postings))
	for term := range postings {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	avg := 0.0
	if len(docs) > 0 {
		avg = float64(total) / float64(len(docs))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.docs = docs
	ix.postings = postings
	ix.terms = terms
	ix.avgLen = avg
	ix.stats.Rebuilds++
	ix.stats.Documents = len(docs)
	ix.stats.Terms = len(terms)
	ix.stats.LastRebuild = time.Since(start)
}

// Len returns the number of indexed tasks
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Stats returns rebuild statistics
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.stats
}

// Search returns the tasks matching query, best first.
// An empty or unmatched query yields an empty, non-nil slice.
func (ix *Index) Search(query string) []Result {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	results := []Result{}
	qterms := dedupe(Tokenize(query))
	if len(qterms) == 0 || len(ix.docs) == 0 {
		return results
	}

	scores := make(map[int]float64)
	matched := make(map[int][]string)

	for _, q := range qterms {
		for _, term := range ix.terms {
			weight := ix.match(q, term)
			if weight == 0 {
				continue
			}
			list := ix.postings[term]
			idf := ix.idf(len(list))
			for _, p := range list {
				scores[p.doc] += weight * idf * ix.tfNorm(p.tf, ix.docs[p.doc].length)
				matched[p.doc] = appendUnique(matched[p.doc], term)
			}
		}
	}

	docIDs := make([]int, 0, len(scores))
	for doc := range scores {
		docIDs = append(docIDs, doc)
	}
	sort.Ints(docIDs)

	for _, doc := range docIDs {
		results = append(results, Result{
			Task:  ix.docs[doc].task,
			Score: scores[doc],
			Terms: matched[doc],
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results
}

// match returns the best weight with which query term q matches term, or 0
func (ix *Index) match(q, term string) float64 {
	if q == term {
		return 1
	}

	qlen := utf8.RuneCountInString(q)
	tlen := utf8.RuneCountInString(term)
	best := 0.0

	if ix.opts.Prefix && strings.HasPrefix(term, q) {
		best = prefixWeight * float64(qlen) / float64(tlen)
	}

	maxDist := ix.maxDistance(qlen)
	if maxDist > 0 && abs(qlen-tlen) <= maxDist {
		d := levenshtein.ComputeDistance(q, term)
		if d > 0 && d <= maxDist {
			w := fuzzyWeight * float64(qlen) / float64(qlen+d)
			if w > best {
				best = w
			}
		}
	}

	return best
}

func (ix *Index) maxDistance(termLen int) int {
	if ix.opts.Fuzzy <= 0 {
		return 0
	}
	d := int(math.Round(float64(termLen) * ix.opts.Fuzzy))
	if ix.opts.MaxFuzzy > 0 && d > ix.opts.MaxFuzzy {
		d = ix.opts.MaxFuzzy
	}
	return d
}

func (ix *Index) idf(df int) float64 {
	n := float64(len(ix.docs))
	return math.Log(1 + (n-float64(df)+0.5)/(float64(df)+0.5))
}

func (ix *Index) tfNorm(tf, length int) float64 {
	avg := ix.avgLen
	if avg == 0 {
		avg = 1
	}
	f := float64(tf)
	return f * (bm25K1 + 1) / (f + bm25K1*(1-bm25B+bm25B*float64(length)/avg))
}

// Tokenize lower-cases s and splits it on anything that is not a letter or digit
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func dedupe(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := terms[:0]
	for _, t := range terms {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
