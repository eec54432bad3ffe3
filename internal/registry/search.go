package registry

import (
	"sort"
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SearchThreshold is the highest score a search result may have. Scores run
// from 0 (perfect match) to 1 (no match).
const SearchThreshold = 0.4

// SuggestThreshold is the looser cut-off used for "did you mean" hints.
const SuggestThreshold = 0.6

// Field weights. The weaker the field, the larger the penalty added to its
// raw score, so a name hit always outranks an equal description hit.
var fieldWeights = [...]float64{
	fieldName:        1.0,
	fieldSlug:        0.8,
	fieldDomain:      0.5,
	fieldDescription: 0.3,
}

const weightPenalty = 0.2

const (
	fieldName = iota
	fieldSlug
	fieldDomain
	fieldDescription
	numFields
)

// SearchResult is one ranked match.
type SearchResult struct {
	Entry Entry
	Score float64
}

type indexedEntry struct {
	entry  Entry
	fields [numFields]string
	words  [numFields][]string
}

type searchIndex struct {
	items []indexedEntry
}

var folder = cases.Fold()

// fold lower-cases, strips diacritics, and trims a string for comparison.
func fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(folder.String(out))
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func buildIndex(entries []Entry) *searchIndex {
	idx := &searchIndex{items: make([]indexedEntry, 0, len(entries))}
	for _, e := range entries {
		item := indexedEntry{entry: e}
		item.fields[fieldName] = fold(e.Name)
		item.fields[fieldSlug] = fold(e.Slug)
		item.fields[fieldDomain] = fold(e.Domain)
		item.fields[fieldDescription] = fold(e.Description)
		for f := 0; f < numFields; f++ {
			item.words[f] = splitWords(item.fields[f])
		}
		idx.items = append(idx.items, item)
	}
	return idx
}

// fieldScore scores a folded query against one folded field.
func fieldScore(query, text string, words []string) float64 {
	if text == "" {
		return 1
	}
	if text == query {
		return 0
	}
	if i := strings.Index(text, query); i >= 0 {
		// Earlier occurrences score better, but any substring hit beats a typo.
		return 0.1 * float64(i) / float64(len(text))
	}

	best := 1.0
	consider := func(d, length int) {
		if length == 0 {
			return
		}
		if s := float64(d) / float64(length); s < best {
			best = s
		}
	}

	qlen := len([]rune(query))
	if tlen := len([]rune(text)); tlen <= 2*qlen {
		consider(fuzzy.LevenshteinDistance(query, text), max(qlen, tlen))
	}
	for _, w := range words {
		wr := []rune(w)
		consider(fuzzy.LevenshteinDistance(query, w), max(qlen, len(wr)))
		if len(wr) > qlen {
			// Typo in the leading part of a longer word, e.g. "asto" vs "astro".
			consider(fuzzy.LevenshteinDistance(query, string(wr[:qlen]))+1, qlen+1)
		}
	}
	return best
}

func (idx *searchIndex) search(query string, threshold float64) []SearchResult {
	q := fold(query)
	if q == "" {
		return nil
	}

	var results []SearchResult
	for _, item := range idx.items {
		score := 1.0
		for f := 0; f < numFields; f++ {
			s := fieldScore(q, item.fields[f], item.words[f]) + (1-fieldWeights[f])*weightPenalty
			if s < score {
				score = s
			}
		}
		if score <= threshold {
			results = append(results, SearchResult{Entry: item.entry, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score < results[j].Score
		}
		return results[i].Entry.Name < results[j].Entry.Name
	})
	return results
}

// searchIndex returns the index over the current entries, building it on
// first use after each load.
func (r *Registry) searchIndex() *searchIndex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index == nil {
		r.index = buildIndex(r.entries)
	}
	return r.index
}

// Search returns loaded entries that fuzzily match query, best first. Before
// Load it matches nothing.
func (r *Registry) Search(query string) []SearchResult {
	return r.searchIndex().search(query, SearchThreshold)
}

// Suggest returns up to n best matches for query under SuggestThreshold.
func (r *Registry) Suggest(query string, n int) []Entry {
	results := r.searchIndex().search(query, SuggestThreshold)
	if len(results) > n {
		results = results[:n]
	}
	out := make([]Entry, 0, len(results))
	for _, res := range results {
		out = append(out, res.Entry)
	}
	return out
}

// Resolve maps a user-supplied name to an entry. It tries, in order, an exact
// slug match, a case-insensitive exact name match, and the best fuzzy match.
func (r *Registry) Resolve(nameOrSlug string) (Entry, bool) {
	q := strings.TrimSpace(nameOrSlug)
	if q == "" {
		return Entry{}, false
	}
	if e, ok := r.Get(q); ok {
		return e, true
	}
	if e, ok := r.Get(strings.ToLower(q)); ok {
		return e, true
	}
	for _, e := range r.AllEntries() {
		if strings.EqualFold(e.Name, q) {
			return e, true
		}
	}
	if results := r.Search(q); len(results) > 0 {
		return results[0].Entry, true
	}
	return Entry{}, false
}
