// Package textrank scores free-text queries against schema-less records using
// term frequency weighted by inverse document frequency.
package textrank

import (
	"math"
	"sort"

	"github.com/underdogdevs/mentormatch/internal/profile"
)

// k1 controls term frequency saturation.
const k1 = 1.2

type field struct {
	weight float64
	tf     map[string]int
}

type document struct {
	fields []field
}

// Corpus holds the term statistics of one candidate record population. It is
// built per request and is read-only afterwards, so it can be shared between
// goroutines.
type Corpus struct {
	weights FieldWeights
	docs    []document
	df      map[string]int
}

// NewCorpus indexes records for scoring. A nil weights map uses the defaults.
func NewCorpus(records []profile.Record, weights FieldWeights) *Corpus {
	if weights == nil {
		weights = DefaultFieldWeights()
	}

	c := &Corpus{
		weights: weights,
		docs:    make([]document, len(records)),
		df:      make(map[string]int),
	}

	for i, rec := range records {
		doc := c.analyze(rec)
		c.docs[i] = doc

		seen := make(map[string]struct{})
		for _, f := range doc.fields {
			for term := range f.tf {
				if _, ok := seen[term]; ok {
					continue
				}
				seen[term] = struct{}{}
				c.df[term]++
			}
		}
	}

	return c
}

func (c *Corpus) Len() int {
	return len(c.docs)
}

// IDF is always positive; rarer terms score higher per occurrence.
func (c *Corpus) IDF(term string) float64 {
	n := float64(len(c.docs))
	df := float64(c.df[term])
	return math.Log(1 + (n-df+0.5)/(df+0.5))
}

// Score computes the relevance of rec for query using the corpus statistics.
// A record sharing no token with the query scores exactly 0.
func (c *Corpus) Score(query string, rec profile.Record) float64 {
	return c.score(Terms(query), c.analyze(rec))
}

// ScoreAt scores the i-th indexed record against pre-tokenized query terms.
func (c *Corpus) ScoreAt(terms []string, i int) float64 {
	return c.score(terms, c.docs[i])
}

// Terms tokenizes a query and removes duplicate terms, keeping first-seen order.
func Terms(query string) []string {
	tokens := Tokenize(query)
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0]
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func (c *Corpus) score(terms []string, doc document) float64 {
	total := 0.0
	for _, f := range doc.fields {
		fieldScore := 0.0
		for _, term := range terms {
			tf := f.tf[term]
			if tf == 0 {
				continue
			}
			sat := float64(tf) * (k1 + 1) / (float64(tf) + k1)
			fieldScore += c.IDF(term) * sat
		}
		total += fieldScore * f.weight
	}
	return total
}

func (c *Corpus) analyze(rec profile.Record) document {
	keys := make([]string, 0, len(rec))
	for key := range rec {
		keys = append(keys, key)
	}
	// Fixed field order keeps floating point sums identical across calls.
	sort.Strings(keys)

	var doc document
	for _, key := range keys {
		value := rec[key]
		weight, ok := c.weights.Weight(key)
		if !ok {
			continue
		}
		text, ok := fieldText(value)
		if !ok {
			continue
		}
		tokens := Tokenize(text)
		if len(tokens) == 0 {
			continue
		}
		tf := make(map[string]int, len(tokens))
		for _, t := range tokens {
			tf[t]++
		}
		doc.fields = append(doc.fields, field{weight: weight, tf: tf})
	}
	return doc
}
