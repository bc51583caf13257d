// Package autocomplete answers prefix queries over a fixed set of weighted
// terms.
//
// The index keeps a private copy of the terms sorted by text. A query
// builds a prefix comparator for the length of the prefix, finds the first
// and last matching positions with two binary searches and, for retrieval,
// copies that run and orders the copy by descending weight.
//
//	idx, err := autocomplete.New(terms)
//	if err != nil {
//		return err
//	}
//	for _, t := range idx.MatchesByWeight("app") {
//		fmt.Println(t)
//	}
//
// An Index is never modified after New returns, so it is safe for
// concurrent use.
package autocomplete

import (
	"fmt"
	"slices"

	"github.com/bastiangx/termserve/pkg/search"
	"github.com/bastiangx/termserve/pkg/term"
)

// Index is an immutable prefix index over weighted terms.
type Index struct {
	terms []*term.Term
}

// New builds an index from terms. The slice is copied and the caller keeps
// ownership of it.
func New(terms []*term.Term) (*Index, error) {
	if terms == nil {
		return nil, fmt.Errorf("%w: term collection is nil", term.ErrNullInput)
	}

	sorted := make([]*term.Term, len(terms))
	for i, t := range terms {
		if t == nil {
			return nil, fmt.Errorf("%w: term at position %d is nil", term.ErrNullInput, i)
		}
		sorted[i] = t
	}
	slices.SortStableFunc(sorted, term.TextOrder)

	return &Index{terms: sorted}, nil
}

// Len returns the number of indexed terms.
func (idx *Index) Len() int {
	return len(idx.terms)
}

// Terms returns a copy of all indexed terms in text order.
func (idx *Index) Terms() []*term.Term {
	return slices.Clone(idx.terms)
}

// MatchesByWeight returns every term whose text starts with prefix, heaviest
// first. Terms with equal weight keep their text order. The returned slice
// is always newly allocated.
func (idx *Index) MatchesByWeight(prefix string) []*term.Term {
	first, last, ok := idx.bounds(prefix)
	if !ok {
		return []*term.Term{}
	}

	matches := make([]*term.Term, last-first+1)
	copy(matches, idx.terms[first:last+1])
	slices.SortStableFunc(matches, term.ReverseWeightOrder())
	return matches
}

// Top returns at most limit of the heaviest matches for prefix. A limit of
// zero or less returns all of them.
func (idx *Index) Top(prefix string, limit int) []*term.Term {
	matches := idx.MatchesByWeight(prefix)
	if limit > 0 && len(matches) > limit {
		// clip so callers appending to the result cannot see the tail
		matches = slices.Clip(matches[:limit])
	}
	return matches
}

// MatchCount returns how many terms start with prefix without collecting
// them.
func (idx *Index) MatchCount(prefix string) int {
	first, last, ok := idx.bounds(prefix)
	if !ok {
		return 0
	}
	return last - first + 1
}

func (idx *Index) bounds(prefix string) (int, int, bool) {
	// prefix length and weight are never negative, so neither call can fail
	key := term.MustNew(prefix, 0)
	byPrefix := term.MustPrefixOrder(len(prefix))
	return search.Range(idx.terms, key, byPrefix)
}
