// Package term models a weighted query string and the orderings the
// autocomplete index is built on.
package term

import (
	"cmp"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNullInput is returned when a required value is absent: a nil term
	// collection, a nil term inside it, or a missing text field.
	ErrNullInput = errors.New("null input")

	// ErrInvalidArgument is returned for a negative weight or a negative
	// prefix length.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Term is an immutable (text, weight) pair.
type Term struct {
	text   string
	weight int64
}

// Comparator is a three-way comparison over terms. It returns a negative
// number when a sorts before b, zero when they are equal and a positive
// number otherwise.
type Comparator func(a, b *Term) int

// New creates a term. The weight must be non-negative.
func New(text string, weight int64) (*Term, error) {
	if weight < 0 {
		return nil, fmt.Errorf("%w: negative weight %d for %q", ErrInvalidArgument, weight, text)
	}
	return &Term{text: text, weight: weight}, nil
}

// FromPointer creates a term from an optional text field, as produced by
// record decoders where the text may be missing.
func FromPointer(text *string, weight int64) (*Term, error) {
	if text == nil {
		return nil, fmt.Errorf("%w: term text is missing", ErrNullInput)
	}
	return New(*text, weight)
}

// MustNew is like New but panics on error. Meant for literals in tests and
// fixtures.
func MustNew(text string, weight int64) *Term {
	t, err := New(text, weight)
	if err != nil {
		panic(err)
	}
	return t
}

// Text returns the query string.
func (t *Term) Text() string { return t.text }

// Weight returns the term weight.
func (t *Term) Weight() int64 { return t.weight }

// String renders the term as weight, a tab, then the text.
func (t *Term) String() string {
	var b strings.Builder
	b.Grow(len(t.text) + 21)
	b.WriteString(strconv.FormatInt(t.weight, 10))
	b.WriteByte('\t')
	b.WriteString(t.text)
	return b.String()
}

// TextOrder compares two terms by their full text. Weights are ignored.
func TextOrder(a, b *Term) int {
	return strings.Compare(a.text, b.text)
}

// PrefixOrder returns a comparator that only looks at the first r
// characters of each text. A character is a byte of the UTF-8 encoding, the
// same unit TextOrder compares, so a slice sorted by TextOrder is also
// sorted under every PrefixOrder. For valid UTF-8 a byte prefix match is a
// code point prefix match.
//
// When every compared character matches and one text ran out before r
// characters, the shorter text sorts first. When both texts reach r
// characters, or both end at the same length, the terms are equal.
func PrefixOrder(r int) (Comparator, error) {
	if r < 0 {
		return nil, fmt.Errorf("%w: negative prefix length %d", ErrInvalidArgument, r)
	}
	return func(a, b *Term) int {
		return comparePrefix(a.text, b.text, r)
	}, nil
}

// MustPrefixOrder is like PrefixOrder but panics on a negative r.
func MustPrefixOrder(r int) Comparator {
	c, err := PrefixOrder(r)
	if err != nil {
		panic(err)
	}
	return c
}

func comparePrefix(a, b string, r int) int {
	n := min(r, len(a), len(b))
	if c := strings.Compare(a[:n], b[:n]); c != 0 {
		return c
	}
	if n == r {
		return 0
	}
	// a text ran out before r
	return cmp.Compare(len(a), len(b))
}

// ReverseWeightOrder returns a comparator that puts heavier terms first.
func ReverseWeightOrder() Comparator {
	return func(a, b *Term) int {
		return cmp.Compare(b.weight, a.weight)
	}
}
