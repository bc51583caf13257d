package term

import (
	"errors"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func TestNew(t *testing.T) {
	tm, err := New("greg", 100)
	require.NoError(t, err)
	assert.Equal(t, "greg", tm.Text())
	assert.Equal(t, int64(100), tm.Weight())

	_, err = New("", 0)
	assert.NoError(t, err, "empty text with zero weight is valid")

	_, err = New("greg", -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestFromPointer(t *testing.T) {
	_, err := FromPointer(nil, 3)
	assert.ErrorIs(t, err, ErrNullInput)

	text := "jog"
	tm, err := FromPointer(&text, 5)
	require.NoError(t, err)
	assert.Equal(t, "jog", tm.Text())

	_, err = FromPointer(&text, -5)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.False(t, errors.Is(err, ErrNullInput))
}

func TestString(t *testing.T) {
	assert.Equal(t, "100\tgreg", MustNew("greg", 100).String())
	assert.Equal(t, "0\t", MustNew("", 0).String())
	assert.Equal(t, "7\tNew York, NY", MustNew("New York, NY", 7).String())
}

func TestTextOrder(t *testing.T) {
	testCases := []struct {
		a, b string
		want int
	}{
		{"app", "apple", -1},
		{"apple", "app", 1},
		{"apply", "apple", 1},
		{"same", "same", 0},
		{"", "a", -1},
		{"B", "a", -1},
	}

	for _, tc := range testCases {
		got := TextOrder(MustNew(tc.a, 1), MustNew(tc.b, 2))
		assert.Equal(t, tc.want, sign(got), "TextOrder(%q, %q)", tc.a, tc.b)
	}
}

func TestPrefixOrder(t *testing.T) {
	testCases := []struct {
		description string
		a, b        string
		r           int
		want        int
	}{
		{"shorter text ran out before r", "jog", "jo", 3, 1},
		{"shorter text first when swapped", "jo", "jog", 3, -1},
		{"r limits comparison", "jog", "jo", 2, 0},
		{"extensions equal under r", "apple", "apply", 3, 0},
		{"mismatch inside r", "apple", "apply", 5, -1},
		{"same length ends equal", "abc", "abd", 2, 0},
		{"zero r always equal", "zebra", "aardvark", 0, 0},
		{"equal lengths shorter than r", "ab", "ab", 5, 0},
		{"empty against non-empty", "", "a", 1, -1},
		{"mismatch before shorter end", "b", "abc", 3, 1},
		{"multibyte lead byte", "über", "ubel", 1, 1},
		{"multibyte prefix equal", "日本語", "日本人", 6, 0},
		{"multibyte prefix differs", "日本語", "日本人", 9, 1},
		{"r splits a code point", "日本語", "日本人", 7, 1},
		{"continuation byte against lead byte", "\x80x", "é", 1, -1},
		{"invalid byte against replacement char", "\xff", "\uFFFD", 1, 1},
		{"truncated sequence before full one", "\xc3", "é", 2, -1},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			c, err := PrefixOrder(tc.r)
			require.NoError(t, err)
			got := c(MustNew(tc.a, 5), MustNew(tc.b, 6))
			assert.Equal(t, tc.want, sign(got))
		})
	}
}

func TestPrefixOrderNegative(t *testing.T) {
	c, err := PrefixOrder(-1)
	assert.Nil(t, c)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Panics(t, func() { MustPrefixOrder(-2) })
}

func TestPrefixOrderAntisymmetric(t *testing.T) {
	texts := []string{"", "a", "ab", "abc", "abd", "b", "ba", "jo", "jog", "jogging", "日", "日本",
		"\x80x", "é", "\xc3", "\xff", "\xfe", "\uFFFD"}

	for r := 0; r <= 7; r++ {
		c := MustPrefixOrder(r)
		for _, x := range texts {
			a := MustNew(x, 1)
			assert.Zero(t, c(a, a), "reflexive for %q at r=%d", x, r)
			for _, y := range texts {
				b := MustNew(y, 2)
				assert.Equal(t, sign(c(a, b)), -sign(c(b, a)), "%q vs %q at r=%d", x, y, r)
			}
		}
	}
}

func TestPrefixOrderCompatibleWithTextOrder(t *testing.T) {
	texts := []string{"", "a", "ab", "abc", "abd", "b", "ba", "jo", "jog", "jogging", "zz",
		// invalid UTF-8 next to valid multibyte runes
		"\x80x", "é", "éz", "\xc3", "\xc3z", "\xc1é", "é\x80", "\xfe", "\xff", "\uFFFD", "日\xc1", "日本"}
	terms := make([]*Term, len(texts))
	for i, x := range texts {
		terms[i] = MustNew(x, 0)
	}
	slices.SortFunc(terms, TextOrder)

	// a text-sorted slice must also be non-decreasing under every prefix order
	for r := 0; r <= 7; r++ {
		c := MustPrefixOrder(r)
		for i := 1; i < len(terms); i++ {
			assert.LessOrEqual(t, c(terms[i-1], terms[i]), 0, "r=%d at %q,%q", r, terms[i-1].Text(), terms[i].Text())
		}
	}
}

func TestPrefixOrderAgreesWithHasPrefix(t *testing.T) {
	texts := []string{"", "a", "ab", "é", "éa", "\xc3", "\xc3a", "\x80", "\x80é", "\xc1\xa9",
		"\xff", "\xfe", "\uFFFD", "日", "日本", "\xe6\x97"}

	// zero under PrefixOrder(len(p)) is exactly a byte prefix match
	for _, p := range texts {
		c := MustPrefixOrder(len(p))
		key := MustNew(p, 0)
		for _, x := range texts {
			want := strings.HasPrefix(x, p)
			got := c(MustNew(x, 0), key) == 0
			assert.Equal(t, want, got, "text %q prefix %q", x, p)
		}
	}
}

func TestReverseWeightOrder(t *testing.T) {
	c := ReverseWeightOrder()

	heavy := MustNew("greg", 100)
	light := MustNew("gregory", 1)
	assert.Negative(t, c(heavy, light))
	assert.Positive(t, c(light, heavy))
	assert.Zero(t, c(heavy, MustNew("other", 100)))

	// extremes must not wrap around
	maxW := MustNew("max", math.MaxInt64)
	zero := MustNew("zero", 0)
	assert.Negative(t, c(maxW, zero))
	assert.Positive(t, c(zero, maxW))

	terms := []*Term{light, MustNew("", 0), heavy}
	slices.SortStableFunc(terms, c)
	assert.Equal(t, []string{"greg", "gregory", ""}, []string{terms[0].Text(), terms[1].Text(), terms[2].Text()})
}
