package autocomplete

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/bastiangx/termserve/pkg/term"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fruitTerms() []*term.Term {
	return []*term.Term{
		term.MustNew("app", 10),
		term.MustNew("apple", 5),
		term.MustNew("apply", 20),
		term.MustNew("banana", 1),
	}
}

func display(terms []*term.Term) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = t.String()
	}
	return out
}

func TestNewRejectsNull(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, term.ErrNullInput)

	_, err = New([]*term.Term{term.MustNew("a", 1), nil})
	assert.ErrorIs(t, err, term.ErrNullInput)

	idx, err := New([]*term.Term{})
	require.NoError(t, err)
	assert.Zero(t, idx.Len())
	assert.Empty(t, idx.MatchesByWeight(""))
	assert.NotNil(t, idx.MatchesByWeight(""))
	assert.Zero(t, idx.MatchCount(""))
}

func TestFruitExample(t *testing.T) {
	idx, err := New(fruitTerms())
	require.NoError(t, err)

	assert.Equal(t, []string{"20\tapply", "10\tapp", "5\tapple"}, display(idx.MatchesByWeight("app")))
	assert.Equal(t, 3, idx.MatchCount("app"))
	assert.Equal(t, 1, idx.MatchCount("ban"))
	assert.Equal(t, 0, idx.MatchCount("cherry"))
	assert.Empty(t, idx.MatchesByWeight("cherry"))

	assert.Equal(t, []string{"20\tapply", "5\tapple"}, display(idx.MatchesByWeight("appl")))
	assert.Equal(t, []string{"5\tapple"}, display(idx.MatchesByWeight("apple")))
	assert.Empty(t, idx.MatchesByWeight("apples"))
	assert.Empty(t, idx.MatchesByWeight("b~"))
}

func TestEmptyPrefixMatchesAll(t *testing.T) {
	idx, err := New(fruitTerms())
	require.NoError(t, err)

	assert.Equal(t, 4, idx.MatchCount(""))
	assert.Equal(t, []string{"20\tapply", "10\tapp", "5\tapple", "1\tbanana"}, display(idx.MatchesByWeight("")))
}

func TestDefensiveCopies(t *testing.T) {
	input := fruitTerms()
	idx, err := New(input)
	require.NoError(t, err)

	// caller mutations after construction do not leak in
	input[0] = term.MustNew("zzz", 99)
	assert.Equal(t, 3, idx.MatchCount("app"))
	assert.Equal(t, 0, idx.MatchCount("zzz"))

	// the caller's slice is never reordered
	again := fruitTerms()
	again[0], again[3] = again[3], again[0]
	_, err = New(again)
	require.NoError(t, err)
	assert.Equal(t, "banana", again[0].Text())

	// results are independent of each other and of the index
	first := idx.MatchesByWeight("app")
	first[0] = term.MustNew("mutated", 0)
	second := idx.MatchesByWeight("app")
	assert.Equal(t, "apply", second[0].Text())

	all := idx.Terms()
	all[0] = nil
	assert.Equal(t, 4, idx.MatchCount(""))
}

func TestDuplicatesKept(t *testing.T) {
	idx, err := New([]*term.Term{
		term.MustNew("go", 3),
		term.MustNew("go", 7),
		term.MustNew("gopher", 5),
		term.MustNew("go", 3),
	})
	require.NoError(t, err)

	assert.Equal(t, 4, idx.MatchCount("go"))
	assert.Equal(t, []string{"7\tgo", "5\tgopher", "3\tgo", "3\tgo"}, display(idx.MatchesByWeight("g")))
}

func TestTop(t *testing.T) {
	idx, err := New(fruitTerms())
	require.NoError(t, err)

	assert.Equal(t, []string{"20\tapply", "10\tapp"}, display(idx.Top("a", 2)))
	assert.Len(t, idx.Top("a", 0), 3)
	assert.Len(t, idx.Top("a", 10), 3)

	top := idx.Top("a", 1)
	assert.Equal(t, 1, cap(top))
}

func TestUnicodePrefix(t *testing.T) {
	idx, err := New([]*term.Term{
		term.MustNew("日本", 4),
		term.MustNew("日本語", 9),
		term.MustNew("日曜日", 2),
		term.MustNew("über", 1),
		term.MustNew("uber", 8),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"9\t日本語", "4\t日本"}, display(idx.MatchesByWeight("日本")))
	assert.Equal(t, 3, idx.MatchCount("日"))
	assert.Equal(t, []string{"1\tüber"}, display(idx.MatchesByWeight("ü")))
	assert.Equal(t, 1, idx.MatchCount("u"))
}

func TestInvalidUTF8(t *testing.T) {
	idx, err := New([]*term.Term{term.MustNew("\x80x", 1), term.MustNew("é", 2)})
	require.NoError(t, err)
	assert.Equal(t, 1, idx.MatchCount("é"))
	assert.Equal(t, []string{"2\té"}, display(idx.MatchesByWeight("é")))
	assert.Equal(t, 1, idx.MatchCount("\x80"))
	assert.Equal(t, 1, idx.MatchCount("\xc3"))

	idx, err = New([]*term.Term{
		term.MustNew("\xfe", 1),
		term.MustNew("\xff", 2),
		term.MustNew("\uFFFD", 3),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2\t\xff"}, display(idx.MatchesByWeight("\xff")))
	assert.Equal(t, []string{"3\t\uFFFD"}, display(idx.MatchesByWeight("\uFFFD")))
	assert.Equal(t, 1, idx.MatchCount("\xef"))
	assert.Zero(t, idx.MatchCount("\xef\x00"))
}

// TestMatchProperties compares the index with a linear scan over random
// term sets drawn from small alphabets so prefixes collide often. The
// second alphabet mixes stray continuation and lead bytes with valid
// multibyte runes.
func TestMatchProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	alphabets := [][]string{
		{"a", "b", "c"},
		{"a", "é", "日", "\uFFFD", "\x80", "\xa9", "\xc1", "\xc3", "\xe6", "\xff"},
	}

	for _, alphabet := range alphabets {
		randomText := func(maxLen int) string {
			n := rng.IntN(maxLen + 1)
			var b strings.Builder
			for i := 0; i < n; i++ {
				b.WriteString(alphabet[rng.IntN(len(alphabet))])
			}
			return b.String()
		}

		for round := 0; round < 50; round++ {
			terms := make([]*term.Term, rng.IntN(60))
			for i := range terms {
				terms[i] = term.MustNew(randomText(5), rng.Int64N(1000))
			}

			idx, err := New(terms)
			require.NoError(t, err)
			assert.Equal(t, len(terms), idx.MatchCount(""))

			for q := 0; q < 30; q++ {
				prefix := randomText(4)
				if q%3 == 0 && len(terms) > 0 {
					// cut an existing text at an arbitrary byte
					x := terms[rng.IntN(len(terms))].Text()
					prefix = x[:rng.IntN(len(x)+1)]
				}
				matches := idx.MatchesByWeight(prefix)

				want := 0
				for _, tm := range terms {
					if strings.HasPrefix(tm.Text(), prefix) {
						want++
					}
				}

				msg := fmt.Sprintf("round %d prefix %q", round, prefix)
				require.Len(t, matches, want, msg)
				require.Equal(t, want, idx.MatchCount(prefix), msg)

				seen := make(map[*term.Term]int)
				for i, m := range matches {
					require.True(t, strings.HasPrefix(m.Text(), prefix), msg)
					if i > 0 {
						require.GreaterOrEqual(t, matches[i-1].Weight(), m.Weight(), msg)
					}
					seen[m]++
				}
				for _, tm := range terms {
					if strings.HasPrefix(tm.Text(), prefix) {
						require.Equal(t, 1, seen[tm], msg)
					}
				}
			}
		}
	}
}

func TestConcurrentQueries(t *testing.T) {
	idx, err := New(fruitTerms())
	require.NoError(t, err)

	done := make(chan []string, 8)
	for i := 0; i < 8; i++ {
		go func() {
			var got []string
			for j := 0; j < 100; j++ {
				got = display(idx.MatchesByWeight("app"))
			}
			done <- got
		}()
	}
	for i := 0; i < 8; i++ {
		assert.Equal(t, []string{"20\tapply", "10\tapp", "5\tapple"}, <-done)
	}
}
