package cli

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/bastiangx/termserve/pkg/autocomplete"
	"github.com/bastiangx/termserve/pkg/suggest"
	"github.com/bastiangx/termserve/pkg/term"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompleter(t *testing.T) suggest.ICompleter {
	t.Helper()
	idx, err := autocomplete.New([]*term.Term{
		term.MustNew("app", 10),
		term.MustNew("apple", 5),
		term.MustNew("apply", 20),
		term.MustNew("banana", 1),
		term.MustNew("1999", 7),
	})
	require.NoError(t, err)
	return suggest.NewCompleter(idx, 8)
}

func runLines(t *testing.T, h func(in io.Reader, out io.Writer) *InputHandler, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	handler := h(strings.NewReader(strings.Join(lines, "\n")), &out)
	require.NoError(t, handler.Start())
	return out.String()
}

func TestInputHandlerPrintsDisplayFormat(t *testing.T) {
	c := newCompleter(t)
	got := runLines(t, func(in io.Reader, out io.Writer) *InputHandler {
		return NewInputHandler(c, in, out, io.Discard, 1, 10, 10, false)
	}, "app", "", "  ban  ", "cherry")

	assert.Equal(t, "20\tapply\n10\tapp\n5\tapple\n1\tbanana\n", got)
}

func TestInputHandlerLimitAndLength(t *testing.T) {
	c := newCompleter(t)
	got := runLines(t, func(in io.Reader, out io.Writer) *InputHandler {
		return NewInputHandler(c, in, out, io.Discard, 2, 4, 1, false)
	}, "a", "apple", "app")

	assert.Equal(t, "20\tapply\n", got)
}

func TestInputHandlerFilter(t *testing.T) {
	c := newCompleter(t)
	filtered := runLines(t, func(in io.Reader, out io.Writer) *InputHandler {
		return NewInputHandler(c, in, out, io.Discard, 1, 10, 10, false)
	}, "19")
	assert.Empty(t, filtered)

	raw := runLines(t, func(in io.Reader, out io.Writer) *InputHandler {
		return NewInputHandler(c, in, out, io.Discard, 1, 10, 10, true)
	}, "19")
	assert.Equal(t, "7\t1999\n", raw)
}
