// Package suggest serves completions from an autocomplete index, caching
// recent prefixes and swapping in rebuilt indexes on reload.
package suggest

import "github.com/bastiangx/termserve/pkg/term"

// ICompleter defines the interface for completion engines
type ICompleter interface {
	// Complete returns up to limit matches for prefix, heaviest first
	Complete(prefix string, limit int) []*term.Term

	// CompleteWithTotal is Complete plus the total match count, both taken
	// from the same index
	CompleteWithTotal(prefix string, limit int) ([]*term.Term, int)

	// Count returns how many terms start with prefix
	Count(prefix string) int

	// Reload rebuilds the index from its source
	Reload() error

	// Stats returns statistics about the loaded terms
	Stats() map[string]int
}

var _ ICompleter = (*Completer)(nil)
