// Package cli handles cmd line input and suggestions for DBG and testing various features
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bastiangx/termserve/internal/logger"
	"github.com/bastiangx/termserve/internal/utils"
	"github.com/bastiangx/termserve/pkg/suggest"
	"github.com/charmbracelet/log"
)

// InputHandler reads prefixes line by line and prints the matching terms,
// heaviest first, one "<weight>\t<text>" line each.
type InputHandler struct {
	completer       suggest.ICompleter
	minPrefixLength int
	maxPrefixLength int
	suggestLimit    int
	requestCount    int
	noFilter        bool

	in     io.Reader
	out    io.Writer
	status *log.Logger
}

// NewInputHandler handles initialization of the InputHandler with basic parameters.
// Results go to out, prompts and diagnostics to status.
func NewInputHandler(completer suggest.ICompleter, in io.Reader, out, status io.Writer, minLength, maxLength, limit int, noFilter bool) *InputHandler {
	return &InputHandler{
		completer:       completer,
		minPrefixLength: minLength,
		maxPrefixLength: maxLength,
		suggestLimit:    limit,
		noFilter:        noFilter,
		in:              in,
		out:             out,
		status:          logger.NewWithConfig(status, logger.Options{Level: log.GetLevel()}),
	}
}

// Start reads prefixes until the input ends. Blank lines are skipped.
func (h *InputHandler) Start() error {
	h.status.Print("TermServe CLI")
	h.status.Print("type a prefix and press Enter to see the matches (Ctrl+D to exit):")

	scanner := bufio.NewScanner(h.in)
	for scanner.Scan() {
		prefix := strings.TrimSpace(scanner.Text())
		if prefix == "" {
			continue
		}
		if err := h.handleInput(prefix); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	h.status.Debugf("Handled %d prefixes", h.requestCount)
	return nil
}

// handleInput validates the prefix's length and content, then prints the
// matches in display format.
func (h *InputHandler) handleInput(prefix string) error {
	h.requestCount++

	n := utf8.RuneCountInString(prefix)
	if n < h.minPrefixLength {
		h.status.Errorf("Prefix too short: %s", prefix)
		return nil
	}
	if h.maxPrefixLength > 0 && n > h.maxPrefixLength {
		h.status.Errorf("Prefix too long: %s", prefix)
		return nil
	}

	// input filtering by default (unless --no-filter flag is used)
	if !h.noFilter && !utils.IsValidInput(prefix) {
		h.status.Infof("Filtered prefix: '%s'", prefix)
		return nil
	}

	start := time.Now()
	matches, total := h.completer.CompleteWithTotal(prefix, h.suggestLimit)
	h.status.Debugf("Took [ %v ] for prefix '%s'", time.Since(start), prefix)

	if len(matches) == 0 {
		h.status.Warnf("No matches for prefix: '%s'", prefix)
		return nil
	}

	for _, t := range matches {
		if _, err := fmt.Fprintln(h.out, t.String()); err != nil {
			return err
		}
	}
	h.status.Printf("%s of %s matches for '%s'",
		utils.FormatWithCommas(int64(len(matches))), utils.FormatWithCommas(int64(total)), prefix)
	return nil
}
