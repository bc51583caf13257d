package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bastiangx/termserve/internal/utils"
	"github.com/bastiangx/termserve/pkg/config"
	"github.com/bastiangx/termserve/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Server handles msgpack IPC for completions
type Server struct {
	completer suggest.ICompleter
	source    string
	dec       *msgpack.Decoder
	out       *bufio.Writer
	enc       *msgpack.Encoder
	logger    *log.Logger

	mu     sync.RWMutex
	config config.ServerConfig
}

// NewServer creates a server reading requests from r and writing
// responses to w.
func NewServer(completer suggest.ICompleter, cfg *config.Config, r io.Reader, w io.Writer, logger *log.Logger) *Server {
	out := bufio.NewWriter(w)
	s := &Server{
		completer: completer,
		dec:       msgpack.NewDecoder(bufio.NewReader(r)),
		out:       out,
		enc:       msgpack.NewEncoder(out),
		logger:    logger,
		config:    cfg.Server,
	}
	if c, ok := completer.(interface{ SourcePath() string }); ok {
		s.source = c.SourcePath()
	}
	return s
}

// UpdateConfig swaps in new server limits. Safe to call from a config
// watcher while requests are served.
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.mu.Lock()
	s.config = cfg.Server
	s.mu.Unlock()

	if c, ok := s.completer.(interface{ ResizeCache(int) }); ok {
		c.ResizeCache(cfg.Server.CacheSize)
	}
	s.logger.Debug("Server config updated", "maxLimit", cfg.Server.MaxLimit,
		"minPrefix", cfg.Server.MinPrefix, "maxPrefix", cfg.Server.MaxPrefix)
}

func (s *Server) limits() config.ServerConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Start announces readiness and serves requests until the input ends.
func (s *Server) Start() error {
	s.logger.Debug("Starting server")
	if err := s.send(StatusResponse{Status: "ready", Source: s.source}); err != nil {
		return err
	}

	for {
		raw, err := s.dec.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Debug("Input closed, stopping server")
				return nil
			}
			s.logger.Errorf("Reading request stream: %v", err)
			return err
		}

		if err := s.handleRequest(raw); err != nil {
			return err
		}
	}
}

// handleRequest decodes a single frame and dispatches it. Only write
// failures are returned; bad requests are answered with an error frame.
func (s *Server) handleRequest(raw msgpack.RawMessage) error {
	var req Request
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		s.logger.Warnf("Undecodable request: %v", err)
		return s.sendError("", "invalid msgpack request", 400)
	}

	switch req.Action {
	case "", "complete":
		return s.handleComplete(req)
	case "count":
		return s.handleCount(req)
	case "stats":
		return s.send(StatusResponse{ID: req.ID, Status: "ok", Source: s.source, Stats: s.completer.Stats()})
	case "reload":
		return s.handleReload(req)
	default:
		return s.sendError(req.ID, fmt.Sprintf("unknown action: %s", req.Action), 400)
	}
}

// validatePrefix checks the prefix against the configured length bounds.
func (s *Server) validatePrefix(req Request) (string, string) {
	if req.Prefix == nil {
		return "", "missing 'p' parameter"
	}
	prefix := *req.Prefix
	limits := s.limits()
	n := utf8.RuneCountInString(prefix)
	if n < limits.MinPrefix {
		return "", fmt.Sprintf("prefix must be at least %d characters", limits.MinPrefix)
	}
	if limits.MaxPrefix > 0 && n > limits.MaxPrefix {
		return "", fmt.Sprintf("prefix exceeds maximum length of %d characters", limits.MaxPrefix)
	}
	return prefix, ""
}

func (s *Server) handleComplete(req Request) error {
	prefix, problem := s.validatePrefix(req)
	if problem != "" {
		s.logger.Debug("Rejected request", "id", req.ID, "reason", problem)
		return s.sendError(req.ID, problem, 400)
	}

	limits := s.limits()
	limit := req.Limit
	if limit < 1 || (limits.MaxLimit > 0 && limit > limits.MaxLimit) {
		limit = limits.MaxLimit
	}

	start := time.Now()
	matches, total := s.completer.CompleteWithTotal(prefix, limit)
	elapsed := time.Since(start)

	ranks := utils.CreateRankList(len(matches))
	suggestions := make([]CompletionSuggestion, len(matches))
	for i, t := range matches {
		suggestions[i] = CompletionSuggestion{
			Text:   t.Text(),
			Weight: t.Weight(),
			Rank:   ranks[i],
		}
	}

	s.logger.Debugf("Took [ %v ] for prefix '%s': %d of %d", elapsed, prefix, len(matches), total)
	return s.send(CompletionResponse{
		ID:          req.ID,
		Suggestions: suggestions,
		Count:       len(suggestions),
		Total:       total,
		TimeTaken:   elapsed.Microseconds(),
	})
}

func (s *Server) handleCount(req Request) error {
	prefix, problem := s.validatePrefix(req)
	if problem != "" {
		return s.sendError(req.ID, problem, 400)
	}

	start := time.Now()
	total := s.completer.Count(prefix)
	return s.send(CountResponse{
		ID:        req.ID,
		Total:     total,
		TimeTaken: time.Since(start).Microseconds(),
	})
}

func (s *Server) handleReload(req Request) error {
	if err := s.completer.Reload(); err != nil {
		s.logger.Errorf("Reload failed: %v", err)
		return s.sendError(req.ID, err.Error(), 500)
	}
	s.logger.Info("Index reloaded", "terms", s.completer.Stats()["totalTerms"])
	return s.send(StatusResponse{ID: req.ID, Status: "reloaded", Source: s.source, Stats: s.completer.Stats()})
}

// send encodes a response frame and flushes it.
func (s *Server) send(response any) error {
	if err := s.enc.Encode(response); err != nil {
		s.logger.Errorf("Encoding response: %v", err)
		return err
	}
	return s.out.Flush()
}

func (s *Server) sendError(id, message string, code int) error {
	return s.send(CompletionError{ID: id, Error: message, Code: code})
}
