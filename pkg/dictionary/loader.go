// Package dictionary reads weighted term files into term collections.
//
// Two formats are understood. Text files hold one term per line as a weight,
// a tab and the text, optionally preceded by a line holding only the number
// of terms. Chunk files (dict_0001.bin, dict_0002.bin, ...) are little-endian
// binary: an int32 entry count, then for each entry a uint16 text length, the
// text bytes and a uint64 weight.
package dictionary

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bastiangx/termserve/pkg/term"
	"github.com/charmbracelet/log"
)

// ErrMalformed is returned when a term file cannot be parsed.
var ErrMalformed = errors.New("malformed dictionary")

const maxLineSize = 1 << 20

// ChunkInfo contains metadata about a chunk file
type ChunkInfo struct {
	ChunkID   int
	Filename  string
	TermCount int
}

// LoaderStats describes the outcome of the last Load call.
type LoaderStats struct {
	Files     int
	Terms     int
	MaxWeight int64
	Truncated bool
}

// Loader reads every term file found at a path. The path may name a single
// file or a directory of chunk and text files.
type Loader struct {
	path     string
	maxTerms int
	stats    LoaderStats
}

// NewLoader creates a loader for path. A maxTerms of zero loads everything.
func NewLoader(path string, maxTerms int) *Loader {
	return &Loader{
		path:     path,
		maxTerms: maxTerms,
	}
}

// Path returns the path the loader reads from.
func (l *Loader) Path() string {
	return l.path
}

// Stats returns statistics about the last Load.
func (l *Loader) Stats() LoaderStats {
	return l.stats
}

// GetAvailableChunks scans the directory for chunk files sorted by ID.
func (l *Loader) GetAvailableChunks() ([]ChunkInfo, error) {
	pattern := filepath.Join(l.path, "dict_*.bin")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for chunk files: %w", err)
	}

	var chunks []ChunkInfo
	for _, file := range files {
		chunkID, ok := chunkIDFromName(filepath.Base(file))
		if !ok {
			continue
		}
		count, err := chunkTermCount(file)
		if err != nil {
			log.Warnf("Failed to get term count for chunk %s: %v", file, err)
			count = 0
		}
		chunks = append(chunks, ChunkInfo{
			ChunkID:   chunkID,
			Filename:  file,
			TermCount: count,
		})
	}

	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].ChunkID < chunks[j].ChunkID
	})
	return chunks, nil
}

// chunkIDFromName extracts the chunk ID (dict_0001.bin -> 1)
func chunkIDFromName(basename string) (int, bool) {
	if !strings.HasPrefix(basename, "dict_") || !strings.HasSuffix(basename, ".bin") {
		return 0, false
	}
	idStr := strings.TrimSuffix(strings.TrimPrefix(basename, "dict_"), ".bin")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, false
	}
	return id, true
}

// chunkTermCount reads the entry count from a chunk file's header
func chunkTermCount(filename string) (int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	var count int32
	if err := binary.Read(file, binary.LittleEndian, &count); err != nil {
		return 0, err
	}
	return int(count), nil
}

// Load reads all terms under the loader's path. Directories are read chunk
// files first, by chunk ID, then text files by name.
func (l *Loader) Load() ([]*term.Term, error) {
	l.stats = LoaderStats{}

	info, err := os.Stat(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat dictionary path: %w", err)
	}

	var files []string
	if info.IsDir() {
		chunks, err := l.GetAvailableChunks()
		if err != nil {
			return nil, err
		}
		for _, c := range chunks {
			files = append(files, c.Filename)
		}
		texts, err := filepath.Glob(filepath.Join(l.path, "*.txt"))
		if err != nil {
			return nil, fmt.Errorf("failed to scan for text files: %w", err)
		}
		sort.Strings(texts)
		files = append(files, texts...)
		if len(files) == 0 {
			return nil, fmt.Errorf("no dictionary files found in %s", l.path)
		}
	} else {
		files = []string{l.path}
	}

	terms := []*term.Term{}
	for _, file := range files {
		loaded, err := LoadFile(file)
		if err != nil {
			return nil, err
		}
		l.stats.Files++
		terms = append(terms, loaded...)
		log.Debugf("Loaded %d terms from %s", len(loaded), file)

		if l.maxTerms > 0 && len(terms) >= l.maxTerms {
			l.stats.Truncated = len(terms) > l.maxTerms || file != files[len(files)-1]
			terms = terms[:l.maxTerms]
			break
		}
	}

	for _, t := range terms {
		if t.Weight() > l.stats.MaxWeight {
			l.stats.MaxWeight = t.Weight()
		}
	}
	l.stats.Terms = len(terms)
	return terms, nil
}

// LoadFile reads a single term file, picking the parser from the file name.
func LoadFile(filename string) ([]*term.Term, error) {
	format, err := DetectFileFormat(filename)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open dictionary file %s: %w", filename, err)
	}
	defer file.Close()
	log.Debugf("Reading %s as %s", filename, format)

	var terms []*term.Term
	switch format {
	case FormatChunk:
		terms, err = ReadChunk(bufio.NewReader(file))
	default:
		terms, err = ReadText(file)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return terms, nil
}

// ReadText parses the text format.
func ReadText(r io.Reader) ([]*term.Term, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	terms := []*term.Term{}
	declared := -1
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimLeft(line, " \t")
		if strings.TrimSpace(trimmed) == "" {
			continue
		}

		// a bare number on the first line is the term count header
		if declared < 0 && len(terms) == 0 && !strings.Contains(trimmed, "\t") {
			if n, err := strconv.Atoi(strings.TrimSpace(trimmed)); err == nil && n >= 0 {
				declared = n
				continue
			}
		}

		weightStr, text, ok := splitLine(trimmed)
		if !ok {
			return nil, fmt.Errorf("%w: line %d: expected weight and text", ErrMalformed, lineNo)
		}

		weight, err := strconv.ParseInt(weightStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad weight %q", ErrMalformed, lineNo, weightStr)
		}
		t, err := term.New(text, weight)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		terms = append(terms, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read text dictionary: %w", err)
	}

	if declared >= 0 && declared != len(terms) {
		log.Warnf("Dictionary header declares %d terms but %d were read", declared, len(terms))
	}
	return terms, nil
}

// splitLine separates the weight from the text at the first tab, or at the
// first run of spaces when the line has no tab.
func splitLine(line string) (weight, text string, ok bool) {
	if i := strings.IndexByte(line, '\t'); i >= 0 {
		return strings.TrimRight(line[:i], " "), line[i+1:], true
	}
	if i := strings.IndexByte(line, ' '); i >= 0 {
		return line[:i], strings.TrimLeft(line[i+1:], " "), true
	}
	return line, "", false
}

// ReadChunk parses the binary chunk format.
func ReadChunk(r io.Reader) ([]*term.Term, error) {
	var total int32
	if err := binary.Read(r, binary.LittleEndian, &total); err != nil {
		return nil, fmt.Errorf("%w: failed to read chunk header: %v", ErrMalformed, err)
	}
	if total < 0 {
		return nil, fmt.Errorf("%w: negative entry count %d", ErrMalformed, total)
	}

	terms := make([]*term.Term, 0, min(int(total), 1<<16))
	for i := 0; i < int(total); i++ {
		var textLen uint16
		if err := binary.Read(r, binary.LittleEndian, &textLen); err != nil {
			return nil, fmt.Errorf("%w: entry %d: failed to read text length: %v", ErrMalformed, i, err)
		}

		textBytes := make([]byte, textLen)
		if _, err := io.ReadFull(r, textBytes); err != nil {
			return nil, fmt.Errorf("%w: entry %d: failed to read text: %v", ErrMalformed, i, err)
		}

		var weight uint64
		if err := binary.Read(r, binary.LittleEndian, &weight); err != nil {
			return nil, fmt.Errorf("%w: entry %d: failed to read weight: %v", ErrMalformed, i, err)
		}
		if weight > math.MaxInt64 {
			return nil, fmt.Errorf("entry %d: %w: weight %d overflows int64", i, term.ErrInvalidArgument, weight)
		}

		t, err := term.New(string(textBytes), int64(weight))
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		terms = append(terms, t)
	}
	return terms, nil
}

// WriteChunk encodes terms in the binary chunk format.
func WriteChunk(w io.Writer, terms []*term.Term) error {
	if len(terms) > math.MaxInt32 {
		return fmt.Errorf("too many terms for one chunk: %d", len(terms))
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, int32(len(terms))); err != nil {
		return err
	}
	for _, t := range terms {
		if t == nil {
			return fmt.Errorf("%w: nil term in chunk", term.ErrNullInput)
		}
		text := t.Text()
		if len(text) > math.MaxUint16 {
			return fmt.Errorf("term text too long for chunk format: %d bytes", len(text))
		}
		if err := binary.Write(bw, binary.LittleEndian, uint16(len(text))); err != nil {
			return err
		}
		if _, err := bw.WriteString(text); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint64(t.Weight())); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteChunkFile writes terms to a chunk file named after chunkID in dir.
func WriteChunkFile(dir string, chunkID int, terms []*term.Term) (string, error) {
	filename := filepath.Join(dir, fmt.Sprintf("dict_%04d.bin", chunkID))
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("failed to create chunk file %s: %w", filename, err)
	}

	if err := WriteChunk(file, terms); err != nil {
		file.Close()
		return "", fmt.Errorf("failed to write chunk file %s: %w", filename, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close chunk file %s: %w", filename, err)
	}
	return filename, nil
}
