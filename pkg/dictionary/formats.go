package dictionary

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
)

// FileFormat represents different dictionary file formats
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatChunk              // Chunked binary format
	FormatText               // Plain text format
)

// maxChunkTerms is a sanity bound on the chunk header
const maxChunkTerms = 10_000_000

type formatDef struct {
	description string
	extensions  []string
	minSize     int64
	checkHeader func(*os.File) error
}

var formats = map[FileFormat]formatDef{
	FormatChunk: {
		description: "Chunked Binary Dictionary",
		extensions:  []string{".bin"},
		minSize:     4,
		checkHeader: checkChunkHeader,
	},
	FormatText: {
		description: "Plain Text Dictionary",
		extensions:  []string{".txt"},
	},
}

func (f FileFormat) String() string {
	if def, ok := formats[f]; ok {
		return def.description
	}
	return "unknown"
}

// ValidateFileFormat checks that filename has the extension, size and header
// the expected format requires.
func ValidateFileFormat(filename string, expected FileFormat) error {
	def, ok := formats[expected]
	if !ok {
		return fmt.Errorf("unknown format: %d", expected)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !slices.Contains(def.extensions, ext) {
		return fmt.Errorf("%s: extension %q does not match %s %v", filename, ext, expected, def.extensions)
	}

	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", filename, err)
	}
	if info.Size() < def.minSize {
		return fmt.Errorf("%s: %d bytes is below the %d byte minimum for %s",
			filename, info.Size(), def.minSize, expected)
	}

	if def.checkHeader != nil {
		if err := def.checkHeader(file); err != nil {
			return fmt.Errorf("%s: %w", filename, err)
		}
	}
	return nil
}

// checkChunkHeader rejects entry counts no chunk writer produces.
func checkChunkHeader(file *os.File) error {
	var count int32
	if err := binary.Read(file, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	if count < 0 || count > maxChunkTerms {
		return fmt.Errorf("implausible term count %d", count)
	}
	log.Debugf("Chunk %s declares %d terms", file.Name(), count)
	return nil
}

// DetectFileFormat picks the format from the extension and validates the
// file against it. Files without a known extension are read as text.
func DetectFileFormat(filename string) (FileFormat, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".bin":
		if err := ValidateFileFormat(filename, FormatChunk); err != nil {
			return FormatUnknown, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return FormatChunk, nil
	case ".txt":
		if err := ValidateFileFormat(filename, FormatText); err != nil {
			return FormatUnknown, err
		}
		return FormatText, nil
	}

	if _, err := os.Stat(filename); err != nil {
		return FormatUnknown, fmt.Errorf("unable to detect format for file %s: %w", filename, err)
	}
	log.Debugf("No known extension on %s, reading as text", filename)
	return FormatText, nil
}
