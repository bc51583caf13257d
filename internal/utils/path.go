package utils

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
)

// PathResolver resolves data and config locations relative to the running
// binary, the working directory and the platform config directory.
type PathResolver struct {
	executableDir string
	homeDir       string
	configDir     string
}

// NewPathResolver creates a resolver for the current executable.
func NewPathResolver() (*PathResolver, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, err
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return nil, err
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = os.TempDir()
	}

	pr := &PathResolver{
		executableDir: filepath.Dir(execPath),
		homeDir:       homeDir,
		configDir:     platformConfigDir(homeDir),
	}
	log.Debugf("PathResolver initialized: execDir=%s, configDir=%s", pr.executableDir, pr.configDir)
	return pr, nil
}

// platformConfigDir returns the config directory for the platform
func platformConfigDir(homeDir string) string {
	switch runtime.GOOS {
	case "linux":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return filepath.Join(configHome, "termserve")
		}
		return filepath.Join(homeDir, ".config", "termserve")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "termserve")
		}
		return filepath.Join(homeDir, "AppData", "Roaming", "termserve")
	default:
		return filepath.Join(homeDir, ".config", "termserve")
	}
}

// DataCandidates lists where a user supplied dictionary path is looked for,
// most preferred first.
func (pr *PathResolver) DataCandidates(userPath string) []string {
	if filepath.IsAbs(userPath) {
		return []string{userPath}
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, userPath))
	}
	candidates = append(candidates,
		filepath.Join(pr.executableDir, userPath),
		filepath.Join(pr.configDir, userPath),
	)
	return candidates
}

// GetDataPath resolves the dictionary path: a term file or a directory
// holding dict_*.bin or *.txt files. When nothing matches the first
// candidate is returned so the caller can report it.
func (pr *PathResolver) GetDataPath(userPath string) string {
	candidates := pr.DataCandidates(userPath)
	for _, path := range candidates {
		if IsValidDataPath(path) {
			log.Debugf("Found dictionary at: %s", path)
			return path
		}
		log.Debugf("Dictionary candidate not valid: %s", path)
	}
	return candidates[0]
}

// IsValidDataPath reports whether path is a regular file or a directory
// that contains at least one dictionary file.
func IsValidDataPath(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if !info.IsDir() {
		return true
	}
	for _, pattern := range []string{"dict_*.bin", "*.txt"} {
		matches, err := filepath.Glob(filepath.Join(path, pattern))
		if err == nil && len(matches) > 0 {
			return true
		}
	}
	return false
}
