// Package workspace tracks the directory recordings are written to and
// playback files are read from.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// PlayableExt is the extension of files that can be played back.
const PlayableExt = ".bin"

const keyWorkspace = "workspace"

var (
	ErrNoWorkspace  = errors.New("no workspace selected")
	ErrNotDirectory = errors.New("workspace is not a directory")
	ErrNotPlayable  = errors.New("not a playable file")
)

// Store keeps the active workspace in a small YAML state file so the
// selection survives restarts. An override (flag, env or config file)
// takes precedence without being persisted.
type Store struct {
	mu       sync.RWMutex
	state    *viper.Viper
	file     string
	override string
}

// Open reads the state file if it exists. file may be empty, in which case
// SetActive only changes the in-memory selection.
func Open(file, override string) (*Store, error) {
	state := viper.New()
	state.SetDefault(keyWorkspace, "")
	if file != "" {
		state.SetConfigFile(file)
		state.SetConfigType("yaml")
		if err := state.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read workspace state: %w", err)
			}
		}
	}
	return &Store{state: state, file: file, override: override}, nil
}

// ActiveWorkspace returns the selected directory, or "" when none is set.
func (s *Store) ActiveWorkspace() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.override != "" {
		return s.override
	}
	dir := s.state.GetString(keyWorkspace)
	if dir == "none" {
		return ""
	}
	return dir
}

// SetActive selects dir and persists it.
func (s *Store) SetActive(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotDirectory, abs)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, abs)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.override = ""
	s.state.Set(keyWorkspace, abs)
	return s.persist()
}

// Clear deselects the workspace.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.override = ""
	s.state.Set(keyWorkspace, "")
	return s.persist()
}

func (s *Store) persist() error {
	if s.file == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.file), 0o755); err != nil {
		return fmt.Errorf("save workspace state: %w", err)
	}
	if err := s.state.WriteConfigAs(s.file); err != nil {
		return fmt.Errorf("save workspace state: %w", err)
	}
	return nil
}

// ListPlayableFiles returns the names of regular .bin files in the active
// workspace, sorted.
func (s *Store) ListPlayableFiles() ([]string, error) {
	dir := s.ActiveWorkspace()
	if dir == "" {
		return nil, ErrNoWorkspace
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), PlayableExt) {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// Resolve returns the full path of a playable file name in the workspace.
func (s *Store) Resolve(name string) (string, error) {
	dir := s.ActiveWorkspace()
	if dir == "" {
		return "", ErrNoWorkspace
	}
	if name == "" || filepath.Base(name) != name || !strings.EqualFold(filepath.Ext(name), PlayableExt) {
		return "", fmt.Errorf("%w: %q", ErrNotPlayable, name)
	}
	return filepath.Join(dir, name), nil
}
