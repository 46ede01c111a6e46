package style

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const profileStateFile = "xposter/style_profile.json"

// ErrProfileNotFound means no trained profile exists yet; callers usually
// respond by training one.
var ErrProfileNotFound = errors.New("style profile not found")

// Store persists the trained profile as JSON, in the XDG state directory
// unless an explicit path is given.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Load() (*Profile, error) {
	fPath := s.path
	if fPath == "" {
		var err error
		fPath, err = xdg.SearchStateFile(profileStateFile)
		if err != nil {
			return nil, ErrProfileNotFound
		}
	}

	b, err := os.ReadFile(fPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrProfileNotFound
	} else if err != nil {
		return nil, fmt.Errorf("reading style profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parsing style profile: %w", err)
	}
	return &p, nil
}

func (s *Store) Save(p *Profile) error {
	fPath := s.path
	if fPath == "" {
		var err error
		fPath, err = xdg.StateFile(profileStateFile)
		if err != nil {
			return err
		}
	} else if err := os.MkdirAll(filepath.Dir(fPath), 0o755); err != nil {
		return fmt.Errorf("creating profile dir: %w", err)
	}

	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(fPath, b, 0o644); err != nil {
		return fmt.Errorf("writing style profile: %w", err)
	}
	return nil
}
