package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
)

// Locations is an ordered list of saved location names. Names are unique by
// exact, case-sensitive match.
type Locations []string

// Contains reports whether name is saved.
func (l Locations) Contains(name string) bool {
	return l.index(name) >= 0
}

func (l Locations) index(name string) int {
	for i, n := range l {
		if n == name {
			return i
		}
	}
	return -1
}

// Add appends name and returns true, or returns false if it is already present.
func (l *Locations) Add(name string) bool {
	if l.Contains(name) {
		return false
	}
	*l = append(*l, name)
	return true
}

// Remove deletes name and returns true, or returns false if it is not present.
func (l *Locations) Remove(name string) bool {
	i := l.index(name)
	if i < 0 {
		return false
	}
	*l = append((*l)[:i], (*l)[i+1:]...)
	return true
}

// LocationStore persists Locations as a JSON array in a single file. Nothing
// is cached: every Load reads the file and every Save rewrites it, so
// overlapping mutations from different commands are last-writer-wins.
type LocationStore struct {
	path string
}

// NewLocationStore creates a store backed by path.
func NewLocationStore(path string) *LocationStore {
	return &LocationStore{path: path}
}

// Path returns the backing file.
func (s *LocationStore) Path() string {
	return s.path
}

// Load reads the saved list. Any failure is logged and yields an empty list.
func (s *LocationStore) Load() Locations {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("ERROR: loading locations from %s: %v", s.path, err)
		}
		return Locations{}
	}

	var locs Locations
	if err := json.Unmarshal(data, &locs); err != nil {
		log.Printf("ERROR: parsing locations from %s: %v", s.path, err)
		return Locations{}
	}
	if locs == nil {
		locs = Locations{}
	}
	return locs
}

// Save rewrites the whole list. It returns false and logs on failure.
func (s *LocationStore) Save(locs Locations) bool {
	if err := s.write(locs); err != nil {
		log.Printf("ERROR: saving locations to %s: %v", s.path, err)
		return false
	}
	return true
}

// write replaces the file via a temp file in the same directory.
func (s *LocationStore) write(locs Locations) error {
	if locs == nil {
		locs = Locations{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(locs); err != nil {
		return fmt.Errorf("encode locations: %w", err)
	}
	data := bytes.TrimRight(buf.Bytes(), "\n")

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".locations-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
