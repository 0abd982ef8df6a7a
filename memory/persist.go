package memory

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// snapshot is the on-disk form of Sessions.
type snapshot struct {
	Sessions map[string][]Exchange `json:"sessions"`
}

// LoadSessions restores a snapshot written by Save. A missing file yields an
// empty store.
func LoadSessions(path string, maxHistory int) (*Sessions, error) {
	s := NewSessions(maxHistory)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	var snap snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, err
	}
	for id, ex := range snap.Sessions {
		s.sessions[id] = trim(ex, s.maxHistory)
	}
	return s, nil
}

// Save writes every session to path, creating its directory.
func (s *Sessions) Save(path string) error {
	s.mu.Lock()
	snap := snapshot{Sessions: make(map[string][]Exchange, len(s.sessions))}
	for id, ex := range s.sessions {
		snap.Sessions[id] = append([]Exchange(nil), ex...)
	}
	s.mu.Unlock()

	b, err := json.MarshalIndent(snap, "", " ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, b, 0o644)
}
