package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// slotFileName is the single durable slot holding the serialized session.
const slotFileName = "session.json"

// SlotState is the persisted subset of the session. Loading and error
// state never survive a restart.
type SlotState struct {
	User            *User  `json:"user,omitempty"`
	AccessToken     string `json:"accessToken,omitempty"`
	RefreshToken    string `json:"refreshToken,omitempty"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}

// Slot persists session state to a single file on the local filesystem,
// written on every session mutation and read once at process start.
type Slot struct {
	path string
}

// NewSlot creates a slot rooted at baseDir. If baseDir is empty, uses
// ~/.presensictl/
func NewSlot(baseDir string) (*Slot, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".presensictl")
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	log.Debug().Str("baseDir", baseDir).Msg("session slot initialized")

	return &Slot{path: filepath.Join(baseDir, slotFileName)}, nil
}

// Load reads the persisted state. A missing slot yields a nil state and
// no error.
func (s *Slot) Load() (*SlotState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session slot: %w", err)
	}

	var state SlotState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse session slot: %w", err)
	}

	return &state, nil
}

// Save writes the state atomically with owner-only permissions.
func (s *Slot) Save(state *SlotState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write session slot: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save session slot: %w", err)
	}

	return nil
}

// Clear removes the slot. Clearing an absent slot is not an error.
func (s *Slot) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear session slot: %w", err)
	}
	return nil
}
