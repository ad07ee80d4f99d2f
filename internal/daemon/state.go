package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/username/workday-scheduler/internal/calendar"
)

// State is the on-disk form of the last refreshed snapshot
type State struct {
	SavedAt  string             `json:"saved_at"`
	Holidays []calendar.Holiday `json:"holidays"`
}

// StateFile stores the last snapshot as JSON
type StateFile struct {
	path   string
	logger *zap.Logger
}

// NewStateFile creates a new state file handle
func NewStateFile(path string, logger *zap.Logger) *StateFile {
	return &StateFile{
		path:   path,
		logger: logger,
	}
}

// Load reads the saved snapshot. A missing file yields a nil snapshot.
func (s *StateFile) Load() (*calendar.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	s.logger.Info("Snapshot state loaded",
		zap.String("saved_at", state.SavedAt),
		zap.Int("holidays", len(state.Holidays)))

	return calendar.NewSnapshot(state.Holidays), nil
}

// Save writes the snapshot, creating the parent directory if needed
func (s *StateFile) Save(snapshot *calendar.Snapshot) error {
	state := State{
		SavedAt:  time.Now().Format(time.RFC3339),
		Holidays: snapshot.Holidays(),
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	s.logger.Debug("Snapshot state saved", zap.Int("holidays", len(state.Holidays)))
	return nil
}
