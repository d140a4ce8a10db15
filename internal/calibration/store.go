// Package calibration keeps manual calibration state per image.
package calibration

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/pixspace/internal/spacing"
)

// ErrInvalidReference is returned when a reference length cannot yield a factor.
var ErrInvalidReference = errors.New("invalid calibration reference")

// Entry is the persisted state of one image.
type Entry struct {
	Factor           float64 `yaml:"factor" json:"factor"`
	Reset            bool    `yaml:"reset,omitempty" json:"reset,omitempty"`
	FirstCalibration bool    `yaml:"first_calibration,omitempty" json:"first_calibration,omitempty"`
	// Count is the number of calibrations applied before the last reset.
	Count int `yaml:"count,omitempty" json:"count,omitempty"`
}

func (e Entry) state() spacing.Calibration {
	return spacing.Calibration{Factor: e.Factor, Reset: e.Reset, FirstCalibration: e.FirstCalibration}
}

// Snapshot is the YAML document written by SaveFile.
type Snapshot struct {
	Calibrations map[string]Entry `yaml:"calibrations" json:"calibrations"`
}

// Store maps image IDs to calibration state. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string]Entry)}
}

// Set records factor for id without counting it as a calibration.
func (s *Store) Set(id string, factor float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[id]
	e.Factor = factor
	e.Reset = false
	e.FirstCalibration = false
	s.entries[id] = e
}

// Calibrate applies one more manual calibration to id.
func (s *Store) Calibrate(id string, factor float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[id]
	e.Factor = factor
	e.Reset = false
	e.FirstCalibration = false
	e.Count++
	s.entries[id] = e
}

// Reset undoes the calibration of id. The factor goes back to 1 and the state
// records whether the reset brought the image back to its uncalibrated state.
func (s *Store) Reset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[id]
	e.Factor = 1
	e.Reset = true
	e.FirstCalibration = e.Count <= 1
	s.entries[id] = e
}

// Factor returns the factor stored for id, 1 when there is none.
func (s *Store) Factor(id string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok || e.Factor == 0 {
		return 1
	}
	return e.Factor
}

// State returns the calibration state of id.
func (s *Store) State(id string) (spacing.Calibration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return spacing.Calibration{}, false
	}
	return e.state(), true
}

// Entry returns the full entry of id including its calibration count.
func (s *Store) Entry(id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	return e, ok
}

// Clear removes the entry for id.
func (s *Store) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// ClearAll removes every entry.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry)
}

// Len returns the number of images with calibration state.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// IDs returns the calibrated image IDs in sorted order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot returns a copy of the store contents.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{Calibrations: make(map[string]Entry, len(s.entries))}
	for id, e := range s.entries {
		snap.Calibrations[id] = e
	}
	return snap
}

// FactorFromReference returns the factor that turns a measured length into
// a known one.
func FactorFromReference(measured, known float64) (float64, error) {
	if !(measured > 0) || math.IsInf(measured, 0) {
		return 0, fmt.Errorf("%w: measured length %v", ErrInvalidReference, measured)
	}
	if !(known > 0) || math.IsInf(known, 0) {
		return 0, fmt.Errorf("%w: known length %v", ErrInvalidReference, known)
	}
	return known / measured, nil
}

// LoadFile reads a snapshot from path. A missing file yields an empty store.
func LoadFile(path string) (*Store, error) {
	s := NewStore()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("No calibration file, starting empty", "path", path)
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read calibration file: %w", err)
	}

	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse calibration file %s: %w", path, err)
	}
	for id, e := range snap.Calibrations {
		s.entries[id] = e
	}

	slog.Debug("Loaded calibrations", "path", path, "count", len(s.entries))
	return s, nil
}

// SaveFile writes the store contents to path as YAML.
func (s *Store) SaveFile(path string) error {
	data, err := yaml.Marshal(s.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to marshal calibrations: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create calibration directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write calibration file: %w", err)
	}
	return nil
}
