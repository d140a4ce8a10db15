package calibration

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/pixspace/internal/spacing"
	"github.com/MeKo-Tech/pixspace/internal/units"
)

func TestStore_SetGetClear(t *testing.T) {
	s := NewStore()
	assert.Equal(t, 1.0, s.Factor("img"))

	s.Set("img", 2.5)
	assert.Equal(t, 2.5, s.Factor("img"))
	assert.Equal(t, 1, s.Len())

	state, ok := s.State("img")
	require.True(t, ok)
	assert.Equal(t, spacing.Calibration{Factor: 2.5}, state)

	s.Clear("img")
	_, ok = s.State("img")
	assert.False(t, ok)
	assert.Equal(t, 1.0, s.Factor("img"))

	s.Set("a", 1.1)
	s.Set("b", 1.2)
	assert.Equal(t, []string{"a", "b"}, s.IDs())
	s.ClearAll()
	assert.Equal(t, 0, s.Len())
}

func TestStore_Reset(t *testing.T) {
	s := NewStore()

	s.Calibrate("first", 3)
	s.Reset("first")
	state, _ := s.State("first")
	assert.Equal(t, spacing.Calibration{Factor: 1, Reset: true, FirstCalibration: true}, state)

	s.Calibrate("second", 3)
	s.Calibrate("second", 4)
	s.Reset("second")
	state, _ = s.State("second")
	assert.Equal(t, spacing.Calibration{Factor: 1, Reset: true, FirstCalibration: false}, state)

	s.Calibrate("second", 5)
	state, _ = s.State("second")
	assert.Equal(t, spacing.Calibration{Factor: 5}, state)
}

func TestStore_DrivesResolver(t *testing.T) {
	s := NewStore()
	r := spacing.NewResolver(spacing.WithCalibrations(s))
	d := spacing.Descriptor{ImageID: "img", Plane: &spacing.Plane{RowPixelSpacing: 10, ColumnPixelSpacing: 20}}

	assert.Equal(t, units.MM, r.Resolve(d, nil).Unit)

	s.Calibrate("img", 5)
	got := r.Resolve(d, nil)
	assert.Equal(t, units.MMManual, got.Unit)
	assert.Equal(t, 50.0, got.RowPixelSpacing)

	s.Reset("img")
	got = r.Resolve(d, nil)
	assert.Equal(t, units.Pixel, got.Unit)
	assert.Equal(t, 10.0, got.RowPixelSpacing)
}

func TestStore_Concurrent(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Calibrate("img", 2)
		}()
		go func() {
			defer wg.Done()
			_ = s.Factor("img")
		}()
	}
	wg.Wait()

	e, ok := s.Entry("img")
	require.True(t, ok)
	assert.Equal(t, 50, e.Count)
}

func TestFactorFromReference(t *testing.T) {
	f, err := FactorFromReference(20, 10)
	require.NoError(t, err)
	assert.Equal(t, 0.5, f)

	_, err = FactorFromReference(0, 10)
	assert.True(t, errors.Is(err, ErrInvalidReference))
	_, err = FactorFromReference(10, -1)
	assert.True(t, errors.Is(err, ErrInvalidReference))
}

func TestStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "calibrations.yaml")

	empty, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())

	s := NewStore()
	s.Calibrate("img-1", 1.25)
	s.Calibrate("img-2", 2)
	s.Reset("img-2")
	require.NoError(t, s.SaveFile(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, s.Snapshot(), loaded.Snapshot())
	assert.Equal(t, 1.25, loaded.Factor("img-1"))
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("calibrations: [1, 2"), 0o600))

	_, err := LoadFile(path)
	assert.Error(t, err)
}
