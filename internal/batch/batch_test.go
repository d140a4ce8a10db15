package batch

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/pixspace/internal/measurement"
	"github.com/MeKo-Tech/pixspace/internal/spacing"
	"github.com/MeKo-Tech/pixspace/internal/testutil"
	"github.com/MeKo-Tech/pixspace/internal/uncertainty"
	"github.com/MeKo-Tech/pixspace/internal/units"
)

func newProcessor() *Processor {
	r := spacing.NewResolver()
	return NewProcessor(r, measurement.New(r, uncertainty.NewCalculator(0)))
}

func TestProcess_Fixtures(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	path := testutil.WriteFixtureFile(t, dir)

	cfg := DefaultConfig()
	cfg.Workers = 2
	res, err := newProcessor().Process(context.Background(), []string{dir}, cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{path}, res.Files)
	assert.Equal(t, 2, res.WorkerCount)
	require.Len(t, res.Items, len(testutil.FixtureIDs()))
	assert.Zero(t, res.Failed())

	for i, id := range testutil.FixtureIDs() {
		item := res.Items[i]
		assert.Equal(t, id, item.ImageID)
		require.NotNil(t, item.Spacing, id)
		assert.Nil(t, item.Measurement)
	}
}

func TestProcess_Measure(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	testutil.WriteFixtureFile(t, dir)

	cfg := DefaultConfig()
	cfg.Handles = &spacing.Handles{End: spacing.Point{X: 30, Y: 40}}
	res, err := newProcessor().Process(context.Background(), []string{dir}, cfg)
	require.NoError(t, err)

	byID := map[string]Item{}
	for _, it := range res.Items {
		byID[it.ImageID] = it
	}
	ct := byID["ct-plane"]
	require.NotNil(t, ct.Measurement)
	assert.Equal(t, "25.0", ct.Measurement.Length)
	assert.Equal(t, units.MM, ct.Measurement.Unit)

	none := byID["no-spacing"]
	require.NotNil(t, none.Measurement)
	assert.Equal(t, "50.0", none.Measurement.Length)
	assert.Equal(t, units.Pixel, none.Measurement.Unit)
}

func TestProcess_BadFileIsReportedPerItem(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	testutil.WriteFixtureFile(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("images: [\n"), 0o600))

	res, err := newProcessor().Process(context.Background(), []string{dir}, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed())
	assert.Equal(t, filepath.Join(dir, "broken.yaml"), res.Items[0].File)
	assert.NotEmpty(t, res.Items[0].Error)
}

func TestProcess_Errors(t *testing.T) {
	p := newProcessor()

	_, err := p.Process(context.Background(), []string{testutil.CreateTempDir(t)}, DefaultConfig())
	assert.Error(t, err, "empty directory")

	cfg := DefaultConfig()
	cfg.Workers = 0
	_, err = p.Process(context.Background(), nil, cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Handles = &spacing.Handles{}
	_, err = NewProcessor(nil, nil).Process(context.Background(), nil, cfg)
	assert.Error(t, err)

	dir := testutil.CreateTempDir(t)
	testutil.WriteFixtureFile(t, dir)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Process(ctx, []string{dir}, DefaultConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResult_Format(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	testutil.WriteFixtureFile(t, dir)
	res, err := newProcessor().Process(context.Background(), []string{dir}, DefaultConfig())
	require.NoError(t, err)

	text, err := res.Format("text")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "# "))
	assert.Contains(t, text, "dx-magnified\trow=")
	assert.Contains(t, text, "unit=mm_est")
	assert.Contains(t, text, "no-spacing\tunit=pix")

	out, err := res.Format("json")
	require.NoError(t, err)
	var decoded Result
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Len(t, decoded.Items, len(res.Items))

	out, err = res.Format("csv")
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, len(res.Items)+1)
	assert.Equal(t, "file", rows[0][0])
	assert.Equal(t, "cr-approx", rows[1][1])
	assert.Equal(t, "mm_approx", rows[1][4])

	out, err = res.Format("yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "image_id: ct-plane")

	_, err = res.Format("xml")
	assert.Error(t, err)

	target := filepath.Join(dir, "out.csv")
	require.NoError(t, res.Save("csv", target))
	assert.True(t, testutil.FileExists(target))
}
