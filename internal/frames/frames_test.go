package frames

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilenameEmbedsDate(t *testing.T) {
	date := time.Date(2023, 4, 9, 0, 0, 0, 0, time.UTC)
	name := Filename("ndvi", date, ".tif")
	assert.Equal(t, "ndvi_2023-04-09.tif", name)
	assert.Contains(t, name, "2023-04-09")
}

func TestFilenameUniquePerDate(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	seen := make(map[string]bool)
	for i := 0; i < 365; i++ {
		name := Filename("sm", start.AddDate(0, 0, i), ".tif")
		assert.False(t, seen[name], name)
		seen[name] = true
	}
}

func TestFrameDate(t *testing.T) {
	date, err := FrameDate("/tmp/frames/ndvi_2023-04-09.tif")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 4, 9, 0, 0, 0, 0, time.UTC), date)

	// Prefixes containing underscores still resolve.
	date, err = FrameDate("soil_moisture_2022-12-01.tif")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2022, 12, 1, 0, 0, 0, 0, time.UTC), date)
}

func TestFrameDateInvalid(t *testing.T) {
	_, err := FrameDate("noframe.tif")
	require.Error(t, err)

	_, err = FrameDate("ndvi_notadate.tif")
	require.Error(t, err)
}

func TestSortedFilenamesAreChronological(t *testing.T) {
	dates := []time.Time{
		time.Date(2023, 10, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 2, 14, 0, 0, 0, 0, time.UTC),
		time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 2, 3, 0, 0, 0, 0, time.UTC),
	}

	names := make([]string, len(dates))
	for i, d := range dates {
		names[i] = Filename("ndvi", d, ".tif")
	}
	sort.Strings(names)

	var recovered []time.Time
	for _, name := range names {
		d, err := FrameDate(name)
		require.NoError(t, err)
		recovered = append(recovered, d)
	}

	for i := 1; i < len(recovered); i++ {
		assert.True(t, recovered[i-1].Before(recovered[i]),
			"frames out of order: %v before %v", recovered[i-1], recovered[i])
	}
}

func TestListFrames(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"ndvi_2023-03-01.tif",
		"ndvi_2023-01-01.tif",
		"ndvi_2023-02-01.tif",
	}
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	// Noise that must not show up.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.tif"), 0755))

	paths, err := ListFrames(dir, ".tif")
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, "ndvi_2023-01-01.tif"), paths[0])
	assert.Equal(t, filepath.Join(dir, "ndvi_2023-03-01.tif"), paths[2])
}

func TestListFramesMissingDir(t *testing.T) {
	_, err := ListFrames(filepath.Join(t.TempDir(), "missing"), ".tif")
	require.Error(t, err)
}
