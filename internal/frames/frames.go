package frames

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/verdant-research/canopy-cli/internal/daterange"
)

// Filename builds the frame file name for one date. The zero-padded ISO
// date is embedded verbatim so that lexicographic order over a frame folder
// is chronological order.
func Filename(prefix string, date time.Time, ext string) string {
	return fmt.Sprintf("%s_%s%s", prefix, date.Format(daterange.ISOFormat), ext)
}

// FrameDate recovers the acquisition date embedded in a frame file name.
func FrameDate(filename string) (time.Time, error) {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	idx := strings.LastIndex(base, "_")
	if idx == -1 || idx == len(base)-1 {
		return time.Time{}, fmt.Errorf("no date found in frame name %s", filename)
	}
	return daterange.Parse(base[idx+1:])
}

// ListFrames returns the frame files in dir with the given extension,
// sorted ascending. Given the date-embedding naming scheme this is
// chronological order.
func ListFrames(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frames folder %s: %v", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	sort.Strings(paths)
	return paths, nil
}
