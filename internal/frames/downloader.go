package frames

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/verdant-research/canopy-cli/internal/earthengine"
	"github.com/verdant-research/canopy-cli/internal/region"
)

// Fetcher is the one remote call the downloader needs.
type Fetcher interface {
	ComputePixels(ctx context.Context, req earthengine.PixelsRequest) ([]byte, error)
}

// Request describes a batch of per-date raster downloads into one folder.
type Request struct {
	Collection       string
	Band             string
	Region           region.Region
	Dates            []time.Time
	Reducer          string
	ResolutionMeters float64
	OutputDir        string
	Prefix           string
}

// Result is the outcome of one date in the batch: a written file or the
// reason it was skipped.
type Result struct {
	Date time.Time
	Path string
	Err  error
}

// Summary aggregates a finished batch.
type Summary struct {
	Results []Result
}

func (s Summary) Downloaded() []string {
	var paths []string
	for _, r := range s.Results {
		if r.Err == nil {
			paths = append(paths, r.Path)
		}
	}
	return paths
}

func (s Summary) Failed() []Result {
	var failed []Result
	for _, r := range s.Results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// Download fetches one raster per date, sequentially, writing each to
// OutputDir. A failed date is reported and skipped; the batch always runs
// to the end, so a partially populated folder is a legal outcome.
func Download(ctx context.Context, fetcher Fetcher, req Request) (Summary, error) {
	if len(req.Dates) == 0 {
		return Summary{}, fmt.Errorf("no dates to download")
	}

	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return Summary{}, fmt.Errorf("failed to create output folder %s: %v", req.OutputDir, err)
	}

	progressBar := progressbar.Default(int64(len(req.Dates)), "Downloading frames")
	summary := Summary{Results: make([]Result, 0, len(req.Dates))}

	for _, date := range req.Dates {
		path := filepath.Join(req.OutputDir, Filename(req.Prefix, date, ".tif"))

		data, err := fetcher.ComputePixels(ctx, earthengine.PixelsRequest{
			Collection:       req.Collection,
			Band:             req.Band,
			Region:           req.Region,
			Start:            date,
			End:              date.AddDate(0, 0, 1),
			Reducer:          req.Reducer,
			ResolutionMeters: req.ResolutionMeters,
		})
		if err != nil {
			fmt.Printf("Skipping %s: %v\n", filepath.Base(path), err)
			summary.Results = append(summary.Results, Result{Date: date, Err: err})
			progressBar.Add(1)
			continue
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			err = fmt.Errorf("failed to write frame: %v", err)
			fmt.Printf("Skipping %s: %v\n", filepath.Base(path), err)
			summary.Results = append(summary.Results, Result{Date: date, Err: err})
			progressBar.Add(1)
			continue
		}

		summary.Results = append(summary.Results, Result{Date: date, Path: path})
		progressBar.Add(1)
	}

	progressBar.Finish()
	return summary, nil
}
