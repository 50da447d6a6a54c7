package timeseries

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/verdant-research/canopy-cli/internal/daterange"
	"github.com/verdant-research/canopy-cli/internal/earthengine"
	"github.com/verdant-research/canopy-cli/internal/region"
)

// Sample is one dated observation after local unit conversion.
type Sample struct {
	Date  time.Time
	Value float64
}

// Series is a chronologically ordered point time series.
type Series struct {
	Collection string
	Band       string
	Units      string
	Samples    []Sample
}

// Sampler is the remote surface the series fetch needs.
type Sampler interface {
	Dataset(ctx context.Context, id string) (earthengine.DatasetInfo, error)
	SamplePoint(ctx context.Context, collection, band string, r region.Region, start, end time.Time) ([]earthengine.PointSample, error)
}

// FetchPoint samples one band at a point over the half-open window
// [start, end) and applies the band's scale and offset locally. Samples with
// unparseable dates are reported and skipped.
func FetchPoint(ctx context.Context, client Sampler, collection, band string, r region.Region, start, end time.Time) (Series, error) {
	info, err := client.Dataset(ctx, collection)
	if err != nil {
		return Series{}, err
	}
	bandInfo, err := info.Band(band)
	if err != nil {
		return Series{}, err
	}

	raw, err := client.SamplePoint(ctx, collection, band, r, start, end)
	if err != nil {
		return Series{}, err
	}

	series := Series{Collection: collection, Band: band, Units: bandInfo.Units}
	for _, sample := range raw {
		date, err := daterange.Parse(sample.Date)
		if err != nil {
			fmt.Printf("Skipping sample with invalid date %q: %v\n", sample.Date, err)
			continue
		}
		series.Samples = append(series.Samples, Sample{
			Date:  date,
			Value: ApplyScale(sample.Value, bandInfo.Scale, bandInfo.Offset),
		})
	}

	sort.Slice(series.Samples, func(i, j int) bool {
		return series.Samples[i].Date.Before(series.Samples[j].Date)
	})
	return series, nil
}

// ApplyScale converts a stored digital number to physical units. A zero
// scale means the band is already in physical units.
func ApplyScale(value, scale, offset float64) float64 {
	if scale == 0 {
		scale = 1
	}
	return value*scale + offset
}

// KelvinToCelsius converts temperature bands published in Kelvin.
func KelvinToCelsius(kelvin float64) float64 {
	return kelvin - 273.15
}

// Mean of the series values; an empty series has no mean.
func (s Series) Mean() (float64, error) {
	if len(s.Samples) == 0 {
		return 0, fmt.Errorf("series is empty")
	}
	var sum float64
	for _, sample := range s.Samples {
		sum += sample.Value
	}
	return sum / float64(len(s.Samples)), nil
}

type csvRow struct {
	Date       string  `csv:"date"`
	Collection string  `csv:"collection"`
	Band       string  `csv:"band"`
	Value      float64 `csv:"value"`
	Units      string  `csv:"units"`
}

// ExportCSV writes the series to a CSV file, one row per sample, in
// chronological order.
func (s Series) ExportCSV(path string) error {
	rows := make([]csvRow, 0, len(s.Samples))
	for _, sample := range s.Samples {
		rows = append(rows, csvRow{
			Date:       sample.Date.Format(daterange.ISOFormat),
			Collection: s.Collection,
			Band:       s.Band,
			Value:      sample.Value,
			Units:      s.Units,
		})
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("failed to write CSV file: %v", err)
	}
	return nil
}
