package earthengine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/verdant-research/canopy-cli/internal/region"
)

// Reducers the service applies across the image stack before returning a
// single raster.
const (
	ReducerMedian = "median"
	ReducerMean   = "mean"
)

// PixelsRequest describes a one-shot raster request: every image of the
// collection intersecting the region in the half-open window [Start, End)
// is reduced server-side to one band raster.
type PixelsRequest struct {
	Collection       string
	Band             string
	Region           region.Region
	Start            time.Time
	End              time.Time // exclusive
	Reducer          string
	ResolutionMeters float64
}

func (r PixelsRequest) validate() error {
	if r.Collection == "" || r.Band == "" {
		return fmt.Errorf("pixels request needs a collection and a band")
	}
	if !r.End.After(r.Start) {
		return fmt.Errorf("pixels request window [%s, %s) is empty",
			r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
	}
	if r.ResolutionMeters <= 0 {
		return fmt.Errorf("pixels request needs a positive resolution, got %f", r.ResolutionMeters)
	}
	return nil
}

// ComputePixels asks the service for a reduced GeoTIFF raster of the region
// and returns the raw bytes.
func (c *Client) ComputePixels(ctx context.Context, req PixelsRequest) ([]byte, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	reducer := req.Reducer
	if reducer == "" {
		reducer = ReducerMedian
	}

	width, height := req.Region.PixelDims(req.ResolutionMeters)
	payload := map[string]interface{}{
		"assetId": req.Collection,
		"bands":   []string{req.Band},
		"region":  req.Region.Geometry(),
		"filter": map[string]string{
			"startTime": req.Start.UTC().Format(time.RFC3339),
			"endTime":   req.End.UTC().Format(time.RFC3339),
		},
		"reducer": reducer,
		"grid": map[string]int{
			"width":  width,
			"height": height,
		},
		"fileFormat": "GEO_TIFF",
	}

	data, err := c.postJSON(ctx, c.projectPath("image:computePixels"), payload, "image/tiff")
	if err != nil {
		return nil, fmt.Errorf("failed to compute pixels for %s: %v", req.Collection, err)
	}
	return data, nil
}

// PointSample is one dated scalar value sampled at a point.
type PointSample struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type samplePointResponse struct {
	Samples []PointSample `json:"samples"`
}

// SamplePoint returns the per-image values of one band at a point over the
// half-open window [start, end), in service order.
func (c *Client) SamplePoint(ctx context.Context, collection, band string, r region.Region, start, end time.Time) ([]PointSample, error) {
	lat, lon, err := r.Centroid()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sample point: %v", err)
	}

	payload := map[string]interface{}{
		"assetId": collection,
		"band":    band,
		"point": map[string]float64{
			"longitude": lon,
			"latitude":  lat,
		},
		"filter": map[string]string{
			"startTime": start.UTC().Format(time.RFC3339),
			"endTime":   end.UTC().Format(time.RFC3339),
		},
	}

	data, err := c.postJSON(ctx, c.projectPath("image:samplePoint"), payload, "application/json")
	if err != nil {
		return nil, fmt.Errorf("failed to sample %s at point: %v", collection, err)
	}

	var resp samplePointResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse point samples: %v", err)
	}
	return resp.Samples, nil
}
