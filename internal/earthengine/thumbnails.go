package earthengine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/verdant-research/canopy-cli/internal/region"
)

// VideoRequest asks the service to render an animation of a collection over
// a region, one frame per image in the half-open window [Start, End).
type VideoRequest struct {
	Collection      string
	Band            string
	Region          region.Region
	Start           time.Time
	End             time.Time // exclusive
	Palette         []string  // HEX colors, low to high
	Min             float64
	Max             float64
	FramesPerSecond int
	Dimensions      int // longest output edge in pixels
}

type renderResponse struct {
	URL string `json:"url"`
}

// VideoThumbnailURL returns the one-shot download URL of a service-rendered
// animation.
func (c *Client) VideoThumbnailURL(ctx context.Context, req VideoRequest) (string, error) {
	if req.Collection == "" || req.Band == "" {
		return "", fmt.Errorf("video request needs a collection and a band")
	}

	fps := req.FramesPerSecond
	if fps <= 0 {
		fps = 2
	}
	dimensions := req.Dimensions
	if dimensions <= 0 {
		dimensions = 512
	}

	payload := map[string]interface{}{
		"assetId": req.Collection,
		"band":    req.Band,
		"region":  req.Region.Geometry(),
		"filter": map[string]string{
			"startTime": req.Start.UTC().Format(time.RFC3339),
			"endTime":   req.End.UTC().Format(time.RFC3339),
		},
		"visualization": map[string]interface{}{
			"min":     req.Min,
			"max":     req.Max,
			"palette": req.Palette,
		},
		"framesPerSecond": fps,
		"dimensions":      dimensions,
		"fileFormat":      "GIF",
	}

	data, err := c.postJSON(ctx, c.projectPath("videoThumbnails"), payload, "application/json")
	if err != nil {
		return "", fmt.Errorf("failed to request video rendering for %s: %v", req.Collection, err)
	}

	var resp renderResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("failed to parse video rendering response: %v", err)
	}
	if resp.URL == "" {
		return "", fmt.Errorf("video rendering response has no download URL")
	}
	return resp.URL, nil
}

// ThumbnailURL returns the one-shot download URL of a single rendered frame.
func (c *Client) ThumbnailURL(ctx context.Context, req VideoRequest) (string, error) {
	if req.Collection == "" || req.Band == "" {
		return "", fmt.Errorf("thumbnail request needs a collection and a band")
	}

	dimensions := req.Dimensions
	if dimensions <= 0 {
		dimensions = 512
	}

	payload := map[string]interface{}{
		"assetId": req.Collection,
		"band":    req.Band,
		"region":  req.Region.Geometry(),
		"filter": map[string]string{
			"startTime": req.Start.UTC().Format(time.RFC3339),
			"endTime":   req.End.UTC().Format(time.RFC3339),
		},
		"visualization": map[string]interface{}{
			"min":     req.Min,
			"max":     req.Max,
			"palette": req.Palette,
		},
		"dimensions": dimensions,
		"fileFormat": "PNG",
	}

	data, err := c.postJSON(ctx, c.projectPath("thumbnails"), payload, "application/json")
	if err != nil {
		return "", fmt.Errorf("failed to request thumbnail for %s: %v", req.Collection, err)
	}

	var resp renderResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("failed to parse thumbnail response: %v", err)
	}
	if resp.URL == "" {
		return "", fmt.Errorf("thumbnail response has no download URL")
	}
	return resp.URL, nil
}
