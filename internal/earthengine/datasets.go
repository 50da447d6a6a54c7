package earthengine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/verdant-research/canopy-cli/internal/cache"
	"github.com/verdant-research/canopy-cli/internal/daterange"
	"github.com/verdant-research/canopy-cli/internal/region"
	"golang.org/x/sync/errgroup"
)

// Hosted collections the CLI works with out of the box.
const (
	CollectionNDVI            = "MODIS/061/MOD13Q1"
	CollectionSoilMoisture    = "NASA/SMAP/SPL4SMGP/007"
	CollectionLandSurfaceTemp = "MODIS/061/MOD11A2"
)

type Band struct {
	Name   string  `json:"name"`
	Units  string  `json:"units"`
	Scale  float64 `json:"scale"`
	Offset float64 `json:"offset"`
}

type DatasetInfo struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	IntervalDays int    `json:"interval_days"`
	Bands        []Band `json:"bands"`
}

func (d DatasetInfo) Band(name string) (Band, error) {
	for _, band := range d.Bands {
		if band.Name == name {
			return band, nil
		}
	}
	return Band{}, fmt.Errorf("dataset %s has no band %s", d.ID, name)
}

// Dataset fetches collection metadata, served from the local metadata cache
// when a fresh entry exists.
func (c *Client) Dataset(ctx context.Context, id string) (DatasetInfo, error) {
	metadataCache := cache.NewFileCache[DatasetInfo]("metadata", 24*time.Hour)
	key := metadataCache.GenerateKey(c.baseURL, c.project, id)
	if info, ok := metadataCache.Get(key); ok {
		return info, nil
	}

	var info DatasetInfo
	path := c.projectPath("assets/" + url.PathEscape(id))
	if err := c.getJSON(ctx, path, nil, &info); err != nil {
		return DatasetInfo{}, fmt.Errorf("failed to fetch dataset %s: %v", id, err)
	}

	if err := metadataCache.Set(key, info); err != nil {
		fmt.Printf("Failed to cache metadata for %s: %v\n", id, err)
	}
	return info, nil
}

// DescribeDatasets fetches metadata for several collections concurrently and
// returns the results in input order.
func (c *Client) DescribeDatasets(ctx context.Context, ids ...string) ([]DatasetInfo, error) {
	infos := make([]DatasetInfo, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			info, err := c.Dataset(ctx, id)
			if err != nil {
				return err
			}
			infos[i] = info
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return infos, nil
}

type listImagesResponse struct {
	Images []struct {
		ID        string `json:"id"`
		StartTime string `json:"startTime"`
	} `json:"images"`
}

// ListImageDates returns the acquisition dates (YYYY-MM-DD, ascending,
// de-duplicated) of the images a collection holds for a region in the
// half-open window [start, end).
func (c *Client) ListImageDates(ctx context.Context, collection string, r region.Region, start, end time.Time) ([]string, error) {
	geom, err := json.Marshal(r.Geometry())
	if err != nil {
		return nil, fmt.Errorf("failed to encode region geometry: %v", err)
	}

	params := url.Values{}
	params.Set("startTime", start.UTC().Format(time.RFC3339))
	params.Set("endTime", end.UTC().Format(time.RFC3339))
	params.Set("region", string(geom))

	var resp listImagesResponse
	path := c.projectPath("assets/" + url.PathEscape(collection) + ":listImages")
	if err := c.getJSON(ctx, path, params, &resp); err != nil {
		return nil, fmt.Errorf("failed to list images for %s: %v", collection, err)
	}

	seen := make(map[string]bool)
	var dates []string
	for _, image := range resp.Images {
		acquired, err := time.Parse(time.RFC3339, image.StartTime)
		if err != nil {
			fmt.Printf("Skipping image %s with invalid start time %q\n", image.ID, image.StartTime)
			continue
		}
		date := acquired.UTC().Format(daterange.ISOFormat)
		if !seen[date] {
			seen[date] = true
			dates = append(dates, date)
		}
	}

	sort.Strings(dates)
	return dates, nil
}
