package earthengine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	neturl "net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verdant-research/canopy-cli/internal/region"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClientWithHTTP(server.Client(), server.URL, "test-project")
	client.retries = 3
	client.retryWait = 0
	return client, server
}

func testWindow(t *testing.T) (time.Time, time.Time) {
	t.Helper()
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

func TestComputePixels(t *testing.T) {
	var gotPayload map[string]interface{}
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects/test-project/image:computePixels", r.URL.Path)
		assert.Equal(t, "image/tiff", r.Header.Get("Accept"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Write([]byte("tiff-bytes"))
	}))

	start, end := testWindow(t)
	data, err := client.ComputePixels(context.Background(), PixelsRequest{
		Collection:       CollectionNDVI,
		Band:             "NDVI",
		Region:           region.NewPoint(-95.3, 38.9),
		Start:            start,
		End:              end,
		ResolutionMeters: 250,
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("tiff-bytes"), data)

	assert.Equal(t, CollectionNDVI, gotPayload["assetId"])
	assert.Equal(t, "median", gotPayload["reducer"])

	filter := gotPayload["filter"].(map[string]interface{})
	assert.Equal(t, "2023-01-01T00:00:00Z", filter["startTime"])
	assert.Equal(t, "2023-01-02T00:00:00Z", filter["endTime"])
}

func TestComputePixelsValidation(t *testing.T) {
	client := NewClientWithHTTP(http.DefaultClient, "http://unused", "p")
	start, end := testWindow(t)

	_, err := client.ComputePixels(context.Background(), PixelsRequest{
		Band: "NDVI", Start: start, End: end, ResolutionMeters: 250,
	})
	require.Error(t, err)

	_, err = client.ComputePixels(context.Background(), PixelsRequest{
		Collection: CollectionNDVI, Band: "NDVI", Start: end, End: start, ResolutionMeters: 250,
	})
	require.Error(t, err)

	_, err = client.ComputePixels(context.Background(), PixelsRequest{
		Collection: CollectionNDVI, Band: "NDVI", Start: start, End: end,
	})
	require.Error(t, err)
}

func TestUnauthorizedDoesNotRetry(t *testing.T) {
	var hits atomic.Int32
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "forbidden", http.StatusForbidden)
	}))

	start, end := testWindow(t)
	_, err := client.ComputePixels(context.Background(), PixelsRequest{
		Collection: CollectionNDVI, Band: "NDVI",
		Region: region.NewPoint(-95.3, 38.9),
		Start:  start, End: end, ResolutionMeters: 250,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")
	assert.Equal(t, int32(1), hits.Load())
}

func TestServerErrorRetriesThenSucceeds(t *testing.T) {
	var hits atomic.Int32
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "transient", http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))

	start, end := testWindow(t)
	data, err := client.ComputePixels(context.Background(), PixelsRequest{
		Collection: CollectionNDVI, Band: "NDVI",
		Region: region.NewPoint(-95.3, 38.9),
		Start:  start, End: end, ResolutionMeters: 250,
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), data)
	assert.Equal(t, int32(3), hits.Load())
}

func TestServerErrorExhaustsRetries(t *testing.T) {
	var hits atomic.Int32
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "broken", http.StatusInternalServerError)
	}))

	start, end := testWindow(t)
	_, err := client.ComputePixels(context.Background(), PixelsRequest{
		Collection: CollectionNDVI, Band: "NDVI",
		Region: region.NewPoint(-95.3, 38.9),
		Start:  start, End: end, ResolutionMeters: 250,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, int32(3), hits.Load())
}

func TestDatasetUsesCache(t *testing.T) {
	t.Setenv("CANOPY_DATA_PATH", t.TempDir())

	var hits atomic.Int32
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode(DatasetInfo{
			ID:           CollectionNDVI,
			Title:        "MODIS Terra Vegetation Indices",
			IntervalDays: 16,
			Bands:        []Band{{Name: "NDVI", Scale: 0.0001}},
		})
	}))

	info, err := client.Dataset(context.Background(), CollectionNDVI)
	require.NoError(t, err)
	assert.Equal(t, 16, info.IntervalDays)

	again, err := client.Dataset(context.Background(), CollectionNDVI)
	require.NoError(t, err)
	assert.Equal(t, info, again)
	assert.Equal(t, int32(1), hits.Load(), "second lookup should come from cache")

	band, err := info.Band("NDVI")
	require.NoError(t, err)
	assert.Equal(t, 0.0001, band.Scale)

	_, err = info.Band("EVI")
	require.Error(t, err)
}

func TestDescribeDatasetsKeepsOrder(t *testing.T) {
	t.Setenv("CANOPY_DATA_PATH", t.TempDir())

	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(DatasetInfo{ID: assetIDFromPath(r.URL.Path)})
	}))

	infos, err := client.DescribeDatasets(context.Background(), CollectionNDVI, CollectionSoilMoisture, CollectionLandSurfaceTemp)
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, CollectionNDVI, infos[0].ID)
	assert.Equal(t, CollectionSoilMoisture, infos[1].ID)
	assert.Equal(t, CollectionLandSurfaceTemp, infos[2].ID)
}

func TestListImageDates(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.URL.Query().Get("region"))
		assert.Equal(t, "2023-01-01T00:00:00Z", r.URL.Query().Get("startTime"))
		fmt.Fprint(w, `{"images": [
			{"id": "c", "startTime": "2023-01-17T10:30:00Z"},
			{"id": "a", "startTime": "2023-01-01T10:30:00Z"},
			{"id": "a2", "startTime": "2023-01-01T12:00:00Z"},
			{"id": "bad", "startTime": "yesterday"},
			{"id": "b", "startTime": "2023-01-09T10:30:00Z"}
		]}`)
	}))

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	dates, err := client.ListImageDates(context.Background(), CollectionNDVI, region.NewPoint(-95.3, 38.9), start, end)
	require.NoError(t, err)
	assert.Equal(t, []string{"2023-01-01", "2023-01-09", "2023-01-17"}, dates)
}

func TestSamplePoint(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects/test-project/image:samplePoint", r.URL.Path)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		point := payload["point"].(map[string]interface{})
		assert.InDelta(t, -95.3, point["longitude"], 1e-9)
		assert.InDelta(t, 38.9, point["latitude"], 1e-9)

		fmt.Fprint(w, `{"samples": [{"date": "2023-01-01", "value": 5321}, {"date": "2023-01-17", "value": 4876}]}`)
	}))

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	samples, err := client.SamplePoint(context.Background(), CollectionNDVI, "NDVI", region.NewPoint(-95.3, 38.9), start, end)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, PointSample{Date: "2023-01-01", Value: 5321}, samples[0])
}

func TestVideoThumbnailURL(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/projects/test-project/videoThumbnails":
			fmt.Fprintf(w, `{"url": %q}`, "http://"+r.Host+"/render/abc.gif")
		case "/render/abc.gif":
			w.Write([]byte("gif-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	url, err := client.VideoThumbnailURL(context.Background(), VideoRequest{
		Collection: CollectionNDVI,
		Band:       "NDVI",
		Region:     region.NewPoint(-95.3, 38.9),
		Start:      start,
		End:        start.AddDate(0, 1, 0),
		Palette:    []string{"a50026", "006837"},
		Min:        0,
		Max:        9000,
	})
	require.NoError(t, err)
	assert.Contains(t, url, "/render/abc.gif")

	data, err := client.Download(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, []byte("gif-bytes"), data)
}

func TestThumbnailURL(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects/test-project/thumbnails", r.URL.Path)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "PNG", payload["fileFormat"])

		fmt.Fprint(w, `{"url": "https://render.example/frame.png"}`)
	}))

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	url, err := client.ThumbnailURL(context.Background(), VideoRequest{
		Collection: CollectionNDVI,
		Band:       "NDVI",
		Region:     region.NewPoint(-95.3, 38.9),
		Start:      start,
		End:        start.AddDate(0, 0, 1),
		Palette:    []string{"a50026", "006837"},
		Max:        9000,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://render.example/frame.png", url)
}

func TestVideoThumbnailURLMissingURL(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := client.VideoThumbnailURL(context.Background(), VideoRequest{
		Collection: CollectionNDVI,
		Band:       "NDVI",
		Region:     region.NewPoint(-95.3, 38.9),
		Start:      start,
		End:        start.AddDate(0, 1, 0),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no download URL")
}

func TestDownloadFailure(t *testing.T) {
	client, server := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))

	_, err := client.Download(context.Background(), server.URL+"/render/expired.gif")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "410")
}

func assetIDFromPath(path string) string {
	const prefix = "/projects/test-project/assets/"
	if len(path) <= len(prefix) {
		return ""
	}
	id, err := neturl.PathUnescape(path[len(prefix):])
	if err != nil {
		return ""
	}
	return id
}
