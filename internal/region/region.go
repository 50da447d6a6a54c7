package region

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// metersPerDegree approximates one degree of latitude at the equator.
const metersPerDegree = 111_000.0

// maxRenderPixels is the per-axis limit the remote service accepts for a
// single raster request.
const maxRenderPixels = 2500

// Region scopes remote queries to a geometry: a point, a rectangle, or a
// boundary loaded from a GeoJSON file.
type Region struct {
	Name string
	geom orb.Geometry
}

func NewPoint(lon, lat float64) Region {
	return Region{
		Name: fmt.Sprintf("point_%.4f_%.4f", lon, lat),
		geom: orb.Point{lon, lat},
	}
}

func NewRect(minLon, minLat, maxLon, maxLat float64) (Region, error) {
	if minLon >= maxLon || minLat >= maxLat {
		return Region{}, fmt.Errorf("invalid rectangle [%f,%f,%f,%f]: min must be below max", minLon, minLat, maxLon, maxLat)
	}
	bound := orb.Bound{Min: orb.Point{minLon, minLat}, Max: orb.Point{maxLon, maxLat}}
	return Region{Name: "rect", geom: bound.ToPolygon()}, nil
}

// FromGeoJSONFile loads a boundary from a local GeoJSON feature collection.
// When name is non-empty the feature whose "name" property matches is used,
// otherwise the first feature wins.
func FromGeoJSONFile(path, name string) (Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Region{}, fmt.Errorf("failed to read GeoJSON file: %v", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return Region{}, fmt.Errorf("failed to parse GeoJSON file %s: %v", path, err)
	}
	if len(fc.Features) == 0 {
		return Region{}, fmt.Errorf("GeoJSON file %s has no features", path)
	}

	for _, feature := range fc.Features {
		if name == "" {
			return Region{Name: featureName(feature), geom: feature.Geometry}, nil
		}
		if featureName(feature) == name {
			return Region{Name: name, geom: feature.Geometry}, nil
		}
	}

	return Region{}, fmt.Errorf("no feature named %q in %s", name, path)
}

func featureName(feature *geojson.Feature) string {
	if name, ok := feature.Properties["name"].(string); ok {
		return name
	}
	return "boundary"
}

// Geometry returns the GeoJSON geometry payload sent with remote requests.
func (r Region) Geometry() *geojson.Geometry {
	return geojson.NewGeometry(r.geom)
}

func (r Region) Bound() orb.Bound {
	return r.geom.Bound()
}

// Centroid returns the latitude and longitude of the region center. For
// points it is the point itself; polygons must enclose a positive area.
func (r Region) Centroid() (float64, float64, error) {
	if point, ok := r.geom.(orb.Point); ok {
		return point.Lat(), point.Lon(), nil
	}

	centroid, area := planar.CentroidArea(r.geom)
	if area <= 0 {
		return 0, 0, fmt.Errorf("region %s has no enclosed area", r.Name)
	}
	return centroid.Lat(), centroid.Lon(), nil
}

// PixelDims estimates the raster width and height covering the region bbox
// at the given ground resolution in meters, clamped to the service limits.
func (r Region) PixelDims(resolutionMeters float64) (int, int) {
	bound := r.geom.Bound()
	width := spanPixels(bound.Max[0]-bound.Min[0], resolutionMeters)
	height := spanPixels(bound.Max[1]-bound.Min[1], resolutionMeters)
	return width, height
}

func spanPixels(degrees, resolutionMeters float64) int {
	pixels := int(degrees * metersPerDegree / resolutionMeters)
	if pixels < 1 {
		return 1
	}
	if pixels > maxRenderPixels {
		return maxRenderPixels
	}
	return pixels
}
