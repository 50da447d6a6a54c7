package colormap

import (
	"fmt"
	"sort"
	"strings"
)

// Colormap is an ordered color ramp. Colors are 6-digit HEX strings without
// the leading '#', the form the remote visualization parameters expect.
type Colormap struct {
	Name   string
	Colors []string
}

// Resolution is the number of distinct colors available in the ramp.
func (c Colormap) Resolution() int {
	return len(c.Colors)
}

// Resample returns exactly n HEX colors picked evenly across the ramp, in
// ascending sample-index order. It fails when n exceeds the ramp resolution,
// since that would require colors the ramp does not have.
func (c Colormap) Resample(n int) ([]string, error) {
	if n <= 0 {
		return nil, fmt.Errorf("requested color count must be positive, got %d", n)
	}
	if n > len(c.Colors) {
		return nil, fmt.Errorf("colormap %s has %d colors, cannot resample to %d", c.Name, len(c.Colors), n)
	}

	if n == 1 {
		return []string{c.Colors[0]}, nil
	}

	colors := make([]string, n)
	for i := 0; i < n; i++ {
		idx := i * (len(c.Colors) - 1) / (n - 1)
		colors[i] = c.Colors[idx]
	}
	return colors, nil
}

// Palette joins the ramp into the comma-separated form used by the remote
// thumbnail and video rendering parameters.
func (c Colormap) Palette() string {
	return strings.Join(c.Colors, ",")
}

var colormaps = map[string]Colormap{
	"ndvi": {
		Name: "ndvi",
		Colors: []string{
			"a50026", "d73027", "f46d43", "fdae61", "fee08b", "ffffbf",
			"d9ef8b", "a6d96a", "66bd63", "1a9850", "006837",
		},
	},
	"soilmoisture": {
		Name: "soilmoisture",
		Colors: []string{
			"f7fbff", "deebf7", "c6dbef", "9ecae1", "6baed6",
			"4292c6", "2171b5", "08519c", "08306b",
		},
	},
	"temperature": {
		Name: "temperature",
		Colors: []string{
			"313695", "4575b4", "74add1", "abd9e9", "e0f3f8", "ffffbf",
			"fee090", "fdae61", "f46d43", "d73027", "a50026",
		},
	},
	"viridis": {
		Name: "viridis",
		Colors: []string{
			"440154", "481567", "482677", "453781", "404788", "39568c",
			"33638d", "2d708e", "287d8e", "238a8d", "1f968b", "20a387",
			"29af7f", "3cbb75", "55c667", "73d055", "95d840", "b8de29",
			"dce319", "fde725",
		},
	},
	"gray": {
		Name:   "gray",
		Colors: makeGrayRamp(256),
	},
}

func makeGrayRamp(n int) []string {
	colors := make([]string, n)
	for i := 0; i < n; i++ {
		v := uint8(i * 255 / (n - 1))
		colors[i] = RGBToHex(v, v, v)
	}
	return colors
}

// Get looks up a predefined colormap by name.
func Get(name string) (Colormap, error) {
	c, ok := colormaps[strings.ToLower(name)]
	if !ok {
		return Colormap{}, fmt.Errorf("unknown colormap %q, available: %s", name, strings.Join(Names(), ", "))
	}
	return c, nil
}

// Names returns the predefined colormap names in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(colormaps))
	for name := range colormaps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HexToRGB parses a 6-digit HEX color, with or without a leading '#'.
func HexToRGB(hex string) (uint8, uint8, uint8, error) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid HEX color %q", hex)
	}

	var r, g, b uint8
	if _, err := fmt.Sscanf(strings.ToLower(hex), "%02x%02x%02x", &r, &g, &b); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid HEX color %q: %v", hex, err)
	}
	return r, g, b, nil
}

func RGBToHex(r, g, b uint8) string {
	return fmt.Sprintf("%02x%02x%02x", r, g, b)
}
