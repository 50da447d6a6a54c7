package animation

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/airbusgeo/godal"
	"github.com/fogleman/gg"
	"github.com/gammazero/workerpool"
	"github.com/schollz/progressbar/v3"
	"github.com/verdant-research/canopy-cli/internal/colormap"
)

const legendHeight = 14

// RenderOptions controls how raw raster values become colors.
type RenderOptions struct {
	Colormap string
	Min      float64
	Max      float64
	Workers  int
}

type rgb struct {
	r, g, b uint8
}

// RenderFrames converts single-band GeoTIFF frames to colormapped PNGs.
// Rendering is local post-processing, so frames are fanned out over a
// bounded worker pool. Frames that fail to render are reported and skipped;
// the returned paths are sorted ascending (chronological, given the frame
// naming scheme).
func RenderFrames(tiffPaths []string, outputDir string, opts RenderOptions) ([]string, error) {
	if len(tiffPaths) == 0 {
		return nil, fmt.Errorf("no frames to render")
	}
	if opts.Max <= opts.Min {
		return nil, fmt.Errorf("invalid value range [%f, %f]", opts.Min, opts.Max)
	}

	cmap, err := colormap.Get(opts.Colormap)
	if err != nil {
		return nil, err
	}
	palette, err := parsePalette(cmap.Colors)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create render folder %s: %v", outputDir, err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}

	progressBar := progressbar.Default(int64(len(tiffPaths)), "Rendering frames")
	pool := workerpool.New(workers)

	var mu sync.Mutex
	var rendered []string

	for _, tiffPath := range tiffPaths {
		tiffPath := tiffPath
		pool.Submit(func() {
			defer progressBar.Add(1)

			pngPath := filepath.Join(outputDir, pngName(tiffPath))
			if err := renderFrame(tiffPath, pngPath, palette, opts.Min, opts.Max); err != nil {
				fmt.Printf("Skipping %s: %v\n", filepath.Base(tiffPath), err)
				return
			}

			mu.Lock()
			rendered = append(rendered, pngPath)
			mu.Unlock()
		})
	}

	pool.StopWait()
	progressBar.Finish()

	if len(rendered) == 0 {
		return nil, fmt.Errorf("no frames could be rendered")
	}

	sort.Strings(rendered)
	return rendered, nil
}

func pngName(tiffPath string) string {
	base := filepath.Base(tiffPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".png"
}

func parsePalette(colors []string) ([]rgb, error) {
	palette := make([]rgb, len(colors))
	for i, hex := range colors {
		r, g, b, err := colormap.HexToRGB(hex)
		if err != nil {
			return nil, err
		}
		palette[i] = rgb{r, g, b}
	}
	return palette, nil
}

func renderFrame(tiffPath, pngPath string, palette []rgb, min, max float64) error {
	dataset, err := godal.Open(tiffPath)
	if err != nil {
		return fmt.Errorf("failed to open raster: %v", err)
	}
	defer dataset.Close()

	bands := dataset.Bands()
	if len(bands) == 0 {
		return fmt.Errorf("raster has no bands")
	}
	band := bands[0]

	width := dataset.Structure().SizeX
	height := dataset.Structure().SizeY
	data := make([]float64, width*height)
	if err := band.Read(0, 0, data, width, height); err != nil {
		return fmt.Errorf("failed to read raster data: %v", err)
	}

	dc := gg.NewContext(width, height+legendHeight)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			value := data[y*width+x]
			if math.IsNaN(value) {
				dc.SetRGB255(0, 0, 0)
			} else {
				c := palette[paletteIndex(value, min, max, len(palette))]
				dc.SetRGB255(int(c.r), int(c.g), int(c.b))
			}
			dc.SetPixel(x, y)
		}
	}

	drawLegend(dc, palette, width, height)

	if err := dc.SavePNG(pngPath); err != nil {
		return fmt.Errorf("failed to save frame: %v", err)
	}
	return nil
}

// paletteIndex maps a value in [min, max] to a palette slot, clamping
// out-of-range values to the ends.
func paletteIndex(value, min, max float64, n int) int {
	idx := int((value - min) / (max - min) * float64(n-1))
	if idx < 0 {
		return 0
	}
	if idx > n-1 {
		return n - 1
	}
	return idx
}

func drawLegend(dc *gg.Context, palette []rgb, width, height int) {
	for x := 0; x < width; x++ {
		c := palette[x*(len(palette)-1)/maxInt(width-1, 1)]
		dc.SetRGB255(int(c.r), int(c.g), int(c.b))
		for y := height; y < height+legendHeight; y++ {
			dc.SetPixel(x, y)
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
