package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/airbusgeo/godal"
	"github.com/common-nighthawk/go-figure"
	bannercolor "github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/verdant-research/canopy-cli/internal/animation"
	"github.com/verdant-research/canopy-cli/internal/colormap"
	"github.com/verdant-research/canopy-cli/internal/daterange"
	"github.com/verdant-research/canopy-cli/internal/earthengine"
	"github.com/verdant-research/canopy-cli/internal/frames"
	"github.com/verdant-research/canopy-cli/internal/notification"
	"github.com/verdant-research/canopy-cli/internal/properties"
	"github.com/verdant-research/canopy-cli/internal/region"
	"github.com/verdant-research/canopy-cli/internal/timeseries"
)

func printBanner() {
	figure1 := figure.NewFigure("Canopy", "isometric1", true)
	figure2 := figure.NewFigure("CLI", "isometric1", true)
	bannercolor.Green(figure1.String())
	bannercolor.Green(figure2.String())
	fmt.Println()
}

func readLine(reader *bufio.Reader, prompt string) string {
	fmt.Printf("\033[34m%s\033[0m", prompt)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func readFloat(reader *bufio.Reader, prompt string) (float64, error) {
	value, err := strconv.ParseFloat(readLine(reader, prompt), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %v", err)
	}
	return value, nil
}

func readDate(reader *bufio.Reader, prompt string) (time.Time, error) {
	return daterange.Parse(readLine(reader, prompt))
}

func readRegion(reader *bufio.Reader) (region.Region, error) {
	fmt.Println("\033[34mRegion type: 1. point  2. rectangle  3. GeoJSON boundary\033[0m")
	switch readLine(reader, "Enter your choice: ") {
	case "1":
		lon, err := readFloat(reader, "Longitude: ")
		if err != nil {
			return region.Region{}, err
		}
		lat, err := readFloat(reader, "Latitude: ")
		if err != nil {
			return region.Region{}, err
		}
		return region.NewPoint(lon, lat), nil
	case "2":
		minLon, err := readFloat(reader, "Min longitude: ")
		if err != nil {
			return region.Region{}, err
		}
		minLat, err := readFloat(reader, "Min latitude: ")
		if err != nil {
			return region.Region{}, err
		}
		maxLon, err := readFloat(reader, "Max longitude: ")
		if err != nil {
			return region.Region{}, err
		}
		maxLat, err := readFloat(reader, "Max latitude: ")
		if err != nil {
			return region.Region{}, err
		}
		return region.NewRect(minLon, minLat, maxLon, maxLat)
	case "3":
		path := readLine(reader, "GeoJSON file path: ")
		name := readLine(reader, "Feature name (empty for first): ")
		return region.FromGeoJSONFile(path, name)
	default:
		return region.Region{}, fmt.Errorf("invalid region choice")
	}
}

func describeDatasets(ctx context.Context, client *earthengine.Client) {
	infos, err := client.DescribeDatasets(ctx,
		earthengine.CollectionNDVI,
		earthengine.CollectionSoilMoisture,
		earthengine.CollectionLandSurfaceTemp,
	)
	if err != nil {
		fmt.Printf("\n\033[31mError describing datasets: %s\033[0m\n", err.Error())
		return
	}

	fmt.Println("\n\033[32mAvailable datasets:\033[0m")
	for _, info := range infos {
		fmt.Printf("\033[32m- %s (%s), every %d days\033[0m\n", info.ID, info.Title, info.IntervalDays)
		for _, band := range info.Bands {
			fmt.Printf("\033[32m    band %s [%s], scale %g offset %g\033[0m\n", band.Name, band.Units, band.Scale, band.Offset)
		}
	}
}

func queryPoint(ctx context.Context, client *earthengine.Client, reader *bufio.Reader) {
	collection := readLine(reader, "Collection ID (empty for MODIS NDVI): ")
	band := readLine(reader, "Band (empty for NDVI): ")
	if collection == "" {
		collection = earthengine.CollectionNDVI
	}
	if band == "" {
		band = "NDVI"
	}

	lon, err := readFloat(reader, "Longitude: ")
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}
	lat, err := readFloat(reader, "Latitude: ")
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}
	start, err := readDate(reader, "Start date (YYYY-MM-DD): ")
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}
	end, err := readDate(reader, "End date, exclusive (YYYY-MM-DD): ")
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}

	series, err := timeseries.FetchPoint(ctx, client, collection, band, region.NewPoint(lon, lat), start, end)
	if err != nil {
		fmt.Printf("\n\033[31mError querying point: %s\033[0m\n", err.Error())
		return
	}
	if len(series.Samples) == 0 {
		fmt.Printf("\n\033[33mNo observations in [%s, %s)\033[0m\n", start.Format(daterange.ISOFormat), end.Format(daterange.ISOFormat))
		return
	}

	fmt.Printf("\n\033[32m%s %s at (%.4f, %.4f):\033[0m\n", collection, band, lat, lon)
	for _, sample := range series.Samples {
		fmt.Printf("\033[32m  %s  %.4f %s\033[0m\n", sample.Date.Format(daterange.ISOFormat), sample.Value, series.Units)
	}
	if mean, err := series.Mean(); err == nil {
		fmt.Printf("\033[32m  mean: %.4f %s\033[0m\n", mean, series.Units)
	}
}

func exportTimeSeries(ctx context.Context, client *earthengine.Client, reader *bufio.Reader) {
	collection := readLine(reader, "Collection ID (empty for MODIS NDVI): ")
	band := readLine(reader, "Band (empty for NDVI): ")
	if collection == "" {
		collection = earthengine.CollectionNDVI
	}
	if band == "" {
		band = "NDVI"
	}

	lon, err := readFloat(reader, "Longitude: ")
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}
	lat, err := readFloat(reader, "Latitude: ")
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}
	start, err := readDate(reader, "Start date (YYYY-MM-DD): ")
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}
	end, err := readDate(reader, "End date, exclusive (YYYY-MM-DD): ")
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}

	series, err := timeseries.FetchPoint(ctx, client, collection, band, region.NewPoint(lon, lat), start, end)
	if err != nil {
		fmt.Printf("\n\033[31mError fetching time series: %s\033[0m\n", err.Error())
		return
	}

	exportDir := filepath.Join(properties.DataPath(), "exports")
	if err := os.MkdirAll(exportDir, 0755); err != nil {
		fmt.Printf("\n\033[31mError creating exports folder: %s\033[0m\n", err.Error())
		return
	}

	outputPath := filepath.Join(exportDir, fmt.Sprintf("%s_%s_%s.csv",
		strings.ReplaceAll(band, "/", "-"), start.Format(daterange.ISOFormat), end.Format(daterange.ISOFormat)))
	if err := series.ExportCSV(outputPath); err != nil {
		fmt.Printf("\n\033[31mError exporting CSV: %s\033[0m\n", err.Error())
		return
	}

	fmt.Printf("\n\033[32mExported %d samples to %s\033[0m\n", len(series.Samples), outputPath)
}

func downloadFrames(ctx context.Context, client *earthengine.Client, reader *bufio.Reader, collection, band, folder, prefix string, resolutionMeters float64) {
	r, err := readRegion(reader)
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}
	start, err := readDate(reader, "Start date (YYYY-MM-DD): ")
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}
	end, err := readDate(reader, "End date, exclusive (YYYY-MM-DD): ")
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}
	step, err := strconv.Atoi(readLine(reader, "Step in days (0 to use the collection's acquisition dates): "))
	if err != nil {
		fmt.Printf("\n\033[31mInvalid step: %s\033[0m\n", err.Error())
		return
	}

	var dates []time.Time
	if step == 0 {
		dateStrings, err := client.ListImageDates(ctx, collection, r, start, end)
		if err != nil {
			fmt.Printf("\n\033[31mError listing acquisition dates: %s\033[0m\n", err.Error())
			return
		}
		for _, dateString := range dateStrings {
			date, err := daterange.Parse(dateString)
			if err != nil {
				continue
			}
			dates = append(dates, date)
		}
	} else {
		dates, err = daterange.Sequence(start, end, step)
		if err != nil {
			fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
			return
		}
	}

	outputDir := filepath.Join(properties.DataPath(), folder)
	summary, err := frames.Download(ctx, client, frames.Request{
		Collection:       collection,
		Band:             band,
		Region:           r,
		Dates:            dates,
		ResolutionMeters: resolutionMeters,
		OutputDir:        outputDir,
		Prefix:           prefix,
	})
	if err != nil {
		fmt.Printf("\n\033[31mError downloading frames: %s\033[0m\n", err.Error())
		notification.SendDiscordErrorNotification(fmt.Sprintf("Frame download failed: %s", err.Error()))
		return
	}

	downloaded := summary.Downloaded()
	failed := summary.Failed()
	fmt.Printf("\n\033[32mDownloaded %d of %d frames into %s\033[0m\n", len(downloaded), len(summary.Results), outputDir)
	for _, failure := range failed {
		fmt.Printf("\033[33m  skipped %s: %s\033[0m\n", failure.Date.Format(daterange.ISOFormat), failure.Err.Error())
	}
	notification.SendDiscordSuccessNotification(fmt.Sprintf("Downloaded %d of %d %s frames into %s",
		len(downloaded), len(summary.Results), prefix, outputDir))
}

func animateFrames(reader *bufio.Reader) {
	dir := readLine(reader, "Frames folder: ")
	cmapName := readLine(reader, "Colormap (empty for ndvi): ")
	if cmapName == "" {
		cmapName = "ndvi"
	}
	min, err := readFloat(reader, "Minimum value: ")
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}
	max, err := readFloat(reader, "Maximum value: ")
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}

	tiffs, err := frames.ListFrames(dir, ".tif")
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}
	if len(tiffs) == 0 {
		fmt.Printf("\n\033[31mNo frames found in %s\033[0m\n", dir)
		return
	}

	renderDir := filepath.Join(dir, "rendered")
	pngs, err := animation.RenderFrames(tiffs, renderDir, animation.RenderOptions{
		Colormap: cmapName,
		Min:      min,
		Max:      max,
	})
	if err != nil {
		fmt.Printf("\n\033[31mError rendering frames: %s\033[0m\n", err.Error())
		return
	}

	outputPath := filepath.Join(dir, "animation.avi")
	if err := animation.CreateVideo(pngs, outputPath, 2); err != nil {
		fmt.Printf("\n\033[31mError creating animation: %s\033[0m\n", err.Error())
		return
	}

	fmt.Printf("\n\033[32mAnimation with %d frames created at %s\033[0m\n", len(pngs), outputPath)
}

func remoteAnimation(ctx context.Context, client *earthengine.Client, reader *bufio.Reader) {
	collection := readLine(reader, "Collection ID (empty for MODIS NDVI): ")
	band := readLine(reader, "Band (empty for NDVI): ")
	if collection == "" {
		collection = earthengine.CollectionNDVI
	}
	if band == "" {
		band = "NDVI"
	}

	r, err := readRegion(reader)
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}
	start, err := readDate(reader, "Start date (YYYY-MM-DD): ")
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}
	end, err := readDate(reader, "End date, exclusive (YYYY-MM-DD): ")
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}
	cmapName := readLine(reader, "Colormap (empty for ndvi): ")
	if cmapName == "" {
		cmapName = "ndvi"
	}
	min, err := readFloat(reader, "Minimum value: ")
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}
	max, err := readFloat(reader, "Maximum value: ")
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}

	cmap, err := colormap.Get(cmapName)
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}
	palette, err := cmap.Resample(cmap.Resolution())
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}

	url, err := client.VideoThumbnailURL(ctx, earthengine.VideoRequest{
		Collection: collection,
		Band:       band,
		Region:     r,
		Start:      start,
		End:        end,
		Palette:    palette,
		Min:        min,
		Max:        max,
	})
	if err != nil {
		fmt.Printf("\n\033[31mError requesting animation: %s\033[0m\n", err.Error())
		return
	}

	data, err := client.Download(ctx, url)
	if err != nil {
		fmt.Printf("\n\033[31mError downloading animation: %s\033[0m\n", err.Error())
		return
	}

	exportDir := filepath.Join(properties.DataPath(), "exports")
	if err := os.MkdirAll(exportDir, 0755); err != nil {
		fmt.Printf("\n\033[31mError creating exports folder: %s\033[0m\n", err.Error())
		return
	}
	outputPath := filepath.Join(exportDir, fmt.Sprintf("%s_%s_%s.gif",
		strings.ReplaceAll(band, "/", "-"), start.Format(daterange.ISOFormat), end.Format(daterange.ISOFormat)))
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		fmt.Printf("\n\033[31mError saving animation: %s\033[0m\n", err.Error())
		return
	}

	fmt.Printf("\n\033[32mService-rendered animation saved at %s\033[0m\n", outputPath)
}

func listColormaps() {
	fmt.Println("\n\033[32mAvailable colormaps:\033[0m")
	for _, name := range colormap.Names() {
		cmap, err := colormap.Get(name)
		if err != nil {
			continue
		}
		preview, err := cmap.Resample(minInt(cmap.Resolution(), 7))
		if err != nil {
			continue
		}
		fmt.Printf("\033[32m- %s (%d colors): %s\033[0m\n", name, cmap.Resolution(), strings.Join(preview, " "))
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func initCLI(ctx context.Context, client *earthengine.Client) {
	defer func() {
		if r := recover(); r != nil {
			pc, file, line, ok := runtime.Caller(3)
			var location string
			if ok {
				fn := runtime.FuncForPC(pc)
				location = fmt.Sprintf("%s:%d in %s", file, line, fn.Name())
			} else {
				location = "Unknown location"
			}

			fmt.Printf("\n\033[31mPANIC: %v\033[0m\n", r)
			fmt.Printf("\033[31mLocation: %s\033[0m\n", location)
			fmt.Printf("\033[31mExiting...\033[0m\n")

			stack := debug.Stack()
			errMessage := fmt.Sprintf("Canopy CLI panic:\n\n%v\n\nLocation: %s\n\nStack trace:\n%s", r, location, stack)
			if err := notification.SendDiscordErrorNotification(errMessage); err != nil {
				fmt.Printf("\033[31mFailed to send notification: %s\033[0m\n", err.Error())
			}
		}
	}()
	printBanner()

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Println("\033[34m===================\033[0m")
		fmt.Println("\033[34m1. Describe datasets\033[0m")
		fmt.Println("\033[34m2. Query a point\033[0m")
		fmt.Println("\033[34m3. Export a point time series CSV\033[0m")
		fmt.Println("\033[34m4. Download NDVI frames\033[0m")
		fmt.Println("\033[34m5. Download soil moisture frames\033[0m")
		fmt.Println("\033[34m6. Render and animate a frames folder\033[0m")
		fmt.Println("\033[34m7. Request a service-rendered animation\033[0m")
		fmt.Println("\033[34m8. List colormaps\033[0m")
		fmt.Println("\033[34m9. Exit\033[0m")

		choice := readLine(reader, "Enter your choice: ")
		if choice != "6" && choice != "8" && choice != "9" && client == nil {
			fmt.Println("\033[31mRemote operations are unavailable, check your environment variables.\033[0m")
			continue
		}

		switch choice {
		case "1":
			describeDatasets(ctx, client)
		case "2":
			queryPoint(ctx, client, reader)
		case "3":
			exportTimeSeries(ctx, client, reader)
		case "4":
			downloadFrames(ctx, client, reader, earthengine.CollectionNDVI, "NDVI", "ndvi-frames", "ndvi", 250)
		case "5":
			downloadFrames(ctx, client, reader, earthengine.CollectionSoilMoisture, "sm_surface", "soil-moisture-frames", "sm", 11000)
		case "6":
			animateFrames(reader)
		case "7":
			remoteAnimation(ctx, client, reader)
		case "8":
			listColormaps()
		case "9":
			fmt.Println("Exiting...")
			return
		default:
			fmt.Println("Invalid choice. Please try again.")
		}
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			fmt.Println("\033[33mNo .env file found, using existing environment.\033[0m")
		}
	}

	godal.RegisterAll()

	ctx := context.Background()
	client, err := earthengine.NewClient(ctx)
	if err != nil {
		fmt.Printf("\033[33mWarning: %s\033[0m\n", err.Error())
		fmt.Println("\033[33mOnly local operations will work.\033[0m")
	}

	initCLI(ctx, client)
}
