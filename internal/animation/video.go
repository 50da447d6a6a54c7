package animation

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/icza/mjpeg"
)

// CreateVideo assembles already-rendered frames into an AVI, in the given
// order. Callers pass frame paths sorted ascending so the animation runs
// chronologically.
func CreateVideo(imagePaths []string, outputPath string, framesPerSecond int32) error {
	if len(imagePaths) == 0 {
		return fmt.Errorf("no frames to animate")
	}
	if framesPerSecond <= 0 {
		framesPerSecond = 2
	}
	if !strings.HasSuffix(outputPath, ".avi") {
		outputPath += ".avi"
	}

	width, height, err := frameDimensions(imagePaths[0])
	if err != nil {
		return err
	}

	writer, err := mjpeg.New(outputPath, width, height, framesPerSecond)
	if err != nil {
		return fmt.Errorf("failed to create video %s: %v", outputPath, err)
	}
	defer writer.Close()

	for _, path := range imagePaths {
		frame, err := encodeFrame(path)
		if err != nil {
			return fmt.Errorf("failed to encode frame %s: %v", path, err)
		}
		if err := writer.AddFrame(frame); err != nil {
			return fmt.Errorf("failed to add frame %s: %v", path, err)
		}
	}

	return nil
}

func frameDimensions(path string) (int32, int32, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open first frame: %v", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode first frame %s: %v", path, err)
	}

	bounds := img.Bounds()
	return int32(bounds.Dx()), int32(bounds.Dy()), nil
}

func encodeFrame(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
