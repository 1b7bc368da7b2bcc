// Package collage joins newspaper covers into one side-by-side image.
// Pure Go (no CGo), same pipeline as decode/scale/re-encode image
// proxies: image.Decode, x/image CatmullRom scaling, jpeg output.
package collage

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"

	"golang.org/x/image/draw"
)

const (
	// output width of the composed strip
	DefaultWidth = 1536

	jpegQuality = 90
)

// Compose scales every source image to one common height, keeping
// aspect ratios, and draws them left to right into a strip of the
// given width. Same inputs produce identical bytes.
func Compose(images [][]byte, width int) ([]byte, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("collage: no source images")
	}
	if width <= 0 {
		width = DefaultWidth
	}

	decoded := make([]image.Image, len(images))
	aspectSum := 0.0
	for i, raw := range images {
		img, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("collage: decode source image %d: %w", i, err)
		}
		bounds := img.Bounds()
		if bounds.Dx() == 0 || bounds.Dy() == 0 {
			return nil, fmt.Errorf("collage: source image %d is empty", i)
		}
		decoded[i] = img
		aspectSum += float64(bounds.Dx()) / float64(bounds.Dy())
	}

	// common height that makes the scaled widths fill the strip exactly
	height := int(math.Round(float64(width) / aspectSum))
	if height <= 0 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	x := 0
	for i, img := range decoded {
		bounds := img.Bounds()
		aspect := float64(bounds.Dx()) / float64(bounds.Dy())

		right := x + int(math.Round(float64(height)*aspect))
		// rounding drift lands on the last column
		if i == len(decoded)-1 || right > width {
			right = width
		}

		cell := image.Rect(x, 0, right, height)
		draw.CatmullRom.Scale(dst, cell, img, bounds, draw.Src, nil)
		x = right
	}

	var buf bytes.Buffer
	err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	if err != nil {
		return nil, fmt.Errorf("collage: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
