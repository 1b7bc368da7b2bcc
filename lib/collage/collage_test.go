package collage

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func solidPng(t *testing.T, w, h int, c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestComposeGeometry(t *testing.T) {
	// three equal 2:3 covers, like the real front pages
	images := [][]byte{
		solidPng(t, 200, 300, color.RGBA{R: 255, A: 255}),
		solidPng(t, 200, 300, color.RGBA{G: 255, A: 255}),
		solidPng(t, 200, 300, color.RGBA{B: 255, A: 255}),
	}

	out, err := Compose(images, 1536)
	require.NoError(t, err)

	decoded, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)

	bounds := decoded.Bounds()
	require.Equal(t, 1536, bounds.Dx())
	// width / (3 * 2/3) = 768
	require.Equal(t, 768, bounds.Dy())
}

func TestComposeMixedSizes(t *testing.T) {
	images := [][]byte{
		solidPng(t, 100, 200, color.White),
		solidPng(t, 400, 400, color.Black),
		solidPng(t, 300, 600, color.White),
	}

	out, err := Compose(images, 1200)
	require.NoError(t, err)

	decoded, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	// aspect sum = 0.5 + 1 + 0.5 = 2, so height = 600
	require.Equal(t, 1200, decoded.Bounds().Dx())
	require.Equal(t, 600, decoded.Bounds().Dy())
}

func TestComposeDeterministic(t *testing.T) {
	images := [][]byte{
		solidPng(t, 210, 297, color.RGBA{R: 200, G: 30, B: 30, A: 255}),
		solidPng(t, 210, 297, color.RGBA{R: 30, G: 30, B: 200, A: 255}),
		solidPng(t, 210, 297, color.RGBA{R: 30, G: 200, B: 30, A: 255}),
	}

	first, err := Compose(images, DefaultWidth)
	require.NoError(t, err)
	second, err := Compose(images, DefaultWidth)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestComposeCorruptSource(t *testing.T) {
	images := [][]byte{
		solidPng(t, 200, 300, color.White),
		[]byte("definitely not an image"),
		solidPng(t, 200, 300, color.White),
	}

	_, err := Compose(images, DefaultWidth)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode source image 1")
}

func TestComposeNoSources(t *testing.T) {
	_, err := Compose(nil, DefaultWidth)
	require.Error(t, err)
}
