package foto

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestValidate_PNG(t *testing.T) {
	info, err := Validate(bytes.NewReader(pngImage(t, 40, 20)))
	require.NoError(t, err)
	assert.Equal(t, Info{Format: "png", Width: 40, Height: 20}, info)
}

func TestValidate_BMP(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 6))))
	info, err := Validate(&buf)
	require.NoError(t, err)
	assert.Equal(t, "bmp", info.Format)
	assert.Equal(t, 8, info.Width)
}

func TestValidate_NoImatge(t *testing.T) {
	_, err := Validate(bytes.NewReader([]byte("no sóc una imatge")))
	assert.Error(t, err)
}

func TestValidate_MassaGran(t *testing.T) {
	_, err := Validate(bytes.NewReader(pngImage(t, MaxSide+1, 1)))
	assert.True(t, errors.Is(err, ErrTooLarge))
}

func TestThumbnail_Redueix(t *testing.T) {
	out, err := Thumbnail(bytes.NewReader(pngImage(t, 400, 200)), 100)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestThumbnail_NoAmplia(t *testing.T) {
	out, err := Thumbnail(bytes.NewReader(pngImage(t, 30, 60)), 100)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 30, img.Bounds().Dx())
	assert.Equal(t, 60, img.Bounds().Dy())
}

func TestThumbnail_MidaInvalida(t *testing.T) {
	_, err := Thumbnail(bytes.NewReader(pngImage(t, 10, 10)), 0)
	assert.Error(t, err)
}
