// Package foto valida les fotos de persona i en genera miniatures.
package foto

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxSide és la mida màxima (en píxels) acceptada per a qualsevol costat.
const MaxSide = 6000

var ErrTooLarge = errors.New("la imatge és massa gran")

var allowedFormats = map[string]bool{
	"png":  true,
	"jpeg": true,
	"gif":  true,
	"bmp":  true,
	"tiff": true,
	"webp": true,
}

type Info struct {
	Format string
	Width  int
	Height int
}

// Validate llegeix només la capçalera de la imatge.
func Validate(r io.Reader) (Info, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return Info{}, fmt.Errorf("format d'imatge no reconegut: %w", err)
	}
	if !allowedFormats[format] {
		return Info{}, fmt.Errorf("format d'imatge no permès: %s", format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, fmt.Errorf("mides d'imatge invàlides")
	}
	if cfg.Width > MaxSide || cfg.Height > MaxSide {
		return Info{}, ErrTooLarge
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// Thumbnail escala la imatge perquè el costat més llarg sigui maxSide
// (mai l'amplia) i la retorna codificada en PNG.
func Thumbnail(r io.Reader, maxSide int) ([]byte, error) {
	if maxSide <= 0 {
		return nil, fmt.Errorf("mida de miniatura invàlida: %d", maxSide)
	}
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("no s'ha pogut descodificar la imatge: %w", err)
	}
	if !allowedFormats[format] {
		return nil, fmt.Errorf("format d'imatge no permès: %s", format)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > MaxSide || h > MaxSide {
		return nil, ErrTooLarge
	}
	tw, th := w, h
	if w >= h && w > maxSide {
		tw, th = maxSide, max(1, h*maxSide/w)
	} else if h > w && h > maxSide {
		tw, th = max(1, w*maxSide/h), maxSide
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("error codificant miniatura: %w", err)
	}
	return buf.Bytes(), nil
}
