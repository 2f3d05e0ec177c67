// Package barcode renders Code128 symbols as PNG images.
package barcode

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/disintegration/imaging"

	"bizbook/internal/core/apperror"
)

const (
	DefaultWidth  = 300
	DefaultHeight = 100
	MaxWidth      = 2000
	MaxHeight     = 1000

	// quietZone is the blank margin on every side, in pixels.
	quietZone = 10
)

// ContentType of the rendered image.
const ContentType = "image/png"

// Options controls the symbol size. Zero values use the defaults.
type Options struct {
	Width  int
	Height int
}

func (o Options) normalize() (Options, error) {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Width < 0 || o.Width > MaxWidth || o.Height < 0 || o.Height > MaxHeight {
		return o, apperror.NewValidation("barcode size out of range").
			WithDetail("maxWidth", MaxWidth).
			WithDetail("maxHeight", MaxHeight)
	}
	return o, nil
}

// Render encodes content as Code128 and returns a PNG with a white quiet zone.
func Render(content string, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, content, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders the symbol into w.
func Write(w io.Writer, content string, opts Options) error {
	if content == "" {
		return apperror.NewValidation("barcode content is empty")
	}
	opts, err := opts.normalize()
	if err != nil {
		return err
	}

	symbol, err := code128.Encode(content)
	if err != nil {
		return apperror.NewValidation("content cannot be encoded as Code128").
			WithDetail("content", content).
			WithCause(err)
	}

	innerW, innerH := opts.Width-2*quietZone, opts.Height-2*quietZone
	if innerW < symbol.Bounds().Dx() {
		innerW = symbol.Bounds().Dx()
	}
	if innerH < 1 {
		innerH = 1
	}

	scaled, err := barcode.Scale(symbol, innerW, innerH)
	if err != nil {
		return fmt.Errorf("scale barcode: %w", err)
	}

	canvas := imaging.New(innerW+2*quietZone, innerH+2*quietZone, color.White)
	canvas = imaging.Paste(canvas, scaled, image.Pt(quietZone, quietZone))

	if err := imaging.Encode(w, canvas, imaging.PNG); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
