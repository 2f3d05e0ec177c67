package barcode

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizbook/internal/core/apperror"
)

func TestRender(t *testing.T) {
	data, err := Render("PRD-000123", Options{})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, img.Bounds().Dx())
	assert.Equal(t, DefaultHeight, img.Bounds().Dy())

	r, g, b, _ := img.At(0, 0).RGBA()
	wr, wg, wb, _ := color.White.RGBA()
	assert.Equal(t, []uint32{wr, wg, wb}, []uint32{r, g, b}, "quiet zone is white")
}

func TestRender_WidensToFitSymbol(t *testing.T) {
	data, err := Render("A-VERY-LONG-SALES-ORDER-NUMBER-000000001", Options{Width: 40, Height: 40})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 40)
	assert.Equal(t, 40, img.Bounds().Dy())
}

func TestRender_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		opts    Options
	}{
		{"empty", "", Options{}},
		{"non ascii", "товар", Options{}},
		{"too wide", "X1", Options{Width: MaxWidth + 1}},
		{"negative", "X1", Options{Height: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render(tt.content, tt.opts)
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "got %v", err)
		})
	}
}
