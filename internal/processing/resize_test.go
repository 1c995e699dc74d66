package processing

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prodpix/prodpix/internal/domain"
)

func testImage(w, h int, c color.Color) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestResize_FitModes(t *testing.T) {
	src := testImage(400, 200, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	tests := []struct {
		name   string
		params *domain.ResizeParams
		wantW  int
		wantH  int
	}{
		{
			name:   "cover crops to exact box",
			params: &domain.ResizeParams{Width: 100, Height: 100, Fit: domain.FitCover},
			wantW:  100,
			wantH:  100,
		},
		{
			name:   "contain pads to exact box",
			params: &domain.ResizeParams{Width: 100, Height: 100, Fit: domain.FitContain},
			wantW:  100,
			wantH:  100,
		},
		{
			name:   "fill stretches to the exact box",
			params: &domain.ResizeParams{Width: 100, Height: 100, Fit: domain.FitFill},
			wantW:  100,
			wantH:  100,
		},
		{
			name:   "stretch ignores aspect ratio",
			params: &domain.ResizeParams{Width: 77, Height: 133, Fit: domain.FitStretch},
			wantW:  77,
			wantH:  133,
		},
		{
			name:   "empty fit defaults to contain",
			params: &domain.ResizeParams{Width: 100, Height: 100},
			wantW:  100,
			wantH:  100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Resize(src, tt.params)
			require.NoError(t, err)
			require.Equal(t, tt.wantW, out.Bounds().Dx())
			require.Equal(t, tt.wantH, out.Bounds().Dy())
		})
	}
}

// Every fit mode conforms to the requested box even when the source is
// smaller than the target, so upscaling has to happen.
func TestResize_UpscalesSmallSources(t *testing.T) {
	src := testImage(100, 50, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	for _, fit := range []domain.FitMode{domain.FitCover, domain.FitContain, domain.FitFill, domain.FitStretch} {
		t.Run(string(fit), func(t *testing.T) {
			out, err := Resize(src, &domain.ResizeParams{Width: 200, Height: 200, Fit: fit})
			require.NoError(t, err)
			require.Equal(t, 200, out.Bounds().Dx())
			require.Equal(t, 200, out.Bounds().Dy())
		})
	}
}

func TestResize_MaintainAspectRatioFalseStretches(t *testing.T) {
	src := testImage(400, 200, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	keep := false

	out, err := Resize(src, &domain.ResizeParams{
		Width:               100,
		Height:              100,
		Fit:                 domain.FitContain,
		MaintainAspectRatio: &keep,
	})
	require.NoError(t, err)
	require.Equal(t, 100, out.Bounds().Dx())
	require.Equal(t, 100, out.Bounds().Dy())

	// A stretched image has no padding: the corner carries source color,
	// not the contain background.
	r, g, b, _ := out.At(1, 1).RGBA()
	require.NotEqual(t, uint32(0xffff), r)
	require.NotZero(t, g)
	require.NotZero(t, b)
}

func TestResize_ContainBackground(t *testing.T) {
	src := testImage(200, 100, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	out, err := Resize(src, &domain.ResizeParams{
		Width:      100,
		Height:     100,
		Fit:        domain.FitContain,
		Background: "#ff0000",
	})
	require.NoError(t, err)

	// The fitted 100x50 image sits centered, so the top rows are padding.
	r, g, b, _ := out.At(50, 2).RGBA()
	require.Equal(t, uint32(0xffff), r)
	require.Equal(t, uint32(0), g)
	require.Equal(t, uint32(0), b)
}

func TestResize_InvalidParams(t *testing.T) {
	src := testImage(10, 10, color.White)

	tests := []struct {
		name   string
		params *domain.ResizeParams
	}{
		{name: "nil params", params: nil},
		{name: "zero width", params: &domain.ResizeParams{Width: 0, Height: 10}},
		{name: "negative height", params: &domain.ResizeParams{Width: 10, Height: -1}},
		{name: "unknown fit", params: &domain.ResizeParams{Width: 10, Height: 10, Fit: "tile"}},
		{name: "bad background", params: &domain.ResizeParams{Width: 10, Height: 10, Background: "red"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resize(src, tt.params)
			require.Error(t, err)
		})
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{name: "empty means white", in: "", want: color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
		{name: "with hash", in: "#1a2B3c", want: color.NRGBA{R: 0x1a, G: 0x2b, B: 0x3c, A: 255}},
		{name: "without hash", in: "ffffff", want: color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
		{name: "too short", in: "#fff", wantErr: true},
		{name: "not hex", in: "#zzzzzz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHexColor(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				require.ErrorIs(t, err, domain.ErrInvalidOperation)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
