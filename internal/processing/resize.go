package processing

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/prodpix/prodpix/internal/domain"
)

// Resize scales img according to the requested fit mode:
//
//	cover    crop to fill the target box exactly
//	contain  fit inside the box, pad the rest with the background color
//	fill     scale to the exact box, ignoring aspect ratio
//	stretch  force the exact dimensions, ignoring aspect ratio
//
// Every mode produces exactly Width x Height. The zero fit mode behaves
// as contain; MaintainAspectRatio false forces a plain stretch whatever
// the fit mode says.
func Resize(img image.Image, params *domain.ResizeParams) (image.Image, error) {
	if params == nil || params.Width <= 0 || params.Height <= 0 {
		return nil, fmt.Errorf("%w: resize dimensions must be positive", domain.ErrInvalidOperation)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil, fmt.Errorf("source image is empty")
	}

	w, h := params.Width, params.Height

	if !params.KeepAspect() {
		return imaging.Resize(img, w, h, imaging.Lanczos), nil
	}

	switch params.Fit {
	case domain.FitCover:
		return imaging.Fill(img, w, h, imaging.Center, imaging.Lanczos), nil
	case domain.FitStretch, domain.FitFill:
		return imaging.Resize(img, w, h, imaging.Lanczos), nil
	case domain.FitContain, "":
		bg, err := ParseHexColor(params.Background)
		if err != nil {
			return nil, err
		}
		fitted := containFit(img, w, h)
		canvas := imaging.New(w, h, bg)
		return imaging.PasteCenter(canvas, fitted), nil
	default:
		return nil, fmt.Errorf("%w: unknown fit mode %q", domain.ErrInvalidOperation, params.Fit)
	}
}

// containFit scales the image to touch the target box from inside,
// upscaling small sources instead of leaving them as-is.
func containFit(img image.Image, w, h int) image.Image {
	sw, sh := img.Bounds().Dx(), img.Bounds().Dy()
	if sw*h > sh*w {
		return imaging.Resize(img, w, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, h, imaging.Lanczos)
}

// ParseHexColor parses "#RRGGBB" (or "RRGGBB"). Empty input means white.
func ParseHexColor(s string) (color.NRGBA, error) {
	if s == "" {
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}, nil
	}
	if s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("%w: invalid background color %q", domain.ErrInvalidOperation, s)
	}

	var rgb [3]uint8
	for i := 0; i < 3; i++ {
		hi, ok1 := hexVal(s[i*2])
		lo, ok2 := hexVal(s[i*2+1])
		if !ok1 || !ok2 {
			return color.NRGBA{}, fmt.Errorf("%w: invalid background color %q", domain.ErrInvalidOperation, s)
		}
		rgb[i] = hi<<4 | lo
	}
	return color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, nil
}

func hexVal(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
