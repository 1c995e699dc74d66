package processing

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"

	"github.com/prodpix/prodpix/internal/domain"
)

// DefaultRegionPadding widens each detected box before masking so
// anti-aliased glyph edges fall inside the inpainted area.
const DefaultRegionPadding = 5

// BuildMask rasterizes detected text regions into a grayscale inpainting
// mask. Regions are expanded by padding, filled solid, then the edges are
// feathered with a gaussian blur of roughly featherPx radius so the
// inpainted patch blends into its surroundings.
func BuildMask(bounds image.Rectangle, regions []domain.Region, padding, featherPx int) *image.Gray {
	if padding < 0 {
		padding = DefaultRegionPadding
	}
	if featherPx < domain.MinMaskFeatherPx || featherPx > domain.MaxMaskFeatherPx {
		featherPx = domain.DefaultMaskFeatherPx
	}

	mask := image.NewGray(bounds)
	for _, r := range regions {
		rect := image.Rect(r.X-padding, r.Y-padding, r.X+r.Width+padding, r.Y+r.Height+padding)
		rect = rect.Intersect(bounds)
		if rect.Empty() {
			continue
		}
		draw.Draw(mask, rect, image.NewUniform(color.Gray{Y: 255}), image.Point{}, draw.Src)
	}

	if len(regions) == 0 {
		return mask
	}

	blurred := imaging.Blur(mask, float64(featherPx)/2)
	return toGray(blurred)
}

func toGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	return gray
}
