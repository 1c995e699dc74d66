package processing

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

// Composite lays the subject over a generated background using a grayscale
// mask: 255 keeps the subject pixel, 0 keeps the background, intermediate
// values blend linearly. The background is cropped to cover the subject's
// bounds; the mask is scaled to them if needed.
func Composite(subject image.Image, mask *image.Gray, background image.Image) *image.NRGBA {
	bounds := subject.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	bg := imaging.Fill(background, w, h, imaging.Center, imaging.Lanczos)
	fg := imaging.Clone(subject)

	m := mask
	if m.Bounds().Dx() != w || m.Bounds().Dy() != h {
		scaled := image.NewGray(image.Rect(0, 0, w, h))
		xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), mask, mask.Bounds(), xdraw.Src, nil)
		m = scaled
	}

	out := imaging.New(w, h, color.Transparent)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			alpha := uint32(m.GrayAt(m.Bounds().Min.X+x, m.Bounds().Min.Y+y).Y)

			fi := fg.PixOffset(x, y)
			bi := bg.PixOffset(x, y)
			oi := out.PixOffset(x, y)

			for c := 0; c < 4; c++ {
				fv := uint32(fg.Pix[fi+c])
				bv := uint32(bg.Pix[bi+c])
				out.Pix[oi+c] = uint8((fv*alpha + bv*(255-alpha)) / 255)
			}
		}
	}

	return out
}

// Decode reads an encoded image, honoring EXIF orientation.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil, fmt.Errorf("decoded image is empty")
	}
	return img, nil
}

// EncodeJPEG renders img as JPEG at the given quality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = 95
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("empty buffer after encoding")
	}
	return buf.Bytes(), nil
}

// EncodePNG renders img as PNG, used for masks and transparent outputs.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
