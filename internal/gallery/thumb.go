package gallery

import (
	"bytes"
	"image"
	"image/jpeg"
	"io"

	// Decoders for the formats camera devices actually send.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// thumbQuality is the JPEG quality for generated thumbnails.
const thumbQuality = 85

// makeThumb decodes an image and returns its JPEG thumbnail bounded to
// max×max, preserving aspect ratio. Images already inside the bounding box
// are re-encoded without scaling so every original gets a thumbnail.
func makeThumb(r io.Reader, max int) ([]byte, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, image.ErrFormat
	}

	nw, nh := w, h
	if w > max || h > max {
		if w > h {
			nw = max
			nh = h * max / w
		} else {
			nh = max
			nw = w * max / h
		}
		if nw < 1 {
			nw = 1
		}
		if nh < 1 {
			nh = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: thumbQuality}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
