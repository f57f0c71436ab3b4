package ioutils

import (
	"bytes"
	"context"
	"image"
	_ "image/gif" // GIF decoder registration
	"image/jpeg"
	_ "image/png" // PNG decoder registration

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decoder registration
)

// ImageService prepares poster images before they are sent to the model.
//
// ImageService is used to:
//   - Rotate phone photos upright using their EXIF orientation
//   - Shrink large scans so the upload stays small
//
// Example usage:
//
//	svc := NewImageService(2048, true)
//	data, mediaType, err := svc.Prepare(ctx, raw, "image/jpeg")
type ImageService struct {
	maxSize    int
	autoOrient bool
}

// NewImageService creates a new ImageService.
//
// maxSize bounds the longest edge in pixels; 0 keeps the original size.
// autoOrient applies the EXIF orientation tag of JPEG input.
func NewImageService(maxSize int, autoOrient bool) *ImageService {
	return &ImageService{maxSize: maxSize, autoOrient: autoOrient}
}

// Prepare returns the bytes and media type to upload for an image.
//
// When neither resizing nor rotation is needed the input is returned
// untouched. Otherwise the image is decoded, rotated, scaled to fit
// maxSize x maxSize with Catmull-Rom and re-encoded as JPEG.
//
// On decode failure the error is returned together with the original data
// and media type, so the caller can still upload the raw file.
func (s *ImageService) Prepare(ctx context.Context, data []byte, mediaType string) ([]byte, string, error) {
	orientation := 1
	if s.autoOrient && mediaType == "image/jpeg" {
		orientation = Orientation(data)
	}

	if s.maxSize <= 0 && orientation == 1 {
		return data, mediaType, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, mediaType, err
	}

	bounds := img.Bounds()
	needsResize := s.maxSize > 0 && (bounds.Dx() > s.maxSize || bounds.Dy() > s.maxSize)
	if !needsResize && orientation == 1 {
		return data, mediaType, nil
	}

	img = Orient(img, orientation)
	if needsResize {
		img = Fit(img, s.maxSize, s.maxSize)
	}

	if err := ctx.Err(); err != nil {
		return data, mediaType, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return data, mediaType, err
	}
	return buf.Bytes(), "image/jpeg", nil
}

// Orientation returns the EXIF orientation (1-8) of JPEG data, or 1 when
// the tag is absent or unreadable.
func Orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

// Fit scales img to fit within maxWidth x maxHeight, preserving the aspect
// ratio. Images already inside the bounds are returned as is.
func Fit(img image.Image, maxWidth, maxHeight int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxWidth && height <= maxHeight {
		return img
	}

	ratio := float64(width) / float64(height)
	if float64(maxWidth)/float64(maxHeight) > ratio {
		// Height is the limiting factor
		width = int(float64(maxHeight) * ratio)
		height = maxHeight
	} else {
		height = int(float64(maxWidth) / ratio)
		width = maxWidth
	}
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// Orient applies an EXIF orientation so the result displays upright.
//
// Orientation values follow the EXIF standard: 2 mirror, 3 rotate 180,
// 4 flip, 5 transpose, 6 rotate 90 CW, 7 transverse, 8 rotate 90 CCW.
func Orient(img image.Image, orientation int) image.Image {
	if orientation <= 1 || orientation > 8 {
		return img
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	dw, dh := w, h
	if orientation >= 5 {
		dw, dh = h, w
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch orientation {
			case 2:
				dx, dy = w-1-x, y
			case 3:
				dx, dy = w-1-x, h-1-y
			case 4:
				dx, dy = x, h-1-y
			case 5:
				dx, dy = y, x
			case 6:
				dx, dy = h-1-y, x
			case 7:
				dx, dy = h-1-y, w-1-x
			case 8:
				dx, dy = y, w-1-x
			}
			dst.Set(dx, dy, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}
