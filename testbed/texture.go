// Texture loading mirrors the shape of the original engine's
// loaders.ImageLoader (assets/loaders/image.go: decode -> width/height/
// channel-count/pixel bytes), but decodes with the standard image package
// plus golang.org/x/image's extra format registrations and resize support
// instead of cgo'd stb_image, since this module carries no C toolchain
// dependency.
package testbed

import (
	"fmt"
	"image"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Texture is a decoded, host-visible RGBA8 image ready for upload into a
// gpu.Buffer staging resource.
type Texture struct {
	Width, Height uint32
	Pixels        []byte // tightly packed RGBA8, row-major
}

// LoadTexture decodes path (png/bmp/tiff, whichever golang.org/x/image's
// registered decoders recognize) and, if maxDim is nonzero, downsamples it
// with x/image/draw's bilinear scaler so oversized source art never
// produces a texture larger than the sample-world pass's attachment.
func LoadTexture(path string, maxDim uint32) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("testbed: open texture %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("testbed: decode texture %s: %w", path, err)
	}

	bounds := img.Bounds()
	width, height := uint32(bounds.Dx()), uint32(bounds.Dy())
	if maxDim != 0 && (width > maxDim || height > maxDim) {
		scale := float64(maxDim) / float64(max32(width, height))
		width = uint32(float64(width) * scale)
		height = uint32(float64(height) * scale)
		if width == 0 {
			width = 1
		}
		if height == 0 {
			height = 1
		}
		scaled := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
		draw.BiLinear.Scale(scaled, scaled.Bounds(), img, bounds, draw.Src, nil)
		return &Texture{Width: width, Height: height, Pixels: scaled.Pix}, nil
	}

	rgba := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return &Texture{Width: width, Height: height, Pixels: rgba.Pix}, nil
}

func max32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
