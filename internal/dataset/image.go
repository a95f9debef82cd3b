package dataset

import (
	"fmt"
	"image"
	"os"

	// Register the standard decoders.
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/visgator-ml/visgator/internal/device"
	"github.com/visgator-ml/visgator/internal/tensor"
)

// LoadImage reads an image file into a [3, H, W] float32 tensor with
// values in [0, 1]. maxSide > 0 downscales large images so that the
// longer side does not exceed it, preserving aspect ratio; samples keep
// their individual extents for the batch container to pad. The returned
// scale maps original pixel coordinates to the resized image (1 when no
// resize happened).
func LoadImage(path string, maxSide int, dev device.Device) (*tensor.RawTensor, float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("dataset: open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, 0, fmt.Errorf("dataset: decode %s: %w", path, err)
	}

	resized, scale := fitWithin(img, maxSide)
	t, err := ImageToTensor(resized, dev)
	if err != nil {
		return nil, 0, err
	}
	return t, scale, nil
}

// fitWithin downscales img so its longer side is at most maxSide.
// Images already small enough (or maxSide <= 0) pass through unchanged.
func fitWithin(img image.Image, maxSide int) (image.Image, float32) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return img, 1
	}

	ratio := float64(maxSide) / float64(max(w, h))
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*ratio), int(float64(h)*ratio)))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst, float32(ratio)
}

// ImageToTensor converts a decoded image to a [3, H, W] float32 tensor
// with channel-major layout and values in [0, 1].
func ImageToTensor(img image.Image, dev device.Device) (*tensor.RawTensor, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("dataset: empty image %dx%d", w, h)
	}

	out, err := tensor.NewRaw(tensor.Shape{3, h, w}, tensor.Float32, dev)
	if err != nil {
		return nil, err
	}

	data := out.AsFloat32()
	plane := h * w
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			idx := y*w + x
			data[idx] = float32(r) / 0xffff
			data[plane+idx] = float32(g) / 0xffff
			data[2*plane+idx] = float32(b) / 0xffff
		}
	}
	return out, nil
}
