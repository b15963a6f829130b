package inference

import (
	"image"

	"github.com/disintegration/imaging"
)

// Preprocess resizes img to size and returns the planar RGB tensor data the
// model expects: (1, 3, H, W), values scaled to [0, 1].
func Preprocess(img image.Image, size image.Point) []float32 {
	buffer := make([]float32, 3*size.X*size.Y)
	PreprocessInto(buffer, img, size)
	return buffer
}

// PreprocessInto writes the tensor data into dst, which must hold 3*W*H values.
func PreprocessInto(dst []float32, img image.Image, size image.Point) {
	resized := imaging.Resize(img, size.X, size.Y, imaging.Linear)

	channelSize := size.X * size.Y
	pix := resized.Pix
	for y := 0; y < size.Y; y++ {
		row := y * resized.Stride
		offset := y * size.X
		for x := 0; x < size.X; x++ {
			p := row + x*4
			i := offset + x
			dst[i] = float32(pix[p]) / 255.0
			dst[channelSize+i] = float32(pix[p+1]) / 255.0
			dst[channelSize*2+i] = float32(pix[p+2]) / 255.0
		}
	}
}

// frameSize returns the size of img, or false for an empty frame.
func frameSize(img image.Image) (image.Point, bool) {
	if img == nil {
		return image.Point{}, false
	}
	size := img.Bounds().Size()
	if size.X <= 0 || size.Y <= 0 {
		return image.Point{}, false
	}
	return size, true
}
