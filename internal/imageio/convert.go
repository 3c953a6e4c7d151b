// Package imageio adapts on-disk image formats to and from the plain
// internal/image.Matrix the codec operates on: grayscale PNG/JPEG/BMP/TIFF
// via stdlib and golang.org/x/image, plus DICOM pixel-array round trips that
// preserve the rest of the dataset.
package imageio

import (
	goimage "image"
	"image/color"

	"github.com/Bellafqira/HS-Wat-Blockchain/internal/image"
)

// toMatrix converts a decoded image.Image to a grayscale Matrix, preserving
// 16-bit depth for Gray16 sources and otherwise converting any multi-channel
// source to 8-bit luminance.
func toMatrix(img goimage.Image) *image.Matrix {
	bounds := img.Bounds()
	height, width := bounds.Dy(), bounds.Dx()

	if gray16, ok := img.(*goimage.Gray16); ok {
		m := image.New(height, width, 16)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				c := gray16.Gray16At(bounds.Min.X+x, bounds.Min.Y+y)
				m.Pixels[y][x] = c.Y
			}
		}
		return m
	}

	m := image.New(height, width, 8)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gray := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			m.Pixels[y][x] = uint16(gray.Y)
		}
	}
	return m
}

// fromMatrix rebuilds a stdlib image.Image from a Matrix, choosing Gray16 or
// Gray based on the matrix's bit depth.
func fromMatrix(m *image.Matrix) goimage.Image {
	rect := goimage.Rect(0, 0, m.Width, m.Height)
	if m.BitDepth > 8 {
		out := goimage.NewGray16(rect)
		for y := 0; y < m.Height; y++ {
			for x := 0; x < m.Width; x++ {
				out.SetGray16(x, y, color.Gray16{Y: m.Pixels[y][x]})
			}
		}
		return out
	}
	out := goimage.NewGray(rect)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			out.SetGray(x, y, color.Gray{Y: uint8(m.Pixels[y][x])})
		}
	}
	return out
}
