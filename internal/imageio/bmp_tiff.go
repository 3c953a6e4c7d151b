package imageio

import (
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/Bellafqira/HS-Wat-Blockchain/internal/image"
)

func decodeBMP(r io.Reader) (*image.Matrix, error) {
	img, err := bmp.Decode(r)
	if err != nil {
		return nil, err
	}
	return toMatrix(img), nil
}

func encodeBMP(w io.Writer, m *image.Matrix) error {
	return bmp.Encode(w, fromMatrix(m))
}

func decodeTIFF(r io.Reader) (*image.Matrix, error) {
	img, err := tiff.Decode(r)
	if err != nil {
		return nil, err
	}
	return toMatrix(img), nil
}

func encodeTIFF(w io.Writer, m *image.Matrix) error {
	return tiff.Encode(w, fromMatrix(m), nil)
}
