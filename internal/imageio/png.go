package imageio

import (
	"image/png"
	"io"

	"github.com/Bellafqira/HS-Wat-Blockchain/internal/image"
)

func decodePNG(r io.Reader) (*image.Matrix, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, err
	}
	return toMatrix(img), nil
}

func encodePNG(w io.Writer, m *image.Matrix) error {
	return png.Encode(w, fromMatrix(m))
}
