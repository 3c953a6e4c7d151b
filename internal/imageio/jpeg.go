package imageio

import (
	"image/jpeg"
	"io"

	"github.com/Bellafqira/HS-Wat-Blockchain/internal/image"
)

func decodeJPEG(r io.Reader) (*image.Matrix, error) {
	img, err := jpeg.Decode(r)
	if err != nil {
		return nil, err
	}
	return toMatrix(img), nil
}

// encodeJPEG re-encodes at quality 95. Save uses it for .jpg/.jpeg output
// paths; JPEG is lossy, so an image written this way does not keep its
// exact pixel values.
func encodeJPEG(w io.Writer, m *image.Matrix) error {
	return jpeg.Encode(w, fromMatrix(m), &jpeg.Options{Quality: 95})
}
