package imageio

import (
	"fmt"
	"io"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/Bellafqira/HS-Wat-Blockchain/internal/image"
	"github.com/Bellafqira/HS-Wat-Blockchain/internal/werrors"
)

// DicomContext carries a parsed DICOM dataset alongside the Matrix decoded
// from its pixel data, so a later write-back can substitute just the pixel
// buffer and re-encode every other element untouched, preserving original
// metadata.
type DicomContext struct {
	dataset       dicom.Dataset
	bitsPerSample int
}

// decodeDICOM parses a DICOM stream, locates its pixel data element, and
// converts the first frame to a Matrix.
func decodeDICOM(r io.Reader) (*image.Matrix, *DicomContext, error) {
	ds, err := dicom.Parse(r, -1, nil)
	if err != nil {
		return nil, nil, werrors.Wrap(werrors.ImageDecodeFailed, "parse dicom dataset", err)
	}

	elem, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, nil, werrors.Wrap(werrors.ImageDecodeFailed, "dicom dataset has no pixel data", err)
	}
	pixelInfo, ok := elem.Value.GetValue().(dicom.PixelDataInfo)
	if !ok || len(pixelInfo.Frames) == 0 {
		return nil, nil, werrors.New(werrors.ImageDecodeFailed, "dicom pixel data element has no frames")
	}

	native, err := pixelInfo.Frames[0].GetNativeFrame()
	if err != nil {
		return nil, nil, werrors.Wrap(werrors.ImageDecodeFailed, "dicom frame is not in native format", err)
	}

	m := image.New(native.Rows, native.Cols, native.BitsPerSample)
	for i, sample := range native.Data {
		y, x := i/native.Cols, i%native.Cols
		// Grayscale DICOM pixel data carries one sample per pixel.
		m.Pixels[y][x] = uint16(sample[0])
	}

	return m, &DicomContext{dataset: ds, bitsPerSample: native.BitsPerSample}, nil
}

// encodeDICOM substitutes m's pixel values into ctx's original dataset and
// re-encodes the whole dataset, leaving every non-pixel element untouched.
func encodeDICOM(w io.Writer, m *image.Matrix, ctx *DicomContext) error {
	data := make([][]int, m.Height*m.Width)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			data[y*m.Width+x] = []int{int(m.Pixels[y][x])}
		}
	}

	nativeFrame := frame.NativeFrame{
		Data:          data,
		Rows:          m.Height,
		Cols:          m.Width,
		BitsPerSample: ctx.bitsPerSample,
	}
	newFrame := &frame.Frame{Encapsulated: false, NativeData: nativeFrame}

	elem, err := ctx.dataset.FindElementByTag(tag.PixelData)
	if err != nil {
		return fmt.Errorf("locate pixel data element for write-back: %w", err)
	}
	newValue, err := dicom.NewPixelDataValue(dicom.PixelDataInfo{
		Frames:         []*frame.Frame{newFrame},
		IsEncapsulated: false,
	})
	if err != nil {
		return fmt.Errorf("build replacement pixel data value: %w", err)
	}
	elem.Value = newValue

	return dicom.Write(w, ctx.dataset)
}
