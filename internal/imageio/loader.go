package imageio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Bellafqira/HS-Wat-Blockchain/internal/image"
	"github.com/Bellafqira/HS-Wat-Blockchain/internal/werrors"
)

// DataType mime-ish tags recorded as a transaction's data_type field.
const (
	DataTypePNG   = "image/png"
	DataTypeJPEG  = "image/jpeg"
	DataTypeBMP   = "image/bmp"
	DataTypeTIFF  = "image/tiff"
	DataTypeDICOM = "application/dicom"
)

// Loaded is the result of decoding one input file: its pixel matrix, the
// data_type to record in a transaction, and (DICOM only) the dataset context
// needed to write the pixel buffer back into the original file.
type Loaded struct {
	Matrix   *image.Matrix
	DataType string
	Dicom    *DicomContext
}

// Load decodes path by its extension. Unsupported extensions return a typed
// UnsupportedFormat error.
func Load(path string) (Loaded, error) {
	f, err := os.Open(path)
	if err != nil {
		return Loaded{}, werrors.Wrap(werrors.InputMissing, "open input image", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		m, err := decodePNG(f)
		if err != nil {
			return Loaded{}, werrors.Wrap(werrors.ImageDecodeFailed, "decode png", err)
		}
		return Loaded{Matrix: m, DataType: DataTypePNG}, nil
	case ".jpg", ".jpeg":
		m, err := decodeJPEG(f)
		if err != nil {
			return Loaded{}, werrors.Wrap(werrors.ImageDecodeFailed, "decode jpeg", err)
		}
		return Loaded{Matrix: m, DataType: DataTypeJPEG}, nil
	case ".bmp":
		m, err := decodeBMP(f)
		if err != nil {
			return Loaded{}, werrors.Wrap(werrors.ImageDecodeFailed, "decode bmp", err)
		}
		return Loaded{Matrix: m, DataType: DataTypeBMP}, nil
	case ".tif", ".tiff":
		m, err := decodeTIFF(f)
		if err != nil {
			return Loaded{}, werrors.Wrap(werrors.ImageDecodeFailed, "decode tiff", err)
		}
		return Loaded{Matrix: m, DataType: DataTypeTIFF}, nil
	case ".dcm", ".dicom":
		m, ctx, err := decodeDICOM(f)
		if err != nil {
			return Loaded{}, err
		}
		return Loaded{Matrix: m, DataType: DataTypeDICOM, Dicom: ctx}, nil
	default:
		return Loaded{}, werrors.New(werrors.UnsupportedFormat, "unsupported image extension: "+ext)
	}
}

// Save encodes m to path, using dicom when loaded carries a DicomContext
// (i.e. the source file was DICOM) and the extension-implied format
// otherwise.
func Save(path string, m *image.Matrix, loaded Loaded) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output image file: %w", err)
	}
	defer out.Close()

	if loaded.Dicom != nil {
		return encodeDICOM(out, m, loaded.Dicom)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return encodePNG(out, m)
	case ".jpg", ".jpeg":
		return encodeJPEG(out, m)
	case ".bmp":
		return encodeBMP(out, m)
	case ".tif", ".tiff":
		return encodeTIFF(out, m)
	default:
		return encodePNG(out, m)
	}
}
