// Package config holds the request-shaped configuration objects external
// callers (CLI, future HTTP surface) build for each operation, along with
// the default values applied when a field is left unset.
package config

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Bellafqira/HS-Wat-Blockchain/internal/codec"
)

// DefaultStride, DefaultThresholdHi are the codec defaults applied when a
// caller leaves them unset.
const (
	DefaultStride      = 3
	DefaultThresholdHi = 0
)

// EmbedRequest is the external interface object for one embed operation.
type EmbedRequest struct {
	DataPath       string
	SavePath       string
	Message        string
	BlockchainPath string
	DataType       string
	Kernel         [][]float64 // nil means codec.DefaultKernel()
	Stride         int         // 0 means DefaultStride
	ThresholdHi    *int        // nil means DefaultThresholdHi
	BitDepth       int         // 0 means inferred from the decoded image
	SecretKey      string      // empty means a generated key
}

// ResolvedEmbedParams holds the fully-defaulted codec.Params (whose
// SecretKey is the key actually used, so the caller can record it on the
// transaction) plus whether that key was generated rather than supplied.
type ResolvedEmbedParams struct {
	Params       codec.Params
	GeneratedKey bool
}

// Resolve fills in every unset field of req with its documented default,
// returning codec.Params ready for Embed. A malformed req.Kernel is a
// config error, not a silent fall-back to the default kernel: the caller
// asked for a specific kernel and must find out if it couldn't be used.
func Resolve(req EmbedRequest, inferredBitDepth int) (ResolvedEmbedParams, error) {
	kernel := codec.DefaultKernel()
	if req.Kernel != nil {
		k, err := codec.KernelFromFloatMatrix(req.Kernel)
		if err != nil {
			return ResolvedEmbedParams{}, fmt.Errorf("resolve requested kernel: %w", err)
		}
		kernel = k
	}

	stride := req.Stride
	if stride <= 0 {
		stride = DefaultStride
	}

	thresholdHi := DefaultThresholdHi
	if req.ThresholdHi != nil {
		thresholdHi = *req.ThresholdHi
	}

	bitDepth := req.BitDepth
	if bitDepth <= 0 {
		bitDepth = inferredBitDepth
	}

	secretKey := req.SecretKey
	generated := false
	if secretKey == "" {
		secretKey = uuid.NewString()
		generated = true
	}

	return ResolvedEmbedParams{
		Params: codec.Params{
			Kernel:      kernel,
			Stride:      stride,
			ThresholdHi: thresholdHi,
			BitDepth:    bitDepth,
			SecretKey:   secretKey,
		},
		GeneratedKey: generated,
	}, nil
}
