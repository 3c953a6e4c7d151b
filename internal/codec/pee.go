// Package codec implements the reversible prediction-error-expansion (PEE)
// watermark codec: Embed and Extract over a grayscale pixel matrix, driven
// by a secret-key position mask and a fixed-point prediction kernel.
//
// Both directions walk the output grid in the same row-major order and
// mutate their working matrix in place as they go, so a window's prediction
// always sees whatever value its neighbors currently hold, including
// neighbors already rewritten earlier in the same pass. Embed and Extract
// stay in lock-step as long as they visit windows in the same order and
// apply the same skip/overflow decisions, which is the invariant the rest
// of this file exists to preserve.
package codec

import (
	"github.com/Bellafqira/HS-Wat-Blockchain/internal/image"
	"github.com/Bellafqira/HS-Wat-Blockchain/pkg/util"
)

// EmbedStats summarizes one Embed pass: how many watermark bits actually
// landed in the image, how many windows were skipped as overflow, and the
// overflow map extraction needs to mirror that decision.
//
// OverflowBits holds one flag per window with e >= 0 (every window Embed
// actually had to make an overflow call for), in traversal order: 1 if the
// window overflowed and was left untouched, 0 if it was written. A
// center-vs-neighbors comparison alone can't tell these apart on the extract
// side, because a legitimately written window and an overflow-skipped one
// can land on the same recovered delta; OverflowBits is the side channel
// that resolves the ambiguity, carried on the transaction alongside the
// other codec parameters and handed back to Extract.
type EmbedStats struct {
	BitsEmbedded  int
	OverflowCount int
	OverflowBits  []byte
}

// Embed inserts watermark (cyclically reused) into img according to params,
// returning a new matrix; img itself is never modified.
func Embed(img *image.Matrix, params Params, watermark []byte) (*image.Matrix, EmbedStats, error) {
	if err := validate(img, params, watermark); err != nil {
		return nil, EmbedStats{}, err
	}

	watermarked := img.Clone()
	kh, kw := params.Kernel.Height(), params.Kernel.Width()
	oh, ow := params.outputGrid(img.Height, img.Width)
	maxVal := int64(watermarked.Max())

	positions := util.PositionMask(params.SecretKey, img.Height*img.Width)

	stats := EmbedStats{}
	posIndex := 0
	wmIndex := 0

	for y := 0; y < oh; y++ {
		for x := 0; x < ow; x++ {
			if positions[posIndex] == 0 {
				posIndex++
				continue
			}

			y0, x0 := y*params.Stride, x*params.Stride
			yc, xc := y0+kh/2, x0+kw/2

			neighbors := params.Kernel.Predict(window(watermarked, y0, x0, kh, kw))
			center := int64(watermarked.Pixels[yc][xc])
			e := center - neighbors

			switch {
			case e < 0:
				// Shift-only territory with a negative error: embed never
				// touches it, so extract must skip it identically. No
				// overflow call was made here, so no flag is recorded.
			case center == maxVal:
				stats.OverflowCount++
				stats.OverflowBits = append(stats.OverflowBits, 1)
			case e <= int64(params.ThresholdHi):
				// Worst-case (bit=1) expansion is checked before the bit is
				// even chosen, so the overflow decision never depends on
				// which bit ends up embedded here.
				if neighbors+2*e+1 > maxVal {
					stats.OverflowCount++
					stats.OverflowBits = append(stats.OverflowBits, 1)
				} else {
					bit := int64(watermark[wmIndex%len(watermark)])
					watermarked.Pixels[yc][xc] = uint16(neighbors + 2*e + bit)
					wmIndex++
					stats.OverflowBits = append(stats.OverflowBits, 0)
				}
			default:
				newCenter := neighbors + e + int64(params.ThresholdHi) + 1
				if newCenter > maxVal {
					stats.OverflowCount++
					stats.OverflowBits = append(stats.OverflowBits, 1)
				} else {
					watermarked.Pixels[yc][xc] = uint16(newCenter)
					stats.OverflowBits = append(stats.OverflowBits, 0)
				}
			}

			posIndex++
		}
	}

	stats.BitsEmbedded = wmIndex
	return watermarked, stats, nil
}

// ExtractResult is the output of a full Extract pass.
type ExtractResult struct {
	Recovered     *image.Matrix
	Bits          []byte // raw extracted bits, in traversal order
	Aggregated256 []byte // 256-bit majority-vote aggregation
	OverflowCount int
}

// Extract inverts Embed: it recovers the pre-embed matrix bit-exactly and
// returns the extracted watermark bits, both raw and 256-bucket aggregated.
// overflowBits must be the EmbedStats.OverflowBits produced by the Embed
// call that watermarked img (normally read back off the recording
// transaction); without it, extract cannot tell an overflow-skipped window
// from a legitimately embedded one purely from the pixel values left
// behind.
func Extract(img *image.Matrix, params Params, overflowBits []byte) (ExtractResult, error) {
	if err := validateForExtract(img, params); err != nil {
		return ExtractResult{}, err
	}

	recovered := img.Clone()
	kh, kw := params.Kernel.Height(), params.Kernel.Width()
	oh, ow := params.outputGrid(img.Height, img.Width)

	positions := util.PositionMask(params.SecretKey, img.Height*img.Width)

	var aggOnes, aggTotal [256]int
	var bits []byte
	overflow := 0
	posIndex := 0
	candidateIndex := 0

	for y := 0; y < oh; y++ {
		for x := 0; x < ow; x++ {
			if positions[posIndex] == 0 {
				posIndex++
				continue
			}

			y0, x0 := y*params.Stride, x*params.Stride
			yc, xc := y0+kh/2, x0+kw/2

			neighbors := params.Kernel.Predict(window(recovered, y0, x0, kh, kw))
			center := int64(recovered.Pixels[yc][xc])
			ew := center - neighbors

			switch {
			case ew < 0:
				// Mirrors embed's e<0 skip: untouched, leave as-is. Embed
				// never makes an overflow call here, so the overflow map
				// carries no flag for this window either.
			default:
				if candidateIndex >= len(overflowBits) {
					return ExtractResult{}, &ParamError{Reason: "overflow map shorter than the number of candidate windows"}
				}
				overflowed := overflowBits[candidateIndex] == 1
				candidateIndex++

				switch {
				case overflowed:
					overflow++
				case ew <= 2*int64(params.ThresholdHi)+1:
					bit := ew % 2
					e := (ew - bit) / 2
					recovered.Pixels[yc][xc] = uint16(neighbors + e)
					bits = append(bits, byte(bit))
					// Embed draws bit k from watermark[k % len], so the k-th
					// extracted bit votes for bucket k % 256.
					bucket := (len(bits) - 1) % 256
					aggTotal[bucket]++
					if bit == 1 {
						aggOnes[bucket]++
					}
				default:
					e := ew - int64(params.ThresholdHi) - 1
					recovered.Pixels[yc][xc] = uint16(neighbors + e)
				}
			}

			posIndex++
		}
	}

	if candidateIndex != len(overflowBits) {
		return ExtractResult{}, &ParamError{Reason: "overflow map longer than the number of candidate windows"}
	}

	agg := make([]byte, 256)
	for j := 0; j < 256; j++ {
		if aggTotal[j] > 0 && aggOnes[j]*2 > aggTotal[j] {
			agg[j] = 1
		}
	}

	return ExtractResult{
		Recovered:     recovered,
		Bits:          bits,
		Aggregated256: agg,
		OverflowCount: overflow,
	}, nil
}

// window returns the kh x kw sub-matrix of m with top-left corner (y0, x0),
// as row views; no copy, since Predict only reads it.
func window(m *image.Matrix, y0, x0, kh, kw int) [][]uint16 {
	rows := make([][]uint16, kh)
	for i := 0; i < kh; i++ {
		rows[i] = m.Pixels[y0+i][x0 : x0+kw]
	}
	return rows
}

func validate(img *image.Matrix, params Params, watermark []byte) error {
	if len(watermark) == 0 {
		return &ParamError{Reason: "watermark must not be empty"}
	}
	return validateShape(img, params)
}

func validateForExtract(img *image.Matrix, params Params) error {
	return validateShape(img, params)
}

func validateShape(img *image.Matrix, params Params) error {
	kh, kw := params.Kernel.Height(), params.Kernel.Width()
	if kh%2 == 0 || kw%2 == 0 {
		return &ParamError{Reason: "kernel dimensions must be odd"}
	}
	if img.Height < kh || img.Width < kw {
		return &ParamError{Reason: "kernel is larger than the image"}
	}
	if params.Stride <= 0 {
		return &ParamError{Reason: "stride must be positive"}
	}
	if params.ThresholdHi < 0 {
		return &ParamError{Reason: "t_hi must be non-negative"}
	}
	return nil
}
