package codec

// Params holds the full parameter set needed to reproduce an embed or
// extract pass: the prediction kernel, traversal stride, expansion
// threshold, bit depth, and the secret key that seeds position selection.
// A transaction record carries exactly these fields (plus the message and
// watermark itself) so any later remove/extract/resolve call can rebuild
// an identical Params value.
type Params struct {
	Kernel      Kernel
	Stride      int
	ThresholdHi int
	BitDepth    int
	SecretKey   string
}

// DefaultParams returns the documented defaults: the 4-neighbor averaging
// kernel, stride 3, t_hi 0.
func DefaultParams(bitDepth int, secretKey string) Params {
	return Params{
		Kernel:      DefaultKernel(),
		Stride:      3,
		ThresholdHi: 0,
		BitDepth:    bitDepth,
		SecretKey:   secretKey,
	}
}

// outputGrid returns the embed/extract traversal grid size for a height x
// width image under this kernel and stride: oh = (H-kh)/s + 1, ow likewise.
func (p Params) outputGrid(height, width int) (oh, ow int) {
	kh, kw := p.Kernel.Height(), p.Kernel.Width()
	oh = (height-kh)/p.Stride + 1
	ow = (width-kw)/p.Stride + 1
	return
}
