package codec

import "fmt"

// ParamError reports a malformed codec parameter set (bad kernel shape,
// kernel larger than the image, empty watermark): a small named error type
// with a Reason field rather than a bare fmt.Errorf, since callers may want
// to branch on it later.
type ParamError struct {
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid codec parameters: %s", e.Reason)
}
