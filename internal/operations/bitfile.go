package operations

import (
	"encoding/json"
	"os"
)

// writeBitArray serializes bits as a JSON array of 0/1 integers to path, the
// format an ext_wat_path output uses.
func writeBitArray(path string, bits []byte) error {
	ints := make([]int, len(bits))
	for i, b := range bits {
		ints[i] = int(b)
	}
	raw, err := json.Marshal(ints)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
