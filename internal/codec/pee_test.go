package codec

import (
	"math/rand"
	"testing"

	"github.com/Bellafqira/HS-Wat-Blockchain/internal/image"
)

func gradientImage(height, width, bitDepth int) *image.Matrix {
	m := image.New(height, width, bitDepth)
	max := m.Max()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			m.Pixels[y][x] = uint16((x + y) % int(max))
		}
	}
	return m
}

func randomBits(n int, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	bits := make([]byte, n)
	for i := range bits {
		bits[i] = byte(r.Intn(2))
	}
	return bits
}

func TestEmbedExtractReversibility(t *testing.T) {
	// 128x128 at stride 3 carries several hundred bits, enough to fill all
	// 256 aggregation buckets; 64x64 carries fewer than 256.
	img := gradientImage(128, 128, 8)
	params := DefaultParams(8, "k0")
	watermark := randomBits(256, 1)

	watermarked, stats, err := Embed(img, params, watermark)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if stats.BitsEmbedded == 0 {
		t.Fatal("expected at least one bit embedded")
	}

	result, err := Extract(watermarked, params, stats.OverflowBits)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if !result.Recovered.Equal(img) {
		t.Fatal("recovered image does not match original")
	}

	matches := 0
	for i := range watermark {
		if result.Aggregated256[i] == watermark[i] {
			matches++
		}
	}
	if matches != len(watermark) {
		t.Errorf("aggregated watermark mismatch: %d/%d bits match", matches, len(watermark))
	}
}

func TestEmbedDeterministic(t *testing.T) {
	img := gradientImage(48, 48, 8)
	params := DefaultParams(8, "fixed-key")
	watermark := randomBits(256, 7)

	a, _, err := Embed(img, params, watermark)
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := Embed(img, params, watermark)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Equal(b) {
		t.Error("Embed is not deterministic for identical inputs")
	}
}

func TestEmbedDoesNotMutateInput(t *testing.T) {
	img := gradientImage(32, 32, 8)
	original := img.Clone()
	params := DefaultParams(8, "k0")
	watermark := randomBits(64, 3)

	if _, _, err := Embed(img, params, watermark); err != nil {
		t.Fatal(err)
	}
	if !img.Equal(original) {
		t.Error("Embed mutated its input image")
	}
}

func TestReversibilityWithSaturatedPixels(t *testing.T) {
	img := gradientImage(40, 40, 8)
	max := img.Max()
	// Force several pixels to the maximum representable value to exercise
	// the overflow path.
	for i := 0; i < 20; i++ {
		y := (i*7 + 3) % img.Height
		x := (i*11 + 5) % img.Width
		img.Pixels[y][x] = max
	}

	params := DefaultParams(8, "overflow-key")
	watermark := randomBits(256, 42)

	watermarked, stats, err := Embed(img, params, watermark)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if stats.OverflowCount == 0 {
		t.Fatal("expected at least one overflow position with saturated pixels present")
	}

	result, err := Extract(watermarked, params, stats.OverflowBits)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !result.Recovered.Equal(img) {
		t.Fatal("recovered image does not match original when overflow positions are present")
	}
	if result.OverflowCount != stats.OverflowCount {
		t.Errorf("extract overflow count = %d, want %d", result.OverflowCount, stats.OverflowCount)
	}
}

func TestReversibilityAtInBandOverflowBoundary(t *testing.T) {
	// Regression case: four cardinal neighbors all 253 (neighbors=253) and a
	// center of 254 give e=1, which with t_hi=1 lands in the in-band branch
	// whose worst-case check (253+2*1+1=256>255) overflows. The overflowed
	// center is left untouched by Embed, and without the overflow map
	// Extract used to mistake it for a legitimately embedded bit=1 at e=0,
	// recovering 253 instead of 254.
	const size = 9
	img := image.New(size, size, 8)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if y%3 == 1 && x%3 == 1 {
				img.Pixels[y][x] = 254
			} else {
				img.Pixels[y][x] = 253
			}
		}
	}

	params := DefaultParams(8, "overflow-boundary-key")
	params.ThresholdHi = 1
	watermark := randomBits(64, 11)

	watermarked, stats, err := Embed(img, params, watermark)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if stats.OverflowCount == 0 {
		t.Fatal("expected the boundary windows to overflow")
	}

	result, err := Extract(watermarked, params, stats.OverflowBits)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !result.Recovered.Equal(img) {
		t.Fatal("recovered image does not match original at the overflow boundary")
	}
	if result.OverflowCount != stats.OverflowCount {
		t.Errorf("extract overflow count = %d, want %d", result.OverflowCount, stats.OverflowCount)
	}
}

func TestEmbedRejectsEmptyWatermark(t *testing.T) {
	img := gradientImage(32, 32, 8)
	params := DefaultParams(8, "k0")
	if _, _, err := Embed(img, params, nil); err == nil {
		t.Error("expected error for empty watermark")
	}
}

func TestEmbedRejectsKernelLargerThanImage(t *testing.T) {
	img := image.New(2, 2, 8)
	params := DefaultParams(8, "k0")
	if _, _, err := Embed(img, params, []byte{1}); err == nil {
		t.Error("expected error for kernel larger than image")
	}
}

func TestDifferentSecretKeysProduceDifferentWatermarkedImages(t *testing.T) {
	img := gradientImage(48, 48, 8)
	watermark := randomBits(256, 9)

	a, _, err := Embed(img, DefaultParams(8, "key-a"), watermark)
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := Embed(img, DefaultParams(8, "key-b"), watermark)
	if err != nil {
		t.Fatal(err)
	}
	if a.Equal(b) {
		t.Error("different secret keys produced identical watermarked images")
	}
}
