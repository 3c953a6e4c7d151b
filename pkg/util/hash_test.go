package util

import (
	"testing"

	"github.com/Bellafqira/HS-Wat-Blockchain/testutil"
)

func TestContentHashBytesKnownVector(t *testing.T) {
	// SHA-256("abc"): a standard test vector, decoded via testutil so the
	// expected digest in this test is exercised as bytes, not just text.
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	wantBytes := testutil.MustDecodeHex(t, want)

	got := ContentHashBytes([]byte("abc"))
	gotBytes := testutil.MustDecodeHex(t, got)

	if string(gotBytes) != string(wantBytes) {
		t.Errorf("ContentHashBytes(\"abc\") = %x, want %x", gotBytes, wantBytes)
	}
}

func TestContentHashDeterministic(t *testing.T) {
	rows := [][]uint16{
		{1, 2, 3},
		{4, 5, 6},
	}
	a := ContentHash(rows)
	b := ContentHash(rows)
	if a != b {
		t.Errorf("ContentHash not deterministic: %s != %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("ContentHash hex length = %d, want 64", len(a))
	}
}

func TestContentHashSensitiveToValues(t *testing.T) {
	a := ContentHash([][]uint16{{1, 2}, {3, 4}})
	b := ContentHash([][]uint16{{1, 2}, {3, 5}})
	if a == b {
		t.Error("ContentHash should differ when a pixel changes")
	}
}

func TestHexToBitsRoundTrip(t *testing.T) {
	tests := []string{
		"0",
		"a5",
		"deadbeef",
		"00ff00ff",
	}
	for _, hexStr := range tests {
		bits, err := HexToBits(hexStr)
		if err != nil {
			t.Fatalf("HexToBits(%q): %v", hexStr, err)
		}
		if len(bits) != 4*len(hexStr) {
			t.Errorf("HexToBits(%q) length = %d, want %d", hexStr, len(bits), 4*len(hexStr))
		}

		got := BitsToHex(bits)
		if got != hexStr {
			t.Errorf("BitsToHex(HexToBits(%q)) = %q, want %q", hexStr, got, hexStr)
		}
	}
}

func TestHexToBitsMSBFirst(t *testing.T) {
	bits, err := HexToBits("a")
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{1, 0, 1, 0} // 0xa = 1010
	for i := range want {
		if bits[i] != want[i] {
			t.Errorf("bit %d = %d, want %d", i, bits[i], want[i])
		}
	}
}

func TestBitsToHexPadsShortSequences(t *testing.T) {
	// 3 bits "101" left-padded with a zero -> "0101" -> 0x5
	got := BitsToHex([]byte{1, 0, 1})
	if got != "5" {
		t.Errorf("BitsToHex([1,0,1]) = %q, want %q", got, "5")
	}
}
