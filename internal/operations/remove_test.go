package operations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Bellafqira/HS-Wat-Blockchain/internal/config"
	"github.com/Bellafqira/HS-Wat-Blockchain/internal/resolver"
)

func TestRemoveRecoversOriginalAndAppendsTransaction(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	watOut := filepath.Join(dir, "wat.png")
	recOut := filepath.Join(dir, "rec.png")
	writeGradientPNG(t, src, 128)

	chain := openTestChain(t)
	embedReq := func(path string) config.EmbedRequest {
		return config.EmbedRequest{DataPath: path, SavePath: watOut, Message: "ID_Paroma_Med", SecretKey: "k0"}
	}
	if _, err := BatchEmbed(context.Background(), chain, []string{src}, embedReq, 1, nil); err != nil {
		t.Fatalf("BatchEmbed: %v", err)
	}

	watermarkedPath := withPrefix(watOut, "watermarked_")
	res := resolver.New(chain)

	outcome, err := Remove(RemoveRequest{
		DataPath: watermarkedPath,
		SavePath: recOut,
		DataType: "image/png",
	}, chain, res)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if outcome.Transaction.ExtractionBER != 0 {
		t.Errorf("ExtractionBER = %v, want 0 for an unattacked image", outcome.Transaction.ExtractionBER)
	}
	if outcome.SavedPath == "" {
		t.Error("expected a recovered image to be saved")
	}
}

func TestRemoveFailsForUnknownImage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "unrelated.png")
	writeGradientPNG(t, src, 32)

	chain := openTestChain(t)
	res := resolver.New(chain)

	_, err := Remove(RemoveRequest{DataPath: src, DataType: "image/png"}, chain, res)
	if err == nil {
		t.Fatal("expected an error when no embed transaction matches")
	}
}
