package ledger

import (
	"path/filepath"
	"testing"

	"github.com/Bellafqira/HS-Wat-Blockchain/internal/types"
)

func openTestChain(t *testing.T) *Chain {
	t.Helper()
	dir := t.TempDir()
	c, err := Open(filepath.Join(dir, "chain.json"), filepath.Join(dir, "index.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func sampleBatch(imageHash string) types.BatchEmbedTransaction {
	txn := types.NewEmbedTransaction("2026-07-30T00:00:00Z", "image/png", "orighash", imageHash,
		"secret", "", "0101", "", types.CodecParamsView{Stride: 3, ThresholdHi: 0, BitDepth: 8})
	return types.BatchEmbedTransaction{
		TotalImages:     1,
		ProcessedImages: 1,
		TransactionDict: map[string]types.EmbedTransaction{imageHash: txn},
	}
}

func TestOpenCreatesGenesisBlock(t *testing.T) {
	c := openTestChain(t)
	if c.Height() != 1 {
		t.Fatalf("height = %d, want 1 (genesis only)", c.Height())
	}
	ok, err := c.VerifyChain()
	if err != nil || !ok {
		t.Fatalf("VerifyChain on fresh chain: ok=%v err=%v", ok, err)
	}
}

func TestAppendEmbedGrowsChainAndIndex(t *testing.T) {
	c := openTestChain(t)
	batch := sampleBatch("wathash1")

	block, err := c.AppendEmbed(batch)
	if err != nil {
		t.Fatalf("AppendEmbed: %v", err)
	}
	if block.Header.BlockNumber != 1 {
		t.Errorf("block number = %d, want 1", block.Header.BlockNumber)
	}
	if block.Header.PrevHash == "" {
		t.Error("prev hash must be set")
	}
	if c.Height() != 2 {
		t.Errorf("height = %d, want 2", c.Height())
	}

	txn, history, ok, err := c.Lookup("wathash1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !ok {
		t.Fatal("expected lookup hit after AppendEmbed")
	}
	if txn.HashImageWat != "wathash1" {
		t.Errorf("hash_image_wat = %q, want wathash1", txn.HashImageWat)
	}
	if history.BlockNumber != 1 {
		t.Errorf("history block number = %d, want 1", history.BlockNumber)
	}
}

func TestLookupMissReturnsFalse(t *testing.T) {
	c := openTestChain(t)
	_ = mustAppend(t, c, "present")

	_, _, ok, err := c.Lookup("absent")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ok {
		t.Error("expected miss for an unknown hash")
	}
}

func TestChainIsAppendOnlyAndLinked(t *testing.T) {
	c := openTestChain(t)
	b1 := mustAppend(t, c, "h1")
	b2 := mustAppend(t, c, "h2")
	b3 := mustAppend(t, c, "h3")

	if b2.Header.PrevHash != b1.Hash || b3.Header.PrevHash != b2.Hash {
		t.Fatal("blocks are not correctly linked in append order")
	}
	ok, err := c.VerifyChain()
	if err != nil || !ok {
		t.Fatalf("VerifyChain on a healthy chain: ok=%v err=%v", ok, err)
	}
}

func TestVerifyChainDetectsTamperedBlock(t *testing.T) {
	c := openTestChain(t)
	mustAppend(t, c, "h1")
	mustAppend(t, c, "h2")

	c.blocks[1].Info = "tampered"

	ok, err := c.VerifyChain()
	if err == nil || ok {
		t.Fatal("expected VerifyChain to detect a tampered block")
	}
}

func TestVerifyChainDetectsBrokenLinkage(t *testing.T) {
	c := openTestChain(t)
	mustAppend(t, c, "h1")
	mustAppend(t, c, "h2")

	c.blocks[2].Header.PrevHash = "deadbeef"

	ok, err := c.VerifyChain()
	if err == nil || ok {
		t.Fatal("expected VerifyChain to detect broken prev_hash linkage")
	}
}

func TestReopenPreservesChainAndIndex(t *testing.T) {
	dir := t.TempDir()
	chainPath := filepath.Join(dir, "chain.json")
	indexPath := filepath.Join(dir, "index.db")

	c1, err := Open(chainPath, indexPath, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	mustAppend(t, c1, "reopen-hash")
	if err := c1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	c2, err := Open(chainPath, indexPath, nil)
	if err != nil {
		t.Fatalf("reopen Open: %v", err)
	}
	defer c2.Close()

	if c2.Height() != 2 {
		t.Fatalf("reopened height = %d, want 2", c2.Height())
	}
	_, _, ok, err := c2.Lookup("reopen-hash")
	if err != nil || !ok {
		t.Fatalf("reopened lookup: ok=%v err=%v", ok, err)
	}
}

func TestEmbedBlocksReturnsOnlyEmbedBlocks(t *testing.T) {
	c := openTestChain(t)
	mustAppend(t, c, "h1")

	removeBatch := types.BatchRemoveTransaction{TotalImages: 1, ProcessedImages: 1}
	if _, err := c.AppendRemove(removeBatch); err != nil {
		t.Fatalf("AppendRemove: %v", err)
	}

	blocks, err := c.EmbedBlocks()
	if err != nil {
		t.Fatalf("EmbedBlocks: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("got %d embed blocks, want 1", len(blocks))
	}
	if blocks[0].Info != InfoEmbedder {
		t.Errorf("block info = %q, want %q", blocks[0].Info, InfoEmbedder)
	}
}

func mustAppend(t *testing.T, c *Chain, imageHash string) *Block {
	t.Helper()
	block, err := c.AppendEmbed(sampleBatch(imageHash))
	if err != nil {
		t.Fatalf("AppendEmbed(%q): %v", imageHash, err)
	}
	return block
}
