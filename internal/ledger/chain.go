package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Bellafqira/HS-Wat-Blockchain/internal/types"
	"github.com/Bellafqira/HS-Wat-Blockchain/internal/werrors"
)

// ChainError reports a structural problem detected while loading or
// verifying a chain.
type ChainError struct {
	Reason string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("ledger chain invalid: %s", e.Reason)
}

// fileRecord is the on-disk shape of the JSON ledger file: a simple ordered
// array of blocks, plus a version tag for forward compatibility.
type fileRecord struct {
	Version int      `json:"version"`
	Blocks  []*Block `json:"blocks"`
}

// Chain is the hash-linked, append-only transaction ledger: the JSON file is
// authoritative, the bbolt Index is a rebuildable lookup cache over it.
type Chain struct {
	mu     sync.Mutex
	path   string
	blocks []*Block
	index  *Index
	logger *zap.Logger
}

// Open loads path (creating a fresh genesis-only chain if it does not exist)
// and opens/rebuilds the bbolt index alongside it at indexPath.
func Open(path, indexPath string, logger *zap.Logger) (*Chain, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Chain{path: path, logger: logger}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		genesis, err := newGenesisBlock()
		if err != nil {
			return nil, werrors.Wrap(werrors.LedgerCorrupt, "build genesis block", err)
		}
		c.blocks = []*Block{genesis}
		if err := c.persist(); err != nil {
			return nil, err
		}
		logger.Info("ledger initialized with genesis block", zap.String("path", path))
	} else if err != nil {
		return nil, werrors.Wrap(werrors.LedgerCorrupt, "stat ledger file", err)
	} else {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, werrors.Wrap(werrors.LedgerCorrupt, "read ledger file", err)
		}
		var rec fileRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, werrors.Wrap(werrors.LedgerCorrupt, "parse ledger file", err)
		}
		c.blocks = rec.Blocks
	}

	if ok, err := c.verifyLocked(); err != nil {
		return nil, err
	} else if !ok {
		return nil, werrors.New(werrors.LedgerCorrupt, "loaded ledger failed chain verification")
	}

	index, err := OpenIndex(indexPath)
	if err != nil {
		return nil, werrors.Wrap(werrors.LedgerCorrupt, "open ledger index", err)
	}
	if err := index.RebuildFrom(c.blocks); err != nil {
		return nil, werrors.Wrap(werrors.LedgerCorrupt, "rebuild ledger index", err)
	}
	c.index = index

	return c, nil
}

// Close releases the underlying index handle.
func (c *Chain) Close() error {
	if c.index == nil {
		return nil
	}
	return c.index.Close()
}

// Height returns the number of blocks in the chain, genesis included.
func (c *Chain) Height() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(len(c.blocks))
}

// AppendEmbed appends a new block wrapping batch, tagged InfoEmbedder, and
// indexes every hash_image_wat in it against the new block number.
func (c *Chain) AppendEmbed(batch types.BatchEmbedTransaction) (*Block, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return nil, werrors.Wrap(werrors.LedgerCorrupt, "marshal embed batch", err)
	}
	block, err := c.append(InfoEmbedder, payload)
	if err != nil {
		return nil, err
	}
	for hash := range batch.TransactionDict {
		if err := c.index.Set(hash, block.Header.BlockNumber); err != nil {
			c.logger.Warn("ledger index update failed", zap.String("hash", hash), zap.Error(err))
		}
	}
	return block, nil
}

// AppendRemove appends a new block wrapping batch, tagged InfoRemoval. Remove
// blocks are not indexed by image hash; resolution only ever targets embed
// transactions.
func (c *Chain) AppendRemove(batch types.BatchRemoveTransaction) (*Block, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return nil, werrors.Wrap(werrors.LedgerCorrupt, "marshal remove batch", err)
	}
	return c.append(InfoRemoval, payload)
}

func (c *Chain) append(info string, payload json.RawMessage) (*Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tip := c.blocks[len(c.blocks)-1]
	number := tip.Header.BlockNumber + 1
	timestamp := float64(time.Now().UnixNano()) / 1e9

	block, err := newBlock(number, tip.Hash, timestamp, info, payload)
	if err != nil {
		return nil, werrors.Wrap(werrors.LedgerCorrupt, "build block", err)
	}

	previous := c.blocks
	c.blocks = append(c.blocks, block)
	if err := withRetry(func() error { return c.persist() }); err != nil {
		c.blocks = previous
		return nil, err
	}

	c.logger.Info("ledger block appended",
		zap.Int64("block_number", number), zap.String("info", info), zap.String("hash", block.Hash))
	return block, nil
}

// persist writes the chain to disk atomically: write to a temp file in the
// same directory, then rename over the target, so a crash mid-write never
// leaves a truncated ledger file behind.
func (c *Chain) persist() error {
	rec := fileRecord{Version: 1, Blocks: c.blocks}
	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return werrors.Wrap(werrors.LedgerCorrupt, "marshal ledger file", err)
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, ".ledger-*.tmp")
	if err != nil {
		return werrors.Wrap(werrors.LedgerContention, "create temp ledger file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return werrors.Wrap(werrors.LedgerContention, "write temp ledger file", err)
	}
	if err := tmp.Close(); err != nil {
		return werrors.Wrap(werrors.LedgerContention, "close temp ledger file", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return werrors.Wrap(werrors.LedgerContention, "rename temp ledger file into place", err)
	}
	return nil
}

// VerifyChain re-derives every block's hash and linkage and reports whether
// the whole chain is internally consistent.
func (c *Chain) VerifyChain() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verifyLocked()
}

func (c *Chain) verifyLocked() (bool, error) {
	if len(c.blocks) == 0 {
		return false, &ChainError{Reason: "chain has no blocks"}
	}

	// 1. Genesis shape.
	genesis := c.blocks[0]
	if genesis.Header.BlockNumber != 0 || genesis.Info != InfoGenesis {
		return false, &ChainError{Reason: "block 0 is not a valid genesis block"}
	}
	if genesis.Header.PrevHash != genesisPrevHash {
		return false, &ChainError{Reason: "genesis prev_hash is not the zero sentinel"}
	}

	// 2. Contiguous numbering, linkage, and hash recomputation.
	for i, block := range c.blocks {
		if block.Header.BlockNumber != int64(i) {
			return false, &ChainError{Reason: fmt.Sprintf("block at index %d has block_number %d", i, block.Header.BlockNumber)}
		}
		if i > 0 && block.Header.PrevHash != c.blocks[i-1].Hash {
			return false, &ChainError{Reason: fmt.Sprintf("block %d prev_hash does not match block %d's hash", i, i-1)}
		}
		recomputed, err := computeHash(block.Header, block.Transaction, block.Info)
		if err != nil {
			return false, werrors.Wrap(werrors.LedgerCorrupt, "recompute block hash", err)
		}
		if recomputed != block.Hash {
			return false, &ChainError{Reason: fmt.Sprintf("block %d hash does not match its contents", i)}
		}
	}

	return true, nil
}

// HistoryRecord is the resolved result of a direct or resolved provenance
// lookup.
type HistoryRecord struct {
	BlockNumber int64   `json:"block_number"`
	BlockHash   string  `json:"block_hash"`
	Timestamp   float64 `json:"timestamp"`
	BER         float64 `json:"ber"`
}

// Lookup finds the embed transaction whose hash_image_wat equals imageHash,
// using the bbolt index for O(1) access. ok is false on a miss; the caller
// (internal/operations.Resolve) then falls back to the resolver's trial
// extraction against candidates.
func (c *Chain) Lookup(imageHash string) (types.EmbedTransaction, HistoryRecord, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	blockNumber, found, err := c.index.Get(imageHash)
	if err != nil {
		return types.EmbedTransaction{}, HistoryRecord{}, false, werrors.Wrap(werrors.LedgerCorrupt, "read ledger index", err)
	}
	if !found {
		return types.EmbedTransaction{}, HistoryRecord{}, false, nil
	}
	if blockNumber < 0 || blockNumber >= int64(len(c.blocks)) {
		return types.EmbedTransaction{}, HistoryRecord{}, false, werrors.New(werrors.LedgerCorrupt, "ledger index points past end of chain")
	}

	block := c.blocks[blockNumber]
	var batch types.BatchEmbedTransaction
	if err := json.Unmarshal(block.Transaction, &batch); err != nil {
		return types.EmbedTransaction{}, HistoryRecord{}, false, werrors.Wrap(werrors.LedgerCorrupt, "parse embed block payload", err)
	}
	txn, ok := batch.TransactionDict[imageHash]
	if !ok {
		return types.EmbedTransaction{}, HistoryRecord{}, false, nil
	}

	return txn, HistoryRecord{
		BlockNumber: block.Header.BlockNumber,
		BlockHash:   block.Hash,
		Timestamp:   block.Header.Timestamp,
		BER:         0,
	}, true, nil
}

// EmbedBlocks returns every block tagged InfoEmbedder, in chain order, for
// the resolver's candidate scan when a direct Lookup misses.
func (c *Chain) EmbedBlocks() ([]*Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*Block, 0, len(c.blocks))
	for _, b := range c.blocks {
		if b.Info == InfoEmbedder {
			out = append(out, b)
		}
	}
	return out, nil
}
