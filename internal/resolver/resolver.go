// Package resolver implements provenance lookup for a suspect image: when
// the ledger's direct hash_image_wat index misses, trial-extract against
// every embed transaction's recorded parameters and accept the first one
// whose recovered watermark is close enough.
package resolver

import (
	"encoding/json"
	"sort"

	"github.com/Bellafqira/HS-Wat-Blockchain/internal/codec"
	"github.com/Bellafqira/HS-Wat-Blockchain/internal/image"
	"github.com/Bellafqira/HS-Wat-Blockchain/internal/ledger"
	"github.com/Bellafqira/HS-Wat-Blockchain/internal/types"
	"github.com/Bellafqira/HS-Wat-Blockchain/pkg/util"
)

// berThreshold is the acceptance bound on bit-error rate between a
// candidate's stored watermark and what trial extraction recovers.
const berThreshold = 0.2

// negativeBER is the fixed BER value recorded on a negative resolution.
const negativeBER = 0.5

// Chain is the subset of *ledger.Chain the resolver depends on, kept small
// so it can be faked in tests without a real bbolt/file-backed chain.
type Chain interface {
	EmbedBlocks() ([]*ledger.Block, error)
}

// Resolver holds a read-only reference to the ledger it resolves against: a
// small struct holding one injected dependency (the chain); Resolve calls
// codec.Extract directly rather than through a stored function.
type Resolver struct {
	chain Chain
}

// New builds a Resolver over chain.
func New(chain Chain) *Resolver {
	return &Resolver{chain: chain}
}

// Record is the outcome of a resolution attempt, positive or negative.
type Record struct {
	Matched      bool
	BER          float64
	BlockNumber  int64
	BlockHash    string
	HashImageWat string
	Transaction  types.EmbedTransaction
	Info         string
}

// Resolve enumerates every embed transaction whose data_type matches
// dataType, runs trial extraction against the suspect image with each
// candidate's recorded parameters, and returns the first match under the
// BER threshold, in block order then sorted hash order within a block.
//
// Sorting by hash instead of map insertion order is a deliberate stand-in:
// Go's map iteration order is randomized, and the batch driver that would
// populate a transaction_dict with more than one entry is out of scope, so
// a stable tie-break is indistinguishable from "insertion order" in
// practice while staying deterministic here.
func (r *Resolver) Resolve(suspect *image.Matrix, dataType string) (Record, error) {
	blocks, err := r.chain.EmbedBlocks()
	if err != nil {
		return Record{}, err
	}

	for _, block := range blocks {
		var batch types.BatchEmbedTransaction
		if err := json.Unmarshal(block.Transaction, &batch); err != nil {
			return Record{}, err
		}

		hashes := make([]string, 0, len(batch.TransactionDict))
		for h := range batch.TransactionDict {
			hashes = append(hashes, h)
		}
		sort.Strings(hashes)

		for _, hash := range hashes {
			txn := batch.TransactionDict[hash]
			if txn.DataType != dataType {
				continue
			}

			params, err := paramsFromView(txn)
			if err != nil {
				continue
			}

			overflowBits, err := util.BinaryToBits(txn.OverflowMap)
			if err != nil {
				continue
			}

			result, err := codec.Extract(suspect, params, overflowBits)
			if err != nil {
				continue
			}

			wantBits, err := util.HexToBits(txn.Watermark)
			if err != nil {
				continue
			}

			ber := util.BER(result.Aggregated256, wantBits)
			if ber < berThreshold {
				return Record{
					Matched:      true,
					BER:          ber,
					BlockNumber:  block.Header.BlockNumber,
					BlockHash:    block.Hash,
					HashImageWat: hash,
					Transaction:  txn,
					Info:         "match",
				}, nil
			}
		}
	}

	return Record{
		Matched: false,
		BER:     negativeBER,
		Info:    "Image doesn't belong",
	}, nil
}

// paramsFromView rebuilds a codec.Params from the flat, JSON-safe view a
// transaction carries.
func paramsFromView(txn types.EmbedTransaction) (codec.Params, error) {
	kernel, err := codec.KernelFromFloatMatrix(txn.Kernel)
	if err != nil {
		return codec.Params{}, err
	}
	return codec.Params{
		Kernel:      kernel,
		Stride:      txn.Stride,
		ThresholdHi: txn.ThresholdHi,
		BitDepth:    txn.BitDepth,
		SecretKey:   txn.SecretKey,
	}, nil
}
