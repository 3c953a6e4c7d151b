// Package operations wires imageio, codec, types, and ledger together into
// the three external operations this system exposes: embed, remove, and
// extract/provenance-resolve.
package operations

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Bellafqira/HS-Wat-Blockchain/internal/codec"
	"github.com/Bellafqira/HS-Wat-Blockchain/internal/config"
	"github.com/Bellafqira/HS-Wat-Blockchain/internal/imageio"
	"github.com/Bellafqira/HS-Wat-Blockchain/internal/ledger"
	"github.com/Bellafqira/HS-Wat-Blockchain/internal/metrics"
	"github.com/Bellafqira/HS-Wat-Blockchain/internal/types"
	"github.com/Bellafqira/HS-Wat-Blockchain/pkg/util"
)

// EmbedOutcome is the per-image result of one embed call.
type EmbedOutcome struct {
	Transaction types.EmbedTransaction
	Stats       codec.EmbedStats
	SavedPath   string
}

// Embed loads req.DataPath, embeds SHA-256(req.Message) as the watermark
// using req's (defaulted) codec parameters, optionally writes the
// watermarked image to req.SavePath, and returns the per-image outcome
// without touching the ledger; callers append it via BatchEmbed.
func Embed(req config.EmbedRequest) (EmbedOutcome, error) {
	loaded, err := imageio.Load(req.DataPath)
	if err != nil {
		return EmbedOutcome{}, err
	}

	dataType := req.DataType
	if dataType == "" {
		dataType = loaded.DataType
	}

	resolved, err := config.Resolve(req, loaded.Matrix.BitDepth)
	if err != nil {
		return EmbedOutcome{}, err
	}

	watermarkHex := util.ContentHashBytes([]byte(req.Message))
	watermarkBits, err := util.HexToBits(watermarkHex)
	if err != nil {
		return EmbedOutcome{}, fmt.Errorf("derive watermark bits from message hash: %w", err)
	}

	watermarked, stats, err := codec.Embed(loaded.Matrix, resolved.Params, watermarkBits)
	if err != nil {
		return EmbedOutcome{}, err
	}

	hashOrig := util.ContentHash(loaded.Matrix.Rows16())
	hashWat := util.ContentHash(watermarked.Rows16())

	savedPath := ""
	if req.SavePath != "" {
		savedPath = withPrefix(req.SavePath, "watermarked_")
		if err := imageio.Save(savedPath, watermarked, loaded); err != nil {
			return EmbedOutcome{}, fmt.Errorf("save watermarked image: %w", err)
		}
	}

	txn := types.NewEmbedTransaction(
		time.Now().UTC().Format(time.RFC3339),
		dataType,
		hashOrig,
		hashWat,
		resolved.Params.SecretKey,
		req.Message,
		watermarkHex,
		util.BitsToBinary(stats.OverflowBits),
		types.CodecParamsView{
			Kernel:      resolved.Params.Kernel.ToFloatMatrix(),
			Stride:      resolved.Params.Stride,
			ThresholdHi: resolved.Params.ThresholdHi,
			BitDepth:    resolved.Params.BitDepth,
		},
	)

	return EmbedOutcome{Transaction: txn, Stats: stats, SavedPath: savedPath}, nil
}

// BatchEmbed runs Embed over every path in dataPaths concurrently, then
// appends exactly one ledger block for the whole batch: a short critical
// section entered only once every per-image result is in hand, so a
// cancelled batch never leaves a partial batch transaction behind.
func BatchEmbed(ctx context.Context, chain *ledger.Chain, dataPaths []string, reqFor func(path string) config.EmbedRequest, concurrency int, logger *zap.Logger) (types.BatchEmbedTransaction, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	outcomes := make(map[string]EmbedOutcome, len(dataPaths))
	var poolMu sync.Mutex

	errs := runPool(ctx, dataPaths, concurrency, func(path string) error {
		outcome, err := Embed(reqFor(path))
		if err != nil {
			logger.Warn("embed failed for image", zap.String("path", path), zap.Error(err))
			return err
		}
		poolMu.Lock()
		outcomes[path] = outcome
		poolMu.Unlock()
		return nil
	})

	batch := types.BatchEmbedTransaction{
		TotalImages:     len(dataPaths),
		TransactionDict: make(map[string]types.EmbedTransaction, len(outcomes)),
	}
	for path, err := range errs {
		if err != nil {
			batch.FailedImages = append(batch.FailedImages, path)
			metrics.EmbedFailedTotal.Inc()
			continue
		}
		outcome := outcomes[path]
		batch.ProcessedImages++
		batch.TransactionDict[outcome.Transaction.HashImageWat] = outcome.Transaction
		metrics.EmbedTotal.Inc()
		metrics.OverflowPositionsTotal.Add(float64(outcome.Stats.OverflowCount))
	}

	if batch.ProcessedImages == 0 {
		return batch, nil
	}

	if ctx.Err() != nil {
		return batch, ctx.Err()
	}

	if _, err := chain.AppendEmbed(batch); err != nil {
		return batch, err
	}
	metrics.LedgerHeight.Set(float64(chain.Height()))

	return batch, nil
}

// withPrefix inserts prefix before the base filename of path, preserving
// its directory.
func withPrefix(path, prefix string) string {
	dir, base := filepath.Split(path)
	return filepath.Join(dir, prefix+base)
}
