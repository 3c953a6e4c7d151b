package operations

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Bellafqira/HS-Wat-Blockchain/internal/codec"
	"github.com/Bellafqira/HS-Wat-Blockchain/internal/imageio"
	"github.com/Bellafqira/HS-Wat-Blockchain/internal/ledger"
	"github.com/Bellafqira/HS-Wat-Blockchain/internal/metrics"
	"github.com/Bellafqira/HS-Wat-Blockchain/internal/resolver"
	"github.com/Bellafqira/HS-Wat-Blockchain/internal/types"
	"github.com/Bellafqira/HS-Wat-Blockchain/internal/werrors"
	"github.com/Bellafqira/HS-Wat-Blockchain/pkg/util"
)

// RemoveRequest is the external interface object for one remove operation:
// the watermarked image path, where to write the recovered image and the
// extracted-watermark bit array, and the data type hint.
type RemoveRequest struct {
	DataPath   string
	SavePath   string
	ExtWatPath string
	DataType   string
}

// RemoveOutcome is the per-image result of one remove call.
type RemoveOutcome struct {
	Transaction types.RemoveTransaction
	SavedPath   string
}

// Remove reads the watermarked image at req.DataPath, finds the embed
// transaction that produced it (direct ledger lookup, falling back to the
// resolver), inverts the codec using that transaction's recorded
// parameters, writes the recovered image, and returns a RemoveTransaction;
// the caller appends it to the ledger. A resolution miss is fatal for this
// image: an unresolved provenance lookup fails the remove outright.
func Remove(req RemoveRequest, chain *ledger.Chain, res *resolver.Resolver) (RemoveOutcome, error) {
	loaded, err := imageio.Load(req.DataPath)
	if err != nil {
		return RemoveOutcome{}, err
	}

	dataType := req.DataType
	if dataType == "" {
		dataType = loaded.DataType
	}

	provenance, err := Resolve(req.DataPath, dataType, chain, res)
	if err != nil {
		return RemoveOutcome{}, err
	}
	if !provenance.Matched {
		return RemoveOutcome{}, werrors.New(werrors.NoMatchingTransaction, "no embed transaction matches the image to remove")
	}
	txn := provenance.Transaction

	kernel, err := codec.KernelFromFloatMatrix(txn.Kernel)
	if err != nil {
		return RemoveOutcome{}, fmt.Errorf("rebuild kernel from transaction: %w", err)
	}
	params := codec.Params{
		Kernel:      kernel,
		Stride:      txn.Stride,
		ThresholdHi: txn.ThresholdHi,
		BitDepth:    txn.BitDepth,
		SecretKey:   txn.SecretKey,
	}

	overflowBits, err := util.BinaryToBits(txn.OverflowMap)
	if err != nil {
		return RemoveOutcome{}, fmt.Errorf("decode recorded overflow map: %w", err)
	}

	result, err := codec.Extract(loaded.Matrix, params, overflowBits)
	if err != nil {
		return RemoveOutcome{}, err
	}

	recoveredHash := util.ContentHash(result.Recovered.Rows16())
	if recoveredHash != txn.HashImageOrig {
		return RemoveOutcome{}, werrors.New(werrors.CodecAssertionFailed,
			"recovered image hash does not match hash_image_orig recorded on the embed transaction")
	}

	wantBits, err := util.HexToBits(txn.Watermark)
	if err != nil {
		return RemoveOutcome{}, fmt.Errorf("decode recorded watermark: %w", err)
	}
	ber := util.BER(result.Aggregated256, wantBits)

	savedPath := ""
	if req.SavePath != "" {
		savedPath = withPrefix(req.SavePath, "recovered_")
		if err := imageio.Save(savedPath, result.Recovered, loaded); err != nil {
			return RemoveOutcome{}, fmt.Errorf("save recovered image: %w", err)
		}
	}

	extractedHex := util.BitsToHex(result.Aggregated256)
	if req.ExtWatPath != "" {
		if err := writeBitArray(req.ExtWatPath, result.Aggregated256); err != nil {
			return RemoveOutcome{}, fmt.Errorf("write extracted watermark: %w", err)
		}
	}

	out := types.RemoveTransaction{
		Timestamp:            time.Now().UTC().Format(time.RFC3339),
		OperationType:        "remove",
		OriginalImageHash:    txn.HashImageOrig,
		WatermarkedImageHash: txn.HashImageWat,
		RecoveredImageHash:   recoveredHash,
		ExtractionBER:        ber,
		OriginalWatermark:    txn.Watermark,
		ExtractedWatermark:   extractedHex,
		RemovalParameters: types.CodecParamsView{
			Kernel:      kernel.ToFloatMatrix(),
			Stride:      params.Stride,
			ThresholdHi: params.ThresholdHi,
			BitDepth:    params.BitDepth,
		},
	}

	return RemoveOutcome{Transaction: out, SavedPath: savedPath}, nil
}

// BatchRemove mirrors BatchEmbed: it runs Remove over dataPaths concurrently,
// then appends a single RemoveTransaction batch block once every per-image
// result is in hand.
func BatchRemove(ctx context.Context, chain *ledger.Chain, res *resolver.Resolver, dataPaths []string, reqFor func(path string) RemoveRequest, concurrency int, logger *zap.Logger) (types.BatchRemoveTransaction, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	outcomes := make(map[string]RemoveOutcome, len(dataPaths))
	var mu sync.Mutex

	errs := runPool(ctx, dataPaths, concurrency, func(path string) error {
		outcome, err := Remove(reqFor(path), chain, res)
		if err != nil {
			logger.Warn("remove failed for image", zap.String("path", path), zap.Error(err))
			return err
		}
		mu.Lock()
		outcomes[path] = outcome
		mu.Unlock()
		return nil
	})

	batch := types.BatchRemoveTransaction{
		TotalImages:     len(dataPaths),
		TransactionDict: make(map[string]types.RemoveTransaction, len(outcomes)),
	}
	var berSum float64
	for path, err := range errs {
		if err != nil {
			batch.FailedImages = append(batch.FailedImages, path)
			continue
		}
		outcome := outcomes[path]
		batch.ProcessedImages++
		batch.TransactionDict[outcome.Transaction.WatermarkedImageHash] = outcome.Transaction
		berSum += outcome.Transaction.ExtractionBER
		metrics.RemoveTotal.Inc()
	}
	if batch.ProcessedImages > 0 {
		batch.AverageBER = berSum / float64(batch.ProcessedImages)
	}

	if batch.ProcessedImages == 0 {
		return batch, nil
	}
	if ctx.Err() != nil {
		return batch, ctx.Err()
	}

	if _, err := chain.AppendRemove(batch); err != nil {
		return batch, err
	}
	metrics.LedgerHeight.Set(float64(chain.Height()))

	return batch, nil
}
