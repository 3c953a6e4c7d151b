// Package types defines the transaction records the ledger persists: embed,
// remove, and their batch aggregates.
package types

// CodecParamsView is the JSON-serializable form of codec.Params carried
// inside every transaction, so a later remove/extract/resolve call can
// rebuild an identical codec.Params without importing internal/codec's
// fixed-point representation directly (keeping this package dependency-light,
// mirroring internal/types/payout.go's small flat data-class style).
type CodecParamsView struct {
	Kernel      [][]float64 `json:"kernel"`
	Stride      int         `json:"stride"`
	ThresholdHi int         `json:"t_hi"`
	BitDepth    int         `json:"bit_depth"`
}

// EmbedTransaction records one embed operation: the image hashes before and
// after, the codec parameters used, the watermark itself, and the overflow
// map codec.Extract needs to reverse this exact embed (see
// codec.EmbedStats.OverflowBits).
type EmbedTransaction struct {
	Timestamp     string `json:"timestamp"`
	DataType      string `json:"data_type"`
	HashImageOrig string `json:"hash_image_orig"`
	HashImageWat  string `json:"hash_image_wat"`
	SecretKey     string `json:"secret_key"`
	Message       string `json:"message"`
	Watermark     string `json:"watermark"`
	OverflowMap   string `json:"overflow_map"`
	CodecParamsView
	Info string `json:"info"`
}

// NewEmbedTransaction builds an EmbedTransaction with info fixed to
// "embedder".
func NewEmbedTransaction(timestamp, dataType, hashOrig, hashWat, secretKey, message, watermark, overflowMap string, params CodecParamsView) EmbedTransaction {
	return EmbedTransaction{
		Timestamp:       timestamp,
		DataType:        dataType,
		HashImageOrig:   hashOrig,
		HashImageWat:    hashWat,
		SecretKey:       secretKey,
		Message:         message,
		Watermark:       watermark,
		OverflowMap:     overflowMap,
		CodecParamsView: params,
		Info:            "embedder",
	}
}

// RemoveTransaction records one watermark-removal operation.
type RemoveTransaction struct {
	Timestamp            string          `json:"timestamp"`
	OperationType        string          `json:"operation_type"`
	OriginalImageHash    string          `json:"original_image_hash"`
	WatermarkedImageHash string          `json:"watermarked_image_hash"`
	RecoveredImageHash   string          `json:"recovered_image_hash"`
	ExtractionBER        float64         `json:"extraction_ber"`
	OriginalWatermark    string          `json:"original_watermark"`
	ExtractedWatermark   string          `json:"extracted_watermark"`
	RemovalParameters    CodecParamsView `json:"removal_parameters"`
}

// BatchEmbedTransaction wraps a set of embed transactions keyed by the
// resulting watermarked-image hash, plus summary counters. A single-image
// embed request still produces one of these, with exactly one entry in
// TransactionDict. The batch data model applies uniformly regardless of how
// many images a driver loop happens to submit at once.
type BatchEmbedTransaction struct {
	TotalImages      int                         `json:"total_images"`
	ProcessedImages  int                         `json:"processed_images"`
	FailedImages     []string                    `json:"failed_images"`
	TransactionDict  map[string]EmbedTransaction `json:"transaction_dict"`
	ProcessingTimeMS int64                       `json:"processing_time_ms"`
}

// BatchRemoveTransaction is the remove-path counterpart of BatchEmbedTransaction.
type BatchRemoveTransaction struct {
	TotalImages      int                          `json:"total_images"`
	ProcessedImages  int                          `json:"processed_images"`
	FailedImages     []string                     `json:"failed_images"`
	TransactionDict  map[string]RemoveTransaction `json:"transaction_dict"`
	AverageBER       float64                      `json:"average_ber"`
	ProcessingTimeMS int64                        `json:"processing_time_ms"`
}
