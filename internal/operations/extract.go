package operations

import (
	"github.com/Bellafqira/HS-Wat-Blockchain/internal/imageio"
	"github.com/Bellafqira/HS-Wat-Blockchain/internal/ledger"
	"github.com/Bellafqira/HS-Wat-Blockchain/internal/metrics"
	"github.com/Bellafqira/HS-Wat-Blockchain/internal/resolver"
	"github.com/Bellafqira/HS-Wat-Blockchain/internal/types"
	"github.com/Bellafqira/HS-Wat-Blockchain/pkg/util"
)

// ProvenanceResult is the outcome of a provenance/extract request: either a
// direct ledger hit or a resolved (or negative) resolver record.
type ProvenanceResult struct {
	Matched     bool
	BER         float64
	BlockNumber int64
	BlockHash   string
	Transaction types.EmbedTransaction
	Info        string
}

// Resolve looks the suspect image's content hash up directly in the ledger;
// on a miss, it falls back to the resolver's trial-extraction scan.
func Resolve(dataPath, dataType string, chain *ledger.Chain, res *resolver.Resolver) (ProvenanceResult, error) {
	loaded, err := imageio.Load(dataPath)
	if err != nil {
		return ProvenanceResult{}, err
	}

	hash := util.ContentHash(loaded.Matrix.Rows16())
	txn, history, ok, err := chain.Lookup(hash)
	if err != nil {
		return ProvenanceResult{}, err
	}
	if ok {
		return ProvenanceResult{
			Matched:     true,
			BER:         history.BER,
			BlockNumber: history.BlockNumber,
			BlockHash:   history.BlockHash,
			Transaction: txn,
			Info:        "direct",
		}, nil
	}

	record, err := res.Resolve(loaded.Matrix, dataType)
	if err != nil {
		return ProvenanceResult{}, err
	}

	if record.Matched {
		metrics.ResolverMatchesTotal.Inc()
	} else {
		metrics.ResolverMissesTotal.Inc()
	}
	metrics.ResolverBER.Observe(record.BER)

	if !record.Matched {
		return ProvenanceResult{
			Matched: false,
			BER:     record.BER,
			Info:    record.Info,
		}, nil
	}

	return ProvenanceResult{
		Matched:     true,
		BER:         record.BER,
		BlockNumber: record.BlockNumber,
		BlockHash:   record.BlockHash,
		Transaction: record.Transaction,
		Info:        record.Info,
	}, nil
}
