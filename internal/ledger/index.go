package ledger

import (
	"encoding/json"

	"github.com/fxamacker/cbor/v2"
	bolt "go.etcd.io/bbolt"
)

var indexBucket = []byte("wat_index")

// indexEntry is the CBOR-encoded value stored per image hash: just the
// owning block number, since the JSON chain remains the source of truth for
// everything else.
type indexEntry struct {
	BlockNumber int64 `cbor:"block_number"`
}

// Index is a derived bbolt lookup cache mapping a watermarked-image hash to
// the block number that recorded its embed transaction. It is never
// authoritative: RebuildFrom can always reconstruct it from the JSON chain.
type Index struct {
	db *bolt.DB
}

// OpenIndex opens (creating if necessary) the bbolt index file at path.
func OpenIndex(path string) (*Index, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(indexBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

// Close releases the bbolt file handle.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// Get returns the block number indexed under imageHash, if any.
func (idx *Index) Get(imageHash string) (int64, bool, error) {
	var entry indexEntry
	found := false
	err := idx.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(indexBucket).Get([]byte(imageHash))
		if raw == nil {
			return nil
		}
		found = true
		return cbor.Unmarshal(raw, &entry)
	})
	if err != nil {
		return 0, false, err
	}
	return entry.BlockNumber, found, nil
}

// Set records that imageHash was embedded in blockNumber.
func (idx *Index) Set(imageHash string, blockNumber int64) error {
	raw, err := cbor.Marshal(indexEntry{BlockNumber: blockNumber})
	if err != nil {
		return err
	}
	return idx.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(indexBucket).Put([]byte(imageHash), raw)
	})
}

// RebuildFrom clears the index and repopulates it from every embed block's
// transaction dict, used on Open so a deleted or stale index file always
// self-heals from the authoritative JSON chain.
func (idx *Index) RebuildFrom(blocks []*Block) error {
	return idx.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(indexBucket)
		if err := tx.DeleteBucket(indexBucket); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		bucket, err := tx.CreateBucket(indexBucket)
		if err != nil {
			return err
		}

		for _, block := range blocks {
			if block.Info != InfoEmbedder {
				continue
			}
			var batch struct {
				TransactionDict map[string]json.RawMessage `json:"transaction_dict"`
			}
			if err := json.Unmarshal(block.Transaction, &batch); err != nil {
				return err
			}
			for hash := range batch.TransactionDict {
				raw, err := cbor.Marshal(indexEntry{BlockNumber: block.Header.BlockNumber})
				if err != nil {
					return err
				}
				if err := bucket.Put([]byte(hash), raw); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
