package badger

import (
	"context"
	"encoding/binary"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/answerit/core"
	"github.com/poiesic/answerit/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (storage.DocumentRepository, error) {
	return &DocumentRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *DocumentRepository) Close() error {
	return nil
}

// Upsert stores chunks, overwriting entries with the same content id.
func (r *DocumentRepository) Upsert(ctx context.Context, docs ...*core.IndexedDocument) error {
	for _, doc := range docs {
		if err := core.ValidateIndexedDocument(doc); err != nil {
			return err
		}
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		touched := make(map[string]storage.Filter)
		for _, doc := range docs {
			if doc.Id == 0 {
				doc.Id = core.IDFromContent(doc.Content)
			}
			if doc.InsertedAt.IsZero() {
				doc.InsertedAt = time.Now().UTC()
			}

			value, err := storage.MarshalIndexedDocument(doc)
			if err != nil {
				return err
			}
			key := makeDocumentKey(doc.UserID, doc.ThreadID, doc.Id)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			f := storage.Filter{UserID: doc.UserID, ThreadID: doc.ThreadID}
			touched[doc.UserID+"/"+doc.ThreadID] = f
			touched[doc.UserID] = storage.Filter{UserID: doc.UserID}
		}

		for _, f := range touched {
			if err := bumpVersion(tx, f); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Exists reports whether a chunk with the given content id is already
// indexed within the filter scope.
func (r *DocumentRepository) Exists(ctx context.Context, filter storage.Filter, id core.ID) (bool, error) {
	if err := filter.Validate(); err != nil {
		return false, err
	}
	if filter.ThreadID == "" {
		return false, storage.ErrInvalidFilter
	}

	exists := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeDocumentKey(filter.UserID, filter.ThreadID, id))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	}, false)

	return exists, err
}

// SearchByVector returns the k nearest chunks within the filter scope,
// ordered by similarity descending. Similarity is the dot product, which
// equals cosine similarity for the normalized vectors the embedder emits.
func (r *DocumentRepository) SearchByVector(ctx context.Context, vector []float32, filter storage.Filter, k int) ([]core.IndexMatch, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	var results []core.IndexMatch
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDocumentPrefix(filter)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var doc *core.IndexedDocument
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalIndexedDocument(val)
				return err
			}); err != nil {
				return err
			}
			if len(doc.Vector) == 0 {
				continue
			}
			results = append(results, core.IndexMatch{
				Doc:   doc,
				Score: dotProduct(vector, doc.Vector),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b core.IndexMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Scan returns every chunk within the filter scope.
func (r *DocumentRepository) Scan(ctx context.Context, filter storage.Filter) ([]*core.IndexedDocument, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	var docs []*core.IndexedDocument
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDocumentPrefix(filter)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var doc *core.IndexedDocument
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalIndexedDocument(val)
				return err
			}); err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		return nil
	}, false)

	return docs, err
}

// Version returns the scope's change counter. A scope that has never been
// written reports zero.
func (r *DocumentRepository) Version(ctx context.Context, filter storage.Filter) (uint64, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}

	var version uint64
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeVersionKey(filter))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			version = binary.BigEndian.Uint64(val)
			return nil
		})
	}, false)

	return version, err
}

// DeleteByFilter removes every chunk within the filter scope.
func (r *DocumentRepository) DeleteByFilter(ctx context.Context, filter storage.Filter) error {
	if err := filter.Validate(); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		keys, err := collectKeys(tx, makeDocumentPrefix(filter))
		if err != nil {
			return err
		}
		for _, k := range keys {
			if err := tx.Delete(k); err != nil {
				return err
			}
		}

		if filter.ThreadID == "" {
			// User-wide delete drops every per-thread counter too.
			verKeys, err := collectKeys(tx, makeVersionThreadPrefix(filter.UserID))
			if err != nil {
				return err
			}
			for _, k := range verKeys {
				if err := tx.Delete(k); err != nil {
					return err
				}
			}
		}

		if err := bumpVersion(tx, filter); err != nil {
			return err
		}
		if filter.ThreadID != "" {
			if err := bumpVersion(tx, storage.Filter{UserID: filter.UserID}); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Helper methods

// bumpVersion increments a scope's change counter within the transaction.
func bumpVersion(tx *badger.Txn, filter storage.Filter) error {
	key := makeVersionKey(filter)
	var current uint64

	item, err := tx.Get(key)
	if err == nil {
		if err := item.Value(func(val []byte) error {
			current = binary.BigEndian.Uint64(val)
			return nil
		}); err != nil {
			return err
		}
	} else if err != badger.ErrKeyNotFound {
		return err
	}

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, current+1)
	return tx.Set(key, buf)
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
