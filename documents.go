package lexgo

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/lexgo/document"
	"github.com/hupe1980/lexgo/engine"
)

// AddDocuments adds documents to the index, replacing any existing
// document sharing the same primary-key value.
//
// The operation is atomic: either every document is indexed and committed,
// or the index is unchanged. Content errors reported by the engine's inner
// validation stage (missing or invalid primary keys) abort the transaction
// and surface as ErrInvalidDocument.
func (ix *Index) AddDocuments(ctx context.Context, docs []document.Document) error {
	start := time.Now()
	err := ix.writeDocuments(ctx, docs, false)
	ix.opts.metricsCollector.RecordIndexing(len(docs), time.Since(start), err)
	ix.opts.logger.LogIndexing(ctx, len(docs), false, err)
	return err
}

// SetDocuments replaces the entire document set with docs in one
// transaction. Readers observe either the old set or the new set, never a
// mixture or an empty intermediate state.
func (ix *Index) SetDocuments(ctx context.Context, docs []document.Document) error {
	start := time.Now()
	err := ix.writeDocuments(ctx, docs, true)
	ix.opts.metricsCollector.RecordIndexing(len(docs), time.Since(start), err)
	ix.opts.logger.LogIndexing(ctx, len(docs), true, err)
	return err
}

func (ix *Index) writeDocuments(ctx context.Context, docs []document.Document, replaceAll bool) error {
	wtxn, err := ix.env.WriteTxn()
	if err != nil {
		return fmt.Errorf("lexgo: %w", translateError(err))
	}

	if replaceAll {
		clr := engine.NewClearDocuments(wtxn)
		if _, err := clr.Execute(); err != nil {
			wtxn.Abort()
			return fmt.Errorf("lexgo: %w", translateError(err))
		}
	}

	// Constant never-stop check: a submitted batch runs to completion even
	// if the caller's context is cancelled mid-flight.
	indexer, err := engine.NewIndexDocuments(wtxn, nil, func() bool { return false })
	if err != nil {
		wtxn.Abort()
		return fmt.Errorf("lexgo: %w", translateError(err))
	}

	builder := engine.NewBatchBuilder()
	for _, doc := range docs {
		if err := builder.AppendObject(doc); err != nil {
			wtxn.Abort()
			return fmt.Errorf("lexgo: %w", translateError(err))
		}
	}

	// The addition outcome is two-stage: the outer error covers batch
	// mechanics, the inner result covers user data. Both are checked.
	result, err := indexer.AddDocuments(builder.Finish())
	if err != nil {
		wtxn.Abort()
		return fmt.Errorf("lexgo: %w", translateError(err))
	}
	if result.Error != nil {
		wtxn.Abort()
		return fmt.Errorf("lexgo: %w", translateError(result.Error))
	}

	if err := indexer.Execute(); err != nil {
		wtxn.Abort()
		return fmt.Errorf("lexgo: %w", translateError(err))
	}

	if err := wtxn.Commit(); err != nil {
		return fmt.Errorf("lexgo: commit: %w", translateError(err))
	}
	return nil
}

// DeleteDocuments deletes the documents identified by ids and reports how
// many were actually removed. Unknown identifiers are ignored.
func (ix *Index) DeleteDocuments(ctx context.Context, ids []string) (uint64, error) {
	start := time.Now()
	deleted, err := ix.deleteDocuments(ids)
	ix.opts.metricsCollector.RecordDelete(deleted, time.Since(start), err)
	ix.opts.logger.LogDelete(ctx, len(ids), deleted, err)
	return deleted, err
}

func (ix *Index) deleteDocuments(ids []string) (uint64, error) {
	wtxn, err := ix.env.WriteTxn()
	if err != nil {
		return 0, fmt.Errorf("lexgo: %w", translateError(err))
	}

	del, err := engine.NewDeleteDocuments(wtxn)
	if err != nil {
		wtxn.Abort()
		return 0, fmt.Errorf("lexgo: %w", translateError(err))
	}
	for _, id := range ids {
		del.DeleteExternalID(id)
	}

	deleted, err := del.Execute()
	if err != nil {
		wtxn.Abort()
		return 0, fmt.Errorf("lexgo: %w", translateError(err))
	}

	if err := wtxn.Commit(); err != nil {
		return 0, fmt.Errorf("lexgo: commit: %w", translateError(err))
	}
	return deleted, nil
}

// DeleteAllDocuments removes every document while preserving the index
// settings. It reports the number of removed documents.
func (ix *Index) DeleteAllDocuments(ctx context.Context) (uint64, error) {
	start := time.Now()
	deleted, err := ix.deleteAllDocuments()
	ix.opts.metricsCollector.RecordDelete(deleted, time.Since(start), err)
	ix.opts.logger.LogDelete(ctx, -1, deleted, err)
	return deleted, err
}

func (ix *Index) deleteAllDocuments() (uint64, error) {
	wtxn, err := ix.env.WriteTxn()
	if err != nil {
		return 0, fmt.Errorf("lexgo: %w", translateError(err))
	}

	clr := engine.NewClearDocuments(wtxn)
	deleted, err := clr.Execute()
	if err != nil {
		wtxn.Abort()
		return 0, fmt.Errorf("lexgo: %w", translateError(err))
	}

	if err := wtxn.Commit(); err != nil {
		return 0, fmt.Errorf("lexgo: commit: %w", translateError(err))
	}
	return deleted, nil
}

// GetDocument fetches one document by its primary-key value. A miss is a
// normal outcome reported through ok, not an error.
func (ix *Index) GetDocument(id string) (document.Document, bool, error) {
	rtxn, err := ix.env.ReadTxn()
	if err != nil {
		return nil, false, fmt.Errorf("lexgo: %w", translateError(err))
	}
	defer rtxn.Close()

	docID, ok := rtxn.LookupExternalID(id)
	if !ok {
		return nil, false, nil
	}
	doc, err := rtxn.Document(docID)
	if err != nil {
		return nil, false, fmt.Errorf("lexgo: %w", translateError(err))
	}
	return doc, true, nil
}

// GetAllDocuments returns every document in the engine's storage order.
func (ix *Index) GetAllDocuments() ([]document.Document, error) {
	rtxn, err := ix.env.ReadTxn()
	if err != nil {
		return nil, fmt.Errorf("lexgo: %w", translateError(err))
	}
	defer rtxn.Close()

	docs, err := rtxn.Documents(rtxn.AllDocumentIDs())
	if err != nil {
		return nil, fmt.Errorf("lexgo: %w", translateError(err))
	}
	return docs, nil
}

// NumberOfDocuments returns the committed document count.
func (ix *Index) NumberOfDocuments() (uint64, error) {
	rtxn, err := ix.env.ReadTxn()
	if err != nil {
		return 0, fmt.Errorf("lexgo: %w", translateError(err))
	}
	defer rtxn.Close()
	return rtxn.NumberOfDocuments(), nil
}
