package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
	"github.com/uptrace/bun"
)

// ChunkRepository implements storage.ChunkRepository on PostgreSQL with
// pgvector.
type ChunkRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a chunk repository on the given backend.
func NewChunkRepository(backend *Backend) *ChunkRepository {
	return &ChunkRepository{
		backend: backend,
		logger:  slog.Default().With("component", "chunk-repository"),
	}
}

// AppendBatch persists a batch of chunks in a single transaction.
func (r *ChunkRepository) AppendBatch(ctx context.Context, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	rows := make([]*chunkRow, len(chunks))
	for i, chunk := range chunks {
		if err := core.ValidateChunk(chunk, VectorDim); err != nil {
			return fmt.Errorf("%w: chunk %d: %v", storage.ErrInvalidQuery, i, err)
		}
		rows[i] = chunkToRow(chunk)
	}

	err := r.backend.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&rows).Exec(ctx)
		return err
	})
	if err != nil {
		r.logger.Error("batch insert failed", "chunks", len(chunks), "err", err)
		return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}

	// Propagate generated IDs back to the domain objects.
	for i, row := range rows {
		chunks[i].ID = row.ID
	}
	return nil
}

// DeleteSource removes every chunk a tenant holds for a source name.
func (r *ChunkRepository) DeleteSource(ctx context.Context, tenant core.TenantID, sourceName string) (int, error) {
	res, err := r.backend.db.NewDelete().
		Model((*chunkRow)(nil)).
		Where("tenant_id = ?", int64(tenant)).
		Where("source_name = ?", sourceName).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		r.logger.Debug("replaced existing source", "tenant", tenant, "source", sourceName, "removed", affected)
	}
	return int(affected), nil
}

// CountBySource returns the number of chunks a tenant holds for a source.
func (r *ChunkRepository) CountBySource(ctx context.Context, tenant core.TenantID, sourceName string) (int, error) {
	return r.backend.db.NewSelect().
		Model((*chunkRow)(nil)).
		Where("tenant_id = ?", int64(tenant)).
		Where("source_name = ?", sourceName).
		Count(ctx)
}

// SearchNearest returns up to k chunks ordered by ascending cosine
// distance to the query vector.
func (r *ChunkRepository) SearchNearest(ctx context.Context, tenant core.TenantID, vector []float32, k int) ([]*core.Chunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", storage.ErrInvalidQuery)
	}
	if err := core.ValidateVector(vector, VectorDim); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidQuery, err)
	}

	var rows []*chunkRow
	err := r.backend.db.NewSelect().
		Model(&rows).
		Where("tenant_id = ?", int64(tenant)).
		OrderExpr("embedding <=> ?", pgVector(vector)).
		Limit(k).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	chunks := make([]*core.Chunk, len(rows))
	for i, row := range rows {
		chunks[i] = rowToChunk(row)
	}
	return chunks, nil
}

// PurgeOlderThan removes every chunk created before the cutoff.
func (r *ChunkRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.backend.db.NewDelete().
		Model((*chunkRow)(nil)).
		Where("created_at < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	r.logger.Info("purged old chunks", "cutoff", cutoff, "removed", affected)
	return int(affected), nil
}

// Close closes the underlying backend.
func (r *ChunkRepository) Close() error {
	return r.backend.Close()
}
