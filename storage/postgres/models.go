package postgres

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/corpus/core"
	"github.com/uptrace/bun"
)

// pgVector marshals a []float32 to and from the pgvector text literal,
// e.g. "[0.1,0.2,0.3]".
type pgVector []float32

var (
	_ driver.Valuer = (pgVector)(nil)
	_ sql.Scanner   = (*pgVector)(nil)
)

func (v pgVector) Value() (driver.Value, error) {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String(), nil
}

func (v *pgVector) Scan(src any) error {
	var literal string
	switch s := src.(type) {
	case nil:
		*v = nil
		return nil
	case string:
		literal = s
	case []byte:
		literal = string(s)
	default:
		return fmt.Errorf("cannot scan %T into vector", src)
	}

	literal = strings.TrimSpace(literal)
	if !strings.HasPrefix(literal, "[") || !strings.HasSuffix(literal, "]") {
		return fmt.Errorf("malformed vector literal %q", literal)
	}
	literal = literal[1 : len(literal)-1]
	if literal == "" {
		*v = pgVector{}
		return nil
	}

	parts := strings.Split(literal, ",")
	out := make(pgVector, len(parts))
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return fmt.Errorf("malformed vector component %q: %w", part, err)
		}
		out[i] = float32(f)
	}
	*v = out
	return nil
}

// chunkRow is the bun model for the chunks table.
type chunkRow struct {
	bun.BaseModel `bun:"table:chunks,alias:c"`

	ID          int64             `bun:"id,pk,autoincrement"`
	TenantID    int64             `bun:"tenant_id,notnull"`
	SourceName  string            `bun:"source_name,notnull"`
	SourceType  string            `bun:"source_type,notnull"`
	Index       int               `bun:"chunk_index,notnull"`
	Text        string            `bun:"chunk_text,notnull"`
	StartOffset int               `bun:"start_offset,notnull"`
	EndOffset   int               `bun:"end_offset,notnull"`
	Page        int               `bun:"page,notnull"`
	Embedding   pgVector          `bun:"embedding,notnull,type:vector(3072)"`
	Metadata    map[string]string `bun:"metadata,type:jsonb"`
	CreatedAt   time.Time         `bun:"created_at,notnull,default:current_timestamp"`
}

func chunkToRow(chunk *core.Chunk) *chunkRow {
	return &chunkRow{
		ID:          chunk.ID,
		TenantID:    int64(chunk.TenantID),
		SourceName:  chunk.SourceName,
		SourceType:  string(chunk.SourceType),
		Index:       chunk.Index,
		Text:        chunk.Text,
		StartOffset: chunk.StartOffset,
		EndOffset:   chunk.EndOffset,
		Page:        chunk.Page,
		Embedding:   pgVector(chunk.Vector),
		Metadata:    chunk.Metadata,
		CreatedAt:   chunk.CreatedAt,
	}
}

func rowToChunk(row *chunkRow) *core.Chunk {
	return &core.Chunk{
		ID:          row.ID,
		TenantID:    core.TenantID(row.TenantID),
		SourceName:  row.SourceName,
		SourceType:  core.SourceType(row.SourceType),
		Index:       row.Index,
		Text:        row.Text,
		StartOffset: row.StartOffset,
		EndOffset:   row.EndOffset,
		Page:        row.Page,
		Vector:      []float32(row.Embedding),
		Metadata:    row.Metadata,
		CreatedAt:   row.CreatedAt,
	}
}

// jobRow is the bun model for the ingestion_jobs table.
type jobRow struct {
	bun.BaseModel `bun:"table:ingestion_jobs,alias:j"`

	ID            string     `bun:"id,pk"`
	TenantID      int64      `bun:"tenant_id,notnull"`
	SourceName    string     `bun:"source_name,notnull"`
	SourcePath    string     `bun:"source_path,notnull"`
	SourceType    string     `bun:"source_type,notnull"`
	Status        string     `bun:"status,notnull"`
	Error         string     `bun:"error,nullzero"`
	ChunksWritten int        `bun:"chunks_written,notnull,default:0"`
	CreatedAt     time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	StartedAt     *time.Time `bun:"started_at"`
	CompletedAt   *time.Time `bun:"completed_at"`
}

func jobToRow(job *core.IngestionJob) *jobRow {
	return &jobRow{
		ID:            string(job.ID),
		TenantID:      int64(job.TenantID),
		SourceName:    job.SourceName,
		SourcePath:    job.SourcePath,
		SourceType:    string(job.SourceType),
		Status:        string(job.Status),
		Error:         job.Error,
		ChunksWritten: job.ChunksWritten,
		CreatedAt:     job.CreatedAt,
		StartedAt:     job.StartedAt,
		CompletedAt:   job.CompletedAt,
	}
}

func rowToJob(row *jobRow) *core.IngestionJob {
	return &core.IngestionJob{
		ID:            core.JobID(row.ID),
		TenantID:      core.TenantID(row.TenantID),
		SourceName:    row.SourceName,
		SourcePath:    row.SourcePath,
		SourceType:    core.SourceType(row.SourceType),
		Status:        core.JobStatus(row.Status),
		Error:         row.Error,
		ChunksWritten: row.ChunksWritten,
		CreatedAt:     row.CreatedAt,
		StartedAt:     row.StartedAt,
		CompletedAt:   row.CompletedAt,
	}
}
