// Copyright 2026 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

// VectorDim is the dimension of stored embedding vectors.
const VectorDim = 3072

// Backend wraps a bun connection to PostgreSQL with pgvector.
type Backend struct {
	db     *bun.DB
	logger *slog.Logger
}

// Option configures a Backend.
type Option func(*backendOptions)

type backendOptions struct {
	verbose bool
}

// WithQueryLogging enables bundebug query logging on the connection.
func WithQueryLogging() Option {
	return func(o *backendOptions) {
		o.verbose = true
	}
}

// Open connects to PostgreSQL using the given DSN. The connection is
// established lazily; a bad DSN surfaces on first use, not here.
func Open(dsn string, opts ...Option) *Backend {
	var options backendOptions
	for _, opt := range opts {
		opt(&options)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if options.verbose {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	return &Backend{
		db:     db,
		logger: slog.Default().With("component", "postgres-backend"),
	}
}

// Init creates the pgvector extension, the tables, and the indexes the
// repositories depend on. Safe to call repeatedly.
func (b *Backend) Init(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return err
	}

	if _, err := b.db.NewCreateTable().Model((*chunkRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return err
	}
	if _, err := b.db.NewCreateTable().Model((*jobRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return err
	}

	// Approximate nearest neighbor index on cosine distance. ivfflat
	// refuses columns wider than 2000 dimensions, so the index is best
	// effort; without it SearchNearest still answers via a full scan.
	if _, err := b.db.ExecContext(ctx,
		"CREATE INDEX IF NOT EXISTS chunks_embedding_idx ON chunks USING ivfflat (embedding vector_cosine_ops)"); err != nil {
		b.logger.Warn("approximate nearest neighbor index unavailable", "err", err)
	}
	if _, err := b.db.ExecContext(ctx,
		"CREATE INDEX IF NOT EXISTS chunks_tenant_source_idx ON chunks (tenant_id, source_name)"); err != nil {
		return err
	}
	if _, err := b.db.ExecContext(ctx,
		"CREATE INDEX IF NOT EXISTS jobs_tenant_source_idx ON ingestion_jobs (tenant_id, source_name, created_at)"); err != nil {
		return err
	}

	b.logger.Info("postgres schema initialized")
	return nil
}

// DB exposes the underlying bun connection.
func (b *Backend) DB() *bun.DB {
	return b.db
}

// Close closes the database connection.
func (b *Backend) Close() error {
	return b.db.Close()
}
