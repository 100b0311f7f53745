package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// ddlRecorder is a database/sql driver that records every executed
// statement and fails the ones containing failOn. It lets schema setup
// run without a server.
type ddlRecorder struct {
	mu       sync.Mutex
	executed []string
	failOn   string
}

func (r *ddlRecorder) statements() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.executed...)
}

func (r *ddlRecorder) Connect(context.Context) (driver.Conn, error) {
	return recorderConn{rec: r}, nil
}

func (r *ddlRecorder) Driver() driver.Driver {
	return recorderDriver{rec: r}
}

type recorderDriver struct {
	rec *ddlRecorder
}

func (d recorderDriver) Open(string) (driver.Conn, error) {
	return recorderConn{rec: d.rec}, nil
}

type recorderConn struct {
	rec *ddlRecorder
}

func (c recorderConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (c recorderConn) Close() error {
	return nil
}

func (c recorderConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

func (c recorderConn) ExecContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	c.rec.mu.Lock()
	defer c.rec.mu.Unlock()
	c.rec.executed = append(c.rec.executed, query)
	if c.rec.failOn != "" && strings.Contains(query, c.rec.failOn) {
		return nil, errors.New("column cannot have more than 2000 dimensions for ivfflat index")
	}
	return driver.RowsAffected(0), nil
}

func newRecordedBackend(rec *ddlRecorder) *Backend {
	sqldb := sql.OpenDB(rec)
	return &Backend{
		db:     bun.NewDB(sqldb, pgdialect.New()),
		logger: slog.Default().With("component", "postgres-backend"),
	}
}

func hasStatementContaining(statements []string, fragment string) bool {
	for _, stmt := range statements {
		if strings.Contains(stmt, fragment) {
			return true
		}
	}
	return false
}

func TestBackend_InitCreatesSchema(t *testing.T) {
	rec := &ddlRecorder{}
	b := newRecordedBackend(rec)
	defer b.Close()

	require.NoError(t, b.Init(context.Background()))

	statements := rec.statements()
	assert.True(t, hasStatementContaining(statements, "CREATE EXTENSION IF NOT EXISTS vector"))
	assert.True(t, hasStatementContaining(statements, "chunks"))
	assert.True(t, hasStatementContaining(statements, "ingestion_jobs"))
	assert.True(t, hasStatementContaining(statements, "chunks_embedding_idx"))
	assert.True(t, hasStatementContaining(statements, "chunks_tenant_source_idx"))
	assert.True(t, hasStatementContaining(statements, "jobs_tenant_source_idx"))
}

func TestBackend_InitSurvivesANNIndexRefusal(t *testing.T) {
	rec := &ddlRecorder{failOn: "ivfflat"}
	b := newRecordedBackend(rec)
	defer b.Close()

	require.NoError(t, b.Init(context.Background()))

	// The refused index must not stop the remaining schema setup.
	statements := rec.statements()
	assert.True(t, hasStatementContaining(statements, "chunks_tenant_source_idx"))
	assert.True(t, hasStatementContaining(statements, "jobs_tenant_source_idx"))
}

func TestBackend_InitFailsWithoutExtension(t *testing.T) {
	rec := &ddlRecorder{failOn: "CREATE EXTENSION"}
	b := newRecordedBackend(rec)
	defer b.Close()

	assert.Error(t, b.Init(context.Background()))
}
