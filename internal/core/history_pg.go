package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// historySchema creates the history table. Statements are idempotent.
const historySchema = `
CREATE TABLE IF NOT EXISTS conversion_history (
	id           UUID PRIMARY KEY,
	operation    TEXT NOT NULL,
	format       TEXT,
	file_name    TEXT,
	success      BOOLEAN NOT NULL,
	error        TEXT,
	warning      TEXT,
	rows         INTEGER NOT NULL DEFAULT 0,
	columns      INTEGER NOT NULL DEFAULT 0,
	input_bytes  BIGINT NOT NULL DEFAULT 0,
	output_bytes BIGINT NOT NULL DEFAULT 0,
	duration_ms  BIGINT NOT NULL DEFAULT 0,
	client_ip    TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS conversion_history_created_at_idx
	ON conversion_history (created_at DESC);
`

const insertHistorySQL = `
INSERT INTO conversion_history (
	id, operation, format, file_name, success, error, warning,
	rows, columns, input_bytes, output_bytes, duration_ms, client_ip, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

const recentHistorySQL = `
SELECT id, operation, format, file_name, success, error, warning,
	rows, columns, input_bytes, output_bytes, duration_ms, client_ip, created_at
FROM conversion_history
ORDER BY created_at DESC
LIMIT $1`

const purgeHistorySQL = `DELETE FROM conversion_history WHERE created_at < $1`

// pgQuerier is the subset of pgxpool.Pool the history store uses.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var _ pgQuerier = (*pgxpool.Pool)(nil)

// PostgresHistory stores history entries in PostgreSQL.
type PostgresHistory struct {
	db pgQuerier
}

var _ HistoryStore = (*PostgresHistory)(nil)

// NewPostgresHistory returns a store backed by pool.
func NewPostgresHistory(pool *pgxpool.Pool) *PostgresHistory {
	return &PostgresHistory{db: pool}
}

// EnsureSchema creates the history table when missing.
func (h *PostgresHistory) EnsureSchema(ctx context.Context) error {
	if _, err := h.db.Exec(ctx, historySchema); err != nil {
		return fmt.Errorf("create history schema: %w", err)
	}
	return nil
}

func (h *PostgresHistory) Record(ctx context.Context, e HistoryEntry) error {
	id, err := uuid.Parse(e.ID)
	if err != nil {
		id = uuid.New()
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = h.db.Exec(ctx, insertHistorySQL,
		pgtype.UUID{Bytes: id, Valid: true},
		e.Operation,
		toPgText(e.Format),
		toPgText(e.FileName),
		e.Success,
		toPgText(e.Error),
		toPgText(e.Warning),
		int32(e.Rows),
		int32(e.Columns),
		e.InputBytes,
		e.OutputBytes,
		e.Duration.Milliseconds(),
		toPgText(e.ClientIP),
		pgtype.Timestamptz{Time: createdAt, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

func (h *PostgresHistory) Recent(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryCapacity
	}

	rows, err := h.db.Query(ctx, recentHistorySQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			id                   pgtype.UUID
			operation            string
			format, fileName, ip pgtype.Text
			errText, warn        pgtype.Text
			success              bool
			rowCount, colCount   int32
			inputBytes, outBytes int64
			durationMs           int64
			createdAt            pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &operation, &format, &fileName, &success, &errText, &warn,
			&rowCount, &colCount, &inputBytes, &outBytes, &durationMs, &ip, &createdAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}

		entries = append(entries, HistoryEntry{
			ID:          uuidToString(id),
			Operation:   operation,
			Format:      format.String,
			FileName:    fileName.String,
			Success:     success,
			Error:       errText.String,
			Warning:     warn.String,
			Rows:        int(rowCount),
			Columns:     int(colCount),
			InputBytes:  inputBytes,
			OutputBytes: outBytes,
			Duration:    time.Duration(durationMs) * time.Millisecond,
			ClientIP:    ip.String,
			CreatedAt:   createdAt.Time,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

func (h *PostgresHistory) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := h.db.Exec(ctx, purgeHistorySQL, pgtype.Timestamptz{Time: cutoff, Valid: true})
	if err != nil {
		return 0, fmt.Errorf("purge history: %w", err)
	}
	return tag.RowsAffected(), nil
}

func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

func uuidToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}
