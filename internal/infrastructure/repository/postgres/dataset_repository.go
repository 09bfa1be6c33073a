package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vecemhq/dataset-ingest/internal/core/domain"
)

type DatasetRepository struct {
	db *sql.DB
}

func NewDatasetRepository(db *sql.DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DatasetRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS datasets (
	id TEXT PRIMARY KEY,
	generated_id TEXT NOT NULL,
	owner_id TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT NOT NULL,
	domain TEXT NOT NULL,
	category TEXT NOT NULL,
	ingestion_type TEXT NOT NULL,
	vector_settings JSONB,
	channels JSONB NOT NULL DEFAULT '[]'::jsonb,
	status TEXT NOT NULL,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	CONSTRAINT datasets_owner_name_unique UNIQUE (owner_id, name)
);

CREATE INDEX IF NOT EXISTS idx_datasets_status ON datasets(status);
CREATE INDEX IF NOT EXISTS idx_datasets_created_at ON datasets(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DatasetRepository) Create(ctx context.Context, rec *domain.DatasetRecord) error {
	settingsJSON, channelsJSON, err := marshalJSONColumns(rec.VectorSettings, rec.Channels)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO datasets (
	id, generated_id, owner_id, name, description, domain, category, ingestion_type, vector_settings, channels, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
`,
		rec.ID, rec.GeneratedID, rec.OwnerID, rec.Name, rec.Description, rec.Domain, string(rec.Category),
		string(rec.Type), settingsJSON, channelsJSON, string(rec.Status), rec.Error, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert dataset: %w", err)
	}
	return nil
}

func (r *DatasetRepository) GetByID(ctx context.Context, id string) (*domain.DatasetRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, generated_id, owner_id, name, description, domain, category, ingestion_type, vector_settings, channels, status, error_message, created_at, updated_at
FROM datasets
WHERE id = $1
`, id)

	var rec domain.DatasetRecord
	var category, ingestionType, status string
	var settingsRaw, channelsRaw []byte
	var errMessage sql.NullString

	err := row.Scan(
		&rec.ID, &rec.GeneratedID, &rec.OwnerID, &rec.Name, &rec.Description, &rec.Domain,
		&category, &ingestionType, &settingsRaw, &channelsRaw, &status, &errMessage, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDatasetNotFound, "get dataset", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan dataset: %w", err)
	}

	if len(settingsRaw) > 0 {
		var settings domain.VectorSettings
		if err := json.Unmarshal(settingsRaw, &settings); err != nil {
			return nil, fmt.Errorf("unmarshal vector settings: %w", err)
		}
		rec.VectorSettings = &settings
	}
	if err := json.Unmarshal(channelsRaw, &rec.Channels); err != nil {
		return nil, fmt.Errorf("unmarshal channels: %w", err)
	}
	rec.Category = domain.ContentCategory(category)
	rec.Type = domain.IngestionType(ingestionType)
	rec.Status = domain.DatasetStatus(status)
	rec.Error = errMessage.String
	return &rec, nil
}

func (r *DatasetRepository) NameExists(ctx context.Context, ownerID, name string) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT EXISTS (SELECT 1 FROM datasets WHERE owner_id = $1 AND name = $2)
`, ownerID, name)

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("check name exists: %w", err)
	}
	return exists, nil
}

func (r *DatasetRepository) UpdateStatus(ctx context.Context, id string, status domain.DatasetStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE datasets
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update dataset status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update dataset status rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrDatasetNotFound, "update dataset status", fmt.Errorf("id=%s", id))
	}
	return nil
}

func (r *DatasetRepository) SaveChannels(ctx context.Context, id string, channels []domain.ChannelManifest) error {
	channelsJSON, err := json.Marshal(channels)
	if err != nil {
		return fmt.Errorf("marshal channels: %w", err)
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE datasets
SET channels = $2, updated_at = $3
WHERE id = $1
`, id, channelsJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save channels: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save channels rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrDatasetNotFound, "save channels", fmt.Errorf("id=%s", id))
	}
	return nil
}

func (r *DatasetRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete dataset rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrDatasetNotFound, "delete dataset", fmt.Errorf("id=%s", id))
	}
	return nil
}

func marshalJSONColumns(settings *domain.VectorSettings, channels []domain.ChannelManifest) ([]byte, []byte, error) {
	var settingsJSON []byte
	if settings != nil {
		var err error
		settingsJSON, err = json.Marshal(settings)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal vector settings: %w", err)
		}
	}
	channelsJSON, err := json.Marshal(channels)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal channels: %w", err)
	}
	return settingsJSON, channelsJSON, nil
}
