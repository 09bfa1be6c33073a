package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/vecemhq/dataset-ingest/internal/core/domain"
)

func TestDatasetRepositoryGetByIDMapsMissingRowToNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewDatasetRepository(db)
	mock.ExpectQuery("FROM datasets").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.GetByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDatasetNotFound) {
		t.Fatalf("expected dataset-not-found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDatasetRepositoryGetByIDDecodesJSONColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewDatasetRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "generated_id", "owner_id", "name", "description", "domain", "category",
		"ingestion_type", "vector_settings", "channels", "status", "error_message", "created_at", "updated_at",
	}).AddRow(
		"d-1", "birds_1756512000", "u-1", "birds", "bird photos", "health", "image",
		"vectorized",
		[]byte(`{"dimensions":256,"vector_database":"pinecone"}`),
		[]byte(`[{"kind":"vectorized","file_names":["a.bin"],"staged_keys":["u-1/birds/vectorized/a.bin"],"total_bytes":12}]`),
		"ready", nil, now, now,
	)

	mock.ExpectQuery("FROM datasets").
		WithArgs("d-1").
		WillReturnRows(rows)

	rec, err := repo.GetByID(context.Background(), "d-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if rec.VectorSettings == nil || rec.VectorSettings.Dimensions != 256 {
		t.Fatalf("vector settings not decoded: %+v", rec.VectorSettings)
	}
	if len(rec.Channels) != 1 || rec.Channels[0].Kind != domain.ChannelVectorized {
		t.Fatalf("channels not decoded: %+v", rec.Channels)
	}
	if rec.Status != domain.StatusReady {
		t.Fatalf("status = %q", rec.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDatasetRepositoryNameExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewDatasetRepository(db)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("u-1", "birds").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := repo.NameExists(context.Background(), "u-1", "birds")
	if err != nil {
		t.Fatalf("NameExists() error = %v", err)
	}
	if !taken {
		t.Fatal("expected name to be taken")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDatasetRepositoryUpdateStatusReturnsNotFoundWhenNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewDatasetRepository(db)
	mock.ExpectExec("UPDATE datasets").
		WithArgs("missing", string(domain.StatusFailed), "boom", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateStatus(context.Background(), "missing", domain.StatusFailed, "boom")
	if !domain.IsKind(err, domain.ErrDatasetNotFound) {
		t.Fatalf("expected dataset-not-found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
