package usecase

import (
	"context"
	"testing"

	"github.com/vecemhq/dataset-ingest/internal/core/domain"
)

func TestRemoveDeletesRecordAndBlobs(t *testing.T) {
	repo := newRepoFake()
	rec := receivedRecord()
	rec.Channels[0].ArchivePath = "u-1/bird_photos/raw.zip"
	repo.records[rec.ID] = rec

	storage := newStorageFake()
	storage.blobs["u-1/bird_photos/raw/a.jpg"] = []byte("aaa")
	storage.blobs["u-1/bird_photos/raw.zip"] = []byte("zip")

	uc := NewRemoveDatasetUseCase(repo, storage)
	if err := uc.Remove(context.Background(), "d-1"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if len(storage.keys()) != 0 {
		t.Fatalf("expected all blobs removed, got %v", storage.keys())
	}
	if _, err := repo.GetByID(context.Background(), "d-1"); !domain.IsKind(err, domain.ErrDatasetNotFound) {
		t.Fatalf("expected record deleted, got %v", err)
	}
}

func TestRemoveUnknownDataset(t *testing.T) {
	uc := NewRemoveDatasetUseCase(newRepoFake(), newStorageFake())

	err := uc.Remove(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDatasetNotFound) {
		t.Fatalf("expected dataset-not-found, got %v", err)
	}
}
