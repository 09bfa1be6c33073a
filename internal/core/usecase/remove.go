package usecase

import (
	"context"
	"fmt"

	"github.com/vecemhq/dataset-ingest/internal/core/ports"
)

// RemoveDatasetUseCase deletes a record together with its staged files
// and packaged archives.
type RemoveDatasetUseCase struct {
	repo    ports.DatasetRepository
	storage ports.ArchiveStorage
}

func NewRemoveDatasetUseCase(repo ports.DatasetRepository, storage ports.ArchiveStorage) *RemoveDatasetUseCase {
	return &RemoveDatasetUseCase{repo: repo, storage: storage}
}

func (uc *RemoveDatasetUseCase) Remove(ctx context.Context, id string) error {
	rec, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch dataset by id: %w", err)
	}

	for _, manifest := range rec.Channels {
		for _, key := range manifest.StagedKeys {
			_ = uc.storage.Remove(ctx, key)
		}
		if manifest.ArchivePath != "" {
			_ = uc.storage.Remove(ctx, manifest.ArchivePath)
		}
	}

	if err := uc.repo.Delete(ctx, rec.ID); err != nil {
		return fmt.Errorf("delete dataset record: %w", err)
	}
	return nil
}
