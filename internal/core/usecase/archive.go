package usecase

import (
	"context"
	"fmt"

	"github.com/vecemhq/dataset-ingest/internal/core/domain"
	"github.com/vecemhq/dataset-ingest/internal/core/ports"
)

// ArchiveDatasetUseCase runs on the worker: it packages each staged
// channel into one archive and flips the record to ready. A packaging
// failure removes the staged blobs so the owner can resubmit cleanly.
type ArchiveDatasetUseCase struct {
	repo     ports.DatasetRepository
	storage  ports.ArchiveStorage
	packager ports.ChannelPackager
}

func NewArchiveDatasetUseCase(
	repo ports.DatasetRepository,
	storage ports.ArchiveStorage,
	packager ports.ChannelPackager,
) *ArchiveDatasetUseCase {
	return &ArchiveDatasetUseCase{
		repo:     repo,
		storage:  storage,
		packager: packager,
	}
}

func (uc *ArchiveDatasetUseCase) ArchiveByID(ctx context.Context, datasetID string) error {
	rec, err := uc.repo.GetByID(ctx, datasetID)
	if err != nil {
		return fmt.Errorf("fetch dataset by id: %w", err)
	}
	if rec.Status != domain.StatusReceived {
		// Redelivered event; the first delivery already owns this record.
		return nil
	}

	if err := uc.repo.UpdateStatus(ctx, rec.ID, domain.StatusArchiving, ""); err != nil {
		return fmt.Errorf("set status=archiving: %w", err)
	}

	for i := range rec.Channels {
		manifest := rec.Channels[i]
		if len(manifest.StagedKeys) == 0 {
			continue
		}
		archiveKey, err := uc.packager.Package(ctx, rec, manifest)
		if err != nil {
			uc.cleanupStaged(ctx, rec)
			if failErr := uc.repo.UpdateStatus(ctx, rec.ID, domain.StatusFailed, err.Error()); failErr != nil {
				return fmt.Errorf("package %s channel: %w; mark failed status: %w", manifest.Kind, err, failErr)
			}
			return fmt.Errorf("package %s channel: %w", manifest.Kind, err)
		}
		rec.Channels[i].ArchivePath = archiveKey
	}

	if err := uc.repo.SaveChannels(ctx, rec.ID, rec.Channels); err != nil {
		return fmt.Errorf("save channel archives: %w", err)
	}
	if err := uc.repo.UpdateStatus(ctx, rec.ID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *ArchiveDatasetUseCase) cleanupStaged(ctx context.Context, rec *domain.DatasetRecord) {
	for _, manifest := range rec.Channels {
		for _, key := range manifest.StagedKeys {
			_ = uc.storage.Remove(ctx, key)
		}
	}
}
