package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vecemhq/dataset-ingest/internal/core/domain"
	"github.com/vecemhq/dataset-ingest/internal/core/ports"
)

// MsgNameTaken echoes the backend diagnostic the form displays verbatim.
const MsgNameTaken = "name already exists for this user"

// RegisterDatasetUseCase accepts a composed submission: it stages every
// channel file, persists the record, and hands the dataset to the
// packaging worker via the queue.
type RegisterDatasetUseCase struct {
	repo    ports.DatasetRepository
	storage ports.ArchiveStorage
	queue   ports.MessageQueue
}

func NewRegisterDatasetUseCase(
	repo ports.DatasetRepository,
	storage ports.ArchiveStorage,
	queue ports.MessageQueue,
) *RegisterDatasetUseCase {
	return &RegisterDatasetUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

func (uc *RegisterDatasetUseCase) Register(ctx context.Context, req domain.SubmissionRequest, files ports.FileSource) (*domain.DatasetRecord, error) {
	const op = "register dataset"

	if err := req.Metadata.Validate(req.Type); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, op, err)
	}
	name := domain.NormalizeName(req.Metadata.Name)

	for _, kind := range req.Type.RequiredChannels() {
		ch, ok := req.Channels[kind]
		if !ok || ch.Empty() {
			return nil, domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("%s channel required", kind))
		}
	}

	taken, err := uc.repo.NameExists(ctx, req.OwnerID, name)
	if err != nil {
		return nil, fmt.Errorf("check name uniqueness: %w", err)
	}
	if taken {
		return nil, domain.WrapError(domain.ErrNameConflict, op, errors.New(MsgNameTaken))
	}

	manifests, staged, err := uc.stageChannels(ctx, req, name, files)
	if err != nil {
		uc.removeStaged(ctx, staged)
		return nil, err
	}

	now := time.Now().UTC()
	rec := &domain.DatasetRecord{
		ID:             uuid.NewString(),
		GeneratedID:    req.GeneratedID,
		OwnerID:        req.OwnerID,
		Name:           name,
		Description:    req.Metadata.Description,
		Domain:         strings.ToLower(strings.TrimSpace(req.Metadata.Domain)),
		Category:       req.Category,
		Type:           req.Type,
		VectorSettings: req.Metadata.VectorSettings,
		Channels:       manifests,
		Status:         domain.StatusReceived,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.repo.Create(ctx, rec); err != nil {
		uc.removeStaged(ctx, staged)
		return nil, fmt.Errorf("create dataset record: %w", err)
	}

	if err := uc.queue.PublishDatasetIngested(ctx, rec.ID); err != nil {
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	return rec, nil
}

func (uc *RegisterDatasetUseCase) stageChannels(
	ctx context.Context,
	req domain.SubmissionRequest,
	name string,
	files ports.FileSource,
) ([]domain.ChannelManifest, []string, error) {
	var manifests []domain.ChannelManifest
	var staged []string

	for _, kind := range req.Type.RequiredChannels() {
		ch := req.Channels[kind]
		manifest := domain.ChannelManifest{
			Kind:       kind,
			TotalBytes: ch.TotalBytes,
		}
		for _, handle := range ch.Files {
			key := StageKey(req.OwnerID, name, kind, handle.Name)
			body, err := files.Open(kind, handle)
			if err != nil {
				return nil, staged, fmt.Errorf("open %s file %q: %w", kind, handle.Name, err)
			}
			err = uc.storage.Save(ctx, key, body)
			_ = body.Close()
			if err != nil {
				return nil, staged, fmt.Errorf("stage %s file %q: %w", kind, handle.Name, err)
			}
			staged = append(staged, key)
			manifest.FileNames = append(manifest.FileNames, handle.Name)
			manifest.StagedKeys = append(manifest.StagedKeys, key)
		}
		manifests = append(manifests, manifest)
	}
	return manifests, staged, nil
}

// removeStaged best-effort cleans partial uploads so a failed submission
// leaves no orphaned blobs.
func (uc *RegisterDatasetUseCase) removeStaged(ctx context.Context, keys []string) {
	for _, key := range keys {
		_ = uc.storage.Remove(ctx, key)
	}
}

// StageKey is the storage layout for staged channel files:
// owner/dataset/channel/filename.
func StageKey(ownerID, datasetName string, kind domain.ChannelKind, filename string) string {
	return fmt.Sprintf("%s/%s/%s/%s", ownerID, datasetName, kind, sanitizeFilename(filename))
}

// ArchiveKey is where the packaged channel archive lands.
func ArchiveKey(ownerID, datasetName string, kind domain.ChannelKind) string {
	return fmt.Sprintf("%s/%s/%s.zip", ownerID, datasetName, kind)
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "file.bin"
	}
	return base
}
