package ports

import (
	"context"
	"io"

	"github.com/vecemhq/dataset-ingest/internal/core/domain"
)

// NameCheckClient asks the backend whether a dataset name is free for an
// owner. Idempotent; the core owns debouncing, not the backend.
type NameCheckClient interface {
	CheckNameAvailability(ctx context.Context, ownerID, name string) (domain.NameCheckResult, error)
}

// SubmissionClient delivers one composed submission. Not idempotent: the
// core must prevent duplicate calls rather than rely on backend dedup.
type SubmissionClient interface {
	SubmitIngestion(ctx context.Context, req domain.SubmissionRequest) (domain.SubmissionResult, error)
}

// ExtensionPolicy resolves the allowed-extension table per category, kept
// behind a boundary so format additions never touch the state machine.
type ExtensionPolicy interface {
	AllowedExtensions(category domain.ContentCategory) []string
}

// FileSource yields the bytes behind a selected file handle. Selection
// produces metadata only; transports pull content on demand. Lookups
// are scoped by channel: the raw and vectorized channels may each carry
// a file with the same name.
type FileSource interface {
	Open(kind domain.ChannelKind, handle domain.FileHandle) (io.ReadCloser, error)
}

// TransferListener receives upload progress. Real transports report
// incremental bytes; the estimator falls back to a simulated ramp when
// a transport never calls it.
type TransferListener interface {
	BytesTransferred(n int64)
}

// DatasetRepository persists dataset records on the backend side.
type DatasetRepository interface {
	Create(ctx context.Context, rec *domain.DatasetRecord) error
	GetByID(ctx context.Context, id string) (*domain.DatasetRecord, error)
	NameExists(ctx context.Context, ownerID, name string) (bool, error)
	UpdateStatus(ctx context.Context, id string, status domain.DatasetStatus, errMessage string) error
	SaveChannels(ctx context.Context, id string, channels []domain.ChannelManifest) error
	Delete(ctx context.Context, id string) error
}

// ArchiveStorage stores staged channel files and packaged archives.
type ArchiveStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// ChannelPackager turns one channel's staged files into a single
// downloadable archive.
type ChannelPackager interface {
	Package(ctx context.Context, rec *domain.DatasetRecord, manifest domain.ChannelManifest) (archiveKey string, err error)
}

// MessageQueue carries ingestion events from the API to the packaging
// worker.
type MessageQueue interface {
	PublishDatasetIngested(ctx context.Context, datasetID string) error
	SubscribeDatasetIngested(ctx context.Context, handler func(context.Context, domain.IngestionEvent) error) error
}
