package ports

import (
	"context"

	"github.com/vecemhq/dataset-ingest/internal/core/domain"
)

// DatasetRegistrar is the inbound contract for accepting a composed
// submission on the backend side. The file source yields the bytes for
// every handle the request's channels name.
type DatasetRegistrar interface {
	Register(ctx context.Context, req domain.SubmissionRequest, files FileSource) (*domain.DatasetRecord, error)
}

// NameAvailabilityService answers availability checks for the API.
type NameAvailabilityService interface {
	Check(ctx context.Context, ownerID, name string) (domain.NameCheckResult, error)
}

// DatasetReader is the inbound read model for dataset records.
type DatasetReader interface {
	GetByID(ctx context.Context, id string) (*domain.DatasetRecord, error)
}

// DatasetRemover deletes a record together with its stored blobs.
type DatasetRemover interface {
	Remove(ctx context.Context, id string) error
}

// DatasetArchiver packages staged channel files asynchronously.
type DatasetArchiver interface {
	ArchiveByID(ctx context.Context, datasetID string) error
}
