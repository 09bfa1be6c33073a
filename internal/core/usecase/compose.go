package usecase

import (
	"errors"
	"fmt"
	"time"

	"github.com/vecemhq/dataset-ingest/internal/core/domain"
)

// ComposeInput is the validated session material the composer merges into
// a single request. The composer performs no I/O; the network call is
// owned by the state machine so composition stays independently testable.
type ComposeInput struct {
	OwnerID     string
	Metadata    domain.Metadata
	Type        domain.IngestionType
	Category    domain.ContentCategory
	Channels    map[domain.ChannelKind]domain.FileChannel
	SubmittedAt time.Time
}

// ComposeSubmission merges metadata with the channels the ingestion type
// requires. A missing required channel fails with a composition error
// naming the channel; a partial "both" is never submitted silently.
func ComposeSubmission(in ComposeInput) (domain.SubmissionRequest, error) {
	const op = "compose submission"

	if err := in.Metadata.Validate(in.Type); err != nil {
		return domain.SubmissionRequest{}, domain.WrapError(domain.ErrComposition, op, err)
	}
	required := in.Type.RequiredChannels()
	if len(required) == 0 {
		return domain.SubmissionRequest{}, domain.WrapError(domain.ErrComposition, op, fmt.Errorf("unknown ingestion type: %q", in.Type))
	}

	channels := make(map[domain.ChannelKind]domain.FileChannel, len(required))
	for _, kind := range required {
		ch, ok := in.Channels[kind]
		if !ok || ch.Empty() {
			return domain.SubmissionRequest{}, domain.WrapError(domain.ErrComposition, op, fmt.Errorf("%s channel required", kind))
		}
		channels[kind] = domain.NewFileChannel(kind, ch.Files)
	}

	metadata := in.Metadata
	metadata.Name = domain.NormalizeName(metadata.Name)
	if in.Type == domain.TypeRaw {
		// Raw submissions never carry vector settings, even when the
		// form happened to populate them.
		metadata.VectorSettings = nil
	}

	if in.SubmittedAt.IsZero() {
		return domain.SubmissionRequest{}, domain.WrapError(domain.ErrComposition, op, errors.New("submission timestamp is required"))
	}

	return domain.SubmissionRequest{
		GeneratedID: GenerateSubmissionID(metadata.Name, in.SubmittedAt),
		OwnerID:     in.OwnerID,
		Metadata:    metadata,
		Type:        in.Type,
		Category:    in.Category,
		Channels:    channels,
	}, nil
}

// GenerateSubmissionID derives a deterministic id from the normalized
// name and the submission timestamp, disambiguating retries.
func GenerateSubmissionID(normalizedName string, at time.Time) string {
	return fmt.Sprintf("%s_%d", normalizedName, at.UTC().Unix())
}
