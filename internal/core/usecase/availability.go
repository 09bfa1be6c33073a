package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/vecemhq/dataset-ingest/internal/core/domain"
	"github.com/vecemhq/dataset-ingest/internal/core/ports"
)

// NameAvailabilityUseCase answers the uniqueness probe the form's
// debounced checker issues. Safe to call repeatedly; debouncing is the
// caller's job.
type NameAvailabilityUseCase struct {
	repo ports.DatasetRepository
}

func NewNameAvailabilityUseCase(repo ports.DatasetRepository) *NameAvailabilityUseCase {
	return &NameAvailabilityUseCase{repo: repo}
}

func (uc *NameAvailabilityUseCase) Check(ctx context.Context, ownerID, name string) (domain.NameCheckResult, error) {
	normalized := domain.NormalizeName(name)
	if normalized == "" {
		return domain.NameCheckResult{}, domain.WrapError(domain.ErrInvalidInput, "check name", errors.New("name is required"))
	}

	taken, err := uc.repo.NameExists(ctx, ownerID, normalized)
	if err != nil {
		return domain.NameCheckResult{}, fmt.Errorf("check name uniqueness: %w", err)
	}

	result := domain.NameCheckResult{
		QueriedName: normalized,
		Available:   !taken,
		Message:     "name is available",
	}
	if taken {
		result.Message = MsgNameTaken
	}
	return result, nil
}
