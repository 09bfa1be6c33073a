package httpadapter

import (
	"net/http"

	"github.com/vecemhq/dataset-ingest/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput),
		domain.IsKind(err, domain.ErrSelection),
		domain.IsKind(err, domain.ErrComposition):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNameConflict):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrDatasetNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
