package usecase

import (
	"strings"

	"github.com/vecemhq/dataset-ingest/internal/core/domain"
	"github.com/vecemhq/dataset-ingest/internal/core/ports"
)

const (
	reasonNoFiles       = "no files selected"
	reasonWrongCategory = "selection contains files outside the declared category"
)

// SelectionReview is the total outcome of classifying a selection: either
// accepted, or rejected with every offending file named. A mixed selection
// is rejected as a whole; files are never silently dropped.
type SelectionReview struct {
	Accepted  bool
	Offending []domain.FileHandle
	Reason    string
}

// SelectionClassifier validates a selected file set against the declared
// content category. Pure; no I/O.
type SelectionClassifier struct {
	policy ports.ExtensionPolicy
}

func NewSelectionClassifier(policy ports.ExtensionPolicy) *SelectionClassifier {
	return &SelectionClassifier{policy: policy}
}

// Review classifies a selection for one channel. The raw channel enforces
// the category allow-list; the vectorized channel accepts any extension
// because its content is opaque embeddings.
func (c *SelectionClassifier) Review(kind domain.ChannelKind, category domain.ContentCategory, files []domain.FileHandle) SelectionReview {
	if len(files) == 0 {
		return SelectionReview{Reason: reasonNoFiles}
	}
	if kind == domain.ChannelVectorized {
		return SelectionReview{Accepted: true}
	}

	allowed := make(map[string]struct{})
	for _, ext := range c.policy.AllowedExtensions(category) {
		allowed[strings.ToLower(ext)] = struct{}{}
	}

	var offending []domain.FileHandle
	for _, f := range files {
		if _, ok := allowed[strings.ToLower(f.Extension)]; ok {
			// Extension is authoritative; a disagreeing MIME type
			// never overrides a match.
			continue
		}
		if f.Extension == "" && mimeMatchesCategory(f.MIMEType, category) {
			continue
		}
		offending = append(offending, f)
	}
	if len(offending) > 0 {
		return SelectionReview{
			Offending: offending,
			Reason:    reasonWrongCategory,
		}
	}
	return SelectionReview{Accepted: true}
}

// mimeMatchesCategory is the secondary signal for files the picker hands
// over without an extension.
func mimeMatchesCategory(mimeType string, category domain.ContentCategory) bool {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if mt == "" {
		return false
	}
	switch category {
	case domain.CategoryImage:
		return strings.HasPrefix(mt, "image/")
	case domain.CategoryAudio:
		return strings.HasPrefix(mt, "audio/")
	case domain.CategoryVideo:
		return strings.HasPrefix(mt, "video/")
	case domain.CategoryText:
		return strings.HasPrefix(mt, "text/") || mt == "application/json"
	default:
		return false
	}
}
