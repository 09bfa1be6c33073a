package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

type IngestionType string

const (
	TypeRaw        IngestionType = "raw"
	TypeVectorized IngestionType = "vectorized"
	TypeBoth       IngestionType = "both"
)

// RequiredChannels lists the channels a submission of this type must carry.
func (t IngestionType) RequiredChannels() []ChannelKind {
	switch t {
	case TypeRaw:
		return []ChannelKind{ChannelRaw}
	case TypeVectorized:
		return []ChannelKind{ChannelVectorized}
	case TypeBoth:
		return []ChannelKind{ChannelRaw, ChannelVectorized}
	default:
		return nil
	}
}

// NeedsVectorSettings reports whether vector settings are mandatory.
func (t IngestionType) NeedsVectorSettings() bool {
	return t == TypeVectorized || t == TypeBoth
}

func ParseIngestionType(raw string) (IngestionType, error) {
	switch IngestionType(strings.ToLower(strings.TrimSpace(raw))) {
	case TypeRaw:
		return TypeRaw, nil
	case TypeVectorized:
		return TypeVectorized, nil
	case TypeBoth:
		return TypeBoth, nil
	default:
		return "", fmt.Errorf("unknown ingestion type: %q", raw)
	}
}

// ContentCategory governs which extensions the raw channel accepts.
// The vectorized channel holds opaque embeddings and accepts any extension.
type ContentCategory string

const (
	CategoryImage ContentCategory = "image"
	CategoryAudio ContentCategory = "audio"
	CategoryText  ContentCategory = "text"
	CategoryVideo ContentCategory = "video"
)

func ParseContentCategory(raw string) (ContentCategory, error) {
	switch ContentCategory(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryImage:
		return CategoryImage, nil
	case CategoryAudio:
		return CategoryAudio, nil
	case CategoryText:
		return CategoryText, nil
	case CategoryVideo:
		return CategoryVideo, nil
	default:
		return "", fmt.Errorf("unknown content category: %q", raw)
	}
}

// Domains is the fixed list a dataset may be filed under.
var Domains = []string{
	"health",
	"education",
	"automobile",
	"finance",
	"business",
	"banking",
	"retail",
	"government",
	"sports",
	"social media",
	"entertainment",
	"telecommunication",
	"energy",
	"e-commerce",
}

func KnownDomain(domain string) bool {
	needle := strings.ToLower(strings.TrimSpace(domain))
	for _, d := range Domains {
		if d == needle {
			return true
		}
	}
	return false
}

const (
	MinVectorDimensions = 100
	MaxVectorDimensions = 5000
)

type VectorSettings struct {
	Dimensions     int    `json:"dimensions"`
	VectorDatabase string `json:"vector_database"`
	ModelName      string `json:"model_name,omitempty"`
}

func (s VectorSettings) Validate() error {
	if s.Dimensions < MinVectorDimensions || s.Dimensions > MaxVectorDimensions {
		return fmt.Errorf("dimensions must be in [%d,%d], got %d", MinVectorDimensions, MaxVectorDimensions, s.Dimensions)
	}
	if strings.TrimSpace(s.VectorDatabase) == "" {
		return errors.New("vector database name is required")
	}
	return nil
}

type Metadata struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Domain         string          `json:"domain"`
	VectorSettings *VectorSettings `json:"vector_settings,omitempty"`
}

// Validate checks completeness for the chosen ingestion type.
func (m Metadata) Validate(typ IngestionType) error {
	if NormalizeName(m.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(m.Description) == "" {
		return errors.New("description is required")
	}
	if !KnownDomain(m.Domain) {
		return fmt.Errorf("unknown domain: %q", m.Domain)
	}
	if typ.NeedsVectorSettings() {
		if m.VectorSettings == nil {
			return errors.New("vector settings are required")
		}
		if err := m.VectorSettings.Validate(); err != nil {
			return err
		}
	}
	return nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeName is the canonical dataset name form shared by the client
// core and the backend: trimmed, whitespace runs collapsed to a single
// underscore, lowercased.
func NormalizeName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	return strings.ToLower(whitespaceRun.ReplaceAllString(trimmed, "_"))
}

// SubmissionRequest is the single composed payload an ingestion session
// produces. GeneratedID disambiguates retries of the same name.
type SubmissionRequest struct {
	GeneratedID string                      `json:"generated_id"`
	OwnerID     string                      `json:"owner_id"`
	Metadata    Metadata                    `json:"metadata"`
	Type        IngestionType               `json:"type"`
	Category    ContentCategory             `json:"category"`
	Channels    map[ChannelKind]FileChannel `json:"channels"`
}

type SubmissionResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	GeneratedID string `json:"generated_id,omitempty"`
}

type DatasetStatus string

const (
	StatusReceived  DatasetStatus = "received"
	StatusArchiving DatasetStatus = "archiving"
	StatusReady     DatasetStatus = "ready"
	StatusFailed    DatasetStatus = "failed"
)

// ChannelManifest records what the backend accepted for one channel and
// where the packaged archive ended up.
type ChannelManifest struct {
	Kind        ChannelKind `json:"kind"`
	FileNames   []string    `json:"file_names"`
	StagedKeys  []string    `json:"staged_keys"`
	TotalBytes  int64       `json:"total_bytes"`
	ArchivePath string      `json:"archive_path,omitempty"`
}

// DatasetRecord is the persisted server-side view of a submission.
type DatasetRecord struct {
	ID             string            `json:"id"`
	GeneratedID    string            `json:"generated_id"`
	OwnerID        string            `json:"owner_id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Domain         string            `json:"domain"`
	Category       ContentCategory   `json:"category"`
	Type           IngestionType     `json:"type"`
	VectorSettings *VectorSettings   `json:"vector_settings,omitempty"`
	Channels       []ChannelManifest `json:"channels"`
	Status         DatasetStatus     `json:"status"`
	Error          string            `json:"error,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// IngestionEvent is published once a dataset's files are staged and the
// record persisted; the packaging worker consumes it.
type IngestionEvent struct {
	DatasetID  string    `json:"dataset_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
