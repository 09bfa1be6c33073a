package usecase

import (
	"strings"
	"testing"
	"time"

	"github.com/vecemhq/dataset-ingest/internal/core/domain"
)

func composeFixture(typ domain.IngestionType) ComposeInput {
	channels := map[domain.ChannelKind]domain.FileChannel{
		domain.ChannelRaw: domain.NewFileChannel(domain.ChannelRaw, []domain.FileHandle{
			domain.NewFileHandle("a.jpg", "image/jpeg", 10),
		}),
		domain.ChannelVectorized: domain.NewFileChannel(domain.ChannelVectorized, []domain.FileHandle{
			domain.NewFileHandle("v.bin", "application/octet-stream", 20),
		}),
	}
	return ComposeInput{
		OwnerID: "u-1",
		Metadata: domain.Metadata{
			Name:        "  My  Bird Photos ",
			Description: "photos of birds",
			Domain:      "health",
			VectorSettings: &domain.VectorSettings{
				Dimensions:     256,
				VectorDatabase: "pinecone",
			},
		},
		Type:        typ,
		Category:    domain.CategoryImage,
		Channels:    channels,
		SubmittedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestComposeNormalizesNameAndDerivesID(t *testing.T) {
	req, err := ComposeSubmission(composeFixture(domain.TypeBoth))
	if err != nil {
		t.Fatalf("ComposeSubmission() error = %v", err)
	}
	if req.Metadata.Name != "my_bird_photos" {
		t.Fatalf("name not normalized: %q", req.Metadata.Name)
	}
	wantID := "my_bird_photos_1788091200"
	if req.GeneratedID != wantID {
		t.Fatalf("generated id = %q, want %q", req.GeneratedID, wantID)
	}
	if len(req.Channels) != 2 {
		t.Fatalf("expected both channels, got %d", len(req.Channels))
	}
}

func TestComposeRawStripsVectorSettings(t *testing.T) {
	req, err := ComposeSubmission(composeFixture(domain.TypeRaw))
	if err != nil {
		t.Fatalf("ComposeSubmission() error = %v", err)
	}
	if req.Metadata.VectorSettings != nil {
		t.Fatal("raw submission must not carry vector settings")
	}
	if _, ok := req.Channels[domain.ChannelVectorized]; ok {
		t.Fatal("raw submission must not carry the vectorized channel")
	}
}

func TestComposeMissingRequiredChannelNamesIt(t *testing.T) {
	in := composeFixture(domain.TypeBoth)
	delete(in.Channels, domain.ChannelVectorized)

	_, err := ComposeSubmission(in)
	if !domain.IsKind(err, domain.ErrComposition) {
		t.Fatalf("expected composition error, got %v", err)
	}
	if !strings.Contains(err.Error(), "vectorized channel required") {
		t.Fatalf("error must name the missing channel: %v", err)
	}

	in = composeFixture(domain.TypeBoth)
	delete(in.Channels, domain.ChannelRaw)
	_, err = ComposeSubmission(in)
	if err == nil || !strings.Contains(err.Error(), "raw channel required") {
		t.Fatalf("error must name the raw channel: %v", err)
	}
}

func TestComposeEmptyChannelCountsAsMissing(t *testing.T) {
	in := composeFixture(domain.TypeRaw)
	in.Channels[domain.ChannelRaw] = domain.FileChannel{Kind: domain.ChannelRaw}

	_, err := ComposeSubmission(in)
	if !domain.IsKind(err, domain.ErrComposition) {
		t.Fatalf("expected composition error, got %v", err)
	}
}

func TestComposeValidatesMetadataForType(t *testing.T) {
	in := composeFixture(domain.TypeVectorized)
	in.Metadata.VectorSettings = nil

	_, err := ComposeSubmission(in)
	if !domain.IsKind(err, domain.ErrComposition) {
		t.Fatalf("expected composition error for missing vector settings, got %v", err)
	}

	in = composeFixture(domain.TypeRaw)
	in.Metadata.Domain = "astrology"
	if _, err := ComposeSubmission(in); !domain.IsKind(err, domain.ErrComposition) {
		t.Fatalf("expected composition error for unknown domain, got %v", err)
	}
}

func TestGenerateSubmissionIDIsDeterministic(t *testing.T) {
	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	first := GenerateSubmissionID("birds", at)
	second := GenerateSubmissionID("birds", at)
	if first != second {
		t.Fatalf("ids differ for identical input: %q vs %q", first, second)
	}
	later := GenerateSubmissionID("birds", at.Add(time.Second))
	if first == later {
		t.Fatal("ids must differ across timestamps")
	}
}
