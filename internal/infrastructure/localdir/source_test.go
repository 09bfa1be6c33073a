package localdir

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/vecemhq/dataset-ingest/internal/core/domain"
)

func TestScanListsRegularFilesSorted(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "b.bin"), []byte("bb"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.png"), []byte("aaa"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}

	handles, err := New(dir).Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(handles) != 2 {
		t.Fatalf("expected 2 handles, subdirectory skipped, got %+v", handles)
	}
	if handles[0].Name != "a.png" || handles[1].Name != "b.bin" {
		t.Fatalf("expected name order, got %+v", handles)
	}
	if handles[0].MIMEType != "image/png" {
		t.Fatalf("expected image/png for a.png, got %q", handles[0].MIMEType)
	}
	if handles[1].MIMEType != "" {
		t.Fatalf("expected empty MIME for unknown extension, got %q", handles[1].MIMEType)
	}
	if handles[0].SizeBytes != 3 || handles[1].SizeBytes != 2 {
		t.Fatalf("unexpected sizes: %+v", handles)
	}
}

func TestOpenServesFileBytes(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.png"), []byte("aaa"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	source := New(dir)

	body, err := source.Open(domain.ChannelRaw, domain.NewFileHandle("a.png", "image/png", 3))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer body.Close()
	raw, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(raw) != "aaa" {
		t.Fatalf("unexpected content: %q", raw)
	}
}

func TestOpenStaysInsideDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.png"), []byte("aaa"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	source := New(dir)

	// A handle name carrying path segments resolves to its base name
	// inside the scanned directory, never outside it.
	body, err := source.Open(domain.ChannelRaw, domain.NewFileHandle("../../a.png", "image/png", 3))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer body.Close()
	raw, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(raw) != "aaa" {
		t.Fatalf("unexpected content: %q", raw)
	}
}
