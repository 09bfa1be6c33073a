// Package archive packages a channel's staged files into a single zip
// so consumers download one object per channel instead of N blobs.
package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"

	"github.com/vecemhq/dataset-ingest/internal/core/domain"
	"github.com/vecemhq/dataset-ingest/internal/core/ports"
	"github.com/vecemhq/dataset-ingest/internal/core/usecase"
)

type ZipPackager struct {
	storage ports.ArchiveStorage
}

func NewZipPackager(storage ports.ArchiveStorage) *ZipPackager {
	return &ZipPackager{storage: storage}
}

// Package implements ports.ChannelPackager. The archive is streamed
// through a pipe, so no channel is ever buffered whole in memory.
func (p *ZipPackager) Package(ctx context.Context, rec *domain.DatasetRecord, manifest domain.ChannelManifest) (string, error) {
	key := usecase.ArchiveKey(rec.OwnerID, rec.Name, manifest.Kind)

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(p.writeArchive(ctx, pw, manifest))
	}()

	if err := p.storage.Save(ctx, key, pr); err != nil {
		pr.CloseWithError(err)
		return "", fmt.Errorf("save %s archive: %w", manifest.Kind, err)
	}
	return key, nil
}

func (p *ZipPackager) writeArchive(ctx context.Context, w io.Writer, manifest domain.ChannelManifest) error {
	zw := zip.NewWriter(w)

	for i, stagedKey := range manifest.StagedKeys {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := stagedKey
		if i < len(manifest.FileNames) {
			name = manifest.FileNames[i]
		}

		entry, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("create archive entry %q: %w", name, err)
		}
		body, err := p.storage.Open(ctx, stagedKey)
		if err != nil {
			return fmt.Errorf("open staged file %q: %w", stagedKey, err)
		}
		_, err = io.Copy(entry, body)
		_ = body.Close()
		if err != nil {
			return fmt.Errorf("archive staged file %q: %w", stagedKey, err)
		}
	}

	return zw.Close()
}
