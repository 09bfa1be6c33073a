// Package localdir is the directory-picker equivalent for headless
// embedders: it scans a directory into file handles and serves their
// bytes back to the transport.
package localdir

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vecemhq/dataset-ingest/internal/core/domain"
)

type Source struct {
	dir string
}

func New(dir string) *Source {
	return &Source{dir: dir}
}

// Scan lists the directory's regular files as immutable handles, in
// name order. Subdirectories are skipped; the workflow ingests flat
// selections only.
func (s *Source) Scan() ([]domain.FileHandle, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read selection dir: %w", err)
	}

	var handles []domain.FileHandle
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %q: %w", entry.Name(), err)
		}
		mimeType := mime.TypeByExtension(filepath.Ext(entry.Name()))
		if i := strings.IndexByte(mimeType, ';'); i >= 0 {
			mimeType = mimeType[:i]
		}
		handles = append(handles, domain.NewFileHandle(entry.Name(), mimeType, info.Size()))
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i].Name < handles[j].Name })
	return handles, nil
}

// Open implements ports.FileSource. A flat directory backs every
// channel, so the channel kind does not affect the lookup.
func (s *Source) Open(_ domain.ChannelKind, handle domain.FileHandle) (io.ReadCloser, error) {
	name := filepath.Base(handle.Name)
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("open selected file %q: %w", name, err)
	}
	return f, nil
}
