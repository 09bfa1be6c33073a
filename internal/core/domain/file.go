package domain

import (
	"path/filepath"
	"strings"
)

type ChannelKind string

const (
	ChannelRaw        ChannelKind = "raw"
	ChannelVectorized ChannelKind = "vectorized"
)

// FileHandle describes one selected file. It is immutable once selected
// and owned exclusively by its channel.
type FileHandle struct {
	Name      string `json:"name"`
	Extension string `json:"extension"`
	MIMEType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// NewFileHandle derives the lowercased extension from the file name.
// Extension is authoritative for classification; MIME type is a secondary
// signal because directory pickers report unreliable types on some platforms.
func NewFileHandle(name, mimeType string, sizeBytes int64) FileHandle {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	return FileHandle{
		Name:      name,
		Extension: strings.ToLower(ext),
		MIMEType:  mimeType,
		SizeBytes: sizeBytes,
	}
}

// FileChannel is one file track of a submission.
type FileChannel struct {
	Kind       ChannelKind  `json:"kind"`
	Files      []FileHandle `json:"files"`
	TotalBytes int64        `json:"total_bytes"`
}

func NewFileChannel(kind ChannelKind, files []FileHandle) FileChannel {
	var total int64
	for _, f := range files {
		total += f.SizeBytes
	}
	return FileChannel{
		Kind:       kind,
		Files:      files,
		TotalBytes: total,
	}
}

func (c FileChannel) Empty() bool {
	return len(c.Files) == 0
}
