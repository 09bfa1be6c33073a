// Package extensions holds the static allowed-extension table. It sits
// behind ports.ExtensionPolicy so supporting a new format never touches
// the workflow itself.
package extensions

import "github.com/vecemhq/dataset-ingest/internal/core/domain"

var allowed = map[domain.ContentCategory][]string{
	domain.CategoryImage: {"jpg", "jpeg", "png", "gif", "webp", "heic"},
	domain.CategoryAudio: {"mp3", "wav", "ogg"},
	domain.CategoryVideo: {"mp4", "webm", "ogv"},
	domain.CategoryText:  {"txt", "csv", "json"},
}

type StaticPolicy struct{}

func NewStaticPolicy() StaticPolicy {
	return StaticPolicy{}
}

// AllowedExtensions returns a copy so callers cannot mutate the table.
func (StaticPolicy) AllowedExtensions(category domain.ContentCategory) []string {
	exts, ok := allowed[category]
	if !ok {
		return nil
	}
	out := make([]string, len(exts))
	copy(out, exts)
	return out
}
