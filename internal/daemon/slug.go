package daemon

import (
	"os"
	"path/filepath"
	"strings"

	"beacon/internal/types"
)

// SlugResolver names a session from external session metadata. Resolution
// may keep failing (empty string) until the metadata file appears on disk.
type SlugResolver interface {
	Slug(sessionID, workingDirectory string) string
}

// FileSlugResolver derives a slug from the assistant's on-disk metadata
// layout: one directory per project under root, holding one
// {sessionID}.jsonl transcript per session. The project directory name is
// the project path with separators flattened to dashes.
type FileSlugResolver struct {
	root string
}

func NewFileSlugResolver(root string) *FileSlugResolver {
	return &FileSlugResolver{root: root}
}

func (f *FileSlugResolver) Slug(sessionID, workingDirectory string) string {
	if f == nil || f.root == "" || sessionID == "" {
		return ""
	}
	transcript := sessionID + ".jsonl"
	if dir := flattenPath(workingDirectory); dir != "" {
		if _, err := os.Stat(filepath.Join(f.root, dir, transcript)); err == nil {
			return slugFromProjectDir(dir)
		}
	}
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(f.root, entry.Name(), transcript)); err != nil {
			continue
		}
		return slugFromProjectDir(entry.Name())
	}
	return ""
}

// flattenPath mirrors the metadata layout's directory naming, where every
// path separator or dot becomes a dash.
func flattenPath(path string) string {
	if path == "" || path == types.UnknownWorkingDirectory {
		return ""
	}
	var b strings.Builder
	for _, r := range path {
		switch r {
		case '/', '\\', '.':
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// slugFromProjectDir extracts the trailing segment of a dash-flattened
// project path, e.g. "-home-user-dev-beacon" yields "beacon".
func slugFromProjectDir(name string) string {
	parts := strings.Split(name, "-")
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			return parts[i]
		}
	}
	return ""
}
