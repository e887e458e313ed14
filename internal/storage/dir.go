package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DirSource reads documents from a local directory, non-recursively.
type DirSource struct {
	Dir string
}

// NewDirSource returns a Source over dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

// List returns the documents in the directory sorted by name.
func (s *DirSource) List(ctx context.Context) ([]DocumentRef, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.Dir, err)
	}

	var refs []DocumentRef
	for _, e := range entries {
		if e.IsDir() || !IsDocument(e.Name()) {
			continue
		}
		refs = append(refs, DocumentRef{Name: e.Name(), URI: filepath.Join(s.Dir, e.Name())})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

// Read returns the document bytes.
func (s *DirSource) Read(ctx context.Context, ref DocumentRef) ([]byte, error) {
	data, err := os.ReadFile(ref.URI)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref.Name, err)
	}
	return data, nil
}

var _ Source = (*DirSource)(nil)
