// Package storage lists and reads statement documents from a local
// directory or a Cloud Storage prefix, and uploads output files.
package storage

import (
	"context"
	"path"
	"strings"
)

// DocumentRef identifies one document in a Source.
type DocumentRef struct {
	// Name is the base file name; issuer format detection uses it.
	Name string
	// URI is the full location: a local path or a gs:// URI.
	URI string
}

// Source lists and reads statement documents.
type Source interface {
	List(ctx context.Context) ([]DocumentRef, error)
	Read(ctx context.Context, ref DocumentRef) ([]byte, error)
}

// documentExts are the extensions a Source lists. Text files hold already
// extracted pages separated by form feeds.
var documentExts = map[string]bool{
	".pdf": true,
	".txt": true,
}

// IsDocument reports whether name has a statement document extension.
func IsDocument(name string) bool {
	return documentExts[strings.ToLower(path.Ext(name))]
}

// IsText reports whether a document holds plain text pages.
func IsText(ref DocumentRef) bool {
	return strings.EqualFold(path.Ext(ref.Name), ".txt")
}
