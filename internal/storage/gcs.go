package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// ParseGCSURI splits "gs://bucket/path/to/object" into bucket and object.
// The object may be empty for bucket-level URIs.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}

	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if parts[0] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no bucket): %s", uri)
	}
	if len(parts) == 1 {
		return parts[0], "", nil
	}
	return parts[0], parts[1], nil
}

// ExtractFilenameFromGCSURI extracts the filename from a GCS URI.
// e.g., "gs://bucket/folder/file.pdf" → "file.pdf"
func ExtractFilenameFromGCSURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")

	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}

// GCSSource reads documents directly under a gs:// prefix.
type GCSSource struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSSource returns a Source over a gs://bucket/prefix URI.
func NewGCSSource(client *storage.Client, uri string) (*GCSSource, error) {
	bucket, prefix, err := ParseGCSURI(uri)
	if err != nil {
		return nil, err
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &GCSSource{client: client, bucket: bucket, prefix: prefix}, nil
}

// List returns the documents under the prefix sorted by name. Objects in
// nested "directories" are skipped, like DirSource does.
func (s *GCSSource) List(ctx context.Context) ([]DocumentRef, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: s.prefix, Delimiter: "/"})

	var refs []DocumentRef
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list gs://%s/%s: %w", s.bucket, s.prefix, err)
		}
		if attrs.Name == "" || !IsDocument(attrs.Name) {
			continue
		}
		uri := fmt.Sprintf("gs://%s/%s", s.bucket, attrs.Name)
		refs = append(refs, DocumentRef{Name: ExtractFilenameFromGCSURI(uri), URI: uri})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

// Read downloads the document bytes.
func (s *GCSSource) Read(ctx context.Context, ref DocumentRef) ([]byte, error) {
	bucket, object, err := ParseGCSURI(ref.URI)
	if err != nil {
		return nil, err
	}

	rc, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading bytes of %s: %w", ref.URI, err)
	}
	return data, nil
}

var _ Source = (*GCSSource)(nil)

// Uploader copies output files to Cloud Storage.
type Uploader struct {
	client  *storage.Client
	timeout time.Duration
}

// NewUploader returns an Uploader. Each upload is bounded by two minutes.
func NewUploader(client *storage.Client) *Uploader {
	return &Uploader{client: client, timeout: 2 * time.Minute}
}

// UploadFile uploads localPath to dest. A dest ending in "/" or naming only
// a bucket receives the file under its base name. It returns the final URI.
func (u *Uploader) UploadFile(ctx context.Context, localPath, dest string) (string, error) {
	bucket, object, err := ParseGCSURI(dest)
	if err != nil {
		return "", err
	}
	if object == "" || strings.HasSuffix(object, "/") {
		object += path.Base(strings.ReplaceAll(localPath, "\\", "/"))
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open file %q: %w", localPath, err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	w := u.client.Bucket(bucket).Object(object).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("copy file to GCS writer: %w", err)
	}
	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", bucket, object), nil
}
