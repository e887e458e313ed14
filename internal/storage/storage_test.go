package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestParseGCSURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{"gs://bucket/path/to/file.pdf", "bucket", "path/to/file.pdf", false},
		{"gs://bucket/", "bucket", "", false},
		{"gs://bucket", "bucket", "", false},
		{"gs:///file.pdf", "", "", true},
		{"s3://bucket/file.pdf", "", "", true},
		{"/local/path.pdf", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, object, err := ParseGCSURI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if bucket != tt.wantBucket || object != tt.wantObject {
				t.Errorf("got (%q, %q), want (%q, %q)", bucket, object, tt.wantBucket, tt.wantObject)
			}
		})
	}
}

func TestExtractFilenameFromGCSURI(t *testing.T) {
	tests := map[string]string{
		"gs://bucket/folder/file.pdf": "file.pdf",
		"gs://bucket/file.pdf":        "file.pdf",
		"gs://bucket":                 "bucket",
	}
	for uri, want := range tests {
		if got := ExtractFilenameFromGCSURI(uri); got != want {
			t.Errorf("ExtractFilenameFromGCSURI(%q) = %q, want %q", uri, got, want)
		}
	}
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"b_VISA.pdf":    "%PDF",
		"a_MC.PDF":      "%PDF",
		"c_visa.txt":    "page one",
		"notes.docx":    "x",
		"registry.xlsx": "x",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o755); err != nil {
		t.Fatal(err)
	}

	src := NewDirSource(dir)
	refs, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	want := []string{"a_MC.PDF", "b_VISA.pdf", "c_visa.txt"}
	if len(refs) != len(want) {
		t.Fatalf("got %d refs (%v), want %d", len(refs), refs, len(want))
	}
	for i, name := range want {
		if refs[i].Name != name {
			t.Errorf("refs[%d] = %q, want %q", i, refs[i].Name, name)
		}
	}
	if !IsText(refs[2]) || IsText(refs[0]) {
		t.Error("IsText misclassified documents")
	}

	data, err := src.Read(context.Background(), refs[2])
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(data) != "page one" {
		t.Errorf("Read = %q", data)
	}

	if _, err := NewDirSource(filepath.Join(dir, "missing")).List(context.Background()); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestNewGCSSourceRejectsBadURI(t *testing.T) {
	if _, err := NewGCSSource(nil, "/tmp/statements"); err == nil {
		t.Error("expected error for non-gs URI")
	}
	src, err := NewGCSSource(nil, "gs://bucket/statements")
	if err != nil {
		t.Fatal(err)
	}
	if src.prefix != "statements/" {
		t.Errorf("prefix = %q, want trailing slash", src.prefix)
	}
}
