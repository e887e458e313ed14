package pdftext

import (
	"errors"
	"testing"

	"github.com/ledongthuc/pdf"
)

func TestFromText(t *testing.T) {
	doc := FromText("line one\r\nline two", "page two")

	if len(doc.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(doc.Pages))
	}
	if doc.Pages[0].Number != 1 || doc.Pages[1].Number != 2 {
		t.Errorf("unexpected page numbers: %d, %d", doc.Pages[0].Number, doc.Pages[1].Number)
	}
	if got := doc.Pages[0].Lines[1]; got != "line two" {
		t.Errorf("expected CRLF to be stripped, got %q", got)
	}
	if doc.LineCount() != 3 {
		t.Errorf("LineCount() = %d, want 3", doc.LineCount())
	}
}

func TestJoinRow(t *testing.T) {
	row := pdf.TextHorizontal{
		{S: "TARJETA:", X: 10, W: 40, FontSize: 10},
		{S: "****", X: 55, W: 20, FontSize: 10},
		{S: "1234", X: 75, W: 20, FontSize: 10},
	}

	if got := joinRow(row); got != "TARJETA: ****1234" {
		t.Errorf("joinRow() = %q", got)
	}
}

func TestRead_InvalidData(t *testing.T) {
	_, err := Read([]byte("definitely not a pdf"), "")
	if err == nil {
		t.Fatal("expected error for non-pdf input")
	}

	var re *ReadError
	if !errors.As(err, &re) {
		t.Fatalf("expected *ReadError, got %T", err)
	}
	if re.Code != ErrUnreadable {
		t.Errorf("expected code %s, got %s", ErrUnreadable, re.Code)
	}
	if IsEncrypted(err) {
		t.Error("garbage input should not be reported as encrypted")
	}
}

func TestReadError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &ReadError{Code: ErrEncrypted, Message: "locked", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("expected ReadError to unwrap to its cause")
	}
	if !IsEncrypted(err) {
		t.Error("expected IsEncrypted to be true")
	}
	if got := err.Error(); got != "[ENCRYPTED] locked: boom" {
		t.Errorf("Error() = %q", got)
	}
}
