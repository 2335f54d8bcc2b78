package archive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
)

type memWriter struct {
	buf      bytes.Buffer
	closeErr error
	closed   bool
}

func (w *memWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }
func (w *memWriter) Close() error {
	w.closed = true
	return w.closeErr
}

func newTestArchive(w *memWriter, objects *[]string) *GCSArchive {
	return &GCSArchive{
		bucket: "reports",
		prefix: "finance",
		newWriter: func(ctx context.Context, object, contentType string) io.WriteCloser {
			*objects = append(*objects, object+"|"+contentType)
			return w
		},
	}
}

func TestGCSArchive_Save(t *testing.T) {
	w := &memWriter{}
	var objects []string
	a := newTestArchive(w, &objects)

	uri, err := a.Save(context.Background(), "s-1", "Finanzanalyse_Bericht_2025-03-14.pdf", "application/pdf", []byte("%PDF-1.3"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if uri != "gs://reports/finance/s-1/Finanzanalyse_Bericht_2025-03-14.pdf" {
		t.Errorf("uri = %q", uri)
	}
	if len(objects) != 1 || objects[0] != "finance/s-1/Finanzanalyse_Bericht_2025-03-14.pdf|application/pdf" {
		t.Errorf("objects = %v", objects)
	}
	if w.buf.String() != "%PDF-1.3" || !w.closed {
		t.Errorf("written = %q, closed = %v", w.buf.String(), w.closed)
	}
}

func TestGCSArchive_SaveCloseError(t *testing.T) {
	w := &memWriter{closeErr: errors.New("permission denied")}
	var objects []string
	a := newTestArchive(w, &objects)

	if _, err := a.Save(context.Background(), "s-1", "r.pdf", "application/pdf", []byte("x")); err == nil {
		t.Error("Expected error when finalizing fails")
	}
}

func TestObjectName_NoPrefix(t *testing.T) {
	a := &GCSArchive{bucket: "b"}
	if got := a.ObjectName("s", "f.pdf"); got != "s/f.pdf" {
		t.Errorf("ObjectName() = %q", got)
	}
}
