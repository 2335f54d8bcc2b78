// Package archive stores generated reports in Google Cloud Storage.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

const uploadTimeout = 2 * time.Minute

// Archiver keeps a copy of a generated file and returns its URI.
type Archiver interface {
	Save(ctx context.Context, sessionID, fileName, contentType string, data []byte) (string, error)
}

// GCSArchive writes reports to gs://<bucket>/<prefix>/<session>/<file>.
type GCSArchive struct {
	bucket    string
	prefix    string
	newWriter func(ctx context.Context, object, contentType string) io.WriteCloser
}

// NewGCSArchive creates an archive on an existing storage client. It assumes
// Application Default Credentials when the client was created without options.
func NewGCSArchive(client *storage.Client, bucket, prefix string) *GCSArchive {
	bkt := client.Bucket(bucket)
	return &GCSArchive{
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		newWriter: func(ctx context.Context, object, contentType string) io.WriteCloser {
			w := bkt.Object(object).NewWriter(ctx)
			w.ContentType = contentType
			return w
		},
	}
}

// ObjectName returns the object path a file of a session is stored under.
func (a *GCSArchive) ObjectName(sessionID, fileName string) string {
	return path.Join(a.prefix, sessionID, fileName)
}

// Save uploads data and returns its gs:// URI.
func (a *GCSArchive) Save(ctx context.Context, sessionID, fileName, contentType string, data []byte) (string, error) {
	object := a.ObjectName(sessionID, fileName)

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := a.newWriter(ctx, object, contentType)
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("Save: copy to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Save: finalize upload: %w", err)
	}

	return "gs://" + a.bucket + "/" + object, nil
}

var _ Archiver = (*GCSArchive)(nil)
