package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// ErrNoImage is returned when a capture yields no image data (the user
// cancelled, no file was selected, or the payload was empty).
var ErrNoImage = errors.New("no image selected")

// RawCapture is a single captured receipt image as it came off the device.
// It is owned by the pipeline for the duration of one run and discarded
// after the evidence image has been uploaded.
type RawCapture struct {
	Bytes    []byte
	MimeType string
	Filename string
}

// EncodedImage is the transport-safe form of a capture: a base64 payload
// plus the MIME type the inference API should interpret it as. Derived,
// immutable, single use.
type EncodedImage struct {
	Data     string
	MimeType string
}

// Source acquires a single image. A Source is created per pipeline run and
// discarded at run end; there is no shared capture handle between runs.
type Source interface {
	Acquire(ctx context.Context) (*RawCapture, error)
}

// FileSource acquires a capture from a file on disk (one-shot CLI mode).
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource for the given path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Acquire reads the file and wraps it as a RawCapture.
func (s *FileSource) Acquire(ctx context.Context) (*RawCapture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.path == "" {
		return nil, ErrNoImage
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading capture file: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoImage
	}

	mimeType := mime.TypeByExtension(filepath.Ext(s.path))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	return &RawCapture{
		Bytes:    data,
		MimeType: mimeType,
		Filename: filepath.Base(s.path),
	}, nil
}

// FromUpload wraps an uploaded file (e.g. a multipart form part) as a
// RawCapture. An empty payload is treated the same as a cancelled capture.
func FromUpload(r io.Reader, filename, contentType string) (*RawCapture, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoImage
	}

	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return &RawCapture{
		Bytes:    data,
		MimeType: contentType,
		Filename: filename,
	}, nil
}
