package storage

import (
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"github.com/mrlokans/bookshelf/internal/apperr"
)

const MIMETypePDF = "application/pdf"

var (
	ErrNotPDF           = apperr.Validation("file must be a PDF")
	ErrUnreadablePDF    = apperr.Validation("PDF file could not be read")
	ErrUnsupportedImage = apperr.Validation("cover must be a JPEG, PNG, WebP or GIF image")
)

// allowedCoverTypes maps accepted cover MIME types to file extensions.
var allowedCoverTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Upload is an uploaded file. multipart.File satisfies it.
type Upload interface {
	io.Reader
	io.ReaderAt
	io.Seeker
}

// PDFInfo holds what is extracted from an uploaded PDF.
type PDFInfo struct {
	Pages int
}

// SniffType detects the content type from the leading bytes and rewinds r.
func SniffType(r io.ReadSeeker) (*mimetype.MIME, error) {
	m, err := mimetype.DetectReader(r)
	if err != nil {
		return nil, fmt.Errorf("detect content type: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}
	return m, nil
}

// InspectPDF verifies the upload is a PDF and counts its pages.
func InspectPDF(f Upload, size int64) (PDFInfo, error) {
	m, err := SniffType(f)
	if err != nil {
		return PDFInfo{}, err
	}
	if !m.Is(MIMETypePDF) {
		return PDFInfo{}, ErrNotPDF
	}

	pages, err := countPages(f, size)
	if err != nil {
		return PDFInfo{}, err
	}
	return PDFInfo{Pages: pages}, nil
}

// countPages reads the page tree. The pdf package panics on some malformed
// inputs, so a panic is reported as an unreadable file.
func countPages(r io.ReaderAt, size int64) (pages int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = 0, ErrUnreadablePDF
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return 0, ErrUnreadablePDF
	}
	return reader.NumPage(), nil
}

// CoverExtension validates an uploaded cover image and returns the
// extension and MIME type to store it under.
func CoverExtension(f io.ReadSeeker) (ext string, contentType string, err error) {
	m, err := SniffType(f)
	if err != nil {
		return "", "", err
	}
	for mt, ext := range allowedCoverTypes {
		if m.Is(mt) {
			return ext, mt, nil
		}
	}
	return "", "", ErrUnsupportedImage
}
