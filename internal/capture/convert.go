package capture

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// prepareImage normalizes the MIME type and converts formats the inference
// API cannot ingest inline. PDF receipts are rendered to PNG and HEIC/HEIF
// phone photos are decoded to PNG; everything else passes through untouched.
func prepareImage(data []byte, contentType string) ([]byte, string, error) {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	switch {
	case mimeType == "application/pdf":
		pngData, err := pdfToPNG(data)
		if err != nil {
			return nil, "", fmt.Errorf("converting PDF to image: %w", err)
		}
		return pngData, "image/png", nil
	case isHEICData(data) || isHEICMimeType(mimeType):
		pngData, err := heicToPNG(data)
		if err != nil {
			return nil, "", fmt.Errorf("converting HEIC to image: %w", err)
		}
		return pngData, "image/png", nil
	}

	return data, mimeType, nil
}

// pdfToPNG renders the first page of a PDF as PNG. Receipts are assumed to
// be single page.
func pdfToPNG(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// heicToPNG decodes a HEIC/HEIF image (common on iPhones, unsupported by
// Go's standard image package) and re-encodes it as PNG.
func heicToPNG(data []byte) ([]byte, error) {
	img, err := heic.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// isHEICData sniffs the HEIC/HEIF container signature: an ftyp box at
// offset 4 with a HEIC-related brand.
func isHEICData(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func isHEICMimeType(mimeType string) bool {
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}
