package capture

import (
	"bytes"
	"encoding/base64"
	"fmt"
)

// Encode converts a RawCapture into the base64 form the inference API
// expects. Payloads that arrive as a data URL (some capture surfaces hand
// over "data:image/jpeg;base64,...") have the transport header stripped
// first so only the image payload is carried forward. PDFs and HEIC photos
// are rendered to PNG before encoding.
func Encode(c *RawCapture) (*EncodedImage, error) {
	if c == nil || len(c.Bytes) == 0 {
		return nil, ErrNoImage
	}

	raw := c.Bytes
	mimeType := c.MimeType
	if payload, headerMime, ok := splitDataURL(raw); ok {
		decoded, err := base64.StdEncoding.DecodeString(string(payload))
		if err != nil {
			return nil, fmt.Errorf("decoding capture payload: %w", err)
		}
		raw = decoded
		if headerMime != "" {
			mimeType = headerMime
		}
	}

	prepared, finalMime, err := prepareImage(raw, mimeType)
	if err != nil {
		return nil, fmt.Errorf("preparing image: %w", err)
	}

	return &EncodedImage{
		Data:     base64.StdEncoding.EncodeToString(prepared),
		MimeType: finalMime,
	}, nil
}

// splitDataURL splits a "data:<mime>;base64,<payload>" blob into its payload
// and declared MIME type. Returns ok=false for plain binary captures.
func splitDataURL(data []byte) (payload []byte, mimeType string, ok bool) {
	if !bytes.HasPrefix(data, []byte("data:")) {
		return nil, "", false
	}
	comma := bytes.IndexByte(data, ',')
	if comma == -1 {
		return nil, "", false
	}

	header := string(data[len("data:"):comma])
	if semi := bytes.IndexByte([]byte(header), ';'); semi != -1 {
		mimeType = header[:semi]
	} else {
		mimeType = header
	}

	return data[comma+1:], mimeType, true
}
