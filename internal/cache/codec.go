package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// ContentType is the content type the compressed cache is stored with
const ContentType = "application/gzip"

// maxDecompressedSize bounds the size of a decompressed cache
const maxDecompressedSize = 256 * 1024 * 1024

// Encode canonicalizes c and returns its JSON encoding. Equal logical state
// always produces equal bytes.
func Encode(c *Cache) ([]byte, error) {
	c.Canonicalize()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode cache: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Decode validates data and returns the cache it holds, migrating the legacy
// layout when needed. The second result is the schema version found in data.
func Decode(data []byte) (*Cache, int, error) {
	if err := Validate(data); err != nil {
		return nil, 0, err
	}

	version, err := detectVersion(data)
	if err != nil {
		return nil, 0, err
	}

	var c *Cache
	switch version {
	case 1:
		c, err = decodeLegacy(data)
	default:
		c, err = decodeCurrent(data)
	}
	if err != nil {
		return nil, version, err
	}

	c.Canonicalize()
	return c, version, nil
}

func decodeCurrent(data []byte) (*Cache, error) {
	c := New()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to decode cache: %w", err)
	}
	return c, nil
}

// Compress gzips data
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress cache: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress cache: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress gunzips data
func Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open compressed cache: %w", err)
	}
	defer func() {
		_ = r.Close()
	}()

	out, err := io.ReadAll(io.LimitReader(r, maxDecompressedSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress cache: %w", err)
	}
	if len(out) > maxDecompressedSize {
		return nil, fmt.Errorf("decompressed cache exceeds %d bytes", maxDecompressedSize)
	}
	return out, nil
}
