package pak

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// compressBlock encodes data with method, falling back to storing it
// uncompressed if the encoded form is not smaller than the input.
func compressBlock(data []byte, method CompressionMethod) ([]byte, CompressionMethod, error) {
	switch method {
	case CompressionNone:
		return data, CompressionNone, nil
	case CompressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, 0, fmt.Errorf("pak: lz4 compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, 0, fmt.Errorf("pak: lz4 finalize: %w", err)
		}
		if buf.Len() >= len(data) {
			return data, CompressionNone, nil
		}
		return buf.Bytes(), CompressionLZ4, nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, 0, fmt.Errorf("pak: zstd encoder: %w", err)
		}
		defer enc.Close()
		compressed := enc.EncodeAll(data, nil)
		if len(compressed) >= len(data) {
			return data, CompressionNone, nil
		}
		return compressed, CompressionZstd, nil
	default:
		return nil, 0, fmt.Errorf("pak: unknown compression method %d", method)
	}
}

// decompressBlock reverses compressBlock for a block stored with method,
// given its known decompressed size.
func decompressBlock(data []byte, method CompressionMethod, decompressedSize int) ([]byte, error) {
	switch method {
	case CompressionNone:
		return data, nil
	case CompressionLZ4:
		r := lz4.NewReader(bytes.NewReader(data))
		out := make([]byte, decompressedSize)
		if _, err := io.ReadFull(r, out); err != nil {
			return nil, fmt.Errorf("pak: lz4 decompress: %w", err)
		}
		return out, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("pak: zstd decoder: %w", err)
		}
		defer dec.Close()
		out, err := dec.DecodeAll(data, make([]byte, 0, decompressedSize))
		if err != nil {
			return nil, fmt.Errorf("pak: zstd decompress: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("pak: unknown compression method %d", method)
	}
}
