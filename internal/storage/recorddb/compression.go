package recorddb

import (
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4"
)

// Compressor shrinks encoded records before they hit the key-value database.
type Compressor interface {
	Name() string
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// NewCompressor returns the compressor with the given name.
func NewCompressor(name string) (Compressor, error) {
	switch name {
	case "none", "":
		return &NoCompressor{}, nil
	case "lz4":
		return &LZ4Compressor{}, nil
	default:
		return nil, fmt.Errorf("unknown compressor: %s", name)
	}
}

// NoCompressor passes data through unchanged.
type NoCompressor struct{}

func (c *NoCompressor) Name() string { return "none" }

func (c *NoCompressor) Compress(data []byte) ([]byte, error) {
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

func (c *NoCompressor) Decompress(data []byte) ([]byte, error) {
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

// LZ4Compressor block-compresses data, prefixing the uncompressed length as a
// uvarint so decompression can allocate exactly once.
type LZ4Compressor struct{}

func (c *LZ4Compressor) Name() string { return "lz4" }

func (c *LZ4Compressor) Compress(data []byte) ([]byte, error) {
	header := binary.AppendUvarint(nil, uint64(len(data)))
	if len(data) == 0 {
		return header, nil
	}

	compressed := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}
	if n == 0 {
		// Incompressible input; CompressBlock signals this with n == 0.
		// Store it raw with a zero-length marker after the size.
		return append(append(header, 0), data...), nil
	}
	return append(append(header, 1), compressed[:n]...), nil
}

func (c *LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	size, read := binary.Uvarint(data)
	if read <= 0 {
		return nil, fmt.Errorf("lz4 frame missing length header")
	}
	data = data[read:]
	if size == 0 {
		return []byte{}, nil
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("lz4 frame missing block marker")
	}

	marker, block := data[0], data[1:]
	if marker == 0 {
		result := make([]byte, len(block))
		copy(result, block)
		return result, nil
	}

	decompressed := make([]byte, size)
	n, err := lz4.UncompressBlock(block, decompressed)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompression failed: %w", err)
	}
	return decompressed[:n], nil
}
