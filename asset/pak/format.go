// Package pak implements the packed archive format (.npak): a header,
// compressed 64 KiB blocks at 4 KiB-aligned file offsets, and a table of
// contents mapping content hashes to block ranges.
//
// Grounded on Nectar/include/nectar/pak/npak_format.h and
// Nectar/src/nectar/pak/compression.cpp.
package pak

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/hive-engine/hive/asset/hash"
)

const (
	magic = uint32(0x4B41504E) // "NPAK" little-endian

	headerSize     = 32
	assetEntrySize = 28 // content_hash(16) + first_block(4) + offset_in_block(4) + uncompressed_size(4)
	blockEntrySize = 13 // file_offset(8) + compressed_size(4) + compression_method(1)

	blockSize     = 64 * 1024
	blockAlign    = 4 * 1024
	formatVersion = 1
)

// CompressionMethod identifies how a block's bytes are encoded on disk.
type CompressionMethod uint8

const (
	CompressionNone CompressionMethod = iota
	CompressionLZ4
	CompressionZstd
)

func (m CompressionMethod) String() string {
	switch m {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

type header struct {
	version    uint32
	flags      uint32
	blockCount uint32
	tocOffset  uint64
	tocSize    uint32
	tocCRC32   uint32
}

func (h header) encode() []byte {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(buf[0:4], magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.version)
	binary.LittleEndian.PutUint32(buf[8:12], h.flags)
	binary.LittleEndian.PutUint32(buf[12:16], h.blockCount)
	binary.LittleEndian.PutUint64(buf[16:24], h.tocOffset)
	binary.LittleEndian.PutUint32(buf[24:28], h.tocSize)
	binary.LittleEndian.PutUint32(buf[28:32], h.tocCRC32)
	return buf
}

func decodeHeader(buf []byte) (header, error) {
	if len(buf) < headerSize {
		return header{}, fmt.Errorf("pak: header too short: %d bytes", len(buf))
	}
	if got := binary.LittleEndian.Uint32(buf[0:4]); got != magic {
		return header{}, fmt.Errorf("pak: bad magic %08x", got)
	}
	return header{
		version:    binary.LittleEndian.Uint32(buf[4:8]),
		flags:      binary.LittleEndian.Uint32(buf[8:12]),
		blockCount: binary.LittleEndian.Uint32(buf[12:16]),
		tocOffset:  binary.LittleEndian.Uint64(buf[16:24]),
		tocSize:    binary.LittleEndian.Uint32(buf[24:28]),
		tocCRC32:   binary.LittleEndian.Uint32(buf[28:32]),
	}, nil
}

// assetTocEntry locates one asset's content within the block stream.
type assetTocEntry struct {
	hash             hash.ContentHash
	firstBlock       uint32
	offsetInBlock    uint32
	uncompressedSize uint32
}

func (e assetTocEntry) encode() []byte {
	buf := make([]byte, assetEntrySize)
	hb := e.hash.Bytes()
	copy(buf[0:16], hb[:])
	binary.LittleEndian.PutUint32(buf[16:20], e.firstBlock)
	binary.LittleEndian.PutUint32(buf[20:24], e.offsetInBlock)
	binary.LittleEndian.PutUint32(buf[24:28], e.uncompressedSize)
	return buf
}

func decodeAssetEntry(buf []byte) (assetTocEntry, error) {
	h, err := hash.FromByteSlice(buf[0:16])
	if err != nil {
		return assetTocEntry{}, err
	}
	return assetTocEntry{
		hash:             h,
		firstBlock:       binary.LittleEndian.Uint32(buf[16:20]),
		offsetInBlock:    binary.LittleEndian.Uint32(buf[20:24]),
		uncompressedSize: binary.LittleEndian.Uint32(buf[24:28]),
	}, nil
}

// blockTocEntry describes one on-disk compressed block.
type blockTocEntry struct {
	fileOffset       uint64
	compressedSize   uint32
	compressionMethod CompressionMethod
}

func (e blockTocEntry) encode() []byte {
	buf := make([]byte, blockEntrySize)
	binary.LittleEndian.PutUint64(buf[0:8], e.fileOffset)
	binary.LittleEndian.PutUint32(buf[8:12], e.compressedSize)
	buf[12] = byte(e.compressionMethod)
	return buf
}

func decodeBlockEntry(buf []byte) blockTocEntry {
	return blockTocEntry{
		fileOffset:        binary.LittleEndian.Uint64(buf[0:8]),
		compressedSize:    binary.LittleEndian.Uint32(buf[8:12]),
		compressionMethod: CompressionMethod(buf[12]),
	}
}

func crc32Of(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

func alignUp4K(n uint64) uint64 {
	const align = blockAlign
	return (n + align - 1) &^ (align - 1)
}
