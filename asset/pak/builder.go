package pak

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hive-engine/hive/asset/hash"
)

// Entry is one asset's payload to pack into an archive.
type Entry struct {
	Hash hash.ContentHash
	Data []byte
}

// EncodeManifest serializes a virtual-path -> content-hash map for
// embedding in the archive under the Sentinel hash.
func EncodeManifest(paths map[string]hash.ContentHash) ([]byte, error) {
	asStrings := make(map[string]string, len(paths))
	for path, h := range paths {
		asStrings[path] = h.String()
	}
	return json.Marshal(asStrings)
}

// DecodeManifest reverses EncodeManifest.
func DecodeManifest(data []byte) (map[string]hash.ContentHash, error) {
	var asStrings map[string]string
	if err := json.Unmarshal(data, &asStrings); err != nil {
		return nil, fmt.Errorf("pak: decode manifest: %w", err)
	}
	out := make(map[string]hash.ContentHash, len(asStrings))
	for path, hexStr := range asStrings {
		h, err := hash.FromHexString(hexStr)
		if err != nil {
			return nil, fmt.Errorf("pak: decode manifest entry %q: %w", path, err)
		}
		out[path] = h
	}
	return out, nil
}

// Build packs entries into a complete .npak archive, compressing each
// 64 KiB block with method (falling back to storing it uncompressed if
// compression does not help), and returns the archive's raw bytes.
func Build(entries []Entry, method CompressionMethod) ([]byte, error) {
	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Hash.Less(sorted[j].Hash) })

	var stream []byte
	assetEntries := make([]assetTocEntry, len(sorted))
	for i, e := range sorted {
		start := uint64(len(stream))
		stream = append(stream, e.Data...)
		assetEntries[i] = assetTocEntry{
			hash:             e.Hash,
			firstBlock:       uint32(start / blockSize),
			offsetInBlock:    uint32(start % blockSize),
			uncompressedSize: uint32(len(e.Data)),
		}
	}

	var blocks [][]byte
	for offset := 0; offset < len(stream); offset += blockSize {
		end := offset + blockSize
		if end > len(stream) {
			end = len(stream)
		}
		blocks = append(blocks, stream[offset:end])
	}

	// File layout: header, then blocks each at a 4 KiB-aligned offset,
	// then the ToC.
	cursor := alignUp4K(headerSize)
	blockEntries := make([]blockTocEntry, len(blocks))
	packedBlocks := make([][]byte, len(blocks))
	for i, block := range blocks {
		compressed, actualMethod, err := compressBlock(block, method)
		if err != nil {
			return nil, fmt.Errorf("pak: compress block %d: %w", i, err)
		}
		blockEntries[i] = blockTocEntry{
			fileOffset:        cursor,
			compressedSize:    uint32(len(compressed)),
			compressionMethod: actualMethod,
		}
		packedBlocks[i] = compressed
		cursor = alignUp4K(cursor + uint64(len(compressed)))
	}

	tocOffset := cursor
	tocBody := encodeToC(assetEntries, blockEntries)

	hdr := header{
		version:    formatVersion,
		flags:      0,
		blockCount: uint32(len(blocks)),
		tocOffset:  tocOffset,
		tocSize:    uint32(len(tocBody)),
		tocCRC32:   crc32Of(tocBody),
	}

	out := make([]byte, tocOffset+uint64(len(tocBody)))
	copy(out, hdr.encode())
	for i, block := range packedBlocks {
		copy(out[blockEntries[i].fileOffset:], block)
	}
	copy(out[tocOffset:], tocBody)
	return out, nil
}

func encodeToC(assets []assetTocEntry, blocks []blockTocEntry) []byte {
	buf := make([]byte, 0, 4+len(assets)*assetEntrySize+len(blocks)*blockEntrySize)
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(assets)))
	buf = append(buf, countBuf[:]...)
	for _, a := range assets {
		buf = append(buf, a.encode()...)
	}
	for _, b := range blocks {
		buf = append(buf, b.encode()...)
	}
	return buf
}
