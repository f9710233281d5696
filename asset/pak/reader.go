package pak

import (
	"fmt"
	"os"
	"sort"

	"github.com/edsrzf/mmap-go"

	"github.com/hive-engine/hive/asset/hash"
)

// Reader opens a built .npak archive for lookup by content hash or, via
// the embedded manifest, by virtual path.
type Reader struct {
	data      []byte
	mapped    mmap.MMap
	file      *os.File
	assets    []assetTocEntry
	blocks    []blockTocEntry
	streamLen uint64
	manifest  map[string]hash.ContentHash
}

// Open memory-maps the archive at path and parses its header and ToC.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pak: open %s: %w", path, err)
	}
	mapped, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("pak: mmap %s: %w", path, err)
	}
	r, err := parseReader([]byte(mapped))
	if err != nil {
		mapped.Unmap()
		f.Close()
		return nil, err
	}
	r.mapped = mapped
	r.file = f
	return r, nil
}

// OpenBytes parses an archive already held in memory, without mmap. Used
// by tests and tools that build archives in a buffer.
func OpenBytes(data []byte) (*Reader, error) {
	return parseReader(data)
}

func parseReader(data []byte) (*Reader, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("pak: file too short for header")
	}
	hdr, err := decodeHeader(data[:headerSize])
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) < hdr.tocOffset+uint64(hdr.tocSize) {
		return nil, fmt.Errorf("pak: file too short for ToC")
	}
	tocBody := data[hdr.tocOffset : hdr.tocOffset+uint64(hdr.tocSize)]
	if crc32Of(tocBody) != hdr.tocCRC32 {
		return nil, fmt.Errorf("pak: ToC CRC32 mismatch")
	}

	assetCount := leUint32(tocBody[0:4])
	offset := 4
	assets := make([]assetTocEntry, assetCount)
	for i := uint32(0); i < assetCount; i++ {
		entry, err := decodeAssetEntry(tocBody[offset : offset+assetEntrySize])
		if err != nil {
			return nil, fmt.Errorf("pak: decode asset entry %d: %w", i, err)
		}
		assets[i] = entry
		offset += assetEntrySize
	}
	blocks := make([]blockTocEntry, hdr.blockCount)
	for i := uint32(0); i < hdr.blockCount; i++ {
		blocks[i] = decodeBlockEntry(tocBody[offset : offset+blockEntrySize])
		offset += blockEntrySize
	}

	var streamLen uint64
	for _, a := range assets {
		end := uint64(a.firstBlock)*blockSize + uint64(a.offsetInBlock) + uint64(a.uncompressedSize)
		if end > streamLen {
			streamLen = end
		}
	}

	return &Reader{data: data, assets: assets, blocks: blocks, streamLen: streamLen}, nil
}

// Close releases the mmap'd region and file handle, if Open (not
// OpenBytes) was used.
func (r *Reader) Close() error {
	if r.mapped != nil {
		if err := r.mapped.Unmap(); err != nil {
			return err
		}
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// ReadByHash binary-searches the asset ToC for h, decompresses as many
// blocks as needed, and returns exactly uncompressed_size bytes starting
// at offset_in_block.
func (r *Reader) ReadByHash(h hash.ContentHash) ([]byte, error) {
	i := sort.Search(len(r.assets), func(i int) bool { return !r.assets[i].hash.Less(h) })
	if i >= len(r.assets) || r.assets[i].hash != h {
		return nil, fmt.Errorf("pak: no asset with hash %s", h)
	}
	entry := r.assets[i]

	out := make([]byte, 0, entry.uncompressedSize)
	blockIdx := entry.firstBlock
	skip := int(entry.offsetInBlock)
	for uint32(len(out)) < entry.uncompressedSize {
		if int(blockIdx) >= len(r.blocks) {
			return nil, fmt.Errorf("pak: asset %s spans past the last block", h)
		}
		decoded, err := r.decodeBlock(blockIdx)
		if err != nil {
			return nil, err
		}
		chunk := decoded[skip:]
		remaining := int(entry.uncompressedSize) - len(out)
		if len(chunk) > remaining {
			chunk = chunk[:remaining]
		}
		out = append(out, chunk...)
		skip = 0
		blockIdx++
	}
	return out, nil
}

func (r *Reader) decodeBlock(idx uint32) ([]byte, error) {
	b := r.blocks[idx]
	compressed := r.data[b.fileOffset : b.fileOffset+uint64(b.compressedSize)]
	decompressedSize := blockSize
	if remaining := r.streamLen - uint64(idx)*blockSize; remaining < blockSize {
		decompressedSize = int(remaining)
	}
	return decompressBlock(compressed, b.compressionMethod, decompressedSize)
}

// ResolvePath looks up path in the archive's embedded manifest (stored
// under the Sentinel hash), loading and caching it on first use.
func (r *Reader) ResolvePath(path string) (hash.ContentHash, bool) {
	if r.manifest == nil {
		manifestBytes, err := r.ReadByHash(hash.Sentinel)
		if err != nil {
			r.manifest = map[string]hash.ContentHash{}
			return hash.ContentHash{}, false
		}
		decoded, err := DecodeManifest(manifestBytes)
		if err != nil {
			r.manifest = map[string]hash.ContentHash{}
			return hash.ContentHash{}, false
		}
		r.manifest = decoded
	}
	h, ok := r.manifest[path]
	return h, ok
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
