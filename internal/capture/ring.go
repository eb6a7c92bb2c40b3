package capture

import (
	"fmt"
	"os"
)

const (
	// tpacketAlignment is TPACKET_ALIGNMENT from the kernel headers.
	tpacketAlignment = 16
	// tpacketHdrLen is the per-frame overhead the kernel reserves ahead
	// of packet data in a TPACKET_V3 ring.
	tpacketHdrLen = 52
	// maxBlockSize caps a single ring block at 4MB.
	maxBlockSize = 4 << 20
)

// ringGeometry is a TPACKET_V3 ring layout.
type ringGeometry struct {
	frameSize int
	blockSize int
	numBlocks int
}

// computeRingGeometry derives a ring layout from the configured snap
// length and total buffer size. The kernel rejects the ring unless the
// frame size is a multiple of TPACKET_ALIGNMENT and the block size is a
// multiple of both the page size and the frame size; rounding the frame
// up to a power of two satisfies all three at once.
func computeRingGeometry(snapLen, bufferSizeMB int) (ringGeometry, error) {
	if snapLen <= 0 {
		return ringGeometry{}, fmt.Errorf("snaplen must be positive, got %d", snapLen)
	}
	if bufferSizeMB <= 0 {
		return ringGeometry{}, fmt.Errorf("buffer size must be positive, got %dMB", bufferSizeMB)
	}
	pageSize := os.Getpagesize()
	if pageSize <= 0 || pageSize&(pageSize-1) != 0 {
		return ringGeometry{}, fmt.Errorf("unsupported page size %d", pageSize)
	}

	frameSize := nextPowerOfTwo(tpacketHdrLen + snapLen)

	blockSize := maxBlockSize
	if blockSize < frameSize {
		blockSize = frameSize
	}
	if blockSize < pageSize {
		blockSize = pageSize
	}

	numBlocks := (bufferSizeMB << 20) / blockSize
	if numBlocks < 1 {
		numBlocks = 1
	}

	return ringGeometry{
		frameSize: frameSize,
		blockSize: blockSize,
		numBlocks: numBlocks,
	}, nil
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
