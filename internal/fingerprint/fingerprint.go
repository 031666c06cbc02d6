// Package fingerprint computes fast content hashes for duplicate grouping.
//
// The hash covers the file size plus the first and last 8 KiB of content,
// so hashing cost is O(1) in file size. It is NOT a full-content checksum:
// two files with the same size and identical head/tail windows collide.
// That false-positive risk is accepted and mitigated downstream by the
// filename-similarity pass of the analyzer.
package fingerprint

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// windowSize is the number of bytes hashed from each end of the file
const windowSize = 8 * 1024

// File computes the content fingerprint of the file at path.
// Zero-byte files are hashable (size string plus empty reads).
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat file: %w", err)
	}
	size := info.Size()

	h := xxhash.New()
	// Seed with the decimal size so equal windows at different sizes diverge
	h.WriteString(strconv.FormatInt(size, 10))

	buf := make([]byte, windowSize)

	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("failed to read head window: %w", err)
	}
	h.Write(buf[:n])

	// Only files larger than both windows get a tail window, so the two
	// reads never overlap
	if size > 2*windowSize {
		if _, err := f.Seek(-windowSize, io.SeekEnd); err != nil {
			return "", fmt.Errorf("failed to seek to tail window: %w", err)
		}
		n, err := io.ReadFull(f, buf)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return "", fmt.Errorf("failed to read tail window: %w", err)
		}
		h.Write(buf[:n])
	}

	return fmt.Sprintf("%016x", h.Sum64()), nil
}
