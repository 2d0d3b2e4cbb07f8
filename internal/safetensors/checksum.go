package safetensors

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// ChecksumKey is the metadata key holding the hex SHA-256 of the data section.
const ChecksumKey = "sha256"

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the SHA-256 of the data section and compares it with the
// checksum stored in the metadata. It reports false without error when the
// file carries no checksum.
func (r *Reader) Verify() (bool, error) {
	stored, ok := r.metadata[ChecksumKey]
	if !ok {
		return false, nil
	}

	h := sha256.New()
	if _, err := io.Copy(h, io.NewSectionReader(r.src, r.dataOffset, dataSize(r.tensors))); err != nil {
		return false, fmt.Errorf("failed to hash tensor data: %w", err)
	}
	if computed := hex.EncodeToString(h.Sum(nil)); computed != stored {
		return false, fmt.Errorf("%w: stored %s, computed %s", ErrChecksumMismatch, stored, computed)
	}
	return true, nil
}
