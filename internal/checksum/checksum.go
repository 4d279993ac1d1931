package checksum

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
)

// CalculateMD5 calculates the MD5 checksum of data and returns it hex encoded,
// the format Drive reports in file metadata.
func CalculateMD5(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// CalculateMD5Reader calculates the MD5 checksum from a reader.
func CalculateMD5Reader(r io.Reader) (string, error) {
	hash := md5.New()
	if _, err := io.Copy(hash, r); err != nil {
		return "", fmt.Errorf("read: %w", err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// Verify compares downloaded content against an expected hex checksum.
// An empty expected checksum passes; Drive omits it for non-binary content.
func Verify(data []byte, expected string) error {
	if expected == "" {
		return nil
	}
	got := CalculateMD5(data)
	if got != expected {
		return fmt.Errorf("checksum mismatch: got %s, want %s", got, expected)
	}
	return nil
}
