package utils

import (
	"fmt"
	"os"
)

// PackUint empaqueta n en width bytes big-endian (width 4 u 8).
func PackUint(width int, n uint64) []byte {
	b := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		b[i] = byte(n)
		n >>= 8
	}
	return b
}

// UnpackUint decodes a big-endian unsigned integer from all of b.
func UnpackUint(b []byte) uint64 {
	var n uint64
	for _, c := range b {
		n = n<<8 | uint64(c)
	}
	return n
}

// WriteAt writes the whole buffer at the given absolute offset.
func WriteAt(f *os.File, off uint64, b []byte) error {
	n, err := f.WriteAt(b, int64(off))
	if err != nil {
		return err
	}
	if n != len(b) {
		return fmt.Errorf("short write at %d: %d of %d bytes", off, n, len(b))
	}
	return nil
}

// ReadAt reads exactly len(b) bytes at the given absolute offset.
func ReadAt(f *os.File, off uint64, b []byte) error {
	n, err := f.ReadAt(b, int64(off))
	if err != nil {
		return err
	}
	if n != len(b) {
		return fmt.Errorf("short read at %d: %d of %d bytes", off, n, len(b))
	}
	return nil
}
