package common

import (
	"errors"
	"io"
)

// ReadBlocks reads up to count whole blocks of blockSize bytes. It returns the
// bytes of the complete blocks read and the number of trailing bytes that did
// not form a whole block. io.EOF is returned only when nothing was read.
func ReadBlocks(reader io.Reader, blockSize, count int) ([]byte, int, error) {
	buffer := make([]byte, blockSize*count)
	n, err := io.ReadFull(reader, buffer)
	switch {
	case err == nil:
		return buffer, 0, nil
	case errors.Is(err, io.EOF):
		return nil, 0, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		whole := n - n%blockSize
		if whole == 0 {
			return nil, n, io.EOF
		}
		return buffer[:whole], n - whole, nil
	default:
		return nil, 0, err
	}
}
