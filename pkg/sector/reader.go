package sector

import (
	"fmt"
	"io"
	"os"

	"github.com/hansbonini/discfix/pkg/common"
)

// ImageReader reads fixed-size blocks from an image file. Reads go through
// ReadAt, so one reader can serve several goroutines.
type ImageReader struct {
	file        *os.File
	blockSize   int64
	totalBlocks int64
	trailing    int64
}

// OpenImage opens a raw 2352-byte sector image.
func OpenImage(filename string) (*ImageReader, error) {
	return OpenBlocks(filename, CD_SECTOR_SIZE)
}

// OpenBlocks opens filename as a sequence of blockSize-byte blocks. Trailing
// bytes that do not fill a block are not addressable.
func OpenBlocks(filename string, blockSize int) (*ImageReader, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("invalid block size %d", blockSize)
	}
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	fileInfo, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	return &ImageReader{
		file:        file,
		blockSize:   int64(blockSize),
		totalBlocks: fileInfo.Size() / int64(blockSize),
		trailing:    fileInfo.Size() % int64(blockSize),
	}, nil
}

// Close closes the underlying file.
func (r *ImageReader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// TotalSectors returns the number of whole blocks in the file.
func (r *ImageReader) TotalSectors() int64 { return r.totalBlocks }

// TrailingBytes returns how many bytes at the end of the file do not form a
// whole block.
func (r *ImageReader) TrailingBytes() int64 { return r.trailing }

// BlockSize returns the size of one block.
func (r *ImageReader) BlockSize() int { return int(r.blockSize) }

// ReadAt implements io.ReaderAt.
func (r *ImageReader) ReadAt(p []byte, off int64) (int, error) {
	return r.file.ReadAt(p, off)
}

// ReadSector fills buf with block index.
func (r *ImageReader) ReadSector(index int64, buf []byte) error {
	if index < 0 || index >= r.totalBlocks {
		return fmt.Errorf("sector %d out of bounds (total: %d)", index, r.totalBlocks)
	}
	if int64(len(buf)) != r.blockSize {
		return fmt.Errorf("buffer of %d bytes cannot hold a %d-byte sector", len(buf), r.blockSize)
	}
	_, err := r.file.ReadAt(buf, index*r.blockSize)
	return err
}

// ReadSectors returns up to count blocks starting at index. It returns
// io.EOF once index is past the last block.
func (r *ImageReader) ReadSectors(index int64, count int) ([]byte, error) {
	if index < 0 {
		return nil, fmt.Errorf("sector %d out of bounds", index)
	}
	if index >= r.totalBlocks {
		return nil, io.EOF
	}
	n := min(int64(count), r.totalBlocks-index)
	section := io.NewSectionReader(r.file, index*r.blockSize, n*r.blockSize)
	buf, _, err := common.ReadBlocks(section, int(r.blockSize), int(n))
	return buf, err
}

// ImageWriter writes fixed-size blocks into an image file at arbitrary
// positions.
type ImageWriter struct {
	file      *os.File
	blockSize int64
}

// CreateImage creates or truncates filename for blockSize-byte blocks.
func CreateImage(filename string, blockSize int) (*ImageWriter, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("invalid block size %d", blockSize)
	}
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	return &ImageWriter{file: file, blockSize: int64(blockSize)}, nil
}

// WriteSector stores data as block index. data may span several blocks.
func (w *ImageWriter) WriteSector(index int64, data []byte) error {
	if index < 0 {
		return fmt.Errorf("sector %d out of bounds", index)
	}
	if int64(len(data))%w.blockSize != 0 {
		return fmt.Errorf("%d bytes is not a whole number of %d-byte sectors", len(data), w.blockSize)
	}
	_, err := w.file.WriteAt(data, index*w.blockSize)
	return err
}

// Close closes the underlying file.
func (w *ImageWriter) Close() error {
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}
