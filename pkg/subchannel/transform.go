package subchannel

import "fmt"

// Deinterleave converts raw interleaved subchannel into channel order. Every
// 96-byte block becomes P, Q, R, S, T, U, V, W in 12-byte runs.
func Deinterleave(sub []byte) ([]byte, error) {
	if len(sub)%BlockSize != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrBlockLength, len(sub))
	}
	out := make([]byte, len(sub))
	for pos := 0; pos < len(sub); pos += BlockSize {
		deinterleaveBlock(out[pos:pos+BlockSize], sub[pos:pos+BlockSize])
	}
	return out, nil
}

// Interleave is the inverse of Deinterleave.
func Interleave(sub []byte) ([]byte, error) {
	if len(sub)%BlockSize != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrBlockLength, len(sub))
	}
	out := make([]byte, len(sub))
	for pos := 0; pos < len(sub); pos += BlockSize {
		interleaveBlock(out[pos:pos+BlockSize], sub[pos:pos+BlockSize])
	}
	return out, nil
}

// Bit 7-c of interleaved byte k is bit k of channel c, counted MSB first.
func deinterleaveBlock(dst, src []byte) {
	clear(dst)
	for k := 0; k < BlockSize; k++ {
		b := src[k]
		if b == 0 {
			continue
		}
		for c := 0; c < channels; c++ {
			if b&(0x80>>c) != 0 {
				dst[c*ChannelSize+k/8] |= 0x80 >> (k % 8)
			}
		}
	}
}

func interleaveBlock(dst, src []byte) {
	clear(dst)
	for c := 0; c < channels; c++ {
		for k := 0; k < BlockSize; k++ {
			if src[c*ChannelSize+k/8]&(0x80>>(k%8)) != 0 {
				dst[k] |= 0x80 >> c
			}
		}
	}
}

// ConvertQToRaw expands formatted 16-byte Q records into raw interleaved
// 96-byte blocks. Bytes 0-11 carry the Q channel and bit 7 of byte 15 the P
// flag; R-W are left empty.
func ConvertQToRaw(q16 []byte) ([]byte, error) {
	if len(q16)%Q16Size != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrQ16Length, len(q16))
	}
	blocks := len(q16) / Q16Size
	de := make([]byte, blocks*BlockSize)
	for i := 0; i < blocks; i++ {
		record := q16[i*Q16Size : (i+1)*Q16Size]
		block := de[i*BlockSize : (i+1)*BlockSize]
		if record[15]&0x80 != 0 {
			for p := OffsetP; p < OffsetP+ChannelSize; p++ {
				block[p] = 0xFF
			}
		}
		copy(block[OffsetQ:OffsetQ+QSize], record[:QSize])
	}
	return Interleave(de)
}
