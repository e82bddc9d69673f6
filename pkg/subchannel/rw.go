package subchannel

import (
	"encoding/binary"

	"github.com/hansbonini/discfix/pkg/checksum"
)

// R-W layout: four packs of 24 six-bit symbols per block
const (
	PackCount       = 4
	PackSymbols     = 24
	CDTextPackSize  = 18
	cdTextCRCOffset = 16
)

// Leading symbols of R-W packs
const (
	PackModeZero     = 0x00
	PackModeGraphics = 0x08 // CD+G
	PackModeEGLine   = 0x09 // CD+EG line graphics
	PackModeEGTV     = 0x0A // CD+EG TV graphics
	PackModeCDText   = 0x14
	PackModeMIDI     = 0x18
	PackModeUser     = 0x38
)

// RWClass describes what the R-W channels of a block carry. More than one
// flag may be set when the packs disagree.
type RWClass struct {
	Zero   bool // a pack starts with the zero mode
	Packet bool // a pack starts with a graphics, MIDI or user mode
	CDText bool // a pack is CD-TEXT
}

// ClassifyRW inspects the R-W symbols of one interleaved 96-byte block.
func ClassifyRW(block []byte) RWClass {
	var class RWClass
	for i := 0; i < PackCount; i++ {
		switch block[i*PackSymbols] & 0x3F {
		case PackModeZero:
			class.Zero = true
		case PackModeGraphics, PackModeEGLine, PackModeEGTV, PackModeMIDI, PackModeUser:
			class.Packet = true
		case PackModeCDText:
			class.CDText = true
		}
	}
	for _, pack := range UnpackCDText(block) {
		if pack[0]&0x80 != 0 {
			class.CDText = true
		}
	}
	return class
}

// UnpackCDText regroups the six-bit R-W symbols of an interleaved block into
// four 18-byte CD-TEXT packs.
func UnpackCDText(block []byte) [PackCount][CDTextPackSize]byte {
	var packs [PackCount][CDTextPackSize]byte
	for i := range packs {
		symbols := block[i*PackSymbols : (i+1)*PackSymbols]
		pack := &packs[i]
		for s, j := 0, 0; s < PackSymbols; s, j = s+4, j+3 {
			s0 := symbols[s] & 0x3F
			s1 := symbols[s+1] & 0x3F
			s2 := symbols[s+2] & 0x3F
			s3 := symbols[s+3] & 0x3F
			pack[j] = s0<<2 | s1>>4
			pack[j+1] = (s1&0x0F)<<4 | s2>>2
			pack[j+2] = (s2&0x03)<<6 | s3
		}
	}
	return packs
}

// CheckCDTextPackets validates the CRC of every CD-TEXT pack in an
// interleaved block. Packs without the CD-TEXT marker bit are ignored and a
// stored CRC of zero passes.
func CheckCDTextPackets(block []byte) bool {
	for _, pack := range UnpackCDText(block) {
		if pack[0]&0x80 == 0 {
			continue
		}
		stored := binary.BigEndian.Uint16(pack[cdTextCRCOffset:])
		if stored != 0 && stored != checksum.CRC16CCITT(pack[:cdTextCRCOffset]) {
			return false
		}
	}
	return true
}

// PackCDText is the inverse of UnpackCDText: it spreads four 18-byte packs
// over the R-W bits of an interleaved block, leaving P and Q untouched.
func PackCDText(block []byte, packs [PackCount][CDTextPackSize]byte) {
	for i, pack := range packs {
		symbols := block[i*PackSymbols : (i+1)*PackSymbols]
		for s, j := 0, 0; s < PackSymbols; s, j = s+4, j+3 {
			values := [4]byte{
				pack[j] >> 2,
				(pack[j]&0x03)<<4 | pack[j+1]>>4,
				(pack[j+1]&0x0F)<<2 | pack[j+2]>>6,
				pack[j+2] & 0x3F,
			}
			for k, v := range values {
				symbols[s+k] = symbols[s+k]&0xC0 | v
			}
		}
	}
}
