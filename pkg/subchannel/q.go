package subchannel

import (
	"fmt"

	"github.com/hansbonini/discfix/pkg/checksum"
	"github.com/hansbonini/discfix/pkg/common"
)

// Q ADR values
const (
	ADRPosition = 1
	ADRMCN      = 2
	ADRISRC     = 3
)

// Q is one 12-byte Q subchannel frame: control/ADR, nine payload bytes and a
// big-endian CRC over the first ten bytes.
type Q [QSize]byte

// QFromBlock copies the Q channel out of a deinterleaved block.
func QFromBlock(de []byte) Q {
	var q Q
	copy(q[:], de[OffsetQ:OffsetQ+QSize])
	return q
}

// ADR returns the Q mode (low two bits of byte 0).
func (q Q) ADR() byte { return q[0] & 0x03 }

// Control returns the control nibble.
func (q Q) Control() byte { return q[0] >> 4 }

// StoredCRC returns the trailer as recorded.
func (q Q) StoredCRC() uint16 { return uint16(q[10])<<8 | uint16(q[11]) }

// ComputedCRC returns the CRC the trailer should hold.
func (q Q) ComputedCRC() uint16 { return checksum.CRC16CCITT(q[:10]) }

// CRCValid reports whether the stored trailer matches the payload.
func (q Q) CRCValid() bool {
	crc := checksum.CRC16CCITTBytes(q[:10])
	return crc[0] == q[10] && crc[1] == q[11]
}

// Seal rewrites the CRC trailer from the current payload.
func (q *Q) Seal() {
	crc := checksum.CRC16CCITTBytes(q[:10])
	q[10], q[11] = crc[0], crc[1]
}

// absoluteFrames returns the absolute time as an LBA (frames minus 150).
func (q Q) absoluteFrames() int64 {
	return common.BCDMSFToFrames(q[7], q[8], q[9]) - common.PregapFrames
}

// relativeFrames returns the track relative time in frames.
func (q Q) relativeFrames() int64 {
	return common.BCDMSFToFrames(q[3], q[4], q[5])
}

// Position is the decoded payload of a mode 1 Q frame, all values binary.
type Position struct {
	Track     byte `yaml:"track"`
	Index     byte `yaml:"index"`
	RelMinute byte `yaml:"rel_minute"`
	RelSecond byte `yaml:"rel_second"`
	RelFrame  byte `yaml:"rel_frame"`
	Zero      byte `yaml:"zero"`
	AbsMinute byte `yaml:"abs_minute"`
	AbsSecond byte `yaml:"abs_second"`
	AbsFrame  byte `yaml:"abs_frame"`
}

// LBA returns the linear address named by the absolute time.
func (p Position) LBA() int64 {
	return common.MSFToLBA(p.AbsMinute, p.AbsSecond, p.AbsFrame)
}

// Relative returns the relative time in frames.
func (p Position) Relative() int64 {
	return common.MSFToFrames(p.RelMinute, p.RelSecond, p.RelFrame)
}

// QInfo is a decoded Q frame.
type QInfo struct {
	ADR      byte
	Control  byte
	CRCValid bool
	Position *Position // mode 1 only
	MCN      string    // mode 2, empty when absent
	ISRC     string    // mode 3, empty when absent
	AbsFrame byte      // binary absolute frame carried by modes 2 and 3
}

// ParseQ decodes a 12-byte Q frame.
func ParseQ(b []byte) (QInfo, error) {
	if len(b) != QSize {
		return QInfo{}, fmt.Errorf("Q subchannel must be %d bytes, got %d", QSize, len(b))
	}
	var q Q
	copy(q[:], b)
	return q.Info(), nil
}

// Info decodes q.
func (q Q) Info() QInfo {
	info := QInfo{
		ADR:      q.ADR(),
		Control:  q.Control(),
		CRCValid: q.CRCValid(),
	}
	switch info.ADR {
	case ADRPosition:
		info.Position = &Position{
			Track:     common.FromBCD(q[1]),
			Index:     common.FromBCD(q[2]),
			RelMinute: common.FromBCD(q[3]),
			RelSecond: common.FromBCD(q[4]),
			RelFrame:  common.FromBCD(q[5]),
			Zero:      q[6],
			AbsMinute: common.FromBCD(q[7]),
			AbsSecond: common.FromBCD(q[8]),
			AbsFrame:  common.FromBCD(q[9]),
		}
	case ADRMCN:
		info.MCN = DecodeMCN(q)
		info.AbsFrame = common.FromBCD(q[9])
	case ADRISRC:
		info.ISRC = DecodeISRC(q)
		info.AbsFrame = common.FromBCD(q[9])
	}
	return info
}

// DecodeMCN returns the 13-digit catalogue number of a mode 2 frame, or ""
// when it is all zeros.
func DecodeMCN(q Q) string {
	mcn := fmt.Sprintf("%02X%02X%02X%02X%02X%02X%X", q[1], q[2], q[3], q[4], q[5], q[6], q[7]>>4)
	if mcn == "0000000000000" {
		return ""
	}
	return mcn
}

// EncodeMCN writes mcn into the payload of q. Only the 13 digits are
// touched; the absolute frame in byte 9 is kept.
func EncodeMCN(q *Q, mcn string) bool {
	if len(mcn) != 13 {
		return false
	}
	digit := func(i int) byte { return (mcn[i] - '0') & 0x0F }
	for i := 0; i < 6; i++ {
		q[1+i] = digit(2*i)<<4 | digit(2*i+1)
	}
	q[7] = digit(12) << 4
	q[8] = 0
	return true
}

// DecodeISRC returns the 12-character ISRC of a mode 3 frame, or "" when it is
// all zeros or carries characters outside the ISRC alphabet.
func DecodeISRC(q Q) string {
	codes := [5]byte{
		q[1] >> 2,
		(q[1]&0x03)<<4 | q[2]>>4,
		(q[2]&0x0F)<<2 | q[3]>>6,
		q[3] & 0x3F,
		q[4] >> 2,
	}
	var prefix [5]byte
	for i, code := range codes {
		c, ok := isrcChar(code)
		if !ok {
			return ""
		}
		prefix[i] = c
	}
	isrc := fmt.Sprintf("%s%02X%02X%02X%X", prefix[:], q[5], q[6], q[7], q[8]>>4)
	if isrc == "000000000000" {
		return ""
	}
	return isrc
}

// EncodeISRC writes isrc into the payload of q, leaving byte 9 untouched.
func EncodeISRC(q *Q, isrc string) bool {
	if len(isrc) != 12 {
		return false
	}
	var codes [5]byte
	for i := range codes {
		code, ok := isrcCode(isrc[i])
		if !ok {
			return false
		}
		codes[i] = code
	}
	digit := func(i int) byte { return (isrc[i] - '0') & 0x0F }

	q[1] = codes[0]<<2 | (codes[1]&0x30)>>4
	q[2] = (codes[1]&0x0F)<<4 | codes[2]>>2
	q[3] = (codes[2]&0x03)<<6 | codes[3]
	q[4] = codes[4] << 2
	q[5] = digit(5)<<4 | digit(6)
	q[6] = digit(7)<<4 | digit(8)
	q[7] = digit(9)<<4 | digit(10)
	q[8] = digit(11) << 4
	return true
}

// ISRC characters are 6-bit codes: 0x00-0x09 digits, 0x11-0x2A letters.
func isrcChar(code byte) (byte, bool) {
	if code <= 0x09 || (code >= 0x11 && code <= 0x2A) {
		return code + '0', true
	}
	return 0, false
}

func isrcCode(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9', c >= 'A' && c <= 'Z':
		return c - '0', true
	case c >= 'a' && c <= 'z':
		return c - 'a' + 'A' - '0', true
	default:
		return 0, false
	}
}
