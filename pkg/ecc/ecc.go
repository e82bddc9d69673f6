package ecc

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hansbonini/discfix/pkg/common"
	"github.com/hansbonini/discfix/pkg/sector"
)

// ErrUnsupportedTrackType is returned when a track type carries no
// reconstructable prefix or suffix.
var ErrUnsupportedTrackType = errors.New("track type has no EDC/ECC layout")

// Parity describes one of the two parity walks over a sector.
type Parity struct {
	MajorCount int
	MinorCount int
	MajorMult  int
	MinorInc   int
}

// P and Q parity geometry
var (
	PParity = Parity{MajorCount: 86, MinorCount: 24, MajorMult: 2, MinorInc: 86}
	QParity = Parity{MajorCount: 52, MinorCount: 43, MajorMult: 86, MinorInc: 88}
)

// Size returns the number of parity bytes the walk produces.
func (p Parity) Size() int { return p.MajorCount * 2 }

// compute returns the two parity bytes of one major column. The walk runs over
// the four address bytes followed by data.
func (p Parity) compute(address, data []byte, major int) (byte, byte) {
	size := p.MajorCount * p.MinorCount
	idx := (major>>1)*p.MajorMult + major&1
	var eccA, eccB byte
	for minor := 0; minor < p.MinorCount; minor++ {
		var temp byte
		if idx < 4 {
			temp = address[idx]
		} else {
			temp = data[idx-4]
		}
		idx += p.MinorInc
		if idx >= size {
			idx -= size
		}
		eccA ^= temp
		eccB ^= temp
		eccA = gfForward[eccA]
	}
	eccA = gfBackward[gfForward[eccA]^eccB]
	return eccA, eccA ^ eccB
}

// CheckEcc reports whether ecc holds the parity of address and data.
func CheckEcc(address, data []byte, p Parity, ecc []byte) bool {
	for major := 0; major < p.MajorCount; major++ {
		a, b := p.compute(address, data, major)
		if ecc[major] != a || ecc[major+p.MajorCount] != b {
			return false
		}
	}
	return true
}

// WriteEcc stores the parity of address and data into ecc.
func WriteEcc(address, data []byte, p Parity, ecc []byte) {
	for major := 0; major < p.MajorCount; major++ {
		a, b := p.compute(address, data, major)
		ecc[major] = a
		ecc[major+p.MajorCount] = b
	}
}

// ComputeEdc continues an EDC computation over src.
func ComputeEdc(edc uint32, src []byte) uint32 {
	for _, b := range src {
		edc = (edc >> 8) ^ edcTable[byte(edc)^b]
	}
	return edc
}

// writeSectorEcc writes P then Q parity. Q covers the P bytes, so the order
// matters.
func writeSectorEcc(address, data, ecc []byte) {
	WriteEcc(address, data, PParity, ecc)
	WriteEcc(address, data, QParity, ecc[sector.OffsetECCQ-sector.OffsetECCP:])
}

// checkSectorEcc verifies P and Q parity stored from 0x81C.
func checkSectorEcc(address, s []byte) bool {
	data := s[sector.OffsetSubheader:]
	return CheckEcc(address, data, PParity, s[sector.OffsetECCP:sector.OffsetECCP+sector.CD_ECC_P_SIZE]) &&
		CheckEcc(address, data, QParity, s[sector.OffsetECCQ:sector.OffsetECCQ+sector.CD_ECC_Q_SIZE])
}

func reservedZero(s []byte) bool {
	for _, b := range s[sector.OffsetReserved : sector.OffsetReserved+sector.CD_RESERVED_SIZE] {
		if b != 0 {
			return false
		}
	}
	return true
}

// SuffixIsCorrect reports whether a Mode 1 sector has zero reserved bytes,
// matching P and Q parity and a matching EDC.
func SuffixIsCorrect(s []byte) bool {
	if len(s) != sector.CD_SECTOR_SIZE || !reservedZero(s) {
		return false
	}
	if !checkSectorEcc(s[sector.OffsetHeader:sector.OffsetSubheader], s) {
		return false
	}
	stored := binary.LittleEndian.Uint32(s[sector.OffsetMode1EDC:])
	return stored == ComputeEdc(0, s[:sector.OffsetMode1EDC])
}

// LbaToMsf returns the binary header time of lba.
func LbaToMsf(lba int64) (minute, second, frame byte) {
	return common.LBAToMSFValues(lba)
}

// ReconstructPrefix writes the sync pattern, the BCD header time of lba and
// the mode byte. Mode 2 sectors also get their subheader copied from its
// second instance.
func ReconstructPrefix(s []byte, t sector.TrackType, lba int64) error {
	if err := sector.CheckLength(s); err != nil {
		return err
	}
	var mode byte
	switch t {
	case sector.Mode1:
		mode = 0x01
	case sector.Mode2Formless, sector.Mode2Form1, sector.Mode2Form2:
		mode = 0x02
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedTrackType, t)
	}

	copy(s, sector.Sync[:])
	minute, second, frame := LbaToMsf(lba)
	s[sector.OffsetHeader] = common.ToBCD(minute)
	s[sector.OffsetHeader+1] = common.ToBCD(second)
	s[sector.OffsetHeader+2] = common.ToBCD(frame)
	s[sector.OffsetMode] = mode
	if mode == 0x02 {
		copy(s[sector.OffsetSubheader:sector.OffsetSubheader+4], s[sector.OffsetSubheader+4:sector.OffsetSubheader+8])
	}
	return nil
}

// ReconstructEcc writes the EDC and, for Mode 1 and Mode 2 Form 1, the P and
// Q parity of a sector whose prefix and user data are already in place.
func ReconstructEcc(s []byte, t sector.TrackType) error {
	if err := sector.CheckLength(s); err != nil {
		return err
	}
	switch t {
	case sector.Mode1:
		edc := ComputeEdc(0, s[:sector.OffsetMode1EDC])
		binary.LittleEndian.PutUint32(s[sector.OffsetMode1EDC:], edc)
		clear(s[sector.OffsetReserved : sector.OffsetReserved+sector.CD_RESERVED_SIZE])
		writeSectorEcc(s[sector.OffsetHeader:sector.OffsetSubheader], s[sector.OffsetSubheader:], s[sector.OffsetECCP:])
	case sector.Mode2Form1:
		edc := ComputeEdc(0, s[sector.OffsetSubheader:sector.OffsetForm1EDC])
		binary.LittleEndian.PutUint32(s[sector.OffsetForm1EDC:], edc)
		var zeroAddress [4]byte
		writeSectorEcc(zeroAddress[:], s[sector.OffsetSubheader:], s[sector.OffsetECCP:])
	case sector.Mode2Form2:
		edc := ComputeEdc(0, s[sector.OffsetSubheader:sector.OffsetForm2EDC])
		binary.LittleEndian.PutUint32(s[sector.OffsetForm2EDC:], edc)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedTrackType, t)
	}
	return nil
}
