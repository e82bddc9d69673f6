package ecc

import (
	"encoding/binary"

	"github.com/hansbonini/discfix/pkg/sector"
)

// Status is the outcome of checking one raw sector.
type Status int

const (
	StatusOK          Status = iota // EDC and, where present, ECC match
	StatusNoEDC                     // Mode 2 Form 2 sector recorded without EDC
	StatusBadEDC                    // EDC mismatch
	StatusBadECC                    // P or Q parity mismatch
	StatusBadReserved               // Mode 1 reserved bytes are not zero
	StatusAudio                     // no sync pattern, nothing to check
	StatusMode0                     // mode 0 sector
	StatusUnknownMode               // mode byte other than 0, 1 or 2
)

var statusNames = [...]string{"ok", "no-edc", "bad-edc", "bad-ecc", "bad-reserved", "audio", "mode0", "unknown-mode"}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Valid reports whether the sector needs no attention.
func (s Status) Valid() bool {
	switch s {
	case StatusOK, StatusNoEDC, StatusAudio, StatusMode0:
		return true
	}
	return false
}

// Check is the classification of one raw sector. Type is Audio whenever the
// layout is not one the engine knows.
type Check struct {
	Type   sector.TrackType
	Status Status
}

// CheckSector classifies a raw sector by its sync and mode byte and verifies
// the EDC and ECC that mode carries. Mode 2 sectors are told apart by the form
// bit of the subheader submode.
func CheckSector(s []byte) (Check, error) {
	if err := sector.CheckLength(s); err != nil {
		return Check{}, err
	}
	if !sector.HasSync(s) {
		return Check{Type: sector.Audio, Status: StatusAudio}, nil
	}

	switch s[sector.OffsetMode] & 0x03 {
	case 0x00:
		return Check{Type: sector.Audio, Status: StatusMode0}, nil
	case 0x01:
		return Check{Type: sector.Mode1, Status: checkMode1(s)}, nil
	case 0x02:
		if s[sector.OffsetSubmode]&sector.SubmodeForm2Flag != 0 {
			return Check{Type: sector.Mode2Form2, Status: checkForm2(s)}, nil
		}
		return Check{Type: sector.Mode2Form1, Status: checkForm1(s)}, nil
	default:
		return Check{Type: sector.Audio, Status: StatusUnknownMode}, nil
	}
}

func checkMode1(s []byte) Status {
	if !reservedZero(s) {
		return StatusBadReserved
	}
	stored := binary.LittleEndian.Uint32(s[sector.OffsetMode1EDC:])
	if stored != ComputeEdc(0, s[:sector.OffsetMode1EDC]) {
		return StatusBadEDC
	}
	if !checkSectorEcc(s[sector.OffsetHeader:sector.OffsetSubheader], s) {
		return StatusBadECC
	}
	return StatusOK
}

func checkForm1(s []byte) Status {
	stored := binary.LittleEndian.Uint32(s[sector.OffsetForm1EDC:])
	if stored != ComputeEdc(0, s[sector.OffsetSubheader:sector.OffsetForm1EDC]) {
		return StatusBadEDC
	}
	var zeroAddress [4]byte
	if !checkSectorEcc(zeroAddress[:], s) {
		return StatusBadECC
	}
	return StatusOK
}

func checkForm2(s []byte) Status {
	stored := binary.LittleEndian.Uint32(s[sector.OffsetForm2EDC:])
	if stored == 0 {
		return StatusNoEDC
	}
	if stored != ComputeEdc(0, s[sector.OffsetSubheader:sector.OffsetForm2EDC]) {
		return StatusBadEDC
	}
	return StatusOK
}
