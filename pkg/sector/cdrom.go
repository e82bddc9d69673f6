// Package sector provides the raw CD sector layout shared by the ECC/EDC engine
// and the image tools.
// This file contains sector geometry constants and track type definitions.
package sector

import (
	"errors"
	"fmt"
	"strings"
)

// Sector size constants for raw CD-ROM sectors
const (
	CD_SECTOR_SIZE     = 2352 // Full CD sector size
	CD_DATA_SIZE       = 2048 // Data portion of Mode 1 / Mode 2 Form 1 sector
	CD_FORM2_DATA_SIZE = 2324 // Data portion of Mode 2 Form 2 sector
	CD_XA_DATA_SIZE    = 2336 // Everything after the header of a Mode 2 sector
	CD_SYNC_SIZE       = 12   // Sync pattern size
	CD_HEADER_SIZE     = 4    // Header size (3 address bytes + 1 mode byte)
	CD_SUBHEADER_SIZE  = 8    // Mode 2 subheader (4 bytes, stored twice)
	CD_EDC_SIZE        = 4    // Error Detection Code
	CD_RESERVED_SIZE   = 8    // Mode 1 reserved zero bytes
	CD_ECC_P_SIZE      = 172  // P parity
	CD_ECC_Q_SIZE      = 104  // Q parity
	CD_SUBCHANNEL_SIZE = 96   // Raw P-W subchannel per sector
	CD_PREGAP_FRAMES   = 150  // LBA 0 is MSF 00:02:00
	CD_FRAMES_PER_SEC  = 75
)

// Field offsets inside a raw sector
const (
	OffsetHeader      = 0x00C
	OffsetMode        = 0x00F
	OffsetSubheader   = 0x010
	OffsetMode1EDC    = 0x810
	OffsetReserved    = 0x814
	OffsetECCP        = 0x81C
	OffsetECCQ        = 0x8C8
	OffsetForm1EDC    = 0x818
	OffsetForm2EDC    = 0x92C
	SubmodeForm2Flag  = 0x20
	OffsetSubmode     = 0x012
	OffsetSubmodeCopy = 0x016
)

// ErrSectorLength is returned when a buffer is not exactly one raw sector.
var ErrSectorLength = errors.New("raw sector must be 2352 bytes")

// Sync is the 12-byte pattern opening every data sector.
var Sync = [CD_SYNC_SIZE]byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}

// TrackType identifies how the bytes of a raw sector are laid out.
type TrackType int

const (
	Audio TrackType = iota
	Mode1
	Mode2Formless
	Mode2Form1
	Mode2Form2
)

var trackTypeNames = map[TrackType]string{
	Audio:         "audio",
	Mode1:         "mode1",
	Mode2Formless: "mode2",
	Mode2Form1:    "mode2form1",
	Mode2Form2:    "mode2form2",
}

func (t TrackType) String() string {
	if name, ok := trackTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TrackType(%d)", int(t))
}

// MarshalText encodes the track type by name.
func (t TrackType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText decodes a track type name.
func (t *TrackType) UnmarshalText(text []byte) error {
	parsed, err := ParseTrackType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTrackType converts a name such as "mode2form1" to a TrackType.
func ParseTrackType(name string) (TrackType, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.NewReplacer("-", "", "_", "", " ", "").Replace(normalized)
	for t, n := range trackTypeNames {
		if n == normalized {
			return t, nil
		}
	}
	return Audio, fmt.Errorf("unknown track type %q", name)
}

// HasSync reports whether the sector starts with the data sync pattern.
func HasSync(sector []byte) bool {
	if len(sector) < CD_SYNC_SIZE {
		return false
	}
	for i, b := range Sync {
		if sector[i] != b {
			return false
		}
	}
	return true
}

// CheckLength validates that sector is a full raw sector.
func CheckLength(sector []byte) error {
	if len(sector) != CD_SECTOR_SIZE {
		return fmt.Errorf("%w: got %d", ErrSectorLength, len(sector))
	}
	return nil
}
