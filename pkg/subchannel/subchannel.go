// Package subchannel decodes, validates and repairs CD subchannel data.
//
// Raw subchannel arrives from a drive as 96 interleaved bytes per sector: bit 7
// of every byte belongs to the P channel, bit 6 to Q and bits 5-0 to R-W. The
// package deinterleaves those blocks into eight 12-byte channels, decodes the Q
// channel (position, MCN, ISRC), classifies the R-W packets and repairs damaged
// blocks using the blocks immediately before and after them. Repaired blocks
// are re-interleaved and handed to a TagWriter at the position their Q channel
// names.
//
// Repair never fails loudly: a block that cannot be brought to a valid state is
// left out and its position stays in the Session's missing set.
package subchannel

import (
	"errors"
	"fmt"
	"strings"
)

// Block geometry
const (
	BlockSize   = 96 // interleaved or deinterleaved block per sector
	ChannelSize = 12 // bytes per logical channel
	QSize       = 12 // Q channel including CRC
	Q16Size     = 16 // formatted Q record returned by Q-only reads
	channels    = 8
)

// Channel offsets inside a deinterleaved block
const (
	OffsetP  = 0
	OffsetQ  = 12
	OffsetRW = 24
)

var (
	// ErrBlockLength is returned when a buffer is not a whole number of 96-byte blocks.
	ErrBlockLength = errors.New("subchannel length must be a multiple of 96 bytes")
	// ErrQ16Length is returned when a Q-only buffer is not a whole number of 16-byte records.
	ErrQ16Length = errors.New("Q subchannel length must be a multiple of 16 bytes")
)

// Mode is a subchannel acquisition mode.
type Mode int

const (
	ModeNone Mode = iota // no subchannel
	ModeQ16              // formatted Q only, 16 bytes per sector
	ModeRaw              // raw interleaved P-W, 96 bytes per sector
)

var modeNames = [...]string{"none", "q16", "raw"}

func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// BlockSize returns the bytes per sector delivered in this mode.
func (m Mode) BlockSize() int {
	switch m {
	case ModeQ16:
		return Q16Size
	case ModeRaw:
		return BlockSize
	default:
		return 0
	}
}

// ParseMode converts "none", "q16" or "raw" to a Mode.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return ModeNone, nil
	case "q16", "q", "pq":
		return ModeQ16, nil
	case "raw", "rw", "pw":
		return ModeRaw, nil
	default:
		return ModeNone, fmt.Errorf("unknown subchannel mode %q", name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Fix is a set of repair categories applied to a block.
type Fix uint16

const (
	FixP Fix = 1 << iota
	FixRW
	FixADR
	FixControl
	FixZero
	FixTrack
	FixIndex
	FixRelativePosition
	FixAbsolutePosition
	FixCRC
	FixMCN
	FixISRC
)

// AllFixes lists every category in reporting order.
var AllFixes = []Fix{
	FixP, FixRW, FixADR, FixControl, FixZero, FixTrack, FixIndex,
	FixRelativePosition, FixAbsolutePosition, FixCRC, FixMCN, FixISRC,
}

var fixNames = map[Fix]string{
	FixP:                "p",
	FixRW:               "rw",
	FixADR:              "q-adr",
	FixControl:          "q-control",
	FixZero:             "q-zero",
	FixTrack:            "q-track",
	FixIndex:            "q-index",
	FixRelativePosition: "q-relative-position",
	FixAbsolutePosition: "q-absolute-position",
	FixCRC:              "q-crc",
	FixMCN:              "q-mcn",
	FixISRC:             "q-isrc",
}

// Has reports whether every category in flag is present.
func (f Fix) Has(flag Fix) bool {
	return f&flag == flag
}

// Categories splits f into its single-category members.
func (f Fix) Categories() []Fix {
	var out []Fix
	for _, c := range AllFixes {
		if f.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (f Fix) String() string {
	if f == 0 {
		return "none"
	}
	names := make([]string, 0, len(AllFixes))
	for _, c := range f.Categories() {
		names = append(names, fixNames[c])
	}
	return strings.Join(names, "|")
}

// MarshalText implements encoding.TextMarshaler.
func (f Fix) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}
