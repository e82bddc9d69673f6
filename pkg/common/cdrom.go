// Package common provides common utilities for CD-ROM operations.
// This file contains functions for MSF conversion and BCD handling.
package common

import "fmt"

// Pregap offset between LBA 0 and MSF 00:00:00, and the timecode base.
const (
	PregapFrames    = 150
	FramesPerSecond = 75
	SecondsPerMin   = 60
)

// LBAToMSF converts LBA (Logical Block Address) to MSF (Minutes:Seconds:Frames) format
// LBA to MSF conversion: LBA + 150 (pregap)
func LBAToMSF(lba int64) string {
	minutes, seconds, frames := LBAToMSFValues(lba)
	return fmt.Sprintf("%02d:%02d:%02d", minutes, seconds, frames)
}

// LBAToMSFValues returns the binary minute, second and frame of lba.
func LBAToMSFValues(lba int64) (minute, second, frame byte) {
	pos := lba + PregapFrames
	return byte(pos / FramesPerSecond / SecondsPerMin),
		byte(pos / FramesPerSecond % SecondsPerMin),
		byte(pos % FramesPerSecond)
}

// MSFToLBA converts a binary timecode to a linear address, removing the pregap.
func MSFToLBA(minute, second, frame byte) int64 {
	return MSFToFrames(minute, second, frame) - PregapFrames
}

// MSFToFrames converts a binary timecode to a frame count without offset.
func MSFToFrames(minute, second, frame byte) int64 {
	return (int64(minute)*SecondsPerMin+int64(second))*FramesPerSecond + int64(frame)
}

// FromBCD decodes a packed BCD byte: value = (b/16)*10 + (b & 0x0F).
// Nibbles above 9 are not rejected.
func FromBCD(b byte) byte {
	return (b/16)*10 + (b & 0x0F)
}

// ToBCD encodes a value 0-99 as packed BCD.
func ToBCD(value byte) byte {
	return ((value / 10) << 4) + value%10
}

// BCDMSFToFrames decodes a BCD timecode to a frame count without offset.
func BCDMSFToFrames(minute, second, frame byte) int64 {
	return MSFToFrames(FromBCD(minute), FromBCD(second), FromBCD(frame))
}
