package subchannel

// Timecodes here are packed BCD. Frames wrap once they reach 0x74 and seconds
// once they pass 0x59. Nibbles outside 0-9 are not rejected.

func bcdIncrement(b byte) byte {
	if b&0x0F == 9 {
		return b + 7
	}
	return b + 1
}

func bcdDecrement(b byte) byte {
	if b&0x0F == 0 {
		return b - 7
	}
	return b - 1
}

// incrementMSF advances a BCD timecode by one frame, carrying into seconds and
// minutes.
func incrementMSF(minute, second, frame byte) (byte, byte, byte) {
	frame = bcdIncrement(frame)
	if frame >= 0x74 {
		frame = 0
		second = bcdIncrement(second)
		if second > 0x59 {
			second = 0
			minute = bcdIncrement(minute)
		}
	}
	return minute, second, frame
}

// decrementMSF moves a BCD timecode back by one frame, borrowing from seconds
// and minutes.
func decrementMSF(minute, second, frame byte) (byte, byte, byte) {
	if frame != 0 {
		return minute, second, bcdDecrement(frame)
	}
	if second == 0 {
		return bcdDecrement(minute), 0x59, 0x73
	}
	return minute, bcdDecrement(second), 0x73
}

func incrementFrame(frame byte) byte {
	frame = bcdIncrement(frame)
	if frame >= 0x74 {
		return 0
	}
	return frame
}

func decrementFrame(frame byte) byte {
	if frame == 0 {
		return 0x73
	}
	return bcdDecrement(frame)
}
