package subchannel

// positionQ returns a sealed mode 1 frame. Times are BCD.
func positionQ(control, track, index byte, rel, abs [3]byte) Q {
	q := Q{control<<4 | ADRPosition, track, index, rel[0], rel[1], rel[2], 0, abs[0], abs[1], abs[2]}
	q.Seal()
	return q
}

func mcnQ(mcn string, frame byte) Q {
	q := Q{ADRMCN}
	EncodeMCN(&q, mcn)
	q[9] = frame
	q.Seal()
	return q
}

func isrcQ(isrc string, frame byte) Q {
	q := Q{ADRISRC}
	EncodeISRC(&q, isrc)
	q[9] = frame
	q.Seal()
	return q
}

// rawBlock builds an interleaved block carrying q, with the P channel set when pause is true.
func rawBlock(q Q, pause bool) []byte {
	de := make([]byte, BlockSize)
	if pause {
		for i := OffsetP; i < OffsetP+ChannelSize; i++ {
			de[i] = 0xFF
		}
	}
	copy(de[OffsetQ:], q[:])
	raw := make([]byte, BlockSize)
	interleaveBlock(raw, de)
	return raw
}

// memWriter keeps written subchannel in memory.
type memWriter struct {
	blocks map[int64][]byte
	bulk   [][]byte
	err    error
}

func newMemWriter() *memWriter {
	return &memWriter{blocks: make(map[int64][]byte)}
}

func (w *memWriter) WriteSectorTag(data []byte, position int64) error {
	if w.err != nil {
		return w.err
	}
	w.blocks[position] = append([]byte(nil), data...)
	return nil
}

func (w *memWriter) WriteSectorsTag(data []byte, sectorAddress int64, length uint32) error {
	if w.err != nil {
		return w.err
	}
	w.bulk = append(w.bulk, append([]byte(nil), data...))
	return nil
}
