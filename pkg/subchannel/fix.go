package subchannel

import "github.com/hansbonini/discfix/pkg/common"

// Neighbors holds the Q frames on either side of the block being repaired.
type Neighbors struct {
	Prev Q
	Next Q
}

// FixQ tries to bring q back to a valid CRC using its neighbours and the
// known MCN and ISRC. It works on q in place and reports the categories it
// touched and whether q ended up valid. Callers should hand in a copy and
// discard it when FixQ returns false.
//
// With fixCRC set the CRC trailer is rewritten as a last resort, but only
// when the payload already agrees with a valid neighbour.
func FixQ(q *Q, n Neighbors, mcn, isrc string, fixCRC bool) (Fix, bool) {
	var fixed Fix
	prev, next := n.Prev, n.Next
	prevOK := prev.CRCValid()
	nextOK := next.CRCValid()

	// Extraneous ADR bits
	if q[0]&0x0C != 0 {
		q[0] &= 0xF3
		fixed |= FixADR
		if q.CRCValid() {
			return fixed, true
		}
	}

	oldADR := q[0] & 0x03
	for adr := byte(ADRPosition); adr <= ADRISRC; adr++ {
		q[0] = q[0]&0xF0 | adr
		if q.CRCValid() {
			return fixed | FixADR, true
		}
	}
	q[0] = q[0]&0xF0 | oldADR

	old := q[0]
	if prevOK && q[0]&0xF0 != prev[0]&0xF0 {
		q[0] = q[0]&0x03 | prev[0]&0xF0
		if q.CRCValid() {
			return fixed | FixControl, true
		}
		q[0] = old
	}
	if nextOK && q[0]&0xF0 != next[0]&0xF0 {
		q[0] = q[0]&0x03 | next[0]&0xF0
		if q.CRCValid() {
			return fixed | FixControl, true
		}
		q[0] = old
	}
	// Agreeing neighbours win even without a valid CRC.
	if prevOK && nextOK && prev[0]&0xF0 == next[0]&0xF0 && q[0]&0xF0 != next[0]&0xF0 {
		q[0] = q[0]&0x03 | next[0]&0xF0
		fixed |= FixControl
	}

	switch q.ADR() {
	case ADRPosition:
		return fixPosition(q, prev, next, prevOK, nextOK, fixCRC, fixed)
	case ADRMCN:
		var ok bool
		if fixed, ok = fixFrame(q, prev, next, prevOK, nextOK, fixed); ok {
			return fixed, true
		}
		if mcn != "" && EncodeMCN(q, mcn) {
			fixed |= FixMCN
			if q.CRCValid() {
				return fixed, true
			}
		}
		return sealBetween(q, prevOK, nextOK, fixCRC, fixed)
	case ADRISRC:
		var ok bool
		if fixed, ok = fixFrame(q, prev, next, prevOK, nextOK, fixed); ok {
			return fixed, true
		}
		if isrc != "" && EncodeISRC(q, isrc) {
			fixed |= FixISRC
			if q.CRCValid() {
				return fixed, true
			}
		}
		return sealBetween(q, prevOK, nextOK, fixCRC, fixed)
	}
	return fixed, false
}

func fixPosition(q *Q, prev, next Q, prevOK, nextOK, fixCRC bool, fixed Fix) (Fix, bool) {
	if q[6] != 0 {
		q[6] = 0
		fixed |= FixZero
		if q.CRCValid() {
			return fixed, true
		}
	}

	if prevOK && nextOK && prev[1] == next[1] && prev[1] != q[1] {
		q[1] = prev[1]
		fixed |= FixTrack
		if q.CRCValid() {
			return fixed, true
		}
	}
	if prevOK && nextOK && prev[2] == next[2] && prev[2] != q[2] {
		q[2] = prev[2]
		fixed |= FixIndex
		if q.CRCValid() {
			return fixed, true
		}
	}

	aPos := q.absoluteFrames()
	pPos := q.relativeFrames()

	// Relative time only runs forward outside the pregap.
	if q[2] > 0 {
		if prev[2] > 0 && prevOK && pPos-prev.relativeFrames() != 1 {
			q[3], q[4], q[5] = incrementMSF(prev[3], prev[4], prev[5])
			fixed |= FixRelativePosition
			if q.CRCValid() {
				return fixed, true
			}
		}
		if next[2] > 0 && nextOK && !fixed.Has(FixRelativePosition) && next.relativeFrames()-pPos != 1 {
			q[3], q[4], q[5] = decrementMSF(next[3], next[4], next[5])
			fixed |= FixRelativePosition
			if q.CRCValid() {
				return fixed, true
			}
		}
	}

	if prevOK && aPos-prev.absoluteFrames() != 1 {
		q[7], q[8], q[9] = incrementMSF(prev[7], prev[8], prev[9])
		fixed |= FixAbsolutePosition
		if q.CRCValid() {
			return fixed, true
		}
	}
	if next[2] > 0 && nextOK && !fixed.Has(FixAbsolutePosition) && next.absoluteFrames()-aPos != 1 {
		q[7], q[8], q[9] = decrementMSF(next[7], next[8], next[9])
		fixed |= FixAbsolutePosition
		if q.CRCValid() {
			return fixed, true
		}
	}

	if q.CRCValid() {
		return fixed, true
	}
	if !fixCRC {
		return fixed, false
	}

	// Reseal only a payload that already continues a valid neighbour.
	var absOK, relOK bool
	var ref Q
	switch {
	case prevOK:
		ref = prev
		absOK = aPos-prev.absoluteFrames() == 1
		relOK = pPos-prev.relativeFrames() == 1
	case nextOK:
		ref = next
		absOK = next.absoluteFrames()-aPos == 1
		relOK = next.relativeFrames()-pPos == 1
	default:
		return fixed, false
	}
	if q[0] != ref[0] || q[1] != ref[1] || q[2] != ref[2] || q[6] != 0 || !absOK || !relOK {
		return fixed, false
	}
	q.Seal()
	return fixed | FixCRC, true
}

// fixFrame repairs the absolute frame carried by MCN and ISRC frames.
func fixFrame(q *Q, prev, next Q, prevOK, nextOK bool, fixed Fix) (Fix, bool) {
	frame := int(common.FromBCD(q[9]))
	switch {
	case prevOK:
		if frame-int(common.FromBCD(prev[9])) == 1 {
			return fixed, false
		}
		q[9] = incrementFrame(prev[9])
	case nextOK:
		if int(common.FromBCD(next[9]))-frame == 1 {
			return fixed, false
		}
		q[9] = decrementFrame(next[9])
	default:
		return fixed, false
	}
	fixed |= FixAbsolutePosition
	return fixed, q.CRCValid()
}

// sealBetween rewrites the CRC of an MCN or ISRC frame when both neighbours
// are valid.
func sealBetween(q *Q, prevOK, nextOK, fixCRC bool, fixed Fix) (Fix, bool) {
	if !fixCRC || !prevOK || !nextOK {
		return fixed, false
	}
	q.Seal()
	return fixed | FixCRC, true
}
