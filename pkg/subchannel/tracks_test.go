package subchannel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtentSet(t *testing.T) {
	s := NewExtentSet(0, 9)
	assert.Equal(t, int64(10), s.Len())
	assert.True(t, s.Contains(0))
	assert.True(t, s.Contains(9))
	assert.False(t, s.Contains(10))

	assert.True(t, s.Remove(5))
	assert.False(t, s.Remove(5))
	assert.True(t, s.Remove(0))
	assert.True(t, s.Remove(9))
	assert.Equal(t, []Extent{{Start: 1, End: 4}, {Start: 6, End: 8}}, s.Ranges())
	assert.Equal(t, int64(7), s.Len())

	s.Add(5)
	assert.Equal(t, []Extent{{Start: 1, End: 8}}, s.Ranges())

	s.AddRange(20, 25)
	s.AddRange(9, 19)
	assert.Equal(t, []Extent{{Start: 1, End: 25}}, s.Ranges())

	s.AddRange(30, 29)
	assert.Equal(t, int64(25), s.Len())
}

func TestExtentSet_RemoveSingle(t *testing.T) {
	s := NewExtentSet(3, 3)
	assert.True(t, s.Remove(3))
	assert.Empty(t, s.Ranges())
	assert.False(t, s.Contains(3))
	assert.False(t, s.Remove(-1))
}

func TestExtentSet_AddRangeMergesOverlaps(t *testing.T) {
	s := &ExtentSet{}
	s.AddRange(10, 12)
	s.AddRange(20, 22)
	s.AddRange(30, 32)
	s.AddRange(0, 4)
	assert.Equal(t, []Extent{{0, 4}, {10, 12}, {20, 22}, {30, 32}}, s.Ranges())

	s.AddRange(11, 21)
	assert.Equal(t, []Extent{{0, 4}, {10, 22}, {30, 32}}, s.Ranges())

	s.AddRange(5, 9)
	assert.Equal(t, []Extent{{0, 22}, {30, 32}}, s.Ranges())
}

func TestSession_TrackAt(t *testing.T) {
	s := NewSession([]Track{
		{Sequence: 1, StartSector: 0, EndSector: 99},
		{Sequence: 2, Pregap: 150, StartSector: 100, EndSector: 199},
	})
	assert.Equal(t, uint8(1), s.TrackAt(0))
	assert.Equal(t, uint8(2), s.TrackAt(150))
	assert.Equal(t, uint8(0), s.TrackAt(200))
	assert.Equal(t, int64(200), s.Missing.Len())
}

func TestSession_CollectIdentifiers(t *testing.T) {
	s := NewSession(nil)

	s.collect(isrcQ("USRC17607839", 0), 2)
	assert.Equal(t, "USRC17607839", s.ISRCs[2])

	s.collect(isrcQ("GBAYE0000123", 0), 2)
	assert.Equal(t, "GBAYE0000123", s.ISRCs[2], "a changed ISRC replaces the old one")

	bad := isrcQ("JP0A19912345", 0)
	bad[11] ^= 0x01
	s.collect(bad, 2)
	assert.Equal(t, "GBAYE0000123", s.ISRCs[2], "invalid frames are ignored")

	s.collect(mcnQ("0000000000000", 0), 2)
	assert.Empty(t, s.MCN, "an all-zero MCN is absent")

	s.collect(mcnQ("4006381333931", 0), 2)
	assert.Equal(t, "4006381333931", s.MCN)
}

func TestSession_ReconcilePregapShrinkIgnored(t *testing.T) {
	s := NewSession([]Track{
		{Sequence: 1, StartSector: 0, EndSector: 9923},
		{Sequence: 2, Pregap: 76, StartSector: 9924, EndSector: 19999},
	})
	q := positionQ(0, 0x02, 0x00, [3]byte{0x00, 0x00, 0x10}, [3]byte{0x02, 0x14, 0x25})
	assert.False(t, s.reconcilePregap(q))
	assert.Equal(t, int64(76), s.Tracks[1].Pregap)
}

// A start sector that already covers part of the pregap moves back by the
// difference only.
func TestSession_ReconcilePregapGrowsByDifference(t *testing.T) {
	s := NewSession([]Track{
		{Sequence: 1, StartSector: 0, EndSector: 9949},
		{Sequence: 2, Pregap: 50, StartSector: 9950, EndSector: 19999},
	})
	q := positionQ(0, 0x02, 0x00, [3]byte{0x00, 0x01, 0x00}, [3]byte{0x02, 0x14, 0x73})
	assert.True(t, s.reconcilePregap(q))
	assert.Equal(t, int64(76), s.Tracks[1].Pregap)
	assert.Equal(t, int64(9924), s.Tracks[1].StartSector)
	assert.Equal(t, int64(9923), s.Tracks[0].EndSector)
}
