package subchannel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQ_CRCDeterminism(t *testing.T) {
	q := positionQ(0, 0x01, 0x01, [3]byte{0x00, 0x00, 0x00}, [3]byte{0x00, 0x02, 0x00})
	require.True(t, q.CRCValid())

	for _, i := range []int{10, 11} {
		saved := q[i]
		q[i] ^= 0x01
		info, err := ParseQ(q[:])
		require.NoError(t, err)
		assert.False(t, info.CRCValid, "byte %d corrupted", i)

		q[i] = saved
		info, err = ParseQ(q[:])
		require.NoError(t, err)
		assert.True(t, info.CRCValid, "byte %d restored", i)
	}
}

func TestQ_StoredAndComputedCRC(t *testing.T) {
	q := positionQ(0, 0x01, 0x01, [3]byte{0x00, 0x00, 0x11}, [3]byte{0x00, 0x02, 0x11})
	assert.Equal(t, q.ComputedCRC(), q.StoredCRC())

	q[10] = 0
	assert.NotEqual(t, q.ComputedCRC(), q.StoredCRC())
}

func TestParseQ_Position(t *testing.T) {
	q := positionQ(0x4, 0x12, 0x01, [3]byte{0x03, 0x25, 0x70}, [3]byte{0x45, 0x59, 0x73})

	info, err := ParseQ(q[:])
	require.NoError(t, err)
	assert.Equal(t, byte(ADRPosition), info.ADR)
	assert.Equal(t, byte(0x4), info.Control)
	assert.True(t, info.CRCValid)
	require.NotNil(t, info.Position)

	want := Position{
		Track: 12, Index: 1,
		RelMinute: 3, RelSecond: 25, RelFrame: 70,
		AbsMinute: 45, AbsSecond: 59, AbsFrame: 73,
	}
	assert.Equal(t, want, *info.Position)
	assert.Equal(t, int64((45*60+59)*75+73-150), info.Position.LBA())
	assert.Equal(t, int64((3*60+25)*75+70), info.Position.Relative())
}

func TestParseQ_InvalidLength(t *testing.T) {
	_, err := ParseQ(make([]byte, 10))
	require.Error(t, err)
}

func TestMCN_RoundTrip(t *testing.T) {
	q := mcnQ("0123456789012", 0x11)

	info := q.Info()
	assert.Equal(t, byte(ADRMCN), info.ADR)
	assert.Equal(t, "0123456789012", info.MCN)
	assert.Equal(t, byte(11), info.AbsFrame)
	assert.Nil(t, info.Position)
	assert.Equal(t, byte(0x20), q[7], "13th digit sits in the high nibble")
}

func TestMCN_AbsentWhenZero(t *testing.T) {
	q := Q{ADRMCN}
	q.Seal()
	assert.Equal(t, "", DecodeMCN(q))
}

func TestEncodeMCN_RejectsWrongLength(t *testing.T) {
	q := Q{ADRMCN}
	assert.False(t, EncodeMCN(&q, "123"))
	assert.Equal(t, Q{ADRMCN}, q)
}

func TestISRC_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"upper case", "USRC17607839", "USRC17607839"},
		{"lower case", "gbaye0000123", "GBAYE0000123"},
		{"digits in prefix", "JP0A19912345", "JP0A19912345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := isrcQ(tt.in, 0x05)
			assert.Equal(t, tt.want, DecodeISRC(q))
			assert.Equal(t, tt.want, q.Info().ISRC)
		})
	}
}

func TestISRC_Packing(t *testing.T) {
	q := isrcQ("USRC17607839", 0x21)
	assert.Equal(t, []byte{0x96, 0x38, 0x93, 0x04, 0x76, 0x07, 0x83, 0x90}, q[1:9])
}

func TestISRC_AbsentOrInvalid(t *testing.T) {
	zero := Q{ADRISRC}
	assert.Equal(t, "", DecodeISRC(zero))

	// 0x0A is between the digit and letter ranges
	invalid := Q{ADRISRC, 0x0A << 2}
	assert.Equal(t, "", DecodeISRC(invalid))

	var q Q
	assert.False(t, EncodeISRC(&q, "US-RC1760783"))
	assert.False(t, EncodeISRC(&q, "SHORT"))
}
