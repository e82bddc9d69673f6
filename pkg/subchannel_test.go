package pkg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hansbonini/discfix/pkg/checksum"
	"github.com/hansbonini/discfix/pkg/common"
	"github.com/hansbonini/discfix/pkg/subchannel"
)

func repairOptions() subchannel.Options {
	return subchannel.Options{
		FixSubchannel:         true,
		FixSubchannelCRC:      true,
		FixSubchannelPosition: true,
		Supported:             subchannel.ModeRaw,
		Desired:               subchannel.ModeRaw,
	}
}

// trackOneStream returns count clean blocks of track 1 starting at LBA 0.
func trackOneStream(t *testing.T, count int) []byte {
	var sub []byte
	for lba := int64(0); lba < int64(count); lba++ {
		sub = append(sub, rawBlock(t, positionQ(1, 1, lba, lba+common.PregapFrames))...)
	}
	return sub
}

func TestSubchannelProcessor_Fix(t *testing.T) {
	want := trackOneStream(t, 20)

	// Damage the CRC of block 10
	corrupt := positionQ(1, 1, 10, 10+common.PregapFrames)
	corrupt[11] ^= 0x20
	input := append([]byte(nil), want...)
	copy(input[10*subchannel.BlockSize:], rawBlock(t, corrupt))

	inPath := writeFile(t, "in.sub", input)
	outPath := filepath.Join(t.TempDir(), "out.sub")

	processor := NewSubchannelProcessor(repairOptions(), 7)
	req := FixRequest{Input: inPath, Output: outPath}
	result, err := processor.Fix(req)
	require.NoError(t, err)

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	assert.Equal(t, subchannel.Stats{Blocks: 20, Written: 20, Fixed: 1}, result.Stats)
	assert.Equal(t, int64(1), result.Repairs.Count(subchannel.FixCRC))
	assert.Zero(t, result.Dropped)
	assert.False(t, result.Changed)

	report := result.Report(req)
	assert.Equal(t, inPath, report.Input)
	assert.Empty(t, report.Missing)
}

func TestSubchannelProcessor_FixPassBoundaryLeavesBlock(t *testing.T) {
	input := trackOneStream(t, 14)
	corrupt := positionQ(1, 1, 6, 6+common.PregapFrames)
	corrupt[10] ^= 0x01
	copy(input[6*subchannel.BlockSize:], rawBlock(t, corrupt))

	outPath := filepath.Join(t.TempDir(), "out.sub")
	processor := NewSubchannelProcessor(repairOptions(), 7)
	result, err := processor.Fix(FixRequest{Input: writeFile(t, "in.sub", input), Output: outPath})
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.Stats.Unrepaired, "last block of a pass is not repaired")
	assert.Equal(t, int64(13), result.Stats.Written)

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, subchannel.BlockSize), got[6*subchannel.BlockSize:7*subchannel.BlockSize])
}

func TestSubchannelProcessor_FixUpdatesLayout(t *testing.T) {
	var input []byte
	for lba := int64(0); lba < 8; lba++ {
		input = append(input, rawBlock(t, positionQ(1, 1, lba, lba+common.PregapFrames))...)
	}
	// Track 2 opens with a two frame pregap at LBA 8
	input = append(input, rawBlock(t, positionQ(2, 0, 1, 8+common.PregapFrames))...)
	input = append(input, rawBlock(t, positionQ(2, 0, 0, 9+common.PregapFrames))...)
	for lba := int64(10); lba < 16; lba++ {
		input = append(input, rawBlock(t, positionQ(2, 1, lba-10, lba+common.PregapFrames))...)
	}
	input = append(input, rawBlock(t, mcnQ("0123456789012", 0x16))...)

	layout := &Layout{Tracks: []subchannel.Track{
		{Sequence: 1, Pregap: 150, StartSector: 0, EndSector: 9},
		{Sequence: 2, StartSector: 10, EndSector: 19},
	}}

	processor := NewSubchannelProcessor(repairOptions(), 32)
	result, err := processor.Fix(FixRequest{
		Input:  writeFile(t, "in.sub", input),
		Output: filepath.Join(t.TempDir(), "out.sub"),
		Layout: layout,
	})
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Equal(t, []subchannel.Track{
		{Sequence: 1, Pregap: 150, StartSector: 0, EndSector: 7},
		{Sequence: 2, Pregap: 2, StartSector: 8, EndSector: 19},
	}, layout.Tracks)
	assert.Equal(t, "0123456789012", layout.MCN)
	assert.Equal(t, []subchannel.Extent{{Start: 17, End: 19}}, result.Session.Missing.Ranges())
}

func TestSubchannelProcessor_FixQ16Input(t *testing.T) {
	var input []byte
	for lba := int64(0); lba < 5; lba++ {
		input = append(input, q16Record(positionQ(1, 1, lba, lba+common.PregapFrames))...)
	}

	opts := repairOptions()
	opts.Supported = subchannel.ModeQ16
	outPath := filepath.Join(t.TempDir(), "out.sub")
	result, err := NewSubchannelProcessor(opts, 2).Fix(FixRequest{Input: writeFile(t, "in.q16", input), Output: outPath})
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.Stats.Written)

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, trackOneStream(t, 5), got)
}

func TestSubchannelProcessor_FixDropsBlocksBeforeStart(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "out.sub")
	processor := NewSubchannelProcessor(repairOptions(), 4)
	result, err := processor.Fix(FixRequest{
		Input:  writeFile(t, "in.sub", trackOneStream(t, 6)),
		Output: outPath,
		Start:  100,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(6), result.Dropped)

	info, err := os.Stat(outPath)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestSubchannelProcessor_FixPassthrough(t *testing.T) {
	input := trackOneStream(t, 6)
	input[3*subchannel.BlockSize+40] ^= 0x40

	opts := repairOptions()
	opts.FixSubchannelPosition = false
	outPath := filepath.Join(t.TempDir(), "out.sub")
	result, err := NewSubchannelProcessor(opts, 4).Fix(FixRequest{Input: writeFile(t, "in.sub", input), Output: outPath})
	require.NoError(t, err)
	assert.Zero(t, result.Stats.Written)

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, input, got, "blocks are copied unchanged")
}

func TestSubchannelProcessor_Errors(t *testing.T) {
	opts := repairOptions()
	_, err := NewSubchannelProcessor(opts, 4).Fix(FixRequest{
		Input:  filepath.Join(t.TempDir(), "missing.sub"),
		Output: filepath.Join(t.TempDir(), "out.sub"),
	})
	assert.Error(t, err)

	opts.Supported = subchannel.ModeNone
	_, err = NewSubchannelProcessor(opts, 4).Scan("unused", 0)
	assert.Error(t, err)
}

func TestSubchannelProcessor_Scan(t *testing.T) {
	var input []byte
	var qs []byte
	for lba := int64(0); lba < 4; lba++ {
		q := positionQ(1, 1, lba, lba+common.PregapFrames)
		qs = append(qs, q[:]...)
		input = append(input, rawBlock(t, q)...)
	}
	mcn := mcnQ("1234567890123", 0x04)
	qs = append(qs, mcn[:]...)
	input = append(input, rawBlock(t, mcn)...)
	bad := positionQ(1, 1, 5, 5+common.PregapFrames)
	bad[3] ^= 0x01
	qs = append(qs, bad[:]...)
	input = append(input, rawBlock(t, bad)...)

	processor := NewSubchannelProcessor(repairOptions(), 4)
	result, err := processor.Scan(writeFile(t, "in.sub", input), 1000)
	require.NoError(t, err)

	assert.Equal(t, int64(6), result.Blocks)
	assert.Equal(t, int64(5), result.ValidCRC)
	assert.Equal(t, "1234567890123", result.MCN)
	assert.Equal(t, checksum.CRC16IBM(qs), result.Fingerprint)

	require.Len(t, result.Entries, 6)
	first := result.Entries[0]
	assert.Equal(t, int64(1000), first.LBA)
	require.NotNil(t, first.Position)
	assert.Equal(t, byte(1), first.Position.Track)
	assert.Equal(t, int64(0), first.Position.LBA())
	assert.Equal(t, "1234567890123", result.Entries[4].MCN)
	assert.False(t, result.Entries[5].CRCValid)

	out := filepath.Join(t.TempDir(), "scan.yaml")
	require.NoError(t, ExportScan(out, result))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "crc_valid: true")
}

func TestRWLabel(t *testing.T) {
	tests := []struct {
		name  string
		class subchannel.RWClass
		want  string
	}{
		{"empty", subchannel.RWClass{Zero: true}, ""},
		{"cd-text beside a zero pack", subchannel.RWClass{Zero: true, CDText: true}, "cd-text"},
		{"graphics beside a zero pack", subchannel.RWClass{Zero: true, Packet: true}, "packet"},
		{"unrecognised", subchannel.RWClass{}, "data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rwLabel(tt.class))
		})
	}
}
