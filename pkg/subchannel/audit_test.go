package subchannel

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hansbonini/discfix/pkg/common"
)

func TestFix_String(t *testing.T) {
	assert.Equal(t, "none", Fix(0).String())
	assert.Equal(t, "p|q-crc", (FixP | FixCRC).String())
	assert.Equal(t, []Fix{FixTrack, FixIndex}, (FixIndex | FixTrack).Categories())
}

func TestLogAudit(t *testing.T) {
	var buf bytes.Buffer
	audit := NewLogAudit(common.NewConsoleLogger(&buf, common.LevelInfo, false))

	audit.WriteFix(FixP|FixCRC, 150)
	audit.WriteEntry(rawBlock(trackOneQ(150), false), true, 150, 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"[INFO] [subchannel] Fixed P subchannel lba=150 fix=p",
		"[INFO] [subchannel] Fixed Q subchannel CRC lba=150 fix=q-crc",
	}, lines, "entries need trace verbosity")
}

func TestLogAudit_Entries(t *testing.T) {
	var buf bytes.Buffer
	audit := NewLogAudit(common.NewConsoleLogger(&buf, common.LevelTrace, false))

	sub := append(rawBlock(trackOneQ(0), true), rawBlock(trackOneQ(1), false)...)
	audit.WriteEntry(sub, true, 0, 2)

	output := buf.String()
	assert.Contains(t, output, "[TRACE] [subchannel] Subchannel lba=0 raw=true p=true")
	assert.Contains(t, output, "lba=1 raw=true p=false")
	assert.Contains(t, output, "crc=true")
}

func TestReport(t *testing.T) {
	r := NewReport(true)
	r.WriteFix(FixAbsolutePosition|FixRelativePosition, 10)
	r.WriteFix(FixAbsolutePosition, 11)
	r.WriteEntry(nil, true, 10, 2)

	assert.Equal(t, int64(2), r.Count(FixAbsolutePosition))
	assert.Equal(t, int64(1), r.Count(FixRelativePosition))
	assert.Equal(t, int64(3), r.Total())
	assert.Equal(t, int64(2), r.Entries)
	assert.Equal(t, []string{"q-absolute-position", "q-relative-position"}, r.Categories())
	assert.Len(t, r.Events, 3)
}

func TestMultiAudit(t *testing.T) {
	a, b := NewReport(false), NewReport(false)
	m := MultiAudit(a, nil, b)
	m.WriteFix(FixRW, 1)
	m.WriteEntry(nil, false, 1, 1)

	assert.Equal(t, int64(1), a.Count(FixRW))
	assert.Equal(t, int64(1), b.Count(FixRW))
	assert.Empty(t, a.Events)
	assert.Equal(t, int64(1), b.Entries)
}
