package pkg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hansbonini/discfix/pkg/common"
	"github.com/hansbonini/discfix/pkg/subchannel"
)

func msfBCD(frames int64) [3]byte {
	m, s, f := common.LBAToMSFValues(frames - common.PregapFrames)
	return [3]byte{common.ToBCD(m), common.ToBCD(s), common.ToBCD(f)}
}

// positionQ returns a sealed mode 1 frame. rel and abs are frame counts.
func positionQ(track, index byte, rel, abs int64) subchannel.Q {
	r, a := msfBCD(rel), msfBCD(abs)
	q := subchannel.Q{subchannel.ADRPosition, common.ToBCD(track), common.ToBCD(index), r[0], r[1], r[2], 0, a[0], a[1], a[2]}
	q.Seal()
	return q
}

func mcnQ(mcn string, frame byte) subchannel.Q {
	q := subchannel.Q{subchannel.ADRMCN}
	subchannel.EncodeMCN(&q, mcn)
	q[9] = frame
	q.Seal()
	return q
}

func rawBlock(t *testing.T, q subchannel.Q) []byte {
	t.Helper()
	de := make([]byte, subchannel.BlockSize)
	copy(de[subchannel.OffsetQ:], q[:])
	raw, err := subchannel.Interleave(de)
	require.NoError(t, err)
	return raw
}

func q16Record(q subchannel.Q) []byte {
	record := make([]byte, subchannel.Q16Size)
	copy(record, q[:])
	return record
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
