package subchannel

import (
	"encoding/hex"
	"sort"
	"sync"

	"github.com/go-logr/logr"

	"github.com/hansbonini/discfix/pkg/common"
)

// AuditLog receives a record of every repair the engine applies.
type AuditLog interface {
	// WriteFix records one repair category applied to the block at lba.
	WriteFix(fix Fix, lba int64)
	// WriteEntry records interleaved subchannel as read (raw reports
	// whether the drive returned raw P-W) or as written after a repair.
	WriteEntry(sub []byte, raw bool, lba int64, length uint32)
}

var fixMessages = map[Fix]string{
	FixP:                "Fixed P subchannel",
	FixRW:               "Fixed R-W subchannels",
	FixADR:              "Fixed Q subchannel ADR",
	FixControl:          "Fixed Q subchannel control",
	FixZero:             "Fixed Q subchannel zero",
	FixTrack:            "Fixed Q subchannel track number",
	FixIndex:            "Fixed Q subchannel index",
	FixRelativePosition: "Fixed Q subchannel relative position",
	FixAbsolutePosition: "Fixed Q subchannel absolute position",
	FixCRC:              "Fixed Q subchannel CRC",
	FixMCN:              "Fixed Q subchannel MCN",
	FixISRC:             "Fixed Q subchannel ISRC",
}

type logAudit struct {
	logger logr.Logger
}

// NewLogAudit returns an AuditLog writing structured events to logger.
// Entries are only emitted at trace verbosity.
func NewLogAudit(logger logr.Logger) AuditLog {
	return &logAudit{logger: logger.WithName("subchannel")}
}

func (a *logAudit) WriteFix(fix Fix, lba int64) {
	for _, f := range fix.Categories() {
		a.logger.Info(fixMessages[f], "lba", lba, "fix", f.String())
	}
}

func (a *logAudit) WriteEntry(sub []byte, raw bool, lba int64, length uint32) {
	trace := a.logger.V(common.LevelTrace)
	if !trace.Enabled() {
		return
	}
	de, err := Deinterleave(sub)
	if err != nil {
		trace.Error(err, "Unreadable subchannel entry", "lba", lba)
		return
	}
	for i := 0; i < len(de)/BlockSize && uint32(i) < length; i++ {
		block := de[i*BlockSize : (i+1)*BlockSize]
		q := QFromBlock(block)
		trace.Info("Subchannel",
			"lba", lba+int64(i),
			"raw", raw,
			"p", block[OffsetP] != 0,
			"q", hex.EncodeToString(q[:]),
			"crc", q.CRCValid(),
			"rw", ClassifyRW(sub[i*BlockSize:(i+1)*BlockSize]))
	}
}

// FixEvent is one repair recorded by a Report.
type FixEvent struct {
	LBA int64  `yaml:"lba"`
	Fix string `yaml:"fix"`
}

// Report collects repairs in memory so they can be summarised or exported.
type Report struct {
	mu      sync.Mutex
	Fixes   map[string]int64 `yaml:"fixes"`
	Events  []FixEvent       `yaml:"events,omitempty"`
	Entries int64            `yaml:"entries"`
	// KeepEvents controls whether individual events are retained.
	KeepEvents bool `yaml:"-"`
}

// NewReport returns an empty Report.
func NewReport(keepEvents bool) *Report {
	return &Report{Fixes: make(map[string]int64), KeepEvents: keepEvents}
}

func (r *Report) WriteFix(fix Fix, lba int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fixes == nil {
		r.Fixes = make(map[string]int64)
	}
	for _, f := range fix.Categories() {
		r.Fixes[f.String()]++
		if r.KeepEvents {
			r.Events = append(r.Events, FixEvent{LBA: lba, Fix: f.String()})
		}
	}
}

func (r *Report) WriteEntry(_ []byte, _ bool, _ int64, length uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries += int64(length)
}

// Count returns how many times fix was applied.
func (r *Report) Count(fix Fix) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Fixes[fix.String()]
}

// Total returns the number of repairs across all categories.
func (r *Report) Total() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, n := range r.Fixes {
		total += n
	}
	return total
}

// Categories returns the names of the categories seen, sorted.
func (r *Report) Categories() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.Fixes))
	for name := range r.Fixes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type multiAudit []AuditLog

// MultiAudit fans every record out to each of logs.
func MultiAudit(logs ...AuditLog) AuditLog {
	var out multiAudit
	for _, l := range logs {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

func (m multiAudit) WriteFix(fix Fix, lba int64) {
	for _, l := range m {
		l.WriteFix(fix, lba)
	}
}

func (m multiAudit) WriteEntry(sub []byte, raw bool, lba int64, length uint32) {
	for _, l := range m {
		l.WriteEntry(sub, raw, lba, length)
	}
}
