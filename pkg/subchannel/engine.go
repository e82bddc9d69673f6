package subchannel

import (
	"math"

	"github.com/hansbonini/discfix/pkg/common"
)

// Options configures an Engine.
type Options struct {
	FixSubchannel         bool // repair P, R-W and Q structure
	FixSubchannelCRC      bool // reseal a plausible Q payload as a last resort
	FixSubchannelPosition bool // write each block at the position its Q names
	Supported             Mode // what the source delivers
	Desired               Mode // what the image should hold
}

// TagWriter stores interleaved subchannel in the output image.
type TagWriter interface {
	// WriteSectorTag stores one 96-byte block at position.
	WriteSectorTag(data []byte, position int64) error
	// WriteSectorsTag stores length consecutive blocks starting at sectorAddress.
	WriteSectorsTag(data []byte, sectorAddress int64, length uint32) error
}

// Stats counts what an Engine has done so far.
type Stats struct {
	Blocks     int64 `yaml:"blocks"`
	Written    int64 `yaml:"written"`
	Fixed      int64 `yaml:"fixed"`
	Unrepaired int64 `yaml:"unrepaired"`
	Skipped    int64 `yaml:"skipped"`
}

// Engine validates, repairs and positions subchannel blocks.
type Engine struct {
	opts    Options
	session *Session
	writer  TagWriter
	audit   AuditLog
	stats   Stats
}

// NewEngine returns an engine writing to writer and recording into session.
// A nil session starts empty and a nil audit discards records.
func NewEngine(opts Options, session *Session, writer TagWriter, audit AuditLog) *Engine {
	if session == nil {
		session = NewSession(nil)
	}
	if audit == nil {
		audit = MultiAudit()
	}
	return &Engine{opts: opts, session: session, writer: writer, audit: audit}
}

// Session returns the session the engine updates.
func (e *Engine) Session() *Session { return e.session }

// Stats returns the running counters.
func (e *Engine) Stats() Stats { return e.stats }

// WriteSubchannel processes length sectors of subchannel read at
// sectorAddress. sub holds raw 96-byte blocks, or 16-byte Q records when
// the engine is configured for ModeQ16. It reports whether the track table
// changed.
func (e *Engine) WriteSubchannel(sub []byte, sectorAddress int64, length uint32, currentTrack uint8) (bool, error) {
	if e.opts.Supported == ModeQ16 {
		raw, err := ConvertQToRaw(sub)
		if err != nil {
			return false, err
		}
		sub = raw
	}
	if len(sub)%BlockSize != 0 {
		return false, ErrBlockLength
	}

	if !e.opts.FixSubchannelPosition && e.opts.Desired != ModeNone {
		if err := e.writer.WriteSectorsTag(sub, sectorAddress, length); err != nil {
			return false, common.FormatError(common.ErrFailedToWriteSubchannel, err)
		}
	}
	e.audit.WriteEntry(sub, e.opts.Supported == ModeRaw, sectorAddress, length)

	pass := e.Begin(sectorAddress, currentTrack)
	for pos := 0; pos < len(sub); pos += BlockSize {
		if err := pass.Push(sub[pos : pos+BlockSize]); err != nil {
			return pass.indexesChanged, err
		}
	}
	return pass.Close()
}

type slot struct {
	lba int64
	raw [BlockSize]byte
	de  [BlockSize]byte
}

// Pass processes one run of consecutive blocks. Each block is handled once
// the next one has arrived, so only three blocks are held at a time.
type Pass struct {
	engine         *Engine
	start          int64
	track          uint8
	extractOnly    bool
	window         [3]slot
	count          int64
	prePos         int64
	indexesChanged bool
}

// Begin starts a pass at sectorAddress. The first and last blocks of a
// pass have only one neighbour and are never Q-repaired.
func (e *Engine) Begin(sectorAddress int64, currentTrack uint8) *Pass {
	return &Pass{
		engine:      e,
		start:       sectorAddress,
		track:       currentTrack,
		extractOnly: !e.opts.FixSubchannelPosition || e.opts.Desired == ModeNone,
		prePos:      math.MinInt64,
	}
}

// Push adds the next interleaved 96-byte block.
func (p *Pass) Push(block []byte) error {
	if len(block) != BlockSize {
		return ErrBlockLength
	}
	s := &p.window[p.count%3]
	s.lba = p.start + p.count
	copy(s.raw[:], block)
	deinterleaveBlock(s.de[:], s.raw[:])
	p.count++
	p.engine.stats.Blocks++
	if p.count < 2 {
		return nil
	}
	return p.process(p.count-2, true)
}

// Close handles the final block and reports whether the track table changed.
func (p *Pass) Close() (bool, error) {
	if p.count == 0 {
		return p.indexesChanged, nil
	}
	err := p.process(p.count-1, false)
	p.count = 0
	return p.indexesChanged, err
}

func (p *Pass) extract(q Q) {
	p.engine.session.collect(q, p.track)
	if !p.indexesChanged {
		p.indexesChanged = p.engine.session.reconcilePregap(q)
	}
}

func (p *Pass) process(i int64, hasNext bool) error {
	e := p.engine
	cur := &p.window[i%3]
	de := cur.de[:]
	lba := cur.lba

	if p.extractOnly {
		p.extract(QFromBlock(de))
		return nil
	}

	q := QFromBlock(de)
	crcOK := q.CRCValid()

	// P is one flag per sector: all twelve bytes 0x00 or all 0xFF.
	pOK := de[OffsetP] == 0x00 || de[OffsetP] == 0xFF
	pWeight := 0
	for _, b := range de[OffsetP : OffsetP+ChannelSize] {
		if b != de[OffsetP] {
			pOK = false
		}
		for w := 0; w < 8; w++ {
			pWeight += int(b>>w) & 1
		}
	}

	rwOK := true
	for _, b := range de[OffsetRW:] {
		if b != 0 {
			rwOK = false
			break
		}
	}
	var class RWClass
	if !rwOK {
		class = ClassifyRW(cur.raw[:])
		if class.Packet && !class.CDText {
			rwOK = true
		}
		if class.CDText {
			rwOK = CheckCDTextPackets(cur.raw[:])
		}
	}

	var fixed Fix
	if !pOK && e.opts.FixSubchannel {
		fill := byte(0x00)
		if pWeight >= 48 {
			fill = 0xFF
		}
		for j := OffsetP; j < OffsetP+ChannelSize; j++ {
			de[j] = fill
		}
		pOK = true
		fixed |= FixP
	}

	if !rwOK && !class.Packet && !class.CDText && e.opts.FixSubchannel {
		clear(de[OffsetRW:])
		rwOK = true
		fixed |= FixRW
	}

	if !crcOK && e.opts.FixSubchannel && i > 0 && hasNext {
		candidate := q
		n := Neighbors{
			Prev: QFromBlock(p.window[(i-1)%3].de[:]),
			Next: QFromBlock(p.window[(i+1)%3].de[:]),
		}
		qFixed, ok := FixQ(&candidate, n, e.session.MCN, e.session.ISRCs[p.track], e.opts.FixSubchannelCRC)
		if ok {
			q = candidate
			copy(de[OffsetQ:OffsetQ+QSize], q[:])
			crcOK = true
			fixed |= qFixed
		} else {
			common.LogDebug(common.DebugBlockUnfixed, lba)
		}
	}
	if fixed != 0 {
		e.audit.WriteFix(fixed, lba)
		e.stats.Fixed++
	}

	p.extract(q)

	if !pOK || !crcOK || !rwOK {
		e.stats.Unrepaired++
		return nil
	}

	var aPos int64
	if q.ADR() == ADRPosition {
		aPos = q.absoluteFrames()
	} else {
		expected := lba + common.PregapFrames
		minute := expected / (common.SecondsPerMin * common.FramesPerSecond)
		second := (expected - minute*common.SecondsPerMin*common.FramesPerSecond) / common.FramesPerSecond
		aPos = (minute*common.SecondsPerMin+second)*common.FramesPerSecond +
			int64(common.FromBCD(q[9])) - common.PregapFrames
		if aPos < p.prePos {
			aPos += common.FramesPerSecond
		}
	}
	if aPos < 0 {
		common.LogDebug(common.DebugSectorSkipped, lba, aPos)
		e.stats.Skipped++
		return nil
	}
	p.prePos = aPos

	posSub := make([]byte, BlockSize)
	interleaveBlock(posSub, de)
	if err := e.writer.WriteSectorTag(posSub, aPos); err != nil {
		return common.FormatError(common.ErrFailedToWriteSubchannel, err)
	}
	if e.session.Missing != nil {
		e.session.Missing.Remove(aPos)
	}
	e.stats.Written++
	if fixed != 0 {
		e.audit.WriteEntry(posSub, e.opts.Supported == ModeRaw, lba, 1)
	}
	return nil
}
