// Package pkg provides the file-level processors behind the discfix commands.
// This file contains the subchannel repair and scan processors working on
// .sub files.
package pkg

import (
	"errors"
	"io"

	"github.com/hansbonini/discfix/pkg/checksum"
	"github.com/hansbonini/discfix/pkg/common"
	"github.com/hansbonini/discfix/pkg/sector"
	"github.com/hansbonini/discfix/pkg/subchannel"
)

// SubchannelProcessor handles subchannel file operations (fix/scan)
type SubchannelProcessor struct {
	Options    subchannel.Options
	PassLength int
	KeepEvents bool // keep every repair in the report, not just counts
}

// NewSubchannelProcessor creates a new subchannel processor instance
func NewSubchannelProcessor(opts subchannel.Options, passLength int) *SubchannelProcessor {
	if passLength < 1 {
		passLength = 1
	}
	return &SubchannelProcessor{Options: opts, PassLength: passLength}
}

// FixRequest names the files of one repair run.
type FixRequest struct {
	Input  string
	Output string
	Start  int64   // LBA of the first block in Input
	Layout *Layout // optional track table; updated in place
}

// FixResult summarises a repair run.
type FixResult struct {
	Stats   subchannel.Stats
	Repairs *subchannel.Report
	Session *subchannel.Session
	Dropped int64 // blocks positioned outside the output file
	Changed bool  // the track table changed
}

// Report builds the YAML report of the run.
func (r *FixResult) Report(req FixRequest) *FixReport {
	report := &FixReport{
		Input:   req.Input,
		Output:  req.Output,
		Start:   req.Start,
		Stats:   r.Stats,
		Dropped: r.Dropped,
		Repairs: r.Repairs,
		Layout:  LayoutFromSession(r.Session),
	}
	if r.Session.Missing != nil {
		report.Missing = r.Session.Missing.Ranges()
	}
	return report
}

// subFile writes interleaved blocks into a .sub file whose first block is
// LBA start.
type subFile struct {
	writer  *sector.ImageWriter
	start   int64
	dropped int64
}

func (f *subFile) WriteSectorTag(data []byte, position int64) error {
	if position < f.start {
		f.dropped++
		return nil
	}
	return f.writer.WriteSector(position-f.start, data)
}

func (f *subFile) WriteSectorsTag(data []byte, sectorAddress int64, length uint32) error {
	n := int64(length) * subchannel.BlockSize
	if n > int64(len(data)) {
		n = int64(len(data)) / subchannel.BlockSize * subchannel.BlockSize
	}
	if sectorAddress < f.start {
		skip := f.start - sectorAddress
		if skip*subchannel.BlockSize >= n {
			f.dropped += n / subchannel.BlockSize
			return nil
		}
		f.dropped += skip
		data = data[skip*subchannel.BlockSize:]
		n -= skip * subchannel.BlockSize
		sectorAddress = f.start
	}
	return f.writer.WriteSector(sectorAddress-f.start, data[:n])
}

// Fix runs the repair engine over req.Input in passes and writes the
// repaired raw subchannel to req.Output.
func (p *SubchannelProcessor) Fix(req FixRequest) (*FixResult, error) {
	// Open the input stream in the block size the configured mode delivers
	blockSize := p.Options.Supported.BlockSize()
	if blockSize == 0 {
		return nil, common.FormatErrorString(common.ErrFailedToOpenInput, "subchannel mode %s cannot be read", p.Options.Supported)
	}
	reader, err := sector.OpenBlocks(req.Input, blockSize)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToOpenInput, err)
	}
	defer reader.Close()
	warnTrailing(reader)

	writer, err := sector.CreateImage(req.Output, subchannel.BlockSize)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToCreateOutputFile, err)
	}
	defer writer.Close()

	// Seed the session from the layout when one is given
	session := subchannel.NewSession(nil)
	if req.Layout != nil {
		session = req.Layout.Session()
	}

	repairs := subchannel.NewReport(p.KeepEvents)
	audit := subchannel.MultiAudit(subchannel.NewLogAudit(common.Logger()), repairs)
	out := &subFile{writer: writer, start: req.Start}
	engine := subchannel.NewEngine(p.Options, session, out, audit)

	result := &FixResult{Repairs: repairs, Session: session}
	total := reader.TotalSectors()
	for index := int64(0); index < total; index += int64(p.PassLength) {
		data, err := reader.ReadSectors(index, p.PassLength)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, common.FormatError(common.ErrFailedToReadSubchannel, err)
		}

		lba := req.Start + index
		length := uint32(len(data) / blockSize)
		common.LogDebug(common.DebugPassStart, lba, length)

		track := session.TrackAt(lba)
		if track == 0 {
			track = 1
		}
		changed, err := engine.WriteSubchannel(data, lba, length, track)
		if err != nil {
			return nil, err
		}
		result.Changed = result.Changed || changed
	}

	result.Stats = engine.Stats()
	result.Dropped = out.dropped
	if req.Layout != nil {
		*req.Layout = *LayoutFromSession(session)
	}

	common.LogInfo(common.InfoSubchannelFixed, result.Stats.Written, repairs.Total())
	if session.Missing != nil && session.Missing.Len() > 0 {
		common.LogWarn(common.InfoMissingSubchannel, session.Missing.Len())
	}
	return result, nil
}

// ScanEntry is the decoded Q channel of one block.
type ScanEntry struct {
	LBA      int64                `yaml:"lba"`
	ADR      byte                 `yaml:"adr"`
	Control  byte                 `yaml:"control"`
	CRCValid bool                 `yaml:"crc_valid"`
	Position *subchannel.Position `yaml:"position,omitempty"`
	MCN      string               `yaml:"mcn,omitempty"`
	ISRC     string               `yaml:"isrc,omitempty"`
	P        bool                 `yaml:"p"`
	RW       string               `yaml:"rw,omitempty"`
}

// ScanResult is the decoded Q stream of a .sub file.
type ScanResult struct {
	Blocks      int64       `yaml:"blocks"`
	ValidCRC    int64       `yaml:"valid_crc"`
	Fingerprint uint16      `yaml:"fingerprint"`
	MCN         string      `yaml:"mcn,omitempty"`
	Entries     []ScanEntry `yaml:"entries"`
}

// Scan decodes the Q channel of every block in input without repairing it.
func (p *SubchannelProcessor) Scan(input string, start int64) (*ScanResult, error) {
	blockSize := p.Options.Supported.BlockSize()
	if blockSize == 0 {
		return nil, common.FormatErrorString(common.ErrFailedToOpenInput, "subchannel mode %s cannot be read", p.Options.Supported)
	}
	reader, err := sector.OpenBlocks(input, blockSize)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToOpenInput, err)
	}
	defer reader.Close()
	warnTrailing(reader)

	result := &ScanResult{Entries: make([]ScanEntry, 0, reader.TotalSectors())}
	crc := uint16(checksum.IBMSeed)
	for index := int64(0); index < reader.TotalSectors(); index += int64(p.PassLength) {
		data, err := reader.ReadSectors(index, p.PassLength)
		if err != nil {
			return nil, common.FormatError(common.ErrFailedToReadSubchannel, err)
		}
		if p.Options.Supported == subchannel.ModeQ16 {
			if data, err = subchannel.ConvertQToRaw(data); err != nil {
				return nil, err
			}
		}
		de, err := subchannel.Deinterleave(data)
		if err != nil {
			return nil, err
		}

		for i := 0; i < len(de)/subchannel.BlockSize; i++ {
			block := de[i*subchannel.BlockSize : (i+1)*subchannel.BlockSize]
			q := subchannel.QFromBlock(block)
			crc = checksum.UpdateCRC16IBM(crc, q[:])

			info := q.Info()
			entry := ScanEntry{
				LBA:      start + index + int64(i),
				ADR:      info.ADR,
				Control:  info.Control,
				CRCValid: info.CRCValid,
				Position: info.Position,
				MCN:      info.MCN,
				ISRC:     info.ISRC,
				P:        block[subchannel.OffsetP] == 0xFF,
				RW:       rwLabel(subchannel.ClassifyRW(data[i*subchannel.BlockSize : (i+1)*subchannel.BlockSize])),
			}
			if info.CRCValid {
				result.ValidCRC++
				if info.MCN != "" {
					result.MCN = info.MCN
				}
			}
			result.Entries = append(result.Entries, entry)
			result.Blocks++
		}
	}
	result.Fingerprint = crc
	return result, nil
}

func warnTrailing(r *sector.ImageReader) {
	if n := r.TrailingBytes(); n > 0 {
		common.LogWarn(common.WarnTrailingBytes, n)
	}
}

func rwLabel(c subchannel.RWClass) string {
	switch {
	case c.CDText:
		return "cd-text"
	case c.Packet:
		return "packet"
	case c.Zero:
		return ""
	default:
		return "data"
	}
}

// ExportScan writes a scan result as YAML.
func ExportScan(path string, result *ScanResult) error {
	if err := writeYAML(path, result); err != nil {
		return err
	}
	common.LogInfo(common.InfoReportWritten, path)
	return nil
}
