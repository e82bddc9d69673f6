// Package pkg provides the file-level processors behind the discfix commands.
// This file contains the ECC/EDC verification and rebuild processors working
// on raw 2352-byte sector images.
package pkg

import (
	"context"
	"errors"
	"io"

	"github.com/hansbonini/discfix/pkg/common"
	"github.com/hansbonini/discfix/pkg/ecc"
	"github.com/hansbonini/discfix/pkg/sector"
)

// ImageProcessor handles raw sector image operations (verify/rebuild)
type ImageProcessor struct {
	Workers     int
	MaxFailures int
}

// NewImageProcessor creates a new image processor instance
func NewImageProcessor(workers, maxFailures int) *ImageProcessor {
	return &ImageProcessor{Workers: workers, MaxFailures: maxFailures}
}

// Verify checks the EDC and ECC of every sector of a raw image.
func (p *ImageProcessor) Verify(ctx context.Context, input string, start int64) (ecc.Summary, error) {
	reader, err := sector.OpenImage(input)
	if err != nil {
		return ecc.Summary{}, common.FormatError(common.ErrFailedToOpenInput, err)
	}
	defer reader.Close()
	warnTrailing(reader)

	summary, err := ecc.VerifySectors(ctx, reader, reader.TotalSectors(), ecc.VerifyOptions{
		StartLBA:    start,
		Workers:     p.Workers,
		MaxFailures: p.MaxFailures,
	})
	if err != nil {
		return ecc.Summary{}, common.FormatError(common.ErrFailedToReadSector, err)
	}

	common.LogInfo(common.InfoSectorsVerified, summary.Sectors)
	for _, f := range summary.Failures {
		common.LogDebug(common.DebugSectorMismatch, f.LBA, f.Status)
	}
	if summary.Failed > 0 {
		common.LogWarn(common.WarnSectorsNotValid, summary.Failed)
	}
	return summary, nil
}

// Rebuild regenerates the sync, header and EDC/ECC of every sector in input
// as track type t and writes the result to output. User data is kept.
func (p *ImageProcessor) Rebuild(input, output string, t sector.TrackType, start int64) (int64, error) {
	reader, err := sector.OpenImage(input)
	if err != nil {
		return 0, common.FormatError(common.ErrFailedToOpenInput, err)
	}
	defer reader.Close()
	warnTrailing(reader)

	writer, err := sector.CreateImage(output, sector.CD_SECTOR_SIZE)
	if err != nil {
		return 0, common.FormatError(common.ErrFailedToCreateOutputFile, err)
	}
	defer writer.Close()

	const batch = ecc.BatchSectors
	var rebuilt int64
	for index := int64(0); index < reader.TotalSectors(); index += batch {
		data, err := reader.ReadSectors(index, batch)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return rebuilt, common.FormatError(common.ErrFailedToReadSector, err)
		}

		for i := 0; i < len(data)/sector.CD_SECTOR_SIZE; i++ {
			s := data[i*sector.CD_SECTOR_SIZE : (i+1)*sector.CD_SECTOR_SIZE]
			lba := start + index + int64(i)
			if err := ecc.ReconstructPrefix(s, t, lba); err != nil {
				return rebuilt, err
			}
			if err := ecc.ReconstructEcc(s, t); err != nil {
				return rebuilt, err
			}
			rebuilt++
		}

		if err := writer.WriteSector(index, data); err != nil {
			return rebuilt, common.FormatError(common.ErrFailedToWriteSector, err)
		}
	}

	common.LogInfo(common.InfoSectorsRebuilt, rebuilt, t)
	return rebuilt, nil
}
