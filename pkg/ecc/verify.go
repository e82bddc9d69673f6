package ecc

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/hansbonini/discfix/pkg/sector"
)

// BatchSectors is how many sectors one verification task reads at once.
const BatchSectors = 256

// Failure identifies a sector that did not verify.
type Failure struct {
	LBA    int64            `yaml:"lba"`
	Type   sector.TrackType `yaml:"type"`
	Status Status           `yaml:"status"`
}

// Summary aggregates the result of VerifySectors.
type Summary struct {
	Sectors  int64
	Counts   map[Status]int64
	Types    map[sector.TrackType]int64
	Failures []Failure // first failing sectors in LBA order
	Failed   int64
}

// VerifyOptions tunes VerifySectors.
type VerifyOptions struct {
	StartLBA    int64 // LBA of the first sector in the image
	Workers     int   // concurrent readers, GOMAXPROCS when zero
	MaxFailures int   // Failures entries kept, all when zero
}

// VerifySectors checks count raw sectors of r in parallel batches. Results
// do not depend on the number of workers.
func VerifySectors(ctx context.Context, r io.ReaderAt, count int64, opts VerifyOptions) (Summary, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Check, count)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for first := int64(0); first < count; first += BatchSectors {
		first := first
		n := min(int64(BatchSectors), count-first)
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			buf := make([]byte, n*sector.CD_SECTOR_SIZE)
			if _, err := r.ReadAt(buf, first*sector.CD_SECTOR_SIZE); err != nil && err != io.EOF {
				return fmt.Errorf("reading sectors %d-%d: %w", first, first+n-1, err)
			}
			for i := int64(0); i < n; i++ {
				check, err := CheckSector(buf[i*sector.CD_SECTOR_SIZE : (i+1)*sector.CD_SECTOR_SIZE])
				if err != nil {
					return err
				}
				results[first+i] = check
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Sectors: count,
		Counts:  make(map[Status]int64),
		Types:   make(map[sector.TrackType]int64),
	}
	for i, check := range results {
		summary.Counts[check.Status]++
		summary.Types[check.Type]++
		if check.Status.Valid() {
			continue
		}
		summary.Failed++
		if opts.MaxFailures == 0 || len(summary.Failures) < opts.MaxFailures {
			summary.Failures = append(summary.Failures, Failure{
				LBA:    opts.StartLBA + int64(i),
				Type:   check.Type,
				Status: check.Status,
			})
		}
	}
	return summary, nil
}

// Statuses returns the statuses present in the summary in declaration order.
func (s Summary) Statuses() []Status {
	out := make([]Status, 0, len(s.Counts))
	for status := range s.Counts {
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
