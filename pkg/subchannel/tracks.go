package subchannel

import (
	"sort"

	"github.com/hansbonini/discfix/pkg/common"
)

// Track is one entry of the disc's track table.
type Track struct {
	Sequence    uint8 `yaml:"sequence"`
	Pregap      int64 `yaml:"pregap"`
	StartSector int64 `yaml:"start_sector"`
	EndSector   int64 `yaml:"end_sector"`
}

// Extent is an inclusive run of sector addresses.
type Extent struct {
	Start int64 `yaml:"start"`
	End   int64 `yaml:"end"`
}

// ExtentSet is a set of sector addresses kept as sorted, non-touching runs.
type ExtentSet struct {
	runs []Extent
}

// NewExtentSet returns a set holding [start, end]. An empty set is returned
// when end < start.
func NewExtentSet(start, end int64) *ExtentSet {
	s := &ExtentSet{}
	s.AddRange(start, end)
	return s
}

// search returns the index of the first run ending at or after n.
func (s *ExtentSet) search(n int64) int {
	return sort.Search(len(s.runs), func(i int) bool { return s.runs[i].End >= n })
}

// Add inserts a single address.
func (s *ExtentSet) Add(n int64) { s.AddRange(n, n) }

// AddRange inserts every address in [start, end].
func (s *ExtentSet) AddRange(start, end int64) {
	if end < start {
		return
	}
	// Runs that overlap or touch [start, end] are merged into it.
	lo := s.search(start - 1)
	hi := lo
	for hi < len(s.runs) && s.runs[hi].Start <= end+1 {
		start = min(start, s.runs[hi].Start)
		end = max(end, s.runs[hi].End)
		hi++
	}
	merged := Extent{Start: start, End: end}
	s.runs = append(s.runs[:lo], append([]Extent{merged}, s.runs[hi:]...)...)
}

// Remove deletes n from the set and reports whether it was present.
func (s *ExtentSet) Remove(n int64) bool {
	i := s.search(n)
	if i == len(s.runs) || s.runs[i].Start > n {
		return false
	}
	run := s.runs[i]
	switch {
	case run.Start == n && run.End == n:
		s.runs = append(s.runs[:i], s.runs[i+1:]...)
	case run.Start == n:
		s.runs[i].Start++
	case run.End == n:
		s.runs[i].End--
	default:
		s.runs[i].End = n - 1
		tail := Extent{Start: n + 1, End: run.End}
		s.runs = append(s.runs[:i+1], append([]Extent{tail}, s.runs[i+1:]...)...)
	}
	return true
}

// Contains reports whether n is in the set.
func (s *ExtentSet) Contains(n int64) bool {
	i := s.search(n)
	return i < len(s.runs) && s.runs[i].Start <= n
}

// Len returns the number of addresses in the set.
func (s *ExtentSet) Len() int64 {
	var total int64
	for _, run := range s.runs {
		total += run.End - run.Start + 1
	}
	return total
}

// Ranges returns a copy of the runs in ascending order.
func (s *ExtentSet) Ranges() []Extent {
	return append([]Extent(nil), s.runs...)
}

// Session is the state a dump carries between passes: the track table, the
// identifiers seen so far and the addresses still lacking subchannel.
type Session struct {
	Tracks  []Track
	ISRCs   map[uint8]string
	MCN     string
	Missing *ExtentSet
}

// NewSession returns a session over tracks with every address from the first
// track's start to the last track's end marked missing.
func NewSession(tracks []Track) *Session {
	s := &Session{
		Tracks:  tracks,
		ISRCs:   make(map[uint8]string),
		Missing: &ExtentSet{},
	}
	if len(tracks) > 0 {
		s.Missing.AddRange(tracks[0].StartSector, tracks[len(tracks)-1].EndSector)
	}
	return s
}

// TrackAt returns the sequence number of the track containing lba, or 0.
func (s *Session) TrackAt(lba int64) uint8 {
	for _, t := range s.Tracks {
		if lba >= t.StartSector && lba <= t.EndSector {
			return t.Sequence
		}
	}
	return 0
}

// collect records the identifiers in a valid MCN or ISRC frame.
func (s *Session) collect(q Q, currentTrack uint8) {
	if !q.CRCValid() {
		return
	}
	switch q.ADR() {
	case ADRISRC:
		isrc := DecodeISRC(q)
		if isrc == "" {
			return
		}
		if s.ISRCs == nil {
			s.ISRCs = make(map[uint8]string)
		}
		old, known := s.ISRCs[currentTrack]
		switch {
		case !known:
			common.LogInfo(common.InfoFoundNewISRC, isrc, currentTrack)
		case old != isrc:
			common.LogInfo(common.InfoISRCChanged, currentTrack, old, isrc)
		}
		s.ISRCs[currentTrack] = isrc
	case ADRMCN:
		mcn := DecodeMCN(q)
		if mcn == "" {
			return
		}
		switch {
		case s.MCN == "":
			common.LogInfo(common.InfoFoundNewMCN, mcn)
		case s.MCN != mcn:
			common.LogInfo(common.InfoMCNChanged, s.MCN, mcn)
		}
		s.MCN = mcn
	}
}

// reconcilePregap grows a track's pregap from a valid index 0 position frame
// and reports whether the track table changed. Track 1 is left alone.
func (s *Session) reconcilePregap(q Q) bool {
	if q.ADR() != ADRPosition || q[2] != 0 || !q.CRCValid() {
		return false
	}
	trackNo := common.FromBCD(q[1])
	if trackNo == 1 {
		return false
	}
	pregap := q.relativeFrames() + 1
	for i := range s.Tracks {
		t := &s.Tracks[i]
		if t.Sequence != trackNo || t.Pregap >= pregap {
			continue
		}
		t.StartSector -= pregap - t.Pregap
		t.Pregap = pregap
		if i > 0 {
			s.Tracks[i-1].EndSector = t.StartSector - 1
		}
		common.LogInfo(common.InfoPregapSet, trackNo, pregap)
		return true
	}
	return false
}
