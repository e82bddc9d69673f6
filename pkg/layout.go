// Package pkg provides the file-level processors behind the discfix commands.
// This file contains the YAML track layout read before and written after a
// subchannel repair run.
package pkg

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/hansbonini/discfix/pkg/common"
	"github.com/hansbonini/discfix/pkg/subchannel"
)

// Layout is the track table of a disc together with its identifiers.
type Layout struct {
	MCN    string             `yaml:"mcn,omitempty"`
	Tracks []subchannel.Track `yaml:"tracks"`
	ISRCs  map[uint8]string   `yaml:"isrcs,omitempty"`
}

// LoadLayout reads a layout from a YAML file.
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToLoadLayout, err)
	}

	var layout Layout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, common.FormatError(common.ErrFailedToLoadLayout, err)
	}
	if err := layout.validate(); err != nil {
		return nil, common.FormatError(common.ErrFailedToLoadLayout, err)
	}
	return &layout, nil
}

// validate sorts tracks by sequence and rejects overlapping or inverted ones.
func (l *Layout) validate() error {
	sort.Slice(l.Tracks, func(i, j int) bool { return l.Tracks[i].Sequence < l.Tracks[j].Sequence })
	for i, t := range l.Tracks {
		if t.EndSector < t.StartSector {
			return fmt.Errorf("track %d ends at %d before it starts at %d", t.Sequence, t.EndSector, t.StartSector)
		}
		if i > 0 && t.StartSector <= l.Tracks[i-1].EndSector {
			return fmt.Errorf("track %d overlaps track %d", t.Sequence, l.Tracks[i-1].Sequence)
		}
	}
	return nil
}

// Session returns a repair session seeded with the layout. Identifiers
// already known are carried over so changes are reported.
func (l *Layout) Session() *subchannel.Session {
	tracks := append([]subchannel.Track(nil), l.Tracks...)
	s := subchannel.NewSession(tracks)
	s.MCN = l.MCN
	for track, isrc := range l.ISRCs {
		s.ISRCs[track] = isrc
	}
	return s
}

// LayoutFromSession captures the state of s after a run.
func LayoutFromSession(s *subchannel.Session) *Layout {
	layout := &Layout{
		MCN:    s.MCN,
		Tracks: append([]subchannel.Track(nil), s.Tracks...),
	}
	if len(s.ISRCs) > 0 {
		layout.ISRCs = make(map[uint8]string, len(s.ISRCs))
		for track, isrc := range s.ISRCs {
			layout.ISRCs[track] = isrc
		}
	}
	return layout
}

// Save writes the layout as YAML.
func (l *Layout) Save(path string) error {
	if err := writeYAML(path, l); err != nil {
		return err
	}
	common.LogInfo(common.InfoLayoutWritten, path)
	return nil
}

// writeYAML encodes v into a new file at path with two-space indentation.
func writeYAML(path string, v interface{}) error {
	file, err := os.Create(path)
	if err != nil {
		return common.FormatError(common.ErrFailedToCreateOutputFile, err)
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}
