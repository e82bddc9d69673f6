package pkg

import (
	"github.com/hansbonini/discfix/pkg/common"
	"github.com/hansbonini/discfix/pkg/subchannel"
)

// FixReport is the YAML document written after a subchannel repair run.
type FixReport struct {
	Input   string              `yaml:"input"`
	Output  string              `yaml:"output"`
	Start   int64               `yaml:"start"`
	Stats   subchannel.Stats    `yaml:"stats"`
	Dropped int64               `yaml:"dropped"`
	Repairs *subchannel.Report  `yaml:"repairs"`
	Missing []subchannel.Extent `yaml:"missing,omitempty"`
	Layout  *Layout             `yaml:"layout,omitempty"`
}

// WriteReport writes the report as YAML.
func WriteReport(path string, report *FixReport) error {
	if err := writeYAML(path, report); err != nil {
		return common.FormatError(common.ErrFailedToWriteReport, err)
	}
	common.LogInfo(common.InfoReportWritten, path)
	return nil
}
