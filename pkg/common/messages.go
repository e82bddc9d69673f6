package common

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
)

// Global variable to control debug output
var VerboseMode bool = false

var logger = NewConsoleLogger(os.Stderr, LevelInfo, false)

// SetVerboseMode enables or disables verbose/debug output
func SetVerboseMode(verbose bool) {
	VerboseMode = verbose
}

// SetLogger replaces the logger behind the Log* helpers.
// A zero logr.Logger installs a discarding logger.
func SetLogger(l logr.Logger) {
	if l.GetSink() == nil {
		l = logr.Discard()
	}
	logger = l
}

// Logger returns the logger behind the Log* helpers.
func Logger() logr.Logger {
	return logger
}

// Error messages
const (
	ErrFailedToOpenInput        = "failed to open input file"
	ErrFailedToCreateOutputFile = "failed to create output file"
	ErrFailedToReadSubchannel   = "failed to read subchannel data"
	ErrFailedToWriteSubchannel  = "failed to write subchannel data"
	ErrFailedToReadSector       = "failed to read sector"
	ErrFailedToWriteSector      = "failed to write sector"
	ErrFailedToLoadLayout       = "failed to load track layout"
	ErrFailedToWriteReport      = "failed to write report"
	ErrFailedToLoadConfig       = "failed to load configuration"
)

// Info messages
const (
	InfoFoundNewISRC      = "Found new ISRC %s for track %d."
	InfoISRCChanged       = "ISRC for track %d changed from %s to %s."
	InfoFoundNewMCN       = "Found new MCN %s."
	InfoMCNChanged        = "MCN changed from %s to %s."
	InfoPregapSet         = "Pregap for track %d set to %d sectors."
	InfoSubchannelFixed   = "Subchannel processed: %d sectors written, %d fixes applied"
	InfoSectorsVerified   = "Verified %d sectors"
	InfoSectorsRebuilt    = "Rebuilt %d sectors as %s"
	InfoReportWritten     = "Report written to %s"
	InfoLayoutWritten     = "Updated layout written to %s"
	InfoMissingSubchannel = "%d sectors still lack valid subchannel data"
	InfoLayoutChanged     = "Track layout changed during the run"
)

// Debug messages
const (
	DebugPassStart      = "Processing pass at LBA %d (%d sectors)"
	DebugSectorSkipped  = "Skipping sector at LBA %d: position %d lies before the start of the medium"
	DebugBlockUnfixed   = "Q subchannel at LBA %d could not be repaired"
	DebugSectorMismatch = "Sector %d failed verification: %s"
)

// Warning messages
const (
	WarnTrailingBytes   = "Ignoring %d trailing bytes that do not form a whole block"
	WarnSectorsNotValid = "%d sectors failed ECC/EDC verification"
)

// LogInfo logs an informational message
func LogInfo(message string, args ...interface{}) {
	logger.Info(format(message, args...))
}

// LogWarn logs a warning message
func LogWarn(message string, args ...interface{}) {
	logger.Info(format(message, args...), severityKey, "warning")
}

// LogError logs an error message
func LogError(message string, args ...interface{}) {
	logger.Error(nil, format(message, args...))
}

// LogDebug logs a debug message (only if VerboseMode is enabled)
func LogDebug(message string, args ...interface{}) {
	if !VerboseMode {
		return
	}
	logger.V(LevelDebug).Info(format(message, args...))
}

func format(message string, args ...interface{}) string {
	if len(args) > 0 {
		return fmt.Sprintf(message, args...)
	}
	return message
}

// FormatError creates a formatted error with additional context
func FormatError(baseMessage string, details interface{}) error {
	if err, ok := details.(error); ok {
		return fmt.Errorf("%s: %w", baseMessage, err)
	}
	return fmt.Errorf("%s: %v", baseMessage, details)
}

// FormatErrorString creates a formatted error with string details
func FormatErrorString(baseMessage, details string, args ...interface{}) error {
	if len(args) > 0 {
		return fmt.Errorf("%s: "+details, append([]interface{}{baseMessage}, args...)...)
	}
	return fmt.Errorf("%s: %s", baseMessage, details)
}
