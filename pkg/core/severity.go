package core

import "strings"

// Severity is a coarse, heuristic classification of a log line, used
// for display styling only.
type Severity int

const (
	SeverityDefault Severity = iota
	SeverityDebug
	SeverityInfo
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarn:
		return "warn"
	case SeverityInfo:
		return "info"
	case SeverityDebug:
		return "debug"
	default:
		return "default"
	}
}

// Keyword groups are checked highest severity first so that an error
// keyword is never masked by a co-occurring lower-severity keyword.
var severityKeywords = []struct {
	severity Severity
	words    []string
}{
	{SeverityError, []string{"error", "failed", "exception", "fatal", "panic", "critical"}},
	{SeverityWarn, []string{"warn", "warning", "deprecated"}},
	{SeverityInfo, []string{"info", "information", "success", "connected", "started", "stopped"}},
	{SeverityDebug, []string{"debug", "trace", "verbose"}},
}

// Classify maps a raw line to a severity. Matching is case-insensitive
// substring search, not word-boundary matching; unmatched lines get
// SeverityDefault.
func Classify(line string) Severity {
	l := strings.ToLower(line)
	for _, group := range severityKeywords {
		for _, w := range group.words {
			if strings.Contains(l, w) {
				return group.severity
			}
		}
	}
	return SeverityDefault
}
