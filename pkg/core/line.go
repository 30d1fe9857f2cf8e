package core

// LogLine is a single line received from a log stream. The payload is
// opaque: lines are never parsed, deduplicated, or reordered.
type LogLine struct {
	SourceID string `json:"source_id"`
	TsUnixMs int64  `json:"ts_unix_ms"`
	Line     string `json:"line"`
}
