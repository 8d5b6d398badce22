package models

import "time"

// Verdict values reported in LogEntry.Verdict and the X-Moderation-Verdict header.
const (
	VerdictClean    = "clean"
	VerdictFlagged  = "flagged"
	VerdictNotReady = "not_ready"
)

// LogEntry is one request log record shipped to Kafka and indexed by logkeeper.
// It never carries the moderated text.
type LogEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	IP         string    `json:"ip"`
	StatusCode int       `json:"status_code"`
	RequestID  string    `json:"request_id"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Duration   float64   `json:"duration_sec"`
	Bytes      int       `json:"bytes"`
	Service    string    `json:"service"`
	Verdict    string    `json:"verdict,omitempty"`
}
