package domain

import "time"

// ValueSource distinguishes live service data from synthetic emergency data.
type ValueSource string

const (
	SourceLive      ValueSource = "live"
	SourceEmergency ValueSource = "emergency"
)

// Attempt records one try against one candidate service.
type Attempt struct {
	Category  OperationCategory `json:"category"`
	Level     FallbackLevel     `json:"level"`
	ServiceID string            `json:"service_id"`
	Success   bool              `json:"success"`
	Latency   time.Duration     `json:"latency"`
	Error     string            `json:"error,omitempty"`
	ErrorKind ErrorKind         `json:"error_kind,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// ExecutionResult is the structured outcome of one orchestrated call.
// Callers must branch on Success; Degraded separates "worked as preferred"
// from "worked via fallback". It is never nil and never panics the caller.
type ExecutionResult struct {
	ID                 string            `json:"id"`
	Category           OperationCategory `json:"category"`
	Success            bool              `json:"success"`
	Value              any               `json:"value,omitempty"`
	Source             ValueSource       `json:"source"`
	LevelUsed          FallbackLevel     `json:"level_used"`
	ServiceUsed        string            `json:"service_used,omitempty"`
	Attempts           []Attempt         `json:"attempts"`
	TotalAttempts      int               `json:"total_attempts"`
	TotalLatency       time.Duration     `json:"total_latency"`
	Degraded           bool              `json:"degraded"`
	FromEmergencyCache bool              `json:"from_emergency_cache"`
	ErrorMessage       string            `json:"error_message,omitempty"`
	ErrorKind          ErrorKind         `json:"error_kind,omitempty"`
}
