// Package state tracks what the code indexer is doing and whether its
// backends are healthy. A Manager is the single source of truth for the
// indexing lifecycle; the pipeline reports into it and the UI subscribes
// to its snapshots.
package state

import "time"

// IndexingState is the overall lifecycle state of the indexer.
type IndexingState string

const (
	StateStandby  IndexingState = "Standby"
	StateIndexing IndexingState = "Indexing"
	StateIndexed  IndexingState = "Indexed"
	StateError    IndexingState = "Error"
)

// VectorStatus is the status of the vector store backend.
type VectorStatus string

const (
	VectorIdle     VectorStatus = "idle"
	VectorIndexing VectorStatus = "indexing"
	VectorIndexed  VectorStatus = "indexed"
	VectorError    VectorStatus = "error"
)

// GraphStatus is the status of the optional graph store backend.
type GraphStatus string

const (
	GraphIdle              GraphStatus = "idle"
	GraphIndexing          GraphStatus = "indexing"
	GraphIndexed           GraphStatus = "indexed"
	GraphError             GraphStatus = "error"
	GraphDisabled          GraphStatus = "disabled"
	GraphConnectionFailed  GraphStatus = "connection-failed"
	GraphResourceExhausted GraphStatus = "resource-exhausted"
)

// IsFailure reports whether the graph status is one of the error-like values.
func (s GraphStatus) IsFailure() bool {
	switch s {
	case GraphError, GraphConnectionFailed, GraphResourceExhausted:
		return true
	default:
		return false
	}
}

// SystemHealth is derived from vector and graph status, never stored.
type SystemHealth string

const (
	HealthHealthy  SystemHealth = "healthy"
	HealthDegraded SystemHealth = "degraded"
	HealthFailed   SystemHealth = "failed"
)

// ErrorCategory classifies backend errors for UI messaging.
type ErrorCategory string

const (
	CategoryConnection     ErrorCategory = "connection"
	CategoryAuthentication ErrorCategory = "authentication"
	CategoryRateLimit      ErrorCategory = "rate-limit"
	CategoryConfiguration  ErrorCategory = "configuration"
	CategoryUnknown        ErrorCategory = "unknown"
)

// Item units for vector progress.
const (
	UnitBlocks = "blocks"
	UnitFiles  = "files"
)

// FileDiscoveryMetrics is the discovery funnel of the most recent scan.
// It is replaced wholesale on every report.
type FileDiscoveryMetrics struct {
	Discovered          int `json:"discovered"`
	FilteredByIgnore    int `json:"filteredByIgnore"`
	FilteredByExtension int `json:"filteredByExtension"`
	SkippedBySize       int `json:"skippedBySize"`
	SkippedByCache      int `json:"skippedByCache"`
	ActivelyIndexing    int `json:"activelyIndexing"`
}

// ErrorContext is the last failure recorded for one backend.
type ErrorContext struct {
	Message             string        `json:"message,omitempty"`
	Category            ErrorCategory `json:"category,omitempty"`
	RetrySuggestion     string        `json:"retrySuggestion,omitempty"`
	Timestamp           time.Time     `json:"timestamp,omitempty"`
	ConsecutiveFailures int           `json:"consecutiveFailures"`
}

// StatusSnapshot is the flat, serializable view delivered to subscribers.
type StatusSnapshot struct {
	SystemStatus    IndexingState `json:"systemStatus"`
	Message         string        `json:"message"`
	ProcessedItems  int           `json:"processedItems"`
	TotalItems      int           `json:"totalItems"`
	CurrentItemUnit string        `json:"currentItemUnit"`

	VectorStatus          VectorStatus  `json:"vectorStatus"`
	VectorMessage         string        `json:"vectorMessage,omitempty"`
	VectorError           string        `json:"vectorError,omitempty"`
	VectorErrorCategory   ErrorCategory `json:"vectorErrorCategory,omitempty"`
	VectorRetrySuggestion string        `json:"vectorRetrySuggestion,omitempty"`

	GraphStatus              GraphStatus   `json:"graphStatus"`
	GraphMessage             string        `json:"graphMessage,omitempty"`
	GraphProcessedItems      int           `json:"graphProcessedItems"`
	GraphTotalItems          int           `json:"graphTotalItems"`
	GraphError               string        `json:"graphError,omitempty"`
	GraphErrorCategory       ErrorCategory `json:"graphErrorCategory,omitempty"`
	GraphRetrySuggestion     string        `json:"graphRetrySuggestion,omitempty"`
	GraphErrorTimestamp      time.Time     `json:"graphErrorTimestamp,omitempty"`
	GraphConsecutiveFailures int           `json:"graphConsecutiveFailures"`

	SystemHealth  SystemHealth          `json:"systemHealth"`
	FileDiscovery *FileDiscoveryMetrics `json:"fileDiscovery,omitempty"`
}

// VectorComponent is the vector backend's part of ComponentStatus.
type VectorComponent struct {
	Status         VectorStatus `json:"status"`
	Message        string       `json:"message,omitempty"`
	ProcessedItems int          `json:"processedItems"`
	TotalItems     int          `json:"totalItems"`
	Unit           string       `json:"unit"`
	Error          ErrorContext `json:"error"`
}

// GraphComponent is the graph backend's part of ComponentStatus.
type GraphComponent struct {
	Status         GraphStatus  `json:"status"`
	Message        string       `json:"message,omitempty"`
	ProcessedItems int          `json:"processedItems"`
	TotalItems     int          `json:"totalItems"`
	Error          ErrorContext `json:"error"`
}

// SystemComponent is the overall part of ComponentStatus.
type SystemComponent struct {
	State   IndexingState `json:"state"`
	Health  SystemHealth  `json:"health"`
	Message string        `json:"message"`
}

// ComponentStatus is the same data as StatusSnapshot, nested per backend.
type ComponentStatus struct {
	Vector VectorComponent `json:"vector"`
	Graph  GraphComponent  `json:"graph"`
	System SystemComponent `json:"system"`
}
