package transform

import "brandify/internal/agent"

// Phase is the lifecycle stage of a transform session.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseUploading  Phase = "uploading"
	PhaseInvoking   Phase = "invoking"
	PhaseExtracting Phase = "extracting"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// Active reports whether a pipeline run is in flight.
func (p Phase) Active() bool {
	return p == PhaseUploading || p == PhaseInvoking || p == PhaseExtracting
}

// Terminal reports whether the session finished, successfully or not.
func (p Phase) Terminal() bool {
	return p == PhaseSucceeded || p == PhaseFailed
}

// SourceAsset is the user-selected image staged for transformation. The
// bytes live in the staging store under StorageKey so a manual retry
// reuses the same asset without re-reading the original request.
type SourceAsset struct {
	Name       string
	MIME       string
	Size       int64
	StorageKey string
}

// Snapshot is the read-only projection of a session handed to the
// presentation layer.
type Snapshot struct {
	SessionID  string                       `json:"session_id"`
	Phase      Phase                        `json:"phase"`
	Progress   string                       `json:"progress,omitempty"`
	SourceName string                       `json:"source_name,omitempty"`
	ImageURL   string                       `json:"image_url,omitempty"`
	Details    *agent.TransformationDetails `json:"details,omitempty"`
	ErrorKind  ErrorKind                    `json:"error_kind,omitempty"`
	Error      string                       `json:"error,omitempty"`
}
