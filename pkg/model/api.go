package model

import "fmt"

// FieldError is a single validation failure at a dotted/bracketed path such as
// "spec.template.spec.containers[0].ports[0].containerPort".
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// String renders the error as "path: message".
func (e FieldError) String() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationResult is the outcome of structural validation.
type ValidationResult struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors"`
}

// ManifestRequest carries raw manifest text.
type ManifestRequest struct {
	YAML string `json:"yaml"`
}

// RenderResponse carries the YAML derived from a FormState.
type RenderResponse struct {
	YAML string `json:"yaml"`
}

// ValidateResponse is ValidationResult plus a display summary.
type ValidateResponse struct {
	ValidationResult
	Summary string `json:"summary,omitempty"`
}

// Sync stages reported by the editor.
const (
	StageParse    = "parse"
	StageValidate = "validate"
	StageSchema   = "schema"
	StageApplied  = "applied"
)

// SyncResult describes the outcome of pushing edited YAML into a session.
// On rejection State is the retained last-known-valid state.
type SyncResult struct {
	Accepted bool         `json:"accepted"`
	Stage    string       `json:"stage"`
	Message  string       `json:"message,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
	State    FormState    `json:"state"`
	YAML     string       `json:"yaml"`
}

// Session is the wire form of an editor session.
type Session struct {
	ID    string    `json:"id"`
	State FormState `json:"state"`
	YAML  string    `json:"yaml"`
}

// Apply actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ApplyResult reports what the cluster did with a submitted manifest.
type ApplyResult struct {
	Kind      string `json:"kind"`
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Action    string `json:"action"`
}

// Template is a starter manifest for one workload type.
type Template struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	YAML        string `json:"yaml"`
}

// LogOptions selects a container log stream.
type LogOptions struct {
	Namespace string `json:"namespace"`
	Pod       string `json:"pod"`
	Container string `json:"container,omitempty"`
	TailLines *int64 `json:"tail_lines,omitempty"`
	Follow    bool   `json:"follow,omitempty"`
}

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}
