package models

import "time"

// ValidationResult is the typed outcome of a completion validation. An invalid
// questionnaire is a normal business answer, not an error.
type ValidationResult struct {
	Valid                 bool     `json:"valid"`
	Message               string   `json:"message,omitempty"`
	MissingRequiredFields []string `json:"missingRequiredFields,omitempty"`
	CompletionPercentage  int      `json:"completionPercentage"`
}

// Workflow sync outcomes carried on a submission result
const (
	WorkflowSyncAdvanced = "Advanced"
	WorkflowSyncDegraded = "Degraded"
	WorkflowSyncSkipped  = "Skipped"
)

// SubmitRequest names the acting user for the audit trail
type SubmitRequest struct {
	SubmittedBy string `json:"submittedBy" binding:"required"`
}

// SubmissionResult is the typed outcome of a submit call. Duplicate carries the
// prior submission metadata instead of failing.
type SubmissionResult struct {
	Submitted   bool       `json:"submitted"`
	Duplicate   bool       `json:"duplicate"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	SubmittedBy string     `json:"submittedBy,omitempty"`

	Validation *ValidationResult `json:"validation,omitempty"`

	// WorkflowSync reports the best-effort advancement outcome; Degraded never
	// invalidates the submission itself
	WorkflowSync        string `json:"workflowSync,omitempty"`
	WorkflowSyncMessage string `json:"workflowSyncMessage,omitempty"`
}

// WorkflowRepairResponse is the outcome of the administrative reconciliation
type WorkflowRepairResponse struct {
	Repaired bool   `json:"repaired"`
	Message  string `json:"message,omitempty"`
	State    string `json:"state,omitempty"`
}
