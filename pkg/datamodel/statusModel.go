package datamodel

// CompletionStatus tracks how far a record has progressed. Completed is
// terminal: no transition ever leaves it.
type CompletionStatus string

const (
	// StatusDraft means the record exists but nothing has been answered yet
	StatusDraft CompletionStatus = "Draft"

	// StatusInProgress means at least one field counts as answered
	StatusInProgress CompletionStatus = "InProgress"

	// StatusCompleted means the record was submitted, or the linked workflow
	// was externally marked complete
	StatusCompleted CompletionStatus = "Completed"
)

// NextCompletionStatus derives the status for a freshly computed percentage.
// A record that already reached Completed stays there regardless of input.
func NextCompletionStatus(current CompletionStatus, percentage int) CompletionStatus {
	if current == StatusCompleted {
		return StatusCompleted
	}
	if percentage > 0 {
		return StatusInProgress
	}
	return StatusDraft
}

// CqsSyncStatus tracks the outcome of the last snapshot pull. It is
// re-enterable on every sync call and independent of submission state.
type CqsSyncStatus string

const (
	// CqsNotSynced means no pull has been attempted yet
	CqsNotSynced CqsSyncStatus = "NotSynced"

	// CqsSynced means the last pull returned attributes which were snapshotted
	CqsSynced CqsSyncStatus = "Synced"

	// CqsNoData means the source answered but had no attributes for the material
	CqsNoData CqsSyncStatus = "NoData"

	// CqsFailed means the source was unreachable; reads continue degraded
	CqsFailed CqsSyncStatus = "Failed"
)

// WorkflowStateCompleted is the external workflow state the synchronizer
// advances to after a successful submission.
const WorkflowStateCompleted = "Completed"
