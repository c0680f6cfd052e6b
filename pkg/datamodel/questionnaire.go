package datamodel

import (
	"time"
)

// QuestionOwner identifies which side is responsible for answering a question
type QuestionOwner string

const (
	// OwnerCQS means the answer is auto-populated from the external safety-data source
	OwnerCQS QuestionOwner = "CQS"

	// OwnerPlant means the answer is filled in manually by plant staff
	OwnerPlant QuestionOwner = "Plant"

	// OwnerNone means nobody is responsible; the question is skipped during rendering
	OwnerNone QuestionOwner = "None"

	// OwnerDisplay means the entry is display-only and never counted
	OwnerDisplay QuestionOwner = "Display"
)

// QuestionTemplate is a single catalog entry. The catalog is static per deployment.
// FieldName is the stable identity used everywhere downstream.
type QuestionTemplate struct {
	FieldName    string         `yaml:"fieldName"`
	Label        string         `yaml:"label"`
	StepNumber   int            `yaml:"stepNumber"`
	OrderIndex   int            `yaml:"orderIndex"`
	SerialNumber int            `yaml:"serialNumber"`
	Category     string         `yaml:"category"`
	Owner        QuestionOwner  `yaml:"owner"`
	QuestionType string         `yaml:"questionType"`
	Required     bool           `yaml:"required"`
	Options      []string       `yaml:"options,omitempty"`
	HelpText     string         `yaml:"helpText,omitempty"`
	Validation   string         `yaml:"validation,omitempty"`
	DependsOn    string         `yaml:"dependsOn,omitempty"`
	Active       bool           `yaml:"active"`
	FieldID      *FieldIdentity `yaml:"-"`
}

// EffectiveOrder returns the explicit order index, falling back to the serial number
func (q *QuestionTemplate) EffectiveOrder() int {
	if q.OrderIndex > 0 {
		return q.OrderIndex
	}
	return q.SerialNumber
}

// CqsAttributeSet is the per-material attribute map pulled from the external
// safety-data source. It is owned and mutated only by that source.
type CqsAttributeSet map[string]string

// CompletionCounters are derived per record on every recompute and fully
// overwrite the previously persisted values.
type CompletionCounters struct {
	Total             int
	Completed         int
	Required          int
	CompletedRequired int
	Percentage        int
}

// PlantResponseRecord is the questionnaire state of one (plantCode, materialCode)
// pair. Created lazily on first touch, finalized by submission, never hard-deleted.
type PlantResponseRecord struct {
	PlantCode    string
	MaterialCode string

	// CqsSnapshot holds the attribute values captured at last sync
	CqsSnapshot CqsAttributeSet

	// ManualInputs is a flat mapping from field name to the value entered by
	// plant staff. Values are string, float64, bool or []interface{} after
	// JSON decoding.
	ManualInputs map[string]interface{}

	Counters         CompletionCounters
	CompletionStatus CompletionStatus
	CqsSyncStatus    CqsSyncStatus
	CqsSyncedAt      *time.Time

	SubmittedAt *time.Time
	SubmittedBy string

	WorkflowID string

	// Version is an optimistic counter checked on every write
	Version int
}

// IsSubmitted reports whether the record has been finalized. Once submitted the
// answers are immutable and the percentage is fixed at 100.
func (r *PlantResponseRecord) IsSubmitted() bool {
	return r.SubmittedAt != nil
}

// FieldDescriptor is a rendered template entry with its resolved value. It is
// derived fresh on every render and never persisted.
type FieldDescriptor struct {
	Template  *QuestionTemplate
	Value     interface{}
	Completed bool
	Disabled  bool
}

// TemplateStep groups the rendered fields of one step, in display order
type TemplateStep struct {
	StepNumber int
	Fields     []FieldDescriptor
}

// Workflow is the engine's view of the external workflow aggregate. Only the
// identity and state are relevant here.
type Workflow struct {
	ID           string
	PlantCode    string
	MaterialCode string
	State        string
}
