package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/material-compliance-hub/material-compliance-hub/pkg/datamodel"
)

func TestComputeCountersScenarioTenFields(t *testing.T) {
	repository, _, _ := setupEngine(t, 50)
	record := existingRecord(repository, "0001", "MAT-1")

	// both CQS-owned required fields resolvable
	record.CqsSnapshot = datamodel.CqsAttributeSet{
		"hazard_class": "yes",
		"flammable":    "no",
	}
	// three of the plant-owned fields filled, among them both required ones
	record.ManualInputs = map[string]interface{}{
		"flash_point_21":   true,
		"storage_location": "Hall 3",
		"container_type":   "drum",
	}

	counters := ComputeCounters(record)
	assert.Equal(t, 10, counters.Total)
	assert.Equal(t, 5, counters.Completed)
	assert.Equal(t, 4, counters.Required)
	assert.Equal(t, 4, counters.CompletedRequired)
	assert.Equal(t, 50, counters.Percentage)

	// validation passes iff the threshold is at most the percentage
	validation := validateRecord(record)
	assert.True(t, validation.Valid)
	assert.Empty(t, validation.MissingRequiredFields)

	submissionThreshold = 51
	validation = validateRecord(record)
	assert.False(t, validation.Valid)
}

func TestComputeCountersIdempotent(t *testing.T) {
	repository, _, _ := setupEngine(t, 80)
	record := existingRecord(repository, "0001", "MAT-1")
	record.CqsSnapshot = datamodel.CqsAttributeSet{"hazard_class": "yes"}
	record.ManualInputs = map[string]interface{}{"container_type": "drum"}

	first := ComputeCounters(record)
	second := ComputeCounters(record)
	assert.Equal(t, first, second)
}

func TestCounterInvariants(t *testing.T) {
	repository, _, _ := setupEngine(t, 80)

	inputSets := []map[string]interface{}{
		{},
		{"container_type": "drum"},
		{"flash_point_21": true, "storage_location": "Hall 1", "handling_notes": "n", "ppe_required": []interface{}{"gloves"}},
		{"flash_point_21": "null", "storage_location": "  "},
	}
	snapshots := []datamodel.CqsAttributeSet{
		{},
		{"hazard_class": "yes"},
		{"hazard_class": "bogus", "flammable": "n/a"},
	}

	for _, inputs := range inputSets {
		for _, snapshot := range snapshots {
			record := existingRecord(repository, "0001", "MAT-1")
			record.ManualInputs = inputs
			record.CqsSnapshot = snapshot

			counters := ComputeCounters(record)
			assert.LessOrEqual(t, counters.Completed, counters.Total)
			assert.LessOrEqual(t, counters.CompletedRequired, counters.Required)
			assert.LessOrEqual(t, counters.Required, counters.Total)
			assert.GreaterOrEqual(t, counters.Percentage, 0)
			assert.LessOrEqual(t, counters.Percentage, 100)
		}
	}
}

func TestCqsRequiredFieldCompleteWithoutManualInputs(t *testing.T) {
	repository, _, _ := setupEngine(t, 80)
	record := existingRecord(repository, "0001", "MAT-1")
	record.CqsSnapshot = datamodel.CqsAttributeSet{"hazard_class": "true"}

	counters := ComputeCounters(record)
	assert.Equal(t, 1, counters.Completed)
	assert.Equal(t, 1, counters.CompletedRequired)
}

func TestCqsUnresolvedFieldCompletesViaManualFallback(t *testing.T) {
	repository, _, _ := setupEngine(t, 80)
	record := existingRecord(repository, "0001", "MAT-1")

	// no CQS value at all: incomplete
	counters := ComputeCounters(record)
	assert.Equal(t, 0, counters.Completed)

	// unparseable CQS value: still incomplete
	record.CqsSnapshot = datamodel.CqsAttributeSet{"hazard_class": "unknown"}
	counters = ComputeCounters(record)
	assert.Equal(t, 0, counters.Completed)

	// any non-empty manual input under a matching key completes the field
	record.ManualInputs = map[string]interface{}{"hazardClass": "Class 3"}
	counters = ComputeCounters(record)
	assert.Equal(t, 1, counters.Completed)
	assert.Equal(t, 1, counters.CompletedRequired)
}

func TestSnakeCaseInputCountsComplete(t *testing.T) {
	repository, _, _ := setupEngine(t, 80)
	record := existingRecord(repository, "0001", "MAT-1")

	// template field flash_point_21, input saved under flashPoint21
	record.ManualInputs = map[string]interface{}{"flashPoint21": "yes"}

	counters := ComputeCounters(record)
	assert.Equal(t, 1, counters.Completed)
	assert.Equal(t, 1, counters.CompletedRequired)
}

func TestRecalculatePersistsAndIsIdempotent(t *testing.T) {
	repository, _, _ := setupEngine(t, 80)
	record := existingRecord(repository, "0001", "MAT-1")
	record.ManualInputs = map[string]interface{}{"container_type": "drum"}

	counters, err := Recalculate(context.Background(), "MAT-1", "0001")
	require.NoError(t, err)
	assert.Equal(t, 10, counters.Total)
	assert.Equal(t, 1, counters.Completed)
	assert.Equal(t, 10, counters.Percentage)
	assert.Equal(t, 1, repository.updateCalls)

	stored, _ := repository.GetRecord(context.Background(), "0001", "MAT-1")
	assert.Equal(t, datamodel.StatusInProgress, stored.CompletionStatus)

	// unchanged inputs: identical counters, no second write
	again, err := Recalculate(context.Background(), "MAT-1", "0001")
	require.NoError(t, err)
	assert.Equal(t, counters, again)
	assert.Equal(t, 1, repository.updateCalls)
}

func TestRecalculateNotFound(t *testing.T) {
	setupEngine(t, 80)

	_, err := Recalculate(context.Background(), "MAT-1", "0001")
	assert.ErrorIs(t, err, datamodel.ErrRecordNotFound)
}

func TestPercentageZeroWhenNoFields(t *testing.T) {
	repository, _, _ := setupEngine(t, 80)
	cat, err := datamodel.ParseCatalog([]byte(`
questions:
  - fieldName: note
    stepNumber: 1
    owner: Display
    questionType: header
    active: true
`))
	require.NoError(t, err)
	catalog = cat

	record := existingRecord(repository, "0001", "MAT-1")
	counters := ComputeCounters(record)
	assert.Equal(t, 0, counters.Total)
	assert.Equal(t, 0, counters.Percentage)
}
