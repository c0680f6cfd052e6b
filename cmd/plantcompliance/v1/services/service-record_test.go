package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/material-compliance-hub/material-compliance-hub/pkg/datamodel"
)

func TestGetOrCreateRecordCreatesAndSyncs(t *testing.T) {
	repository, cqs, _ := setupEngine(t, 80)
	cqs.attributes["MAT-1"] = datamodel.CqsAttributeSet{"hazard_class": "yes"}

	response, err := GetOrCreateRecord(context.Background(), "0001", "MAT-1", "wf-1")
	require.NoError(t, err)

	assert.True(t, response.Created)
	assert.Equal(t, "wf-1", response.WorkflowID)
	assert.Equal(t, 1, cqs.calls)

	stored, err := repository.GetRecord(context.Background(), "0001", "MAT-1")
	require.NoError(t, err)
	assert.Equal(t, datamodel.CqsSynced, stored.CqsSyncStatus)
	assert.Equal(t, 1, stored.Counters.Completed)
	assert.Equal(t, 10, stored.Counters.Percentage)
	assert.Equal(t, datamodel.StatusInProgress, stored.CompletionStatus)
}

func TestGetOrCreateRecordExistingIsUntouched(t *testing.T) {
	repository, cqs, _ := setupEngine(t, 80)
	existingRecord(repository, "0001", "MAT-1")

	response, err := GetOrCreateRecord(context.Background(), "0001", "MAT-1", "wf-other")
	require.NoError(t, err)

	assert.False(t, response.Created)
	assert.Equal(t, "wf-1", response.WorkflowID)
	assert.Equal(t, 0, cqs.calls)
	assert.Equal(t, 0, repository.updateCalls)
}

func TestSaveManualInputsMergesAndRecomputes(t *testing.T) {
	repository, _, _ := setupEngine(t, 80)
	record := existingRecord(repository, "0001", "MAT-1")
	record.ManualInputs = map[string]interface{}{"storage_location": "Hall 3"}

	response, err := SaveManualInputs(context.Background(), "0001", "MAT-1",
		map[string]interface{}{"flash_point_21": true, "container_type": "drum"}, "inspector")
	require.NoError(t, err)

	assert.True(t, response.Saved)
	assert.Equal(t, 3, response.Counters.Completed)
	assert.Equal(t, 30, response.Counters.Percentage)

	// previously saved inputs survive the merge
	stored, _ := repository.GetRecord(context.Background(), "0001", "MAT-1")
	assert.Equal(t, "Hall 3", stored.ManualInputs["storage_location"])
	assert.Equal(t, true, stored.ManualInputs["flash_point_21"])
}

func TestSaveManualInputsOverwritesSingleKey(t *testing.T) {
	repository, _, _ := setupEngine(t, 80)
	record := existingRecord(repository, "0001", "MAT-1")
	record.ManualInputs = map[string]interface{}{"storage_location": "Hall 3"}

	_, err := SaveManualInputs(context.Background(), "0001", "MAT-1",
		map[string]interface{}{"storage_location": "Hall 7"}, "inspector")
	require.NoError(t, err)

	stored, _ := repository.GetRecord(context.Background(), "0001", "MAT-1")
	assert.Equal(t, "Hall 7", stored.ManualInputs["storage_location"])
}

func TestSaveManualInputsRejectsSubmitted(t *testing.T) {
	repository, _, _ := setupEngine(t, 80)
	record := existingRecord(repository, "0001", "MAT-1")
	now := time.Now().UTC()
	record.SubmittedAt = &now

	_, err := SaveManualInputs(context.Background(), "0001", "MAT-1",
		map[string]interface{}{"storage_location": "Hall 3"}, "inspector")
	assert.ErrorIs(t, err, datamodel.ErrRecordSubmitted)
	assert.Equal(t, 0, repository.updateCalls)
}

func TestSaveManualInputsNotFound(t *testing.T) {
	setupEngine(t, 80)

	_, err := SaveManualInputs(context.Background(), "0001", "MAT-1",
		map[string]interface{}{"storage_location": "Hall 3"}, "inspector")
	assert.ErrorIs(t, err, datamodel.ErrRecordNotFound)
}

func TestGetStatusMissingRecord(t *testing.T) {
	setupEngine(t, 80)

	status, err := GetStatus(context.Background(), "0001", "MAT-1")
	require.NoError(t, err)
	assert.False(t, status.Exists)
	assert.False(t, status.CanSubmit)
}

func TestGetStatusDraft(t *testing.T) {
	repository, _, _ := setupEngine(t, 80)
	record := existingRecord(repository, "0001", "MAT-1")
	record.ManualInputs = map[string]interface{}{"storage_location": "Hall 3"}

	status, err := GetStatus(context.Background(), "0001", "MAT-1")
	require.NoError(t, err)
	assert.True(t, status.Exists)
	assert.False(t, status.IsSubmitted)
	assert.False(t, status.IsReadOnly)
	assert.Equal(t, 10, status.Percentage)
	assert.False(t, status.CanSubmit)
}

func TestGetStatusSubmitted(t *testing.T) {
	repository, _, _ := setupEngine(t, 80)
	record := existingRecord(repository, "0001", "MAT-2")
	now := time.Now().UTC()
	record.SubmittedAt = &now
	record.SubmittedBy = "inspector"

	status, err := GetStatus(context.Background(), "0001", "MAT-2")
	require.NoError(t, err)
	assert.True(t, status.IsSubmitted)
	assert.True(t, status.IsReadOnly)
	assert.False(t, status.CanSubmit)
	assert.Equal(t, 100, status.Percentage)
	assert.Equal(t, "inspector", status.SubmittedBy)
}

func TestGetStatusServedFromCache(t *testing.T) {
	repository, _, _ := setupEngine(t, 80)
	record := existingRecord(repository, "0001", "MAT-3")

	first, err := GetStatus(context.Background(), "0001", "MAT-3")
	require.NoError(t, err)

	// a direct mutation is invisible until the short-term entry expires
	record.ManualInputs = map[string]interface{}{"storage_location": "Hall 3"}
	second, err := GetStatus(context.Background(), "0001", "MAT-3")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGetStatusRefreshedAfterSave(t *testing.T) {
	repository, _, _ := setupEngine(t, 80)
	existingRecord(repository, "0001", "MAT-1")

	before, err := GetStatus(context.Background(), "0001", "MAT-1")
	require.NoError(t, err)
	assert.Equal(t, 0, before.Percentage)

	_, err = SaveManualInputs(context.Background(), "0001", "MAT-1",
		map[string]interface{}{"storage_location": "Hall 3"}, "clerk")
	require.NoError(t, err)

	// the write drops the cached answer, so the new percentage is visible at once
	after, err := GetStatus(context.Background(), "0001", "MAT-1")
	require.NoError(t, err)
	assert.Equal(t, 10, after.Percentage)
}

func TestSaveManualInputsLockedRecordConflicts(t *testing.T) {
	repository, _, _ := setupEngine(t, 80)
	existingRecord(repository, "0001", "MAT-1")

	key := recordKey("0001", "MAT-1")
	require.True(t, recordMutex.TryLock(key))
	defer recordMutex.Unlock(key)

	_, err := SaveManualInputs(context.Background(), "0001", "MAT-1",
		map[string]interface{}{"storage_location": "Hall 3"}, "clerk")
	assert.ErrorIs(t, err, datamodel.ErrRecordBusy)
	assert.Equal(t, 0, repository.updateCalls)
}
