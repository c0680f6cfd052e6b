package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/material-compliance-hub/material-compliance-hub/cmd/plantcompliance/v1/models"
	"github.com/material-compliance-hub/material-compliance-hub/internal"
	"github.com/material-compliance-hub/material-compliance-hub/pkg/datamodel"
)

// GetOrCreateRecord returns the record for the pair, lazily creating it linked
// to the given workflow on first touch. A fresh record gets an initial CQS pull
// and counter computation.
func GetOrCreateRecord(ctx context.Context, plantCode string, materialCode string, workflowID string) (models.CreateRecordResponse, error) {
	key := recordKey(plantCode, materialCode)
	if !recordMutex.TryLock(key) {
		return models.CreateRecordResponse{}, datamodel.ErrRecordBusy
	}
	defer recordMutex.Unlock(key)

	record, created, err := repo.GetOrCreateRecord(ctx, plantCode, materialCode, workflowID)
	if err != nil {
		return models.CreateRecordResponse{}, err
	}

	if created {
		zap.S().Infof("Created response record for plant %s material %s (workflow %s)",
			internal.SanitizeString(plantCode), internal.SanitizeString(materialCode), internal.SanitizeString(workflowID))

		SyncIfNeeded(ctx, record)
		applyCounters(record)
		err = repo.UpdateRecord(ctx, record)
		if err != nil {
			return models.CreateRecordResponse{}, err
		}
		invalidateStatus(plantCode, materialCode)
	}

	return models.CreateRecordResponse{
		PlantCode:    record.PlantCode,
		MaterialCode: record.MaterialCode,
		WorkflowID:   record.WorkflowID,
		Created:      created,
		Version:      record.Version,
	}, nil
}

// SaveManualInputs merges the given inputs into the record's manual-input
// mapping and recomputes completion. Submitted records are immutable.
func SaveManualInputs(ctx context.Context, plantCode string, materialCode string, inputs map[string]interface{}, actor string) (models.SaveInputsResponse, error) {
	key := recordKey(plantCode, materialCode)
	if !recordMutex.TryLock(key) {
		return models.SaveInputsResponse{}, datamodel.ErrRecordBusy
	}
	defer recordMutex.Unlock(key)

	record, err := repo.GetRecord(ctx, plantCode, materialCode)
	if err != nil {
		return models.SaveInputsResponse{}, err
	}
	if record.IsSubmitted() {
		return models.SaveInputsResponse{}, datamodel.ErrRecordSubmitted
	}

	if record.ManualInputs == nil {
		record.ManualInputs = make(map[string]interface{}, len(inputs))
	}
	for name, value := range inputs {
		record.ManualInputs[name] = value
	}

	applyCounters(record)
	err = repo.UpdateRecord(ctx, record)
	if err != nil {
		return models.SaveInputsResponse{}, err
	}
	invalidateStatus(plantCode, materialCode)

	zap.S().Debugf("Saved %d inputs for plant %s material %s by %s",
		len(inputs), internal.SanitizeString(plantCode), internal.SanitizeString(materialCode), internal.SanitizeString(actor))

	return models.SaveInputsResponse{
		Saved:    true,
		Counters: countersResponse(record.Counters),
	}, nil
}

func statusCacheKey(plantCode string, materialCode string) string {
	return fmt.Sprintf("status-%x", internal.AsXXHash([]byte(plantCode), []byte(materialCode)))
}

// invalidateStatus drops the cached dashboard answer for the pair. Every write
// path calls this so a status read never reports pre-write state.
func invalidateStatus(plantCode string, materialCode string) {
	internal.DeleteTiered(statusCacheKey(plantCode, materialCode))
}

// GetStatus is the dashboard read: existence, submission and submit readiness.
// Answers are cached briefly to bound the recompute-per-read cost of bulk reads.
func GetStatus(ctx context.Context, plantCode string, materialCode string) (models.StatusResponse, error) {
	cacheKey := statusCacheKey(plantCode, materialCode)
	if cached, value := internal.GetTiered(cacheKey); cached {
		if raw, ok := value.([]byte); ok {
			var status models.StatusResponse
			if json.Unmarshal(raw, &status) == nil {
				return status, nil
			}
		}
	}

	record, err := repo.GetRecord(ctx, plantCode, materialCode)
	if errors.Is(err, datamodel.ErrRecordNotFound) {
		return models.StatusResponse{Exists: false}, nil
	}
	if err != nil {
		return models.StatusResponse{}, err
	}

	validation := validateRecord(record)

	status := models.StatusResponse{
		Exists:      true,
		IsSubmitted: record.IsSubmitted(),
		IsReadOnly:  record.IsSubmitted(),
		Percentage:  validation.CompletionPercentage,
		CanSubmit:   validation.Valid && !record.IsSubmitted(),
		SubmittedAt: record.SubmittedAt,
		SubmittedBy: record.SubmittedBy,
	}
	if record.IsSubmitted() {
		status.Percentage = 100
	}

	if raw, marshalErr := json.Marshal(status); marshalErr == nil {
		internal.SetTieredShortTerm(cacheKey, raw)
	}
	return status, nil
}
