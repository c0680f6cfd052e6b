package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/material-compliance-hub/material-compliance-hub/cmd/plantcompliance/v1/models"
	"github.com/material-compliance-hub/material-compliance-hub/internal"
	"github.com/material-compliance-hub/material-compliance-hub/pkg/datamodel"
)

// validateRecord recomputes completion from scratch and checks the submission
// gate: every required field answered and the percentage at or above the
// injected threshold. Persisted counters are never trusted here.
func validateRecord(record *datamodel.PlantResponseRecord) models.ValidationResult {
	var missing []string
	counters := datamodel.CompletionCounters{}

	for _, step := range resolveSteps(record) {
		for _, field := range step.Fields {
			counters.Total++
			if field.Completed {
				counters.Completed++
			}
			if field.Template.Required && !field.Completed {
				missing = append(missing, field.Template.FieldName)
			}
		}
	}

	percentage := 0
	if counters.Total > 0 {
		percentage = int(math.Round(float64(counters.Completed) / float64(counters.Total) * 100))
	}

	result := models.ValidationResult{
		CompletionPercentage: percentage,
	}

	switch {
	case len(missing) > 0:
		result.Message = fmt.Sprintf("%d required fields are not answered yet", len(missing))
		result.MissingRequiredFields = missing
	case percentage < submissionThreshold:
		result.Message = fmt.Sprintf("completion %d%% is below the submission threshold of %d%%", percentage, submissionThreshold)
	default:
		result.Valid = true
	}
	return result
}

// ValidateCompletion reports whether the questionnaire could be submitted now
func ValidateCompletion(ctx context.Context, plantCode string, materialCode string) (models.ValidationResult, error) {
	record, err := repo.GetRecord(ctx, plantCode, materialCode)
	if err != nil {
		return models.ValidationResult{}, err
	}

	if record.IsSubmitted() {
		return models.ValidationResult{Valid: true, CompletionPercentage: 100}, nil
	}
	return validateRecord(record), nil
}

// Submit finalizes the questionnaire. Duplicate submissions answer with the
// prior metadata, invalid ones with the validation outcome; both are normal
// business results. A successful submission forces the record to 100% /
// Completed regardless of the freshly computed percentage, persists that in
// one versioned write, and then advances the workflow best-effort.
func Submit(ctx context.Context, plantCode string, materialCode string, actor string) (models.SubmissionResult, error) {
	key := recordKey(plantCode, materialCode)
	if !recordMutex.TryLock(key) {
		return models.SubmissionResult{}, datamodel.ErrRecordBusy
	}
	defer recordMutex.Unlock(key)

	record, err := repo.GetRecord(ctx, plantCode, materialCode)
	if err != nil {
		return models.SubmissionResult{}, err
	}

	if record.IsSubmitted() {
		zap.S().Infof("Duplicate submission for plant %s material %s by %s",
			internal.SanitizeString(plantCode), internal.SanitizeString(materialCode), internal.SanitizeString(actor))
		return models.SubmissionResult{
			Duplicate:   true,
			SubmittedAt: record.SubmittedAt,
			SubmittedBy: record.SubmittedBy,
		}, nil
	}

	validation := validateRecord(record)
	if !validation.Valid {
		zap.S().Debugf("Submission rejected for plant %s material %s, missing %v",
			internal.SanitizeString(plantCode), internal.SanitizeString(materialCode),
			internal.SanitizeStringArray(validation.MissingRequiredFields))
		return models.SubmissionResult{Validation: &validation}, nil
	}

	now := time.Now().UTC()
	record.SubmittedAt = &now
	record.SubmittedBy = actor
	record.Counters = ComputeCounters(record)
	// submission is terminal: forced regardless of the computed percentage
	record.Counters.Percentage = 100
	record.CompletionStatus = datamodel.StatusCompleted

	err = repo.UpdateRecord(ctx, record)
	if err != nil {
		return models.SubmissionResult{}, err
	}
	invalidateStatus(plantCode, materialCode)

	result := models.SubmissionResult{
		Submitted:   true,
		SubmittedAt: record.SubmittedAt,
		SubmittedBy: record.SubmittedBy,
		Validation:  &validation,
	}

	// outside the consistency boundary: must never unwind the submission
	result.WorkflowSync, result.WorkflowSyncMessage = AdvanceOnSubmission(ctx, plantCode, materialCode, actor)

	return result, nil
}
