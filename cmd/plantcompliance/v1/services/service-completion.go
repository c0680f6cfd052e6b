package services

import (
	"context"
	"math"

	"github.com/material-compliance-hub/material-compliance-hub/cmd/plantcompliance/v1/models"
	"github.com/material-compliance-hub/material-compliance-hub/pkg/datamodel"
)

// ComputeCounters derives the completion counters from the rendered template.
// Pure; repeated calls with unchanged inputs yield identical counters.
func ComputeCounters(record *datamodel.PlantResponseRecord) datamodel.CompletionCounters {
	var counters datamodel.CompletionCounters

	for _, step := range resolveSteps(record) {
		for _, field := range step.Fields {
			counters.Total++
			if field.Template.Required {
				counters.Required++
			}
			if field.Completed {
				counters.Completed++
				if field.Template.Required {
					counters.CompletedRequired++
				}
			}
		}
	}

	if counters.Total > 0 {
		counters.Percentage = int(math.Round(float64(counters.Completed) / float64(counters.Total) * 100))
	}
	return counters
}

// applyCounters overwrites the record's persisted counters wholesale and
// advances the completion status. A submitted record keeps percentage 100 and
// stays Completed no matter what the fresh computation says.
func applyCounters(record *datamodel.PlantResponseRecord) {
	record.Counters = ComputeCounters(record)
	if record.IsSubmitted() {
		record.Counters.Percentage = 100
		record.CompletionStatus = datamodel.StatusCompleted
		return
	}
	record.CompletionStatus = datamodel.NextCompletionStatus(record.CompletionStatus, record.Counters.Percentage)
}

// Recalculate recomputes the counters of an existing record and persists them
func Recalculate(ctx context.Context, materialCode string, plantCode string) (models.CountersResponse, error) {
	record, err := repo.GetRecord(ctx, plantCode, materialCode)
	if err != nil {
		return models.CountersResponse{}, err
	}

	previous := record.Counters
	previousStatus := record.CompletionStatus
	applyCounters(record)

	// only touch the row if something actually changed
	if record.Counters != previous || record.CompletionStatus != previousStatus {
		err = repo.UpdateRecord(ctx, record)
		if err != nil {
			return models.CountersResponse{}, err
		}
	}

	return countersResponse(record.Counters), nil
}

func countersResponse(counters datamodel.CompletionCounters) models.CountersResponse {
	return models.CountersResponse{
		Total:             counters.Total,
		Completed:         counters.Completed,
		Required:          counters.Required,
		CompletedRequired: counters.CompletedRequired,
		Percentage:        counters.Percentage,
	}
}
