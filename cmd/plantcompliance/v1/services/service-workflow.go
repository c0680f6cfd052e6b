package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/material-compliance-hub/material-compliance-hub/cmd/plantcompliance/v1/models"
	"github.com/material-compliance-hub/material-compliance-hub/internal"
	"github.com/material-compliance-hub/material-compliance-hub/pkg/datamodel"
)

// AdvanceOnSubmission moves the associated workflow to Completed after a
// successful submission. Strictly best-effort: every failure is reported as a
// degraded outcome and never propagates to the caller.
func AdvanceOnSubmission(ctx context.Context, plantCode string, materialCode string, actor string) (outcome string, message string) {
	workflow, err := locateWorkflow(ctx, plantCode, materialCode)
	if err != nil {
		zap.S().Warnf("Workflow lookup for plant %s material %s failed: %s",
			internal.SanitizeString(plantCode), internal.SanitizeString(materialCode), err)
		return models.WorkflowSyncDegraded, fmt.Sprintf("workflow lookup failed: %s", err)
	}
	if workflow == nil {
		zap.S().Warnf("No workflow found for plant %s material %s",
			internal.SanitizeString(plantCode), internal.SanitizeString(materialCode))
		return models.WorkflowSyncDegraded, "no associated workflow found"
	}

	permitted, err := workflowGateway.CanTransitionTo(ctx, workflow.ID, datamodel.WorkflowStateCompleted)
	if err != nil {
		return models.WorkflowSyncDegraded, fmt.Sprintf("workflow state check failed: %s", err)
	}
	if !permitted {
		zap.S().Infof("Workflow %s does not permit transition to %s, leaving it untouched",
			workflow.ID, datamodel.WorkflowStateCompleted)
		return models.WorkflowSyncSkipped, "workflow transition not permitted in current state"
	}

	err = workflowGateway.TransitionTo(ctx, workflow.ID, datamodel.WorkflowStateCompleted, actor)
	if err != nil {
		return models.WorkflowSyncDegraded, fmt.Sprintf("workflow transition failed: %s", err)
	}

	return models.WorkflowSyncAdvanced, ""
}

// locateWorkflow resolves the workflow through the ordered fallback chain:
// direct pair lookup, then the plant's workflows filtered by material, then
// the material's workflows filtered by plant. First match wins.
func locateWorkflow(ctx context.Context, plantCode string, materialCode string) (*datamodel.Workflow, error) {
	workflow, err := workflowGateway.FindByPlantAndMaterial(ctx, plantCode, materialCode)
	if err != nil {
		return nil, err
	}
	if workflow != nil {
		return workflow, nil
	}

	byPlant, err := workflowGateway.FindByPlant(ctx, plantCode)
	if err != nil {
		return nil, err
	}
	for i := range byPlant {
		if byPlant[i].MaterialCode == materialCode {
			return &byPlant[i], nil
		}
	}

	byMaterial, err := workflowGateway.FindByMaterial(ctx, materialCode)
	if err != nil {
		return nil, err
	}
	for i := range byMaterial {
		if byMaterial[i].PlantCode == plantCode {
			return &byMaterial[i], nil
		}
	}

	return nil, nil
}

// RepairWorkflowStatus is the administrative compensation for a degraded
// advancement: it re-runs the advance for an already-submitted record.
func RepairWorkflowStatus(ctx context.Context, plantCode string, materialCode string, actor string) (models.WorkflowRepairResponse, error) {
	record, err := repo.GetRecord(ctx, plantCode, materialCode)
	if err != nil {
		return models.WorkflowRepairResponse{}, err
	}
	if !record.IsSubmitted() {
		return models.WorkflowRepairResponse{
			Repaired: false,
			Message:  "record is not submitted, nothing to repair",
		}, nil
	}

	workflow, err := locateWorkflow(ctx, plantCode, materialCode)
	if err != nil {
		return models.WorkflowRepairResponse{}, err
	}
	if workflow == nil {
		return models.WorkflowRepairResponse{}, datamodel.ErrWorkflowNotFound
	}
	if workflow.State == datamodel.WorkflowStateCompleted {
		return models.WorkflowRepairResponse{
			Repaired: true,
			Message:  "workflow already complete",
			State:    workflow.State,
		}, nil
	}

	outcome, message := AdvanceOnSubmission(ctx, plantCode, materialCode, actor)
	response := models.WorkflowRepairResponse{
		Repaired: outcome == models.WorkflowSyncAdvanced,
		Message:  message,
		State:    workflow.State,
	}
	if response.Repaired {
		response.State = datamodel.WorkflowStateCompleted
	}
	return response, nil
}
