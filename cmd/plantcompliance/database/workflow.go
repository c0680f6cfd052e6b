package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/material-compliance-hub/material-compliance-hub/pkg/datamodel"
	"go.uber.org/zap"
)

// Allowed transitions of the external questionnaire workflow. Completed is terminal.
var workflowTransitions = map[string][]string{
	"Created":    {"InProgress", datamodel.WorkflowStateCompleted},
	"InProgress": {datamodel.WorkflowStateCompleted},
	datamodel.WorkflowStateCompleted: {},
}

// FindByPlantAndMaterial returns the workflow directly keyed by the pair, or
// nil when none exists. Lookups are memoized in the ARC cache.
func (c *Connection) FindByPlantAndMaterial(ctx context.Context, plantCode string, materialCode string) (*datamodel.Workflow, error) {
	cacheKey := plantCode + "|" + materialCode
	if id, ok := c.workflowIdCache.Get(cacheKey); ok {
		workflow, err := c.getWorkflow(ctx, id.(string))
		if err == nil && workflow != nil {
			return workflow, nil
		}
		c.workflowIdCache.Remove(cacheKey)
	}

	sqlStatement := `SELECT id, plantCode, materialCode, state FROM workflowTable WHERE plantCode = $1 AND materialCode = $2`

	var workflow datamodel.Workflow
	err := c.Db.QueryRow(ctx, sqlStatement, plantCode, materialCode).Scan(
		&workflow.ID, &workflow.PlantCode, &workflow.MaterialCode, &workflow.State)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ErrorHandling(sqlStatement, err)
		return nil, err
	}

	c.workflowIdCache.Add(cacheKey, workflow.ID)
	return &workflow, nil
}

// FindByPlant returns all workflows of a plant
func (c *Connection) FindByPlant(ctx context.Context, plantCode string) ([]datamodel.Workflow, error) {
	sqlStatement := `SELECT id, plantCode, materialCode, state FROM workflowTable WHERE plantCode = $1`
	return c.queryWorkflows(ctx, sqlStatement, plantCode)
}

// FindByMaterial returns all workflows touching a material
func (c *Connection) FindByMaterial(ctx context.Context, materialCode string) ([]datamodel.Workflow, error) {
	sqlStatement := `SELECT id, plantCode, materialCode, state FROM workflowTable WHERE materialCode = $1`
	return c.queryWorkflows(ctx, sqlStatement, materialCode)
}

func (c *Connection) queryWorkflows(ctx context.Context, sqlStatement string, arg string) (workflows []datamodel.Workflow, err error) {
	rows, err := c.Db.Query(ctx, sqlStatement, arg)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ErrorHandling(sqlStatement, err)
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var workflow datamodel.Workflow
		err = rows.Scan(&workflow.ID, &workflow.PlantCode, &workflow.MaterialCode, &workflow.State)
		if err != nil {
			ErrorHandling(sqlStatement, err)
			return nil, err
		}
		workflows = append(workflows, workflow)
	}
	err = rows.Err()
	if err != nil {
		ErrorHandling(sqlStatement, err)
		return nil, err
	}
	return workflows, nil
}

func (c *Connection) getWorkflow(ctx context.Context, id string) (*datamodel.Workflow, error) {
	sqlStatement := `SELECT id, plantCode, materialCode, state FROM workflowTable WHERE id = $1`

	var workflow datamodel.Workflow
	err := c.Db.QueryRow(ctx, sqlStatement, id).Scan(
		&workflow.ID, &workflow.PlantCode, &workflow.MaterialCode, &workflow.State)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ErrorHandling(sqlStatement, err)
		return nil, err
	}
	return &workflow, nil
}

// GetState returns the current state of a workflow
func (c *Connection) GetState(ctx context.Context, workflowID string) (string, error) {
	workflow, err := c.getWorkflow(ctx, workflowID)
	if err != nil {
		return "", err
	}
	if workflow == nil {
		return "", datamodel.ErrWorkflowNotFound
	}
	return workflow.State, nil
}

// CanTransitionTo reports whether the workflow state machine permits moving to
// the target state from the workflow's current state.
func (c *Connection) CanTransitionTo(ctx context.Context, workflowID string, targetState string) (bool, error) {
	state, err := c.GetState(ctx, workflowID)
	if err != nil {
		return false, err
	}
	for _, allowed := range workflowTransitions[state] {
		if allowed == targetState {
			return true, nil
		}
	}
	return false, nil
}

// TransitionTo moves the workflow into the target state
func (c *Connection) TransitionTo(ctx context.Context, workflowID string, targetState string, actor string) error {
	permitted, err := c.CanTransitionTo(ctx, workflowID, targetState)
	if err != nil {
		return err
	}
	if !permitted {
		return fmt.Errorf("transition to %s not permitted for workflow %s", targetState, workflowID)
	}

	sqlStatement := `UPDATE workflowTable SET state = $1, updatedAt = now() WHERE id = $2`
	tag, err := c.Db.Exec(ctx, sqlStatement, targetState, workflowID)
	if err != nil {
		ErrorHandling(sqlStatement, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return datamodel.ErrWorkflowNotFound
	}

	zap.S().Infow("Workflow state advanced",
		"workflowId", workflowID,
		"state", targetState,
		"actor", actor,
	)
	return nil
}
