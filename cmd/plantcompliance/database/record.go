package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/material-compliance-hub/material-compliance-hub/pkg/datamodel"
)

const selectRecordStatement = `
	SELECT cqsSnapshot, manualInputs,
	       totalFields, completedFields, requiredFields, completedRequired, percentage,
	       completionStatus, cqsSyncStatus, cqsSyncedAt,
	       submittedAt, submittedBy, workflowId, version
	FROM responseRecordTable
	WHERE plantCode = $1 AND materialCode = $2`

// GetRecord loads the response record of a (plant, material) pair.
// Returns datamodel.ErrRecordNotFound when no record exists and
// datamodel.ErrCorruptSnapshot when a stored mapping does not deserialize.
func (c *Connection) GetRecord(ctx context.Context, plantCode string, materialCode string) (*datamodel.PlantResponseRecord, error) {
	record := datamodel.PlantResponseRecord{
		PlantCode:    plantCode,
		MaterialCode: materialCode,
	}

	var snapshotRaw, inputsRaw *string
	err := c.Db.QueryRow(ctx, selectRecordStatement, plantCode, materialCode).Scan(
		&snapshotRaw,
		&inputsRaw,
		&record.Counters.Total,
		&record.Counters.Completed,
		&record.Counters.Required,
		&record.Counters.CompletedRequired,
		&record.Counters.Percentage,
		&record.CompletionStatus,
		&record.CqsSyncStatus,
		&record.CqsSyncedAt,
		&record.SubmittedAt,
		&record.SubmittedBy,
		&record.WorkflowID,
		&record.Version,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, datamodel.ErrRecordNotFound
	}
	if err != nil {
		ErrorHandling(selectRecordStatement, err)
		return nil, err
	}

	record.CqsSnapshot, err = decodeSnapshot(snapshotRaw)
	if err != nil {
		return nil, err
	}
	record.ManualInputs, err = decodeManualInputs(inputsRaw)
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// GetOrCreateRecord loads the record, lazily creating an empty one linked to
// workflowID on first touch. created reports whether an insert happened.
func (c *Connection) GetOrCreateRecord(ctx context.Context, plantCode string, materialCode string, workflowID string) (record *datamodel.PlantResponseRecord, created bool, err error) {
	insertStatement := `
		INSERT INTO responseRecordTable (plantCode, materialCode, workflowId)
		VALUES ($1, $2, $3)
		ON CONFLICT (plantCode, materialCode) DO NOTHING`

	tag, err := c.Db.Exec(ctx, insertStatement, plantCode, materialCode, workflowID)
	if err != nil {
		ErrorHandling(insertStatement, err)
		return nil, false, err
	}
	created = tag.RowsAffected() == 1

	record, err = c.GetRecord(ctx, plantCode, materialCode)
	return record, created, err
}

// UpdateRecord persists the record guarded by its optimistic version. All
// counters are overwritten wholesale. On success the in-memory version is
// incremented to match the row. A lost race returns datamodel.ErrVersionConflict.
func (c *Connection) UpdateRecord(ctx context.Context, record *datamodel.PlantResponseRecord) error {
	updateStatement := `
		UPDATE responseRecordTable
		SET cqsSnapshot = $1, manualInputs = $2,
		    totalFields = $3, completedFields = $4, requiredFields = $5,
		    completedRequired = $6, percentage = $7,
		    completionStatus = $8, cqsSyncStatus = $9, cqsSyncedAt = $10,
		    submittedAt = $11, submittedBy = $12, workflowId = $13,
		    version = version + 1
		WHERE plantCode = $14 AND materialCode = $15 AND version = $16`

	snapshotRaw, err := encodeMapping(record.CqsSnapshot)
	if err != nil {
		return err
	}
	inputsRaw, err := encodeMapping(record.ManualInputs)
	if err != nil {
		return err
	}

	tag, err := c.Db.Exec(ctx, updateStatement,
		snapshotRaw,
		inputsRaw,
		record.Counters.Total,
		record.Counters.Completed,
		record.Counters.Required,
		record.Counters.CompletedRequired,
		record.Counters.Percentage,
		record.CompletionStatus,
		record.CqsSyncStatus,
		record.CqsSyncedAt,
		record.SubmittedAt,
		record.SubmittedBy,
		record.WorkflowID,
		record.PlantCode,
		record.MaterialCode,
		record.Version,
	)
	if err != nil {
		ErrorHandling(updateStatement, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return datamodel.ErrVersionConflict
	}

	record.Version++
	return nil
}

func decodeSnapshot(raw *string) (datamodel.CqsAttributeSet, error) {
	if raw == nil || *raw == "" {
		return datamodel.CqsAttributeSet{}, nil
	}
	var snapshot datamodel.CqsAttributeSet
	err := json.Unmarshal([]byte(*raw), &snapshot)
	if err != nil {
		return nil, fmt.Errorf("%w: cqs snapshot: %v", datamodel.ErrCorruptSnapshot, err)
	}
	return snapshot, nil
}

func decodeManualInputs(raw *string) (map[string]interface{}, error) {
	if raw == nil || *raw == "" {
		return map[string]interface{}{}, nil
	}
	var inputs map[string]interface{}
	err := json.Unmarshal([]byte(*raw), &inputs)
	if err != nil {
		return nil, fmt.Errorf("%w: manual inputs: %v", datamodel.ErrCorruptSnapshot, err)
	}
	return inputs, nil
}

func encodeMapping(mapping interface{}) (string, error) {
	raw, err := json.Marshal(mapping)
	if err != nil {
		return "", fmt.Errorf("failed to serialize mapping: %w", err)
	}
	return string(raw), nil
}
