package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/material-compliance-hub/material-compliance-hub/cmd/plantcompliance/v1/models"
	"github.com/material-compliance-hub/material-compliance-hub/internal"
	"github.com/material-compliance-hub/material-compliance-hub/pkg/datamodel"
)

// SyncIfNeeded pulls the CQS attribute set when the record has no snapshot
// yet. Mutates only the in-memory record; the caller persists. Returns whether
// the record changed.
func SyncIfNeeded(ctx context.Context, record *datamodel.PlantResponseRecord) bool {
	if len(record.CqsSnapshot) > 0 {
		return false
	}
	return pullSnapshot(ctx, record)
}

// ForceSync unconditionally re-pulls the attribute set and overwrites the
// snapshot, for administrative correction.
func ForceSync(ctx context.Context, plantCode string, materialCode string) (models.CqsSyncResponse, error) {
	key := recordKey(plantCode, materialCode)
	if !recordMutex.TryLock(key) {
		return models.CqsSyncResponse{}, datamodel.ErrRecordBusy
	}
	defer recordMutex.Unlock(key)

	record, err := repo.GetRecord(ctx, plantCode, materialCode)
	if err != nil {
		return models.CqsSyncResponse{}, err
	}

	pullSnapshot(ctx, record)
	applyCounters(record)
	err = repo.UpdateRecord(ctx, record)
	if err != nil {
		return models.CqsSyncResponse{}, err
	}
	invalidateStatus(plantCode, materialCode)

	return models.CqsSyncResponse{
		SyncStatus: string(record.CqsSyncStatus),
		SyncedAt:   record.CqsSyncedAt,
		Attributes: len(record.CqsSnapshot),
	}, nil
}

// pullSnapshot fetches the attribute set with the configured timeout and
// stamps the sync status: Synced, NoData or Failed. A failing source degrades
// the sync status without blocking anything else.
func pullSnapshot(ctx context.Context, record *datamodel.PlantResponseRecord) bool {
	pullCtx, cancel := context.WithTimeout(ctx, cqsTimeout)
	defer cancel()

	now := time.Now().UTC()
	record.CqsSyncedAt = &now

	attributes, err := cqsProvider.GetAttributes(pullCtx, record.MaterialCode)
	if err != nil {
		zap.S().Warnf("CQS sync for material %s failed: %s", internal.SanitizeString(record.MaterialCode), err)
		record.CqsSyncStatus = datamodel.CqsFailed
		return true
	}

	if len(attributes) == 0 {
		record.CqsSyncStatus = datamodel.CqsNoData
		record.CqsSnapshot = datamodel.CqsAttributeSet{}
		return true
	}

	// the snapshot is stored as delivered; attributes the catalog does not
	// know are kept but never rendered
	for name := range attributes {
		if catalog.Lookup(name) == nil {
			zap.S().Debugf("CQS attribute %s matches no catalog field", internal.SanitizeString(name))
		}
	}

	record.CqsSnapshot = attributes
	record.CqsSyncStatus = datamodel.CqsSynced
	return true
}
