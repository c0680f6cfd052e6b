package services

import (
	"context"
	"time"

	"github.com/EagleChen/mapmutex"

	"github.com/material-compliance-hub/material-compliance-hub/pkg/datamodel"
)

// CqsProvider is the external safety-data source
type CqsProvider interface {
	GetAttributes(ctx context.Context, materialCode string) (datamodel.CqsAttributeSet, error)
}

// WorkflowGateway is the engine's narrow view onto the external workflow
// aggregate. Advancement goes through this capability only.
type WorkflowGateway interface {
	FindByPlantAndMaterial(ctx context.Context, plantCode string, materialCode string) (*datamodel.Workflow, error)
	FindByPlant(ctx context.Context, plantCode string) ([]datamodel.Workflow, error)
	FindByMaterial(ctx context.Context, materialCode string) ([]datamodel.Workflow, error)
	GetState(ctx context.Context, workflowID string) (string, error)
	CanTransitionTo(ctx context.Context, workflowID string, targetState string) (bool, error)
	TransitionTo(ctx context.Context, workflowID string, targetState string, actor string) error
}

// RecordRepository persists plant response records with optimistic versioning
type RecordRepository interface {
	GetRecord(ctx context.Context, plantCode string, materialCode string) (*datamodel.PlantResponseRecord, error)
	GetOrCreateRecord(ctx context.Context, plantCode string, materialCode string, workflowID string) (*datamodel.PlantResponseRecord, bool, error)
	UpdateRecord(ctx context.Context, record *datamodel.PlantResponseRecord) error
}

var (
	catalog         *datamodel.Catalog
	repo            RecordRepository
	cqsProvider     CqsProvider
	workflowGateway WorkflowGateway

	// submissionThreshold is the single injected completion gate in percent.
	// It changed between deployments before; never hardcode it at call sites.
	submissionThreshold int

	cqsTimeout time.Duration

	// recordMutex serializes writers per (plant, material) key
	recordMutex *mapmutex.Mutex
)

// Init wires the engine's collaborators. Must be called once before serving.
func Init(cat *datamodel.Catalog, repository RecordRepository, cqs CqsProvider, workflow WorkflowGateway, threshold int, timeout time.Duration) {
	catalog = cat
	repo = repository
	cqsProvider = cqs
	workflowGateway = workflow
	submissionThreshold = threshold
	cqsTimeout = timeout
	recordMutex = mapmutex.NewMapMutex()
}

func recordKey(plantCode string, materialCode string) string {
	return plantCode + "|" + materialCode
}
