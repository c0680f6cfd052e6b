package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/material-compliance-hub/material-compliance-hub/internal"
	"github.com/material-compliance-hub/material-compliance-hub/pkg/datamodel"
)

// ten answerable fields: two required CQS questions, two required plant
// questions and six optional plant questions
const testCatalog = `
questions:
  - fieldName: hazard_class
    label: Hazard class
    stepNumber: 1
    orderIndex: 1
    owner: CQS
    questionType: select
    required: true
    active: true
  - fieldName: flammable
    label: Flammable
    stepNumber: 1
    orderIndex: 2
    owner: CQS
    questionType: boolean
    required: true
    active: true
  - fieldName: flash_point_21
    label: Flash point below 21 °C
    stepNumber: 1
    orderIndex: 3
    owner: Plant
    questionType: boolean
    required: true
    active: true
  - fieldName: storage_location
    label: Storage location
    stepNumber: 1
    orderIndex: 4
    owner: Plant
    questionType: text
    required: true
    active: true
  - fieldName: container_type
    label: Container type
    stepNumber: 2
    orderIndex: 1
    owner: Plant
    questionType: text
    active: true
  - fieldName: handling_notes
    label: Handling notes
    stepNumber: 2
    orderIndex: 2
    owner: Plant
    questionType: text
    active: true
  - fieldName: ppe_required
    label: PPE required
    stepNumber: 2
    orderIndex: 3
    owner: Plant
    questionType: multiselect
    active: true
  - fieldName: disposal_route
    label: Disposal route
    stepNumber: 2
    orderIndex: 4
    owner: Plant
    questionType: text
    active: true
  - fieldName: spill_procedure
    label: Spill procedure
    stepNumber: 3
    orderIndex: 1
    owner: Plant
    questionType: text
    active: true
  - fieldName: training_done
    label: Staff training done
    stepNumber: 3
    orderIndex: 2
    owner: Plant
    questionType: boolean
    active: true
  - fieldName: internal_remark
    label: Internal remark
    stepNumber: 3
    orderIndex: 3
    owner: None
    questionType: text
    active: true
`

type fakeRepo struct {
	records     map[string]*datamodel.PlantResponseRecord
	updateCalls int
	failUpdate  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[string]*datamodel.PlantResponseRecord)}
}

func (f *fakeRepo) put(record *datamodel.PlantResponseRecord) {
	f.records[record.PlantCode+"|"+record.MaterialCode] = record
}

func (f *fakeRepo) GetRecord(_ context.Context, plantCode string, materialCode string) (*datamodel.PlantResponseRecord, error) {
	record, ok := f.records[plantCode+"|"+materialCode]
	if !ok {
		return nil, datamodel.ErrRecordNotFound
	}
	clone := *record
	clone.CqsSnapshot = copyAttributes(record.CqsSnapshot)
	clone.ManualInputs = copyInputs(record.ManualInputs)
	return &clone, nil
}

func (f *fakeRepo) GetOrCreateRecord(ctx context.Context, plantCode string, materialCode string, workflowID string) (*datamodel.PlantResponseRecord, bool, error) {
	record, err := f.GetRecord(ctx, plantCode, materialCode)
	if err == nil {
		return record, false, nil
	}
	fresh := &datamodel.PlantResponseRecord{
		PlantCode:        plantCode,
		MaterialCode:     materialCode,
		CqsSnapshot:      datamodel.CqsAttributeSet{},
		ManualInputs:     map[string]interface{}{},
		CompletionStatus: datamodel.StatusDraft,
		CqsSyncStatus:    datamodel.CqsNotSynced,
		WorkflowID:       workflowID,
		Version:          1,
	}
	f.put(fresh)
	record, _ = f.GetRecord(ctx, plantCode, materialCode)
	return record, true, nil
}

func (f *fakeRepo) UpdateRecord(_ context.Context, record *datamodel.PlantResponseRecord) error {
	if f.failUpdate != nil {
		return f.failUpdate
	}
	key := record.PlantCode + "|" + record.MaterialCode
	stored, ok := f.records[key]
	if !ok {
		return datamodel.ErrRecordNotFound
	}
	if stored.Version != record.Version {
		return datamodel.ErrVersionConflict
	}
	f.updateCalls++
	record.Version++
	clone := *record
	clone.CqsSnapshot = copyAttributes(record.CqsSnapshot)
	clone.ManualInputs = copyInputs(record.ManualInputs)
	f.records[key] = &clone
	return nil
}

func copyAttributes(in datamodel.CqsAttributeSet) datamodel.CqsAttributeSet {
	out := make(datamodel.CqsAttributeSet, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyInputs(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

type fakeCqs struct {
	attributes map[string]datamodel.CqsAttributeSet
	err        error
	calls      int
}

func (f *fakeCqs) GetAttributes(_ context.Context, materialCode string) (datamodel.CqsAttributeSet, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.attributes[materialCode], nil
}

type fakeWorkflowGateway struct {
	workflows        []datamodel.Workflow
	directEnabled    bool
	disablePlantScan bool
	findErr          error
	transitionErr    error
	transitioned     []string
}

func (f *fakeWorkflowGateway) FindByPlantAndMaterial(_ context.Context, plantCode string, materialCode string) (*datamodel.Workflow, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if !f.directEnabled {
		return nil, nil
	}
	for i := range f.workflows {
		if f.workflows[i].PlantCode == plantCode && f.workflows[i].MaterialCode == materialCode {
			return &f.workflows[i], nil
		}
	}
	return nil, nil
}

func (f *fakeWorkflowGateway) FindByPlant(_ context.Context, plantCode string) ([]datamodel.Workflow, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.disablePlantScan {
		return nil, nil
	}
	var out []datamodel.Workflow
	for _, w := range f.workflows {
		if w.PlantCode == plantCode {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeWorkflowGateway) FindByMaterial(_ context.Context, materialCode string) ([]datamodel.Workflow, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []datamodel.Workflow
	for _, w := range f.workflows {
		if w.MaterialCode == materialCode {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeWorkflowGateway) GetState(_ context.Context, workflowID string) (string, error) {
	for _, w := range f.workflows {
		if w.ID == workflowID {
			return w.State, nil
		}
	}
	return "", datamodel.ErrWorkflowNotFound
}

func (f *fakeWorkflowGateway) CanTransitionTo(ctx context.Context, workflowID string, targetState string) (bool, error) {
	state, err := f.GetState(ctx, workflowID)
	if err != nil {
		return false, err
	}
	return state != targetState && targetState == datamodel.WorkflowStateCompleted, nil
}

func (f *fakeWorkflowGateway) TransitionTo(_ context.Context, workflowID string, targetState string, _ string) error {
	if f.transitionErr != nil {
		return f.transitionErr
	}
	for i := range f.workflows {
		if f.workflows[i].ID == workflowID {
			f.workflows[i].State = targetState
			f.transitioned = append(f.transitioned, workflowID)
			return nil
		}
	}
	return datamodel.ErrWorkflowNotFound
}

// setupEngine wires the services package against in-memory fakes
func setupEngine(t *testing.T, threshold int) (*fakeRepo, *fakeCqs, *fakeWorkflowGateway) {
	t.Helper()
	zap.ReplaceGlobals(zap.NewNop())
	internal.InitMemcache()

	cat, err := datamodel.ParseCatalog([]byte(testCatalog))
	if err != nil {
		t.Fatalf("failed to parse test catalog: %v", err)
	}

	repository := newFakeRepo()
	cqs := &fakeCqs{attributes: map[string]datamodel.CqsAttributeSet{}}
	workflow := &fakeWorkflowGateway{directEnabled: true}

	Init(cat, repository, cqs, workflow, threshold, time.Second)
	return repository, cqs, workflow
}

// existingRecord seeds a draft record and returns the stored instance
func existingRecord(repository *fakeRepo, plantCode string, materialCode string) *datamodel.PlantResponseRecord {
	record := &datamodel.PlantResponseRecord{
		PlantCode:        plantCode,
		MaterialCode:     materialCode,
		CqsSnapshot:      datamodel.CqsAttributeSet{},
		ManualInputs:     map[string]interface{}{},
		CompletionStatus: datamodel.StatusDraft,
		CqsSyncStatus:    datamodel.CqsNotSynced,
		WorkflowID:       "wf-1",
		Version:          1,
	}
	repository.put(record)
	return record
}

var errBoom = errors.New("boom")
