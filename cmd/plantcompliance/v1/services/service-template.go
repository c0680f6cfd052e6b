package services

import (
	"context"
	"errors"
	"math"

	"github.com/goccy/go-json"

	"github.com/material-compliance-hub/material-compliance-hub/cmd/plantcompliance/v1/models"
	"github.com/material-compliance-hub/material-compliance-hub/internal"
	"github.com/material-compliance-hub/material-compliance-hub/pkg/datamodel"
)

// GetTemplate renders the questionnaire as the wire representation, counters
// included. Rendered templates are cached keyed by the record version, so any
// write invalidates naturally.
func GetTemplate(ctx context.Context, materialCode string, plantCode string) (models.TemplateResponse, error) {
	record, err := repo.GetRecord(ctx, plantCode, materialCode)
	if errors.Is(err, datamodel.ErrRecordNotFound) {
		record = &datamodel.PlantResponseRecord{
			PlantCode:    plantCode,
			MaterialCode: materialCode,
			CqsSnapshot:  datamodel.CqsAttributeSet{},
			ManualInputs: map[string]interface{}{},
		}
	} else if err != nil {
		return models.TemplateResponse{}, err
	}

	cacheKey := internal.RecordCacheKey("template", plantCode, materialCode, record.Version)
	if cached, value := internal.GetTiered(cacheKey); cached {
		if raw, ok := value.([]byte); ok {
			var response models.TemplateResponse
			if json.Unmarshal(raw, &response) == nil {
				return response, nil
			}
		}
	}

	response := buildTemplateResponse(record)

	if raw, marshalErr := json.Marshal(response); marshalErr == nil {
		internal.SetTieredShortTerm(cacheKey, raw)
	}
	return response, nil
}

func buildTemplateResponse(record *datamodel.PlantResponseRecord) models.TemplateResponse {
	steps := resolveSteps(record)

	response := models.TemplateResponse{
		PlantCode:    record.PlantCode,
		MaterialCode: record.MaterialCode,
		Steps:        make([]models.TemplateStep, 0, len(steps)),
	}

	var counters datamodel.CompletionCounters
	for _, step := range steps {
		wireStep := models.TemplateStep{StepNumber: step.StepNumber}
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
			wireStep.Fields = append(wireStep.Fields, models.TemplateField{
				Name:      field.Template.FieldName,
				Label:     field.Template.Label,
				Type:      field.Template.QuestionType,
				Category:  field.Template.Category,
				Required:  field.Template.Required,
				Value:     field.Value,
				Completed: field.Completed,
				Disabled:  field.Disabled,
				Options:   field.Template.Options,
				HelpText:  field.Template.HelpText,
			})
		}
		response.Steps = append(response.Steps, wireStep)
	}

	if counters.Total > 0 {
		counters.Percentage = int(math.Round(float64(counters.Completed) / float64(counters.Total) * 100))
	}
	response.Counters = countersResponse(counters)
	return response
}

// ResolveTemplate renders the questionnaire for a (material, plant) pair:
// ordered steps of fields with their resolved values. Pure read; a missing
// record renders against an empty snapshot and empty inputs.
func ResolveTemplate(ctx context.Context, materialCode string, plantCode string) ([]datamodel.TemplateStep, error) {
	record, err := repo.GetRecord(ctx, plantCode, materialCode)
	if errors.Is(err, datamodel.ErrRecordNotFound) {
		record = &datamodel.PlantResponseRecord{
			PlantCode:    plantCode,
			MaterialCode: materialCode,
			CqsSnapshot:  datamodel.CqsAttributeSet{},
			ManualInputs: map[string]interface{}{},
		}
	} else if err != nil {
		return nil, err
	}

	return resolveSteps(record), nil
}

// resolveSteps renders all answerable questions against the record's snapshot
// and manual inputs, grouped by step in display order.
func resolveSteps(record *datamodel.PlantResponseRecord) []datamodel.TemplateStep {
	questions := catalog.AnswerableQuestions()

	steps := make([]datamodel.TemplateStep, 0, 4)
	var current *datamodel.TemplateStep
	for _, question := range questions {
		if current == nil || current.StepNumber != question.StepNumber {
			steps = append(steps, datamodel.TemplateStep{StepNumber: question.StepNumber})
			current = &steps[len(steps)-1]
		}
		current.Fields = append(current.Fields, resolveField(question, record.CqsSnapshot, record.ManualInputs))
	}
	return steps
}

// resolveField merges the two answer sources for one question. Precedence:
// a resolvable CQS value wins and locks the field; an absent CQS value falls
// back to the manual input under any matching key; a field with neither stays
// open and carries the unavailable sentinel (CQS) or no value (Plant).
func resolveField(question *datamodel.QuestionTemplate, snapshot datamodel.CqsAttributeSet, inputs map[string]interface{}) datamodel.FieldDescriptor {
	descriptor := datamodel.FieldDescriptor{Template: question}

	switch question.Owner {
	case datamodel.OwnerCQS:
		raw, exists := snapshot[question.FieldName]
		if exists {
			if normalized, ok := datamodel.NormalizeCqsValue(raw); ok {
				descriptor.Value = normalized
				descriptor.Completed = true
				descriptor.Disabled = true
				return descriptor
			}
		}
		// CQS has nothing usable: the field stays editable as a manual fallback
		if value, _, found := question.FieldID.Match(inputs); found && datamodel.IsAnsweredValue(value) {
			descriptor.Value = value
			descriptor.Completed = true
			return descriptor
		}
		descriptor.Value = datamodel.CqsValueUnavailable
		return descriptor

	case datamodel.OwnerPlant:
		if value, _, found := question.FieldID.Match(inputs); found {
			descriptor.Value = value
			descriptor.Completed = datamodel.IsAnsweredValue(value)
		}
		return descriptor
	}

	return descriptor
}
