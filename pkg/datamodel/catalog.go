package datamodel

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Question types that only render static content and never carry an answer
var displayOnlyTypes = map[string]bool{
	"display": true,
	"header":  true,
	"info":    true,
}

// Catalog is the deployment-static, ordered list of questionnaire templates.
// It is loaded once at startup; field identities are computed during load.
type Catalog struct {
	Questions []QuestionTemplate `yaml:"questions"`
}

// LoadCatalog reads and validates the question catalog from a YAML file
func LoadCatalog(path string) (*Catalog, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return ParseCatalog(content)
}

// ParseCatalog parses and validates catalog YAML content
func ParseCatalog(content []byte) (*Catalog, error) {
	var catalog Catalog
	err := yaml.Unmarshal(content, &catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	if len(catalog.Questions) == 0 {
		return nil, fmt.Errorf("catalog contains no questions")
	}

	seen := make(map[string]bool, len(catalog.Questions))
	for i := range catalog.Questions {
		q := &catalog.Questions[i]
		if q.FieldName == "" {
			return nil, fmt.Errorf("catalog entry %d has no field name", i)
		}
		if seen[q.FieldName] {
			return nil, fmt.Errorf("duplicate field name in catalog: %s", q.FieldName)
		}
		seen[q.FieldName] = true

		switch q.Owner {
		case OwnerCQS, OwnerPlant, OwnerNone, OwnerDisplay:
		default:
			return nil, fmt.Errorf("field %s has unknown owner %q", q.FieldName, q.Owner)
		}

		q.FieldID = NewFieldIdentity(q.FieldName, q.StepNumber, q.EffectiveOrder())
	}

	return &catalog, nil
}

// AnswerableQuestions returns the questions that take part in rendering and
// completion counting: active, not display-only and with a responsible owner.
// Ordered by step number, then explicit order index with serial number fallback.
func (c *Catalog) AnswerableQuestions() []*QuestionTemplate {
	questions := make([]*QuestionTemplate, 0, len(c.Questions))
	for i := range c.Questions {
		q := &c.Questions[i]
		if !q.Active {
			continue
		}
		if q.Owner == OwnerNone || q.Owner == OwnerDisplay {
			continue
		}
		if displayOnlyTypes[q.QuestionType] {
			continue
		}
		questions = append(questions, q)
	}

	sort.SliceStable(questions, func(i, j int) bool {
		if questions[i].StepNumber != questions[j].StepNumber {
			return questions[i].StepNumber < questions[j].StepNumber
		}
		return questions[i].EffectiveOrder() < questions[j].EffectiveOrder()
	})

	return questions
}

// StepNumbers returns the distinct step numbers of answerable questions, ascending
func (c *Catalog) StepNumbers() []int {
	present := make(map[int]bool)
	for _, q := range c.AnswerableQuestions() {
		present[q.StepNumber] = true
	}
	steps := make([]int, 0, len(present))
	for s := range present {
		steps = append(steps, s)
	}
	sort.Ints(steps)
	return steps
}

// Lookup returns the template with the given field name, or nil
func (c *Catalog) Lookup(fieldName string) *QuestionTemplate {
	for i := range c.Questions {
		if c.Questions[i].FieldName == fieldName {
			return &c.Questions[i]
		}
	}
	return nil
}
