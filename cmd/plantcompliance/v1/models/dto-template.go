package models

// TemplateResponse is the rendered questionnaire for one (plant, material) pair
type TemplateResponse struct {
	PlantCode    string           `json:"plantCode"`
	MaterialCode string           `json:"materialCode"`
	Steps        []TemplateStep   `json:"steps"`
	Counters     CountersResponse `json:"counters"`
}

type TemplateStep struct {
	StepNumber int             `json:"stepNumber"`
	Fields     []TemplateField `json:"fields"`
}

type TemplateField struct {
	Name      string      `json:"name"`
	Label     string      `json:"label"`
	Type      string      `json:"type"`
	Category  string      `json:"category,omitempty"`
	Required  bool        `json:"required"`
	Value     interface{} `json:"value"`
	Completed bool        `json:"completed"`
	Disabled  bool        `json:"disabled"`
	Options   []string    `json:"options,omitempty"`
	HelpText  string      `json:"helpText,omitempty"`
}
