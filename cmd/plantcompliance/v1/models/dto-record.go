package models

import "time"

type RecordRequest struct {
	PlantCode    string `uri:"plantCode" binding:"required"`
	MaterialCode string `uri:"materialCode" binding:"required"`
}

type CreateRecordRequest struct {
	WorkflowID string `json:"workflowId" binding:"required"`
}

type CreateRecordResponse struct {
	PlantCode    string `json:"plantCode"`
	MaterialCode string `json:"materialCode"`
	WorkflowID   string `json:"workflowId"`
	Created      bool   `json:"created"`
	Version      int    `json:"version"`
}

type SaveInputsRequest struct {
	Inputs map[string]interface{} `json:"inputs" binding:"required"`
}

type SaveInputsResponse struct {
	Saved    bool             `json:"saved"`
	Counters CountersResponse `json:"counters"`
}

type CountersResponse struct {
	Total             int `json:"total"`
	Completed         int `json:"completed"`
	Required          int `json:"required"`
	CompletedRequired int `json:"completedRequired"`
	Percentage        int `json:"percentage"`
}

type StatusResponse struct {
	Exists      bool       `json:"exists"`
	IsSubmitted bool       `json:"isSubmitted"`
	IsReadOnly  bool       `json:"isReadOnly"`
	Percentage  int        `json:"percentage"`
	CanSubmit   bool       `json:"canSubmit"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	SubmittedBy string     `json:"submittedBy,omitempty"`
}

type CqsSyncResponse struct {
	SyncStatus string     `json:"syncStatus"`
	SyncedAt   *time.Time `json:"syncedAt,omitempty"`
	Attributes int        `json:"attributes"`
}
