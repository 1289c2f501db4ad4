package dto

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/scheduler"
)

// SyncTypeAll selects every sync type in dependency order
const SyncTypeAll = "all"

// SyncTriggerRequest holds the path and query parameters of a sync trigger
type SyncTriggerRequest struct {
	Type string `uri:"type" binding:"required,synctype"`
	Full bool   `form:"full"`
	// IDs is a comma separated list of remote product ids, stock only
	IDs string `form:"ids" binding:"omitempty,idlist"`
	// Wait runs the sync inline instead of queueing it on the scheduler
	Wait bool `form:"wait"`
}

// SyncTypes resolves the requested type. "all" yields nil.
func (r *SyncTriggerRequest) SyncTypes() ([]integration.SyncType, error) {
	if strings.EqualFold(r.Type, SyncTypeAll) {
		return nil, nil
	}
	t := integration.SyncType(strings.ToLower(r.Type))
	if !t.IsValid() {
		return nil, fmt.Errorf("unknown sync type %q", r.Type)
	}
	return []integration.SyncType{t}, nil
}

// ProductIDs parses the ids parameter
func (r *SyncTriggerRequest) ProductIDs() ([]int, error) {
	if strings.TrimSpace(r.IDs) == "" {
		return nil, nil
	}
	parts := strings.Split(r.IDs, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.Atoi(p)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid product id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// SyncFailureResponse is one failed item of a sync run
type SyncFailureResponse struct {
	ItemID  string `json:"item_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Soft    bool   `json:"soft"`
}

// SyncResultResponse is the outcome of one sync type
type SyncResultResponse struct {
	Type       string                `json:"type"`
	Status     string                `json:"status"`
	Total      int                   `json:"total"`
	Success    int                   `json:"success"`
	Failed     int                   `json:"failed"`
	StartedAt  time.Time             `json:"started_at"`
	DurationMs int64                 `json:"duration_ms"`
	Failures   []SyncFailureResponse `json:"failures,omitempty"`
}

// ToSyncResultResponse converts a sync result
func ToSyncResultResponse(r *integration.SyncResult) SyncResultResponse {
	resp := SyncResultResponse{
		Type:       r.Type.String(),
		Status:     string(r.Status),
		Total:      r.TotalCount,
		Success:    r.SuccessCount,
		Failed:     r.FailedCount(),
		StartedAt:  r.StartedAt,
		DurationMs: r.Duration.Milliseconds(),
	}
	for _, f := range r.FailedItems {
		resp.Failures = append(resp.Failures, SyncFailureResponse{
			ItemID:  f.ItemID,
			Code:    f.ErrorCode,
			Message: f.ErrorMessage,
			Soft:    f.Soft,
		})
	}
	return resp
}

// ToSyncResultResponses converts a list of sync results
func ToSyncResultResponses(results []*integration.SyncResult) []SyncResultResponse {
	out := make([]SyncResultResponse, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, ToSyncResultResponse(r))
		}
	}
	return out
}

// SyncStateResponse is the persisted bookkeeping of one sync type
type SyncStateResponse struct {
	Type           string     `json:"type"`
	LastSyncAt     *time.Time `json:"last_sync_at"`
	LastDurationMs int64      `json:"last_duration_ms"`
	LastCount      int        `json:"last_count"`
	LastError      string     `json:"last_error,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ToSyncStateResponses converts stored sync states
func ToSyncStateResponses(states []*integration.SyncState) []SyncStateResponse {
	out := make([]SyncStateResponse, 0, len(states))
	for _, s := range states {
		out = append(out, SyncStateResponse{
			Type:           s.Type.String(),
			LastSyncAt:     s.LastSyncAt,
			LastDurationMs: s.LastDuration.Milliseconds(),
			LastCount:      s.LastCount,
			LastError:      s.LastError,
			UpdatedAt:      s.UpdatedAt,
		})
	}
	return out
}

// SyncJobResponse is a scheduled sync job
type SyncJobResponse struct {
	ID           uuid.UUID            `json:"id"`
	Trigger      string               `json:"trigger"`
	Types        []string             `json:"types"`
	Full         bool                 `json:"full"`
	Status       string               `json:"status"`
	Error        string               `json:"error,omitempty"`
	StartedAt    *time.Time           `json:"started_at,omitempty"`
	CompletedAt  *time.Time           `json:"completed_at,omitempty"`
	TotalItems   int                  `json:"total_items"`
	SuccessItems int                  `json:"success_items"`
	FailedItems  int                  `json:"failed_items"`
	Results      []SyncResultResponse `json:"results,omitempty"`
}

// ToSyncJobResponse converts a scheduler job, nil stays nil
func ToSyncJobResponse(job *scheduler.SyncJob) *SyncJobResponse {
	if job == nil {
		return nil
	}
	types := make([]string, 0, len(job.Types))
	for _, t := range job.Types {
		types = append(types, t.String())
	}
	if job.AllTypes() {
		types = append(types, SyncTypeAll)
	}
	return &SyncJobResponse{
		ID:           job.ID,
		Trigger:      string(job.Trigger),
		Types:        types,
		Full:         job.Full,
		Status:       string(job.Status),
		Error:        job.Error,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
		TotalItems:   job.TotalItems,
		SuccessItems: job.SuccessItems,
		FailedItems:  job.FailedItems,
		Results:      ToSyncResultResponses(job.Results),
	}
}

// SyncStatusResponse summarizes sync bookkeeping and scheduler activity
type SyncStatusResponse struct {
	Running bool                `json:"running"`
	States  []SyncStateResponse `json:"states"`
	Current *SyncJobResponse    `json:"current,omitempty"`
	History []*SyncJobResponse  `json:"history"`
}
