package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	appintegration "github.com/storesync/backend/internal/application/integration"
	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/scheduler"
	"github.com/storesync/backend/internal/interfaces/http/dto"
	"github.com/storesync/backend/internal/interfaces/http/middleware"
)

const defaultHistoryLimit = 20

// SyncRunner runs sync types inline
type SyncRunner interface {
	Run(ctx context.Context, syncType integration.SyncType, opts appintegration.SyncOptions) (*integration.SyncResult, error)
	RunAll(ctx context.Context, opts appintegration.SyncOptions) ([]*integration.SyncResult, error)
	Status(ctx context.Context) ([]*integration.SyncState, error)
	Running() bool
}

// SyncJobQueue queues sync jobs on the background scheduler
type SyncJobQueue interface {
	Trigger(types []integration.SyncType, full bool) (*scheduler.SyncJob, error)
	Current() *scheduler.SyncJob
	GetJobHistory(limit int) []*scheduler.SyncJob
}

// SyncHandler triggers sync runs and reports their state
type SyncHandler struct {
	BaseHandler
	runner SyncRunner
	queue  SyncJobQueue
}

// NewSyncHandler creates a new SyncHandler. A nil queue runs every
// trigger inline.
func NewSyncHandler(runner SyncRunner, queue SyncJobQueue) *SyncHandler {
	return &SyncHandler{runner: runner, queue: queue}
}

// SyncRunResponse is the outcome of an inline sync
type SyncRunResponse struct {
	Results []dto.SyncResultResponse `json:"results"`
	Error   string                   `json:"error,omitempty"`
}

// Trigger starts a sync of one type, or of every type for "all".
// Stock syncs restricted to ids, and requests with wait=true, run inline;
// everything else is queued and answered with 202.
//
// POST /sync/:type?full=true&ids=1,2&wait=true
func (h *SyncHandler) Trigger(c *gin.Context) {
	var req dto.SyncTriggerRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	types, err := req.SyncTypes()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	ids, err := req.ProductIDs()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if len(ids) > 0 && (len(types) != 1 || types[0] != integration.SyncTypeStock) {
		h.BadRequest(c, "ids are only accepted by the stock sync")
		return
	}

	if req.Wait || len(ids) > 0 || h.queue == nil {
		h.runInline(c, types, appintegration.SyncOptions{Full: req.Full, ProductIDs: ids})
		return
	}

	job, err := h.queue.Trigger(types, req.Full)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, dto.ToSyncJobResponse(job))
}

func (h *SyncHandler) runInline(c *gin.Context, types []integration.SyncType, opts appintegration.SyncOptions) {
	ctx := c.Request.Context()

	var results []*integration.SyncResult
	var err error
	if len(types) == 0 {
		results, err = h.runner.RunAll(ctx, opts)
	} else {
		var result *integration.SyncResult
		result, err = h.runner.Run(ctx, types[0], opts)
		if result != nil {
			results = append(results, result)
		}
	}

	// A failed stage still reports the stages that completed
	if err != nil && len(results) == 0 {
		h.HandleError(c, err)
		return
	}
	resp := SyncRunResponse{Results: dto.ToSyncResultResponses(results)}
	if err != nil {
		resp.Error = err.Error()
	}
	h.Success(c, resp)
}

// Status reports stored sync state and scheduler activity
//
// GET /sync/status?limit=20
func (h *SyncHandler) Status(c *gin.Context) {
	states, err := h.runner.Status(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.BadRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	resp := dto.SyncStatusResponse{
		Running: h.runner.Running(),
		States:  dto.ToSyncStateResponses(states),
		History: make([]*dto.SyncJobResponse, 0),
	}
	if h.queue != nil {
		resp.Current = dto.ToSyncJobResponse(h.queue.Current())
		for _, job := range h.queue.GetJobHistory(limit) {
			resp.History = append(resp.History, dto.ToSyncJobResponse(job))
		}
	}
	h.Success(c, resp)
}
