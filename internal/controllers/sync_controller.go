package controllers

import (
	"context"
	"net/http"

	"pncp/internal/logging"
	"pncp/internal/pkg/pncp"
	"pncp/internal/tasks"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

// Enqueuer is the part of *asynq.Client the sync queue needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// SyncController queues sync work for the worker instead of running it in
// the request. Only mounted when a Redis queue is configured.
type SyncController struct {
	Queue Enqueuer
}

// EnqueueTarget handles POST /api/sync/reports/:report with the same query
// filters as the on-demand endpoints.
func (sc *SyncController) EnqueueTarget(c *gin.Context) {
	rt, err := pncp.ParseReportType(c.Param("report"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Relatório desconhecido"})
		return
	}

	params, err := pncp.NewParams(rt)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := c.ShouldBindQuery(params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Parâmetro inválido: " + err.Error()})
		return
	}

	if err := pncp.Prepare(params); err != nil {
		respondError(c, err)
		return
	}

	task, err := tasks.NewSyncTargetTask(params, rt.Marker(), logging.RequestIDFromContext(c.Request.Context()))
	if err != nil {
		respondError(c, err)
		return
	}

	sc.enqueue(c, task)
}

// EnqueueBatch handles POST /api/sync/batch
func (sc *SyncController) EnqueueBatch(c *gin.Context) {
	var maxTargets *int
	if limit := getLimitWithDefault(c, 0); limit > 0 {
		maxTargets = &limit
	}

	task, err := tasks.NewSyncBatchTask(maxTargets, logging.RequestIDFromContext(c.Request.Context()))
	if err != nil {
		respondError(c, err)
		return
	}

	sc.enqueue(c, task)
}

func (sc *SyncController) enqueue(c *gin.Context, task *asynq.Task) {
	info, err := sc.Queue.EnqueueContext(c.Request.Context(), task)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"taskId": info.ID,
		"type":   info.Type,
		"queue":  info.Queue,
	})
}
