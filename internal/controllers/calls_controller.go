package controllers

import (
	"context"
	"net/http"

	"pncp/internal/logging"
	"pncp/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	defaultCallsLimit = 20
	maxCallsLimit     = 500
)

type CallLog interface {
	RecentCalls(ctx context.Context, limit int) ([]models.APIResponseMetadata, error)
}

// CallsController exposes the provenance log of upstream calls.
type CallsController struct {
	Log CallLog
}

// Recent handles GET /api/chamadas?limit=N
func (cc *CallsController) Recent(c *gin.Context) {
	limit := getLimitWithDefault(c, defaultCallsLimit)
	if limit <= 0 || limit > maxCallsLimit {
		limit = defaultCallsLimit
	}

	calls, err := cc.Log.RecentCalls(c.Request.Context(), limit)
	if err != nil {
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to list calls")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao buscar chamadas"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"chamadas": calls,
	})
}
