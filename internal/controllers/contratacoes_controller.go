package controllers

import (
	"context"
	"net/http"

	"pncp/internal/apperrors"
	"pncp/internal/logging"
	"pncp/internal/pkg/pncp"
	"pncp/internal/tasks"

	"github.com/gin-gonic/gin"
)

// Syncer runs one on-demand sync cycle.
type Syncer interface {
	RunCycle(ctx context.Context, params pncp.Params, marker string) (*tasks.CycleResult, error)
}

// ContratacoesController fetches a PNCP page for the caller, mirrors it and
// answers with the upstream envelope.
type ContratacoesController struct {
	Syncer Syncer
}

// Historico handles GET /api/contratacoes/historico
func (cc *ContratacoesController) Historico(c *gin.Context) {
	cc.sync(c, &pncp.HistoricoParams{})
}

// Oportunidades handles GET /api/contratacoes/oportunidades
func (cc *ContratacoesController) Oportunidades(c *gin.Context) {
	cc.sync(c, &pncp.OportunidadeParams{})
}

// Atas handles GET /api/contratacoes/atas
func (cc *ContratacoesController) Atas(c *gin.Context) {
	cc.sync(c, &pncp.AtaParams{})
}

func (cc *ContratacoesController) sync(c *gin.Context, params pncp.Params) {
	if err := c.ShouldBindQuery(params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Parâmetro inválido: " + err.Error()})
		return
	}

	result, err := cc.Syncer.RunCycle(c.Request.Context(), params, "")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result.Page)
}

func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)

	log := logging.Ctx(c.Request.Context())
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	} else {
		log.Warn().Err(err).Str("path", c.FullPath()).Msg("request rejected")
	}

	c.JSON(status, gin.H{"error": apperrors.Message(err)})
}
