package controllers

import (
	"context"
	"net/http"

	"pncp/internal/logging"
	"pncp/internal/models"

	"github.com/gin-gonic/gin"
)

type DomainStore interface {
	ListModalidades(ctx context.Context) ([]models.ModalidadeContratacao, error)
	ListModosDisputa(ctx context.Context) ([]models.ModoDisputa, error)
	ListSituacoes(ctx context.Context) ([]models.SituacaoContratacao, error)
}

// DomainController serves the active reference rows, ordered by name.
type DomainController struct {
	Store DomainStore
}

func (dc *DomainController) Modalidades(c *gin.Context) {
	rows, err := dc.Store.ListModalidades(c.Request.Context())
	respondList(c, rows, err, "Erro ao buscar modalidades de contratação")
}

func (dc *DomainController) ModosDisputa(c *gin.Context) {
	rows, err := dc.Store.ListModosDisputa(c.Request.Context())
	respondList(c, rows, err, "Erro ao buscar modos de disputa")
}

func (dc *DomainController) Situacoes(c *gin.Context) {
	rows, err := dc.Store.ListSituacoes(c.Request.Context())
	respondList(c, rows, err, "Erro ao buscar situações de contratação")
}

func respondList[T any](c *gin.Context, rows []T, err error, message string) {
	if err != nil {
		logging.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("failed to list reference rows")
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
		return
	}

	if rows == nil {
		rows = []T{}
	}
	c.JSON(http.StatusOK, rows)
}
