package models

import (
	"time"

	"gorm.io/datatypes"
)

// APIResponseMetadata is the provenance of one successful upstream call. Append-only.
type APIResponseMetadata struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Endpoint         string         `gorm:"index;not null" json:"endpoint"`
	RequestParams    datatypes.JSON `gorm:"type:jsonb" json:"requestParams"`
	TotalRegistros   int            `json:"totalRegistros"`
	TotalPaginas     int            `json:"totalPaginas"`
	NumeroPagina     int            `json:"numeroPagina"`
	PaginasRestantes int            `json:"paginasRestantes"`
	Empty            bool           `json:"empty"`
	ResponseTime     time.Time      `json:"responseTime"`
	CreatedAt        time.Time      `json:"createdAt"`
}

func (APIResponseMetadata) TableName() string { return "api_response_metadata" }
