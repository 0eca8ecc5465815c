package models

import (
	"time"

	"gorm.io/datatypes"
)

// AtaRegistroPreco is a price-registration record (PNCP consultation 6.5).
type AtaRegistroPreco struct {
	ID                          uint    `gorm:"primaryKey"`
	NumeroControlePNCPAta       string  `gorm:"column:numero_controle_pncp_ata;uniqueIndex;not null"`
	NumeroControlePNCPCompra    *string `gorm:"column:numero_controle_pncp_compra;index"`
	NumeroAtaRegistroPreco      *string
	AnoAta                      *int
	DataAssinatura              *time.Time
	VigenciaInicio              *time.Time
	VigenciaFim                 *time.Time
	DataCancelamento            *time.Time
	Cancelado                   *bool
	DataPublicacaoPncp          *time.Time
	DataInclusao                *time.Time
	DataAtualizacao             *time.Time
	ObjetoContratacao           *string `gorm:"type:text"`
	CnpjOrgao                   *string
	NomeOrgao                   *string
	CodigoUnidadeOrgao          *string
	NomeUnidadeOrgao            *string
	CnpjOrgaoSubrogado          *string
	NomeOrgaoSubrogado          *string
	CodigoUnidadeOrgaoSubrogado *string
	NomeUnidadeOrgaoSubrogado   *string
	Usuario                     *string
	RawData                     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt                   time.Time
	UpdatedAt                   time.Time
}

func (AtaRegistroPreco) TableName() string { return "atas_registro_preco" }

func (a *AtaRegistroPreco) NaturalKey() string       { return a.NumeroControlePNCPAta }
func (a *AtaRegistroPreco) NaturalKeyColumn() string { return "numero_controle_pncp_ata" }
