package models

import (
	"time"

	"gorm.io/datatypes"
)

// Record is a row keyed by a PNCP control number instead of a surrogate id.
type Record interface {
	NaturalKey() string
	NaturalKeyColumn() string
}

// Compra is the field set shared by historical contracts and open opportunities.
// Every descriptive column is nullable; missing nested blocks leave their columns NULL.
type Compra struct {
	NumeroCompra                    *string
	AnoCompra                       *int
	Processo                        *string
	TipoInstrumentoConvocatorioID   *int
	TipoInstrumentoConvocatorioNome *string
	ModalidadeID                    *int `gorm:"index"`
	ModalidadeNome                  *string
	ModoDisputaID                   *int
	ModoDisputaNome                 *string
	SituacaoCompraID                *int
	SituacaoCompraNome              *string
	ObjetoCompra                    *string `gorm:"type:text"`
	InformacaoComplementar          *string `gorm:"type:text"`
	SRP                             *bool
	AmparoLegalCodigo               *int
	AmparoLegalNome                 *string
	AmparoLegalDescricao            *string `gorm:"type:text"`
	ValorTotalEstimado              *float64
	ValorTotalHomologado            *float64
	DataAberturaProposta            *time.Time
	DataEncerramentoProposta        *time.Time
	DataPublicacaoPncp              *time.Time
	DataInclusao                    *time.Time
	DataAtualizacao                 *time.Time
	SequencialCompra                *int

	OrgaoEntidadeCnpj        *string `gorm:"index"`
	OrgaoEntidadeRazaoSocial *string
	OrgaoEntidadePoderID     *string
	OrgaoEntidadeEsferaID    *string

	UnidadeOrgaoCodigoUnidade *string
	UnidadeOrgaoNomeUnidade   *string
	UnidadeOrgaoCodigoIbge    *string
	UnidadeOrgaoMunicipioNome *string
	UnidadeOrgaoUfSigla       *string
	UnidadeOrgaoUfNome        *string

	OrgaoSubRogadoCnpj        *string
	OrgaoSubRogadoRazaoSocial *string
	OrgaoSubRogadoPoderID     *string
	OrgaoSubRogadoEsferaID    *string

	UnidadeSubRogadaCodigoUnidade *string
	UnidadeSubRogadaNomeUnidade   *string
	UnidadeSubRogadaCodigoIbge    *string
	UnidadeSubRogadaMunicipioNome *string
	UnidadeSubRogadaUfSigla       *string
	UnidadeSubRogadaUfNome        *string

	UsuarioNome             *string
	LinkSistemaOrigem       *string
	JustificativaPresencial *string `gorm:"type:text"`
}

// Contratacao is a historical contract (PNCP consultation 6.3).
type Contratacao struct {
	ID                 uint   `gorm:"primaryKey"`
	NumeroControlePNCP string `gorm:"column:numero_controle_pncp;uniqueIndex;not null"`
	Compra
	RawData   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Contratacao) TableName() string { return "contratacoes" }

func (c *Contratacao) NaturalKey() string       { return c.NumeroControlePNCP }
func (c *Contratacao) NaturalKeyColumn() string { return "numero_controle_pncp" }

// OportunidadeAberta is a purchase still receiving proposals (PNCP consultation 6.4).
type OportunidadeAberta struct {
	ID                 uint   `gorm:"primaryKey"`
	NumeroControlePNCP string `gorm:"column:numero_controle_pncp;uniqueIndex;not null"`
	Compra
	DataAtualizacaoGlobal  *time.Time
	LinkProcessoEletronico *string
	RawData                datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (OportunidadeAberta) TableName() string { return "oportunidades_abertas" }

func (o *OportunidadeAberta) NaturalKey() string       { return o.NumeroControlePNCP }
func (o *OportunidadeAberta) NaturalKeyColumn() string { return "numero_controle_pncp" }
