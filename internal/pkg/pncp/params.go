package pncp

import (
	"net/url"
	"strconv"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Params is the filter set of one upstream call. Implemented by
// HistoricoParams, OportunidadeParams and AtaParams.
type Params interface {
	Report() ReportType
	Query() url.Values
	pagination() *Pagination
}

// Pagination is part of every filter set.
type Pagination struct {
	Pagina        int `form:"pagina" json:"pagina" validate:"gte=1"`
	TamanhoPagina int `form:"tamanhoPagina" json:"tamanhoPagina" validate:"gte=1,lte=500"`
}

func (p *Pagination) applyDefaults() {
	if p.Pagina == 0 {
		p.Pagina = DefaultPage
	}
	if p.TamanhoPagina == 0 {
		p.TamanhoPagina = DefaultPageSize
	}
}

func (p *Pagination) pagination() *Pagination { return p }

func (p Pagination) addTo(q url.Values) {
	q.Set("pagina", strconv.Itoa(p.Pagina))
	q.Set("tamanhoPagina", strconv.Itoa(p.TamanhoPagina))
}

// HistoricoParams filters historical contracts by publication date (6.3).
type HistoricoParams struct {
	DataInicial                 string `form:"dataInicial" json:"dataInicial" validate:"required,pncpdate"`
	DataFinal                   string `form:"dataFinal" json:"dataFinal" validate:"required,pncpdate"`
	CodigoModalidadeContratacao int    `form:"codigoModalidadeContratacao" json:"codigoModalidadeContratacao" validate:"required"`
	CodigoModoDisputa           *int   `form:"codigoModoDisputa" json:"codigoModoDisputa,omitempty"`
	UF                          string `form:"uf" json:"uf,omitempty"`
	CodigoMunicipioIbge         string `form:"codigoMunicipioIbge" json:"codigoMunicipioIbge,omitempty"`
	CNPJ                        string `form:"cnpj" json:"cnpj,omitempty"`
	CodigoUnidadeAdministrativa string `form:"codigoUnidadeAdministrativa" json:"codigoUnidadeAdministrativa,omitempty"`
	IDUsuario                   *int   `form:"idUsuario" json:"idUsuario,omitempty"`
	Pagination
}

func (*HistoricoParams) Report() ReportType { return ReportHistorico }

func (p *HistoricoParams) Query() url.Values {
	q := url.Values{}
	setString(q, "dataInicial", p.DataInicial)
	setString(q, "dataFinal", p.DataFinal)
	q.Set("codigoModalidadeContratacao", strconv.Itoa(p.CodigoModalidadeContratacao))
	setInt(q, "codigoModoDisputa", p.CodigoModoDisputa)
	setString(q, "uf", p.UF)
	setString(q, "codigoMunicipioIbge", p.CodigoMunicipioIbge)
	setString(q, "cnpj", p.CNPJ)
	setString(q, "codigoUnidadeAdministrativa", p.CodigoUnidadeAdministrativa)
	setInt(q, "idUsuario", p.IDUsuario)
	p.Pagination.addTo(q)
	return q
}

// OportunidadeParams filters purchases with proposals open until DataFinal (6.4).
type OportunidadeParams struct {
	DataFinal                   string `form:"dataFinal" json:"dataFinal" validate:"required,pncpdate"`
	CodigoModalidadeContratacao int    `form:"codigoModalidadeContratacao" json:"codigoModalidadeContratacao" validate:"required"`
	UF                          string `form:"uf" json:"uf,omitempty"`
	CodigoMunicipioIbge         string `form:"codigoMunicipioIbge" json:"codigoMunicipioIbge,omitempty"`
	CNPJ                        string `form:"cnpj" json:"cnpj,omitempty"`
	CodigoUnidadeAdministrativa string `form:"codigoUnidadeAdministrativa" json:"codigoUnidadeAdministrativa,omitempty"`
	IDUsuario                   *int   `form:"idUsuario" json:"idUsuario,omitempty"`
	Pagination
}

func (*OportunidadeParams) Report() ReportType { return ReportOportunidades }

func (p *OportunidadeParams) Query() url.Values {
	q := url.Values{}
	setString(q, "dataFinal", p.DataFinal)
	q.Set("codigoModalidadeContratacao", strconv.Itoa(p.CodigoModalidadeContratacao))
	setString(q, "uf", p.UF)
	setString(q, "codigoMunicipioIbge", p.CodigoMunicipioIbge)
	setString(q, "cnpj", p.CNPJ)
	setString(q, "codigoUnidadeAdministrativa", p.CodigoUnidadeAdministrativa)
	setInt(q, "idUsuario", p.IDUsuario)
	p.Pagination.addTo(q)
	return q
}

// AtaParams filters price-registration records by validity window (6.5).
type AtaParams struct {
	DataInicial                 string `form:"dataInicial" json:"dataInicial" validate:"required,pncpdate"`
	DataFinal                   string `form:"dataFinal" json:"dataFinal" validate:"required,pncpdate"`
	IDUsuario                   *int   `form:"idUsuario" json:"idUsuario,omitempty"`
	CNPJ                        string `form:"cnpj" json:"cnpj,omitempty"`
	CodigoUnidadeAdministrativa string `form:"codigoUnidadeAdministrativa" json:"codigoUnidadeAdministrativa,omitempty"`
	Pagination
}

func (*AtaParams) Report() ReportType { return ReportAtas }

func (p *AtaParams) Query() url.Values {
	q := url.Values{}
	setString(q, "dataInicial", p.DataInicial)
	setString(q, "dataFinal", p.DataFinal)
	setInt(q, "idUsuario", p.IDUsuario)
	setString(q, "cnpj", p.CNPJ)
	setString(q, "codigoUnidadeAdministrativa", p.CodigoUnidadeAdministrativa)
	p.Pagination.addTo(q)
	return q
}

func setString(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func setInt(q url.Values, key string, value *int) {
	if value != nil {
		q.Set(key, strconv.Itoa(*value))
	}
}
