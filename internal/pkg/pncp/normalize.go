package pncp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pncp/internal/apperrors"
	"pncp/internal/logging"
	"pncp/internal/models"

	"gorm.io/datatypes"
)

// PNCP timestamps carry no zone; they are Brasília local time (no DST since 2019).
var brasilia = time.FixedZone("BRT", -3*60*60)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	dateLayout,
}

// Normalize maps the data array of a page into records of the report's variant.
// Output order follows input order. Only a data value that is not an array is an
// error; elements that cannot be decoded or carry no control number are skipped.
func Normalize(rt ReportType, data json.RawMessage) ([]models.Record, error) {
	elems, err := splitArray(data)
	if err != nil {
		return nil, &apperrors.UpstreamError{
			Status:  http.StatusBadGateway,
			Message: "Formato inesperado na resposta da API do PNCP",
			Err:     fmt.Errorf("normalize %s: %w", rt, err),
		}
	}

	out := make([]models.Record, 0, len(elems))

	switch rt {
	case ReportHistorico:
		for i, raw := range elems {
			var item compraItem
			if err := json.Unmarshal(raw, &item); err != nil || item.NumeroControlePNCP == "" {
				skip(rt, i, err)
				continue
			}
			out = append(out, &models.Contratacao{
				NumeroControlePNCP: item.NumeroControlePNCP,
				Compra:             item.toCompra(),
				RawData:            datatypes.JSON(raw),
			})
		}

	case ReportOportunidades:
		for i, raw := range elems {
			var item oportunidadeItem
			if err := json.Unmarshal(raw, &item); err != nil || item.NumeroControlePNCP == "" {
				skip(rt, i, err)
				continue
			}
			out = append(out, &models.OportunidadeAberta{
				NumeroControlePNCP:     item.NumeroControlePNCP,
				Compra:                 item.toCompra(),
				DataAtualizacaoGlobal:  item.DataAtualizacaoGlobal.time(),
				LinkProcessoEletronico: item.LinkProcessoEletronico,
				RawData:                datatypes.JSON(raw),
			})
		}

	case ReportAtas:
		for i, container := range elems {
			atas, err := unwrapAtas(container)
			if err != nil {
				skip(rt, i, err)
				continue
			}
			for j, raw := range atas {
				var item ataItem
				if err := json.Unmarshal(raw, &item); err != nil || item.NumeroControlePNCPAta == "" {
					skip(rt, j, err)
					continue
				}
				out = append(out, item.toModel(raw))
			}
		}

	default:
		return nil, fmt.Errorf("normalize: unknown report type %d", int(rt))
	}

	return out, nil
}

func splitArray(data json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] != '[' {
		return nil, fmt.Errorf("data is not an array")
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, err
	}
	return elems, nil
}

// unwrapAtas returns the nested list of a price-registration container. A
// container without a usable list yields nothing.
func unwrapAtas(container json.RawMessage) ([]json.RawMessage, error) {
	var c struct {
		Atas json.RawMessage `json:"Atas"`
	}
	if err := json.Unmarshal(container, &c); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(c.Atas)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, nil
	}

	var atas []json.RawMessage
	if err := json.Unmarshal(trimmed, &atas); err != nil {
		return nil, err
	}
	return atas, nil
}

func skip(rt ReportType, index int, err error) {
	ev := logging.Warn().Str("report", rt.String()).Int("index", index)
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("skipping element without a usable control number")
}

// flexString decodes a JSON string or number; PNCP is not consistent about codes.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func (f *flexString) ptr() *string {
	if f == nil {
		return nil
	}
	s := string(*f)
	return &s
}

// time parses the date forms PNCP uses. Anything unparseable becomes nil.
func (f *flexString) time() *time.Time {
	if f == nil || *f == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, string(*f), brasilia); err == nil {
			return &t
		}
	}
	return nil
}

// flexInt, flexFloat and flexBool accept the value as a JSON literal or as a
// string. A value that cannot be read as the type is dropped instead of
// failing the whole element.
type flexInt struct {
	v  int
	ok bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	text, ok := scalarText(b)
	if !ok {
		return nil
	}
	if n, err := strconv.Atoi(text); err == nil {
		f.v, f.ok = n, true
	} else if x, err := parseDecimal(text); err == nil && x == math.Trunc(x) {
		f.v, f.ok = int(x), true
	}
	return nil
}

func (f flexInt) ptr() *int {
	if !f.ok {
		return nil
	}
	v := f.v
	return &v
}

type flexFloat struct {
	v  float64
	ok bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	text, ok := scalarText(b)
	if !ok {
		return nil
	}
	if x, err := parseDecimal(text); err == nil {
		f.v, f.ok = x, true
	}
	return nil
}

func (f flexFloat) ptr() *float64 {
	if !f.ok {
		return nil
	}
	v := f.v
	return &v
}

type flexBool struct {
	v  bool
	ok bool
}

func (f *flexBool) UnmarshalJSON(b []byte) error {
	text, ok := scalarText(b)
	if !ok {
		return nil
	}
	if v, err := strconv.ParseBool(strings.ToLower(text)); err == nil {
		f.v, f.ok = v, true
	}
	return nil
}

func (f flexBool) ptr() *bool {
	if !f.ok {
		return nil
	}
	v := f.v
	return &v
}

// scalarText returns the text of a JSON string, number or boolean.
func scalarText(b []byte) (string, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return "", false
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", false
		}
		return strings.TrimSpace(s), true
	}
	if b[0] == '{' || b[0] == '[' {
		return "", false
	}
	return string(b), true
}

// parseDecimal also reads a comma as the decimal separator ("1500,50").
func parseDecimal(text string) (float64, error) {
	x, err := strconv.ParseFloat(text, 64)
	if err == nil {
		return x, nil
	}
	if strings.Count(text, ",") == 1 && !strings.Contains(text, ".") {
		return strconv.ParseFloat(strings.Replace(text, ",", ".", 1), 64)
	}
	return 0, err
}

type orgao struct {
	Cnpj        *string     `json:"cnpj"`
	RazaoSocial *string     `json:"razaoSocial"`
	PoderID     *flexString `json:"poderId"`
	EsferaID    *flexString `json:"esferaId"`
}

type unidade struct {
	CodigoUnidade *flexString `json:"codigoUnidade"`
	NomeUnidade   *string     `json:"nomeUnidade"`
	CodigoIbge    *flexString `json:"codigoIbge"`
	MunicipioNome *string     `json:"municipioNome"`
	UfSigla       *string     `json:"ufSigla"`
	UfNome        *string     `json:"ufNome"`
}

type amparoLegal struct {
	Codigo    flexInt `json:"codigo"`
	Nome      *string `json:"nome"`
	Descricao *string `json:"descricao"`
}

type compraItem struct {
	NumeroControlePNCP                string       `json:"numeroControlePNCP"`
	NumeroCompra                      *flexString  `json:"numeroCompra"`
	AnoCompra                         flexInt      `json:"anoCompra"`
	Processo                          *string      `json:"processo"`
	TipoInstrumentoConvocatorioCodigo flexInt      `json:"tipoInstrumentoConvocatorioCodigo"`
	TipoInstrumentoConvocatorioNome   *string      `json:"tipoInstrumentoConvocatorioNome"`
	ModalidadeID                      flexInt      `json:"modalidadeId"`
	ModalidadeNome                    *string      `json:"modalidadeNome"`
	ModoDisputaID                     flexInt      `json:"modoDisputaId"`
	ModoDisputaNome                   *string      `json:"modoDisputaNome"`
	SituacaoCompraID                  flexInt      `json:"situacaoCompraId"`
	SituacaoCompraNome                *string      `json:"situacaoCompraNome"`
	ObjetoCompra                      *string      `json:"objetoCompra"`
	InformacaoComplementar            *string      `json:"informacaoComplementar"`
	SRP                               flexBool     `json:"srp"`
	AmparoLegal                       *amparoLegal `json:"amparoLegal"`
	ValorTotalEstimado                flexFloat    `json:"valorTotalEstimado"`
	ValorTotalHomologado              flexFloat    `json:"valorTotalHomologado"`
	DataAberturaProposta              *flexString  `json:"dataAberturaProposta"`
	DataEncerramentoProposta          *flexString  `json:"dataEncerramentoProposta"`
	DataPublicacaoPncp                *flexString  `json:"dataPublicacaoPncp"`
	DataInclusao                      *flexString  `json:"dataInclusao"`
	DataAtualizacao                   *flexString  `json:"dataAtualizacao"`
	SequencialCompra                  flexInt      `json:"sequencialCompra"`
	OrgaoEntidade                     *orgao       `json:"orgaoEntidade"`
	UnidadeOrgao                      *unidade     `json:"unidadeOrgao"`
	OrgaoSubRogado                    *orgao       `json:"orgaoSubRogado"`
	UnidadeSubRogada                  *unidade     `json:"unidadeSubRogada"`
	UsuarioNome                       *string      `json:"usuarioNome"`
	LinkSistemaOrigem                 *string      `json:"linkSistemaOrigem"`
	JustificativaPresencial           *string      `json:"justificativaPresencial"`
}

type oportunidadeItem struct {
	compraItem
	DataAtualizacaoGlobal  *flexString `json:"dataAtualizacaoGlobal"`
	LinkProcessoEletronico *string     `json:"linkProcessoEletronico"`
}

func (c *compraItem) toCompra() models.Compra {
	out := models.Compra{
		NumeroCompra:                    c.NumeroCompra.ptr(),
		AnoCompra:                       c.AnoCompra.ptr(),
		Processo:                        c.Processo,
		TipoInstrumentoConvocatorioID:   c.TipoInstrumentoConvocatorioCodigo.ptr(),
		TipoInstrumentoConvocatorioNome: c.TipoInstrumentoConvocatorioNome,
		ModalidadeID:                    c.ModalidadeID.ptr(),
		ModalidadeNome:                  c.ModalidadeNome,
		ModoDisputaID:                   c.ModoDisputaID.ptr(),
		ModoDisputaNome:                 c.ModoDisputaNome,
		SituacaoCompraID:                c.SituacaoCompraID.ptr(),
		SituacaoCompraNome:              c.SituacaoCompraNome,
		ObjetoCompra:                    c.ObjetoCompra,
		InformacaoComplementar:          c.InformacaoComplementar,
		SRP:                             c.SRP.ptr(),
		ValorTotalEstimado:              c.ValorTotalEstimado.ptr(),
		ValorTotalHomologado:            c.ValorTotalHomologado.ptr(),
		DataAberturaProposta:            c.DataAberturaProposta.time(),
		DataEncerramentoProposta:        c.DataEncerramentoProposta.time(),
		DataPublicacaoPncp:              c.DataPublicacaoPncp.time(),
		DataInclusao:                    c.DataInclusao.time(),
		DataAtualizacao:                 c.DataAtualizacao.time(),
		SequencialCompra:                c.SequencialCompra.ptr(),
		UsuarioNome:                     c.UsuarioNome,
		LinkSistemaOrigem:               c.LinkSistemaOrigem,
		JustificativaPresencial:         c.JustificativaPresencial,
	}

	if a := c.AmparoLegal; a != nil {
		out.AmparoLegalCodigo = a.Codigo.ptr()
		out.AmparoLegalNome = a.Nome
		out.AmparoLegalDescricao = a.Descricao
	}

	if o := c.OrgaoEntidade; o != nil {
		out.OrgaoEntidadeCnpj = o.Cnpj
		out.OrgaoEntidadeRazaoSocial = o.RazaoSocial
		out.OrgaoEntidadePoderID = o.PoderID.ptr()
		out.OrgaoEntidadeEsferaID = o.EsferaID.ptr()
	}

	if u := c.UnidadeOrgao; u != nil {
		out.UnidadeOrgaoCodigoUnidade = u.CodigoUnidade.ptr()
		out.UnidadeOrgaoNomeUnidade = u.NomeUnidade
		out.UnidadeOrgaoCodigoIbge = u.CodigoIbge.ptr()
		out.UnidadeOrgaoMunicipioNome = u.MunicipioNome
		out.UnidadeOrgaoUfSigla = u.UfSigla
		out.UnidadeOrgaoUfNome = u.UfNome
	}

	if o := c.OrgaoSubRogado; o != nil {
		out.OrgaoSubRogadoCnpj = o.Cnpj
		out.OrgaoSubRogadoRazaoSocial = o.RazaoSocial
		out.OrgaoSubRogadoPoderID = o.PoderID.ptr()
		out.OrgaoSubRogadoEsferaID = o.EsferaID.ptr()
	}

	if u := c.UnidadeSubRogada; u != nil {
		out.UnidadeSubRogadaCodigoUnidade = u.CodigoUnidade.ptr()
		out.UnidadeSubRogadaNomeUnidade = u.NomeUnidade
		out.UnidadeSubRogadaCodigoIbge = u.CodigoIbge.ptr()
		out.UnidadeSubRogadaMunicipioNome = u.MunicipioNome
		out.UnidadeSubRogadaUfSigla = u.UfSigla
		out.UnidadeSubRogadaUfNome = u.UfNome
	}

	return out
}

type ataItem struct {
	NumeroControlePNCPAta       string      `json:"numeroControlePNCPAta"`
	NumeroControlePNCPCompra    *string     `json:"numeroControlePNCPCompra"`
	NumeroAtaRegistroPreco      *flexString `json:"numeroAtaRegistroPreco"`
	AnoAta                      flexInt     `json:"anoAta"`
	DataAssinatura              *flexString `json:"dataAssinatura"`
	VigenciaInicio              *flexString `json:"vigenciaInicio"`
	VigenciaFim                 *flexString `json:"vigenciaFim"`
	DataCancelamento            *flexString `json:"dataCancelamento"`
	Cancelado                   flexBool    `json:"cancelado"`
	DataPublicacaoPncp          *flexString `json:"dataPublicacaoPncp"`
	DataInclusao                *flexString `json:"dataInclusao"`
	DataAtualizacao             *flexString `json:"dataAtualizacao"`
	ObjetoContratacao           *string     `json:"objetoContratacao"`
	CnpjOrgao                   *string     `json:"cnpjOrgao"`
	NomeOrgao                   *string     `json:"nomeOrgao"`
	CodigoUnidadeOrgao          *flexString `json:"codigoUnidadeOrgao"`
	NomeUnidadeOrgao            *string     `json:"nomeUnidadeOrgao"`
	CnpjOrgaoSubrogado          *string     `json:"cnpjOrgaoSubrogado"`
	NomeOrgaoSubrogado          *string     `json:"nomeOrgaoSubrogado"`
	CodigoUnidadeOrgaoSubrogado *flexString `json:"codigoUnidadeOrgaoSubrogado"`
	NomeUnidadeOrgaoSubrogado   *string     `json:"nomeUnidadeOrgaoSubrogado"`
	Usuario                     *string     `json:"usuario"`
}

func (a *ataItem) toModel(raw json.RawMessage) *models.AtaRegistroPreco {
	return &models.AtaRegistroPreco{
		NumeroControlePNCPAta:       a.NumeroControlePNCPAta,
		NumeroControlePNCPCompra:    a.NumeroControlePNCPCompra,
		NumeroAtaRegistroPreco:      a.NumeroAtaRegistroPreco.ptr(),
		AnoAta:                      a.AnoAta.ptr(),
		DataAssinatura:              a.DataAssinatura.time(),
		VigenciaInicio:              a.VigenciaInicio.time(),
		VigenciaFim:                 a.VigenciaFim.time(),
		DataCancelamento:            a.DataCancelamento.time(),
		Cancelado:                   a.Cancelado.ptr(),
		DataPublicacaoPncp:          a.DataPublicacaoPncp.time(),
		DataInclusao:                a.DataInclusao.time(),
		DataAtualizacao:             a.DataAtualizacao.time(),
		ObjetoContratacao:           a.ObjetoContratacao,
		CnpjOrgao:                   a.CnpjOrgao,
		NomeOrgao:                   a.NomeOrgao,
		CodigoUnidadeOrgao:          a.CodigoUnidadeOrgao.ptr(),
		NomeUnidadeOrgao:            a.NomeUnidadeOrgao,
		CnpjOrgaoSubrogado:          a.CnpjOrgaoSubrogado,
		NomeOrgaoSubrogado:          a.NomeOrgaoSubrogado,
		CodigoUnidadeOrgaoSubrogado: a.CodigoUnidadeOrgaoSubrogado.ptr(),
		NomeUnidadeOrgaoSubrogado:   a.NomeUnidadeOrgaoSubrogado,
		Usuario:                     a.Usuario,
		RawData:                     datatypes.JSON(raw),
	}
}
