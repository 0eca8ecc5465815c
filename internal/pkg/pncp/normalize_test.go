package pncp_test

import (
	"encoding/json"
	"errors"
	"time"

	"pncp/internal/apperrors"
	"pncp/internal/models"
	"pncp/internal/pkg/pncp"
	"pncp/internal/testhelpers"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func fixtureData(name string) json.RawMessage {
	var page pncp.Page
	Expect(json.Unmarshal([]byte(testhelpers.MustLoadFixture(name)), &page)).To(Succeed())
	return page.Data
}

var brt = time.FixedZone("BRT", -3*60*60)

var _ = Describe("Normalize", func() {
	Context("historical contracts", func() {
		var records []models.Record

		BeforeEach(func() {
			var err error
			records, err = pncp.Normalize(pncp.ReportHistorico, fixtureData("historico.json"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("keeps input order", func() {
			Expect(records).To(HaveLen(2))
			Expect(records[0].NaturalKey()).To(Equal("00394460005887-1-000001/2024"))
			Expect(records[1].NaturalKey()).To(Equal("46634044000174-1-000123/2024"))
			Expect(records[0].NaturalKeyColumn()).To(Equal("numero_controle_pncp"))
		})

		It("flattens nested blocks", func() {
			c, ok := records[0].(*models.Contratacao)
			Expect(ok).To(BeTrue())

			Expect(*c.ObjetoCompra).To(Equal("Aquisição de material de expediente"))
			Expect(*c.ModalidadeID).To(Equal(6))
			Expect(*c.SRP).To(BeTrue())
			Expect(*c.AmparoLegalCodigo).To(Equal(1))
			Expect(*c.ValorTotalEstimado).To(Equal(15000.5))
			Expect(c.ValorTotalHomologado).To(BeNil())
			Expect(*c.OrgaoEntidadeCnpj).To(Equal("00394460005887"))
			Expect(*c.OrgaoEntidadeRazaoSocial).To(Equal("MINISTERIO DA FAZENDA"))
			Expect(*c.UnidadeOrgaoUfSigla).To(Equal("DF"))
			Expect(*c.OrgaoSubRogadoCnpj).To(Equal("00394460000141"))
			Expect(*c.UnidadeSubRogadaNomeUnidade).To(Equal("SUBSECRETARIA"))
		})

		It("parses PNCP dates as Brasília time", func() {
			c := records[0].(*models.Contratacao)
			Expect(*c.DataAberturaProposta).To(BeTemporally("==", time.Date(2024, 12, 2, 8, 0, 0, 0, brt)))
			Expect(*c.DataAtualizacao).To(BeTemporally("==", time.Date(2024, 12, 1, 9, 30, 0, 123000000, brt)))

			second := records[1].(*models.Contratacao)
			Expect(*second.DataPublicacaoPncp).To(BeTemporally("==", time.Date(2024, 12, 20, 0, 0, 0, 0, brt)))
			Expect(second.DataAberturaProposta).To(BeNil())
		})

		It("leaves absent sub-rogated blocks empty", func() {
			c := records[1].(*models.Contratacao)
			Expect(c.OrgaoSubRogadoCnpj).To(BeNil())
			Expect(c.OrgaoSubRogadoRazaoSocial).To(BeNil())
			Expect(c.UnidadeSubRogadaCodigoUnidade).To(BeNil())
			Expect(c.AmparoLegalNome).To(BeNil())
		})

		It("accepts numeric unit and IBGE codes", func() {
			c := records[1].(*models.Contratacao)
			Expect(*c.UnidadeOrgaoCodigoUnidade).To(Equal("1"))
			Expect(*c.UnidadeOrgaoCodigoIbge).To(Equal("3509502"))
		})

		It("keeps the element verbatim", func() {
			c := records[1].(*models.Contratacao)

			var raw map[string]any
			Expect(json.Unmarshal(c.RawData, &raw)).To(Succeed())
			Expect(raw).To(HaveKeyWithValue("usuarioNome", "BLL Compras"))
			Expect(raw).To(HaveKey("orgaoSubRogado"))
		})
	})

	It("maps open opportunities with their extra fields", func() {
		records, err := pncp.Normalize(pncp.ReportOportunidades, fixtureData("oportunidades.json"))
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(1))

		o, ok := records[0].(*models.OportunidadeAberta)
		Expect(ok).To(BeTrue())
		Expect(o.NumeroControlePNCP).To(Equal("08241739000105-1-000045/2025"))
		Expect(*o.LinkProcessoEletronico).To(Equal("https://www.gov.br/compras/pt-br"))
		Expect(*o.DataAtualizacaoGlobal).To(BeTemporally("==", time.Date(2025, 1, 9, 14, 22, 31, 0, brt)))
		Expect(*o.ModoDisputaNome).To(Equal("Dispensa Com Disputa"))
	})

	Context("price registration", func() {
		It("unwraps every container in order", func() {
			records, err := pncp.Normalize(pncp.ReportAtas, fixtureData("atas.json"))
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(3))

			keys := make([]string, 0, len(records))
			for _, r := range records {
				Expect(r.NaturalKeyColumn()).To(Equal("numero_controle_pncp_ata"))
				keys = append(keys, r.NaturalKey())
			}
			Expect(keys).To(Equal([]string{
				"00394460005887-1-000001/2024-000001",
				"00394460005887-1-000001/2024-000002",
				"46634044000174-1-000077/2024-000001",
			}))

			second := records[1].(*models.AtaRegistroPreco)
			Expect(*second.NumeroAtaRegistroPreco).To(Equal("2"))
			Expect(*second.CodigoUnidadeOrgao).To(Equal("170001"))
			Expect(second.DataAssinatura).To(BeNil())

			third := records[2].(*models.AtaRegistroPreco)
			Expect(*third.Cancelado).To(BeTrue())
			Expect(*third.NomeOrgaoSubrogado).To(Equal("SERVICOS TECNICOS GERAIS"))
			Expect(*third.NumeroControlePNCPCompra).To(Equal("46634044000174-1-000077/2024"))
		})

		DescribeTable("containers without records",
			func(data string) {
				records, err := pncp.Normalize(pncp.ReportAtas, json.RawMessage(data))
				Expect(err).NotTo(HaveOccurred())
				Expect(records).To(BeEmpty())
			},
			Entry("empty list", `[{"Atas": []}]`),
			Entry("missing list", `[{"outro": 1}]`),
			Entry("list is not an array", `[{"Atas": {"x": 1}}]`),
			Entry("no containers", `[]`),
		)
	})

	It("returns nothing for null data", func() {
		records, err := pncp.Normalize(pncp.ReportHistorico, json.RawMessage("null"))
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(BeEmpty())
	})

	It("skips elements that are not objects or have no control number", func() {
		data := `[1, {"objetoCompra": "sem número"}, {"numeroControlePNCP": "X-1"}]`

		records, err := pncp.Normalize(pncp.ReportHistorico, json.RawMessage(data))
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(1))
		Expect(records[0].NaturalKey()).To(Equal("X-1"))
	})

	It("keeps records whose numeric fields arrive as strings or in the wrong shape", func() {
		data := `[{
			"numeroControlePNCP": "X-2",
			"anoCompra": "2024",
			"sequencialCompra": 45.0,
			"modalidadeId": "seis",
			"srp": "true",
			"valorTotalEstimado": "1500,50",
			"valorTotalHomologado": "2000.25",
			"situacaoCompraId": {"id": 1},
			"amparoLegal": {"codigo": "4", "nome": "Lei 14.133"}
		}]`

		records, err := pncp.Normalize(pncp.ReportHistorico, json.RawMessage(data))
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(1))

		c := records[0].(*models.Contratacao)
		Expect(*c.AnoCompra).To(Equal(2024))
		Expect(*c.SequencialCompra).To(Equal(45))
		Expect(c.ModalidadeID).To(BeNil())
		Expect(*c.SRP).To(BeTrue())
		Expect(*c.ValorTotalEstimado).To(Equal(1500.5))
		Expect(*c.ValorTotalHomologado).To(Equal(2000.25))
		Expect(c.SituacaoCompraID).To(BeNil())
		Expect(*c.AmparoLegalCodigo).To(Equal(4))
		Expect(*c.AmparoLegalNome).To(Equal("Lei 14.133"))
	})

	It("reads string flags and years on price registrations", func() {
		data := `[{"Atas": [{"numeroControlePNCPAta": "A-1", "anoAta": "2025", "cancelado": "false"}]}]`

		records, err := pncp.Normalize(pncp.ReportAtas, json.RawMessage(data))
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(1))

		ata := records[0].(*models.AtaRegistroPreco)
		Expect(*ata.AnoAta).To(Equal(2025))
		Expect(*ata.Cancelado).To(BeFalse())
	})

	It("rejects a payload that is not an array", func() {
		_, err := pncp.Normalize(pncp.ReportHistorico, json.RawMessage(`{"numeroControlePNCP": "X-1"}`))

		var upstreamErr *apperrors.UpstreamError
		Expect(errors.As(err, &upstreamErr)).To(BeTrue())
		Expect(upstreamErr.Status).To(Equal(502))
	})
})
