package pncp_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"pncp/internal/apperrors"
	"pncp/internal/pkg/pncp"
	"pncp/internal/testhelpers"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const baseURL = "https://pncp.gov.br/api/consulta"

var _ = Describe("Client", func() {
	var (
		client *pncp.Client
		ctx    context.Context
	)

	historico := func() *pncp.HistoricoParams {
		return &pncp.HistoricoParams{
			DataInicial:                 "20241201",
			DataFinal:                   "20241231",
			CodigoModalidadeContratacao: 6,
			Pagination:                  pncp.Pagination{Pagina: 1, TamanhoPagina: 50},
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		client = pncp.New(baseURL+"/", 0)

		testhelpers.Activate()
		client.UseDefaultClient()
	})

	AfterEach(func() {
		testhelpers.Deactivate()
	})

	It("trims the trailing slash of the base url", func() {
		Expect(client.BaseURL()).To(Equal(baseURL))
	})

	It("falls back to the public endpoint", func() {
		Expect(pncp.New("", 0).BaseURL()).To(Equal(pncp.DefaultBaseURL))
	})

	It("fetches a page of historical contracts", func() {
		testhelpers.New(baseURL).
			Get("/api/consulta/v1/contratacoes/publicacao?dataInicial=20241201&dataFinal=20241231&codigoModalidadeContratacao=6&pagina=1&tamanhoPagina=50").
			Reply(200).
			BodyString(testhelpers.MustLoadFixture("historico.json")).
			Header("Content-Type", "application/json")

		page, err := client.FetchPage(ctx, historico())
		Expect(err).NotTo(HaveOccurred())
		Expect(testhelpers.IsDone()).To(BeTrue())

		Expect(page.TotalRegistros).To(Equal(2))
		Expect(page.TotalPaginas).To(Equal(1))
		Expect(page.NumeroPagina).To(Equal(1))
		Expect(page.PaginasRestantes).To(Equal(0))
		Expect(page.Empty).To(BeFalse())

		var data []map[string]any
		Expect(json.Unmarshal(page.Data, &data)).To(Succeed())
		Expect(data).To(HaveLen(2))
		Expect(data[0]["numeroControlePNCP"]).To(Equal("00394460005887-1-000001/2024"))
	})

	It("sends only the filters that are set", func() {
		uf := "SP"
		disputa := 1
		params := historico()
		params.UF = uf
		params.CodigoModoDisputa = &disputa

		q := params.Query()
		Expect(q.Get("uf")).To(Equal("SP"))
		Expect(q.Get("codigoModoDisputa")).To(Equal("1"))
		Expect(q.Has("cnpj")).To(BeFalse())
		Expect(q.Has("idUsuario")).To(BeFalse())
	})

	It("targets the path of each report", func() {
		testhelpers.New(baseURL).
			Get("/api/consulta/v1/contratacoes/proposta?dataFinal=20250131&codigoModalidadeContratacao=8").
			Reply(200).
			BodyString(testhelpers.MustLoadFixture("oportunidades.json"))

		testhelpers.New(baseURL).
			Get("/api/consulta/v1/atas?dataInicial=20241201&dataFinal=20241231").
			Reply(200).
			BodyString(testhelpers.MustLoadFixture("atas.json"))

		_, err := client.FetchPage(ctx, &pncp.OportunidadeParams{
			DataFinal:                   "20250131",
			CodigoModalidadeContratacao: 8,
			Pagination:                  pncp.Pagination{Pagina: 1, TamanhoPagina: 50},
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = client.FetchPage(ctx, &pncp.AtaParams{
			DataInicial: "20241201",
			DataFinal:   "20241231",
			Pagination:  pncp.Pagination{Pagina: 1, TamanhoPagina: 50},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(testhelpers.IsDone()).To(BeTrue())
	})

	It("treats 204 as an empty page", func() {
		testhelpers.New(baseURL).
			Get("/api/consulta/v1/contratacoes/publicacao").
			Reply(http.StatusNoContent)

		page, err := client.FetchPage(ctx, historico())
		Expect(err).NotTo(HaveOccurred())
		Expect(page.Empty).To(BeTrue())
		Expect(string(page.Data)).To(Equal("[]"))
		Expect(page.NumeroPagina).To(Equal(1))
	})

	It("turns a null data field into an empty list", func() {
		testhelpers.New(baseURL).
			Get("/api/consulta/v1/contratacoes/publicacao").
			Reply(200).
			BodyString(`{"data":null,"totalRegistros":0,"totalPaginas":0,"numeroPagina":1,"paginasRestantes":0,"empty":true}`)

		page, err := client.FetchPage(ctx, historico())
		Expect(err).NotTo(HaveOccurred())
		Expect(string(page.Data)).To(Equal("[]"))
	})

	DescribeTable("upstream failures",
		func(status int, body string, wantStatus int, wantMessage string) {
			testhelpers.New(baseURL).
				Get("/api/consulta/v1/contratacoes/publicacao").
				Reply(status).
				BodyString(body)

			_, err := client.FetchPage(ctx, historico())

			var upstreamErr *apperrors.UpstreamError
			Expect(errors.As(err, &upstreamErr)).To(BeTrue())
			Expect(upstreamErr.Status).To(Equal(wantStatus))
			Expect(upstreamErr.Message).To(Equal(wantMessage))
		},
		Entry("message field", 400, `{"status":400,"error":"Bad Request","message":"Data inicial inválida"}`, 400, "Data inicial inválida"),
		Entry("error field only", 422, `{"error":"Unprocessable"}`, 422, "Unprocessable"),
		Entry("non-JSON body", 500, `<html>oops</html>`, 500, "HTTP 500: Internal Server Error"),
		Entry("empty body", 503, ``, 503, "HTTP 503: Service Unavailable"),
		Entry("malformed envelope", 200, `{"data": [`, 502, "Resposta inválida da API do PNCP"),
	)

	It("keeps upstream details", func() {
		testhelpers.New(baseURL).
			Get("/api/consulta/v1/contratacoes/publicacao").
			Reply(400).
			JSON(map[string]string{"message": "Parâmetro inválido", "details": "tamanhoPagina"})

		_, err := client.FetchPage(ctx, historico())

		var upstreamErr *apperrors.UpstreamError
		Expect(errors.As(err, &upstreamErr)).To(BeTrue())
		Expect(upstreamErr.Details).To(Equal("tamanhoPagina"))
		Expect(apperrors.HTTPStatus(err)).To(Equal(400))
	})

	It("reports transport failures as connection errors", func() {
		cause := errors.New("connection refused")
		testhelpers.New(baseURL).
			Get("/api/consulta/v1/contratacoes/publicacao").
			Fail(cause)

		_, err := client.FetchPage(ctx, historico())

		var upstreamErr *apperrors.UpstreamError
		Expect(errors.As(err, &upstreamErr)).To(BeTrue())
		Expect(upstreamErr.Status).To(Equal(500))
		Expect(upstreamErr.Message).To(Equal("Erro de conexão com a API do PNCP"))
		Expect(errors.Is(err, cause)).To(BeTrue())
	})
})
