package store_test

import (
	"context"
	"encoding/json"
	"errors"

	"pncp/internal/apperrors"
	"pncp/internal/db"
	"pncp/internal/models"
	"pncp/internal/pkg/pncp"
	"pncp/internal/store"
	"pncp/internal/testhelpers"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func ptr[T any](v T) *T { return &v }

func contratacao(key, objeto string) *models.Contratacao {
	return &models.Contratacao{
		NumeroControlePNCP: key,
		Compra: models.Compra{
			ObjetoCompra:      ptr(objeto),
			OrgaoEntidadeCnpj: ptr("00394460005887"),
		},
		RawData: datatypes.JSON(`{"numeroControlePNCP":"` + key + `"}`),
	}
}

var _ = Describe("Store", func() {
	var (
		dbConn *gorm.DB
		s      *store.Store
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		dbConn = testhelpers.OpenTestDB()
		s = store.New(dbConn)
	})

	Describe("RecordCall", func() {
		It("stores the params as sent and the page counters", func() {
			params := &pncp.HistoricoParams{
				DataInicial:                 "20241201",
				DataFinal:                   "20241231",
				CodigoModalidadeContratacao: 6,
				Pagination:                  pncp.Pagination{Pagina: 1, TamanhoPagina: 50},
			}
			page := &pncp.Page{TotalRegistros: 120, TotalPaginas: 3, NumeroPagina: 1, PaginasRestantes: 2}

			meta, err := s.RecordCall(ctx, "6.3", params, page)
			Expect(err).NotTo(HaveOccurred())
			Expect(meta.ID).NotTo(BeZero())

			stored, err := gorm.G[models.APIResponseMetadata](dbConn).Where("id = ?", meta.ID).First(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Endpoint).To(Equal("6.3"))
			Expect(stored.TotalRegistros).To(Equal(120))
			Expect(stored.PaginasRestantes).To(Equal(2))
			Expect(stored.Empty).To(BeFalse())
			Expect(stored.ResponseTime).NotTo(BeZero())

			var sent map[string]any
			Expect(json.Unmarshal(stored.RequestParams, &sent)).To(Succeed())
			Expect(sent).To(HaveKeyWithValue("dataInicial", "20241201"))
			Expect(sent).To(HaveKeyWithValue("tamanhoPagina", BeNumerically("==", 50)))
		})
	})

	Describe("RecentCalls", func() {
		It("returns the newest calls first", func() {
			for _, marker := range []string{"6.3", "6.4", "6.5"} {
				_, err := s.RecordCall(ctx, marker, map[string]string{}, &pncp.Page{})
				Expect(err).NotTo(HaveOccurred())
			}

			calls, err := s.RecentCalls(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(calls).To(HaveLen(2))
			Expect(calls[0].Endpoint).To(Equal("6.5"))
			Expect(calls[1].Endpoint).To(Equal("6.4"))
		})
	})

	Describe("UpsertRecord", func() {
		It("keeps one row per control number holding the latest values", func() {
			Expect(s.UpsertRecord(ctx, contratacao("X-1", "primeira versão"))).To(Succeed())

			first, err := gorm.G[models.Contratacao](dbConn).Where("numero_controle_pncp = ?", "X-1").First(ctx)
			Expect(err).NotTo(HaveOccurred())

			second := contratacao("X-1", "segunda versão")
			second.OrgaoEntidadeCnpj = nil
			Expect(s.UpsertRecord(ctx, second)).To(Succeed())

			rows, err := gorm.G[models.Contratacao](dbConn).Where("numero_controle_pncp = ?", "X-1").Find(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(*rows[0].ObjetoCompra).To(Equal("segunda versão"))
			Expect(rows[0].OrgaoEntidadeCnpj).To(BeNil())
			Expect(rows[0].ID).To(Equal(first.ID))
			Expect(rows[0].CreatedAt).To(BeTemporally("~", first.CreatedAt))
		})

		It("persists records without sub-rogated blocks", func() {
			records, err := pncp.Normalize(pncp.ReportHistorico, json.RawMessage(`[{
				"numeroControlePNCP": "Y-1",
				"orgaoEntidade": {"cnpj": "1", "razaoSocial": "ORGAO"},
				"orgaoSubRogado": null
			}]`))
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))

			Expect(s.UpsertRecord(ctx, records[0])).To(Succeed())

			row, err := gorm.G[models.Contratacao](dbConn).Where("numero_controle_pncp = ?", "Y-1").First(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(*row.OrgaoEntidadeRazaoSocial).To(Equal("ORGAO"))
			Expect(row.OrgaoSubRogadoCnpj).To(BeNil())
			Expect(row.UnidadeSubRogadaNomeUnidade).To(BeNil())
		})

		It("upserts price registration records by their own key", func() {
			ata := &models.AtaRegistroPreco{
				NumeroControlePNCPAta:    "A-1",
				NumeroControlePNCPCompra: ptr("X-1"),
				Cancelado:                ptr(false),
			}
			Expect(s.UpsertRecord(ctx, ata)).To(Succeed())

			Expect(s.UpsertRecord(ctx, &models.AtaRegistroPreco{
				NumeroControlePNCPAta:    "A-1",
				NumeroControlePNCPCompra: ptr("X-1"),
				Cancelado:                ptr(true),
			})).To(Succeed())

			rows, err := gorm.G[models.AtaRegistroPreco](dbConn).Where("numero_controle_pncp_ata = ?", "A-1").Find(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(*rows[0].Cancelado).To(BeTrue())
		})
	})

	Describe("UpsertRecords", func() {
		It("writes the rest of the batch when one record fails", func() {
			broken := contratacao("X-2", "inválido")
			broken.RawData = datatypes.JSON("not json")

			written, err := s.UpsertRecords(ctx, []models.Record{
				contratacao("X-1", "um"),
				broken,
				contratacao("X-3", "três"),
			})
			Expect(written).To(Equal(2))

			var storageErr *apperrors.StorageError
			Expect(errors.As(err, &storageErr)).To(BeTrue())
			Expect(storageErr.Code).To(Equal("22P02"))
			Expect(err.Error()).To(ContainSubstring("X-2"))
			Expect(err.Error()).To(ContainSubstring("22P02"))

			count, err := gorm.G[models.Contratacao](dbConn).Count(ctx, "id")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(2)))
		})

		It("lets the last duplicate in a batch win", func() {
			written, err := s.UpsertRecords(ctx, []models.Record{
				contratacao("X-1", "antes"),
				contratacao("X-1", "depois"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(written).To(Equal(2))

			row, err := gorm.G[models.Contratacao](dbConn).Where("numero_controle_pncp = ?", "X-1").First(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(*row.ObjetoCompra).To(Equal("depois"))
		})
	})

	Describe("reference reads", func() {
		BeforeEach(func() {
			Expect(db.SeedDomainTables(ctx, dbConn)).To(Succeed())
			Expect(dbConn.Model(&models.ModalidadeContratacao{}).Where("id = ?", 2).Update("ativo", false).Error).To(Succeed())
		})

		It("returns active modalities by id, capped", func() {
			rows, err := s.ActiveModalidades(ctx, 5)
			Expect(err).NotTo(HaveOccurred())

			ids := make([]int, 0, len(rows))
			for _, r := range rows {
				ids = append(ids, r.ID)
			}
			Expect(ids).To(Equal([]int{1, 3, 4, 5, 6}))
		})

		It("returns every active modality without a cap", func() {
			rows, err := s.ActiveModalidades(ctx, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(12))
		})

		It("lists reference rows by name", func() {
			modalidades, err := s.ListModalidades(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(modalidades).To(HaveLen(12))
			Expect(modalidades[0].Nome).To(Equal("Concorrência - Eletrônica"))

			modos, err := s.ListModosDisputa(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(modos[0].Nome).To(Equal("Aberto"))

			situacoes, err := s.ListSituacoes(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(situacoes).To(HaveLen(4))
			Expect(situacoes[0].Nome).To(Equal("Anulada"))
		})
	})
})
