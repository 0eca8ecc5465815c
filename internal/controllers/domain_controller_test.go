package controllers_test

import (
	"context"
	"encoding/json"
	"net/http"

	"pncp/internal/db"
	"pncp/internal/models"
	"pncp/internal/testhelpers"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("DomainController", func() {
	var (
		dbConn *gorm.DB
		router *gin.Engine
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)

		dbConn = testhelpers.OpenTestDB()
		Expect(db.SeedDomainTables(context.Background(), dbConn)).To(Succeed())
		Expect(dbConn.Model(&models.ModoDisputa{}).Where("id = ?", 5).Update("ativo", false).Error).To(Succeed())

		router = newRouter(dbConn)
	})

	It("lists active modalities by name", func() {
		resp := get(router, "/api/domain/modalidades")
		Expect(resp.Code).To(Equal(http.StatusOK))

		var rows []models.ModalidadeContratacao
		Expect(json.Unmarshal(resp.Body.Bytes(), &rows)).To(Succeed())
		Expect(rows).To(HaveLen(13))
		Expect(rows[0].Nome).To(Equal("Concorrência - Eletrônica"))
		Expect(rows[0].Ativo).To(BeTrue())
	})

	It("leaves inactive dispute modes out", func() {
		resp := get(router, "/api/domain/modos-disputa")
		Expect(resp.Code).To(Equal(http.StatusOK))

		var rows []models.ModoDisputa
		Expect(json.Unmarshal(resp.Body.Bytes(), &rows)).To(Succeed())
		Expect(rows).To(HaveLen(5))
		for _, r := range rows {
			Expect(r.Nome).NotTo(Equal("Não se aplica"))
		}
	})

	It("lists contracting statuses", func() {
		resp := get(router, "/api/domain/situacoes")
		Expect(resp.Code).To(Equal(http.StatusOK))

		var rows []models.SituacaoContratacao
		Expect(json.Unmarshal(resp.Body.Bytes(), &rows)).To(Succeed())
		Expect(rows).To(HaveLen(4))
	})

	It("reports storage failures", func() {
		Expect(db.Close(dbConn)).To(Succeed())

		resp := get(router, "/api/domain/situacoes")
		Expect(resp.Code).To(Equal(http.StatusInternalServerError))
		Expect(errorBody(resp)).To(Equal("Erro ao buscar situações de contratação"))
	})
})

var _ = Describe("health", func() {
	It("answers UP", func() {
		router := newRouter(nil)

		resp := get(router, "/health")
		Expect(resp.Code).To(Equal(http.StatusOK))
		Expect(resp.Body.String()).To(MatchJSON(`{"status":"UP"}`))
		Expect(resp.Header().Get("X-Request-ID")).NotTo(BeEmpty())
	})

	It("exposes prometheus metrics", func() {
		resp := get(newRouter(nil), "/metrics")
		Expect(resp.Code).To(Equal(http.StatusOK))
		Expect(resp.Body.String()).To(ContainSubstring("go_goroutines"))
	})
})
