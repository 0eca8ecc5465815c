package controllers_test

import (
	"context"
	"errors"
	"net/http"

	"pncp/internal/controllers"
	"pncp/internal/models"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeCallLog struct {
	limits []int
	err    error
}

func (l *fakeCallLog) RecentCalls(_ context.Context, limit int) ([]models.APIResponseMetadata, error) {
	l.limits = append(l.limits, limit)
	if l.err != nil {
		return nil, l.err
	}
	return []models.APIResponseMetadata{{Endpoint: "6.4"}}, nil
}

var _ = Describe("CallsController", func() {
	var (
		log    *fakeCallLog
		router *gin.Engine
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		log = &fakeCallLog{}
		cc := controllers.CallsController{Log: log}

		router = gin.New()
		router.GET("/api/chamadas", cc.Recent)
	})

	DescribeTable("limit handling",
		func(target string, want int) {
			resp := get(router, target)
			Expect(resp.Code).To(Equal(http.StatusOK))
			Expect(log.limits).To(Equal([]int{want}))
		},
		Entry("defaults to 20", "/api/chamadas", 20),
		Entry("honors an explicit limit", "/api/chamadas?limit=5", 5),
		Entry("falls back on garbage", "/api/chamadas?limit=abc", 20),
		Entry("falls back above the cap", "/api/chamadas?limit=501", 20),
		Entry("falls back on zero", "/api/chamadas?limit=0", 20),
	)

	It("answers 500 when the log cannot be read", func() {
		log.err = errors.New("connection refused")

		resp := get(router, "/api/chamadas")
		Expect(resp.Code).To(Equal(http.StatusInternalServerError))
		Expect(errorBody(resp)).To(Equal("Erro ao buscar chamadas"))
	})
})
