package routes_test

import (
	"time"

	"pncp/internal/config"
	"pncp/internal/pkg/pncp"
	"pncp/internal/routes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NewUpstream", func() {
	var cfg *config.Config

	BeforeEach(func() {
		cfg = &config.Config{
			PncpBaseURL:         pncp.DefaultBaseURL,
			PncpBreakerCooldown: time.Minute,
		}
	})

	It("wraps the client in a circuit breaker", func() {
		cfg.PncpBreakerFailures = 5

		Expect(routes.NewUpstream(cfg)).To(BeAssignableToTypeOf(&pncp.BreakerClient{}))
	})

	It("returns the bare client when the breaker is disabled", func() {
		cfg.PncpBreakerFailures = 0

		upstream := routes.NewUpstream(cfg)
		Expect(upstream).To(BeAssignableToTypeOf(&pncp.Client{}))
		Expect(upstream.(*pncp.Client).BaseURL()).To(Equal(pncp.DefaultBaseURL))
	})
})
