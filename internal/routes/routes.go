package routes

import (
	"pncp/internal/config"
	"pncp/internal/controllers"
	"pncp/internal/pkg/pncp"
	"pncp/internal/store"
	"pncp/internal/tasks"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Dependencies are the collaborators the HTTP surface borrows. Queue is nil
// when no Redis queue is configured.
type Dependencies struct {
	DB       *gorm.DB
	Config   *config.Config
	Upstream tasks.Upstream
	Queue    controllers.Enqueuer
}

// SetupRouter wires the production dependencies for cfg.
func SetupRouter(db *gorm.DB, cfg *config.Config, queue controllers.Enqueuer) *gin.Engine {
	return NewRouter(Dependencies{
		DB:       db,
		Config:   cfg,
		Upstream: NewUpstream(cfg),
		Queue:    queue,
	})
}

// NewUpstream builds the PNCP client with the rate limit and circuit breaker from cfg.
func NewUpstream(cfg *config.Config) pncp.Fetcher {
	client := pncp.New(cfg.PncpBaseURL, cfg.PncpHTTPTimeout, pncp.WithRateLimit(cfg.PncpRateLimit))
	return pncp.NewBreakerClient(client, cfg.PncpBreakerFailures, cfg.PncpBreakerCooldown)
}

// NewRouter initializes all services, controllers, and API routes
func NewRouter(deps Dependencies) *gin.Engine {
	st := store.New(deps.DB)
	processor := tasks.NewTaskProcessor(deps.Upstream, st, deps.Config)

	contratacoesController := controllers.ContratacoesController{Syncer: processor}
	domainController := controllers.DomainController{Store: st}
	callsController := controllers.CallsController{Log: st}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		// On-demand sync: fetch one PNCP page, mirror it, return the envelope
		contratacoes := api.Group("/contratacoes")
		{
			contratacoes.GET("/historico", contratacoesController.Historico)
			contratacoes.GET("/oportunidades", contratacoesController.Oportunidades)
			contratacoes.GET("/atas", contratacoesController.Atas)
		}

		domain := api.Group("/domain")
		{
			domain.GET("/modalidades", domainController.Modalidades)
			domain.GET("/modos-disputa", domainController.ModosDisputa)
			domain.GET("/situacoes", domainController.Situacoes)
		}

		api.GET("/chamadas", callsController.Recent)

		if deps.Queue != nil {
			syncController := controllers.SyncController{Queue: deps.Queue}

			sync := api.Group("/sync")
			{
				sync.POST("/batch", syncController.EnqueueBatch)
				sync.POST("/reports/:report", syncController.EnqueueTarget)
			}
		}
	}

	return router
}
