package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/blueprintforge/blueprint-backend/config"
	httpapi "github.com/blueprintforge/blueprint-backend/internal/api/http"
	bphttp "github.com/blueprintforge/blueprint-backend/internal/blueprint/http"
	"github.com/blueprintforge/blueprint-backend/internal/blueprint/draft"
	"github.com/blueprintforge/blueprint-backend/internal/blueprint/generator"
	"github.com/blueprintforge/blueprint-backend/internal/blueprint/pipeline"
	"github.com/blueprintforge/blueprint-backend/internal/blueprint/qa"
	"github.com/blueprintforge/blueprint-backend/internal/blueprint/repository"
	"github.com/blueprintforge/blueprint-backend/internal/blueprint/upload"
	"github.com/blueprintforge/blueprint-backend/internal/blueprint/wizard"
	"github.com/blueprintforge/blueprint-backend/internal/middleware"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	Upstream    config.UpstreamConfig
	APIKey      string
	AdminKey    string
	Origins     []string
	DB          *pgxpool.Pool
	Redis       *redis.Client
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     dep.Origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-API-Key", "X-User-Id", "X-Admin-Key", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	api.Use(middleware.APIKeyMiddleware(dep.APIKey))
	api.Use(middleware.RequestIDMiddleware())

	projectRepo := repository.NewProjectRepository(dep.DB)
	leadRepo := repository.NewLeadRepository(dep.DB)
	drafts := draft.NewStore(dep.Redis)

	orchestrator := pipeline.NewOrchestrator(
		generator.NewClient(dep.Upstream.GeneratorURL),
		qa.NewReconciler(reviewerFor(dep.Upstream.ReviewerURL)),
		projectRepo,
		drafts,
		leadRepo,
		nil,
	)
	orchestrator.StackHints = wizard.StackHints

	handler := bphttp.New(orchestrator, drafts, projectRepo, upload.NewClient(dep.Upstream.UploadURL), dep.AdminKey)
	handler.Register(api)

	return r
}

func reviewerFor(url string) qa.Reviewer {
	if url == "" {
		return nil
	}
	return qa.NewClient(url)
}
