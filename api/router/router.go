package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"viral-recipes/api/handlers"
	"viral-recipes/api/middleware"
	_ "viral-recipes/docs"
	"viral-recipes/services"
)

// Deps 는 라우터가 노출하는 서비스다. Health 가 nil 이면 항상 ok 로 응답한다.
type Deps struct {
	Recipes *services.RecipeService
	Pending *services.PendingService
	System  *services.SystemService
	APIKey  string
	Health  func(ctx context.Context) error
}

func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestTrace())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		if d.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
			defer cancel()
			if err := d.Health(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "store": "down", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// v1 routes
	api := r.Group("/api/v1")
	{
		api.GET("/status", handlers.StatusHandler(d.System))
		api.GET("/cycles", handlers.ListCyclesHandler(d.System))

		api.GET("/recipes", handlers.ListRecipesHandler(d.Recipes))
		api.GET("/recipes/top", handlers.TopRecipesHandler(d.Recipes))
		api.GET("/recipes/:slug", handlers.GetRecipeHandler(d.Recipes))

		api.GET("/pending", handlers.ListPendingHandler(d.Pending))

		admin := api.Group("", middleware.APIKeyAuth(d.APIKey))
		admin.POST("/system/start", handlers.StartSystemHandler(d.System))
		admin.POST("/system/stop", handlers.StopSystemHandler(d.System))
		admin.POST("/system/cycle", handlers.RunCycleHandler(d.System))
		admin.POST("/pending/:id/approve", handlers.ApprovePendingHandler(d.Pending))
		admin.POST("/pending/:id/reject", handlers.RejectPendingHandler(d.Pending))
	}

	return r
}

// WithCORS 는 허용 origin 목록으로 CORS 를 처리한다. 비어 있으면 모든 origin 을 허용한다.
func WithCORS(h http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}).Handler(h)
}
