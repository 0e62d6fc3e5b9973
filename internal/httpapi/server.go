package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	otelgin "go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/ndoemo/dialogbrain/internal/models"
	"github.com/ndoemo/dialogbrain/internal/pipeline"
	"github.com/ndoemo/dialogbrain/internal/pkg/config"
)

// NewRouter builds the Gin engine exposing the /converse contract plus the
// admin/metrics/health endpoints. The middleware chain is explicit
// (gin.New(), not gin.Default()): every cross-cutting concern is added
// back by hand.
func NewRouter(engine *pipeline.Pipeline, admin *config.AdminStore, adminToken string, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"ok": false, "error": "method_not_allowed"})
	})

	r.Use(loggerMiddleware(logger))
	r.Use(otelgin.Middleware("dialogbrain"))
	r.Use(recoveryMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/converse", converseHandler(engine))

	adminGroup := r.Group("/admin", adminAuth(adminToken))
	adminGroup.GET("/config", getAdminConfig(admin))
	adminGroup.PUT("/config", putAdminConfig(admin))

	return r
}

// converseHandler implements the request/response contract: a missing
// or malformed body maps to 400, an empty utterance maps to the 200
// ok=false "brak_tekstu" soft failure (the pipeline
// itself produces that response, this handler only distinguishes
// "couldn't parse JSON" from "parsed but empty").
func converseHandler(engine *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "missing_input"})
			return
		}

		resp := engine.HandleTurn(c.Request.Context(), req)
		c.JSON(http.StatusOK, resp)
	}
}

func getAdminConfig(admin *config.AdminStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, admin.Snapshot())
	}
}

// putAdminConfig applies a partial update: any field omitted from the
// request body keeps its current value, so a client can flip a single
// toggle (e.g. {"fallback_mode":"SIMPLE"}) without round-tripping the rest.
func putAdminConfig(admin *config.AdminStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch struct {
			TTSEnabled              *bool   `json:"tts_enabled"`
			DialogNavigationEnabled *bool   `json:"dialog_navigation_enabled"`
			FallbackMode            *string `json:"fallback_mode"`
			ExpertMode              *bool   `json:"expert_mode"`
		}
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid_body"})
			return
		}

		updated := admin.Update(func(cur config.AdminConfig) config.AdminConfig {
			if patch.TTSEnabled != nil {
				cur.TTSEnabled = *patch.TTSEnabled
			}
			if patch.DialogNavigationEnabled != nil {
				cur.DialogNavigationEnabled = *patch.DialogNavigationEnabled
			}
			if patch.FallbackMode != nil {
				cur.FallbackMode = *patch.FallbackMode
			}
			if patch.ExpertMode != nil {
				cur.ExpertMode = *patch.ExpertMode
			}
			return cur
		})
		c.JSON(http.StatusOK, updated)
	}
}
