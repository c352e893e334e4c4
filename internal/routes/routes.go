package routes

import (
	"net/http"

	"github.com/medsport/attachments/internal/app"
	"github.com/medsport/attachments/internal/handler"
	"github.com/medsport/attachments/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	attachments := handler.NewAttachmentHandler(app.AttachmentService, app.Cfg.UploadMaxSize)

	// Mutations need an actor when AUTH_REQUIRED is set; reads never do
	requireActor := middleware.RequireActor(app.Cfg.AuthRequired)
	crossOrigin := middleware.CrossOrigin(app.Cfg.CORSAllowedOrigin)
	uploadLimit := middleware.RateLimitUploads(app.Cfg.UploadRateLimit, app.Cfg.UploadRateWindow)

	mux := http.NewServeMux()

	// ============================================================================
	// OPERATIONS
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	// ============================================================================
	// ATTACHMENTS
	// ============================================================================

	// Collection level (literal segments win over {id})
	mux.HandleFunc("POST /attachments/upload", uploadLimit(requireActor(attachments.Upload)))
	mux.HandleFunc("GET /attachments/stats", attachments.Stats)
	mux.HandleFunc("GET /attachments/vocabulary", attachments.Vocabulary)
	mux.HandleFunc("GET /attachments/entity/{entity_type}/{entity_id}", attachments.ListForEntity)

	// Records
	mux.HandleFunc("GET /attachments/{id}", attachments.Get)
	mux.HandleFunc("PUT /attachments/{id}", requireActor(attachments.Update))
	mux.HandleFunc("GET /attachments/{id}/verify", attachments.Verify)

	// Bytes (optional actor so links open directly in a browser tab)
	mux.HandleFunc("GET /attachments/{id}/download", attachments.Download)
	mux.HandleFunc("GET /attachments/{id}/view", crossOrigin(attachments.View))
	mux.HandleFunc("OPTIONS /attachments/{id}/view", crossOrigin(attachments.View))

	// Lifecycle
	mux.HandleFunc("DELETE /attachments/{id}/soft", requireActor(attachments.SoftDelete))
	mux.HandleFunc("DELETE /attachments/{id}/hard", requireActor(attachments.HardDelete))
	mux.HandleFunc("POST /attachments/{id}/restore", requireActor(attachments.Restore))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/{path...}", handler.NotFound)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.SecurityHeaders,
		middleware.Actor(app.AuthService),
		middleware.RequestLogging, // Innermost so it sees the matched route pattern
	)

	return handler
}
