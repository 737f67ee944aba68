package routes

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/api/controllers"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/api/middleware"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/internal/documents"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/internal/listings"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/internal/notifications"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/internal/uploads"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/config"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/logger"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/metrics"
)

const megabyte = 1 << 20

// Services are the domain services the router exposes.
type Services struct {
	Uploads       uploads.Service
	Listings      listings.Service
	Documents     documents.Service
	Notifications notifications.Service
}

// Infra carries the process-level collaborators. Nil pingers are skipped by
// the readiness probe.
type Infra struct {
	Registry  *prometheus.Registry
	RateStore middleware.RateStore
	Pingers   map[string]controllers.Pinger
}

func NewRouter(cfg *config.Config, logg *logger.Logger, svc Services, infra Infra) http.Handler {
	r := chi.NewRouter()

	var httpMetrics *metrics.HTTPMetrics
	if infra.Registry != nil {
		httpMetrics = metrics.NewHTTPMetrics(infra.Registry)
	}
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		httpMetrics.Middleware,
		middleware.Logging(logg),
	)

	uploadLimits := controllers.UploadLimits{
		MaxMemory: int64(cfg.Uploads.MaxMultipartMemoryM) * megabyte,
		MaxBody:   uploads.LimitsFrom(cfg.Uploads).MaxRequestBytes(),
	}
	uploadPolicy := middleware.RateLimitPolicy{
		Name:   "uploads",
		Window: cfg.RateLimit.UploadWindow,
		Limit:  cfg.RateLimit.UploadLimit,
	}
	uploadLimit := middleware.RateLimit(uploadPolicy, infra.RateStore, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, infra.Pingers))
	})

	if infra.Registry != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(infra.Registry))
	}

	mountLocalFiles(r, cfg.Storage)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.With(
			middleware.RequireRole(logg, enums.RoleProvider, enums.RoleAdmin),
			uploadLimit,
		).Post("/uploads", controllers.UploadFiles(svc.Uploads, uploadLimits, logg))

		r.Route("/listings", func(r chi.Router) {
			r.Get("/", controllers.SearchListings(svc.Listings, logg))
			r.Route("/{listingId}", func(r chi.Router) {
				r.Get("/", controllers.GetListing(svc.Listings, logg))
				r.With(middleware.RequireRole(logg, enums.RoleProvider, enums.RoleAdmin)).
					Get("/documents", controllers.ListListingDocuments(svc.Documents, logg))
				r.With(
					middleware.RequireRole(logg, enums.RoleProvider, enums.RoleAdmin),
					uploadLimit,
				).Post("/files", controllers.UploadListingFiles(svc.Listings, uploadLimits, logg))
				r.With(
					middleware.RequireRole(logg, enums.RoleProvider, enums.RoleAdmin),
					uploadLimit,
				).Put("/images", controllers.ReplaceListingImages(svc.Listings, uploadLimits, logg))
			})
		})

		r.With(middleware.RequireRole(logg, enums.RoleProvider, enums.RoleAdmin)).
			Delete("/documents/{documentId}", controllers.DeleteDocument(svc.Documents, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svc.Notifications, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(svc.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svc.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svc.Notifications, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.RoleAdmin))

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", controllers.AdminListDocuments(svc.Documents, logg))
			r.Get("/stats", controllers.AdminDocumentStats(svc.Documents, logg))
			r.Patch("/{documentId}/verify", controllers.AdminVerifyDocument(svc.Documents, logg))
		})
	})

	return r
}

// mountLocalFiles serves the local upload root when its public base is a path
// on this server rather than an external origin.
func mountLocalFiles(r chi.Router, cfg config.StorageConfig) {
	base := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	root := strings.TrimSpace(cfg.UploadRoot)
	if base == "" || root == "" || !strings.HasPrefix(base, "/") {
		return
	}
	files := http.StripPrefix(base, http.FileServer(http.Dir(root)))
	r.Handle(base+"/*", files)
}
