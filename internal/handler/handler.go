package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maxviazov/author-feed-service/internal/i18n"
	"github.com/maxviazov/author-feed-service/internal/middleware"
	"github.com/maxviazov/author-feed-service/internal/service"
)

// Deps are the collaborators the HTTP layer needs. Nil services leave their routes unmounted.
type Deps struct {
	DB    Pinger
	Cache Pinger

	Posts   service.PostService
	Authors service.AuthorService
	Follows service.FollowService

	Auth          *middleware.Auth
	Translator    *i18n.Translator
	FollowLimiter *middleware.RateLimiter
}

// BindingValidator returns the validator gin uses for request binding, so translations
// registered on it apply to ShouldBind errors.
func BindingValidator() *validator.Validate {
	v, _ := binding.Validator.Engine().(*validator.Validate)
	return v
}

// Register mounts all public routes on the given engine.
func Register(r *gin.Engine, d Deps) {
	h := NewHealthHandler(d.DB, d.Cache)

	// Health probes
	r.GET("/live", h.Liveness)
	r.GET("/ready", h.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Docs endpoints (root-level)
	RegisterDocs(r)

	api := r.Group(APIV1Prefix) // Versioning added via single source of truth
	if d.Translator != nil {
		api.Use(middleware.Locale(d.Translator))
	}
	{
		health := api.Group("/health")
		{
			health.GET("/live", h.Liveness)
			health.GET("/ready", h.Readiness)
		}
		if d.Posts != nil {
			NewPostHandler(d.Posts, d.Auth, d.Translator).Register(api)
		}
		if d.Authors != nil {
			NewAuthorHandler(d.Authors, d.Posts, d.Auth).Register(api)
		}
		if d.Follows != nil {
			NewFollowHandler(d.Follows, d.Auth, d.FollowLimiter).Register(api)
		}
	}
}
