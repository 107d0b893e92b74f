package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/maxviazov/author-feed-service/internal/middleware"
	"github.com/maxviazov/author-feed-service/internal/model"
	"github.com/maxviazov/author-feed-service/internal/service"
	"github.com/maxviazov/author-feed-service/pkg/response"
)

type FollowHandler struct {
	svc     service.FollowService
	auth    *middleware.Auth
	limiter *middleware.RateLimiter
}

// NewFollowHandler wires the follow routes. limiter may be nil to disable throttling.
func NewFollowHandler(svc service.FollowService, auth *middleware.Auth, limiter *middleware.RateLimiter) *FollowHandler {
	return &FollowHandler{svc: svc, auth: auth, limiter: limiter}
}

func (h *FollowHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/authors/:" + authorParam)
	{
		g.GET("/followers", h.followers)
		g.GET("/following", h.following)
		g.GET("/follow", h.auth.Optional(), h.button)

		g.POST("/follow", h.guarded(h.toggle)...)
		g.PUT("/follow", h.guarded(h.follow)...)
		g.DELETE("/follow", h.guarded(h.unfollow)...)
	}
}

// guarded prefixes a mutating handler with auth and, when configured, the rate limiter.
func (h *FollowHandler) guarded(next gin.HandlerFunc) []gin.HandlerFunc {
	chain := []gin.HandlerFunc{h.auth.Required()}
	if h.limiter != nil {
		chain = append(chain, h.limiter.Middleware())
	}
	return append(chain, next)
}

type mutation func(ctx context.Context, viewer, author uuid.UUID) (model.FollowState, error)

// run applies m for the authenticated viewer and writes an ActionResult.
func (h *FollowHandler) run(c *gin.Context, m mutation) {
	author, err := service.ParseAuthorID(c.Param(authorParam))
	if err != nil {
		response.WriteActionError[model.FollowState](c, err)
		return
	}
	viewer, ok := middleware.ViewerID(c)
	if !ok {
		response.WriteActionError[model.FollowState](c, service.ErrUnauthenticated)
		return
	}
	st, err := m(c.Request.Context(), viewer, author)
	if err != nil {
		response.WriteActionError[model.FollowState](c, err)
		return
	}
	response.WriteAction(c, http.StatusOK, st)
}

func (h *FollowHandler) toggle(c *gin.Context)   { h.run(c, h.svc.Toggle) }
func (h *FollowHandler) follow(c *gin.Context)   { h.run(c, h.svc.Follow) }
func (h *FollowHandler) unfollow(c *gin.Context) { h.run(c, h.svc.Unfollow) }

func (h *FollowHandler) button(c *gin.Context) {
	author, err := service.ParseAuthorID(c.Param(authorParam))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	var viewer *uuid.UUID
	if id, ok := middleware.ViewerID(c); ok {
		viewer = &id
	}
	btn, err := h.svc.Button(c.Request.Context(), viewer, author, middleware.LocaleFrom(c))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, btn)
}

func (h *FollowHandler) followers(c *gin.Context) {
	h.list(c, h.svc.Followers)
}

func (h *FollowHandler) following(c *gin.Context) {
	h.list(c, h.svc.Following)
}

type authorLister func(ctx context.Context, author uuid.UUID, q model.ListQuery) (model.ListResponse[model.Author], error)

func (h *FollowHandler) list(c *gin.Context, fn authorLister) {
	author, err := service.ParseAuthorID(c.Param(authorParam))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	q, err := listQuery(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	res, err := fn(c.Request.Context(), author, q)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteList(c, res)
}
