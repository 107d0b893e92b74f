package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/author-feed-service/internal/middleware"
	"github.com/maxviazov/author-feed-service/internal/service"
	"github.com/maxviazov/author-feed-service/pkg/response"
)

// authorParam is shared by every /authors/:author_id route so gin sees one wildcard name.
const authorParam = "author_id"

type AuthorHandler struct {
	svc   service.AuthorService
	posts service.PostService
	auth  *middleware.Auth
}

// NewAuthorHandler wires author lookups. posts may be nil, which leaves the author posts route out.
func NewAuthorHandler(svc service.AuthorService, posts service.PostService, auth *middleware.Auth) *AuthorHandler {
	return &AuthorHandler{svc: svc, posts: posts, auth: auth}
}

func (h *AuthorHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/authors/:"+authorParam, h.auth.Optional())
	{
		g.GET("", h.getByID)
		if h.posts != nil {
			g.GET("/posts", h.listPosts)
		}
	}
}

func (h *AuthorHandler) getByID(c *gin.Context) {
	id, err := service.ParseAuthorID(c.Param(authorParam))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	author, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, author)
}

func (h *AuthorHandler) listPosts(c *gin.Context) {
	id, err := service.ParseAuthorID(c.Param(authorParam))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	q, err := listQuery(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	res, err := h.posts.List(c.Request.Context(), q, &id)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteList(c, res)
}
