package handler

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/author-feed-service/internal/i18n"
	"github.com/maxviazov/author-feed-service/internal/middleware"
	"github.com/maxviazov/author-feed-service/internal/service"
	"github.com/maxviazov/author-feed-service/pkg/response"
)

type PostHandler struct {
	svc  service.PostService
	auth *middleware.Auth
	tr   *i18n.Translator
}

// NewPostHandler wires the post routes. tr localizes body validation messages and may be nil.
func NewPostHandler(svc service.PostService, auth *middleware.Auth, tr *i18n.Translator) *PostHandler {
	return &PostHandler{svc: svc, auth: auth, tr: tr}
}

func (h *PostHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/posts")
	{
		g.GET("", h.auth.Optional(), h.list)
		g.POST("", h.auth.Required(), h.create)
		g.GET("/:post_id", h.auth.Optional(), h.getByID)
	}
	r.GET("/feed", h.auth.Required(), h.feed)
}

type createPostRequest struct {
	Title   string `json:"title" binding:"required,min=3,max=200"`
	Excerpt string `json:"excerpt" binding:"max=1000"`
}

func (h *PostHandler) create(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, h.bindError(c, err))
		return
	}
	author, _ := middleware.ViewerID(c)
	post, err := h.svc.Create(c.Request.Context(), author, req.Title, req.Excerpt)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, post)
}

// bindError turns a binding failure into field errors in the request locale.
// Anything that is not a validation failure means the body could not be decoded.
func (h *PostHandler) bindError(c *gin.Context, err error) error {
	var msgs map[string]string
	if h.tr != nil {
		msgs = h.tr.TranslateValidation(middleware.LocaleFrom(c), err)
	}
	if len(msgs) == 0 {
		return service.InvalidInput(service.FieldError{Field: "body", Message: "malformed JSON body"})
	}
	fields := make([]service.FieldError, 0, len(msgs))
	for f, m := range msgs {
		fields = append(fields, service.FieldError{Field: f, Message: m})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	return service.InvalidInput(fields...)
}

func (h *PostHandler) getByID(c *gin.Context) {
	id, err := service.ParsePostID(c.Param("post_id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	post, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, post)
}

func (h *PostHandler) list(c *gin.Context) {
	q, err := listQuery(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	res, err := h.svc.List(c.Request.Context(), q, nil)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteList(c, res)
}

func (h *PostHandler) feed(c *gin.Context) {
	q, err := listQuery(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	viewer, _ := middleware.ViewerID(c)
	res, err := h.svc.Feed(c.Request.Context(), viewer, q)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteList(c, res)
}
