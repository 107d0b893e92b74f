package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/maxviazov/author-feed-service/internal/model"
	"github.com/maxviazov/author-feed-service/internal/service"
)

// listQuery reads page, limit, period, filter and order from the query string.
func listQuery(c *gin.Context) (model.ListQuery, error) {
	return service.ParseListQuery(service.RawListQuery{
		Page:   c.Query("page"),
		Limit:  c.Query("limit"),
		Period: c.Query("period"),
		Filter: c.Query("filter"),
		Order:  c.Query("order"),
	})
}
