package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/reportdesk/report-portal/internal/constants"
)

// PaginationParams is the page a list endpoint was asked for
type PaginationParams struct {
	Page  int
	Limit int
}

// GetPaginationParams reads page and limit from the query. page_size is
// accepted as an alias for limit. Unparsable values fall back to the first
// page and the default size; oversized limits are capped.
func GetPaginationParams(c *gin.Context) PaginationParams {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 0)
	if limit == 0 {
		limit = queryInt(c, "page_size", constants.DefaultPageSize)
	}

	if page < 1 {
		page = 1
	}
	switch {
	case limit < constants.MinPageSize:
		limit = constants.DefaultPageSize
	case limit > constants.MaxPageSize:
		limit = constants.MaxPageSize
	}

	return PaginationParams{
		Page:  page,
		Limit: limit,
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}
