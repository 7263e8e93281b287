package httputil

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// Page bounds for list endpoints.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// Page is a window over an ordered listing.
type Page struct {
	Offset int
	Limit  int
}

// ParsePage reads ?offset= and ?limit= from the query string. Missing values default
// to offset 0 and DefaultPageLimit. Errors wrap ErrBadRequest.
func ParsePage(c *gin.Context) (Page, error) {
	page := Page{Limit: DefaultPageLimit}

	if raw, ok := c.GetQuery("offset"); ok {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return Page{}, apperrors.Wrap(apperrors.ErrBadRequest, "offset must be a non-negative integer")
		}
		page.Offset = offset
	}

	if raw, ok := c.GetQuery("limit"); ok {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > MaxPageLimit {
			return Page{}, apperrors.Wrapf(apperrors.ErrBadRequest, "limit must be between 1 and %d", MaxPageLimit)
		}
		page.Limit = limit
	}

	return page, nil
}
