package shopserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apierrors "github.com/storekit/shop-api/internal/shared/errors"
	"github.com/storekit/shop-api/internal/shared/pagination"
)

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	apierrors.Respond(c, problem)
}

// respondError preserves the existing call sites while returning RFC 7807 responses.
func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		return
	}
	var problem apierrors.ProblemDetail
	switch status {
	case http.StatusBadRequest:
		problem = apierrors.ErrBadRequest.WithDetail(err.Error())
	case http.StatusNotFound:
		problem = apierrors.ErrNotFound.WithDetail(err.Error())
	default:
		problem = apierrors.ErrInternal.WithDetail(err.Error())
	}
	respondProblem(c, problem)
}

// parseWindow reads the limit/offset query parameters. A malformed or
// out-of-range value responds with a validation problem and returns ok=false.
func parseWindow(c *gin.Context) (pagination.Window, bool) {
	window := pagination.DefaultWindow()
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			respondProblem(c, apierrors.NewValidationProblem(map[string]string{"limit": "must be an integer"}))
			return pagination.Window{}, false
		}
		window.Limit = limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			respondProblem(c, apierrors.NewValidationProblem(map[string]string{"offset": "must be an integer"}))
			return pagination.Window{}, false
		}
		window.Offset = offset
	}
	if !window.Valid() {
		respondProblem(c, apierrors.NewValidationProblem(map[string]string{
			"limit":  "must be between 1 and 100",
			"offset": "must be zero or positive",
		}))
		return pagination.Window{}, false
	}
	return window, true
}
