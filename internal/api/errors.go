package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/valpere/bookflow/internal/library"
	"github.com/valpere/bookflow/internal/pipeline"
	"github.com/valpere/bookflow/internal/source"
	"github.com/valpere/bookflow/internal/store"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeInvalidRequest    = "invalid_request"
	CodeInvalidURL        = "invalid_url"
	CodeNoContent         = "no_content"
	CodeFetchFailed       = "fetch_failed"
	CodeStageFailed       = "stage_failed"
	CodeTimeout           = "timeout"
	CodeNotFound          = "not_found"
	CodeInvalidRating     = "invalid_rating"
	CodeUnsupportedFormat = "unsupported_format"
	CodeInternal          = "internal_error"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Stage string `json:"stage,omitempty"`
}

// classify maps an error to its HTTP status and response body.
func classify(err error) (int, ErrorResponse) {
	resp := ErrorResponse{Error: err.Error()}

	var stageErr *pipeline.StageError
	switch {
	case errors.Is(err, source.ErrInvalidURL):
		resp.Code = CodeInvalidURL
		return http.StatusBadRequest, resp
	case errors.Is(err, source.ErrNoContent):
		resp.Code = CodeNoContent
		return http.StatusUnprocessableEntity, resp
	case errors.Is(err, source.ErrFetchFailed):
		resp.Code = CodeFetchFailed
		return http.StatusBadGateway, resp
	case errors.Is(err, context.DeadlineExceeded):
		resp.Code = CodeTimeout
		if errors.As(err, &stageErr) {
			resp.Stage = string(stageErr.Stage)
		}
		return http.StatusGatewayTimeout, resp
	case errors.As(err, &stageErr):
		resp.Code = CodeStageFailed
		resp.Stage = string(stageErr.Stage)
		return http.StatusBadGateway, resp
	case errors.Is(err, store.ErrNotFound):
		resp.Code = CodeNotFound
		return http.StatusNotFound, resp
	case errors.Is(err, store.ErrInvalidRating):
		resp.Code = CodeInvalidRating
		return http.StatusBadRequest, resp
	case errors.Is(err, store.ErrEmptyField):
		resp.Code = CodeInvalidRequest
		return http.StatusBadRequest, resp
	case errors.Is(err, library.ErrUnsupportedFormat):
		resp.Code = CodeUnsupportedFormat
		return http.StatusBadRequest, resp
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: CodeInternal}
	}
}

// abort writes the error response and records err for the request logger.
func abort(c *gin.Context, err error) {
	status, resp := classify(err)
	if status >= http.StatusInternalServerError {
		c.Error(err)
	}
	c.AbortWithStatusJSON(status, resp)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: CodeInvalidRequest})
}
