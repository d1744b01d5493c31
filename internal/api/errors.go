package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/riskcare/risk-server/internal/ensemble"
	"github.com/riskcare/risk-server/internal/store"
)

const (
	codeInvalidPayload   = "invalid_payload"
	codePayloadTooLarge  = "payload_too_large"
	codeUnknownDisease   = "unknown_disease"
	codeMalformedFeature = "malformed_feature"
	codeMissingFeatures  = "missing_features"
	codeNotFound         = "not_found"
	codeRateLimited      = "rate_limited"
	codeStorage          = "storage_error"
	codeInternal         = "internal_error"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func abortError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: code, Message: msg})
}

// bindError maps a request decoding failure to a response.
func bindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		abortError(c, http.StatusRequestEntityTooLarge, codePayloadTooLarge, "request body too large")
		return
	}
	abortError(c, http.StatusBadRequest, codeInvalidPayload, err.Error())
}

// scoringError maps ensemble and store errors to a status and code.
func scoringError(err error) (int, string) {
	var malformed *ensemble.MalformedFeatureError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case !ensemble.IsClientError(err):
		return http.StatusInternalServerError, codeInternal
	case errors.Is(err, ensemble.ErrUnknownDisease):
		return http.StatusBadRequest, codeUnknownDisease
	case errors.As(err, &malformed):
		return http.StatusBadRequest, codeMalformedFeature
	default:
		return http.StatusBadRequest, codeMissingFeatures
	}
}
