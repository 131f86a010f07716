// Package httputil provides shared HTTP response helpers.
package httputil

import "github.com/gin-gonic/gin"

// errorBody is the JSON shape every error response uses. Codes are the
// stable machine-readable ones the handlers emit (validation_error,
// not_found, internal_error).
type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// RespondError writes a standardized JSON error response and aborts the
// request. The request ID set by the middleware is echoed back so a
// client report can be matched to the server logs.
func RespondError(c *gin.Context, status int, code, message string) {
	body := errorBody{
		Code:    code,
		Message: message,
	}

	if rid, exists := c.Get("request_id"); exists {
		if s, ok := rid.(string); ok {
			body.RequestID = s
		}
	}

	c.AbortWithStatusJSON(status, body)
}
