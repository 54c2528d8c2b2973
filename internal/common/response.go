package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes returned in the "code" field of failure payloads.
const (
	CodeOK              = "OK"
	CodeBadRequest      = "BAD_REQUEST"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeTooManyRequests = "TOO_MANY_REQUESTS"
	CodeInternal        = "INTERNAL_ERROR"
)

// ErrorPayload is the body of every failed API response.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code":    CodeOK,
		"message": "ok",
		"data":    data,
	})
}

func Fail(c *gin.Context, httpStatus int, code string, msg string) {
	c.AbortWithStatusJSON(httpStatus, ErrorPayload{Code: code, Message: msg})
}
