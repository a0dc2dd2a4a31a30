// Package response defines the JSON envelope every API endpoint answers with.
package response

import "github.com/gin-gonic/gin"

const (
	CodeOK              = 0
	CodeBadRequest      = 40000
	CodeInvalidMode     = 40001
	CodeEmptyQuestion   = 40002
	CodeEmptyTranscript = 40003
	CodeTooLarge        = 41300
	CodeInternalServer  = 50000
	CodeIndexFailed     = 50001
	CodeUpstream        = 50200
	CodeUnavailable     = 50300
)

type APIResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func OK(c *gin.Context, data any) {
	c.JSON(200, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.AbortWithStatusJSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}
