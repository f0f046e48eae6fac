package util

import (
	"errors"
	"learning_portal/pkg/apiclient"
	"learning_portal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Accepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, Response{
		Code:    http.StatusAccepted,
		Message: "accepted",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

// ErrorWithData 失败但仍需把部分结果交给前端
func ErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error", zap.Error(err), zap.String("path", c.FullPath()))
	InternalServerError(c)
}

// HandleError 把服务层错误映射为统一响应
func HandleError(c *gin.Context, err error) {
	var apiErr *apiclient.APIError
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		BadRequest(c, verr.Error())
	case errors.Is(err, ErrNotLoggedIn), errors.Is(err, ErrSessionExpired), errors.Is(err, ErrMissingDevice):
		Error(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrPermissionDenied):
		Forbidden(c)
	case errors.Is(err, ErrTrackerNotFound), errors.Is(err, ErrRoomNotOpen), errors.Is(err, ErrNotFound):
		Error(c, http.StatusNotFound, err.Error())
	case errors.As(err, &apiErr):
		logger.Log.Warn("Upstream request failed",
			zap.String("endpoint", apiErr.Endpoint),
			zap.Int("status", apiErr.Status),
			zap.String("message", apiErr.Message))
		code := apiErr.Status
		if code < 400 || code >= 500 {
			code = http.StatusBadGateway
		}
		Error(c, code, apiErr.Message)
	default:
		LogInternalError(c, err)
	}
}
