package util

import (
	"errors"
	"net/http"
	"sat_practice_backend/pkg/logger"

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

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
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
	logger.Log.Error("Internal server error", zap.Error(err))
	InternalServerError(c)
}

// ServiceError 按错误类型选择状态码；写入失败原样返回底层错误信息供前端展示
func ServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidSelection):
		BadRequest(c, err.Error())
	case errors.Is(err, ErrPermissionDenied):
		Forbidden(c)
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrMistakeNotFound),
		errors.Is(err, ErrQuestionNotFound),
		errors.Is(err, ErrAttemptNotFound),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrDraftNotFound):
		Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrSessionConsumed), errors.Is(err, ErrDraftState):
		Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrFetchFailed),
		errors.Is(err, ErrSessionCreateFailed),
		errors.Is(err, ErrExamCreateFailed),
		errors.Is(err, ErrQuestionLinkFailed),
		errors.Is(err, ErrAssignmentCreateFailed):
		logger.Log.Error("Service operation failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, err.Error())
	default:
		LogInternalError(c, err)
	}
}
