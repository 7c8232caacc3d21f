package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"kama_chat_hub/internal/infrastructure/middleware"
	"kama_chat_hub/pkg/errorx"
)

// envelope 所有接口的响应体，HTTP 状态码固定 200，结果看 code
type envelope struct {
	Code int `json:"code"`
	Msg  any `json:"msg"`
	Data any `json:"data"`
}

func reply(c *gin.Context, code int, msg, data any) {
	c.JSON(http.StatusOK, envelope{Code: code, Msg: msg, Data: data})
}

func HandleSuccess(c *gin.Context, data any) {
	reply(c, errorx.CodeSuccess, "success", data)
}

// HandleError 业务错误原样返回错误码，持久化与未知错误记日志后返回服务繁忙
func HandleError(c *gin.Context, err error) {
	var codeErr *errorx.CodeError
	if errors.As(err, &codeErr) && !errorx.IsInternal(err) {
		reply(c, codeErr.Code, codeErr.Msg, nil)
		return
	}
	zap.L().Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	reply(c, errorx.ErrServerBusy.Code, errorx.ErrServerBusy.Msg, nil)
}

// HandleParamError 校验失败时 msg 为 字段 -> 提示，JSON 本身解析失败时为通用提示
func HandleParamError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		reply(c, errorx.CodeInvalidParam, fieldErrors(verrs), nil)
		return
	}
	zap.L().Debug("bind request", zap.Error(err))
	reply(c, errorx.CodeInvalidParam, errorx.ErrInvalidParam.Msg, nil)
}

// currentUser JWTAuth 写入的用户 ID
func currentUser(c *gin.Context) string {
	return c.GetString(middleware.ContextUserKey)
}
