package httptransport

import (
	"errors"

	"github.com/gin-gonic/gin"

	"nordmail/backend/internal/domain"
	"nordmail/backend/internal/provider/mailtm"
	"nordmail/backend/internal/service"
	"nordmail/backend/internal/storage"
)

// 通用错误消息
const (
	// 请求相关
	MsgInvalidRequest   = "请求参数格式错误"
	MsgRequestBodyEmpty = "请求体不能为空"

	// 认证相关
	MsgAuthRequired       = "需要登录认证"
	MsgInvalidCredentials = "用户名或密码错误"

	// 账户相关
	MsgAccountNotFound = "账户不存在"
	MsgUsernameTaken   = "用户名已被占用"

	// 邮箱地址相关
	MsgEmailNotFound  = "邮箱地址不存在"
	MsgNoUsableDomain = "当前没有可用域名"

	// 邮件相关
	MsgMessageNotFound = "邮件不存在"

	// 供应商相关
	MsgProviderError = "上游邮件服务暂时不可用，请稍后重试"

	// 服务器错误
	MsgInternalError = "服务器内部错误，请稍后重试"
)

// respondError 把业务错误映射为统一响应。
func respondError(c *gin.Context, err error) {
	if ve, ok := domain.AsValidationError(err); ok {
		BadRequest(c, ve.Error())
		return
	}

	var apiErr *mailtm.APIError

	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		Unauthorized(c, MsgInvalidCredentials)
	case errors.Is(err, service.ErrAdminDisabled):
		Unauthorized(c, MsgInvalidCredentials)
	case errors.Is(err, storage.ErrUsernameTaken):
		Conflict(c, MsgUsernameTaken)
	case errors.Is(err, storage.ErrAccountNotFound):
		NotFound(c, MsgAccountNotFound)
	case errors.Is(err, storage.ErrEmailNotFound):
		NotFound(c, MsgEmailNotFound)
	case errors.Is(err, storage.ErrMessageNotFound):
		NotFound(c, MsgMessageNotFound)
	case errors.Is(err, storage.ErrSettingsNotFound):
		NotFound(c, MsgInternalError)
	case errors.Is(err, service.ErrNoUsableDomain):
		BadGateway(c, MsgNoUsableDomain)
	case errors.As(err, &apiErr):
		BadGateway(c, MsgProviderError)
	default:
		InternalError(c, MsgInternalError)
	}
}
