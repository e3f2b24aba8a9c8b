package httptransport

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"nordmail/backend/internal/domain"
	"nordmail/backend/internal/service"
)

// AdminHandler 后台管理相关的 HTTP 处理器。
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler 创建后台管理处理器。
func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

type adminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type adminRefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type adminSettingsResponse struct {
	Username              string    `json:"username"`
	SessionTimeoutMinutes int       `json:"sessionTimeoutMinutes"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

func toSettingsResponse(settings *domain.AdminSettings) adminSettingsResponse {
	return adminSettingsResponse{
		Username:              settings.Username,
		SessionTimeoutMinutes: settings.SessionTimeoutMinutes,
		UpdatedAt:             settings.UpdatedAt,
	}
}

// Login 管理员登录，签发令牌对。
func (h *AdminHandler) Login(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	pair, err := h.admin.Login(req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	Success(c, pair)
}

// Refresh 用刷新令牌换取新的访问令牌。
func (h *AdminHandler) Refresh(c *gin.Context) {
	var req adminRefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	access, err := h.admin.Refresh(req.RefreshToken)
	if err != nil {
		Unauthorized(c, MsgAuthRequired)
		return
	}

	Success(c, gin.H{"accessToken": access})
}

// Stats 返回统计概览。
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.admin.Stats()
	if err != nil {
		respondError(c, err)
		return
	}

	Success(c, stats)
}

// Activity 返回最近创建的账户和地址。
func (h *AdminHandler) Activity(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			BadRequest(c, MsgInvalidRequest)
			return
		}
		limit = parsed
	}

	activity, err := h.admin.Activity(limit)
	if err != nil {
		respondError(c, err)
		return
	}

	Success(c, activity)
}

// GetSettings 返回后台配置。
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.admin.GetSettings()
	if err != nil {
		respondError(c, err)
		return
	}

	Success(c, toSettingsResponse(settings))
}

type updateSettingsRequest struct {
	Username              *string `json:"username"`
	Password              *string `json:"password"`
	SessionTimeoutMinutes *int    `json:"sessionTimeoutMinutes"`
}

// UpdateSettings 部分更新后台配置。
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	settings, err := h.admin.UpdateSettings(service.UpdateSettingsInput{
		Username:              req.Username,
		Password:              req.Password,
		SessionTimeoutMinutes: req.SessionTimeoutMinutes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	Success(c, toSettingsResponse(settings))
}
