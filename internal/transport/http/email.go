package httptransport

import (
	"time"

	"github.com/gin-gonic/gin"

	"nordmail/backend/internal/domain"
	"nordmail/backend/internal/service"
)

// EmailHandler 邮箱地址相关的 HTTP 处理器。
type EmailHandler struct {
	emails *service.EmailService
}

// NewEmailHandler 创建邮箱地址处理器。
func NewEmailHandler(emails *service.EmailService) *EmailHandler {
	return &EmailHandler{emails: emails}
}

type createEmailRequest struct {
	LocalPart string `json:"localPart"`
}

type emailResponse struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
}

type emailListResponse struct {
	Items []emailResponse `json:"items"`
	Count int             `json:"count"`
}

func toEmailResponse(email *domain.EmailAddress) emailResponse {
	return emailResponse{
		ID:        email.ID,
		AccountID: email.AccountID,
		Address:   email.Address,
		CreatedAt: email.CreatedAt,
	}
}

// ListDomains 获取供应商可用域名列表。
func (h *EmailHandler) ListDomains(c *gin.Context) {
	domains, err := h.emails.ListDomains(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	Success(c, gin.H{
		"items": domains,
		"count": len(domains),
	})
}

// Create 为账户开通新的邮箱地址。
func (h *EmailHandler) Create(c *gin.Context) {
	var req createEmailRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, MsgInvalidRequest)
			return
		}
	}

	email, err := h.emails.Create(c.Request.Context(), service.CreateEmailAddressInput{
		AccountID: c.Param("accountId"),
		LocalPart: req.LocalPart,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	Created(c, toEmailResponse(email))
}

// List 返回账户名下的邮箱地址。
func (h *EmailHandler) List(c *gin.Context) {
	emails, err := h.emails.List(c.Param("accountId"))
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]emailResponse, 0, len(emails))
	for i := range emails {
		responses = append(responses, toEmailResponse(&emails[i]))
	}

	Success(c, emailListResponse{
		Items: responses,
		Count: len(responses),
	})
}

// Get 获取单个邮箱地址。
func (h *EmailHandler) Get(c *gin.Context) {
	email, err := h.emails.Get(c.Param("emailId"))
	if err != nil {
		respondError(c, err)
		return
	}

	Success(c, toEmailResponse(email))
}
