package httptransport

import (
	"time"

	"github.com/gin-gonic/gin"

	"nordmail/backend/internal/domain"
	"nordmail/backend/internal/service"
)

// AccountHandler 账户相关的 HTTP 处理器。
type AccountHandler struct {
	accounts *service.AccountService
}

// NewAccountHandler 创建账户处理器。
func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type accountResponse struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	PersonalEmail *string   `json:"personalEmail,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toAccountResponse(account *domain.Account) accountResponse {
	return accountResponse{
		ID:            account.ID,
		Username:      account.Username,
		PersonalEmail: account.PersonalEmail,
		CreatedAt:     account.CreatedAt,
	}
}

// Register 注册新账户。
func (h *AccountHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	account, err := h.accounts.Register(req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	Created(c, toAccountResponse(account))
}

// Login 账户登录。
func (h *AccountHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	account, err := h.accounts.Login(req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	Success(c, toAccountResponse(account))
}

// Get 获取账户信息。
func (h *AccountHandler) Get(c *gin.Context) {
	account, err := h.accounts.Get(c.Param("accountId"))
	if err != nil {
		respondError(c, err)
		return
	}

	Success(c, toAccountResponse(account))
}

// Update 部分更新账户信息。
func (h *AccountHandler) Update(c *gin.Context) {
	var update domain.AccountUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	account, err := h.accounts.Update(c.Param("accountId"), &update)
	if err != nil {
		respondError(c, err)
		return
	}

	Success(c, toAccountResponse(account))
}
