package httptransport

import (
	"github.com/gin-gonic/gin"

	"nordmail/backend/internal/domain"
	"nordmail/backend/internal/service"
)

// MessageHandler 邮件相关的 HTTP 处理器。
type MessageHandler struct {
	sync *service.SyncService
}

// NewMessageHandler 创建邮件处理器。
func NewMessageHandler(sync *service.SyncService) *MessageHandler {
	return &MessageHandler{sync: sync}
}

type messageListResponse struct {
	Items []domain.Message `json:"items"`
	Count int              `json:"count"`
}

// List 同步并返回某地址下的邮件，按接收时间倒序。
func (h *MessageHandler) List(c *gin.Context) {
	messages, err := h.sync.SyncAndList(c.Request.Context(), c.Param("emailId"))
	if err != nil {
		respondError(c, err)
		return
	}

	Success(c, messageListResponse{
		Items: messages,
		Count: len(messages),
	})
}

// Get 获取单封邮件，正文缺失时从供应商侧补齐。
func (h *MessageHandler) Get(c *gin.Context) {
	message, err := h.sync.GetMessage(c.Request.Context(), c.Param("messageId"))
	if err != nil {
		respondError(c, err)
		return
	}

	Success(c, message)
}

// MarkRead 标记邮件已读。
func (h *MessageHandler) MarkRead(c *gin.Context) {
	if err := h.sync.MarkSeen(c.Request.Context(), c.Param("messageId")); err != nil {
		respondError(c, err)
		return
	}
	NoContent(c)
}

// Delete 删除本地邮件副本。
func (h *MessageHandler) Delete(c *gin.Context) {
	if err := h.sync.Delete(c.Request.Context(), c.Param("messageId")); err != nil {
		respondError(c, err)
		return
	}
	NoContent(c)
}
