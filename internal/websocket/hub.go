package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"nordmail/backend/internal/domain"
)

// EmailStore 供连接鉴权使用的最小存储接口。
type EmailStore interface {
	GetEmailAddress(id string) (*domain.EmailAddress, error)
}

// MessageType 定义 WebSocket 消息类型
type MessageType string

const (
	MessageTypeNewMessage MessageType = "new_message"
	MessageTypePing       MessageType = "ping"
	MessageTypePong       MessageType = "pong"
	MessageTypeError      MessageType = "error"
)

// Message 定义 WebSocket 消息结构
type Message struct {
	Type           MessageType     `json:"type"`
	EmailAddressID string          `json:"emailAddressId,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
	Error          string          `json:"error,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

// NewMessageData 新邮件通知载荷
type NewMessageData struct {
	MessageID      string `json:"messageId"`
	EmailAddressID string `json:"emailAddressId"`
	From           string `json:"from"`
	Subject        string `json:"subject"`
	Intro          string `json:"intro,omitempty"`
	HasAttachments bool   `json:"hasAttachments"`
	CreatedAt      string `json:"createdAt"`
}

// Client 代表一个 WebSocket 客户端连接，固定订阅单个邮箱地址。
type Client struct {
	id             string
	emailAddressID string
	conn           *websocket.Conn
	send           chan []byte
	hub            *Hub
}

// Hub 管理所有 WebSocket 连接，按邮箱地址分组广播。
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*Client            // clientID -> Client
	byEmail    map[string]map[string]*Client // emailAddressID -> clientID -> Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastItem
	log        *zap.Logger
	store      EmailStore
	origins    []string
}

type broadcastItem struct {
	emailAddressID string
	message        *Message
}

// NewHub 创建 WebSocket Hub。
//
// 参数:
//   - allowedOrigins: 允许的 Origin 列表，用于连接验证
//   - store: 邮箱地址存储，用于校验订阅目标是否存在
//   - log: 日志记录器
func NewHub(allowedOrigins []string, store EmailStore, log *zap.Logger) *Hub {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]*Client),
		byEmail:    make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastItem, 256),
		log:        log,
		store:      store,
		origins:    allowedOrigins,
	}
}

// Run 启动 Hub 主循环。
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info("websocket hub stopped")
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			if h.byEmail[client.emailAddressID] == nil {
				h.byEmail[client.emailAddressID] = make(map[string]*Client)
			}
			h.byEmail[client.emailAddressID][client.id] = client
			h.mu.Unlock()
			h.log.Debug("client registered",
				zap.String("clientID", client.id),
				zap.String("emailAddressID", client.emailAddressID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				if peers := h.byEmail[client.emailAddressID]; peers != nil {
					delete(peers, client.id)
					if len(peers) == 0 {
						delete(h.byEmail, client.emailAddressID)
					}
				}
				close(client.send)
			}
			h.mu.Unlock()

		case item := <-h.broadcast:
			h.broadcastToEmail(item.emailAddressID, item.message)

		case <-ticker.C:
			h.pingAllClients()
		}
	}
}

// NotifyNewMessage 向订阅某地址的客户端推送新邮件通知。
func (h *Hub) NotifyNewMessage(message *domain.Message) {
	payload := NewMessageData{
		MessageID:      message.ID,
		EmailAddressID: message.EmailAddressID,
		From:           message.From.Address,
		Subject:        message.Subject,
		Intro:          message.Intro,
		HasAttachments: message.HasAttachments,
		CreatedAt:      message.ProviderCreatedAt.Format(time.RFC3339),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("failed to marshal new message payload", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- &broadcastItem{
		emailAddressID: message.EmailAddressID,
		message: &Message{
			Type:           MessageTypeNewMessage,
			EmailAddressID: message.EmailAddressID,
			Data:           data,
			Timestamp:      time.Now(),
		},
	}:
	default:
		h.log.Warn("broadcast queue full, dropping notification",
			zap.String("messageID", message.ID))
	}
}

func (h *Hub) broadcastToEmail(emailAddressID string, msg *Message) {
	h.mu.RLock()
	clients := h.byEmail[emailAddressID]
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("failed to marshal message", zap.Error(err))
		return
	}

	for _, client := range clients {
		select {
		case client.send <- data:
		default:
			// 客户端阻塞，跳过
			h.log.Warn("client channel blocked, skipping", zap.String("clientID", client.id))
		}
	}
}

func (h *Hub) pingAllClients() {
	data, err := json.Marshal(&Message{Type: MessageTypePing, Timestamp: time.Now()})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.send <- data:
		default:
		}
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.send)
	}
	h.clients = make(map[string]*Client)
	h.byEmail = make(map[string]map[string]*Client)
}

// upgraderFor 创建带 Origin 验证的升级器。
func upgraderFor(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			for _, origin := range allowedOrigins {
				if origin == "*" {
					return true
				}
			}
			requestOrigin := r.Header.Get("Origin")
			if requestOrigin == "" {
				return true
			}
			for _, origin := range allowedOrigins {
				if requestOrigin == origin {
					return true
				}
			}
			return false
		},
	}
}

// Handler 处理 WebSocket 连接，路径参数 emailId 指定订阅的地址。
func Handler(hub *Hub) gin.HandlerFunc {
	upgrader := upgraderFor(hub.origins)

	return func(c *gin.Context) {
		emailID := c.Param("emailId")
		if _, err := hub.store.GetEmailAddress(emailID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "email address not found"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.log.Error("failed to upgrade connection",
				zap.Error(err),
				zap.String("origin", c.Request.Header.Get("Origin")),
				zap.String("remote_addr", c.ClientIP()))
			return
		}

		client := &Client{
			id:             uuid.NewString(),
			emailAddressID: emailID,
			conn:           conn,
			send:           make(chan []byte, 256),
			hub:            hub,
		}
		hub.register <- client

		go client.writePump()
		go client.readPump()
	}
}

// readPump 处理客户端消息。
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("websocket closed", zap.Error(err))
			}
			break
		}
		if msg.Type == MessageTypePong {
			c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		}
	}
}

// writePump 发送消息给客户端。
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.WriteMessage(websocket.TextMessage, message)

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
