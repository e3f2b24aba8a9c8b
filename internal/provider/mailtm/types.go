package mailtm

import (
	"fmt"
	"strings"
	"time"
)

// APIError 表示供应商 API 返回的非 2xx 响应。
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("provider returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Detail)
}

// hydraCollection 供应商使用 Hydra 格式包装集合响应。
type hydraCollection[T any] struct {
	Members []T `json:"hydra:member"`
}

// hydraError 供应商的错误响应体。
type hydraError struct {
	Title       string `json:"hydra:title"`
	Description string `json:"hydra:description"`
	Detail      string `json:"detail"`
	Message     string `json:"message"`
}

func (e hydraError) text() string {
	for _, s := range []string{e.Description, e.Detail, e.Message, e.Title} {
		if s != "" {
			return s
		}
	}
	return ""
}

// Domain 供应商提供的邮箱域名。
type Domain struct {
	ID        string `json:"id"`
	Domain    string `json:"domain"`
	IsActive  bool   `json:"isActive"`
	IsPrivate bool   `json:"isPrivate"`
}

// Account 供应商侧的邮箱账户。
type Account struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

// Token 供应商颁发的 Bearer 令牌。
type Token struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

// Address 邮件参与方。
type Address struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// MessageSummary 邮件列表项，不含正文。
type MessageSummary struct {
	ID             string    `json:"id"`
	From           Address   `json:"from"`
	To             []Address `json:"to"`
	Subject        string    `json:"subject"`
	Intro          string    `json:"intro"`
	Seen           bool      `json:"seen"`
	HasAttachments bool      `json:"hasAttachments"`
	Size           int64     `json:"size"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Attachment 邮件附件元数据。
type Attachment struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"downloadUrl"`
}

// MessageDetail 邮件详情。供应商把 HTML 正文拆成字符串数组返回。
type MessageDetail struct {
	MessageSummary
	Text        string       `json:"text"`
	HTML        []string     `json:"html"`
	Attachments []Attachment `json:"attachments"`
}

// JoinedHTML 把供应商返回的 HTML 片段拼成完整正文。
func (d *MessageDetail) JoinedHTML() string {
	return strings.Join(d.HTML, "")
}

type createAccountRequest struct {
	Address  string `json:"address"`
	Password string `json:"password"`
}

type tokenRequest struct {
	Address  string `json:"address"`
	Password string `json:"password"`
}
