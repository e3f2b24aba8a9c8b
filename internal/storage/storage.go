package storage

import (
	"errors"

	"nordmail/backend/internal/domain"
)

var (
	// ErrAccountNotFound 账户未找到错误
	ErrAccountNotFound = errors.New("account not found")
	// ErrUsernameTaken 用户名已被占用错误
	ErrUsernameTaken = errors.New("username already taken")
	// ErrEmailNotFound 邮箱地址未找到错误
	ErrEmailNotFound = errors.New("email address not found")
	// ErrMessageNotFound 邮件未找到错误
	ErrMessageNotFound = errors.New("message not found")
	// ErrDuplicateMessage 同一地址下供应商邮件 ID 重复错误
	ErrDuplicateMessage = errors.New("duplicate provider message")
	// ErrSettingsNotFound 后台配置未初始化错误
	ErrSettingsNotFound = errors.New("admin settings not found")
)

// AccountRepository 定义账户数据存取操作。
type AccountRepository interface {
	CreateAccount(account *domain.Account) error
	GetAccount(id string) (*domain.Account, error)
	GetAccountByUsername(username string) (*domain.Account, error)
	// UpdateAccount 按字段合并更新，未提供的字段保持原值。
	UpdateAccount(id string, update *domain.AccountUpdate) (*domain.Account, error)
}

// EmailRepository 定义邮箱地址数据存取操作。
type EmailRepository interface {
	CreateEmailAddress(email *domain.EmailAddress) error
	GetEmailAddress(id string) (*domain.EmailAddress, error)
	// ListEmailAddresses 按创建时间倒序返回账户名下的地址。
	ListEmailAddresses(accountID string) ([]domain.EmailAddress, error)
}

// MessageRepository 定义邮件数据存取操作。
type MessageRepository interface {
	// CreateMessage 插入邮件；同一地址下供应商邮件 ID 重复时
	// 返回 ErrDuplicateMessage，保证先写入者胜出。
	CreateMessage(message *domain.Message) error
	GetMessage(id string) (*domain.Message, error)
	GetMessageByProviderID(emailAddressID, providerMessageID string) (*domain.Message, error)
	// ListMessages 按供应商接收时间倒序返回地址下的邮件。
	ListMessages(emailAddressID string) ([]domain.Message, error)
	// UpdateMessageContent 回填正文与附件，不触碰其他字段。
	UpdateMessageContent(id string, text, html *string, attachments domain.AttachmentList) error
	// MarkMessageSeen 将邮件置为已读；邮件不存在时静默成功。
	MarkMessageSeen(id string) error
	// DeleteMessage 删除邮件；邮件不存在时静默成功。
	DeleteMessage(id string) error
}

// SettingsRepository 定义后台配置数据存取操作。
type SettingsRepository interface {
	GetAdminSettings() (*domain.AdminSettings, error)
	SaveAdminSettings(settings *domain.AdminSettings) error
}

// StatsRepository 定义后台统计查询操作。
type StatsRepository interface {
	CountAccounts() (int, error)
	CountEmailAddresses() (int, error)
	CountMessages() (int, error)
	ListRecentAccounts(limit int) ([]domain.Account, error)
	ListRecentEmailAddresses(limit int) ([]domain.EmailAddress, error)
}

// Store 定义完整的存储接口。
type Store interface {
	AccountRepository
	EmailRepository
	MessageRepository
	SettingsRepository
	StatsRepository

	// 工具方法
	Close() error
	Health() error
}
