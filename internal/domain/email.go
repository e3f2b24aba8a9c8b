package domain

import "time"

// EmailAddress 表示账户名下的一个临时邮箱地址。
//
// ProviderAccountID 和 ProviderToken 是上游供应商侧的身份，
// 创建后不可变更；本地删除地址不会注销供应商侧账户。
type EmailAddress struct {
	ID                string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	AccountID         string    `json:"accountId" gorm:"type:varchar(36);index;not null"`
	Address           string    `json:"address" gorm:"type:varchar(255);uniqueIndex"`
	ProviderAccountID string    `json:"-" gorm:"type:varchar(64)"`
	ProviderToken     string    `json:"-" gorm:"type:varchar(1024)"` // 不返回给前端
	CreatedAt         time.Time `json:"createdAt"`
}

// MailDomain 表示供应商提供的一个可用域名。
type MailDomain struct {
	ID        string `json:"id"`
	Domain    string `json:"domain"`
	IsActive  bool   `json:"isActive"`
	IsPrivate bool   `json:"isPrivate"`
}

// Usable 判断域名是否可用于创建新地址。
func (d MailDomain) Usable() bool {
	return d.IsActive && !d.IsPrivate
}
