package domain

import "time"

// AdminSettings 表示后台管理配置，持久化在存储层。
//
// 管理口令以 bcrypt 散列保存，进程重启后配置不丢失。
type AdminSettings struct {
	ID                    string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username              string    `json:"username" gorm:"type:varchar(64)"`
	PasswordHash          string    `json:"-" gorm:"type:varchar(255)"` // 不返回给前端
	SessionTimeoutMinutes int       `json:"sessionTimeoutMinutes"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// DefaultAdminSettings 返回默认的后台配置（口令散列由调用方填入）。
func DefaultAdminSettings() *AdminSettings {
	return &AdminSettings{
		ID:                    "admin",
		Username:              "admin",
		SessionTimeoutMinutes: 60,
		UpdatedAt:             time.Now(),
	}
}

// AdminStats 后台统计概览。
type AdminStats struct {
	AccountCount      int `json:"accountCount"`
	EmailAddressCount int `json:"emailAddressCount"`
	MessageCount      int `json:"messageCount"`
}

// AdminActivity 后台最近动态。
type AdminActivity struct {
	RecentAccounts       []Account      `json:"recentAccounts"`
	RecentEmailAddresses []EmailAddress `json:"recentEmailAddresses"`
}
