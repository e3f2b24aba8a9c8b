package domain

import "time"

// Account 表示临时邮箱服务的本地账户。
//
// 密码为明文存储并按相等性比较：账户本身是一次性的，
// 不承载任何需要散列保护的长期身份。
type Account struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username      string    `json:"username" gorm:"type:varchar(64);uniqueIndex;not null"`
	Password      string    `json:"-" gorm:"type:varchar(128)"` // 不返回给前端
	PersonalEmail *string   `json:"personalEmail,omitempty" gorm:"type:varchar(255)"`
	CreatedAt     time.Time `json:"createdAt"`
}

// AccountUpdate 描述账户的部分更新。
//
// 为 nil 的字段表示"不修改"；PersonalEmail 指向空字符串表示清空。
type AccountUpdate struct {
	Username      *string `json:"username,omitempty"`
	Password      *string `json:"password,omitempty"`
	PersonalEmail *string `json:"personalEmail,omitempty"`
}

// Empty 判断更新是否不包含任何字段。
func (u *AccountUpdate) Empty() bool {
	return u.Username == nil && u.Password == nil && u.PersonalEmail == nil
}
