package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EmailAddr 表示一个邮件参与方（显示名 + 地址）。
type EmailAddr struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Value 实现 driver.Valuer，以 JSON 形式写入数据库。
func (a EmailAddr) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan 实现 sql.Scanner。
func (a *EmailAddr) Scan(src interface{}) error {
	return scanJSON(src, a)
}

// RecipientList 表示收件人列表，数据库中为 JSON 列。
type RecipientList []EmailAddr

// Value 实现 driver.Valuer。
func (l RecipientList) Value() (driver.Value, error) {
	if l == nil {
		l = RecipientList{}
	}
	return json.Marshal(l)
}

// Scan 实现 sql.Scanner。
func (l *RecipientList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// Attachment 表示邮件附件的元数据。附件内容不落本地，
// 通过 DownloadURL 从供应商侧获取。
type Attachment struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"downloadUrl"`
}

// AttachmentList 表示附件列表，数据库中为 JSON 列。
type AttachmentList []Attachment

// Value 实现 driver.Valuer。
func (l AttachmentList) Value() (driver.Value, error) {
	if l == nil {
		l = AttachmentList{}
	}
	return json.Marshal(l)
}

// Scan 实现 sql.Scanner。
func (l *AttachmentList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

func scanJSON(src, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported scan type %T", src)
	}
}

// Message 表示同步到本地的一封邮件。
//
// ProviderMessageID 在同一邮箱地址内唯一，是同步去重的依据。
// Seen 只能由 false 变为 true，不允许回退。
type Message struct {
	ID                string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	EmailAddressID    string         `json:"emailAddressId" gorm:"type:varchar(36);index:idx_email_provider,unique;not null"`
	ProviderMessageID string         `json:"providerMessageId" gorm:"type:varchar(64);index:idx_email_provider,unique;not null"`
	From              EmailAddr      `json:"from" gorm:"type:text"`
	To                RecipientList  `json:"to" gorm:"type:text"`
	Subject           string         `json:"subject" gorm:"type:varchar(500)"`
	Intro             string         `json:"intro" gorm:"type:varchar(500)"`
	Text              *string        `json:"text,omitempty" gorm:"type:text"`
	HTML              *string        `json:"html,omitempty" gorm:"type:text"`
	Seen              bool           `json:"seen" gorm:"default:false;index"`
	HasAttachments    bool           `json:"hasAttachments" gorm:"default:false"`
	Attachments       AttachmentList `json:"attachments" gorm:"type:text"`
	ProviderCreatedAt time.Time      `json:"providerCreatedAt" gorm:"index"`
	CreatedAt         time.Time      `json:"createdAt"`
}

// HasBody 判断邮件正文是否已经从供应商侧取回。
func (m *Message) HasBody() bool {
	return m.Text != nil || m.HTML != nil
}

// ValidationError 表示请求数据校验失败。
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AsValidationError 判断 err 是否为校验错误。
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
