package sql

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nordmail/backend/internal/domain"
	"nordmail/backend/internal/storage"
)

// Store SQL 数据库存储实现（支持 MySQL 5.7+ 和 PostgreSQL）。
//
// 邮件表上的 (email_address_id, provider_message_id) 唯一索引
// 是同步去重的最终防线，并发写入时由数据库裁决先写入者。
type Store struct {
	db         *gorm.DB
	driverName string // "mysql" or "postgres"
}

// NewStore 创建 SQL 数据库存储。
func NewStore(
	driverName string,
	dsn string,
	maxOpenConns int,
	maxIdleConns int,
	connMaxLifetime time.Duration,
) (*Store, error) {
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var (
		db  *gorm.DB
		err error
	)
	switch driverName {
	case "mysql":
		db, err = gorm.Open(mysql.Open(dsn), gormConfig)
	case "postgres":
		db, err = gorm.Open(postgres.Open(dsn), gormConfig)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: mysql, postgres)", driverName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, driverName: driverName}, nil
}

// Migrate 执行数据库迁移（使用 GORM AutoMigrate）。
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(
		&domain.Account{},
		&domain.EmailAddress{},
		&domain.Message{},
		&domain.AdminSettings{},
	)
}

// Close 关闭数据库连接。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health 检查数据库健康状态。
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateAccount 保存新账户，用户名重复时拒绝。
func (s *Store) CreateAccount(account *domain.Account) error {
	err := s.db.Create(account).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return storage.ErrUsernameTaken
	}
	return err
}

// GetAccount 根据 ID 获取账户。
func (s *Store) GetAccount(id string) (*domain.Account, error) {
	var account domain.Account
	err := s.db.First(&account, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetAccountByUsername 根据用户名获取账户。
func (s *Store) GetAccountByUsername(username string) (*domain.Account, error) {
	var account domain.Account
	err := s.db.First(&account, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateAccount 按字段合并更新账户，未提供的字段保持原值。
//
// 整个合并在事务内完成，改名与唯一性检查之间不会穿插其他写入。
func (s *Store) UpdateAccount(id string, update *domain.AccountUpdate) (*domain.Account, error) {
	var result *domain.Account
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var account domain.Account
		if err := tx.First(&account, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return storage.ErrAccountNotFound
			}
			return err
		}

		updates := map[string]interface{}{}
		if update.Username != nil && *update.Username != account.Username {
			updates["username"] = *update.Username
			account.Username = *update.Username
		}
		if update.Password != nil {
			updates["password"] = *update.Password
			account.Password = *update.Password
		}
		if update.PersonalEmail != nil {
			if *update.PersonalEmail == "" {
				updates["personal_email"] = nil
				account.PersonalEmail = nil
			} else {
				updates["personal_email"] = *update.PersonalEmail
				v := *update.PersonalEmail
				account.PersonalEmail = &v
			}
		}
		if len(updates) > 0 {
			if err := tx.Model(&domain.Account{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return storage.ErrUsernameTaken
				}
				return err
			}
		}
		result = &account
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreateEmailAddress 保存新邮箱地址。
func (s *Store) CreateEmailAddress(email *domain.EmailAddress) error {
	return s.db.Create(email).Error
}

// GetEmailAddress 根据 ID 获取邮箱地址。
func (s *Store) GetEmailAddress(id string) (*domain.EmailAddress, error) {
	var email domain.EmailAddress
	err := s.db.First(&email, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrEmailNotFound
	}
	if err != nil {
		return nil, err
	}
	return &email, nil
}

// ListEmailAddresses 按创建时间倒序返回账户名下的地址。
func (s *Store) ListEmailAddresses(accountID string) ([]domain.EmailAddress, error) {
	var emails []domain.EmailAddress
	err := s.db.
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&emails).Error
	return emails, err
}

// CreateMessage 插入邮件，唯一索引冲突映射为 ErrDuplicateMessage。
func (s *Store) CreateMessage(message *domain.Message) error {
	err := s.db.Create(message).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return storage.ErrDuplicateMessage
	}
	return err
}

// GetMessage 根据 ID 获取邮件。
func (s *Store) GetMessage(id string) (*domain.Message, error) {
	var message domain.Message
	err := s.db.First(&message, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// GetMessageByProviderID 根据供应商邮件 ID 查找本地邮件。
func (s *Store) GetMessageByProviderID(emailAddressID, providerMessageID string) (*domain.Message, error) {
	var message domain.Message
	err := s.db.
		First(&message, "email_address_id = ? AND provider_message_id = ?", emailAddressID, providerMessageID).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// ListMessages 按供应商接收时间倒序返回地址下的邮件。
func (s *Store) ListMessages(emailAddressID string) ([]domain.Message, error) {
	var messages []domain.Message
	err := s.db.
		Where("email_address_id = ?", emailAddressID).
		Order("provider_created_at DESC").
		Find(&messages).Error
	return messages, err
}

// UpdateMessageContent 回填邮件正文与附件。
func (s *Store) UpdateMessageContent(id string, text, html *string, attachments domain.AttachmentList) error {
	updates := map[string]interface{}{
		"text": text,
		"html": html,
	}
	if attachments != nil {
		updates["attachments"] = attachments
	}
	result := s.db.Model(&domain.Message{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrMessageNotFound
	}
	return nil
}

// MarkMessageSeen 将邮件置为已读。邮件不存在时静默成功。
func (s *Store) MarkMessageSeen(id string) error {
	return s.db.Model(&domain.Message{}).Where("id = ?", id).Update("seen", true).Error
}

// DeleteMessage 删除邮件。邮件不存在时静默成功。
func (s *Store) DeleteMessage(id string) error {
	return s.db.Delete(&domain.Message{}, "id = ?", id).Error
}

// GetAdminSettings 获取后台配置。
func (s *Store) GetAdminSettings() (*domain.AdminSettings, error) {
	var settings domain.AdminSettings
	err := s.db.First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrSettingsNotFound
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// SaveAdminSettings 保存后台配置。
func (s *Store) SaveAdminSettings(settings *domain.AdminSettings) error {
	settings.UpdatedAt = time.Now()
	return s.db.Save(settings).Error
}

// CountAccounts 返回账户总数。
func (s *Store) CountAccounts() (int, error) {
	var count int64
	err := s.db.Model(&domain.Account{}).Count(&count).Error
	return int(count), err
}

// CountEmailAddresses 返回邮箱地址总数。
func (s *Store) CountEmailAddresses() (int, error) {
	var count int64
	err := s.db.Model(&domain.EmailAddress{}).Count(&count).Error
	return int(count), err
}

// CountMessages 返回邮件总数。
func (s *Store) CountMessages() (int, error) {
	var count int64
	err := s.db.Model(&domain.Message{}).Count(&count).Error
	return int(count), err
}

// ListRecentAccounts 按创建时间倒序返回最近的账户。
func (s *Store) ListRecentAccounts(limit int) ([]domain.Account, error) {
	var accounts []domain.Account
	err := s.db.Order("created_at DESC").Limit(limit).Find(&accounts).Error
	return accounts, err
}

// ListRecentEmailAddresses 按创建时间倒序返回最近的邮箱地址。
func (s *Store) ListRecentEmailAddresses(limit int) ([]domain.EmailAddress, error) {
	var emails []domain.EmailAddress
	err := s.db.Order("created_at DESC").Limit(limit).Find(&emails).Error
	return emails, err
}
