package memory

import (
	"sort"
	"sync"
	"time"

	"nordmail/backend/internal/domain"
	"nordmail/backend/internal/storage"
)

// Store 使用内存保存账户、地址与邮件数据，主要用于开发验证。
type Store struct {
	mu           sync.RWMutex
	accounts     map[string]*domain.Account
	byUsername   map[string]string // username -> accountID
	emails       map[string]*domain.EmailAddress
	byAddress    map[string]string              // address -> emailID
	emailsByAcct map[string]map[string]struct{} // accountID -> emailID 集合
	messages     map[string]*domain.Message
	msgsByEmail  map[string]map[string]struct{} // emailID -> messageID 集合
	byProviderID map[string]string              // emailID + "\x00" + providerMessageID -> messageID

	settings *domain.AdminSettings
}

// NewStore 创建一个内存存储实例。
func NewStore() *Store {
	return &Store{
		accounts:     make(map[string]*domain.Account),
		byUsername:   make(map[string]string),
		emails:       make(map[string]*domain.EmailAddress),
		byAddress:    make(map[string]string),
		emailsByAcct: make(map[string]map[string]struct{}),
		messages:     make(map[string]*domain.Message),
		msgsByEmail:  make(map[string]map[string]struct{}),
		byProviderID: make(map[string]string),
	}
}

func providerKey(emailID, providerMessageID string) string {
	return emailID + "\x00" + providerMessageID
}

// CreateAccount 保存新账户，用户名重复时拒绝。
func (s *Store) CreateAccount(account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[account.Username]; ok {
		return storage.ErrUsernameTaken
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}
	cp := *account
	s.accounts[account.ID] = &cp
	s.byUsername[account.Username] = account.ID
	return nil
}

// GetAccount 根据 ID 获取账户。
func (s *Store) GetAccount(id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, storage.ErrAccountNotFound
	}
	cp := *account
	return &cp, nil
}

// GetAccountByUsername 根据用户名获取账户。
func (s *Store) GetAccountByUsername(username string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, storage.ErrAccountNotFound
	}
	cp := *s.accounts[id]
	return &cp, nil
}

// UpdateAccount 按字段合并更新账户，未提供的字段保持原值。
func (s *Store) UpdateAccount(id string, update *domain.AccountUpdate) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, storage.ErrAccountNotFound
	}

	if update.Username != nil && *update.Username != account.Username {
		if owner, taken := s.byUsername[*update.Username]; taken && owner != id {
			return nil, storage.ErrUsernameTaken
		}
		delete(s.byUsername, account.Username)
		account.Username = *update.Username
		s.byUsername[account.Username] = id
	}
	if update.Password != nil {
		account.Password = *update.Password
	}
	if update.PersonalEmail != nil {
		if *update.PersonalEmail == "" {
			account.PersonalEmail = nil
		} else {
			v := *update.PersonalEmail
			account.PersonalEmail = &v
		}
	}

	cp := *account
	return &cp, nil
}

// CreateEmailAddress 保存新邮箱地址。
func (s *Store) CreateEmailAddress(email *domain.EmailAddress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[email.AccountID]; !ok {
		return storage.ErrAccountNotFound
	}
	if email.CreatedAt.IsZero() {
		email.CreatedAt = time.Now()
	}
	cp := *email
	s.emails[email.ID] = &cp
	s.byAddress[email.Address] = email.ID
	if s.emailsByAcct[email.AccountID] == nil {
		s.emailsByAcct[email.AccountID] = make(map[string]struct{})
	}
	s.emailsByAcct[email.AccountID][email.ID] = struct{}{}
	return nil
}

// GetEmailAddress 根据 ID 获取邮箱地址。
func (s *Store) GetEmailAddress(id string) (*domain.EmailAddress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email, ok := s.emails[id]
	if !ok {
		return nil, storage.ErrEmailNotFound
	}
	cp := *email
	return &cp, nil
}

// ListEmailAddresses 按创建时间倒序返回账户名下的地址。
func (s *Store) ListEmailAddresses(accountID string) ([]domain.EmailAddress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.EmailAddress, 0, len(s.emailsByAcct[accountID]))
	for id := range s.emailsByAcct[accountID] {
		result = append(result, *s.emails[id])
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// CreateMessage 插入邮件，同一地址下供应商邮件 ID 重复时拒绝。
func (s *Store) CreateMessage(message *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emails[message.EmailAddressID]; !ok {
		return storage.ErrEmailNotFound
	}
	key := providerKey(message.EmailAddressID, message.ProviderMessageID)
	if _, ok := s.byProviderID[key]; ok {
		return storage.ErrDuplicateMessage
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	cp := *message
	s.messages[message.ID] = &cp
	s.byProviderID[key] = message.ID
	if s.msgsByEmail[message.EmailAddressID] == nil {
		s.msgsByEmail[message.EmailAddressID] = make(map[string]struct{})
	}
	s.msgsByEmail[message.EmailAddressID][message.ID] = struct{}{}
	return nil
}

// GetMessage 根据 ID 获取邮件。
func (s *Store) GetMessage(id string) (*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	message, ok := s.messages[id]
	if !ok {
		return nil, storage.ErrMessageNotFound
	}
	cp := *message
	return &cp, nil
}

// GetMessageByProviderID 根据供应商邮件 ID 查找本地邮件。
func (s *Store) GetMessageByProviderID(emailAddressID, providerMessageID string) (*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byProviderID[providerKey(emailAddressID, providerMessageID)]
	if !ok {
		return nil, storage.ErrMessageNotFound
	}
	cp := *s.messages[id]
	return &cp, nil
}

// ListMessages 按供应商接收时间倒序返回地址下的邮件。
func (s *Store) ListMessages(emailAddressID string) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Message, 0, len(s.msgsByEmail[emailAddressID]))
	for id := range s.msgsByEmail[emailAddressID] {
		result = append(result, *s.messages[id])
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ProviderCreatedAt.After(result[j].ProviderCreatedAt)
	})
	return result, nil
}

// UpdateMessageContent 回填邮件正文与附件。
func (s *Store) UpdateMessageContent(id string, text, html *string, attachments domain.AttachmentList) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, ok := s.messages[id]
	if !ok {
		return storage.ErrMessageNotFound
	}
	message.Text = text
	message.HTML = html
	if attachments != nil {
		message.Attachments = attachments
	}
	return nil
}

// MarkMessageSeen 将邮件置为已读。邮件不存在时静默成功，
// 已读标记只增不减。
func (s *Store) MarkMessageSeen(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if message, ok := s.messages[id]; ok {
		message.Seen = true
	}
	return nil
}

// DeleteMessage 删除邮件。邮件不存在时静默成功。
func (s *Store) DeleteMessage(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, ok := s.messages[id]
	if !ok {
		return nil
	}
	delete(s.messages, id)
	delete(s.byProviderID, providerKey(message.EmailAddressID, message.ProviderMessageID))
	if set := s.msgsByEmail[message.EmailAddressID]; set != nil {
		delete(set, id)
	}
	return nil
}

// GetAdminSettings 获取后台配置。
func (s *Store) GetAdminSettings() (*domain.AdminSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return nil, storage.ErrSettingsNotFound
	}
	cp := *s.settings
	return &cp, nil
}

// SaveAdminSettings 保存后台配置。
func (s *Store) SaveAdminSettings(settings *domain.AdminSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings.UpdatedAt = time.Now()
	cp := *settings
	s.settings = &cp
	return nil
}

// CountAccounts 返回账户总数。
func (s *Store) CountAccounts() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts), nil
}

// CountEmailAddresses 返回邮箱地址总数。
func (s *Store) CountEmailAddresses() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.emails), nil
}

// CountMessages 返回邮件总数。
func (s *Store) CountMessages() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages), nil
}

// ListRecentAccounts 按创建时间倒序返回最近的账户。
func (s *Store) ListRecentAccounts(limit int) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ListRecentEmailAddresses 按创建时间倒序返回最近的邮箱地址。
func (s *Store) ListRecentEmailAddresses(limit int) ([]domain.EmailAddress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.EmailAddress, 0, len(s.emails))
	for _, e := range s.emails {
		result = append(result, *e)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Close 关闭存储。内存实现无资源可释放。
func (s *Store) Close() error {
	return nil
}

// Health 返回存储健康状态。
func (s *Store) Health() error {
	return nil
}
