package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nordmail/backend/internal/domain"
	"nordmail/backend/internal/monitoring"
	"nordmail/backend/internal/storage"
)

// ErrInvalidCredentials 用户名或密码错误
var ErrInvalidCredentials = errors.New("invalid username or password")

// AccountService 封装本地账户相关业务操作。
type AccountService struct {
	store   storage.Store
	log     *zap.Logger
	metrics *monitoring.Metrics
}

// NewAccountService 创建账户业务服务。
func NewAccountService(store storage.Store, log *zap.Logger, metrics *monitoring.Metrics) *AccountService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountService{
		store:   store,
		log:     log,
		metrics: metrics,
	}
}

// Register 注册新账户，用户名重复时返回 storage.ErrUsernameTaken。
func (s *AccountService) Register(username, password string) (*domain.Account, error) {
	if err := domain.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(password); err != nil {
		return nil, err
	}

	account := &domain.Account{
		ID:        uuid.NewString(),
		Username:  username,
		Password:  password,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.CreateAccount(account); err != nil {
		return nil, err
	}

	s.log.Info("account created",
		zap.String("accountID", account.ID),
		zap.String("username", account.Username))
	if s.metrics != nil {
		s.metrics.RecordAccountCreated()
	}

	return account, nil
}

// Login 校验用户名与密码，失败时统一返回 ErrInvalidCredentials，
// 不区分"用户不存在"和"密码错误"。
func (s *AccountService) Login(username, password string) (*domain.Account, error) {
	account, err := s.store.GetAccountByUsername(username)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if account.Password != password {
		return nil, ErrInvalidCredentials
	}

	return account, nil
}

// Get 获取账户信息。
func (s *AccountService) Get(id string) (*domain.Account, error) {
	return s.store.GetAccount(id)
}

// Update 部分更新账户，未提供的字段保持原值。
func (s *AccountService) Update(id string, update *domain.AccountUpdate) (*domain.Account, error) {
	if update == nil || update.Empty() {
		return s.store.GetAccount(id)
	}

	if update.Username != nil {
		if err := domain.ValidateUsername(*update.Username); err != nil {
			return nil, err
		}
	}
	if update.Password != nil {
		if err := domain.ValidatePassword(*update.Password); err != nil {
			return nil, err
		}
	}
	if update.PersonalEmail != nil {
		if err := domain.ValidatePersonalEmail(*update.PersonalEmail); err != nil {
			return nil, err
		}
	}

	return s.store.UpdateAccount(id, update)
}
