package service

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"nordmail/backend/internal/auth/jwt"
	"nordmail/backend/internal/domain"
	"nordmail/backend/internal/storage"
)

// ErrAdminDisabled 后台配置未初始化
var ErrAdminDisabled = errors.New("admin access not configured")

// AdminService 封装后台管理操作。
//
// 管理口令以 bcrypt 散列保存在存储层，登录成功后签发 JWT 会话。
type AdminService struct {
	store      storage.Store
	jwtManager *jwt.Manager
	log        *zap.Logger
}

// NewAdminService 创建后台管理服务。
func NewAdminService(store storage.Store, jwtManager *jwt.Manager, log *zap.Logger) *AdminService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminService{
		store:      store,
		jwtManager: jwtManager,
		log:        log,
	}
}

// EnsureDefaults 确保后台配置存在，首次启动时用给定口令初始化。
func (s *AdminService) EnsureDefaults(password string) error {
	_, err := s.store.GetAdminSettings()
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrSettingsNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	settings := domain.DefaultAdminSettings()
	settings.PasswordHash = string(hash)
	if err := s.store.SaveAdminSettings(settings); err != nil {
		return err
	}

	s.log.Info("admin settings initialized", zap.String("username", settings.Username))
	return nil
}

// Login 校验管理员凭据并签发令牌对。
func (s *AdminService) Login(username, password string) (*jwt.TokenPair, error) {
	settings, err := s.store.GetAdminSettings()
	if err != nil {
		if errors.Is(err, storage.ErrSettingsNotFound) {
			return nil, ErrAdminDisabled
		}
		return nil, err
	}

	if settings.Username != username {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(settings.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.jwtManager.GenerateTokenPair(username)
}

// Refresh 用刷新令牌换取新的访问令牌。
func (s *AdminService) Refresh(refreshToken string) (string, error) {
	return s.jwtManager.RefreshAccessToken(refreshToken)
}

// Stats 返回统计概览。
func (s *AdminService) Stats() (*domain.AdminStats, error) {
	accounts, err := s.store.CountAccounts()
	if err != nil {
		return nil, err
	}
	emails, err := s.store.CountEmailAddresses()
	if err != nil {
		return nil, err
	}
	messages, err := s.store.CountMessages()
	if err != nil {
		return nil, err
	}

	return &domain.AdminStats{
		AccountCount:      accounts,
		EmailAddressCount: emails,
		MessageCount:      messages,
	}, nil
}

// Activity 返回最近创建的账户和地址。
func (s *AdminService) Activity(limit int) (*domain.AdminActivity, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	accounts, err := s.store.ListRecentAccounts(limit)
	if err != nil {
		return nil, err
	}
	emails, err := s.store.ListRecentEmailAddresses(limit)
	if err != nil {
		return nil, err
	}

	return &domain.AdminActivity{
		RecentAccounts:       accounts,
		RecentEmailAddresses: emails,
	}, nil
}

// GetSettings 返回后台配置。
func (s *AdminService) GetSettings() (*domain.AdminSettings, error) {
	return s.store.GetAdminSettings()
}

// UpdateSettingsInput 定义后台配置更新的输入。
type UpdateSettingsInput struct {
	Username              *string
	Password              *string
	SessionTimeoutMinutes *int
}

// UpdateSettings 部分更新后台配置，口令更新时重新散列。
func (s *AdminService) UpdateSettings(input UpdateSettingsInput) (*domain.AdminSettings, error) {
	settings, err := s.store.GetAdminSettings()
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		if err := domain.ValidateUsername(*input.Username); err != nil {
			return nil, err
		}
		settings.Username = *input.Username
	}
	if input.Password != nil {
		if err := domain.ValidatePassword(*input.Password); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		settings.PasswordHash = string(hash)
	}
	if input.SessionTimeoutMinutes != nil {
		if *input.SessionTimeoutMinutes < 5 || *input.SessionTimeoutMinutes > 1440 {
			return nil, &domain.ValidationError{Field: "sessionTimeoutMinutes", Reason: "must be between 5 and 1440"}
		}
		settings.SessionTimeoutMinutes = *input.SessionTimeoutMinutes
	}

	settings.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveAdminSettings(settings); err != nil {
		return nil, err
	}

	s.log.Info("admin settings updated", zap.String("username", settings.Username))
	return settings, nil
}
