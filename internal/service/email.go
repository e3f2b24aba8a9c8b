package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nordmail/backend/internal/cache"
	"nordmail/backend/internal/domain"
	"nordmail/backend/internal/monitoring"
	"nordmail/backend/internal/storage"
	redisstore "nordmail/backend/internal/storage/redis"
)

// ErrNoUsableDomain 供应商当前没有可用域名
var ErrNoUsableDomain = errors.New("no usable domain available")

const domainCacheKey = "domains"

// 随机地址的取名素材
var (
	firstNames = []string{
		"alex", "sam", "jordan", "taylor", "casey",
		"morgan", "riley", "jamie", "avery", "drew",
	}
	lastNames = []string{
		"smith", "jones", "brown", "wilson", "taylor",
		"davies", "evans", "walker", "wright", "jackson",
	}
	passwordAlphabet = []rune("abcdefghijklmnopqrstuvwxyz" +
		"ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
)

// EmailService 封装邮箱地址的开通与查询。
//
// 开通一个地址需要在供应商侧注册账户并换取令牌，域名列表
// 走两级缓存：进程内 TTL 缓存优先，其次 Redis，最后回源。
type EmailService struct {
	store    storage.Store
	provider Provider
	l1       *cache.TTLCache[[]domain.MailDomain]
	l2       *redisstore.Cache // 可为 nil
	ttl      time.Duration
	log      *zap.Logger
	metrics  *monitoring.Metrics

	mu     sync.Mutex
	random *rand.Rand
}

// NewEmailService 创建邮箱地址业务服务。
//
// 参数:
//   - l2: Redis 缓存，未启用时传 nil
//   - domainTTL: 域名列表缓存时长
func NewEmailService(
	store storage.Store,
	provider Provider,
	l2 *redisstore.Cache,
	domainTTL time.Duration,
	log *zap.Logger,
	metrics *monitoring.Metrics,
) *EmailService {
	if domainTTL <= 0 {
		domainTTL = 10 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &EmailService{
		store:    store,
		provider: provider,
		l1:       cache.NewTTLCache[[]domain.MailDomain](domainTTL),
		l2:       l2,
		ttl:      domainTTL,
		log:      log,
		metrics:  metrics,
		random:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ListDomains 返回供应商当前可用的域名列表。
// 停用和私有域名在这里被过滤，调用方拿到的都是可直接使用的。
func (s *EmailService) ListDomains(ctx context.Context) ([]domain.MailDomain, error) {
	if domains, ok := s.l1.Get(domainCacheKey); ok {
		return domains, nil
	}

	if s.l2 != nil {
		if domains, err := s.l2.GetCachedDomainList(ctx); err == nil {
			s.l1.Set(domainCacheKey, domains, 0)
			return domains, nil
		}
	}

	providerDomains, err := s.provider.GetDomains(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching provider domains: %w", err)
	}

	domains := make([]domain.MailDomain, 0, len(providerDomains))
	for _, d := range providerDomains {
		mapped := domain.MailDomain{
			ID:        d.ID,
			Domain:    d.Domain,
			IsActive:  d.IsActive,
			IsPrivate: d.IsPrivate,
		}
		if !mapped.Usable() {
			continue
		}
		domains = append(domains, mapped)
	}

	s.l1.Set(domainCacheKey, domains, 0)
	if s.l2 != nil {
		if err := s.l2.CacheDomainList(ctx, domains, s.ttl); err != nil {
			s.log.Warn("failed to cache domain list", zap.Error(err))
		}
	}

	return domains, nil
}

// CreateEmailAddressInput 定义开通地址的输入。
type CreateEmailAddressInput struct {
	AccountID string
	LocalPart string // 可选，为空时随机生成
}

// Create 为账户开通一个新的临时邮箱地址。
//
// 本地部分为空时随机生成；域名取供应商第一个可用域名。
func (s *EmailService) Create(ctx context.Context, input CreateEmailAddressInput) (*domain.EmailAddress, error) {
	if _, err := s.store.GetAccount(input.AccountID); err != nil {
		return nil, err
	}

	domains, err := s.ListDomains(ctx)
	if err != nil {
		return nil, err
	}
	if len(domains) == 0 {
		return nil, ErrNoUsableDomain
	}
	selected := domains[0].Domain

	localPart := input.LocalPart
	if localPart == "" {
		localPart = s.randomLocalPart()
	} else {
		normalized, err := domain.NormalizeLocalPart(localPart)
		if err != nil {
			return nil, err
		}
		localPart = normalized
	}

	address := fmt.Sprintf("%s@%s", localPart, selected)
	password := s.randomPassword()

	providerAccount, err := s.provider.CreateAccount(ctx, address, password)
	if err != nil {
		return nil, fmt.Errorf("creating provider account: %w", err)
	}

	token, err := s.provider.GetToken(ctx, address, password)
	if err != nil {
		return nil, fmt.Errorf("fetching provider token: %w", err)
	}

	email := &domain.EmailAddress{
		ID:                uuid.NewString(),
		AccountID:         input.AccountID,
		Address:           address,
		ProviderAccountID: providerAccount.ID,
		ProviderToken:     token.Token,
		CreatedAt:         time.Now().UTC(),
	}

	if err := s.store.CreateEmailAddress(email); err != nil {
		return nil, err
	}

	s.log.Info("email address created",
		zap.String("emailID", email.ID),
		zap.String("accountID", email.AccountID),
		zap.String("address", email.Address))
	if s.metrics != nil {
		s.metrics.RecordEmailAddressCreated()
	}

	return email, nil
}

// Get 获取单个邮箱地址。
func (s *EmailService) Get(id string) (*domain.EmailAddress, error) {
	return s.store.GetEmailAddress(id)
}

// List 按创建时间倒序返回账户名下的地址。
func (s *EmailService) List(accountID string) ([]domain.EmailAddress, error) {
	if _, err := s.store.GetAccount(accountID); err != nil {
		return nil, err
	}
	return s.store.ListEmailAddresses(accountID)
}

// randomLocalPart 生成 名姓数字 形式的随机本地部分，例如 alexsmith42。
func (s *EmailService) randomLocalPart() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	first := firstNames[s.random.Intn(len(firstNames))]
	last := lastNames[s.random.Intn(len(lastNames))]
	number := s.random.Intn(999) + 1
	return fmt.Sprintf("%s%s%d", first, last, number)
}

// randomPassword 生成供应商侧账户口令。口令只在本服务内部使用，
// 换取令牌后不再需要用户感知。
func (s *EmailService) randomPassword() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	runes := make([]rune, 8)
	for i := range runes {
		runes[i] = passwordAlphabet[s.random.Intn(len(passwordAlphabet))]
	}
	return "temp_" + string(runes)
}
