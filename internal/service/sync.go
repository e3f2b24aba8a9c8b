package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"nordmail/backend/internal/domain"
	"nordmail/backend/internal/monitoring"
	"nordmail/backend/internal/pool"
	"nordmail/backend/internal/provider/mailtm"
	"nordmail/backend/internal/storage"
	redisstore "nordmail/backend/internal/storage/redis"
)

// Notifier 推送新邮件通知，通常由 WebSocket Hub 实现。
type Notifier interface {
	NotifyNewMessage(message *domain.Message)
}

// SyncService 负责把供应商侧的邮件同步到本地存储。
//
// 同一地址的并发同步请求通过 singleflight 合并为一次执行；
// 邮件详情的拉取经过共享协程池限制并发。同步只做插入，
// 已存在的邮件不会被覆盖。
type SyncService struct {
	store    storage.Store
	provider Provider
	pool     *pool.WorkerPool
	notifier Notifier          // 可为 nil
	cache    *redisstore.Cache // 可为 nil
	group    singleflight.Group
	log      *zap.Logger
	metrics  *monitoring.Metrics
}

// NewSyncService 创建同步业务服务。
func NewSyncService(
	store storage.Store,
	provider Provider,
	workers *pool.WorkerPool,
	notifier Notifier,
	cache *redisstore.Cache,
	log *zap.Logger,
	metrics *monitoring.Metrics,
) *SyncService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SyncService{
		store:    store,
		provider: provider,
		pool:     workers,
		notifier: notifier,
		cache:    cache,
		log:      log,
		metrics:  metrics,
	}
}

// SyncAndList 同步某地址的邮件并按接收时间倒序返回完整列表。
//
// 供应商列表拉取失败时整个操作失败，已插入的邮件保留。
func (s *SyncService) SyncAndList(ctx context.Context, emailAddressID string) ([]domain.Message, error) {
	email, err := s.store.GetEmailAddress(emailAddressID)
	if err != nil {
		return nil, err
	}

	result, err, _ := s.group.Do(emailAddressID, func() (interface{}, error) {
		return s.syncRun(ctx, email)
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Message), nil
}

// syncRun 执行一次同步并返回本地列表。
func (s *SyncService) syncRun(ctx context.Context, email *domain.EmailAddress) ([]domain.Message, error) {
	start := time.Now()

	summaries, err := s.provider.GetMessages(ctx, email.ProviderToken)
	if err != nil {
		s.log.Warn("provider message list fetch failed",
			zap.String("emailID", email.ID),
			zap.Error(err))
		if s.metrics != nil {
			s.metrics.RecordSync("provider_error", time.Since(start), 0, 0)
		}
		return nil, fmt.Errorf("fetching provider message list: %w", err)
	}

	inserted, duplicates := s.insertNew(ctx, email, summaries)

	if inserted > 0 && s.cache != nil {
		if err := s.cache.DeleteCachedMessageList(ctx, email.ID); err != nil {
			s.log.Warn("failed to invalidate message cache", zap.Error(err))
		}
	}

	if s.metrics != nil {
		s.metrics.RecordSync("ok", time.Since(start), inserted, duplicates)
	}

	return s.store.ListMessages(email.ID)
}

// insertNew 拉取并写入本地没有的邮件，返回插入数和重复数。
func (s *SyncService) insertNew(ctx context.Context, email *domain.EmailAddress, summaries []mailtm.MessageSummary) (int, int) {
	var (
		mu         sync.Mutex
		wg         sync.WaitGroup
		inserted   int
		duplicates int
	)

	for _, summary := range summaries {
		_, err := s.store.GetMessageByProviderID(email.ID, summary.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrMessageNotFound) {
			s.log.Error("message lookup failed",
				zap.String("emailID", email.ID),
				zap.String("providerMessageID", summary.ID),
				zap.Error(err))
			continue
		}

		summary := summary
		wg.Add(1)
		task := func() {
			defer wg.Done()

			message, err := s.fetchAndStore(ctx, email, summary)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				inserted++
				if s.notifier != nil {
					s.notifier.NotifyNewMessage(message)
				}
			case errors.Is(err, storage.ErrDuplicateMessage):
				// 并发同步先写入者胜出
				duplicates++
			default:
				s.log.Error("message sync failed",
					zap.String("emailID", email.ID),
					zap.String("providerMessageID", summary.ID),
					zap.Error(err))
			}
		}

		if s.pool != nil {
			s.pool.Submit(task)
		} else {
			task()
		}
	}

	wg.Wait()
	return inserted, duplicates
}

// fetchAndStore 拉取单封邮件详情并写入本地。
func (s *SyncService) fetchAndStore(ctx context.Context, email *domain.EmailAddress, summary mailtm.MessageSummary) (*domain.Message, error) {
	message := &domain.Message{
		ID:                uuid.NewString(),
		EmailAddressID:    email.ID,
		ProviderMessageID: summary.ID,
		From:              domain.EmailAddr{Name: summary.From.Name, Address: summary.From.Address},
		To:                toRecipients(summary.To),
		Subject:           summary.Subject,
		Intro:             summary.Intro,
		HasAttachments:    summary.HasAttachments,
		ProviderCreatedAt: summary.CreatedAt,
		CreatedAt:         time.Now().UTC(),
	}

	detail, err := s.provider.GetMessage(ctx, email.ProviderToken, summary.ID)
	if err != nil {
		// 详情拉取失败时仍然落一条摘要，正文延后补齐
		s.log.Warn("detail fetch failed, storing summary only",
			zap.String("providerMessageID", summary.ID),
			zap.Error(err))
	} else {
		applyDetail(message, detail)
	}

	if err := s.store.CreateMessage(message); err != nil {
		return nil, err
	}
	return message, nil
}

// GetMessage 获取单封邮件，正文缺失时从供应商侧补齐。
func (s *SyncService) GetMessage(ctx context.Context, id string) (*domain.Message, error) {
	message, err := s.store.GetMessage(id)
	if err != nil {
		return nil, err
	}
	if message.HasBody() {
		return message, nil
	}

	email, err := s.store.GetEmailAddress(message.EmailAddressID)
	if err != nil {
		return nil, err
	}

	detail, err := s.provider.GetMessage(ctx, email.ProviderToken, message.ProviderMessageID)
	if err != nil {
		return nil, fmt.Errorf("fetching message detail: %w", err)
	}

	applyDetail(message, detail)
	if err := s.store.UpdateMessageContent(id, message.Text, message.HTML, message.Attachments); err != nil {
		return nil, err
	}
	return message, nil
}

// MarkSeen 将邮件置为已读，邮件不存在时静默成功。
func (s *SyncService) MarkSeen(ctx context.Context, id string) error {
	if err := s.store.MarkMessageSeen(id); err != nil {
		return err
	}
	s.invalidateFor(ctx, id)
	return nil
}

// Delete 删除本地邮件副本，供应商侧不受影响。
// 已删除的邮件在下次同步时可能重新出现。
func (s *SyncService) Delete(ctx context.Context, id string) error {
	s.invalidateFor(ctx, id)
	return s.store.DeleteMessage(id)
}

// invalidateFor 尽力失效邮件所属地址的列表缓存。
func (s *SyncService) invalidateFor(ctx context.Context, messageID string) {
	if s.cache == nil {
		return
	}
	message, err := s.store.GetMessage(messageID)
	if err != nil {
		return
	}
	if err := s.cache.DeleteCachedMessageList(ctx, message.EmailAddressID); err != nil {
		s.log.Warn("failed to invalidate message cache", zap.Error(err))
	}
}

func toRecipients(addresses []mailtm.Address) domain.RecipientList {
	recipients := make(domain.RecipientList, 0, len(addresses))
	for _, a := range addresses {
		recipients = append(recipients, domain.EmailAddr{Name: a.Name, Address: a.Address})
	}
	return recipients
}

func applyDetail(message *domain.Message, detail *mailtm.MessageDetail) {
	text := detail.Text
	html := detail.JoinedHTML()
	message.Text = &text
	message.HTML = &html

	attachments := make(domain.AttachmentList, 0, len(detail.Attachments))
	for _, a := range detail.Attachments {
		attachments = append(attachments, domain.Attachment{
			ID:          a.ID,
			Filename:    a.Filename,
			ContentType: a.ContentType,
			Size:        a.Size,
			DownloadURL: a.DownloadURL,
		})
	}
	message.Attachments = attachments
}
