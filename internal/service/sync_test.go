package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nordmail/backend/internal/domain"
	"nordmail/backend/internal/provider/mailtm"
	"nordmail/backend/internal/storage"
	"nordmail/backend/internal/storage/memory"
)

// recordingNotifier 记录收到的通知。
type recordingNotifier struct {
	mu       sync.Mutex
	messages []*domain.Message
}

func (n *recordingNotifier) NotifyNewMessage(message *domain.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func newTestSyncService(t *testing.T) (*SyncService, *domain.EmailAddress, *fakeProvider, *recordingNotifier) {
	t.Helper()
	store := memory.NewStore()
	provider := newFakeProvider()
	notifier := &recordingNotifier{}

	accounts := NewAccountService(store, nil, nil)
	account, err := accounts.Register("alice", "secret123")
	require.NoError(t, err)

	emails := NewEmailService(store, provider, nil, time.Minute, nil, nil)
	email, err := emails.Create(context.Background(), CreateEmailAddressInput{AccountID: account.ID})
	require.NoError(t, err)

	svc := NewSyncService(store, provider, nil, notifier, nil, nil, nil)
	return svc, email, provider, notifier
}

func summaryAt(id, subject string, at time.Time) mailtm.MessageSummary {
	return mailtm.MessageSummary{
		ID:        id,
		From:      mailtm.Address{Name: "Sender", Address: "sender@example.com"},
		To:        []mailtm.Address{{Address: "someone@inbox.example"}},
		Subject:   subject,
		Intro:     subject + " intro",
		CreatedAt: at,
	}
}

func TestSyncService_SyncAndList(t *testing.T) {
	svc, email, provider, notifier := newTestSyncService(t)
	ctx := context.Background()

	now := time.Now().UTC()
	provider.addMessage(email.ProviderToken, summaryAt("pm-1", "older", now.Add(-time.Hour)), "first body")
	provider.addMessage(email.ProviderToken, summaryAt("pm-2", "newer", now), "second body")

	messages, err := svc.SyncAndList(ctx, email.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	// Newest first
	assert.Equal(t, "newer", messages[0].Subject)
	assert.Equal(t, "older", messages[1].Subject)

	// Bodies fetched during sync
	require.NotNil(t, messages[0].Text)
	assert.Equal(t, "second body", *messages[0].Text)
	require.NotNil(t, messages[0].HTML)
	assert.Equal(t, "<p>second body</p>", *messages[0].HTML)

	assert.Equal(t, 2, notifier.count())
}

func TestSyncService_SyncIsIdempotent(t *testing.T) {
	svc, email, provider, notifier := newTestSyncService(t)
	ctx := context.Background()

	provider.addMessage(email.ProviderToken, summaryAt("pm-1", "hello", time.Now().UTC()), "body")

	first, err := svc.SyncAndList(ctx, email.ID)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Re-running the sync must not duplicate or overwrite
	second, err := svc.SyncAndList(ctx, email.ID)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, 1, notifier.count())
}

func TestSyncService_ProviderFailureFailsOperation(t *testing.T) {
	svc, email, provider, _ := newTestSyncService(t)
	ctx := context.Background()

	provider.addMessage(email.ProviderToken, summaryAt("pm-1", "hello", time.Now().UTC()), "body")
	_, err := svc.SyncAndList(ctx, email.ID)
	require.NoError(t, err)

	// A failed list fetch fails the whole call, earlier inserts survive
	provider.failMessages = true
	_, err = svc.SyncAndList(ctx, email.ID)
	require.Error(t, err)
	var apiErr *mailtm.APIError
	assert.ErrorAs(t, err, &apiErr)

	provider.failMessages = false
	messages, err := svc.SyncAndList(ctx, email.ID)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}

func TestSyncService_UnknownEmailAddress(t *testing.T) {
	svc, _, _, _ := newTestSyncService(t)

	_, err := svc.SyncAndList(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrEmailNotFound)
}

func TestSyncService_GetMessageBackfillsBody(t *testing.T) {
	svc, email, provider, _ := newTestSyncService(t)
	ctx := context.Background()

	// Detail fetch fails during sync, only the summary lands
	provider.addMessage(email.ProviderToken, summaryAt("pm-1", "hello", time.Now().UTC()), "body")
	provider.failDetails = true

	messages, err := svc.SyncAndList(ctx, email.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.False(t, messages[0].HasBody())

	// Detail becomes available, single read backfills the body
	provider.failDetails = false
	message, err := svc.GetMessage(ctx, messages[0].ID)
	require.NoError(t, err)
	require.NotNil(t, message.Text)
	assert.Equal(t, "body", *message.Text)

	// Persisted, not just returned
	again, err := svc.GetMessage(ctx, messages[0].ID)
	require.NoError(t, err)
	assert.True(t, again.HasBody())
}

func TestSyncService_MarkSeenAndDelete(t *testing.T) {
	svc, email, provider, _ := newTestSyncService(t)
	ctx := context.Background()

	provider.addMessage(email.ProviderToken, summaryAt("pm-1", "hello", time.Now().UTC()), "body")
	messages, err := svc.SyncAndList(ctx, email.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	require.NoError(t, svc.MarkSeen(ctx, messages[0].ID))
	message, err := svc.GetMessage(ctx, messages[0].ID)
	require.NoError(t, err)
	assert.True(t, message.Seen)

	// Marking an unknown message is a silent no-op
	require.NoError(t, svc.MarkSeen(ctx, "missing"))

	require.NoError(t, svc.Delete(ctx, messages[0].ID))
	_, err = svc.GetMessage(ctx, messages[0].ID)
	assert.ErrorIs(t, err, storage.ErrMessageNotFound)

	// Deleting again is a silent no-op
	require.NoError(t, svc.Delete(ctx, messages[0].ID))

	// The deleted message comes back on the next sync
	resynced, err := svc.SyncAndList(ctx, email.ID)
	require.NoError(t, err)
	assert.Len(t, resynced, 1)
}
