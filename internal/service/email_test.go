package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nordmail/backend/internal/domain"
	"nordmail/backend/internal/provider/mailtm"
	"nordmail/backend/internal/storage"
	"nordmail/backend/internal/storage/memory"
)

func newTestEmailService(t *testing.T) (*EmailService, *AccountService, *fakeProvider) {
	t.Helper()
	store := memory.NewStore()
	provider := newFakeProvider()
	emails := NewEmailService(store, provider, nil, time.Minute, nil, nil)
	accounts := NewAccountService(store, nil, nil)
	return emails, accounts, provider
}

func TestEmailService_ListDomainsCached(t *testing.T) {
	svc, _, provider := newTestEmailService(t)
	ctx := context.Background()

	domains, err := svc.ListDomains(ctx)
	require.NoError(t, err)
	require.Len(t, domains, 1)

	// Second call served from the in-process cache
	_, err = svc.ListDomains(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.domainCalls)
}

func TestEmailService_ListDomainsFiltersUnusable(t *testing.T) {
	svc, _, provider := newTestEmailService(t)
	provider.domains = []mailtm.Domain{
		{ID: "d1", Domain: "open.example", IsActive: true, IsPrivate: false},
		{ID: "d2", Domain: "private.example", IsActive: true, IsPrivate: true},
		{ID: "d3", Domain: "retired.example", IsActive: false, IsPrivate: false},
	}

	domains, err := svc.ListDomains(context.Background())
	require.NoError(t, err)
	require.Len(t, domains, 1)
	assert.Equal(t, "open.example", domains[0].Domain)
}

func TestEmailService_CreateRandomAddress(t *testing.T) {
	svc, accounts, _ := newTestEmailService(t)
	ctx := context.Background()

	account, err := accounts.Register("alice", "secret123")
	require.NoError(t, err)

	email, err := svc.Create(ctx, CreateEmailAddressInput{AccountID: account.ID})
	require.NoError(t, err)

	// Private domains are skipped, first usable one wins
	assert.True(t, strings.HasSuffix(email.Address, "@inbox.example"))
	// Generated local part is two lowercase names plus a 1..999 number, no separator
	assert.Regexp(t, `^[a-z]+[0-9]{1,3}@inbox\.example$`, email.Address)
	assert.NotEmpty(t, email.ProviderAccountID)
	assert.NotEmpty(t, email.ProviderToken)

	listed, err := svc.List(account.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, email.ID, listed[0].ID)
}

func TestEmailService_CreateCustomLocalPart(t *testing.T) {
	svc, accounts, _ := newTestEmailService(t)
	ctx := context.Background()

	account, err := accounts.Register("alice", "secret123")
	require.NoError(t, err)

	email, err := svc.Create(ctx, CreateEmailAddressInput{
		AccountID: account.ID,
		LocalPart: "My.Custom-Name",
	})
	require.NoError(t, err)
	assert.Equal(t, "my.custom-name@inbox.example", email.Address)

	// Invalid local part rejected before touching the provider
	_, err = svc.Create(ctx, CreateEmailAddressInput{
		AccountID: account.ID,
		LocalPart: "bad..name",
	})
	_, ok := domain.AsValidationError(err)
	assert.True(t, ok)
}

func TestEmailService_CreateRequiresAccount(t *testing.T) {
	svc, _, _ := newTestEmailService(t)

	_, err := svc.Create(context.Background(), CreateEmailAddressInput{AccountID: "missing"})
	assert.ErrorIs(t, err, storage.ErrAccountNotFound)
}

func TestEmailService_NoUsableDomain(t *testing.T) {
	svc, accounts, provider := newTestEmailService(t)
	provider.domains = []mailtm.Domain{
		{ID: "d1", Domain: "private.example", IsActive: true, IsPrivate: true},
		{ID: "d2", Domain: "retired.example", IsActive: false, IsPrivate: false},
	}

	account, err := accounts.Register("alice", "secret123")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateEmailAddressInput{AccountID: account.ID})
	assert.ErrorIs(t, err, ErrNoUsableDomain)

	// Provisioning fails before the provider registration endpoint is touched
	assert.Empty(t, provider.accounts)
}
