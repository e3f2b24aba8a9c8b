package memory

import (
	"fmt"
	"testing"
	"time"

	"nordmail/backend/internal/domain"
)

func BenchmarkMemoryStore_CreateMessage(b *testing.B) {
	store := NewStore()
	store.CreateAccount(&domain.Account{ID: "acct-1", Username: "bench_user", Password: "x"})
	store.CreateEmailAddress(&domain.EmailAddress{ID: "em-1", AccountID: "acct-1", Address: "bench@nordmail.test"})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		store.CreateMessage(&domain.Message{
			ID:                fmt.Sprintf("msg-%d", i),
			EmailAddressID:    "em-1",
			ProviderMessageID: fmt.Sprintf("prov-%d", i),
			Subject:           "benchmark",
			ProviderCreatedAt: time.Now(),
		})
	}
}

func BenchmarkMemoryStore_GetMessageByProviderID(b *testing.B) {
	store := NewStore()
	store.CreateAccount(&domain.Account{ID: "acct-1", Username: "bench_user", Password: "x"})
	store.CreateEmailAddress(&domain.EmailAddress{ID: "em-1", AccountID: "acct-1", Address: "bench@nordmail.test"})

	// Pre-populate with test data
	for i := 0; i < 1000; i++ {
		store.CreateMessage(&domain.Message{
			ID:                fmt.Sprintf("msg-%d", i),
			EmailAddressID:    "em-1",
			ProviderMessageID: fmt.Sprintf("prov-%d", i),
		})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		store.GetMessageByProviderID("em-1", fmt.Sprintf("prov-%d", i%1000))
	}
}

func BenchmarkMemoryStore_ListMessages(b *testing.B) {
	store := NewStore()
	store.CreateAccount(&domain.Account{ID: "acct-1", Username: "bench_user", Password: "x"})
	store.CreateEmailAddress(&domain.EmailAddress{ID: "em-1", AccountID: "acct-1", Address: "bench@nordmail.test"})

	for i := 0; i < 200; i++ {
		store.CreateMessage(&domain.Message{
			ID:                fmt.Sprintf("msg-%d", i),
			EmailAddressID:    "em-1",
			ProviderMessageID: fmt.Sprintf("prov-%d", i),
			ProviderCreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		store.ListMessages("em-1")
	}
}
