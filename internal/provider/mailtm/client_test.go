package mailtm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(url, 5*time.Second, 100)
}

func TestClient_GetDomains(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/domains", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"hydra:member":[
			{"id":"d1","domain":"nordmail.test","isActive":true,"isPrivate":false},
			{"id":"d2","domain":"private.test","isActive":true,"isPrivate":true}
		]}`))
	}))
	defer server.Close()

	domains, err := newTestClient(server.URL).GetDomains(context.Background())
	require.NoError(t, err)
	require.Len(t, domains, 2)
	assert.Equal(t, "nordmail.test", domains[0].Domain)
	assert.True(t, domains[1].IsPrivate)
}

func TestClient_CreateAccountAndToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		switch r.URL.Path {
		case "/accounts":
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"acc-1","address":"alex@nordmail.test"}`))
		case "/token":
			w.Write([]byte(`{"id":"acc-1","token":"jwt-token"}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	account, err := client.CreateAccount(context.Background(), "alex@nordmail.test", "temp_pass")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", account.ID)

	token, err := client.GetToken(context.Background(), "alex@nordmail.test", "temp_pass")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", token.Token)
}

func TestClient_GetMessagesSendsBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer mailbox-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{"hydra:member":[
			{"id":"m1","from":{"name":"Sender","address":"s@example.com"},
			 "to":[{"name":"","address":"alex@nordmail.test"}],
			 "subject":"hi","intro":"hello","seen":false,"hasAttachments":false,
			 "createdAt":"2025-06-01T10:00:00Z"}
		]}`))
	}))
	defer server.Close()

	messages, err := newTestClient(server.URL).GetMessages(context.Background(), "mailbox-token")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "m1", messages[0].ID)
	assert.Equal(t, "s@example.com", messages[0].From.Address)
}

func TestClient_GetMessageJoinsHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages/m1", r.URL.Path)
		w.Write([]byte(`{"id":"m1","subject":"hi","text":"plain",
			"html":["<p>one</p>","<p>two</p>"],
			"attachments":[{"id":"a1","filename":"f.pdf","contentType":"application/pdf","size":10,"downloadUrl":"/messages/m1/attachment/a1"}],
			"createdAt":"2025-06-01T10:00:00Z"}`))
	}))
	defer server.Close()

	detail, err := newTestClient(server.URL).GetMessage(context.Background(), "tok", "m1")
	require.NoError(t, err)
	assert.Equal(t, "<p>one</p><p>two</p>", detail.JoinedHTML())
	require.Len(t, detail.Attachments, 1)
	assert.Equal(t, "f.pdf", detail.Attachments[0].Filename)
}

func TestClient_RetriesOnRateLimit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"hydra:member":[]}`))
	}))
	defer server.Close()

	domains, err := newTestClient(server.URL).GetDomains(context.Background())
	require.NoError(t, err)
	assert.Empty(t, domains)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_ErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"hydra:title":"An error occurred","hydra:description":"address: This value is already used."}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).CreateAccount(context.Background(), "dup@x.test", "p")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Contains(t, apiErr.Detail, "already used")
}
