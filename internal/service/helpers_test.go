package service

import (
	"context"
	"fmt"
	"sync"

	"nordmail/backend/internal/provider/mailtm"
)

// fakeProvider 测试用的供应商实现。
type fakeProvider struct {
	mu sync.Mutex

	domains     []mailtm.Domain
	domainCalls int

	accounts map[string]string // address -> password

	summaries map[string][]mailtm.MessageSummary // token -> summaries
	details   map[string]*mailtm.MessageDetail   // providerMessageID -> detail

	failMessages bool
	failDetails  bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		domains: []mailtm.Domain{
			{ID: "d1", Domain: "private.example", IsActive: true, IsPrivate: true},
			{ID: "d2", Domain: "inbox.example", IsActive: true, IsPrivate: false},
		},
		accounts:  make(map[string]string),
		summaries: make(map[string][]mailtm.MessageSummary),
		details:   make(map[string]*mailtm.MessageDetail),
	}
}

func (p *fakeProvider) GetDomains(ctx context.Context) ([]mailtm.Domain, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.domainCalls++
	return p.domains, nil
}

func (p *fakeProvider) CreateAccount(ctx context.Context, address, password string) (*mailtm.Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.accounts[address]; exists {
		return nil, &mailtm.APIError{StatusCode: 422, Detail: "address already used"}
	}
	p.accounts[address] = password
	return &mailtm.Account{ID: "acct-" + address, Address: address}, nil
}

func (p *fakeProvider) GetToken(ctx context.Context, address, password string) (*mailtm.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.accounts[address] != password {
		return nil, &mailtm.APIError{StatusCode: 401, Detail: "invalid credentials"}
	}
	return &mailtm.Token{ID: "tok", Token: "token-" + address}, nil
}

func (p *fakeProvider) GetMessages(ctx context.Context, token string) ([]mailtm.MessageSummary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failMessages {
		return nil, &mailtm.APIError{StatusCode: 503, Detail: "unavailable"}
	}
	return p.summaries[token], nil
}

func (p *fakeProvider) GetMessage(ctx context.Context, token, id string) (*mailtm.MessageDetail, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failDetails {
		return nil, &mailtm.APIError{StatusCode: 503, Detail: "unavailable"}
	}
	detail, ok := p.details[id]
	if !ok {
		return nil, &mailtm.APIError{StatusCode: 404, Detail: "not found"}
	}
	return detail, nil
}

// addMessage 向某令牌对应的邮箱投递一封测试邮件。
func (p *fakeProvider) addMessage(token string, summary mailtm.MessageSummary, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summaries[token] = append(p.summaries[token], summary)
	p.details[summary.ID] = &mailtm.MessageDetail{
		MessageSummary: summary,
		Text:           text,
		HTML:           []string{fmt.Sprintf("<p>%s</p>", text)},
	}
}
