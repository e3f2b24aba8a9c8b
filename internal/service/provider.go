package service

import (
	"context"

	"nordmail/backend/internal/provider/mailtm"
)

// Provider 抽象上游邮件供应商，便于测试时替换。
type Provider interface {
	GetDomains(ctx context.Context) ([]mailtm.Domain, error)
	CreateAccount(ctx context.Context, address, password string) (*mailtm.Account, error)
	GetToken(ctx context.Context, address, password string) (*mailtm.Token, error)
	GetMessages(ctx context.Context, token string) ([]mailtm.MessageSummary, error)
	GetMessage(ctx context.Context, token, id string) (*mailtm.MessageDetail, error)
}
