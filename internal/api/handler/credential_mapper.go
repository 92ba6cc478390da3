package handler

import (
	"time"

	"github.com/vaultkeeper/credvault/internal/core/domain"
	"github.com/vaultkeeper/credvault/internal/core/ports"
)

// --- Request → Service input ---

func toCredentialInput(req createCredentialRequest, idempotencyKey string) ports.CredentialInput {
	username := req.UsernameOrEmail
	if username == "" {
		username = req.UsernameOrEmailAlias
	}
	return ports.CredentialInput{
		Platform:        req.Platform,
		UsernameOrEmail: username,
		WebsiteURL:      req.WebsiteURL,
		Description:     req.Description,
		Password:        req.Password,
		IdempotencyKey:  idempotencyKey,
	}
}

func toCredentialUpdate(req updateCredentialRequest) ports.CredentialUpdate {
	username := req.UsernameOrEmail
	if username == nil {
		username = req.UsernameOrEmailAlias
	}
	return ports.CredentialUpdate{
		Platform:        req.Platform,
		UsernameOrEmail: username,
		WebsiteURL:      req.WebsiteURL,
		Description:     req.Description,
		Password:        req.Password,
	}
}

// --- Domain → Response ---

func toCredentialResponse(c *domain.Credential, password string) credentialResponse {
	return credentialResponse{
		ID:              c.ID,
		Platform:        c.Platform,
		UsernameOrEmail: c.UsernameOrEmail,
		WebsiteURL:      c.WebsiteURL,
		Description:     c.Description,
		Password:        password,
		CreatedAt:       formatTime(c.CreatedAt),
		UpdatedAt:       formatTime(c.UpdatedAt),
	}
}

func toAccountSummary(a *domain.Account) accountSummary {
	return accountSummary{ID: a.ID, Email: a.Email}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
