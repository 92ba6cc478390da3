package domain

import (
	"strings"
	"time"
)

// Credential is a stored third-party login. The password only ever exists
// here as SecretCiphertext.
type Credential struct {
	ID               string
	OwnerEmail       string
	Platform         string
	UsernameOrEmail  string
	WebsiteURL       string
	Description      string
	SecretCiphertext string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CredentialPatch carries a partial update. Nil fields are left untouched.
// SecretCiphertext is set by the vault service after sealing, never by callers
// holding plaintext.
type CredentialPatch struct {
	Platform         *string
	UsernameOrEmail  *string
	WebsiteURL       *string
	Description      *string
	SecretCiphertext *string
}

// Empty reports whether the patch would change nothing.
func (p CredentialPatch) Empty() bool {
	return p.Platform == nil && p.UsernameOrEmail == nil && p.WebsiteURL == nil &&
		p.Description == nil && p.SecretCiphertext == nil
}

// Apply copies the non-nil fields of p onto c and stamps UpdatedAt.
func (p CredentialPatch) Apply(c *Credential, now time.Time) {
	if p.Platform != nil {
		c.Platform = *p.Platform
	}
	if p.UsernameOrEmail != nil {
		c.UsernameOrEmail = *p.UsernameOrEmail
	}
	if p.WebsiteURL != nil {
		c.WebsiteURL = *p.WebsiteURL
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.SecretCiphertext != nil {
		c.SecretCiphertext = *p.SecretCiphertext
	}
	c.UpdatedAt = now
}

// Validate checks the required metadata of a full record.
func (c Credential) Validate() error {
	switch {
	case strings.TrimSpace(c.Platform) == "":
		return ErrPlatformRequired
	case strings.TrimSpace(c.UsernameOrEmail) == "":
		return ErrUsernameRequired
	case strings.TrimSpace(c.WebsiteURL) == "":
		return ErrWebsiteRequired
	}
	return nil
}
