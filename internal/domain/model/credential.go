package model

import "time"

// Credential holds a stored credential key-value pair. Key identifies the
// credential type ("domain", "token").
type Credential struct {
	ID        int64
	Key       string
	Value     string
	UpdatedAt time.Time
}

// StoreCredential pairs the shop domain with its Admin API access token.
// Domain is a bare host with no scheme; Token is an opaque secret.
type StoreCredential struct {
	Domain string
	Token  string
}

// IsComplete reports whether both halves of the credential pair are present.
func (c StoreCredential) IsComplete() bool {
	return c.Domain != "" && c.Token != ""
}
