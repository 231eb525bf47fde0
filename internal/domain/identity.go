package domain

import "time"

// DefaultSessionTTL is how long issued session tokens stay valid
// unless configuration overrides it.
const DefaultSessionTTL = 12 * 24 * time.Hour

// ExternalIdentity holds the facts returned by the identity provider's
// introspection endpoint. It lives for a single request and is never
// persisted here.
type ExternalIdentity struct {
	SubjectID string
	Valid     bool
	ExpiresAt time.Time
}

// UserRecord maps an external identity to an internal user id. The
// store owns these rows; this service only reads and inserts them.
type UserRecord struct {
	ID         string
	FacebookID string
}

// SessionClaims is the set of authorization facts embedded in an
// issued session token. Built fresh on every issuance; its only
// materialization is the signed token string.
type SessionClaims struct {
	Subject      string
	Role         string
	AllowedRoles []string
	IssuedAt     time.Time
	ExpiresAt    time.Time
}
