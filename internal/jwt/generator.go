package jwt

import (
	"fmt"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"

	"github.com/anisjonischkeit/graphql-authoriser/internal/domain"
)

// HasuraClaimsKey is the namespaced claim key Hasura reads role and
// user information from.
const HasuraClaimsKey = "https://hasura.io/jwt/claims"

const defaultRole = "user"

// HasuraClaims is the namespaced claim block consumed by the
// downstream data layer.
type HasuraClaims struct {
	DefaultRole  string   `json:"x-hasura-default-role"`
	AllowedRoles []string `json:"x-hasura-allowed-roles"`
	UserID       string   `json:"x-hasura-user-id"`
}

// Generator mints HS256-signed session tokens for resolved users.
type Generator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewGenerator creates a token generator. A non-positive ttl falls
// back to domain.DefaultSessionTTL.
func NewGenerator(secret []byte, ttl time.Duration) *Generator {
	if ttl <= 0 {
		ttl = domain.DefaultSessionTTL
	}
	return &Generator{secret: secret, ttl: ttl, now: time.Now}
}

// Claims builds the session claims for a user id at the generator's
// current time.
func (g *Generator) Claims(userID string) (domain.SessionClaims, error) {
	now := g.now()
	if now.IsZero() {
		return domain.SessionClaims{}, domain.ErrClockFailure
	}
	return domain.SessionClaims{
		Subject:      userID,
		Role:         defaultRole,
		AllowedRoles: []string{defaultRole},
		IssuedAt:     now,
		ExpiresAt:    now.Add(g.ttl),
	}, nil
}

// Issue signs a session token for the user id. The token is
// self-contained; downstream services verify it with the shared
// secret and never call back here.
func (g *Generator) Issue(userID string) (string, error) {
	if len(g.secret) == 0 {
		return "", fmt.Errorf("%w: empty signing secret", domain.ErrSigningFailure)
	}

	claims, err := g.Claims(userID)
	if err != nil {
		return "", err
	}

	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: g.secret},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrSigningFailure, err)
	}

	std := jwt.Claims{
		Subject:  claims.Subject,
		IssuedAt: jwt.NewNumericDate(claims.IssuedAt),
		Expiry:   jwt.NewNumericDate(claims.ExpiresAt),
	}
	custom := map[string]interface{}{
		HasuraClaimsKey: HasuraClaims{
			DefaultRole:  claims.Role,
			AllowedRoles: claims.AllowedRoles,
			UserID:       claims.Subject,
		},
	}

	token, err := jwt.Signed(signer).Claims(std).Claims(custom).Serialize()
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrSigningFailure, err)
	}
	return token, nil
}
