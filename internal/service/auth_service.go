package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/anisjonischkeit/graphql-authoriser/internal/domain"
)

// IdentityVerifier validates an access token with the external
// identity provider. internal/facebook satisfies it.
type IdentityVerifier interface {
	Verify(ctx context.Context, accessToken string) (domain.ExternalIdentity, error)
}

// TokenIssuer mints signed session tokens. internal/jwt satisfies it.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// AuthService runs the verify-resolve-issue pipeline. Each stage is a
// strict gate: the first failure short-circuits the request. The
// service holds no mutable state; concurrent logins only ever meet in
// the remote store.
type AuthService struct {
	verifier IdentityVerifier
	resolver *UserResolver
	tokens   TokenIssuer
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewAuthService wires the pipeline.
func NewAuthService(verifier IdentityVerifier, resolver *UserResolver, tokens TokenIssuer, logger *zap.Logger) *AuthService {
	return &AuthService{
		verifier: verifier,
		resolver: resolver,
		tokens:   tokens,
		logger:   logger,
		tracer:   otel.Tracer("graphql-authoriser/service"),
	}
}

// VerifyFacebookAccess verifies the Facebook token, resolves the
// internal user, and returns a signed session token.
func (s *AuthService) VerifyFacebookAccess(ctx context.Context, fbToken string) (string, error) {
	ctx, span := s.startSpan(ctx, "AuthService.VerifyFacebookAccess")
	defer span.End()

	identity, err := s.verifier.Verify(ctx, fbToken)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("verify facebook token: %w", err)
	}

	userID, err := s.resolver.Resolve(ctx, identity.SubjectID)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("resolve user: %w", err)
	}

	token, err := s.tokens.Issue(userID)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("issue session token: %w", err)
	}

	s.logger.Info("facebook login verified",
		zap.String("subject", identity.SubjectID),
		zap.String("user_id", userID),
	)
	return token, nil
}

func (s *AuthService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name)
}
