package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/anisjonischkeit/graphql-authoriser/internal/config"
	"github.com/anisjonischkeit/graphql-authoriser/internal/domain"
)

// Verifier validates caller-supplied access tokens against Facebook's
// debug_token introspection endpoint. The admin token authenticates
// this service, not the end user, and never leaves the process except
// on this one outbound call.
type Verifier struct {
	baseURL    string
	adminToken string
	client     *http.Client
	logger     *zap.Logger
}

// NewVerifier creates a verifier for the configured Graph API base URL.
func NewVerifier(cfg config.Config, client *http.Client, logger *zap.Logger) *Verifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &Verifier{
		baseURL:    cfg.FacebookGraphURL,
		adminToken: cfg.FacebookAdminToken,
		client:     client,
		logger:     logger,
	}
}

type debugTokenData struct {
	AppID     string `json:"app_id"`
	IsValid   bool   `json:"is_valid"`
	UserID    string `json:"user_id"`
	ExpiresAt int64  `json:"expires_at"`
}

type debugTokenResponse struct {
	Data debugTokenData `json:"data"`
}

// Verify asks Facebook to introspect the token and returns the stable
// subject identity only when the provider reports it valid. Every
// failure mode maps to a distinct sentinel; none is retried here.
func (v *Verifier) Verify(ctx context.Context, accessToken string) (domain.ExternalIdentity, error) {
	params := url.Values{}
	params.Set("input_token", accessToken)
	params.Set("access_token", v.adminToken)
	reqURL := v.baseURL + "/debug_token?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.ExternalIdentity{}, fmt.Errorf("%w: build request: %v", domain.ErrIdPUnreachable, err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		// Timeouts land here too and are treated like any other
		// transport failure.
		return domain.ExternalIdentity{}, fmt.Errorf("%w: %v", domain.ErrIdPUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		v.logger.Warn("facebook introspection rejected",
			zap.Int("status", resp.StatusCode),
		)
		return domain.ExternalIdentity{}, fmt.Errorf("%w: status %d", domain.ErrIdPRejected, resp.StatusCode)
	}

	var body debugTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.ExternalIdentity{}, fmt.Errorf("%w: %v", domain.ErrIdPMalformed, err)
	}

	if !body.Data.IsValid {
		return domain.ExternalIdentity{}, domain.ErrTokenInvalid
	}
	if body.Data.UserID == "" {
		return domain.ExternalIdentity{}, fmt.Errorf("%w: valid token without user_id", domain.ErrIdPMalformed)
	}

	identity := domain.ExternalIdentity{
		SubjectID: body.Data.UserID,
		Valid:     true,
	}
	if body.Data.ExpiresAt > 0 {
		identity.ExpiresAt = time.Unix(body.Data.ExpiresAt, 0).UTC()
	}

	v.logger.Debug("facebook token verified", zap.String("subject", identity.SubjectID))
	return identity, nil
}
