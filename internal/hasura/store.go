package hasura

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/machinebox/graphql"
	"go.uber.org/zap"

	"github.com/anisjonischkeit/graphql-authoriser/internal/config"
	"github.com/anisjonischkeit/graphql-authoriser/internal/domain"
)

const getUserIDQuery = `query GetUserId($facebook_id: String!) {
  users(where: {facebook_id: {_eq: $facebook_id}}) {
    id
  }
}`

const createUserMutation = `mutation CreateUser($facebook_id: String) {
  insert_users_one(object: {facebook_id: $facebook_id}) {
    id
  }
}`

// Store reads and inserts user rows through Hasura's GraphQL API. The
// admin secret rides on every call; Hasura owns the rows and their
// uniqueness constraint on facebook_id.
type Store struct {
	client      *graphql.Client
	adminSecret string
	logger      *zap.Logger
}

// NewStore creates a store client for the configured Hasura endpoint.
func NewStore(cfg config.Config, httpClient *http.Client, logger *zap.Logger) *Store {
	opts := []graphql.ClientOption{}
	if httpClient != nil {
		opts = append(opts, graphql.WithHTTPClient(httpClient))
	}
	return &Store{
		client:      graphql.NewClient(cfg.HasuraURL, opts...),
		adminSecret: cfg.HasuraAdminSecret,
		logger:      logger,
	}
}

// UserIDsByFacebookID returns every user id the store holds for the
// given external identity. The caller decides what zero, one, or many
// matches mean.
func (s *Store) UserIDsByFacebookID(ctx context.Context, facebookID string) ([]string, error) {
	req := graphql.NewRequest(getUserIDQuery)
	req.Var("facebook_id", facebookID)
	req.Header.Set("x-hasura-admin-secret", s.adminSecret)

	var resp struct {
		Users []struct {
			ID string `json:"id"`
		} `json:"users"`
	}
	if err := s.client.Run(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("%w: get user: %v", domain.ErrStoreRequest, err)
	}

	ids := make([]string, 0, len(resp.Users))
	for _, u := range resp.Users {
		ids = append(ids, u.ID)
	}

	s.logger.Debug("hasura user lookup",
		zap.String("facebook_id", facebookID),
		zap.Int("matches", len(ids)),
	)
	return ids, nil
}

// CreateUser inserts a user row for the external identity and returns
// the new internal id. A uniqueness violation on facebook_id means a
// concurrent request won the insert race and maps to ErrCreateConflict.
func (s *Store) CreateUser(ctx context.Context, facebookID string) (string, error) {
	req := graphql.NewRequest(createUserMutation)
	req.Var("facebook_id", facebookID)
	req.Header.Set("x-hasura-admin-secret", s.adminSecret)

	var resp struct {
		InsertUsersOne struct {
			ID string `json:"id"`
		} `json:"insert_users_one"`
	}
	if err := s.client.Run(ctx, req, &resp); err != nil {
		if isUniquenessViolation(err) {
			return "", fmt.Errorf("%w: %v", domain.ErrCreateConflict, err)
		}
		return "", fmt.Errorf("%w: create user: %v", domain.ErrStoreRequest, err)
	}
	if resp.InsertUsersOne.ID == "" {
		return "", fmt.Errorf("%w: create user returned no id", domain.ErrStoreRequest)
	}

	s.logger.Info("hasura user created",
		zap.String("facebook_id", facebookID),
		zap.String("user_id", resp.InsertUsersOne.ID),
	)
	return resp.InsertUsersOne.ID, nil
}

// isUniquenessViolation inspects Hasura's GraphQL error text for the
// postgres unique-constraint failure surfaced on concurrent inserts.
func isUniquenessViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "uniqueness violation") ||
		strings.Contains(msg, "constraint-violation") ||
		strings.Contains(msg, "duplicate key value")
}
