package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/anisjonischkeit/graphql-authoriser/internal/domain"
)

// UserStore is the slice of the remote store the resolver needs.
// internal/hasura satisfies it.
type UserStore interface {
	UserIDsByFacebookID(ctx context.Context, facebookID string) ([]string, error)
	CreateUser(ctx context.Context, facebookID string) (string, error)
}

// UserResolver maps an external identity to exactly one internal user
// id, creating the user row on first login. The store offers no atomic
// upsert, so resolution is lookup-then-insert with a single lookup
// retry when a concurrent insert wins the race.
type UserResolver struct {
	store  UserStore
	logger *zap.Logger
}

// NewUserResolver wires the resolver over a user store.
func NewUserResolver(store UserStore, logger *zap.Logger) *UserResolver {
	return &UserResolver{store: store, logger: logger}
}

// Resolve returns the internal user id for the external identity. Two
// or more existing rows mean the store's uniqueness invariant is
// broken; resolution fails rather than pick one, since picking would
// allow privilege confusion between the records.
func (r *UserResolver) Resolve(ctx context.Context, facebookID string) (string, error) {
	ids, err := r.store.UserIDsByFacebookID(ctx, facebookID)
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}

	switch len(ids) {
	case 1:
		return ids[0], nil
	case 0:
		return r.create(ctx, facebookID)
	default:
		r.logger.Error("store holds multiple users for one identity",
			zap.String("facebook_id", facebookID),
			zap.Int("matches", len(ids)),
		)
		return "", fmt.Errorf("%w: %d matches", domain.ErrAmbiguousIdentity, len(ids))
	}
}

func (r *UserResolver) create(ctx context.Context, facebookID string) (string, error) {
	id, err := r.store.CreateUser(ctx, facebookID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, domain.ErrCreateConflict) {
		return "", fmt.Errorf("create user: %w", err)
	}

	// A concurrent request inserted the same identity between our
	// lookup and create. The winner's row must now be visible, so one
	// more lookup resolves the race. Bounded to exactly one retry.
	r.logger.Info("create lost insert race, retrying lookup",
		zap.String("facebook_id", facebookID),
	)

	ids, lookupErr := r.store.UserIDsByFacebookID(ctx, facebookID)
	if lookupErr != nil {
		return "", fmt.Errorf("lookup after create conflict: %w", lookupErr)
	}
	switch len(ids) {
	case 1:
		return ids[0], nil
	case 0:
		return "", fmt.Errorf("create conflict but no user visible: %w", err)
	default:
		r.logger.Error("store holds multiple users for one identity",
			zap.String("facebook_id", facebookID),
			zap.Int("matches", len(ids)),
		)
		return "", fmt.Errorf("%w: %d matches after create conflict", domain.ErrAmbiguousIdentity, len(ids))
	}
}
