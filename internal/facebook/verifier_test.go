package facebook_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anisjonischkeit/graphql-authoriser/internal/config"
	"github.com/anisjonischkeit/graphql-authoriser/internal/domain"
	"github.com/anisjonischkeit/graphql-authoriser/internal/facebook"
)

func newVerifier(baseURL string) *facebook.Verifier {
	cfg := config.Config{
		FacebookGraphURL:   baseURL,
		FacebookAdminToken: "admin-token",
	}
	return facebook.NewVerifier(cfg, nil, zap.NewNop())
}

func TestVerifyValidToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/debug_token", r.URL.Path)
		require.Equal(t, "tok-abc", r.URL.Query().Get("input_token"))
		require.Equal(t, "admin-token", r.URL.Query().Get("access_token"))
		fmt.Fprint(w, `{"data":{"is_valid":true,"user_id":"fb-123","expires_at":1900000000}}`)
	}))
	defer srv.Close()

	identity, err := newVerifier(srv.URL).Verify(context.Background(), "tok-abc")
	require.NoError(t, err)
	require.Equal(t, "fb-123", identity.SubjectID)
	require.True(t, identity.Valid)
	require.False(t, identity.ExpiresAt.IsZero())
}

func TestVerifyInvalidToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"is_valid":false,"user_id":"fb-999"}}`)
	}))
	defer srv.Close()

	_, err := newVerifier(srv.URL).Verify(context.Background(), "tok-bad")
	require.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestVerifyUpstreamRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newVerifier(srv.URL).Verify(context.Background(), "tok-abc")
	require.ErrorIs(t, err, domain.ErrIdPRejected)
}

func TestVerifyMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json at all`)
	}))
	defer srv.Close()

	_, err := newVerifier(srv.URL).Verify(context.Background(), "tok-abc")
	require.ErrorIs(t, err, domain.ErrIdPMalformed)
}

func TestVerifyValidWithoutUserID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"is_valid":true,"user_id":""}}`)
	}))
	defer srv.Close()

	_, err := newVerifier(srv.URL).Verify(context.Background(), "tok-abc")
	require.ErrorIs(t, err, domain.ErrIdPMalformed)
}

func TestVerifyTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newVerifier(srv.URL).Verify(context.Background(), "tok-abc")
	require.ErrorIs(t, err, domain.ErrIdPUnreachable)
}
