package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jose "github.com/go-jose/go-jose/v4"
	josejwt "github.com/go-jose/go-jose/v4/jwt"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anisjonischkeit/graphql-authoriser/internal/config"
	"github.com/anisjonischkeit/graphql-authoriser/internal/facebook"
	"github.com/anisjonischkeit/graphql-authoriser/internal/hasura"
	httpHandler "github.com/anisjonischkeit/graphql-authoriser/internal/http/handler"
	"github.com/anisjonischkeit/graphql-authoriser/internal/jwt"
	"github.com/anisjonischkeit/graphql-authoriser/internal/service"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

// newTestRouter assembles the real pipeline over fake Facebook and
// Hasura endpoints.
func newTestRouter(t *testing.T, idpURL, storeURL string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		FacebookGraphURL:   idpURL,
		FacebookAdminToken: "admin-token",
		HasuraURL:          storeURL,
		HasuraAdminSecret:  "super-secret",
	}
	logger := zap.NewNop()

	verifier := facebook.NewVerifier(cfg, nil, logger)
	store := hasura.NewStore(cfg, nil, logger)
	resolver := service.NewUserResolver(store, logger)
	generator := jwt.NewGenerator([]byte(testJWTSecret), 12*24*time.Hour)
	svc := service.NewAuthService(verifier, resolver, generator, logger)
	h := httpHandler.NewAuthHandler(svc)

	r := gin.New()
	r.POST("/verify-facebook-access", h.VerifyFacebookAccess)
	return r
}

func postAction(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/verify-facebook-access", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestVerifyFacebookAccessFirstLogin(t *testing.T) {
	idp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"is_valid":true,"user_id":"fb-123"}}`)
	}))
	defer idp.Close()

	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if strings.Contains(req.Query, "GetUserId") {
			fmt.Fprint(w, `{"data":{"users":[]}}`)
			return
		}
		fmt.Fprint(w, `{"data":{"insert_users_one":{"id":"u-42"}}}`)
	}))
	defer store.Close()

	w := postAction(newTestRouter(t, idp.URL, store.URL), `{"input":{"fbToken":"tok-abc"}}`)

	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		OK          bool   `json:"ok"`
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.True(t, out.OK)

	tok, err := josejwt.ParseSigned(out.AccessToken, []jose.SignatureAlgorithm{jose.HS256})
	require.NoError(t, err)
	var claims josejwt.Claims
	require.NoError(t, tok.Claims([]byte(testJWTSecret), &claims))
	require.Equal(t, "u-42", claims.Subject)
}

func TestVerifyFacebookAccessRepeatLogin(t *testing.T) {
	idp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"is_valid":true,"user_id":"fb-123"}}`)
	}))
	defer idp.Close()

	var creates int32
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if strings.Contains(req.Query, "GetUserId") {
			fmt.Fprint(w, `{"data":{"users":[{"id":"u-7"}]}}`)
			return
		}
		atomic.AddInt32(&creates, 1)
		fmt.Fprint(w, `{"data":{"insert_users_one":{"id":"u-8"}}}`)
	}))
	defer store.Close()

	w := postAction(newTestRouter(t, idp.URL, store.URL), `{"input":{"fbToken":"tok-abc"}}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, int32(0), atomic.LoadInt32(&creates))

	var out struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))

	tok, err := josejwt.ParseSigned(out.AccessToken, []jose.SignatureAlgorithm{jose.HS256})
	require.NoError(t, err)
	var claims josejwt.Claims
	require.NoError(t, tok.Claims([]byte(testJWTSecret), &claims))
	require.Equal(t, "u-7", claims.Subject)
}

func TestVerifyFacebookAccessInvalidToken(t *testing.T) {
	idp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"is_valid":false,"user_id":"fb-999"}}`)
	}))
	defer idp.Close()

	var storeCalls int32
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&storeCalls, 1)
		fmt.Fprint(w, `{"data":{"users":[]}}`)
	}))
	defer store.Close()

	w := postAction(newTestRouter(t, idp.URL, store.URL), `{"input":{"fbToken":"tok-bad"}}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, int32(0), atomic.LoadInt32(&storeCalls))

	require.Contains(t, w.Body.String(), "invalid access token")
	require.Contains(t, w.Body.String(), `"code":null`)
}

func TestVerifyFacebookAccessDecodeError(t *testing.T) {
	w := postAction(newTestRouter(t, "http://unused", "http://unused"), `{"input":{}}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "could not decode body")
	require.Contains(t, w.Body.String(), `"code":null`)
}

func TestVerifyFacebookAccessStoreFailure(t *testing.T) {
	idp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"is_valid":true,"user_id":"fb-123"}}`)
	}))
	defer idp.Close()

	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer store.Close()

	w := postAction(newTestRouter(t, idp.URL, store.URL), `{"input":{"fbToken":"tok-abc"}}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "could not resolve user account")
}
